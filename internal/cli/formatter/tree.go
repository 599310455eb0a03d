package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// TreeItem represents a single node in a tree display.
type TreeItem struct {
	Title  string
	Level  int
	IsLast bool
	// Marker is a short styled prefix such as "▶ ".
	Marker string
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree renders TreeItems as an indented tree using box-drawing
// connectors, with detail badges right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}

	lines := make([]lineInfo, len(items))
	maxContentWidth := 0

	for idx, item := range items {
		var prefix string
		if item.Level > 0 {
			prefix = strings.Repeat(treePipe, item.Level-1)
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}

		content := StyleDim.Render(prefix) + item.Marker + item.Title
		lines[idx].content = content
		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		}
		if w := lipgloss.Width(content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := max(maxContentWidth-lipgloss.Width(li.content), 0)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}

// EventTimeline lays a session's events out as a tree, each badged with
// its offset from the first event.
func EventTimeline(events []domain.Event) string {
	if len(events) == 0 {
		return Dim("no events") + "\n"
	}
	start := events[0].At
	items := make([]TreeItem, 0, len(events))
	for i, e := range events {
		items = append(items, TreeItem{
			Title:  eventLabel(e.Kind),
			Level:  1,
			IsLast: i == len(events)-1,
			Marker: eventMarker(e.Kind),
			Detail: "+" + FormatMinutes(e.At.Sub(start).Minutes()),
		})
	}
	return RenderTree(items)
}

func eventLabel(k domain.EventKind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}

func eventMarker(k domain.EventKind) string {
	switch k {
	case domain.EventWorkStart, domain.EventBreakEnd, domain.EventProcrastinationEnd:
		return StyleGreen.Render("▶ ")
	case domain.EventBreakStart:
		return StyleBlue.Render("⏸ ")
	case domain.EventProcrastinationStart:
		return StyleRed.Render("◌ ")
	case domain.EventBurnout:
		return StyleYellowBold.Render("! ")
	case domain.EventWorkEnd:
		return StyleDim.Render("■ ")
	}
	return "  "
}
