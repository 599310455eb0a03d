package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		return boxStyle.Render(titleRendered+"\n\n"+content) + "\n"
	}

	return boxStyle.Render(content) + "\n"
}

// HumanDate returns "Today", "Yesterday" or an absolute date relative to now.
func HumanDate(t, now time.Time) string {
	t = t.In(now.Location())
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()

	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "Today"
	}
	y3, m3, d3 := now.AddDate(0, 0, -1).Date()
	if y2 == y3 && m2 == m3 && d2 == d3 {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}

// HumanTimestamp returns a relative timestamp for recent times and a date otherwise.
func HumanTimestamp(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < 0:
		return HumanDate(t, now)
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return HumanDate(t, now)
	}
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// FormatMinutes renders fractional minutes as "1h 5m", "25m" or "<1m".
func FormatMinutes(min float64) string {
	if min <= 0 {
		return "0m"
	}
	total := int(math.Round(min))
	if total == 0 {
		return "<1m"
	}
	h := total / 60
	m := total % 60
	if h > 0 && m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatOptionalMinutes renders a nil value as a dim dash.
func FormatOptionalMinutes(min *float64) string {
	if min == nil {
		return Dim("--")
	}
	return FormatMinutes(*min)
}

// FormatRatio renders a focus ratio as a percentage.
func FormatRatio(r *float64) string {
	if r == nil {
		return Dim("--")
	}
	return fmt.Sprintf("%.0f%%", *r*100)
}

// FormatClock renders elapsed minutes as a running clock, e.g. "1:05:09".
func FormatClock(min float64) string {
	if min < 0 {
		min = 0
	}
	secs := int(min * 60)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
