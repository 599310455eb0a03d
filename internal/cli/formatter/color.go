package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/forecast"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StateColor returns the style used for a tracker state.
func StateColor(state domain.SessionState) lipgloss.Style {
	switch state {
	case domain.StateWorking:
		return StyleGreen
	case domain.StateOnBreak:
		return StyleBlue
	case domain.StateProcrastinating:
		return StyleRed
	default:
		return StyleDim
	}
}

// StateIndicator returns a colored state label such as "● WORKING".
func StateIndicator(state domain.SessionState) string {
	switch state {
	case domain.StateWorking:
		return StyleGreen.Render("● WORKING")
	case domain.StateOnBreak:
		return StyleBlue.Render("◐ ON BREAK")
	case domain.StateProcrastinating:
		return StyleRed.Render("◌ PROCRASTINATING")
	default:
		return StyleDim.Render("○ IDLE")
	}
}

// MethodBadge labels the tier that produced a prediction.
func MethodBadge(m forecast.Method) string {
	switch m {
	case forecast.MethodRegression:
		return StylePurple.Render("regression")
	case forecast.MethodEMA:
		return StyleBlue.Render("ema")
	default:
		return StyleDim.Render("not enough data")
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
