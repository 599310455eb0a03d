package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a bar like [████░░░░] 45%.
// Green above 66%, yellow from 33%, red below.
func RenderProgress(pct float64, width int) string {
	return fmt.Sprintf("[%s] %3.0f%%", RenderCompactBar(pct, width), clampUnit(pct)*100)
}

// RenderCompactBar renders only the colored blocks, for tight layouts.
func RenderCompactBar(pct float64, width int) string {
	pct = clampUnit(pct)
	if width < 2 {
		width = 2
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}
	return style.Render(bar)
}

func clampUnit(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}
