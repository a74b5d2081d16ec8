package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkLevels maps a normalized sample to one of eight block heights.
var sparkLevels = [...]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline draws values as a fixed-width block sparkline, newest
// sample rightmost. Shorter histories are left-padded with spaces so
// the line does not jump while samples accumulate; longer ones show the
// tail. Bars scale against the window maximum, so the tallest visible
// sample always renders '█'. A window with no positive sample renders
// all floors; negative samples clamp to the floor too.
func RenderSparkline(values []float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var max float64
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	bars := make([]rune, 0, width)
	for pad := width - len(values); pad > 0; pad-- {
		bars = append(bars, ' ')
	}
	top := len(sparkLevels) - 1
	for _, v := range values {
		level := 0
		if max > 0 && v > 0 {
			level = int(v / max * float64(top))
			if level > top {
				level = top
			}
		}
		bars = append(bars, sparkLevels[level])
	}

	return lipgloss.NewStyle().Foreground(color).Render(string(bars))
}
