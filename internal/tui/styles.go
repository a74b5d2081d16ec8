package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/meshtop-go/internal/graph"
)

// Color constants — meshtop palette.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorCyan   = lipgloss.Color("#06b6d4")
	colorPurple = lipgloss.Color("#8b5cf6")
	colorOrange = lipgloss.Color("#f97316")
	colorWhite  = lipgloss.Color("#f8fafc")
	colorDark   = lipgloss.Color("#1e293b")
	colorAlt    = lipgloss.Color("#0f172a")

	colorSelectedBg = lipgloss.Color("#334155")
)

// Health styles — bold foreground, used for node/edge health and the
// connection indicator.
var (
	StyleHealthy  = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	StyleDegraded = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	StyleFailure  = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	StyleNoSignal = lipgloss.NewStyle().Foreground(colorGray)
)

// StyleHeader — full-width dark header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// StyleOverviewCard — bordered card for the overview stat bar.
var StyleOverviewCard = lipgloss.NewStyle().
	Background(colorAlt).
	Foreground(colorWhite).
	Padding(0, 1).
	Margin(0).
	Align(lipgloss.Center)

// StyleMetricCard — card for the 4 metric sparkline panels.
var StyleMetricCard = lipgloss.NewStyle().
	Background(colorAlt).
	Foreground(colorWhite).
	Padding(0, 1).
	Margin(0)

// Table styles.
var (
	StyleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Underline(true).
				Foreground(colorGray)

	StyleTableRow = lipgloss.NewStyle().
			Foreground(colorWhite)

	StyleTableRowAlt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#cbd5e1"))

	StyleTableRowSelected = lipgloss.NewStyle().
				Foreground(colorWhite).
				Background(colorSelectedBg)
)

// Utility styles.
var (
	StyleError = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim   = lipgloss.NewStyle().Foreground(colorGray)
)

// Named color styles for table cell coloring.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	StyleOrange = lipgloss.NewStyle().Foreground(colorOrange)
	StyleBlue   = lipgloss.NewStyle().Foreground(colorBlue)
	StyleCyan   = lipgloss.NewStyle().Foreground(colorCyan)
	StylePurple = lipgloss.NewStyle().Foreground(colorPurple)
	StyleRed    = lipgloss.NewStyle().Foreground(colorRed)
)

// healthColor returns the foreground color for a health classification.
func healthColor(h graph.Health) lipgloss.Color {
	switch h {
	case graph.HealthHealthy:
		return colorGreen
	case graph.HealthDegraded:
		return colorYellow
	case graph.HealthFailure:
		return colorRed
	default:
		return colorGray
	}
}

// HealthStyle returns the style for a health classification.
func HealthStyle(h graph.Health) lipgloss.Style {
	switch h {
	case graph.HealthHealthy:
		return StyleHealthy
	case graph.HealthDegraded:
		return StyleDegraded
	case graph.HealthFailure:
		return StyleFailure
	default:
		return StyleNoSignal
	}
}

// healthGlyph returns the dot used next to node and edge names.
func healthGlyph(h graph.Health) string {
	return HealthStyle(h).Render("●")
}

// sanitize strips ANSI escape sequences and control characters from a string.
// Mesh entity names come from the Kubernetes API and flow straight into the
// terminal; a hostile name must not be able to move the cursor, retitle the
// window, or restyle the rest of the screen.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == 0x1b { // ESC
			if i+1 >= len(runes) {
				break // lone ESC at end of string
			}
			switch runes[i+1] {
			case '[': // CSI: parameters then a final byte in 0x40–0x7e
				i++
				for i+1 < len(runes) {
					i++
					if runes[i] >= 0x40 && runes[i] <= 0x7e {
						break
					}
				}
			case ']': // OSC: terminated by BEL or ST (ESC \)
				i++
				for i+1 < len(runes) {
					i++
					if runes[i] == 0x07 {
						break
					}
					if runes[i] == 0x1b && i+1 < len(runes) && runes[i+1] == '\\' {
						i++
						break
					}
				}
			default: // single-character escape
				i++
			}
			continue
		}
		// C0 controls, DEL, and C1 controls are dropped outright.
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
