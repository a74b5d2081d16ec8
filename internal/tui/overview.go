package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/meshtop-go/internal/format"
	"github.com/dm/meshtop-go/internal/model"
)

// renderOverview renders the 7-card overview bar: one horizontal row at
// >= 80 cols, pairs stacked into four rows below that. Empty until the
// first snapshot arrives.
func renderOverview(app *App) string {
	if app.current == nil {
		return ""
	}

	width := app.width
	if width <= 0 {
		width = 80
	}

	narrowMode := width < 80

	var cardWidth int
	if narrowMode {
		cardWidth = (width - 4) / 2
		if cardWidth < 10 {
			cardWidth = 10
		}
	} else {
		cardWidth = (width - 14) / 7
		if cardWidth < 8 {
			cardWidth = 8
		}
	}

	// Gauge width inside a card, after the card's own padding.
	barWidth := cardWidth - 4
	if barWidth < 4 {
		barWidth = 4
	}

	stats := app.current.Stats

	// Card 1: mesh status on a colored background.
	statusText, statusBg := meshStatus(stats)
	card1 := StyleOverviewCard.
		Background(statusBg).
		Foreground(colorDark).
		Bold(true).
		Width(cardWidth).
		Render(statusText + "\nMesh")

	// Card 2: namespace count.
	card2 := StyleOverviewCard.
		Foreground(colorBlue).
		Width(cardWidth).
		Render(fmt.Sprintf("%d", stats.Namespaces) + "\nNamespaces")

	// Card 3: workload count.
	card3 := StyleOverviewCard.
		Foreground(colorPurple).
		Width(cardWidth).
		Render(fmt.Sprintf("%d", stats.Workloads) + "\nWorkloads")

	// Card 4: service count.
	card4 := StyleOverviewCard.
		Foreground(colorCyan).
		Width(cardWidth).
		Render(fmt.Sprintf("%d", stats.Services) + "\nServices")

	// Card 5: mesh-wide request rate.
	card5 := StyleOverviewCard.
		Foreground(colorGreen).
		Width(cardWidth).
		Render(format.FormatRate(stats.RequestRate) + "\nReq Rate")

	// Card 6: error rate with a gauge, colored by errorSeverity.
	errPct := stats.ErrorPercent
	errSev := errorSeverity(errPct)
	errVal := fmt.Sprintf("%.1f%%", errPct)
	if errSev == severityCritical {
		errVal += "!"
	}
	errFg := severityColor(errSev)
	if errSev == severityNormal {
		errFg = colorGreen
	}
	errBar := renderMiniBar(errPct, barWidth)
	card6 := StyleOverviewCard.
		Foreground(errFg).
		Width(cardWidth).
		Render(errVal + "\n" + errBar + "\nErrors")

	// Card 7: mTLS coverage with a gauge, colored by mtlsSeverity.
	mtlsPct := stats.MTLSPercent
	mtlsSev := mtlsSeverity(mtlsPct)
	mtlsVal := fmt.Sprintf("%.1f%%", mtlsPct)
	if mtlsSev == severityCritical {
		mtlsVal += "!"
	}
	mtlsFg := severityColor(mtlsSev)
	if mtlsSev == severityNormal {
		mtlsFg = colorGreen
	}
	mtlsBar := renderMiniBar(mtlsPct, barWidth)
	card7 := StyleOverviewCard.
		Foreground(mtlsFg).
		Width(cardWidth).
		Render(mtlsVal + "\n" + mtlsBar + "\nmTLS")

	if narrowMode {
		// Pairs, with the odd seventh card on its own row.
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, card1, card2)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, card3, card4)
		row3 := lipgloss.JoinHorizontal(lipgloss.Top, card5, card6)
		return lipgloss.JoinVertical(lipgloss.Left, row1, row2, row3, card7)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, card1, card2, card3, card4, card5, card6, card7)
}

// meshStatus summarizes the mesh from the aggregated stats: any failing
// node wins, then degraded, then traffic presence.
func meshStatus(s model.GraphStats) (string, lipgloss.Color) {
	switch {
	case s.Failing > 0:
		return "FAILING", colorRed
	case s.Degraded > 0:
		return "DEGRADED", colorYellow
	case s.RequestRate > 0 || s.TCPRate > 0:
		return "HEALTHY", colorGreen
	default:
		return "QUIET", colorGray
	}
}

// renderMiniBar draws percent as a fixed-width block gauge, "█" for the
// filled cells and "░" for the rest.
func renderMiniBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	switch {
	case percent < 0:
		percent = 0
	case percent > 100:
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
