package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/meshtop-go/internal/client"
	"github.com/dm/meshtop-go/internal/format"
)

// renderHeader renders the top header bar with console URL, connection
// state, and refresh info.
//
// Layout:
//   left:   console base URL (or "Connecting to <URL>..." on first connect)
//   center: colored "● STATUS" indicator plus the mesh-wide mTLS badge
//   right:  "NS: sel/total  window  Last: HH:MM:SS  Auto: Ns" (or "Press r to retry" when offline)
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	baseURL := ""
	if app.client != nil {
		baseURL = app.client.BaseURL()
	}

	var left, center, right string

	if app.current == nil {
		// No successful snapshot yet — initial connecting state.
		left = "Connecting to " + baseURL + "..."

		if app.connState == stateDisconnected && app.lastError != nil {
			center = StyleError.Render("● DISCONNECTED  " + errExcerpt(app.lastError))
			right = StyleError.Render("Press r to retry")
		}
	} else {
		left = baseURL

		switch app.connState {
		case stateDisconnected:
			// Lost connection after a successful fetch.
			errDisplay := "● DISCONNECTED"
			if app.lastError != nil {
				errDisplay += "  " + errExcerpt(app.lastError)
			}
			center = StyleError.Render(errDisplay)
			right = StyleError.Render("Press r to retry")
		case stateDegraded:
			errDisplay := "● DEGRADED"
			if app.lastError != nil {
				errDisplay += "  " + errExcerpt(app.lastError)
			}
			center = StyleDegraded.Render(errDisplay)
			right = renderHeaderInfo(app)
		default:
			center = StyleHealthy.Render("● CONNECTED")
			if badge := tlsBadge(app.current.TLS.Status); badge != "" {
				center += "  " + badge
			}
			right = renderHeaderInfo(app)
		}
	}

	// Build row: left + padding + center + padding + right, filling innerWidth.
	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	leftVW := lipgloss.Width(left)
	centerVW := lipgloss.Width(center)
	rightVW := lipgloss.Width(right)

	spacing := innerWidth - leftVW - centerVW - rightVW
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	// Truncate rather than wrap when the three segments overflow the bar,
	// so the header always occupies exactly one row.
	row = lipgloss.NewStyle().MaxWidth(innerWidth).Render(row)

	return StyleHeader.Width(width).Render(row)
}

// renderHeaderInfo renders the right-hand header segment: namespace
// selection, traffic window, last update time, and refresh interval.
func renderHeaderInfo(app *App) string {
	lastStr := "Connecting..."
	if !app.lastUpdated.IsZero() {
		lastStr = app.lastUpdated.Format("15:04:05")
	}
	return StyleDim.Render(fmt.Sprintf("NS: %d/%d  %s  Last: %s  Auto: %s",
		len(app.selected), len(app.namespaces),
		format.FormatWindow(app.window),
		lastStr, formatDuration(app.refreshEvery)))
}

// tlsBadge renders the mesh-wide mTLS state reported by the control
// plane; unknown states render nothing.
func tlsBadge(status string) string {
	switch status {
	case client.MTLSEnabled:
		return StyleHealthy.Render("mTLS")
	case client.MTLSPartiallyEnabled:
		return StyleDegraded.Render("mTLS partial")
	case client.MTLSNotEnabled:
		return StyleError.Render("no mTLS")
	default:
		return ""
	}
}

// errExcerpt trims an error message so the header keeps a single row.
func errExcerpt(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 40 {
		msg = msg[:40] + "..."
	}
	return msg
}

// formatDuration formats a refresh interval as a compact string, e.g. "10s",
// "2m", or "1m30s".
func formatDuration(d time.Duration) string {
	s := int(d.Seconds())
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	if s%60 == 0 {
		return fmt.Sprintf("%dm", s/60)
	}
	return fmt.Sprintf("%dm%ds", s/60, s%60)
}
