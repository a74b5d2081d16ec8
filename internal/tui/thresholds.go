package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/meshtop-go/internal/graph"
)

// severity represents the alert level for a metric value.
type severity int

const (
	severityNormal   severity = iota
	severityWarning           // yellow
	severityCritical          // red
)

// errorSeverity mirrors the health classification: Warning above 0.1%
// errors, Critical at 20% or more.
func errorSeverity(pct float64) severity {
	switch {
	case pct >= 20:
		return severityCritical
	case pct > 0.1:
		return severityWarning
	default:
		return severityNormal
	}
}

// latencySeverity returns Warning when response time > 500ms, Critical
// when > 1000ms.
func latencySeverity(ms float64) severity {
	switch {
	case ms > 1000:
		return severityCritical
	case ms > 500:
		return severityWarning
	default:
		return severityNormal
	}
}

// mtlsSeverity grades the encrypted share of request traffic: Warning
// below 95%, Critical below 50%.
func mtlsSeverity(pct float64) severity {
	switch {
	case pct < 50:
		return severityCritical
	case pct < 95:
		return severityWarning
	default:
		return severityNormal
	}
}

// healthSeverity maps a health classification onto the card severity
// scale. No signal is not an alert condition.
func healthSeverity(h graph.Health) severity {
	switch h {
	case graph.HealthFailure:
		return severityCritical
	case graph.HealthDegraded:
		return severityWarning
	default:
		return severityNormal
	}
}

// severityToStyle maps a severity level to the appropriate lipgloss style.
func severityToStyle(s severity) lipgloss.Style {
	switch s {
	case severityWarning:
		return StyleYellow
	case severityCritical:
		return StyleRed
	default:
		return lipgloss.NewStyle()
	}
}

// severityColor maps a severity level to a table cell foreground color.
func severityColor(s severity) lipgloss.Color {
	switch s {
	case severityWarning:
		return colorYellow
	case severityCritical:
		return colorRed
	default:
		return colorWhite
	}
}
