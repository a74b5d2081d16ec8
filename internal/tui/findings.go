package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/meshtop-go/internal/model"
)

// categoryLabel returns the display name for a finding category.
func categoryLabel(cat model.FindingCategory) string {
	switch cat {
	case model.CategoryHealth:
		return "Health"
	case model.CategorySecurity:
		return "Security"
	case model.CategoryTraffic:
		return "Traffic"
	case model.CategoryConfig:
		return "Configuration"
	default:
		return "Other"
	}
}

// severityBadge returns a colored, fixed-width badge for the given severity.
func severityBadge(sev model.FindingSeverity) string {
	switch sev {
	case model.SeverityCritical:
		return StyleRed.Bold(true).Render("[CRITICAL]")
	case model.SeverityWarning:
		return StyleYellow.Bold(true).Render("[WARN]    ")
	default:
		return StyleGreen.Bold(true).Render("[INFO]    ")
	}
}

// wrapText wraps text at maxWidth rune-columns, breaking at word boundaries.
// Returns the original string unchanged when it fits within maxWidth.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 || utf8.RuneCountInString(text) <= maxWidth {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	var lines []string
	var current strings.Builder
	var currentLen int // rune count of current line
	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		if currentLen == 0 {
			current.WriteString(word)
			currentLen = wordLen
		} else if currentLen+1+wordLen <= maxWidth {
			current.WriteByte(' ')
			current.WriteString(word)
			currentLen += 1 + wordLen
		} else {
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			currentLen = wordLen
		}
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	return strings.Join(lines, "\n")
}

// buildFindingsLines returns the full list of rendered content lines for the
// findings view. Extracted so the same logic can be used both during rendering
// and when computing the maximum scroll offset in Update().
func buildFindingsLines(findings []model.Finding, width int) []string {
	var lines []string
	if len(findings) == 0 {
		lines = append(lines, "")
		lines = append(lines, "  "+StyleGreen.Bold(true).Render("No findings — mesh looks healthy"))
		lines = append(lines, "")
	} else {
		categories := []model.FindingCategory{
			model.CategoryHealth,
			model.CategorySecurity,
			model.CategoryTraffic,
			model.CategoryConfig,
		}
		for _, cat := range categories {
			var catFindings []model.Finding
			for _, f := range findings {
				if f.Category == cat {
					catFindings = append(catFindings, f)
				}
			}
			if len(catFindings) == 0 {
				continue
			}
			catHeader := StyleDim.Bold(true).Underline(true).Render(categoryLabel(cat))
			lines = append(lines, "")
			lines = append(lines, "  "+catHeader)
			for _, f := range catFindings {
				badge := severityBadge(f.Severity)
				lines = append(lines, fmt.Sprintf("  %s %s", badge, sanitize(f.Title)))
				if f.Detail != "" {
					wrapped := wrapText(sanitize(f.Detail), width-6)
					for _, dline := range strings.Split(wrapped, "\n") {
						lines = append(lines, "    "+dline)
					}
				}
			}
		}
	}
	return lines
}

// renderFindingsTitle renders the title bar for the findings screen and
// returns the styled string. Extracted so that both renderFindings and
// findingsMaxOffset measure the same rendered height instead of assuming a
// constant of 1 line (which breaks on narrow terminals where the title wraps).
func renderFindingsTitle(width int) string {
	const titleText = "Mesh Findings"
	hintText := StyleDim.Render("[↑↓: scroll]")
	hintVW := lipgloss.Width(hintText)
	titleVW := lipgloss.Width(titleText)
	innerWidth := width - 2 // StyleHeader has Padding(0,1) -> 1 char per side
	gap := innerWidth - titleVW - hintVW
	if gap < 1 {
		gap = 1
	}
	titleRow := titleText + strings.Repeat(" ", gap) + hintText
	return StyleHeader.Width(width).MaxWidth(width).Render(titleRow)
}

// findingsMaxOffset returns the maximum valid findingsScrollOffset for the
// current app state. Called from Update() to clamp the stored offset after a
// scroll key event, preventing overscroll debt where the stored offset
// exceeds the real content bound and subsequent scroll-up presses appear
// non-responsive because the display stays clamped until the debt is paid down.
func findingsMaxOffset(app *App) int {
	width := app.width
	if width <= 0 {
		width = 80
	}
	height := app.height
	if height <= 0 {
		height = 24
	}
	headerH := renderedHeight(renderHeader(app))
	alertH := renderedHeight(app.alert.view(width))
	titleH := renderedHeight(renderFindingsTitle(width))
	footerH := renderedHeight(renderFooter(app))
	availH := height - headerH - alertH - titleH - footerH
	if availH < 1 {
		availH = 1
	}
	var findings []model.Finding
	if app.current != nil {
		findings = app.current.Findings
	}
	lines := buildFindingsLines(findings, width)
	overflows := len(lines) > availH
	contentH := availH
	if overflows && contentH > 1 {
		contentH--
	}
	max := len(lines) - contentH
	if max < 0 {
		max = 0
	}
	return max
}

// renderFindings renders the findings title bar followed by the scrollable
// findings list. The caller (View) renders the console header above and
// footer below; renderFindings accounts for those heights when computing the
// available content height so the full layout exactly fills the terminal.
func renderFindings(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	height := app.height
	if height <= 0 {
		height = 24
	}

	// Title bar: left title + right hint, styled like the console header.
	titleBar := renderFindingsTitle(width)
	titleH := lipgloss.Height(titleBar)

	// Available lines for scrollable content: total height minus the sections
	// rendered outside this function (console header, alert banner,
	// findings title, footer).
	headerH := renderedHeight(renderHeader(app))
	alertH := renderedHeight(app.alert.view(width))
	footerH := renderedHeight(renderFooter(app))
	availH := height - headerH - alertH - titleH - footerH
	if availH < 1 {
		availH = 1
	}

	// Build the full list of content lines.
	var findings []model.Finding
	if app.current != nil {
		findings = app.current.Findings
	}
	lines := buildFindingsLines(findings, width)

	// When content overflows, reserve the last line for a scroll hint.
	overflows := len(lines) > availH
	contentH := availH
	if overflows && contentH > 1 {
		contentH--
	}

	// Clamp scroll offset to valid range (read-only; model state is not mutated in View).
	maxOffset := len(lines) - contentH
	if maxOffset < 0 {
		maxOffset = 0
	}
	offset := app.findingsScrollOffset
	if offset > maxOffset {
		offset = maxOffset
	}

	// Slice visible content lines.
	end := offset + contentH
	if end > len(lines) {
		end = len(lines)
	}
	var visibleLines []string
	if offset < len(lines) {
		visibleLines = append(visibleLines, lines[offset:end]...)
	}

	// Pad content area to contentH with empty lines.
	for len(visibleLines) < contentH {
		visibleLines = append(visibleLines, "")
	}

	// Append scroll hint as its own line (does not overwrite content).
	if overflows {
		var hint string
		if offset == 0 {
			hint = StyleDim.Render("  ↓ scroll for more")
		} else if offset >= maxOffset {
			hint = StyleDim.Render("  ↑ scroll up")
		} else {
			hint = StyleDim.Render("  ↑↓ scroll")
		}
		visibleLines = append(visibleLines, hint)
	}

	content := strings.Join(visibleLines, "\n")
	return titleBar + "\n" + content
}
