package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/dm/meshtop-go/internal/format"
	"github.com/dm/meshtop-go/internal/model"
)

// EdgeTableModel is a sortable, paginated, searchable table of traffic
// edges (source → target routes).
type EdgeTableModel struct {
	tableModel
	allRows     []model.EdgeRow // unfiltered source data
	displayRows []model.EdgeRow // after filter + sort applied
}

// NewEdgeTable returns an EdgeTableModel with 8-column layout and
// default sort by RequestRate (col 3) descending.
func NewEdgeTable() EdgeTableModel {
	cols := []columnDef{
		{Title: "Source",  Width: 18, SortDesc: false},
		{Title: "Target",  Width: 18, SortDesc: false},
		{Title: "Health",  Width: 8,  SortDesc: true},
		{Title: "Req/s",   Width: 8,  SortDesc: true},
		{Title: "Err%",    Width: 7,  SortDesc: true},
		{Title: "RT",      Width: 9,  SortDesc: true},
		{Title: "mTLS%",   Width: 7,  SortDesc: false},
		{Title: "TCP",     Width: 9,  SortDesc: true},
	}
	m := EdgeTableModel{
		tableModel: newTableModel(cols),
	}
	m.sortCol = 3 // RequestRate
	m.sortDesc = true
	return m
}

// SetData applies the current search filter and sort to rows, storing the
// result as displayRows ready for rendering.
func (m *EdgeTableModel) SetData(rows []model.EdgeRow) {
	m.allRows = rows
	filtered := filterEdgeRows(m.allRows, m.search)
	m.displayRows = sortEdgeRows(filtered, m.sortCol, m.sortDesc)
	m.clampPage(len(m.displayRows))
	m.clampCursor(m.currentPageRowCount(len(m.displayRows)))
}

// Update handles keyboard events for sorting, pagination, and search. It
// delegates to the embedded tableModel and re-applies filter/sort when the
// sort column, direction, or search term changes.
func (m EdgeTableModel) Update(msg tea.Msg) (EdgeTableModel, tea.Cmd) {
	prevSort := m.sortCol
	prevDesc := m.sortDesc
	prevSearch := m.search

	base, cmd := m.tableModel.Update(msg)
	m.tableModel = base

	if m.sortCol != prevSort || m.sortDesc != prevDesc || m.search != prevSearch {
		filtered := filterEdgeRows(m.allRows, m.search)
		m.displayRows = sortEdgeRows(filtered, m.sortCol, m.sortDesc)
	}
	m.clampPage(len(m.displayRows))
	m.clampCursor(m.currentPageRowCount(len(m.displayRows)))
	return m, cmd
}

// renderTable renders the complete "Mesh Edges" section: a header bar
// followed by the lipgloss table body for the current page.
func (m *EdgeTableModel) renderTable(app *App) string {
	pc := pageCount(len(m.displayRows), m.pageSize)
	hdr := m.renderHeader("Mesh Edges", m.page+1, pc, m.searching, m.search)

	var colWidths []int
	if app != nil && app.width > 0 {
		colWidths = columnWidths(app.width, m.columns)
	}

	// Build column header strings, appending a sort direction arrow to the
	// active sort column.
	headers := make([]string, len(m.columns))
	for i, c := range m.columns {
		if i == m.sortCol {
			arrow := "↓"
			if !m.sortDesc {
				arrow = "↑"
			}
			headers[i] = c.Title + arrow
		} else {
			headers[i] = c.Title
		}
	}

	// Pad headers to target column widths so the table allocates proportional space.
	if len(colWidths) == len(m.columns) {
		for i, h := range headers {
			runes := []rune(h)
			if len(runes) < colWidths[i] {
				headers[i] = h + strings.Repeat(" ", colWidths[i]-len(runes))
			}
		}
	}

	// Determine which rows to display on the current page.
	allIdx := make([]int, len(m.displayRows))
	for i := range m.displayRows {
		allIdx[i] = i
	}
	pageIdx := currentPageIndices(allIdx, m.page, m.pageSize)

	if len(pageIdx) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, hdr, StyleDim.Render("  (no traffic)"))
	}

	sortCol := m.sortCol
	focused := m.focused
	cursor := m.cursor
	rows := m.displayRows
	t := ltable.New().
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				if col == sortCol {
					return lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
				}
				return lipgloss.NewStyle().Bold(true).Foreground(colorGray)
			}
			base := lipgloss.NewStyle()
			if focused && row == cursor {
				base = base.Background(colorSelectedBg)
			} else if row%2 == 0 {
				base = base.Background(colorAlt)
			}
			if row < 0 || row >= len(pageIdx) {
				return base.Foreground(colorWhite)
			}
			r := rows[pageIdx[row]]
			switch col {
			case 2:
				return base.Foreground(healthColor(r.Health))
			case 3:
				return base.Foreground(colorGreen)
			case 4:
				return base.Foreground(severityColor(errorSeverity(r.ErrorPct)))
			case 5:
				return base.Foreground(severityColor(latencySeverity(r.ResponseTime)))
			case 6:
				return base.Foreground(severityColor(mtlsSeverity(r.MTLSPercent)))
			case 7:
				return base.Foreground(colorCyan)
			default:
				return base.Foreground(colorWhite)
			}
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)

	if app != nil && app.width > 0 {
		t = t.Width(app.width)
	}

	for _, idx := range pageIdx {
		r := m.displayRows[idx]
		cells := make([]string, len(m.columns))
		for col := range m.columns {
			cells[col] = edgeCellValue(r, col)
		}
		// Prevent cell wrapping: truncate endpoint names to allocated widths.
		if len(colWidths) > 1 {
			if colWidths[0] > 0 {
				cells[0] = truncateName(cells[0], colWidths[0])
			}
			if colWidths[1] > 0 {
				cells[1] = truncateName(cells[1], colWidths[1])
			}
		}
		t = t.Row(cells...)
	}

	// Detail line: the full route for the selected row when focused.
	var detailLine string
	if m.focused && len(pageIdx) > 0 && m.cursor < len(pageIdx) {
		r := m.displayRows[pageIdx[m.cursor]]
		detailLine = StyleDim.Render(fmt.Sprintf("  %s → %s  RT=%s  mTLS=%s",
			sanitize(r.Source), sanitize(r.Target),
			format.FormatLatency(r.ResponseTime), format.FormatPercent(r.MTLSPercent)))
	}
	if detailLine != "" {
		return lipgloss.JoinVertical(lipgloss.Left, hdr, t.String(), detailLine)
	}
	return lipgloss.JoinVertical(lipgloss.Left, hdr, t.String())
}

// renderHeader renders the title bar with search/sort/page hints.
func (m *EdgeTableModel) renderHeader(title string, page, pageCount int, searching bool, searchTerm string) string {
	pageInfo := fmt.Sprintf("Page %d/%d", page, pageCount)

	var right string
	switch {
	case searching:
		right = "Search: " + m.input.View()
	case searchTerm != "":
		right = fmt.Sprintf("filter=%q  %s", searchTerm, pageInfo)
	default:
		right = fmt.Sprintf("[/: search]  [1-9: sort]  [←→: page]  %s", pageInfo)
	}

	return StyleDim.Render(title + "  " + right)
}

// edgeCellValue formats an EdgeRow field for a given column index.
func edgeCellValue(r model.EdgeRow, col int) string {
	switch col {
	case 0:
		return sanitize(r.Source)
	case 1:
		return sanitize(r.Target)
	case 2:
		return r.Health.String()
	case 3:
		return format.FormatRate(r.RequestRate)
	case 4:
		return format.FormatPercent(r.ErrorPct)
	case 5:
		return format.FormatLatency(r.ResponseTime)
	case 6:
		return format.FormatPercent(r.MTLSPercent)
	case 7:
		return format.FormatBytesRate(r.TCPRate)
	default:
		return ""
	}
}
