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

// NodeTableModel is a sortable, paginated, searchable table of mesh nodes
// (workloads, apps, and services).
type NodeTableModel struct {
	tableModel
	allRows     []model.NodeRow // unfiltered source data
	displayRows []model.NodeRow // after filter + sort applied
}

// NewNodeTable returns a NodeTableModel with 7-column layout and
// default sort by RequestRate (col 4) descending.
func NewNodeTable() NodeTableModel {
	cols := []columnDef{
		{Title: "Name",      Width: 20, SortDesc: false},
		{Title: "Kind",      Width: 8,  SortDesc: false},
		{Title: "Namespace", Width: 12, SortDesc: false},
		{Title: "Health",    Width: 8,  SortDesc: true},
		{Title: "Req/s",     Width: 8,  SortDesc: true},
		{Title: "Err%",      Width: 7,  SortDesc: true},
		{Title: "TCP",       Width: 9,  SortDesc: true},
	}
	m := NodeTableModel{
		tableModel: newTableModel(cols),
	}
	m.sortCol = 4 // RequestRate
	m.sortDesc = true
	return m
}

// SetData replaces the backing rows and re-derives displayRows under the
// current filter and sort.
func (m *NodeTableModel) SetData(rows []model.NodeRow) {
	m.allRows = rows
	filtered := filterNodeRows(m.allRows, m.search)
	m.displayRows = sortNodeRows(filtered, m.sortCol, m.sortDesc)
	m.clampPage(len(m.displayRows))
	m.clampCursor(m.currentPageRowCount(len(m.displayRows)))
}

// Update handles keyboard events for sorting, pagination, and search. Key
// handling lives in the embedded tableModel; this wrapper re-derives
// displayRows whenever the sort column, direction, or search term changed.
func (m NodeTableModel) Update(msg tea.Msg) (NodeTableModel, tea.Cmd) {
	prevSort := m.sortCol
	prevDesc := m.sortDesc
	prevSearch := m.search

	base, cmd := m.tableModel.Update(msg)
	m.tableModel = base

	if m.sortCol != prevSort || m.sortDesc != prevDesc || m.search != prevSearch {
		filtered := filterNodeRows(m.allRows, m.search)
		m.displayRows = sortNodeRows(filtered, m.sortCol, m.sortDesc)
	}
	// Clamp unconditionally: page keys move without changing sort or filter.
	m.clampPage(len(m.displayRows))
	m.clampCursor(m.currentPageRowCount(len(m.displayRows)))
	return m, cmd
}

// renderTable renders the complete "Mesh Nodes" section: a header bar
// followed by the lipgloss table body for the current page.
func (m *NodeTableModel) renderTable(app *App) string {
	pc := pageCount(len(m.displayRows), m.pageSize)
	hdr := m.renderHeader("Mesh Nodes", m.page+1, pc, m.searching, m.search)

	// Size columns proportionally for the current terminal width. The widths
	// are applied by padding the headers: the table library then allocates
	// space along those proportions instead of evenly.
	var colWidths []int
	if app != nil && app.width > 0 {
		colWidths = columnWidths(app.width, m.columns)
	}

	// Header strings, with a direction arrow on the active sort column.
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
			switch col {
			case 1:
				return base.Foreground(colorBlue)
			case 3:
				if row >= 0 && row < len(pageIdx) {
					return base.Foreground(healthColor(rows[pageIdx[row]].Health))
				}
				return base.Foreground(colorWhite)
			case 4:
				return base.Foreground(colorGreen)
			case 5:
				if row >= 0 && row < len(pageIdx) {
					return base.Foreground(severityColor(errorSeverity(rows[pageIdx[row]].ErrorPct)))
				}
				return base.Foreground(colorWhite)
			case 6:
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
			cells[col] = nodeCellValue(r, col)
		}
		// Truncate the name to its column width so the cell never wraps.
		if len(colWidths) > 0 && colWidths[0] > 0 {
			cells[0] = truncateName(cells[0], colWidths[0])
		}
		t = t.Row(cells...)
	}

	// Detail line: full untruncated name plus cluster and mesh flags for the
	// selected row when focused.
	var detailLine string
	if m.focused && len(pageIdx) > 0 && m.cursor < len(pageIdx) {
		r := m.displayRows[pageIdx[m.cursor]]
		detailLine = StyleDim.Render("  " + nodeDetail(r))
	}
	if detailLine != "" {
		return lipgloss.JoinVertical(lipgloss.Left, hdr, t.String(), detailLine)
	}
	return lipgloss.JoinVertical(lipgloss.Left, hdr, t.String())
}

// renderHeader renders the title bar. While a search is being typed the live
// textinput replaces the key hints; an applied filter is shown next to the
// page info.
func (m *NodeTableModel) renderHeader(title string, page, pageCount int, searching bool, searchTerm string) string {
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

// nodeCellValue formats a NodeRow field for a given column index.
func nodeCellValue(r model.NodeRow, col int) string {
	switch col {
	case 0:
		return sanitize(r.Name)
	case 1:
		return sanitize(r.Kind)
	case 2:
		return sanitize(r.Namespace)
	case 3:
		return r.Health.String()
	case 4:
		return format.FormatRate(r.RequestRate)
	case 5:
		return format.FormatPercent(r.ErrorPct)
	case 6:
		return format.FormatBytesRate(r.TCPRate)
	default:
		return ""
	}
}

// nodeDetail summarizes the selected node for the line below the table:
// namespace-qualified name, cluster, and any mesh flags.
func nodeDetail(r model.NodeRow) string {
	name := sanitize(r.Name)
	if r.Namespace != "" {
		name = sanitize(r.Namespace) + "/" + name
	}
	parts := []string{name}
	if r.Cluster != "" {
		parts = append(parts, "cluster="+sanitize(r.Cluster))
	}
	if r.OutOfMesh {
		parts = append(parts, "no sidecar")
	}
	if r.HasVS {
		parts = append(parts, "virtual service")
	}
	return strings.Join(parts, "  ")
}
