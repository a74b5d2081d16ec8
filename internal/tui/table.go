package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// minColWidth is the floor a column can be squeezed to on narrow
// terminals.
const minColWidth = 4

// columnDef describes a single column in a table. SortDesc is the
// direction applied when the column first becomes the sort column;
// numeric columns read best descending, name columns ascending.
type columnDef struct {
	Title    string
	Width    int
	Align    string // "left", "right", "center"
	Key      string // sort key (informational)
	SortDesc bool
}

// tableModel is the generic base for sortable, paginated, searchable
// tables with a selectable row cursor.
type tableModel struct {
	columns   []columnDef
	sortCol   int // -1 = unsorted
	sortDesc  bool
	page      int // 0-indexed
	pageSize  int // default 10
	cursor    int // row index within the current page
	search    string
	searching bool
	input     textinput.Model
	focused   bool
}

// newTableModel initialises a tableModel with sensible defaults.
func newTableModel(cols []columnDef) tableModel {
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.CharLimit = 80
	return tableModel{
		columns:  cols,
		sortCol:  -1,
		pageSize: 10,
		input:    ti,
	}
}

// Update handles keyboard input for sorting, pagination, search, and
// cursor movement. The cursor resets to the top whenever the visible
// row set changes under it (page, sort, or filter change); the embedding
// table clamps it against the actual page row count afterwards.
func (t tableModel) Update(msg tea.Msg) (tableModel, tea.Cmd) {
	if !t.focused {
		return t, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if t.searching {
			switch {
			case key.Matches(msg, keys.Escape):
				t.searching = false
				t.input.Blur()
				if t.input.Value() == "" {
					t.search = ""
				}
				return t, nil
			case msg.String() == "enter":
				t.search = t.input.Value()
				t.searching = false
				t.input.Blur()
				t.page = 0
				t.cursor = 0
				return t, nil
			default:
				var cmd tea.Cmd
				t.input, cmd = t.input.Update(msg)
				return t, cmd
			}
		}

		// Not searching — handle navigation keys.
		switch {
		case key.Matches(msg, keys.Search):
			t.searching = true
			t.input.SetValue(t.search)
			t.input.Focus()
			return t, textinput.Blink
		case key.Matches(msg, keys.Escape):
			t.search = ""
			t.input.SetValue("")
			t.page = 0
			t.cursor = 0
			return t, nil
		case key.Matches(msg, keys.PrevPage):
			if t.page > 0 {
				t.page--
			}
			t.cursor = 0
			return t, nil
		case key.Matches(msg, keys.NextPage):
			t.page++
			t.cursor = 0
			return t, nil
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
			return t, nil
		case key.Matches(msg, keys.Down):
			t.cursor++
			return t, nil
		default:
			// Digit keys 1-9 → set sort column.
			col := digitToCol(msg.String())
			if col >= 0 && col < len(t.columns) {
				if col == t.sortCol {
					t.sortDesc = !t.sortDesc
				} else {
					t.sortCol = col
					t.sortDesc = t.columns[col].SortDesc
				}
				t.page = 0
				t.cursor = 0
				return t, nil
			}
		}
	}
	return t, nil
}

// digitToCol converts a "1"–"9" key string to a 0-indexed column number.
// Returns -1 for any other string.
func digitToCol(s string) int {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '1')
	}
	return -1
}

// pageCount returns the total number of pages for totalRows rows at pageSize rows per page.
// Always at least 1.
func pageCount(totalRows, pageSize int) int {
	if totalRows == 0 || pageSize <= 0 {
		return 1
	}
	c := totalRows / pageSize
	if totalRows%pageSize != 0 {
		c++
	}
	return c
}

// currentPageIndices returns the slice of row indices visible on the current page.
// allIndices is typically [0, 1, 2, ... n-1] or a pre-filtered subset.
func currentPageIndices(allIndices []int, page, pageSize int) []int {
	if pageSize <= 0 || len(allIndices) == 0 {
		return allIndices
	}
	start := page * pageSize
	if start >= len(allIndices) {
		start = 0
	}
	end := start + pageSize
	if end > len(allIndices) {
		end = len(allIndices)
	}
	return allIndices[start:end]
}

// currentPageRowCount returns how many rows are visible on the current
// page given total filtered rows.
func (t *tableModel) currentPageRowCount(total int) int {
	if t.pageSize <= 0 {
		return total
	}
	start := t.page * t.pageSize
	if start >= total {
		start = 0
	}
	n := total - start
	if n > t.pageSize {
		n = t.pageSize
	}
	if n < 0 {
		n = 0
	}
	return n
}

// clampPage ensures the page index stays within valid bounds given the total
// number of rows and the configured pageSize.
func (t *tableModel) clampPage(totalRows int) {
	pc := pageCount(totalRows, t.pageSize)
	if t.page >= pc {
		t.page = pc - 1
	}
	if t.page < 0 {
		t.page = 0
	}
}

// clampCursor bounds the cursor to [0, pageRows-1], or 0 when the page
// is empty.
func (t *tableModel) clampCursor(pageRows int) {
	if pageRows <= 0 {
		t.cursor = 0
		return
	}
	if t.cursor >= pageRows {
		t.cursor = pageRows - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// columnWidths distributes available terminal columns across defs in
// proportion to their preferred widths. The last column absorbs the
// rounding remainder; every column keeps at least minColWidth. A
// non-positive available returns the preferred widths unchanged.
func columnWidths(available int, defs []columnDef) []int {
	widths := make([]int, len(defs))
	if len(defs) == 0 {
		return widths
	}

	total := 0
	for _, d := range defs {
		total += d.Width
	}
	if available <= 0 || total <= 0 {
		for i, d := range defs {
			widths[i] = d.Width
		}
		return widths
	}

	used := 0
	for i, d := range defs {
		w := available * d.Width / total
		if i == len(defs)-1 {
			w = available - used
		}
		if w < minColWidth {
			w = minColWidth
		}
		widths[i] = w
		used += w
	}
	return widths
}

// truncateName shortens s to at most maxWidth terminal display cells,
// appending "..." when something was cut and the budget allows it.
// Width is measured in display cells so wide (CJK) runes count as two.
func truncateName(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
