package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/meshtop-go/internal/client"
)

// NamespaceSelectModel manages the state of the namespace picker overlay.
// The checked set only takes effect when the user applies; esc leaves the
// active selection untouched.
type NamespaceSelectModel struct {
	all     []client.NamespaceInfo
	checked map[string]bool
	visible []int // indices into all matching the filter
	cursor  int   // index into visible

	filter    textinput.Model
	filtering bool

	loading bool
	loadErr string

	applied   bool // set by enter; cleared by parent after handling
	cancelled bool // set by esc; cleared by parent after handling
}

// newNamespaceSelect creates a picker in the loading state; the parent
// fills it via setNamespaces once discovery completes.
func newNamespaceSelect() NamespaceSelectModel {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Placeholder = "name"
	return NamespaceSelectModel{
		checked: make(map[string]bool),
		filter:  ti,
		loading: true,
	}
}

// setNamespaces populates the picker with discovered namespaces, sorted
// by name, pre-checking the currently selected set.
func (m *NamespaceSelectModel) setNamespaces(infos []client.NamespaceInfo, selected []string) {
	m.all = make([]client.NamespaceInfo, len(infos))
	copy(m.all, infos)
	sort.Slice(m.all, func(i, j int) bool { return m.all[i].Name < m.all[j].Name })

	m.checked = make(map[string]bool, len(selected))
	for _, name := range selected {
		m.checked[name] = true
	}
	m.loading = false
	m.loadErr = ""
	m.refreshVisible()
}

// refreshVisible recomputes the filtered index list and clamps the cursor.
func (m *NamespaceSelectModel) refreshVisible() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, info := range m.all {
		if query == "" || strings.Contains(strings.ToLower(info.Name), query) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// checkedNames returns the checked namespace names, sorted.
func (m NamespaceSelectModel) checkedNames() []string {
	var names []string
	for name, on := range m.checked {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Update handles keyboard input for the namespace picker.
// Esc stops filtering first, cancelling on the second press. Enter
// applies the checked set (or just closes the filter when filtering).
// Space toggles, "a"/"x" check/uncheck everything the filter shows.
func (m NamespaceSelectModel) Update(msg tea.Msg) (NamespaceSelectModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.filtering {
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Esc always backs out regardless of loading state.
	if keyMsg.String() == "esc" {
		if m.filtering {
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.refreshVisible()
			return m, nil
		}
		m.cancelled = true
		return m, nil
	}

	if m.loading {
		return m, nil
	}

	if m.filtering {
		if keyMsg.String() == "enter" {
			m.filtering = false
			m.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.refreshVisible()
		m.cursor = 0
		return m, cmd
	}

	switch keyMsg.String() {
	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink

	case "up", "k", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j", "tab":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
		return m, nil

	case " ":
		if m.cursor < len(m.visible) {
			name := m.all[m.visible[m.cursor]].Name
			m.checked[name] = !m.checked[name]
		}
		return m, nil

	case "a":
		for _, i := range m.visible {
			m.checked[m.all[i].Name] = true
		}
		return m, nil

	case "x":
		for _, i := range m.visible {
			m.checked[m.all[i].Name] = false
		}
		return m, nil

	case "enter":
		m.applied = true
		return m, nil

	default:
		return m, nil
	}
}

// renderNamespaceSelect renders the full-screen namespace picker overlay.
// The caller (View) renders the console header above and footer below.
func renderNamespaceSelect(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	height := app.height
	if height <= 0 {
		height = 24
	}

	sel := &app.selector

	// Build title bar (same style as the findings title).
	titleText := "Select Namespaces"
	hintText := StyleDim.Render("[space: toggle  a: all  x: none  enter: apply  esc: cancel]")
	hintVW := lipgloss.Width(hintText)
	titleVW := lipgloss.Width(titleText)
	innerWidth := width - 2 // StyleHeader has Padding(0,1)
	gap := innerWidth - titleVW - hintVW
	if gap < 1 {
		gap = 1
	}
	titleRow := titleText + strings.Repeat(" ", gap) + hintText
	titleBar := StyleHeader.Width(width).MaxWidth(width).Render(titleRow)
	titleH := lipgloss.Height(titleBar)

	// Subtitle: selection count plus the live filter when active.
	checkedCount := 0
	for _, on := range sel.checked {
		if on {
			checkedCount++
		}
	}
	subtitleText := StyleDim.Render(fmt.Sprintf("  %d of %d selected", checkedCount, len(sel.all)))
	if sel.filtering || sel.filter.Value() != "" {
		subtitleText += "   Filter: " + sel.filter.View()
	} else {
		subtitleText += StyleDim.Render("   [/: filter]")
	}
	subtitleBar := lipgloss.NewStyle().Width(width).MaxWidth(width).Render(subtitleText)
	subtitleH := lipgloss.Height(subtitleBar)

	headerH := renderedHeight(renderHeader(app))
	alertH := renderedHeight(app.alert.view(width))
	footerH := renderedHeight(renderFooter(app))
	availH := height - headerH - alertH - titleH - subtitleH - footerH
	if availH < 1 {
		availH = 1
	}

	titlePrefix := titleBar + "\n" + subtitleBar

	// Loading state.
	if sel.loading {
		line := "  Loading namespaces..."
		lines := make([]string, availH)
		lines[0] = ""
		if availH > 1 {
			lines[1] = line
		}
		return titlePrefix + "\n" + strings.Join(lines, "\n")
	}

	// Error state.
	if sel.loadErr != "" {
		line := "  " + StyleError.Render("Error: "+sel.loadErr)
		lines := make([]string, availH)
		lines[0] = ""
		if availH > 1 {
			lines[1] = line
		}
		return titlePrefix + "\n" + strings.Join(lines, "\n")
	}

	if len(sel.visible) == 0 {
		line := "  " + StyleDim.Render("(no namespaces match)")
		lines := make([]string, availH)
		lines[0] = ""
		if availH > 1 {
			lines[1] = line
		}
		return titlePrefix + "\n" + strings.Join(lines, "\n")
	}

	contentH := availH - 1 // reserve 1 line for top padding
	if contentH < 1 {
		contentH = 1
	}

	// Scroll to keep the cursor row visible: walk backwards from the
	// cursor, accumulating rows, to find the first row that still fits.
	firstVisible := sel.cursor
	usedLines := 0
	for i := sel.cursor; i >= 0; i-- {
		if usedLines+1 > contentH {
			break
		}
		usedLines++
		firstVisible = i
	}

	var lines []string
	lines = append(lines, "") // top padding

	selectedBg := lipgloss.NewStyle().Background(colorSelectedBg)

	for i := firstVisible; i < len(sel.visible); i++ {
		if len(lines) >= availH {
			break
		}
		info := sel.all[sel.visible[i]]

		box := "[ ]"
		if sel.checked[info.Name] {
			box = "[x]"
		}
		row := fmt.Sprintf("  %s %s", box, sanitize(info.Name))
		if info.Cluster != "" {
			row += "  " + StyleDim.Render("("+sanitize(info.Cluster)+")")
		}
		if i == sel.cursor {
			row = selectedBg.Width(width - 2).Render(row)
		}
		lines = append(lines, row)
	}

	// Pad to availH.
	for len(lines) < availH {
		lines = append(lines, "")
	}

	return titlePrefix + "\n" + strings.Join(lines[:availH], "\n")
}
