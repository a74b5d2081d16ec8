package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/meshtop-go/internal/client"
)

func pickerFixture() NamespaceSelectModel {
	sel := newNamespaceSelect()
	sel.setNamespaces([]client.NamespaceInfo{
		{Name: "istio-system", Cluster: "east"},
		{Name: "bookinfo", Cluster: "east"},
		{Name: "backends"},
		{Name: "default"},
	}, []string{"bookinfo"})
	return sel
}

func pressPicker(m NamespaceSelectModel, msg tea.Msg) NamespaceSelectModel {
	m, _ = m.Update(msg)
	return m
}

func TestNamespaceSelect_StartsLoading(t *testing.T) {
	sel := newNamespaceSelect()

	assert.True(t, sel.loading)
	assert.Empty(t, sel.checkedNames())
}

func TestNamespaceSelect_LoadingIgnoresKeys(t *testing.T) {
	sel := newNamespaceSelect()

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, sel.applied)

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeySpace})
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	assert.Empty(t, sel.checkedNames())
}

func TestNamespaceSelect_EscWhileLoadingCancels(t *testing.T) {
	sel := newNamespaceSelect()

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyEsc})

	assert.True(t, sel.cancelled)
}

func TestNamespaceSelectSetNamespaces_SortsAndPrechecks(t *testing.T) {
	sel := pickerFixture()

	require.Len(t, sel.all, 4)
	assert.Equal(t, "backends", sel.all[0].Name)
	assert.Equal(t, "bookinfo", sel.all[1].Name)
	assert.Equal(t, "default", sel.all[2].Name)
	assert.Equal(t, "istio-system", sel.all[3].Name)

	assert.False(t, sel.loading)
	assert.Len(t, sel.visible, 4)
	assert.Equal(t, []string{"bookinfo"}, sel.checkedNames())
}

func TestNamespaceSelectCheckedNames_SortedAndSkipsUnchecked(t *testing.T) {
	sel := pickerFixture()
	sel.checked["istio-system"] = true
	sel.checked["default"] = false

	assert.Equal(t, []string{"bookinfo", "istio-system"}, sel.checkedNames())
}

func TestNamespaceSelectUpdate_SpaceToggles(t *testing.T) {
	sel := pickerFixture()

	// Cursor starts on backends.
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []string{"backends", "bookinfo"}, sel.checkedNames())

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []string{"bookinfo"}, sel.checkedNames())
}

func TestNamespaceSelectUpdate_CursorClamps(t *testing.T) {
	sel := pickerFixture()

	for i := 0; i < 6; i++ {
		sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 3, sel.cursor)

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, 2, sel.cursor)

	for i := 0; i < 6; i++ {
		sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 0, sel.cursor)
}

func TestNamespaceSelectUpdate_CheckAllAndNone(t *testing.T) {
	sel := pickerFixture()

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	assert.Equal(t, []string{"backends", "bookinfo", "default", "istio-system"}, sel.checkedNames())

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Empty(t, sel.checkedNames())
}

func TestNamespaceSelectUpdate_CheckAllRespectsFilter(t *testing.T) {
	sel := pickerFixture()

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	require.Len(t, sel.visible, 2) // backends, bookinfo
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, sel.filtering)

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})

	assert.Equal(t, []string{"backends", "bookinfo"}, sel.checkedNames())
}

func TestNamespaceSelectUpdate_EnterApplies(t *testing.T) {
	sel := pickerFixture()

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, sel.applied)
	assert.False(t, sel.cancelled)
}

func TestNamespaceSelectUpdate_EscCancels(t *testing.T) {
	sel := pickerFixture()

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyEsc})

	assert.True(t, sel.cancelled)
	assert.False(t, sel.applied)
}

func TestNamespaceSelectUpdate_EscClosesFilterFirst(t *testing.T) {
	sel := pickerFixture()

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	require.Len(t, sel.visible, 2)

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, sel.filtering)
	assert.False(t, sel.cancelled)
	assert.Empty(t, sel.filter.Value())
	assert.Len(t, sel.visible, 4)

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, sel.cancelled)
}

func TestNamespaceSelectUpdate_SlashStartsFiltering(t *testing.T) {
	sel := pickerFixture()

	sel, cmd := sel.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})

	assert.True(t, sel.filtering)
	assert.NotNil(t, cmd)
}

func TestNamespaceSelectUpdate_FilterTypingResetsCursor(t *testing.T) {
	sel := pickerFixture()
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyDown})
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 2, sel.cursor)

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	for _, r := range "istio" {
		sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, 0, sel.cursor)
	require.Len(t, sel.visible, 1)

	// Toggling under an active filter hits the filtered row, not the
	// original cursor position.
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyEnter})
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, sel.checked["istio-system"])
}

func TestNamespaceSelectUpdate_FilterCapturesLetterKeys(t *testing.T) {
	sel := pickerFixture()

	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	sel = pressPicker(sel, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})

	assert.Equal(t, "a", sel.filter.Value())
	assert.Equal(t, []string{"bookinfo"}, sel.checkedNames())
}

func TestRenderNamespaceSelect_Loading(t *testing.T) {
	app := NewApp(nil, Config{})
	app.width = 80
	app.height = 24
	app.selectMode = true
	app.selector = newNamespaceSelect()

	out := stripANSI(renderNamespaceSelect(app))

	assert.Contains(t, out, "Select Namespaces")
	assert.Contains(t, out, "Loading namespaces...")
}

func TestRenderNamespaceSelect_RowsAndCount(t *testing.T) {
	app := NewApp(nil, Config{})
	app.width = 80
	app.height = 24
	app.selectMode = true
	app.selector = pickerFixture()

	out := stripANSI(renderNamespaceSelect(app))

	assert.Contains(t, out, "[x] bookinfo")
	assert.Contains(t, out, "[ ] default")
	assert.Contains(t, out, "(east)")
	assert.Contains(t, out, "1 of 4 selected")
}

func TestRenderNamespaceSelect_Error(t *testing.T) {
	app := NewApp(nil, Config{})
	app.width = 80
	app.height = 24
	app.selectMode = true
	app.selector = pickerFixture()
	app.selector.loadErr = "connection refused"

	out := stripANSI(renderNamespaceSelect(app))

	assert.Contains(t, out, "Error: connection refused")
}

func TestRenderNamespaceSelect_NoMatches(t *testing.T) {
	app := NewApp(nil, Config{})
	app.width = 80
	app.height = 24
	app.selectMode = true
	app.selector = pickerFixture()
	app.selector.filter.SetValue("zzz")
	app.selector.refreshVisible()

	out := stripANSI(renderNamespaceSelect(app))

	assert.Contains(t, out, "(no namespaces match)")
}
