package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestKeyHandler_ModifierKey(t *testing.T) {
	h := newHarness(t)

	assert.NotNil(t, h.app.keyHandler)
	assert.Equal(t, "ctrl+", h.app.keyHandler.modifierKey)
}

func TestKeyHandler_Bound(t *testing.T) {
	h := newHarness(t)
	kh := h.app.keyHandler

	assert.Equal(t, "ctrl+n", kh.bound("n"))
	assert.Equal(t, "esc", kh.bound("esc"))
	assert.Equal(t, "ctrl+é", kh.bound("é"))

	kh.modifierKey = "alt+"
	assert.Equal(t, "alt+n", kh.bound("n"))
}

func TestKeyHandler_CustomBindings(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice")
	h.app.keyHandler.keys.Submit = "b"

	h.press(key(tea.KeyCtrlN))
	assert.Equal(t, ViewStories, h.app.view, "old binding should no longer submit")

	h.press(key(tea.KeyCtrlB))
	assert.Equal(t, ViewSubmit, h.app.view)
}

func TestKeyHandler_FilteringOwnsKeys(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "alpha", "bob")

	// "/" starts filtering; "q" must then reach the filter instead of quitting
	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	assert.True(t, h.app.keyHandler.isInTextInputMode())

	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, h.app.keyHandler.isInTextInputMode())
	assert.Equal(t, "q", h.app.storyList.FilterValue())
}

func TestKeyHandler_FormNavigation(t *testing.T) {
	h := newHarness(t)
	h.press(key(tea.KeyCtrlL))

	assert.Equal(t, 0, h.app.loginForm.focus)
	h.press(key(tea.KeyDown))
	assert.Equal(t, 1, h.app.loginForm.focus)
	h.press(key(tea.KeyTab))
	assert.Equal(t, 0, h.app.loginForm.focus, "focus wraps around")
	h.press(key(tea.KeyShiftTab))
	assert.Equal(t, 1, h.app.loginForm.focus)
}

func TestKeyHandler_SearchFocusSwitching(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "golang news", "bob")
	h.press(key(tea.KeyCtrlS))

	h.press(key(tea.KeyTab))
	assert.True(t, h.app.searchInput.Focused(), "nothing to move to without results")

	h.typeText("golang")
	h.app.Update(h.app.performSearch(h.app.searchSeq, h.app.searchInput.Value())())
	h.press(key(tea.KeyTab))
	assert.False(t, h.app.searchInput.Focused())

	h.press(key(tea.KeyUp))
	assert.True(t, h.app.searchInput.Focused())
}

func TestGetHelpForCurrentView(t *testing.T) {
	h := newHarness(t)

	help := h.app.keyHandler.GetHelpForCurrentView()
	assert.Contains(t, help, "ctrl+l: log in")
	assert.NotContains(t, help, "ctrl+n: submit")

	h.login(t, "alice")
	help = h.app.keyHandler.GetHelpForCurrentView()
	assert.Contains(t, help, "ctrl+n: submit")
	assert.Contains(t, help, "ctrl+u: log out")
	assert.NotContains(t, help, "ctrl+x: delete")

	h.app.view = ViewMine
	assert.Contains(t, h.app.keyHandler.GetHelpForCurrentView(), "ctrl+x: delete")

	h.app.view = ViewDeleteConfirm
	assert.Empty(t, h.app.keyHandler.GetHelpForCurrentView())
}
