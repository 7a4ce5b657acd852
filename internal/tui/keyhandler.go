package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/models"
)

type KeyHandler struct {
	app         *App
	keys        config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, keys: cfg.Keys.Bindings, modifierKey: cfg.Keys.Modifier + "+"}
}

// bound returns the key string bubbletea reports for an action binding.
// Single characters take the modifier; named keys such as esc do not.
func (kh *KeyHandler) bound(binding string) string {
	if len([]rune(binding)) == 1 {
		return kh.modifierKey + binding
	}
	return binding
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch {
	case kh.app.view.isForm():
		return true
	case kh.app.view == ViewSearch:
		return kh.app.searchInput.Focused()
	case kh.app.view.isList():
		return kh.app.activeList().FilterState() == list.Filtering
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	app := kh.app

	if app.view.isList() {
		// the list owns esc and enter while its filter is being typed
		if key == "ctrl+c" {
			return app, tea.Quit
		}
		return kh.delegateToCharm(msg)
	}

	switch key {
	case "ctrl+c":
		return app, tea.Quit
	case "esc":
		return kh.navigateBack()
	case "enter":
		return kh.handleTextInputEnter()
	}

	if app.view.isForm() {
		f := app.activeForm()
		switch key {
		case "tab", "down":
			return app, f.Next()
		case "shift+tab", "up":
			return app, f.Prev()
		case kh.bound(kh.keys.Login):
			switch app.view {
			case ViewLogin:
				return app, kh.openForm(ViewSignup)
			case ViewSignup:
				return app, kh.openForm(ViewLogin)
			}
		}
		return app, f.Update(msg)
	}

	// search box
	if key == "tab" || key == "down" {
		if len(app.searchList.Items()) > 0 {
			app.searchInput.Blur()
			app.searchList.Select(0)
		}
		return app, nil
	}
	prev := app.searchInput.Value()
	var cmd tea.Cmd
	app.searchInput, cmd = app.searchInput.Update(msg)
	if app.searchInput.Value() != prev {
		return app, tea.Batch(cmd, app.scheduleSearch())
	}
	return app, cmd
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	app := kh.app

	if app.view == ViewSearch {
		if items := app.searchList.Items(); len(items) > 0 {
			if i, ok := items[0].(searchResultItem); ok {
				return kh.openDetail(i.result.Story, true)
			}
		}
		return app, nil
	}

	f := app.activeForm()
	if !f.OnLast() {
		return app, f.Next()
	}
	v := f.Values()
	switch app.view {
	case ViewSubmit:
		app.setStatus(MsgSubmitting, StatusInfo)
		return app, app.submitStory(v[0], v[1], v[2])
	case ViewLogin:
		app.setStatus(MsgSigningIn, StatusInfo)
		return app, app.login(v[0], v[1])
	case ViewSignup:
		app.setStatus(MsgSigningUp, StatusInfo)
		return app, app.signup(v[0], v[1], v[2])
	case ViewProfile:
		app.setStatus(MsgSaving, StatusInfo)
		return app, app.updateProfile(v[0], v[1])
	}
	return app, nil
}

// handleCustomKeys handles only our own action keys.
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app

	switch key {
	case "ctrl+c", kh.keys.Quit:
		return app, tea.Quit, true
	case kh.keys.Back, "esc":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.bound(kh.keys.Search):
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	}

	switch {
	case app.view.isList():
		return kh.handleListKeys(key)
	case app.view == ViewDeleteConfirm:
		return kh.handleDeleteConfirmKeys(key)
	case app.view == ViewDetail, app.view == ViewSearch:
		return kh.handleStoryKeys(key)
	default:
		return app, nil, false
	}
}

// handleListKeys covers navigation between the story lists and the forms.
func (kh *KeyHandler) handleListKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app

	switch key {
	case kh.bound(kh.keys.AllStories):
		app.view = ViewStories
		return app, nil, true
	case kh.bound(kh.keys.Favorites):
		return app, kh.requireLogin(func() tea.Cmd { app.view = ViewFavorites; return nil }), true
	case kh.bound(kh.keys.MyStories):
		return app, kh.requireLogin(func() tea.Cmd { app.view = ViewMine; return nil }), true
	case kh.bound(kh.keys.Refresh):
		app.setStatus(MsgRefreshing, StatusInfo)
		return app, app.refresh(), true
	case kh.bound(kh.keys.Submit):
		return app, kh.requireLogin(func() tea.Cmd { return kh.openForm(ViewSubmit) }), true
	case kh.bound(kh.keys.Login):
		if app.session.LoggedIn() {
			return app, nil, true
		}
		return app, kh.openForm(ViewLogin), true
	case kh.bound(kh.keys.Logout):
		if !app.session.LoggedIn() {
			return app, nil, true
		}
		app.view = ViewStories
		return app, app.logout(), true
	case kh.bound(kh.keys.Profile):
		return app, kh.requireLogin(func() tea.Cmd { return kh.openForm(ViewProfile) }), true
	}
	return kh.handleStoryKeys(key)
}

// handleStoryKeys covers actions on the selected story.
func (kh *KeyHandler) handleStoryKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app

	switch key {
	case kh.bound(kh.keys.Favorite):
		story, ok := app.selectedStory()
		if !ok {
			return app, nil, true
		}
		return app, app.toggleFavorite(story), true
	case kh.bound(kh.keys.OpenBrowser):
		story, ok := app.selectedStory()
		if !ok || story.URL == "" {
			return app, nil, true
		}
		return app, app.openURL(story.URL), true
	case kh.bound(kh.keys.Delete):
		story, ok := app.selectedStory()
		if !ok {
			return app, nil, true
		}
		user := app.session.User()
		if user == nil {
			app.fail(models.ErrAuthRequired)
			return app, nil, true
		}
		if !user.IsMyStory(story) {
			app.setStatus(MsgNotYourStory, StatusWarn)
			return app, nil, true
		}
		app.storyToDelete = &story
		app.returnTo = app.view
		app.view = ViewDeleteConfirm
		return app, nil, true
	}
	return app, nil, false
}

func (kh *KeyHandler) handleDeleteConfirmKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app
	switch key {
	case "n":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case "enter", "y":
	default:
		return app, nil, false
	}
	if app.storyToDelete == nil {
		return app, nil, true
	}
	id := app.storyToDelete.StoryID
	app.storyToDelete = nil
	app.view = app.returnTo
	if app.view == ViewDetail {
		app.view = app.detailReturn
	}
	app.setStatus(MsgDeleting, StatusInfo)
	return app, app.deleteStory(id), true
}

// delegateToCharm lets the bubbles components handle keys we do not claim.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	var cmd tea.Cmd

	switch {
	case app.view.isList():
		l := app.activeList()
		wasFiltering := l.FilterState() == list.Filtering
		*l, cmd = l.Update(msg)
		if msg.String() == "enter" && !wasFiltering {
			if i, ok := l.SelectedItem().(storyItem); ok {
				return kh.openDetail(i.story, false)
			}
		}
		return app, cmd

	case app.view == ViewSearch:
		switch msg.String() {
		case "tab", "shift+tab", "/", "i":
			return app, app.searchInput.Focus()
		case "up":
			if app.searchList.Index() == 0 {
				return app, app.searchInput.Focus()
			}
		case "enter":
			if i, ok := app.searchList.SelectedItem().(searchResultItem); ok {
				return kh.openDetail(i.result.Story, true)
			}
		}
		app.searchList, cmd = app.searchList.Update(msg)
		return app, cmd

	case app.view == ViewDetail:
		app.viewport, cmd = app.viewport.Update(msg)
		return app, cmd

	default:
		return app, nil
	}
}

func (kh *KeyHandler) openDetail(story models.Story, fromSearch bool) (tea.Model, tea.Cmd) {
	app := kh.app
	if fromSearch {
		app.detailReturn = ViewSearch
	} else {
		app.detailReturn = app.view
	}
	app.currentStory = &story
	app.view = ViewDetail
	app.viewport.SetContent("")
	return app, app.renderStory(story)
}

func (kh *KeyHandler) openForm(v View) tea.Cmd {
	app := kh.app
	if !app.view.isForm() {
		app.returnTo = app.view
	}
	app.view = v
	f := app.activeForm()
	cmd := f.Reset()
	if v == ViewProfile {
		if user := app.session.User(); user != nil {
			f.Fill(user.Name())
		}
	}
	return cmd
}

// requireLogin runs next only when someone is signed in.
func (kh *KeyHandler) requireLogin(next func() tea.Cmd) tea.Cmd {
	if !kh.app.session.LoggedIn() {
		kh.app.setStatus(MsgLoginRequired, StatusWarn)
		return nil
	}
	return next()
}

// navigateBack implements esc.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	app := kh.app

	switch app.view {
	case ViewSubmit, ViewLogin, ViewSignup, ViewProfile, ViewDeleteConfirm:
		app.storyToDelete = nil
		app.view = app.returnTo
		return app, nil

	case ViewSearch:
		app.view = app.returnTo
		app.searchInput.Reset()
		app.searchList.SetItems([]list.Item{})
		return app, nil

	case ViewDetail:
		app.view = app.detailReturn
		if app.view == ViewSearch {
			app.searchInput.Blur()
		}
		app.currentStory = nil
		return app, nil

	case ViewFavorites, ViewMine:
		app.view = ViewStories
		return app, nil

	default:
		return app, tea.Quit
	}
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	app := kh.app
	if app.view != ViewSearch {
		app.returnTo = app.view
		if app.view == ViewDetail {
			app.returnTo = app.detailReturn
		}
	}
	app.view = ViewSearch
	app.searchInput.Reset()
	app.searchList.SetItems([]list.Item{})
	return app, app.searchInput.Focus()
}

// GetHelpForCurrentView returns our own help entries; the bubbles
// components render theirs.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	app := kh.app
	b := kh.keys

	switch app.view {
	case ViewStories, ViewFavorites, ViewMine:
		help := []string{kh.bound(b.Refresh) + ": refresh", kh.bound(b.Search) + ": search", kh.bound(b.OpenBrowser) + ": open"}
		if !app.session.LoggedIn() {
			return append(help, kh.bound(b.Login)+": log in")
		}
		help = append(help,
			kh.bound(b.Favorite)+": star",
			kh.bound(b.Submit)+": submit",
			kh.bound(b.Favorites)+": favorites",
			kh.bound(b.MyStories)+": mine",
			kh.bound(b.Profile)+": profile",
			kh.bound(b.Logout)+": log out",
		)
		if app.view == ViewMine {
			help = append(help, kh.bound(b.Delete)+": delete")
		}
		return help

	case ViewDetail:
		help := []string{kh.bound(b.OpenBrowser) + ": open", "esc: back"}
		if app.session.LoggedIn() {
			help = append(help, kh.bound(b.Favorite)+": star")
			if app.currentStory != nil && app.session.User().IsMyStory(*app.currentStory) {
				help = append(help, kh.bound(b.Delete)+": delete")
			}
		}
		return help

	case ViewSearch:
		return []string{kh.bound(b.Search) + ": new search"}

	default:
		return []string{}
	}
}
