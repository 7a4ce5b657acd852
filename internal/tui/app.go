package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/models"
	"github.com/pders01/snooze/internal/search"
	"github.com/pders01/snooze/internal/session"
)

// Opener launches a story link outside the terminal. *browser.Launcher
// satisfies it.
type Opener interface {
	Open(url string) error
}

const searchDebounce = 150 * time.Millisecond

type App struct {
	ctx        context.Context
	config     *config.Config
	session    *session.Session
	searcher   search.Searcher
	opener     Opener
	keyHandler *KeyHandler

	storyList    list.Model
	favoriteList list.Model
	mineList     list.Model
	searchList   list.Model
	searchInput  textinput.Model
	viewport     viewport.Model

	submitForm  *form
	loginForm   *form
	signupForm  *form
	profileForm *form

	view View
	// returnTo is where esc leaves a form, the delete prompt or search.
	returnTo View
	// detailReturn is where esc leaves the story detail.
	detailReturn View

	currentStory  *models.Story
	storyToDelete *models.Story

	searchSeq int

	status     string
	statusKind StatusKind
	err        error
	busy       bool

	width  int
	height int

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	now             func() time.Time
}

func newStoryList(title string) list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)
	return l
}

// NewApp builds the TUI over an existing session. searcher may be nil, in
// which case search scans the stories the session knows about.
func NewApp(cfg *config.Config, sess *session.Session, searcher search.Searcher, opener Opener) *App {
	ApplyColors(cfg.UI.Colors)

	if searcher == nil {
		searcher = search.NewScanner(sess.Known)
	}

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› search results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "Search titles, authors and sites..."
	si.CharLimit = 256

	app := &App{
		ctx:          context.Background(),
		config:       cfg,
		session:      sess,
		searcher:     searcher,
		opener:       opener,
		storyList:    newStoryList("› stories"),
		favoriteList: newStoryList("› favorites"),
		mineList:     newStoryList("› my stories"),
		searchList:   searchList,
		searchInput:  si,
		viewport:     viewport.New(0, 0),
		submitForm: newForm("› submit a story",
			fieldSpec{label: "title", placeholder: "What is it about?", limit: 200},
			fieldSpec{label: "author", placeholder: "Who wrote it?", limit: 100},
			fieldSpec{label: "url", placeholder: "https://...", limit: 2048},
		),
		loginForm: newForm("› log in",
			fieldSpec{label: "username", limit: 64},
			fieldSpec{label: "password", secret: true, limit: 128},
		),
		signupForm: newForm("› create account",
			fieldSpec{label: "username", limit: 64},
			fieldSpec{label: "password", secret: true, limit: 128},
			fieldSpec{label: "name", placeholder: "Shown next to your stories", limit: 100},
		),
		profileForm: newForm("› profile",
			fieldSpec{label: "name", limit: 100},
			fieldSpec{label: "new password", placeholder: "leave empty to keep", secret: true, limit: 128},
		),
		view:         ViewStories,
		returnTo:     ViewStories,
		detailReturn: ViewStories,
		now:          time.Now,
	}

	app.keyHandler = NewKeyHandler(app, cfg)
	app.syncLists()
	return app
}

// WithContext sets the context network commands run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 100 {
		wordWrapWidth = 100
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	a.setStatus(MsgLoading, StatusInfo)
	return tea.Batch(
		a.bootstrap(),
		tea.EnterAltScreen,
	)
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
	if kind != StatusError {
		a.err = nil
	}
}

func (a *App) fail(err error) {
	a.err = err
	a.status = ""
}

// activeList returns the list behind a list view, or nil.
func (a *App) activeList() *list.Model {
	switch a.view {
	case ViewStories:
		return &a.storyList
	case ViewFavorites:
		return &a.favoriteList
	case ViewMine:
		return &a.mineList
	default:
		return nil
	}
}

func (a *App) activeForm() *form {
	switch a.view {
	case ViewSubmit:
		return a.submitForm
	case ViewLogin:
		return a.loginForm
	case ViewSignup:
		return a.signupForm
	case ViewProfile:
		return a.profileForm
	default:
		return nil
	}
}

// selectedStory is the story under the cursor in the current view.
func (a *App) selectedStory() (models.Story, bool) {
	switch a.view {
	case ViewDetail:
		if a.currentStory != nil {
			return *a.currentStory, true
		}
	case ViewSearch:
		if i, ok := a.searchList.SelectedItem().(searchResultItem); ok {
			return i.result.Story, true
		}
	default:
		if l := a.activeList(); l != nil {
			if i, ok := l.SelectedItem().(storyItem); ok {
				return i.story, true
			}
		}
	}
	return models.Story{}, false
}

// syncLists rebuilds every story list from the session.
func (a *App) syncLists() {
	user := a.session.User()
	now := a.now()

	itemsFor := func(stories []models.Story) []list.Item {
		items := make([]list.Item, len(stories))
		for i, s := range stories {
			items[i] = storyItem{
				story:    s,
				favorite: user != nil && user.IsFavorite(s),
				mine:     user != nil && user.IsMyStory(s),
				now:      now,
			}
		}
		return items
	}

	a.storyList.SetItems(itemsFor(a.session.Stories().Stories()))
	if user != nil {
		a.favoriteList.SetItems(itemsFor(user.Favorites()))
		a.mineList.SetItems(itemsFor(user.OwnStories()))
	} else {
		a.favoriteList.SetItems(nil)
		a.mineList.SetItems(nil)
	}

	suffix := ""
	if user != nil {
		suffix = " · " + user.Username()
	}
	if a.session.Offline() {
		suffix += " · offline"
	}
	a.storyList.Title = "› stories" + suffix
	a.favoriteList.Title = "› favorites" + suffix
	a.mineList.Title = "› my stories" + suffix

	if a.currentStory != nil {
		if s, ok := a.session.Lookup(a.currentStory.StoryID); ok {
			a.currentStory = &s
		}
	}
}

// markFavorite flips the star on id in the visible lists ahead of the
// server's answer.
func (a *App) markFavorite(id string, favorite bool) {
	for _, l := range []*list.Model{&a.storyList, &a.favoriteList, &a.mineList} {
		for idx, item := range l.Items() {
			if si, ok := item.(storyItem); ok && si.story.StoryID == id {
				si.favorite = favorite
				l.SetItem(idx, si)
			}
		}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		for _, l := range []*list.Model{&a.storyList, &a.favoriteList, &a.mineList} {
			l.SetSize(msg.Width, msg.Height-3)
		}
		a.searchList.SetSize(msg.Width, max(msg.Height-10, 5))
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3
		a.searchInput.Width = max(msg.Width-8, 10)
		for _, f := range []*form{a.submitForm, a.loginForm, a.signupForm, a.profileForm} {
			f.SetWidth(msg.Width - 8)
		}
		if a.view == ViewDetail && a.currentStory != nil {
			cmds = append(cmds, a.renderStory(*a.currentStory))
		}

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case sessionLoadedMsg:
		a.busy = false
		a.syncLists()
		switch {
		case msg.err != nil && a.session.Offline():
			a.err = nil
			a.setStatus(MsgOffline, StatusWarn)
		case msg.err != nil:
			a.fail(wrapErr("loading stories", msg.err))
		default:
			if name, stale := a.session.StaleLogin(); stale && !a.session.LoggedIn() {
				a.setStatus(MsgLoginExpired(name), StatusWarn)
			} else {
				a.setStatus(MsgStoryCount(a.session.Stories().Len()), StatusInfo)
			}
		}

	case storiesChangedMsg:
		a.busy = false
		a.syncLists()
		if msg.err != nil {
			a.fail(msg.err)
		} else if msg.status != "" {
			a.setStatus(msg.status, StatusSuccess)
		}
		if msg.deleted != "" && a.currentStory != nil && a.currentStory.StoryID == msg.deleted {
			a.currentStory = nil
		}

	case favoriteToggledMsg:
		a.syncLists()
		if msg.err != nil {
			a.fail(wrapErr("updating favorite", msg.err))
		} else {
			a.setStatus(MsgFavorited(msg.story.Title, msg.favorite), StatusSuccess)
		}
		if a.view == ViewDetail && a.currentStory != nil {
			cmds = append(cmds, a.renderStory(*a.currentStory))
		}

	case authMsg:
		a.busy = false
		if msg.err != nil {
			a.fail(msg.err)
			break
		}
		a.syncLists()
		a.view = ViewStories
		a.setStatus(MsgWelcome(a.session.User().Name()), StatusSuccess)

	case profileSavedMsg:
		a.busy = false
		if msg.err != nil {
			a.fail(msg.err)
			break
		}
		a.view = a.returnTo
		a.setStatus(MsgProfileSaved, StatusSuccess)

	case storyRenderedMsg:
		if a.view == ViewDetail {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
		}

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq && a.view == ViewSearch {
			cmds = append(cmds, a.performSearch(msg.seq, a.searchInput.Value()))
		}

	case searchResultsMsg:
		if msg.seq != a.searchSeq || a.view != ViewSearch {
			break
		}
		if msg.err != nil {
			a.fail(wrapErr("search", msg.err))
			break
		}
		items := make([]list.Item, len(msg.results))
		for i, r := range msg.results {
			items[i] = searchResultItem{result: r}
		}
		a.searchList.SetItems(items)
		if len(msg.results) == 0 && len([]rune(msg.query)) >= search.MinQueryLength {
			a.setStatus(MsgNoResults, StatusInfo)
		} else if len(msg.results) > 0 {
			a.setStatus(MsgResultsCount(len(msg.results)), StatusInfo)
		}

	case errorMsg:
		a.busy = false
		a.fail(msg.err)
	}

	switch a.view {
	case ViewStories, ViewFavorites, ViewMine:
		l := a.activeList()
		var cmd tea.Cmd
		*l, cmd = l.Update(msg)
		cmds = append(cmds, cmd)
	case ViewDetail:
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

func (a *App) View() string {
	var content string
	bodyHeight := a.height - 3

	switch a.view {
	case ViewStories, ViewFavorites, ViewMine:
		l := a.activeList()
		if len(l.Items()) == 0 && a.view == ViewStories && !a.busy {
			content = renderCentered(a.width, bodyHeight, GetWelcomeMessage(a.emptyHint()))
		} else {
			content = l.View()
		}

	case ViewDetail:
		content = a.viewport.View()

	case ViewSubmit, ViewLogin, ViewSignup, ViewProfile:
		content = renderCentered(a.width, bodyHeight, a.activeForm().View(a.formHelp()))

	case ViewDeleteConfirm:
		title := "Unknown story"
		if a.storyToDelete != nil {
			title = a.storyToDelete.Title
		}
		modalWidth := max((a.width*4)/5, min(a.width, 20))
		content = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			StatusErrorStyle.Render("⚠ Delete story"),
			"",
			ModalTextStyle.Render("Delete this story for everyone?"),
			"",
			ModalHighlight.Render(truncateEnd(title, modalWidth-4)),
			"",
			renderHelp("Enter: confirm • Esc: cancel"),
		))

	case ViewSearch:
		helpText := "No results • Tab/↑: search box • Esc: back"
		switch {
		case a.searchInput.Focused():
			helpText = "Type to search • Tab/↓: results • Esc: back"
		case len(a.searchList.Items()) > 0:
			helpText = "↑↓: navigate • Enter: open • Tab/↑: search box • Esc: back"
		}
		content = lipgloss.NewStyle().
			Width(a.width).
			Height(bodyHeight).
			MaxHeight(bodyHeight).
			Render(lipgloss.JoinVertical(
				lipgloss.Top,
				renderHeader("› search", "", a.width),
				"",
				renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
				renderMuted(helpText),
				"",
				a.searchList.View(),
			))
	}

	status := a.statusBar()
	if status == "" {
		return content
	}
	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 1)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, status)
}

func (a *App) emptyHint() string {
	if a.session.LoggedIn() {
		return "Press " + a.keyHandler.bound(a.config.Keys.Bindings.Submit) + " to submit one"
	}
	return "Press " + a.keyHandler.bound(a.config.Keys.Bindings.Login) + " to log in"
}

func (a *App) formHelp() string {
	switch a.view {
	case ViewLogin:
		return "Tab: next • Enter: log in • " + a.keyHandler.bound(a.config.Keys.Bindings.Login) + ": sign up instead • Esc: cancel"
	case ViewSignup:
		return "Tab: next • Enter: create • " + a.keyHandler.bound(a.config.Keys.Bindings.Login) + ": log in instead • Esc: cancel"
	case ViewProfile:
		return "Tab: next • Enter: save • Esc: cancel"
	default:
		return "Tab: next • Enter: submit • Esc: cancel"
	}
}

func (a *App) statusBar() string {
	style := lipgloss.NewStyle().Width(a.width).Padding(0, 1)

	if a.err != nil {
		return style.Render(StatusErrorStyle.Render("✗ " + describeErr(a.err)))
	}

	commands := a.keyHandler.GetHelpForCurrentView()
	line := strings.Join(commands, " • ")
	if a.status != "" {
		line = a.statusKind.style().Render(a.status) + renderMuted("  "+line)
	} else {
		line = renderMuted(line)
	}
	if line == "" {
		return ""
	}
	return style.Render(line)
}

type storyItem struct {
	story    models.Story
	favorite bool
	mine     bool
	now      time.Time
}

func (i storyItem) Title() string {
	switch {
	case i.favorite:
		return FavoriteStyle.Render("★ ") + i.story.Title
	case i.mine:
		return OwnStoryStyle.Render("◆ ") + i.story.Title
	default:
		return "  " + i.story.Title
	}
}

func (i storyItem) Description() string {
	parts := make([]string, 0, 4)
	if host, err := i.story.Hostname(); err == nil {
		parts = append(parts, host)
	}
	if i.story.Author != "" {
		parts = append(parts, "by "+i.story.Author)
	}
	if i.story.Username != "" {
		parts = append(parts, "posted by "+i.story.Username)
	}
	desc := renderMuted("  " + strings.Join(parts, " • "))
	if age := relativeTime(i.story.CreatedAt, i.now); age != "" {
		desc += TimeStyle.Render(" • " + age)
	}
	return desc
}

func (i storyItem) FilterValue() string {
	return i.story.Title + " " + i.story.Author
}

type searchResultItem struct {
	result search.Result
}

func (i searchResultItem) Title() string { return i.result.Story.Title }

func (i searchResultItem) Description() string {
	host, err := i.result.Story.Hostname()
	if err != nil {
		host = truncateMiddle(i.result.Story.URL, 40)
	}
	desc := host
	if i.result.Story.Author != "" {
		desc += " • by " + i.result.Story.Author
	}
	if len(i.result.Matches) > 0 {
		desc += " • " + strings.Join(i.result.Matches, ", ")
	}
	return renderMuted(desc)
}

func (i searchResultItem) FilterValue() string { return i.result.Story.Title }

type sessionLoadedMsg struct {
	err error
}

type storiesChangedMsg struct {
	status  string
	deleted string
	err     error
}

type favoriteToggledMsg struct {
	story    models.Story
	favorite bool
	err      error
}

type authMsg struct {
	err error
}

type profileSavedMsg struct {
	err error
}

type storyRenderedMsg struct {
	content string
}

type searchDebounceFireMsg struct {
	seq int
}

type searchResultsMsg struct {
	seq     int
	query   string
	results []search.Result
	err     error
}

type errorMsg struct {
	err error
}
