package tui

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/hackorsnooze/fakeapi"
	"github.com/pders01/snooze/internal/models"
	"github.com/pders01/snooze/internal/session"
)

type recordingOpener struct {
	urls []string
	err  error
}

func (o *recordingOpener) Open(url string) error {
	o.urls = append(o.urls, url)
	return o.err
}

type harness struct {
	server *fakeapi.Server
	sess   *session.Session
	opener *recordingOpener
	app    *App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	server := fakeapi.New(t)
	client, err := hackorsnooze.New(hackorsnooze.Options{BaseURL: server.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	sess := session.New(client, session.Options{PageSize: 25})
	opener := &recordingOpener{}
	cfg := config.TestConfig()
	cfg.UI.RenderMarkdown = false

	app := NewApp(cfg, sess, nil, opener)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return &harness{server: server, sess: sess, opener: opener, app: app}
}

// seed adds a story to the server, refreshes and rebuilds the lists.
func (h *harness) seed(t *testing.T, title, username string) models.Story {
	t.Helper()
	rec := h.server.AddStory(hackorsnooze.StoryRecord{
		Title:    title,
		Author:   "someone",
		URL:      "https://example.com/" + title,
		Username: username,
	})
	require.NoError(t, h.sess.Refresh(context.Background()))
	h.app.syncLists()
	return models.FromRecord(rec)
}

func (h *harness) login(t *testing.T, username string) {
	t.Helper()
	h.server.AddUser(username, "secret", "Name of "+username)
	require.NoError(t, h.sess.Login(context.Background(), username, "secret"))
	require.NoError(t, h.sess.Refresh(context.Background()))
	h.app.syncLists()
}

// press sends one key and returns the command it produced.
func (h *harness) press(msg tea.KeyMsg) tea.Cmd {
	_, cmd := h.app.Update(msg)
	return cmd
}

func (h *harness) typeText(s string) {
	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// deliver runs a command that does not batch and feeds its message back.
func (h *harness) deliver(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	h.app.Update(msg)
	return msg
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func storyIDs(items []storyItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.story.StoryID
	}
	return ids
}

func storyItems(l list.Model) []storyItem {
	var out []storyItem
	for _, item := range l.Items() {
		if si, ok := item.(storyItem); ok {
			out = append(out, si)
		}
	}
	return out
}
