package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/snooze/internal/models"
	"github.com/pders01/snooze/internal/search"
	"github.com/pders01/snooze/internal/validation"
)

func (a *App) bootstrap() tea.Cmd {
	a.busy = true
	return func() tea.Msg {
		return sessionLoadedMsg{err: a.session.Bootstrap(a.ctx)}
	}
}

func (a *App) refresh() tea.Cmd {
	a.busy = true
	return func() tea.Msg {
		return sessionLoadedMsg{err: a.session.Refresh(a.ctx)}
	}
}

func (a *App) submitStory(title, author, rawURL string) tea.Cmd {
	url, err := validation.NormalizeStoryURL(rawURL)
	if err != nil {
		return func() tea.Msg {
			return errorMsg{err: &models.MalformedURLError{URL: rawURL, Err: err}}
		}
	}
	if title == "" || author == "" {
		return func() tea.Msg { return errorMsg{err: errors.New("title and author are required")} }
	}

	a.busy = true
	draft := models.Draft{Title: title, Author: author, URL: url}
	return func() tea.Msg {
		story, err := a.session.Submit(a.ctx, draft)
		if err != nil {
			return storiesChangedMsg{err: wrapErr("submitting story", err)}
		}
		return storiesChangedMsg{status: MsgSubmitted(story.Title)}
	}
}

func (a *App) deleteStory(storyID string) tea.Cmd {
	a.busy = true
	return func() tea.Msg {
		if err := a.session.Delete(a.ctx, storyID); err != nil {
			return storiesChangedMsg{err: wrapErr("deleting story", err)}
		}
		return storiesChangedMsg{status: MsgStoryDeleted, deleted: storyID}
	}
}

// toggleFavorite stars or unstars story. The lists show the new state at
// once and are rebuilt from the user when the server answers, which undoes
// the star if the call failed.
func (a *App) toggleFavorite(story models.Story) tea.Cmd {
	user := a.session.User()
	if user == nil {
		return func() tea.Msg { return errorMsg{err: models.ErrAuthRequired} }
	}
	a.markFavorite(story.StoryID, !user.IsFavorite(story))

	return func() tea.Msg {
		favorite, err := a.session.ToggleFavorite(a.ctx, story)
		return favoriteToggledMsg{story: story, favorite: favorite, err: err}
	}
}

func (a *App) login(username, password string) tea.Cmd {
	if username == "" || password == "" {
		return func() tea.Msg { return errorMsg{err: errors.New("username and password are required")} }
	}
	a.busy = true
	return func() tea.Msg {
		return authMsg{err: wrapErr("logging in", a.session.Login(a.ctx, username, password))}
	}
}

func (a *App) signup(username, password, name string) tea.Cmd {
	if username == "" || password == "" || name == "" {
		return func() tea.Msg { return errorMsg{err: errors.New("username, password and name are required")} }
	}
	a.busy = true
	return func() tea.Msg {
		return authMsg{err: wrapErr("creating account", a.session.Signup(a.ctx, username, password, name))}
	}
}

func (a *App) logout() tea.Cmd {
	return func() tea.Msg {
		if err := a.session.Logout(); err != nil {
			return storiesChangedMsg{err: err}
		}
		return storiesChangedMsg{status: MsgLoggedOut}
	}
}

func (a *App) updateProfile(name, password string) tea.Cmd {
	a.busy = true
	return func() tea.Msg {
		return profileSavedMsg{err: a.session.UpdateProfile(a.ctx, name, password)}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		if a.opener == nil {
			return errorMsg{err: errors.New("no browser configured")}
		}
		if err := a.opener.Open(url); err != nil {
			return errorMsg{err: fmt.Errorf("opening %s: %w", url, err)}
		}
		return nil
	}
}

func (a *App) performSearch(seq int, query string) tea.Cmd {
	query = sanitizeInput(query, 256)
	return func() tea.Msg {
		if len([]rune(query)) < search.MinQueryLength {
			return searchResultsMsg{seq: seq, query: query}
		}
		results, err := a.searcher.Search(query, 20)
		return searchResultsMsg{seq: seq, query: query, results: results, err: err}
	}
}

// scheduleSearch debounces typing in the search box.
func (a *App) scheduleSearch() tea.Cmd {
	a.searchSeq++
	seq := a.searchSeq
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceFireMsg{seq: seq}
	})
}

// storyMarkdown is the detail page for story as markdown.
func (a *App) storyMarkdown(story models.Story) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", story.Title)
	fmt.Fprintf(&b, "*by %s*\n\n", story.Author)
	if host, err := story.Hostname(); err == nil {
		fmt.Fprintf(&b, "[%s](%s)\n\n", host, story.URL)
	} else {
		fmt.Fprintf(&b, "%s\n\n", story.URL)
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "- posted by **%s**\n", story.Username)
	if !story.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- %s (%s)\n", story.CreatedAt.Local().Format(time.RFC1123), relativeTime(story.CreatedAt, a.now()))
	}
	if user := a.session.User(); user != nil {
		if user.IsFavorite(story) {
			b.WriteString("- ★ in your favorites\n")
		}
		if user.IsMyStory(story) {
			b.WriteString("- ◆ your story\n")
		}
	}
	return b.String()
}

func (a *App) renderStory(story models.Story) tea.Cmd {
	content := a.storyMarkdown(story)
	if !a.config.UI.RenderMarkdown {
		return func() tea.Msg {
			return storyRenderedMsg{content: lipgloss.NewStyle().Width(a.width).Render(content)}
		}
	}

	r, err := a.getRenderer()
	return func() tea.Msg {
		if err != nil {
			return storyRenderedMsg{content: "Error initializing renderer: " + err.Error() + "\n\n" + content}
		}
		rendered, err := r.Render(content)
		if err != nil {
			return storyRenderedMsg{content: content}
		}
		return storyRenderedMsg{content: rendered}
	}
}
