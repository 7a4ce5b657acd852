// Package session owns the signed-in user and the shared story list for one
// running client, and persists what is needed to resume it later.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pders01/snooze/internal/debuglog"
	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/models"
	"github.com/pders01/snooze/internal/search"
	"github.com/pders01/snooze/internal/storage"
)

// Store is the persistence the session needs. *storage.Store satisfies it.
type Store interface {
	SaveCredentials(storage.Credentials) error
	LoadCredentials() (storage.Credentials, error)
	ClearCredentials() error
	SaveStories([]hackorsnooze.StoryRecord, time.Time) error
	LoadStories() (storage.Snapshot, error)
}

var _ Store = (*storage.Store)(nil)

type Options struct {
	// PageSize bounds each fetch; zero lets the server decide.
	PageSize int
	// Store persists credentials and the story snapshot. Optional.
	Store Store
	// Index is rebuilt whenever the known stories change. Optional.
	Index search.Indexer
}

// Session moves between anonymous and authenticated. Logout clears the
// stored credentials as well as the in-memory user.
type Session struct {
	api  models.API
	opts Options

	mu      sync.RWMutex
	user    *models.User
	stories *models.StoryList
	offline bool
	// stale names the stored login that Bootstrap could not restore.
	stale string
}

func New(api models.API, opts Options) *Session {
	return &Session{
		api:     api,
		opts:    opts,
		stories: models.NewStoryList(nil),
	}
}

func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) LoggedIn() bool {
	return s.User() != nil
}

func (s *Session) Stories() *models.StoryList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stories
}

// Offline reports whether the current list came from the local snapshot
// because the last fetch failed.
func (s *Session) Offline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offline
}

// StaleLogin reports the username of stored credentials that the last
// Bootstrap could not restore. It is cleared by the next login or signup.
func (s *Session) StaleLogin() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale, s.stale != ""
}

// Bootstrap restores a stored login, if any, and loads the story list.
// A failed restore leaves the session anonymous without an error. A failed
// fetch falls back to the stored snapshot and still returns the error.
func (s *Session) Bootstrap(ctx context.Context) error {
	if s.opts.Store != nil {
		creds, err := s.opts.Store.LoadCredentials()
		switch {
		case err == nil:
			if user, ok := models.RestoreSession(ctx, s.api, creds.Token, creds.Username); ok {
				s.setUser(user)
			} else {
				s.mu.Lock()
				s.stale = creds.Username
				s.mu.Unlock()
			}
		case errors.Is(err, storage.ErrNoCredentials):
		default:
			debuglog.With("err", err).Warnf("reading stored credentials")
		}
	}

	err := s.Refresh(ctx)
	if err == nil || s.opts.Store == nil {
		return err
	}

	snap, loadErr := s.opts.Store.LoadStories()
	if loadErr != nil || len(snap.Stories) == 0 {
		return err
	}

	stories := make([]models.Story, 0, len(snap.Stories))
	for _, rec := range snap.Stories {
		stories = append(stories, models.FromRecord(rec))
	}
	s.mu.Lock()
	s.stories = models.NewStoryList(stories)
	s.offline = true
	s.mu.Unlock()
	s.reindex()

	debuglog.WithFields(map[string]any{
		"stories":    len(stories),
		"fetched_at": snap.FetchedAt,
	}).Infof("showing stored snapshot")
	return err
}

// Refresh replaces the story list with a fresh fetch and, when signed in,
// reloads the user so favorites and own stories match the server.
func (s *Session) Refresh(ctx context.Context) error {
	list, err := models.FetchPage(ctx, s.api, 0, s.opts.PageSize)
	if err != nil {
		return err
	}

	if user := s.User(); user != nil {
		if fresh, ok := models.RestoreSession(ctx, s.api, user.LoginToken(), user.Username()); ok {
			s.replaceUser(user, fresh)
		}
	}

	s.mu.Lock()
	s.stories = list
	s.offline = false
	s.mu.Unlock()

	s.persistStories()
	s.reindex()
	return nil
}

func (s *Session) Login(ctx context.Context, username, password string) error {
	user, err := models.Login(ctx, s.api, username, password)
	if err != nil {
		return err
	}
	return s.signedIn(user)
}

func (s *Session) Signup(ctx context.Context, username, password, name string) error {
	user, err := models.Signup(ctx, s.api, username, password, name)
	if err != nil {
		return err
	}
	return s.signedIn(user)
}

func (s *Session) signedIn(user *models.User) error {
	s.setUser(user)
	s.reindex()
	if s.opts.Store == nil {
		return nil
	}
	if err := s.opts.Store.SaveCredentials(storage.Credentials{
		Username: user.Username(),
		Token:    user.LoginToken(),
	}); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Logout forgets the user here and in the store.
func (s *Session) Logout() error {
	s.setUser(nil)
	s.reindex()
	if s.opts.Store == nil {
		return nil
	}
	if err := s.opts.Store.ClearCredentials(); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

// Submit posts a story and puts it at the top of the list.
func (s *Session) Submit(ctx context.Context, draft models.Draft) (models.Story, error) {
	story, err := s.Stories().AddStory(ctx, s.api, s.User(), draft)
	if err != nil {
		return models.Story{}, err
	}
	// A Refresh may have replaced the list while the call was in flight.
	s.Stories().Prepend(story)
	s.persistStories()
	s.reindex()
	return story, nil
}

// Delete removes one of the user's own stories.
func (s *Session) Delete(ctx context.Context, storyID string) error {
	if err := s.Stories().RemoveStory(ctx, s.api, s.User(), storyID); err != nil {
		return err
	}
	s.persistStories()
	s.reindex()
	return nil
}

// ToggleFavorite flips story's favorite state for the current user.
func (s *Session) ToggleFavorite(ctx context.Context, story models.Story) (bool, error) {
	user := s.User()
	if user == nil {
		return false, models.ErrAuthRequired
	}
	return user.ToggleFavorite(ctx, s.api, story)
}

func (s *Session) Favorite(ctx context.Context, story models.Story) error {
	user := s.User()
	if user == nil {
		return models.ErrAuthRequired
	}
	return user.AddFavorite(ctx, s.api, story)
}

func (s *Session) Unfavorite(ctx context.Context, story models.Story) error {
	user := s.User()
	if user == nil {
		return models.ErrAuthRequired
	}
	return user.RemoveFavorite(ctx, s.api, story)
}

func (s *Session) UpdateProfile(ctx context.Context, name, password string) error {
	user := s.User()
	if user == nil {
		return models.ErrAuthRequired
	}
	_, err := user.UpdateProfile(ctx, s.api, name, password)
	return err
}

// Lookup finds a story in the list or among the user's own and favorite
// stories.
func (s *Session) Lookup(storyID string) (models.Story, bool) {
	if story, ok := s.Stories().Find(storyID); ok {
		return story, true
	}
	if user := s.User(); user != nil {
		for _, group := range [][]models.Story{user.OwnStories(), user.Favorites()} {
			for _, story := range group {
				if story.StoryID == storyID {
					return story, true
				}
			}
		}
	}
	return models.Story{}, false
}

// Known returns every story the session can show, list first, without
// duplicates.
func (s *Session) Known() []models.Story {
	var all []models.Story
	seen := map[string]struct{}{}
	add := func(stories []models.Story) {
		for _, st := range stories {
			if _, dup := seen[st.StoryID]; dup {
				continue
			}
			seen[st.StoryID] = struct{}{}
			all = append(all, st)
		}
	}

	add(s.Stories().Stories())
	if user := s.User(); user != nil {
		add(user.OwnStories())
		add(user.Favorites())
	}
	return all
}

func (s *Session) setUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	if user != nil {
		s.stale = ""
	}
}

// replaceUser swaps in fresh only if the user was not changed meanwhile.
func (s *Session) replaceUser(old, fresh *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == old {
		s.user = fresh
	}
}

func (s *Session) persistStories() {
	if s.opts.Store == nil {
		return
	}
	if err := s.opts.Store.SaveStories(s.Stories().Snapshot(), time.Now()); err != nil {
		debuglog.With("err", err).Warnf("saving story snapshot")
	}
}

func (s *Session) reindex() {
	if s.opts.Index == nil {
		return
	}
	if err := s.opts.Index.Reindex(s.Known()); err != nil {
		debuglog.With("err", err).Warnf("rebuilding search index")
	}
}
