package models

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pders01/snooze/internal/debuglog"
	"github.com/pders01/snooze/internal/hackorsnooze"
)

// User is an authenticated account. The username and token are fixed at
// construction. Favorites never hold two stories with the same id.
//
// The mutex guards local state only and is never held during a request, so
// concurrent calls on one User are last-write-wins on the server. A failed
// optimistic change is undone by story id rather than by restoring a saved
// copy, which keeps concurrent successes intact.
type User struct {
	username   string
	createdAt  time.Time
	loginToken Token

	mu         sync.RWMutex
	name       string
	favorites  []Story
	ownStories []Story
}

// NewUser builds a User from a server record and the token it was issued with.
func NewUser(rec hackorsnooze.UserRecord, token Token) *User {
	u := &User{
		username:   rec.Username,
		name:       rec.Name,
		createdAt:  rec.CreatedAt,
		loginToken: token,
		ownStories: fromRecords(rec.Stories),
	}
	u.favorites = dedupe(fromRecords(rec.Favorites))
	return u
}

func (u *User) Username() string     { return u.username }
func (u *User) CreatedAt() time.Time { return u.createdAt }

// LoginToken is empty for a nil User, so callers can check auth uniformly.
func (u *User) LoginToken() Token {
	if u == nil {
		return ""
	}
	return u.loginToken
}

func (u *User) Name() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.name
}

// Favorites returns a copy of the user's favorites in the order added.
func (u *User) Favorites() []Story {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.favorites)
}

// OwnStories returns a copy of the stories the user posted.
func (u *User) OwnStories() []Story {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.ownStories)
}

func (u *User) IsFavorite(story Story) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return contains(u.favorites, story.StoryID)
}

func (u *User) IsMyStory(story Story) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return contains(u.ownStories, story.StoryID)
}

// Signup creates an account and returns it logged in.
func Signup(ctx context.Context, api API, username, password, name string) (*User, error) {
	res, err := api.Signup(ctx, hackorsnooze.Credentials{
		Username: username,
		Password: password,
		Name:     name,
	})
	if err != nil {
		return nil, err
	}
	return NewUser(res.User, res.Token), nil
}

// Login exchanges credentials for a User. Bad credentials surface as the
// server's *hackorsnooze.APIError.
func Login(ctx context.Context, api API, username, password string) (*User, error) {
	res, err := api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return NewUser(res.User, res.Token), nil
}

// RestoreSession rebuilds the User for stored credentials. It never fails
// loudly: any error is logged at warn level and reported as (nil, false).
func RestoreSession(ctx context.Context, api API, token Token, username string) (*User, bool) {
	log := debuglog.WithFields(map[string]any{"username": username})
	if token == "" || username == "" {
		log.Debugf("no stored credentials")
		return nil, false
	}

	rec, err := api.GetUser(ctx, token, username)
	if err != nil {
		log.With("err", err).Warnf("restoring session failed")
		return nil, false
	}
	return NewUser(rec, token), true
}

// UpdateProfile changes the display name and/or password. Empty values are
// left unchanged. On success the name is taken from the server's answer.
func (u *User) UpdateProfile(ctx context.Context, api API, newName, newPassword string) (*User, error) {
	if u.loginToken == "" {
		return nil, ErrAuthRequired
	}
	if newName == "" && newPassword == "" {
		return nil, ErrNothingToUpdate
	}

	rec, err := api.UpdateUser(ctx, u.loginToken, u.username, hackorsnooze.ProfileUpdate{
		Name:     newName,
		Password: newPassword,
	})
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	switch {
	case rec.Name != "":
		u.name = rec.Name
	case newName != "":
		u.name = newName
	}
	u.mu.Unlock()
	return u, nil
}

// AddFavorite marks story as a favorite. The local list changes first and
// is rolled back if the request fails.
func (u *User) AddFavorite(ctx context.Context, api API, story Story) error {
	if u.loginToken == "" {
		return ErrAuthRequired
	}

	u.mu.Lock()
	added := !contains(u.favorites, story.StoryID)
	if added {
		u.favorites = append(slices.Clip(u.favorites), story)
	}
	u.mu.Unlock()

	rec, err := api.AddFavorite(ctx, u.loginToken, u.username, story.StoryID)
	if err != nil {
		if added {
			u.mu.Lock()
			u.favorites = without(u.favorites, story.StoryID)
			u.mu.Unlock()
		}
		return err
	}
	u.reconcile(rec)
	return nil
}

// RemoveFavorite unmarks story. The local list changes first; on failure the
// story goes back to the position it held.
func (u *User) RemoveFavorite(ctx context.Context, api API, story Story) error {
	if u.loginToken == "" {
		return ErrAuthRequired
	}

	u.mu.Lock()
	idx := indexOf(u.favorites, story.StoryID)
	var removed Story
	if idx >= 0 {
		removed = u.favorites[idx]
		u.favorites = without(u.favorites, story.StoryID)
	}
	u.mu.Unlock()

	rec, err := api.RemoveFavorite(ctx, u.loginToken, u.username, story.StoryID)
	if err != nil {
		if idx >= 0 {
			u.mu.Lock()
			if !contains(u.favorites, story.StoryID) {
				at := min(idx, len(u.favorites))
				u.favorites = slices.Insert(slices.Clone(u.favorites), at, removed)
			}
			u.mu.Unlock()
		}
		return err
	}
	u.reconcile(rec)
	return nil
}

// ToggleFavorite flips membership and reports the resulting state.
func (u *User) ToggleFavorite(ctx context.Context, api API, story Story) (bool, error) {
	var err error
	if u.IsFavorite(story) {
		err = u.RemoveFavorite(ctx, api, story)
	} else {
		err = u.AddFavorite(ctx, api, story)
	}
	return u.IsFavorite(story), err
}

// reconcile adopts the server's favorites when a response carried them.
func (u *User) reconcile(rec *hackorsnooze.UserRecord) {
	if rec == nil || rec.Favorites == nil {
		return
	}
	favorites := dedupe(fromRecords(rec.Favorites))
	u.mu.Lock()
	u.favorites = favorites
	u.mu.Unlock()
}

func (u *User) addOwnStory(story Story) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ownStories = append(slices.Clip(u.ownStories), story)
}

// forgetStory drops a deleted story everywhere the user references it.
func (u *User) forgetStory(storyID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ownStories = without(u.ownStories, storyID)
	u.favorites = without(u.favorites, storyID)
}

func dedupe(stories []Story) []Story {
	out := make([]Story, 0, len(stories))
	for _, s := range stories {
		if !contains(out, s.StoryID) {
			out = append(out, s)
		}
	}
	return out
}
