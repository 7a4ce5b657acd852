package models

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/hackorsnooze/fakeapi"
)

func newFakeAPI(t *testing.T) (*fakeapi.Server, *hackorsnooze.Client) {
	t.Helper()
	server := fakeapi.New(t)
	client, err := hackorsnooze.New(hackorsnooze.Options{BaseURL: server.URL})
	require.NoError(t, err)
	return server, client
}

// loggedIn registers alice on the fake server and returns the logged-in User.
func loggedIn(t *testing.T, server *fakeapi.Server, client *hackorsnooze.Client) *User {
	t.Helper()
	server.AddUser("alice", "secret", "Alice")
	user, err := Login(context.Background(), client, "alice", "secret")
	require.NoError(t, err)
	return user
}

func seedStories(server *fakeapi.Server, n int) []Story {
	stories := make([]Story, 0, n)
	for i := 0; i < n; i++ {
		rec := server.AddStory(hackorsnooze.StoryRecord{
			Title:    "story",
			Author:   "someone",
			URL:      "https://example.com",
			Username: "bob",
		})
		stories = append([]Story{FromRecord(rec)}, stories...)
	}
	return stories
}

// stubAPI lets a test script individual endpoints. Unset endpoints panic.
type stubAPI struct {
	API
	addFavorite    func(ctx context.Context, storyID string) (*hackorsnooze.UserRecord, error)
	removeFavorite func(ctx context.Context, storyID string) (*hackorsnooze.UserRecord, error)
}

func (s *stubAPI) AddFavorite(ctx context.Context, _ Token, _ string, storyID string) (*hackorsnooze.UserRecord, error) {
	return s.addFavorite(ctx, storyID)
}

func (s *stubAPI) RemoveFavorite(ctx context.Context, _ Token, _ string, storyID string) (*hackorsnooze.UserRecord, error) {
	return s.removeFavorite(ctx, storyID)
}

func ids(stories []Story) []string {
	out := make([]string, 0, len(stories))
	for _, s := range stories {
		out = append(out, s.StoryID)
	}
	return out
}

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)
