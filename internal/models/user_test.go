package models

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/snooze/internal/debuglog"
	"github.com/pders01/snooze/internal/hackorsnooze"
)

func TestNewUserMapsRecord(t *testing.T) {
	rec := hackorsnooze.UserRecord{
		Username:  "alice",
		Name:      "Alice",
		Favorites: []hackorsnooze.StoryRecord{{StoryID: "f1"}, {StoryID: "f1"}, {StoryID: "f2"}},
		Stories:   []hackorsnooze.StoryRecord{{StoryID: "s1"}},
	}
	user := NewUser(rec, "tok")

	assert.Equal(t, "alice", user.Username())
	assert.Equal(t, "Alice", user.Name())
	assert.Equal(t, []string{"f1", "f2"}, ids(user.Favorites()))
	assert.Equal(t, []string{"s1"}, ids(user.OwnStories()))
	assert.Equal(t, Token("tok"), user.LoginToken())
}

func TestSignupAndLogin(t *testing.T) {
	_, client := newFakeAPI(t)
	ctx := context.Background()

	created, err := Signup(ctx, client, "carol", "pw", "Carol")
	require.NoError(t, err)
	assert.Equal(t, "Carol", created.Name())
	assert.NotEmpty(t, created.LoginToken())

	again, err := Login(ctx, client, "carol", "pw")
	require.NoError(t, err)
	assert.Equal(t, "carol", again.Username())

	_, err = Signup(ctx, client, "carol", "pw", "Carol")
	assert.True(t, hackorsnooze.IsAPIStatus(err, http.StatusConflict))
}

func TestLoginBadPassword(t *testing.T) {
	server, client := newFakeAPI(t)
	server.AddUser("alice", "secret", "Alice")

	user, err := Login(context.Background(), client, "alice", "nope")
	assert.Nil(t, user)

	var apiErr *hackorsnooze.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestRestoreSession(t *testing.T) {
	server, client := newFakeAPI(t)
	token := server.AddUser("alice", "secret", "Alice")

	user, ok := RestoreSession(context.Background(), client, token, "alice")
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username())
	assert.Equal(t, token, user.LoginToken())
}

func TestRestoreSessionSoftFails(t *testing.T) {
	var buf bytes.Buffer
	debuglog.SetupWriter(debuglog.LevelWarn, &buf)
	t.Cleanup(func() { debuglog.SetupWriter(debuglog.LevelOff, nil) })

	server, client := newFakeAPI(t)
	server.AddUser("alice", "secret", "Alice")
	const stale = Token("stale-token-value")

	user, ok := RestoreSession(context.Background(), client, stale, "alice")
	assert.Nil(t, user)
	assert.False(t, ok)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "restoring session failed")
	assert.NotContains(t, out, stale.Reveal())
}

func TestRestoreSessionWithoutCredentials(t *testing.T) {
	server, client := newFakeAPI(t)

	user, ok := RestoreSession(context.Background(), client, "", "")
	assert.Nil(t, user)
	assert.False(t, ok)
	assert.Zero(t, server.TotalCalls())
}

func TestRestoreSessionNetworkFailure(t *testing.T) {
	var buf bytes.Buffer
	debuglog.SetupWriter(debuglog.LevelWarn, &buf)
	t.Cleanup(func() { debuglog.SetupWriter(debuglog.LevelOff, nil) })

	server, client := newFakeAPI(t)
	server.Close()
	const token = Token("restore-secret-token")

	user, ok := RestoreSession(context.Background(), client, token, "alice")
	assert.Nil(t, user)
	assert.False(t, ok)

	out := buf.String()
	assert.Contains(t, out, "restoring session failed")
	assert.Contains(t, out, "alice")
	assert.NotContains(t, out, token.Reveal())
}

func TestUpdateProfile(t *testing.T) {
	server, client := newFakeAPI(t)
	user := loggedIn(t, server, client)
	ctx := context.Background()

	got, err := user.UpdateProfile(ctx, client, "Alice Liddell", "")
	require.NoError(t, err)
	assert.Same(t, user, got)
	assert.Equal(t, "Alice Liddell", user.Name())

	_, err = user.UpdateProfile(ctx, client, "", "new-secret")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", user.Name(), "password-only update keeps the name")

	_, err = Login(ctx, client, "alice", "new-secret")
	assert.NoError(t, err)
}

func TestUpdateProfileFailures(t *testing.T) {
	server, client := newFakeAPI(t)
	user := loggedIn(t, server, client)
	ctx := context.Background()

	_, err := user.UpdateProfile(ctx, client, "", "")
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	server.Fail(http.MethodPatch, "/users/alice", http.StatusInternalServerError, "nope")
	_, err = user.UpdateProfile(ctx, client, "Changed", "")
	require.Error(t, err)
	assert.Equal(t, "Alice", user.Name())

	anon := NewUser(hackorsnooze.UserRecord{Username: "x"}, "")
	_, err = anon.UpdateProfile(ctx, client, "Changed", "")
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestAddFavorite(t *testing.T) {
	server, client := newFakeAPI(t)
	user := loggedIn(t, server, client)
	stories := seedStories(server, 2)
	ctx := context.Background()

	require.NoError(t, user.AddFavorite(ctx, client, stories[0]))
	require.NoError(t, user.AddFavorite(ctx, client, stories[1]))
	require.NoError(t, user.AddFavorite(ctx, client, stories[0]))

	assert.Equal(t, ids(stories[:2]), ids(user.Favorites()))
	assert.True(t, user.IsFavorite(stories[0]))

	remote, _ := server.User("alice")
	assert.Len(t, remote.Favorites, 2)
}

func TestAddFavoriteRollsBack(t *testing.T) {
	server, client := newFakeAPI(t)
	user := loggedIn(t, server, client)
	stories := seedStories(server, 2)
	ctx := context.Background()

	require.NoError(t, user.AddFavorite(ctx, client, stories[0]))

	path := "/users/alice/favorites/" + stories[1].StoryID
	server.Fail(http.MethodPost, path, http.StatusInternalServerError, "nope")

	err := user.AddFavorite(ctx, client, stories[1])
	require.Error(t, err)
	assert.Equal(t, ids(stories[:1]), ids(user.Favorites()))
	assert.False(t, user.IsFavorite(stories[1]))
}

func TestAddFavoriteAlreadyPresentFailureKeepsIt(t *testing.T) {
	server, client := newFakeAPI(t)
	user := loggedIn(t, server, client)
	stories := seedStories(server, 1)
	ctx := context.Background()

	require.NoError(t, user.AddFavorite(ctx, client, stories[0]))
	server.Fail(http.MethodPost, "/users/alice/favorites/"+stories[0].StoryID, http.StatusBadGateway, "")

	require.Error(t, user.AddFavorite(ctx, client, stories[0]))
	assert.True(t, user.IsFavorite(stories[0]), "a favorite this call did not add is not rolled back")
}

func TestRemoveFavorite(t *testing.T) {
	server, client := newFakeAPI(t)
	user := loggedIn(t, server, client)
	stories := seedStories(server, 3)
	ctx := context.Background()

	for _, s := range stories {
		require.NoError(t, user.AddFavorite(ctx, client, s))
	}

	require.NoError(t, user.RemoveFavorite(ctx, client, stories[1]))
	assert.Equal(t, []string{stories[0].StoryID, stories[2].StoryID}, ids(user.Favorites()))

	require.NoError(t, user.RemoveFavorite(ctx, client, stories[1]), "removing a non-favorite is harmless")
}

func TestRemoveFavoriteRestoresPosition(t *testing.T) {
	server, client := newFakeAPI(t)
	user := loggedIn(t, server, client)
	stories := seedStories(server, 3)
	ctx := context.Background()

	for _, s := range stories {
		require.NoError(t, user.AddFavorite(ctx, client, s))
	}
	before := ids(user.Favorites())

	server.Fail(http.MethodDelete, "/users/alice/favorites/"+stories[1].StoryID, http.StatusInternalServerError, "nope")
	require.Error(t, user.RemoveFavorite(ctx, client, stories[1]))

	assert.Equal(t, before, ids(user.Favorites()))
}

func TestFavoriteWithoutUserInResponse(t *testing.T) {
	server, client := newFakeAPI(t)
	server.OmitFavoriteUser = true
	user := loggedIn(t, server, client)
	stories := seedStories(server, 1)

	require.NoError(t, user.AddFavorite(context.Background(), client, stories[0]))
	assert.True(t, user.IsFavorite(stories[0]), "optimistic change stands on success")
}

func TestFavoriteReconcilesWithServer(t *testing.T) {
	server, client := newFakeAPI(t)
	user := loggedIn(t, server, client)
	stories := seedStories(server, 2)
	ctx := context.Background()

	// favorited elsewhere, unknown locally
	other, err := Login(ctx, client, "alice", "secret")
	require.NoError(t, err)
	require.NoError(t, other.AddFavorite(ctx, client, stories[1]))
	assert.False(t, user.IsFavorite(stories[1]))

	require.NoError(t, user.AddFavorite(ctx, client, stories[0]))
	assert.ElementsMatch(t, ids(stories), ids(user.Favorites()))
}

func TestToggleFavorite(t *testing.T) {
	server, client := newFakeAPI(t)
	user := loggedIn(t, server, client)
	stories := seedStories(server, 1)
	ctx := context.Background()

	on, err := user.ToggleFavorite(ctx, client, stories[0])
	require.NoError(t, err)
	assert.True(t, on)

	on, err = user.ToggleFavorite(ctx, client, stories[0])
	require.NoError(t, err)
	assert.False(t, on)

	server.Fail(http.MethodPost, "/users/alice/favorites/"+stories[0].StoryID, http.StatusInternalServerError, "")
	on, err = user.ToggleFavorite(ctx, client, stories[0])
	assert.Error(t, err)
	assert.False(t, on)
}

func TestFavoritesRequireToken(t *testing.T) {
	server, client := newFakeAPI(t)
	user := NewUser(hackorsnooze.UserRecord{Username: "alice"}, "")
	story := Story{StoryID: "s1"}
	ctx := context.Background()

	assert.ErrorIs(t, user.AddFavorite(ctx, client, story), ErrAuthRequired)
	assert.ErrorIs(t, user.RemoveFavorite(ctx, client, story), ErrAuthRequired)
	assert.Empty(t, user.Favorites())
	assert.Zero(t, server.TotalCalls())
}

func TestIsMyStory(t *testing.T) {
	user := NewUser(hackorsnooze.UserRecord{
		Username: "alice",
		Stories:  []hackorsnooze.StoryRecord{{StoryID: "mine", Title: "old title"}},
	}, "tok")

	assert.True(t, user.IsMyStory(Story{StoryID: "mine", Title: "different copy"}))
	assert.False(t, user.IsMyStory(Story{StoryID: "theirs"}))
}

func TestRollbackDoesNotClobberConcurrentSuccess(t *testing.T) {
	user := NewUser(hackorsnooze.UserRecord{Username: "alice"}, "tok")
	a, b := Story{StoryID: "a"}, Story{StoryID: "b"}

	bDone := make(chan struct{})
	api := &stubAPI{
		addFavorite: func(ctx context.Context, storyID string) (*hackorsnooze.UserRecord, error) {
			if storyID == "a" {
				<-bDone
				return nil, &hackorsnooze.NetworkError{Op: "add favorite", Err: errors.New("reset")}
			}
			return nil, nil
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var errA error
	go func() {
		defer wg.Done()
		errA = user.AddFavorite(context.Background(), api, a)
	}()

	require.Eventually(t, func() bool { return user.IsFavorite(a) }, timeout, tick)
	require.NoError(t, user.AddFavorite(context.Background(), api, b))
	close(bDone)
	wg.Wait()

	require.Error(t, errA)
	assert.Equal(t, []string{"b"}, ids(user.Favorites()))
}

func TestConcurrentFavorites(t *testing.T) {
	server, client := newFakeAPI(t)
	// responses race each other, so reconciliation would make the final
	// local state depend on arrival order
	server.OmitFavoriteUser = true
	user := loggedIn(t, server, client)
	stories := seedStories(server, 8)

	var wg sync.WaitGroup
	for _, s := range stories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, user.AddFavorite(context.Background(), client, s))
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, ids(stories), ids(user.Favorites()))
	remote, _ := server.User("alice")
	assert.Len(t, remote.Favorites, len(stories))
}
