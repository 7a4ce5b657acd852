package session

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/hackorsnooze/fakeapi"
	"github.com/pders01/snooze/internal/models"
	"github.com/pders01/snooze/internal/search"
	"github.com/pders01/snooze/internal/storage"
)

type fixture struct {
	server *fakeapi.Server
	client *hackorsnooze.Client
	store  *storage.Store
	index  *search.Index
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	server := fakeapi.New(t)
	client, err := hackorsnooze.New(hackorsnooze.Options{BaseURL: server.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "snooze.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	index, err := search.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	return &fixture{server: server, client: client, store: store, index: index}
}

func (f *fixture) session() *Session {
	return New(f.client, Options{PageSize: 25, Store: f.store, Index: f.index})
}

func (f *fixture) seed(title string) models.Story {
	rec := f.server.AddStory(hackorsnooze.StoryRecord{
		Title:    title,
		Author:   "someone",
		URL:      "https://example.com/" + title,
		Username: "bob",
	})
	return models.FromRecord(rec)
}

func TestBootstrapAnonymous(t *testing.T) {
	f := newFixture(t)
	f.seed("first")
	f.seed("second")

	s := f.session()
	require.NoError(t, s.Bootstrap(context.Background()))

	assert.False(t, s.LoggedIn())
	assert.Equal(t, 2, s.Stories().Len())
	assert.False(t, s.Offline())

	snap, err := f.store.LoadStories()
	require.NoError(t, err)
	assert.Len(t, snap.Stories, 2)
}

func TestBootstrapRestoresStoredLogin(t *testing.T) {
	f := newFixture(t)
	token := f.server.AddUser("alice", "secret", "Alice")
	require.NoError(t, f.store.SaveCredentials(storage.Credentials{Username: "alice", Token: token}))

	s := f.session()
	require.NoError(t, s.Bootstrap(context.Background()))

	require.True(t, s.LoggedIn())
	assert.Equal(t, "Alice", s.User().Name())
	_, stale := s.StaleLogin()
	assert.False(t, stale)
}

func TestBootstrapWithStaleCredentials(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	require.NoError(t, f.store.SaveCredentials(storage.Credentials{Username: "alice", Token: "expired"}))

	s := f.session()
	require.NoError(t, s.Bootstrap(context.Background()), "a failed restore is not an error")
	assert.False(t, s.LoggedIn())

	name, stale := s.StaleLogin()
	assert.True(t, stale)
	assert.Equal(t, "alice", name)

	require.NoError(t, s.Login(context.Background(), "alice", "secret"))
	_, stale = s.StaleLogin()
	assert.False(t, stale, "a fresh login clears the stale marker")
}

func TestBootstrapFallsBackToSnapshot(t *testing.T) {
	f := newFixture(t)
	f.seed("cached")

	require.NoError(t, f.session().Bootstrap(context.Background()))

	f.server.Fail(http.MethodGet, "/stories", http.StatusServiceUnavailable, "maintenance")
	s := f.session()
	err := s.Bootstrap(context.Background())

	assert.True(t, hackorsnooze.IsAPIStatus(err, http.StatusServiceUnavailable))
	assert.True(t, s.Offline())
	assert.Equal(t, 1, s.Stories().Len())
}

func TestLoginPersistsAndLogoutClears(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	s := f.session()
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "alice", "secret"))
	assert.True(t, s.LoggedIn())

	creds, err := f.store.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, s.User().LoginToken(), creds.Token)

	require.NoError(t, s.Logout())
	assert.False(t, s.LoggedIn())
	_, err = f.store.LoadCredentials()
	assert.ErrorIs(t, err, storage.ErrNoCredentials)
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	s := f.session()

	err := s.Login(context.Background(), "alice", "wrong")
	assert.True(t, hackorsnooze.IsAPIStatus(err, http.StatusUnauthorized))
	assert.False(t, s.LoggedIn())

	_, err = f.store.LoadCredentials()
	assert.ErrorIs(t, err, storage.ErrNoCredentials)
}

func TestSignup(t *testing.T) {
	f := newFixture(t)
	s := f.session()

	require.NoError(t, s.Signup(context.Background(), "dora", "pw", "Dora"))
	assert.Equal(t, "dora", s.User().Username())
}

func TestSubmitAndDelete(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	f.seed("existing")
	s := f.session()
	ctx := context.Background()

	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.Login(ctx, "alice", "secret"))

	story, err := s.Submit(ctx, models.Draft{Title: "Brand new", Author: "Alice", URL: "https://new.example"})
	require.NoError(t, err)

	first := s.Stories().Stories()[0]
	assert.Equal(t, story.StoryID, first.StoryID, "new stories go on top")
	assert.True(t, s.User().IsMyStory(story))

	hits, err := f.index.Search("brand", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, s.Delete(ctx, story.StoryID))
	_, found := s.Lookup(story.StoryID)
	assert.False(t, found)

	hits, err = f.index.Search("brand", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

// refreshingAPI runs hook before each CreateStory reaches the server.
type refreshingAPI struct {
	*hackorsnooze.Client
	hook func()
}

func (a *refreshingAPI) CreateStory(ctx context.Context, token models.Token, story hackorsnooze.NewStory) (hackorsnooze.StoryRecord, error) {
	if a.hook != nil {
		a.hook()
	}
	return a.Client.CreateStory(ctx, token, story)
}

func TestSubmitDuringRefresh(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	f.seed("existing")
	api := &refreshingAPI{Client: f.client}
	s := New(api, Options{PageSize: 25, Store: f.store, Index: f.index})
	ctx := context.Background()

	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.Login(ctx, "alice", "secret"))
	before := s.Stories()
	api.hook = func() { require.NoError(t, s.Refresh(ctx)) }

	story, err := s.Submit(ctx, models.Draft{Title: "Raced", Author: "Alice", URL: "https://raced.example"})
	require.NoError(t, err)

	require.NotSame(t, before, s.Stories(), "refresh replaced the list")
	got, found := s.Stories().Find(story.StoryID)
	require.True(t, found, "story lands in the current list")
	assert.Equal(t, "Raced", got.Title)
	assert.Equal(t, story.StoryID, s.Stories().Stories()[0].StoryID)
}

func TestMutationsRequireLogin(t *testing.T) {
	f := newFixture(t)
	story := f.seed("x")
	s := f.session()
	ctx := context.Background()

	_, err := s.Submit(ctx, models.Draft{Title: "t", Author: "a", URL: "https://t.example"})
	assert.ErrorIs(t, err, models.ErrAuthRequired)
	assert.ErrorIs(t, s.Delete(ctx, story.StoryID), models.ErrAuthRequired)
	assert.ErrorIs(t, s.Favorite(ctx, story), models.ErrAuthRequired)
	assert.ErrorIs(t, s.Unfavorite(ctx, story), models.ErrAuthRequired)
	assert.ErrorIs(t, s.UpdateProfile(ctx, "n", ""), models.ErrAuthRequired)
	_, err = s.ToggleFavorite(ctx, story)
	assert.ErrorIs(t, err, models.ErrAuthRequired)
}

func TestFavoritesThroughSession(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	story := f.seed("fav")
	s := f.session()
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "alice", "secret"))

	on, err := s.ToggleFavorite(ctx, story)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, s.Unfavorite(ctx, story))
	assert.False(t, s.User().IsFavorite(story))

	require.NoError(t, s.Favorite(ctx, story))
	assert.True(t, s.User().IsFavorite(story))
}

func TestRefreshReloadsUser(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	story := f.seed("elsewhere")
	s := f.session()
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "alice", "secret"))

	// favorited from another client
	other, err := models.Login(ctx, f.client, "alice", "secret")
	require.NoError(t, err)
	require.NoError(t, other.AddFavorite(ctx, f.client, story))
	assert.False(t, s.User().IsFavorite(story))

	require.NoError(t, s.Refresh(ctx))
	assert.True(t, s.User().IsFavorite(story))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	s := f.session()
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "alice", "secret"))
	require.NoError(t, s.UpdateProfile(ctx, "Alice L.", ""))
	assert.Equal(t, "Alice L.", s.User().Name())
}

func TestKnownDedupes(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	listed := f.seed("listed")
	s := f.session()
	ctx := context.Background()

	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.Login(ctx, "alice", "secret"))
	require.NoError(t, s.Favorite(ctx, listed))

	known := s.Known()
	assert.Len(t, known, 1)

	got, ok := s.Lookup(listed.StoryID)
	assert.True(t, ok)
	assert.Equal(t, listed.StoryID, got.StoryID)
}

func TestSessionWithoutStore(t *testing.T) {
	f := newFixture(t)
	f.server.AddUser("alice", "secret", "Alice")
	s := New(f.client, Options{})
	ctx := context.Background()

	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.Login(ctx, "alice", "secret"))
	require.NoError(t, s.Logout())
}
