package search

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/snooze/internal/models"
)

var testStories = []models.Story{
	{StoryID: "s1", Title: "Hello World", Author: "Ada", URL: "https://example.com/1", Username: "alice",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	{StoryID: "s2", Title: "Golang Tips", Author: "Rob Pike", URL: "https://go.dev/blog/tips", Username: "bob"},
	{StoryID: "s3", Title: "Full text search with bleve", Author: "Marty", URL: "https://blevesearch.com", Username: "alice"},
}

func openMem(t *testing.T) *Index {
	t.Helper()
	idx, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndexSearch(t *testing.T) {
	idx := openMem(t)
	require.NoError(t, idx.Reindex(testStories))

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "title word", query: "golang", want: "s2"},
		{name: "title prefix", query: "blev", want: "s3"},
		{name: "author", query: "pike", want: "s2"},
		{name: "hostname", query: "example", want: "s1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := idx.Search(tt.query, 10)
			require.NoError(t, err)
			require.NotEmpty(t, res)
			assert.Equal(t, tt.want, res[0].Story.StoryID)
		})
	}
}

func TestIndexRebuildsStory(t *testing.T) {
	idx := openMem(t)
	require.NoError(t, idx.Reindex(testStories))

	res, err := idx.Search("hello", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, testStories[0], res[0].Story)
	assert.Contains(t, res[0].Matches, "title")
}

func TestIndexShortQuery(t *testing.T) {
	idx := openMem(t)
	require.NoError(t, idx.Reindex(testStories))

	for _, q := range []string{"", "a", "   "} {
		res, err := idx.Search(q, 10)
		assert.NoError(t, err)
		assert.NotNil(t, res)
		assert.Empty(t, res)
	}
}

func TestReindexDropsStaleStories(t *testing.T) {
	idx := openMem(t)
	require.NoError(t, idx.Reindex(testStories))

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, idx.Reindex(testStories[1:]))
	n, err = idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := idx.Search("hello", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestAddAndRemove(t *testing.T) {
	idx := openMem(t)
	require.NoError(t, idx.Add(testStories[0]))
	require.NoError(t, idx.Add(models.Story{StoryID: "s1", Title: "Renamed Entry", URL: "https://example.com/1"}))

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "same id replaces")

	res, err := idx.Search("renamed", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)

	require.NoError(t, idx.Remove("s1"))
	n, err = idx.DocCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndexOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.bleve")

	idx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.Reindex(testStories))
	require.NoError(t, idx.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	idx, err = Open(path)
	require.NoError(t, err)
	defer idx.Close()

	res, err := idx.Search("golang", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "s2", res[0].Story.StoryID)
}
