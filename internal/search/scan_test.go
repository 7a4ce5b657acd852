package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/snooze/internal/models"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"a b cd", []string{"cd"}},
		{"go.dev/blog", []string{"go", "dev", "blog"}},
		{"", nil},
		{"Ünïcode Wörds", []string{"ünïcode", "wörds"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tokenize(tt.input), tt.input)
	}
}

func TestScannerSearch(t *testing.T) {
	scanner := NewScanner(func() []models.Story { return testStories })

	res, err := scanner.Search("golang tips", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "s2", res[0].Story.StoryID)
	assert.Equal(t, []string{"title"}, res[0].Matches)

	res, err = scanner.Search("example", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, []string{"hostname"}, res[0].Matches)
}

func TestScannerShortQuery(t *testing.T) {
	scanner := NewScanner(func() []models.Story { return testStories })

	res, err := scanner.Search("x", 10)
	assert.NoError(t, err)
	assert.Empty(t, res)
}

func TestScannerDedupesAndLimits(t *testing.T) {
	stories := append([]models.Story{}, testStories...)
	stories = append(stories, testStories[0])
	scanner := NewScanner(func() []models.Story { return stories })

	res, err := scanner.Search("alice", 10)
	require.NoError(t, err)
	assert.Len(t, res, 2)

	res, err = scanner.Search("alice", 1)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestScoreFieldPrefersExactWords(t *testing.T) {
	exact := scoreField("go tips", []string{"go"}, 1)
	prefix := scoreField("gopher tips", []string{"go"}, 1)
	inner := scoreField("ergo tips", []string{"go"}, 1)

	assert.Greater(t, exact, prefix)
	assert.Greater(t, prefix, inner)
	assert.Zero(t, scoreField("", []string{"go"}, 1))
}

func TestRecencyBoost(t *testing.T) {
	now := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 0.1, recencyBoost(now, now), 1e-9)
	assert.Zero(t, recencyBoost(now.Add(-8*24*time.Hour), now))
	assert.Zero(t, recencyBoost(time.Time{}, now))
	assert.Greater(t, recencyBoost(now.Add(-time.Hour), now), recencyBoost(now.Add(-72*time.Hour), now))
}
