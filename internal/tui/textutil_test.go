package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncateEnd(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hell…"},
		{"héllo wörld", 4, "hél…"},
		{"hello", 1, "…"},
		{"hello", 0, ""},
		{"hello", -3, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateEnd(tt.in, tt.limit), "truncateEnd(%q, %d)", tt.in, tt.limit)
	}
}

func TestTruncateMiddle(t *testing.T) {
	assert.Equal(t, "https://example.com", truncateMiddle("https://example.com", 30))
	assert.Equal(t, "http…/path", truncateMiddle("https://example.com/path", 10))
	assert.Equal(t, "…", truncateMiddle("abc", 1))
	assert.Equal(t, "…c", truncateMiddle("abc", 2))
	assert.Equal(t, "", truncateMiddle("abc", 0))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "go generics", sanitizeInput("  go\t\tgenerics\n", 0))
	assert.Equal(t, "abc", sanitizeInput("abcdef", 3))
	assert.Equal(t, "ab", sanitizeInput("ab cd", 3))
	assert.Equal(t, "", sanitizeInput(" \n ", 10))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, ""},
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-49 * time.Hour), "2d ago"},
		{now.AddDate(0, -3, 0), "Feb 10, 2024"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativeTime(tt.at, now))
	}
}
