// Package search finds stories by title, author and site.
package search

import "github.com/pders01/snooze/internal/models"

// Result is one matching story. Matches lists the fields that hit.
type Result struct {
	Story   models.Story
	Score   float64
	Matches []string
}

// Searcher is the lookup API used by the TUI and CLI.
type Searcher interface {
	Search(query string, limit int) ([]Result, error)
}

// Indexer is implemented by searchers that keep their own copy of the
// stories and must be told when the known set changes.
type Indexer interface {
	Reindex(stories []models.Story) error
}

// MinQueryLength is the shortest query that is searched at all.
const MinQueryLength = 2

const defaultLimit = 20
