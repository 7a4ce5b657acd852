package search

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pders01/snooze/internal/models"
)

// Scanner scores stories in memory without an index. It backs search when
// the on-disk index cannot be opened.
type Scanner struct {
	source func() []models.Story
	now    func() time.Time
}

var _ Searcher = (*Scanner)(nil)

// NewScanner searches whatever source returns at query time.
func NewScanner(source func() []models.Story) *Scanner {
	return &Scanner{source: source, now: time.Now}
}

func (s *Scanner) Search(query string, limit int) ([]Result, error) {
	if len(strings.TrimSpace(query)) < MinQueryLength {
		return []Result{}, nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	var results []Result
	seen := map[string]struct{}{}
	for _, story := range s.source() {
		if _, dup := seen[story.StoryID]; dup {
			continue
		}
		seen[story.StoryID] = struct{}{}
		if r, ok := s.score(story, terms); ok {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Scanner) score(story models.Story, terms []string) (Result, bool) {
	host, _ := story.Hostname()
	fields := []struct {
		name   string
		text   string
		weight float64
	}{
		{"title", story.Title, 4.0},
		{"author", story.Author, 2.0},
		{"hostname", host, 1.5},
		{"username", story.Username, 1.0},
	}

	var total float64
	var matched []string
	for _, f := range fields {
		if sc := scoreField(f.text, terms, f.weight); sc > 0 {
			total += sc
			matched = append(matched, f.name)
		}
	}
	if total == 0 {
		return Result{}, false
	}

	total *= 1.0 + recencyBoost(story.CreatedAt, s.now())
	return Result{Story: story, Score: total, Matches: sortedFields(matched)}, true
}

// scoreField rewards exact words over prefixes over substrings.
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0
	for _, term := range terms {
		best := 0.0
		for _, word := range words {
			switch {
			case word == term:
				best = math.Max(best, 1.5)
			case strings.HasPrefix(word, term):
				best = math.Max(best, 1.0)
			case strings.Contains(word, term):
				best = math.Max(best, 0.5)
			}
		}
		if best > 0 {
			score += best
			matchedTerms++
		}
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}
	return score * weight
}

// recencyBoost adds up to 10% for stories from the last week.
func recencyBoost(created, now time.Time) float64 {
	if created.IsZero() {
		return 0
	}
	age := now.Sub(created)
	week := 7 * 24 * time.Hour
	if age < 0 || age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit. Single characters are dropped.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return terms
}

func sortedFields(fields []string) []string {
	sort.Strings(fields)
	return fields
}
