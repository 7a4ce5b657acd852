package models

import (
	"time"

	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/validation"
)

// Story is one posted link. Values are never mutated after construction.
type Story struct {
	StoryID   string
	Title     string
	Author    string
	URL       string
	Username  string
	CreatedAt time.Time
}

// Draft is the user-entered part of a new story.
type Draft struct {
	Title  string
	Author string
	URL    string
}

func FromRecord(rec hackorsnooze.StoryRecord) Story {
	return Story{
		StoryID:   rec.StoryID,
		Title:     rec.Title,
		Author:    rec.Author,
		URL:       rec.URL,
		Username:  rec.Username,
		CreatedAt: rec.CreatedAt,
	}
}

func (s Story) Record() hackorsnooze.StoryRecord {
	return hackorsnooze.StoryRecord{
		StoryID:   s.StoryID,
		Title:     s.Title,
		Author:    s.Author,
		URL:       s.URL,
		Username:  s.Username,
		CreatedAt: s.CreatedAt,
	}
}

// Hostname returns the host of the story URL without port.
func (s Story) Hostname() (string, error) {
	host, err := validation.Hostname(s.URL)
	if err != nil {
		return "", &MalformedURLError{URL: s.URL, Err: err}
	}
	return host, nil
}

func fromRecords(recs []hackorsnooze.StoryRecord) []Story {
	stories := make([]Story, 0, len(recs))
	for _, rec := range recs {
		stories = append(stories, FromRecord(rec))
	}
	return stories
}

func indexOf(stories []Story, storyID string) int {
	for i, s := range stories {
		if s.StoryID == storyID {
			return i
		}
	}
	return -1
}

// without returns a new slice lacking every story with storyID.
func without(stories []Story, storyID string) []Story {
	out := make([]Story, 0, len(stories))
	for _, s := range stories {
		if s.StoryID != storyID {
			out = append(out, s)
		}
	}
	return out
}

func contains(stories []Story, storyID string) bool {
	return indexOf(stories, storyID) >= 0
}
