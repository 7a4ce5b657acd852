package models

import (
	"context"
	"slices"
	"sync"

	"github.com/pders01/snooze/internal/hackorsnooze"
)

// StoryList is the shared, server-ordered list of stories. A full fetch
// builds a new list rather than merging into an old one.
type StoryList struct {
	mu      sync.RWMutex
	stories []Story
}

func NewStoryList(stories []Story) *StoryList {
	return &StoryList{stories: slices.Clone(stories)}
}

// FetchAll loads the stories the server returns by default.
func FetchAll(ctx context.Context, api API) (*StoryList, error) {
	return FetchPage(ctx, api, 0, 0)
}

// FetchPage loads limit stories after skipping skip. Zero values leave the
// choice to the server.
func FetchPage(ctx context.Context, api API, skip, limit int) (*StoryList, error) {
	recs, err := api.ListStories(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	return &StoryList{stories: fromRecords(recs)}, nil
}

// Stories returns a copy of the current stories.
func (l *StoryList) Stories() []Story {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.stories)
}

// Snapshot is Stories as wire records, for persistence and indexing.
func (l *StoryList) Snapshot() []hackorsnooze.StoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	recs := make([]hackorsnooze.StoryRecord, 0, len(l.stories))
	for _, s := range l.stories {
		recs = append(recs, s.Record())
	}
	return recs
}

func (l *StoryList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.stories)
}

func (l *StoryList) Find(storyID string) (Story, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := indexOf(l.stories, storyID); i >= 0 {
		return l.stories[i], true
	}
	return Story{}, false
}

// Prepend puts s at the front, where the server lists new stories.
func (l *StoryList) Prepend(s Story) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stories = append([]Story{s}, l.stories...)
}

func (l *StoryList) Append(s Story) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stories = append(slices.Clip(l.stories), s)
}

// AddStory posts draft as actor. On success the story is added to the
// actor's own stories and returned; placing it in the list is the caller's
// call (Prepend or Append). Nothing changes locally on failure.
func (l *StoryList) AddStory(ctx context.Context, api API, actor *User, draft Draft) (Story, error) {
	token := actor.LoginToken()
	if token == "" {
		return Story{}, ErrAuthRequired
	}

	rec, err := api.CreateStory(ctx, token, hackorsnooze.NewStory{
		Author: draft.Author,
		Title:  draft.Title,
		URL:    draft.URL,
	})
	if err != nil {
		return Story{}, err
	}

	story := FromRecord(rec)
	actor.addOwnStory(story)
	return story, nil
}

// RemoveStory deletes storyID on the server, then drops it from this list
// and from the actor's own stories and favorites. On failure nothing changes.
func (l *StoryList) RemoveStory(ctx context.Context, api API, actor *User, storyID string) error {
	token := actor.LoginToken()
	if token == "" {
		return ErrAuthRequired
	}

	if err := api.DeleteStory(ctx, token, storyID); err != nil {
		return err
	}

	l.mu.Lock()
	l.stories = without(l.stories, storyID)
	l.mu.Unlock()

	actor.forgetStory(storyID)
	return nil
}
