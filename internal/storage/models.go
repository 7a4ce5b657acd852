package storage

import (
	"time"

	"github.com/pders01/snooze/internal/hackorsnooze"
)

// Credentials are what session bootstrap needs to restore a login.
type Credentials struct {
	Username string             `json:"username"`
	Token    hackorsnooze.Token `json:"token"`
	SavedAt  time.Time          `json:"saved_at"`
}

// Snapshot is the story list as last fetched, in server order.
type Snapshot struct {
	Stories   []hackorsnooze.StoryRecord
	FetchedAt time.Time
}
