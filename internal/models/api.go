// Package models holds the client-side domain model: stories, the shared
// story list and the user account, kept in sync with the remote API.
package models

import (
	"context"

	"github.com/pders01/snooze/internal/hackorsnooze"
)

// Token is the opaque login token. It never formats its value.
type Token = hackorsnooze.Token

// API is the part of the remote service the model talks to.
// *hackorsnooze.Client satisfies it.
type API interface {
	ListStories(ctx context.Context, skip, limit int) ([]hackorsnooze.StoryRecord, error)
	CreateStory(ctx context.Context, token Token, story hackorsnooze.NewStory) (hackorsnooze.StoryRecord, error)
	DeleteStory(ctx context.Context, token Token, storyID string) error
	Signup(ctx context.Context, creds hackorsnooze.Credentials) (hackorsnooze.AuthResult, error)
	Login(ctx context.Context, username, password string) (hackorsnooze.AuthResult, error)
	GetUser(ctx context.Context, token Token, username string) (hackorsnooze.UserRecord, error)
	UpdateUser(ctx context.Context, token Token, username string, update hackorsnooze.ProfileUpdate) (hackorsnooze.UserRecord, error)
	AddFavorite(ctx context.Context, token Token, username, storyID string) (*hackorsnooze.UserRecord, error)
	RemoveFavorite(ctx context.Context, token Token, username, storyID string) (*hackorsnooze.UserRecord, error)
}

var _ API = (*hackorsnooze.Client)(nil)
