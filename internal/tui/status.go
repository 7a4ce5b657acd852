package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading stories…"
	MsgRefreshing     = "Refreshing…"
	MsgSubmitting     = "Submitting story…"
	MsgDeleting       = "Deleting…"
	MsgSigningIn      = "Signing in…"
	MsgSigningUp      = "Creating account…"
	MsgSaving         = "Saving profile…"
	MsgNoResults      = "No results"
	MsgStoryDeleted   = "Story deleted"
	MsgProfileSaved   = "Profile updated"
	MsgLoggedOut      = "Logged out"
	MsgOffline        = "Offline: showing saved stories"
	MsgLoginRequired  = "Log in first"
	MsgNotYourStory   = "You can only delete your own stories"
	MsgNothingToWrite = "Nothing to update"
)

func MsgLoginExpired(username string) string {
	return fmt.Sprintf("Stored login for %s expired, log in again", username)
}

func MsgStoryCount(n int) string {
	if n == 1 {
		return "1 story"
	}
	return fmt.Sprintf("%d stories", n)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgWelcome(name string) string {
	return fmt.Sprintf("Welcome, %s", strings.TrimSpace(name))
}

func MsgSubmitted(title string) string {
	return fmt.Sprintf("Submitted '%s'", strings.TrimSpace(title))
}

func MsgFavorited(title string, favorite bool) string {
	if favorite {
		return fmt.Sprintf("★ %s", strings.TrimSpace(title))
	}
	return fmt.Sprintf("☆ %s", strings.TrimSpace(title))
}
