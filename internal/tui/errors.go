package tui

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/models"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// describeErr turns client errors into a line fit for the status bar.
func describeErr(err error) string {
	var apiErr *hackorsnooze.APIError
	var urlErr *models.MalformedURLError
	switch {
	case errors.Is(err, models.ErrAuthRequired):
		return MsgLoginRequired
	case errors.Is(err, models.ErrNothingToUpdate):
		return MsgNothingToWrite
	case errors.Is(err, hackorsnooze.ErrTimeout):
		return "Server did not answer in time"
	case errors.As(err, &urlErr):
		return "Bad story URL: " + urlErr.URL
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusUnauthorized {
			return "Unauthorized: " + apiErr.Message
		}
		return apiErr.Message
	}
	var netErr *hackorsnooze.NetworkError
	if errors.As(err, &netErr) {
		return "Network error: " + netErr.Err.Error()
	}
	return err.Error()
}
