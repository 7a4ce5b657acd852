package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrNotAbsolute is returned for URLs without a scheme or host.
	ErrNotAbsolute = errors.New("URL is not absolute")
	// ErrEmptyURL is returned for blank input.
	ErrEmptyURL = errors.New("URL cannot be empty")
)

// ParseAbsolute parses raw and requires both a scheme and a host.
// The input is not trimmed or rewritten.
func ParseAbsolute(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme == "" || u.Host == "" || u.Hostname() == "" {
		return nil, ErrNotAbsolute
	}
	return u, nil
}

// Hostname returns the lowercased host of raw without port, matching what a
// browser reports as URL.hostname.
func Hostname(raw string) (string, error) {
	u, err := ParseAbsolute(raw)
	if err != nil {
		return "", err
	}
	return strings.ToLower(u.Hostname()), nil
}

// ParseBaseURL validates an API base URL. Only http and https are accepted and
// any trailing slash is dropped so paths can be appended.
func ParseBaseURL(raw string) (string, error) {
	u, err := ParseAbsolute(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol, got %q", u.Scheme)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("base URL must not carry a query or fragment")
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// NormalizeStoryURL tidies a URL typed into a form: surrounding space is
// removed and https:// is assumed when no scheme is given. Whether the result
// is acceptable as a story link is for the server to decide.
func NormalizeStoryURL(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyURL
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := ParseAbsolute(input)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
