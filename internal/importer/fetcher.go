package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/validation"
)

const feedAccept = "application/rss+xml, application/atom+xml, application/xml, text/xml"

type Fetcher struct {
	client *resty.Client
}

func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", feedAccept)
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &Fetcher{client: client}
}

// Fetch downloads the feed at feedURL. Transport failures are
// *hackorsnooze.NetworkError so callers can treat them like API timeouts.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (io.Reader, error) {
	if _, err := validation.ParseAbsolute(feedURL); err != nil {
		return nil, fmt.Errorf("feed url %q: %w", feedURL, err)
	}

	res, err := f.client.R().SetContext(ctx).Get(feedURL)
	if err != nil {
		return nil, &hackorsnooze.NetworkError{Op: "fetch feed", Err: err}
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetching feed: HTTP error: %d", res.StatusCode())
	}
	return bytes.NewReader(res.Body()), nil
}
