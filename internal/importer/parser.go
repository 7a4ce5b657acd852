// Package importer turns RSS and Atom items into story drafts.
package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pders01/snooze/internal/models"
	"github.com/pders01/snooze/internal/validation"
)

// Candidate is one feed item ready to be posted as a story.
type Candidate struct {
	Draft     models.Draft
	GUID      string
	Published time.Time
}

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse reads a feed document. Items without a title or a usable link are
// skipped; the returned count says how many.
func (p *Parser) Parse(reader io.Reader) ([]Candidate, int, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing feed: %w", err)
	}

	candidates := make([]Candidate, 0, len(feed.Items))
	skipped := 0
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link, err := validation.NormalizeStoryURL(itemLink(item))
		if title == "" || err != nil {
			skipped++
			continue
		}

		c := Candidate{
			Draft: models.Draft{
				Title:  title,
				Author: itemAuthor(item, feed),
				URL:    link,
			},
			GUID: item.GUID,
		}
		if item.PublishedParsed != nil {
			c.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			c.Published = *item.UpdatedParsed
		}
		candidates = append(candidates, c)
	}

	return candidates, skipped, nil
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	for _, link := range item.Links {
		if link != "" {
			return link
		}
	}
	return ""
}

// itemAuthor falls back from the item's author to the feed's, then to the
// feed title.
func itemAuthor(item *gofeed.Item, feed *gofeed.Feed) string {
	for _, p := range [][]*gofeed.Person{{item.Author}, item.Authors, {feed.Author}, feed.Authors} {
		for _, person := range p {
			if person != nil && strings.TrimSpace(person.Name) != "" {
				return strings.TrimSpace(person.Name)
			}
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return strings.TrimSpace(feed.Title)
}
