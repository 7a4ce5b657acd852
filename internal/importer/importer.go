package importer

import (
	"context"
	"sort"
	"time"

	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/debuglog"
	"github.com/pders01/snooze/internal/models"
)

type Importer struct {
	fetcher   *Fetcher
	parser    *Parser
	resolvers *Resolvers
}

func New(cfg *config.Config) *Importer {
	return &Importer{
		fetcher:   NewFetcher(cfg.API.UserAgent, cfg.API.Timeout),
		parser:    NewParser(),
		resolvers: DefaultResolvers(),
	}
}

// Candidates fetches the feed behind input and returns up to limit items,
// newest first. input may be a feed URL or a site a resolver knows. Items
// whose link is already among known stories are left out.
func (im *Importer) Candidates(ctx context.Context, input string, known []models.Story, limit int) ([]Candidate, error) {
	src := im.resolvers.Resolve(input)
	body, err := im.fetcher.Fetch(ctx, src.FeedURL)
	if err != nil {
		return nil, err
	}
	all, skipped, err := im.parser.Parse(body)
	if err != nil {
		return nil, err
	}

	posted := make(map[string]struct{}, len(known))
	for _, s := range known {
		posted[s.URL] = struct{}{}
	}

	fresh := make([]Candidate, 0, len(all))
	for _, c := range all {
		if _, dup := posted[c.Draft.URL]; dup {
			skipped++
			continue
		}
		posted[c.Draft.URL] = struct{}{}
		if c.Draft.Author == "" {
			c.Draft.Author = src.Author
		}
		fresh = append(fresh, c)
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return newer(fresh[i].Published, fresh[j].Published)
	})
	if limit > 0 && len(fresh) > limit {
		fresh = fresh[:limit]
	}

	debuglog.WithFields(map[string]any{
		"feed":     src.FeedURL,
		"items":    len(all),
		"skipped":  skipped,
		"selected": len(fresh),
	}).Infof("feed import candidates")
	return fresh, nil
}

// newer orders undated items after dated ones.
func newer(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return !a.IsZero() && b.IsZero()
	}
	return a.After(b)
}
