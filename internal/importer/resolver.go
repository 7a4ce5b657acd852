package importer

import (
	"net/url"
	"strings"
)

// Source is a feed location resolved from whatever the user typed.
type Source struct {
	Input   string
	FeedURL string
	// Author is used for items that name nobody.
	Author string
}

// Resolver maps site URLs it recognizes to their feed.
type Resolver interface {
	Name() string
	CanHandle(u *url.URL) bool
	Resolve(u *url.URL) Source
	// Priority breaks ties when several resolvers match; higher wins.
	Priority() int
}

type Resolvers struct {
	resolvers []Resolver
}

// DefaultResolvers knows reddit and Hacker News.
func DefaultResolvers() *Resolvers {
	r := &Resolvers{}
	r.Register(redditResolver{})
	r.Register(hackerNewsResolver{})
	return r
}

func (r *Resolvers) Register(res Resolver) {
	r.resolvers = append(r.resolvers, res)
}

// Resolve returns the best match for raw, or raw itself as the feed URL.
func (r *Resolvers) Resolve(raw string) Source {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Source{Input: raw, FeedURL: raw}
	}

	var best Resolver
	for _, res := range r.resolvers {
		if res.CanHandle(u) && (best == nil || res.Priority() > best.Priority()) {
			best = res
		}
	}
	if best == nil {
		return Source{Input: raw, FeedURL: raw}
	}
	src := best.Resolve(u)
	src.Input = raw
	return src
}

type redditResolver struct{}

func (redditResolver) Name() string  { return "reddit" }
func (redditResolver) Priority() int { return 50 }

func (redditResolver) CanHandle(u *url.URL) bool {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return (host == "reddit.com" || host == "old.reddit.com") &&
		strings.HasPrefix(u.Path, "/r/") && !strings.HasSuffix(u.Path, ".rss")
}

func (redditResolver) Resolve(u *url.URL) Source {
	path := strings.TrimSuffix(u.Path, "/")
	sub := strings.SplitN(strings.TrimPrefix(path, "/r/"), "/", 2)[0]
	return Source{
		FeedURL: "https://www.reddit.com" + path + ".rss",
		Author:  "r/" + sub,
	}
}

type hackerNewsResolver struct{}

func (hackerNewsResolver) Name() string  { return "hackernews" }
func (hackerNewsResolver) Priority() int { return 50 }

func (hackerNewsResolver) CanHandle(u *url.URL) bool {
	return strings.EqualFold(u.Hostname(), "news.ycombinator.com")
}

func (hackerNewsResolver) Resolve(u *url.URL) Source {
	feed := "https://news.ycombinator.com/rss"
	if strings.TrimSuffix(u.Path, "/") == "/newest" {
		feed = "https://hnrss.org/newest"
	}
	return Source{FeedURL: feed, Author: "Hacker News"}
}
