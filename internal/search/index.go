package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/snooze/internal/debuglog"
	"github.com/pders01/snooze/internal/models"
)

// Index is a bleve full-text index of stories keyed by story id.
type Index struct {
	idx bleve.Index
}

var (
	_ Searcher = (*Index)(nil)
	_ Indexer  = (*Index)(nil)
)

// Open opens or creates the index at path. An empty path keeps the index
// in memory only.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating in-memory index: %w", err)
		}
		return &Index{idx: idx}, nil
	}

	idx, err := bleve.Open(path)
	if err == nil {
		return &Index{idx: idx}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	idx, err = bleve.New(path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index at %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = true

	host := bleve.NewTextFieldMapping()
	host.Analyzer = standard.Name
	host.Store = false

	url := bleve.NewTextFieldMapping()
	url.Analyzer = standard.Name
	url.Store = true

	username := bleve.NewTextFieldMapping()
	username.Analyzer = keyword.Name
	username.Store = true

	// kept only to rebuild the story from a hit
	created := bleve.NewTextFieldMapping()
	created.Index = false
	created.Store = true
	created.IncludeInAll = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("author", author)
	dm.AddFieldMappingsAt("hostname", host)
	dm.AddFieldMappingsAt("url", url)
	dm.AddFieldMappingsAt("username", username)
	dm.AddFieldMappingsAt("created_at", created)

	im.DefaultMapping = dm
	return im
}

func document(s models.Story) map[string]any {
	host, _ := s.Hostname()
	doc := map[string]any{
		"title":    s.Title,
		"author":   s.Author,
		"hostname": host,
		"url":      s.URL,
		"username": s.Username,
	}
	if !s.CreatedAt.IsZero() {
		doc["created_at"] = s.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return doc
}

// Reindex makes the index hold exactly stories.
func (x *Index) Reindex(stories []models.Story) error {
	existing, err := x.ids()
	if err != nil {
		return err
	}

	keep := make(map[string]struct{}, len(stories))
	batch := x.idx.NewBatch()
	for _, s := range stories {
		if s.StoryID == "" {
			continue
		}
		keep[s.StoryID] = struct{}{}
		if err := batch.Index(s.StoryID, document(s)); err != nil {
			return fmt.Errorf("indexing story %s: %w", s.StoryID, err)
		}
	}
	for _, id := range existing {
		if _, ok := keep[id]; !ok {
			batch.Delete(id)
		}
	}

	if err := x.idx.Batch(batch); err != nil {
		return fmt.Errorf("applying index batch: %w", err)
	}
	debuglog.WithFields(map[string]any{"indexed": len(keep), "total": len(existing)}).Debugf("search index rebuilt")
	return nil
}

// Add indexes or replaces stories without touching the rest.
func (x *Index) Add(stories ...models.Story) error {
	batch := x.idx.NewBatch()
	for _, s := range stories {
		if err := batch.Index(s.StoryID, document(s)); err != nil {
			return err
		}
	}
	return x.idx.Batch(batch)
}

func (x *Index) Remove(storyID string) error {
	return x.idx.Delete(storyID)
}

func (x *Index) ids() ([]string, error) {
	count, err := x.idx.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := x.idx.Search(req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// DocCount reports how many stories are indexed.
func (x *Index) DocCount() (int, error) {
	n, err := x.idx.DocCount()
	return int(n), err
}

type boostedField struct {
	name        string
	match       float64
	prefix      float64
	allowPrefix bool
}

var searchFields = []boostedField{
	{name: "title", match: 4.0, prefix: 3.5, allowPrefix: true},
	{name: "author", match: 2.0, prefix: 1.8, allowPrefix: true},
	{name: "hostname", match: 1.5, prefix: 1.2, allowPrefix: true},
	{name: "url", match: 0.5},
}

func (x *Index) Search(query string, limit int) ([]Result, error) {
	if len(strings.TrimSpace(query)) < MinQueryLength {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range searchFields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.match)
			qs = append(qs, mq)
			if f.allowPrefix {
				pq := bleve.NewPrefixQuery(tok)
				pq.SetField(f.name)
				pq.SetBoost(f.prefix)
				qs = append(qs, pq)
			}
		}
		uq := bleve.NewTermQuery(tok)
		uq.SetField("username")
		uq.SetBoost(1.0)
		qs = append(qs, uq)
	}
	if len(qs) == 0 {
		return []Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "author", "url", "username", "created_at"}
	req.IncludeLocations = true

	res, err := x.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	out := make([]Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		story := models.Story{StoryID: h.ID}
		story.Title, _ = h.Fields["title"].(string)
		story.Author, _ = h.Fields["author"].(string)
		story.URL, _ = h.Fields["url"].(string)
		story.Username, _ = h.Fields["username"].(string)
		if raw, ok := h.Fields["created_at"].(string); ok {
			story.CreatedAt, _ = time.Parse(time.RFC3339Nano, raw)
		}

		var matched []string
		for field := range h.Locations {
			matched = append(matched, field)
		}
		out = append(out, Result{Story: story, Score: h.Score, Matches: sortedFields(matched)})
	}
	return out, nil
}

func (x *Index) Close() error {
	return x.idx.Close()
}
