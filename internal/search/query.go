package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 50

// Hit is one matching image.
type Hit struct {
	ImageID int64   `json:"image_id"`
	Score   float64 `json:"score"`
}

// Search matches q against titles and tags, best match first.
// A blank query returns no hits.
func (s *Index) Search(ctx context.Context, q string, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with bad id", "id", h.ID)
			continue
		}
		hits = append(hits, Hit{ImageID: id, Score: h.Score})
	}
	return hits, nil
}

// buildQuery ORs a boosted title match, a tag-name match, an exact slug
// match and a title prefix match for type-ahead.
func buildQuery(q string) query.Query {
	title := bleve.NewMatchQuery(q)
	title.SetField("title")
	title.SetBoost(2)

	tags := bleve.NewMatchQuery(q)
	tags.SetField("tags")

	slug := bleve.NewTermQuery(strings.ToLower(q))
	slug.SetField("tag_slugs")

	prefix := bleve.NewPrefixQuery(strings.ToLower(q))
	prefix.SetField("title")

	return bleve.NewDisjunctionQuery(title, tags, slug, prefix)
}
