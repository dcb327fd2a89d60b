// Package retrieval provides the first-pass retriever that sources the
// pseudo-relevant document window for query expansion. The expansion engine
// itself never retrieves; it trusts the ranking produced here.
package retrieval

import (
	"context"

	"github.com/hyperjump/hirogeru/internal/models"
)

// Result is one ranked retrieval hit.
type Result struct {
	MaterialID string
	Score      float64
}

// Retriever indexes materials and returns ranked matches for a query.
type Retriever interface {
	Index(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Count() (uint64, error)
	Close() error
}

// NormalizeScores maps raw retrieval scores to (0,1] by dividing by the max.
// Expansion uses these as document relevance weights; raw scores from the
// index are unbounded.
func NormalizeScores(results []*Result) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	if len(results) == 0 {
		return normalized
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.MaterialID] = r.Score / maxScore
		} else {
			normalized[r.MaterialID] = 0
		}
	}
	return normalized
}
