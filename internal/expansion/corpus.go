package expansion

import (
	"math"
	"runtime"
	"sync"

	"github.com/hyperjump/hirogeru/internal/models"
)

// CorpusIndex holds corpus-level term statistics used for IDF weighting.
// It is immutable after construction: build a new index with BuildCorpusIndex
// and swap it in wholesale rather than mutating in place.
type CorpusIndex struct {
	// Size is the number of documents the index was built from.
	Size int
	// DocFrequencies maps a term to the number of documents containing it.
	DocFrequencies map[string]int
}

// NewCorpusIndex returns an empty index (corpus size 0). Expansion against an
// empty index degrades gracefully: IDF values are <= 0 and suppress candidates.
func NewCorpusIndex() *CorpusIndex {
	return &CorpusIndex{DocFrequencies: make(map[string]int)}
}

// BuildCorpusIndex tokenizes every material, deduplicates terms per document,
// and counts each unique term once per document. Per-document counting runs on
// a bounded worker pool; document contributions are independent and the
// frequency merge commutes.
func BuildCorpusIndex(materials []*models.Material) *CorpusIndex {
	index := &CorpusIndex{
		Size:           len(materials),
		DocFrequencies: make(map[string]int),
	}
	if len(materials) == 0 {
		return index
	}

	workers := runtime.NumCPU()
	if workers > len(materials) {
		workers = len(materials)
	}

	jobs := make(chan *models.Material, len(materials))
	sets := make(chan map[string]bool, len(materials))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				sets <- TokenSet(m.Title + " " + m.Content)
			}
		}()
	}

	for _, m := range materials {
		jobs <- m
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(sets)
	}()

	for set := range sets {
		for term := range set {
			index.DocFrequencies[term]++
		}
	}
	return index
}

// DocumentFrequency returns the number of documents containing term, or 0.
func (c *CorpusIndex) DocumentFrequency(term string) int {
	return c.DocFrequencies[term]
}

// IDF returns the smoothed inverse document frequency for term:
// ln((Size+1)/(df+1)). Well-defined for any df, including an uninitialized
// corpus (Size=0), where the result is <= 0 and naturally suppresses expansion.
func (c *CorpusIndex) IDF(term string) float64 {
	df := c.DocFrequencies[term]
	return math.Log(float64(c.Size+1) / float64(df+1))
}

// UniqueTerms returns the number of distinct terms in the index.
func (c *CorpusIndex) UniqueTerms() int {
	return len(c.DocFrequencies)
}
