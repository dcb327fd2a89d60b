// Package expansion implements pseudo-relevance feedback (PRF) query
// expansion: given a query and a small window of top-ranked documents, it
// appends statistically significant terms drawn from those documents.
package expansion

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hirogeru/internal/models"
)

// CorpusStats is an introspection snapshot of the corpus index.
type CorpusStats struct {
	Size        int `json:"size"`
	UniqueTerms int `json:"unique_terms"`
}

// Expander is the query expansion façade. The corpus index is published
// through an atomic pointer so that InitializeCorpus (single writer) never
// exposes a partially built index to concurrent ExpandQuery readers.
type Expander struct {
	mu     sync.RWMutex
	config Config
	corpus atomic.Pointer[CorpusIndex]
	logger *zap.Logger
}

// NewExpander creates an Expander with the given config. The corpus starts
// uninitialized (size 0), which is legal and degrades to empty expansions.
// Returns an error if the config is invalid.
func NewExpander(config Config, logger *zap.Logger) (*Expander, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Expander{config: config, logger: logger}
	e.corpus.Store(NewCorpusIndex())
	return e, nil
}

// InitializeCorpus rebuilds the corpus statistics index from materials and
// atomically replaces the prior index. Not additive: the previous statistics
// are discarded. An empty collection yields a degenerate corpus.
func (e *Expander) InitializeCorpus(materials []*models.Material) {
	start := time.Now()
	index := BuildCorpusIndex(materials)
	e.corpus.Store(index)
	e.logger.Debug("corpus initialized",
		zap.Int("documents", index.Size),
		zap.Int("unique_terms", index.UniqueTerms()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// ExpandQuery expands query using the supplied ranked window of
// pseudo-relevant materials. The window is clamped to the configured TopK.
// Document relevance uses the retriever score when present, clamped to [0,1];
// otherwise a linear rank decay 1 - idx/|window|. Read-only with respect to
// corpus state; degenerate inputs yield the identity expansion, not an error.
func (e *Expander) ExpandQuery(query string, window []*models.RankedMaterial) *models.QueryExpansionResult {
	return e.ExpandQueryTopK(query, window, 0)
}

// ExpandQueryTopK is ExpandQuery with a per-call window cap. A topK <= 0
// falls back to the configured TopK.
func (e *Expander) ExpandQueryTopK(query string, window []*models.RankedMaterial, topK int) *models.QueryExpansionResult {
	start := time.Now()
	config := e.Config()
	corpus := e.corpus.Load()

	if topK <= 0 {
		topK = config.TopK
	}
	if len(window) > topK {
		window = window[:topK]
	}

	docs := make([]RelevantDocument, len(window))
	for i, rm := range window {
		docs[i] = RelevantDocument{
			ID:        rm.Material.ID,
			Relevance: documentRelevance(rm.Score, i, len(window)),
			Tokens:    Tokenize(rm.Material.Content),
		}
	}

	queryTerms := TokenSet(query)
	extractor := NewExtractor(config)
	candidates := extractor.Extract(queryTerms, docs, corpus)

	// Deterministic candidate order: weight descending, term ascending on
	// ties. Map iteration order inside extraction must not leak into output.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Weight != candidates[j].Weight {
			return candidates[i].Weight > candidates[j].Weight
		}
		return candidates[i].Term < candidates[j].Term
	})

	selected := SelectTerms(candidates, config.ExpansionTerms, config.MMRLambda)

	terms := make([]string, len(selected))
	for i, t := range selected {
		terms[i] = t.Term
	}
	expanded := strings.TrimSpace(query + " " + strings.Join(terms, " "))

	result := &models.QueryExpansionResult{
		OriginalQuery:  query,
		ExpandedQuery:  expanded,
		ExpansionTerms: selected,
		DocumentsUsed:  len(window),
		Algorithm:      string(config.Algorithm),
		Timestamp:      time.Now(),
		Metrics:        buildMetrics(start, len(candidates), selected),
	}
	if result.ExpansionTerms == nil {
		result.ExpansionTerms = []models.ExpansionTerm{}
	}

	e.logger.Debug("query expanded",
		zap.String("query", query),
		zap.Int("documents_used", result.DocumentsUsed),
		zap.Int("candidates", len(candidates)),
		zap.Int("terms_added", len(selected)),
	)
	return result
}

// Config returns a copy of the current configuration.
func (e *Expander) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// UpdateConfig validates and replaces the configuration. Takes effect on the
// next ExpandQuery call; in-flight calls keep the config they started with.
func (e *Expander) UpdateConfig(config Config) error {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.config = config
	e.mu.Unlock()
	return nil
}

// GetCorpusStats returns corpus size and unique term count.
func (e *Expander) GetCorpusStats() CorpusStats {
	corpus := e.corpus.Load()
	return CorpusStats{Size: corpus.Size, UniqueTerms: corpus.UniqueTerms()}
}

// documentRelevance derives a document's relevance weight. Retriever scores
// in (0,1] are used directly; anything else falls back to linear rank decay.
func documentRelevance(score float64, idx, windowSize int) float64 {
	if score > 0 && score <= 1 {
		return score
	}
	return 1 - float64(idx)/float64(windowSize)
}

// buildMetrics assembles the observational metrics for one expansion call.
func buildMetrics(start time.Time, candidateCount int, selected []models.ExpansionTerm) models.ExpansionMetrics {
	m := models.ExpansionMetrics{
		ExpansionTimeMs:    time.Since(start).Milliseconds(),
		CandidateTermCount: candidateCount,
		TermsAdded:         len(selected),
	}
	if len(selected) > 0 {
		var weightSum, relevanceSum float64
		for _, t := range selected {
			weightSum += t.Weight
			relevanceSum += t.Relevance
		}
		m.AvgTermWeight = weightSum / float64(len(selected))
		m.AvgTermRelevance = relevanceSum / float64(len(selected))
	}
	return m
}
