package expansion

import (
	"math"

	"github.com/hyperjump/hirogeru/internal/models"
)

// BM25 tuning constants, standard Robertson et al. values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75

	// bm25DocLength is a placeholder for both the per-document and average
	// document length. Until true lengths are threaded through
	// RelevantDocument, the length-normalization term is a constant.
	// TODO: carry real token counts on RelevantDocument and use them here.
	bm25DocLength = 1000.0
)

// RelevantDocument is one pseudo-relevant window document: an opaque ID, a
// relevance weight in [0,1], and its tokenized term list. Built fresh on
// every expansion call; never persisted.
type RelevantDocument struct {
	ID        string
	Relevance float64
	Tokens    []string
}

// TermStatistics accumulates per-term aggregates across the document window
// during a single expansion call.
type TermStatistics struct {
	Term string
	// TF is the relevance-weighted aggregate term frequency.
	TF float64
	// DF is the corpus document frequency.
	DF int
	// IDF is the smoothed inverse document frequency.
	IDF float64
	// TFIDF is the relevance-weighted aggregate TF-IDF.
	TFIDF float64
}

// Extractor computes candidate expansion terms from a query and a ranked
// window of pseudo-relevant documents, using corpus statistics for IDF.
type Extractor struct {
	config Config
}

// NewExtractor creates an Extractor with the given config.
func NewExtractor(config Config) *Extractor {
	return &Extractor{config: config}
}

// Extract returns the unsorted candidate set for the given query terms and
// document window. Query terms never become candidates. The per-document
// MinTermFrequency floor is applied before cross-document aggregation: a term
// below the floor in one document contributes nothing from that document,
// even if its aggregate count across the window would clear the floor.
func (e *Extractor) Extract(queryTerms map[string]bool, docs []RelevantDocument, corpus *CorpusIndex) []models.ExpansionTerm {
	if len(docs) == 0 {
		return nil
	}

	stats := make(map[string]*TermStatistics)
	for _, doc := range docs {
		for term, tf := range termFrequencies(doc.Tokens) {
			if queryTerms[term] {
				continue
			}
			if tf < e.config.MinTermFrequency {
				continue
			}
			df := corpus.DocumentFrequency(term)
			if corpus.Size > 0 && float64(df)/float64(corpus.Size) > e.config.MaxTermFrequency {
				continue
			}
			st, ok := stats[term]
			if !ok {
				st = &TermStatistics{
					Term: term,
					DF:   df,
					IDF:  corpus.IDF(term),
				}
				stats[term] = st
			}
			st.TF += float64(tf) * doc.Relevance
			st.TFIDF += float64(tf) * st.IDF * doc.Relevance
		}
	}
	if len(stats) == 0 {
		return nil
	}

	// Provenance is a membership check over the window, not the filtered
	// accumulation above: a document below the frequency floor still counts
	// as a source if it contains the term at all.
	docSets := make([]map[string]bool, len(docs))
	for i, doc := range docs {
		set := make(map[string]bool, len(doc.Tokens))
		for _, tok := range doc.Tokens {
			set[tok] = true
		}
		docSets[i] = set
	}

	candidates := make([]models.ExpansionTerm, 0, len(stats))
	for term, st := range stats {
		var sources []string
		for i, set := range docSets {
			if set[term] {
				sources = append(sources, docs[i].ID)
			}
		}
		candidates = append(candidates, models.ExpansionTerm{
			Term:              term,
			Relevance:         st.TFIDF / (1 + st.TFIDF),
			Frequency:         int(math.Round(st.TF)),
			IDF:               st.IDF,
			Weight:            e.weight(st, len(docs)),
			SourceMaterialIDs: sources,
		})
	}
	return candidates
}

// weight computes the composite ranking score for a term according to the
// configured weighting method.
func (e *Extractor) weight(st *TermStatistics, windowSize int) float64 {
	switch e.config.TermWeighting {
	case WeightingBM25:
		// Simplified BM25 over the aggregate TF. With the placeholder
		// lengths, docLen/avgLen collapses to 1 and the normalization
		// term is constant.
		norm := bm25K1 * (1 - bm25B + bm25B*(bm25DocLength/bm25DocLength))
		return st.IDF * (st.TF * (bm25K1 + 1)) / (st.TF + norm)
	case WeightingQueryBiased:
		// Boost terms recurring across multiple documents over terms
		// concentrated in one.
		spread := math.Min(st.TF, float64(windowSize)) / float64(windowSize)
		return st.TFIDF * spread
	default:
		return st.TFIDF
	}
}
