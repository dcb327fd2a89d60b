package models

import (
	"fmt"
	"time"
)

// ExpansionTerm is a single term appended to the expanded query. Field names
// are stable; results are serialized as-is for logging and telemetry.
type ExpansionTerm struct {
	Term string `json:"term"`
	// Relevance is the normalized TF-IDF score in [0,1): tfidf/(1+tfidf).
	Relevance float64 `json:"relevance"`
	// Frequency is the rounded relevance-weighted aggregate term frequency.
	Frequency int `json:"frequency"`
	// IDF is the smoothed inverse document frequency of the term.
	IDF float64 `json:"idf"`
	// Weight is the composite score used for ranking and MMR selection.
	Weight float64 `json:"weight"`
	// SourceMaterialIDs lists which window documents contributed the term.
	SourceMaterialIDs []string `json:"source_material_ids"`
}

// ExpansionMetrics captures observational data about a single expansion call.
// It never affects downstream computation.
type ExpansionMetrics struct {
	ExpansionTimeMs    int64   `json:"expansion_time_ms"`
	CandidateTermCount int     `json:"candidate_term_count"`
	TermsAdded         int     `json:"terms_added"`
	AvgTermWeight      float64 `json:"avg_term_weight"`
	AvgTermRelevance   float64 `json:"avg_term_relevance"`
}

// QueryExpansionResult is the outcome of one expansion call. Immutable once
// constructed; ExpandedQuery feeds back into the retrieval boundary.
type QueryExpansionResult struct {
	OriginalQuery string `json:"original_query"`
	ExpandedQuery string `json:"expanded_query"`
	// ExpansionTerms is ordered by selection (highest combined score first).
	ExpansionTerms []ExpansionTerm  `json:"expansion_terms"`
	DocumentsUsed  int              `json:"documents_used"`
	Algorithm      string           `json:"algorithm"`
	Timestamp      time.Time        `json:"timestamp"`
	Metrics        ExpansionMetrics `json:"metrics"`
}

// ExpansionRequest is the HTTP request body for an expansion call.
type ExpansionRequest struct {
	Query string `json:"query"`
	// TopK overrides the configured window size when > 0.
	TopK int `json:"top_k,omitempty"`
	// Rerun requests a second-round retrieval with the expanded query.
	Rerun bool `json:"rerun,omitempty"`
	// RerunLimit caps second-round results; defaults to 10.
	RerunLimit int `json:"rerun_limit,omitempty"`
}

// Validate ensures the expansion request has valid fields and sets defaults.
func (r *ExpansionRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.TopK < 0 {
		return fmt.Errorf("top_k cannot be negative")
	}
	if r.RerunLimit <= 0 {
		r.RerunLimit = 10
	}
	if r.RerunLimit > 100 {
		r.RerunLimit = 100
	}
	return nil
}

// ExpansionResponse is the HTTP response for an expansion call, optionally
// carrying second-round retrieval results for the expanded query.
type ExpansionResponse struct {
	Result       *QueryExpansionResult `json:"result"`
	RerunResults []*RankedMaterial     `json:"rerun_results,omitempty"`
}
