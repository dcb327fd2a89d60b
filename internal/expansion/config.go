package expansion

import "fmt"

// Algorithm labels the expansion algorithm family. It is carried through to
// results for telemetry; scoring itself is driven by TermWeighting.
type Algorithm string

const (
	// AlgorithmRocchio labels Rocchio-style expansion.
	AlgorithmRocchio Algorithm = "rocchio"
	// AlgorithmRelevanceModel labels relevance-model expansion.
	AlgorithmRelevanceModel Algorithm = "relevance_model"
	// AlgorithmQueryBiased labels query-biased TF-IDF expansion.
	AlgorithmQueryBiased Algorithm = "query_biased_tfidf"
)

// TermWeighting selects the composite weight formula for candidate terms.
type TermWeighting string

const (
	// WeightingTFIDF weights terms by relevance-weighted TF-IDF.
	WeightingTFIDF TermWeighting = "tfidf"
	// WeightingBM25 weights terms with a simplified BM25 (k1=1.2, b=0.75).
	WeightingBM25 TermWeighting = "bm25"
	// WeightingQueryBiased boosts terms recurring across multiple documents.
	WeightingQueryBiased TermWeighting = "query_biased"
)

// Config holds all tuning parameters for query expansion.
type Config struct {
	// Algorithm is a label only; control flow is driven by TermWeighting.
	Algorithm     Algorithm     `yaml:"algorithm" json:"algorithm"`
	TermWeighting TermWeighting `yaml:"term_weighting" json:"term_weighting"`

	// TopK caps how many of the supplied pseudo-relevant documents are used.
	TopK int `yaml:"top_k" json:"top_k"`
	// ExpansionTerms caps how many terms are appended to the query.
	ExpansionTerms int `yaml:"expansion_terms" json:"expansion_terms"`

	// Rocchio-style blend weights, reserved for a vector-space variant.
	OriginalQueryWeight float64 `yaml:"original_query_weight" json:"original_query_weight"`
	RelevantDocsWeight  float64 `yaml:"relevant_docs_weight" json:"relevant_docs_weight"`

	// MMRLambda balances relevance against diversity in term selection:
	// 1 = pure relevance, 0 = pure diversity.
	MMRLambda float64 `yaml:"mmr_lambda" json:"mmr_lambda"`

	// MinTermFrequency is the per-document term count floor.
	MinTermFrequency int `yaml:"min_term_frequency" json:"min_term_frequency"`
	// MaxTermFrequency is the document-frequency ratio ceiling (stop-word cap).
	MaxTermFrequency float64 `yaml:"max_term_frequency" json:"max_term_frequency"`

	// EnableStemming is reserved; the tokenizer does not stem.
	EnableStemming bool `yaml:"enable_stemming" json:"enable_stemming"`
}

// DefaultConfig returns the default expansion configuration.
func DefaultConfig() Config {
	return Config{
		Algorithm:           AlgorithmRocchio,
		TermWeighting:       WeightingTFIDF,
		TopK:                5,
		ExpansionTerms:      5,
		OriginalQueryWeight: 1.0,
		RelevantDocsWeight:  0.75,
		MMRLambda:           0.7,
		MinTermFrequency:    2,
		MaxTermFrequency:    0.5,
	}
}

// ApplyDefaults fills in zero values with defaults. Boolean and
// explicitly-zero numeric fields (TopK=0, ExpansionTerms=0) are meaningful
// and therefore not defaulted here; they are only defaulted when the whole
// struct is zero.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Algorithm == "" {
		c.Algorithm = defaults.Algorithm
	}
	if c.TermWeighting == "" {
		c.TermWeighting = defaults.TermWeighting
	}
	if c.TopK == 0 && c.ExpansionTerms == 0 && c.MMRLambda == 0 {
		c.TopK = defaults.TopK
		c.ExpansionTerms = defaults.ExpansionTerms
		c.MMRLambda = defaults.MMRLambda
	}
	if c.OriginalQueryWeight == 0 {
		c.OriginalQueryWeight = defaults.OriginalQueryWeight
	}
	if c.RelevantDocsWeight == 0 {
		c.RelevantDocsWeight = defaults.RelevantDocsWeight
	}
	if c.MinTermFrequency == 0 {
		c.MinTermFrequency = defaults.MinTermFrequency
	}
	if c.MaxTermFrequency == 0 {
		c.MaxTermFrequency = defaults.MaxTermFrequency
	}
}

// Validate checks configuration invariants and fails fast on caller bugs
// instead of silently clamping.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmRocchio, AlgorithmRelevanceModel, AlgorithmQueryBiased:
	default:
		return fmt.Errorf("invalid expansion config: unknown algorithm %q", c.Algorithm)
	}
	switch c.TermWeighting {
	case WeightingTFIDF, WeightingBM25, WeightingQueryBiased:
	default:
		return fmt.Errorf("invalid expansion config: unknown term weighting %q", c.TermWeighting)
	}
	if c.MMRLambda < 0 || c.MMRLambda > 1 {
		return fmt.Errorf("invalid expansion config: mmr_lambda %v outside [0,1]", c.MMRLambda)
	}
	if c.TopK < 0 {
		return fmt.Errorf("invalid expansion config: top_k %d is negative", c.TopK)
	}
	if c.ExpansionTerms < 0 {
		return fmt.Errorf("invalid expansion config: expansion_terms %d is negative", c.ExpansionTerms)
	}
	if c.MinTermFrequency < 0 {
		return fmt.Errorf("invalid expansion config: min_term_frequency %d is negative", c.MinTermFrequency)
	}
	if c.MaxTermFrequency <= 0 || c.MaxTermFrequency > 1 {
		return fmt.Errorf("invalid expansion config: max_term_frequency %v outside (0,1]", c.MaxTermFrequency)
	}
	return nil
}
