package expansion

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "lambda above one",
			mutate:  func(c *Config) { c.MMRLambda = 1.5 },
			wantErr: "mmr_lambda",
		},
		{
			name:    "lambda negative",
			mutate:  func(c *Config) { c.MMRLambda = -0.1 },
			wantErr: "mmr_lambda",
		},
		{
			name:    "negative top k",
			mutate:  func(c *Config) { c.TopK = -1 },
			wantErr: "top_k",
		},
		{
			name:    "negative expansion terms",
			mutate:  func(c *Config) { c.ExpansionTerms = -3 },
			wantErr: "expansion_terms",
		},
		{
			name:    "negative min term frequency",
			mutate:  func(c *Config) { c.MinTermFrequency = -1 },
			wantErr: "min_term_frequency",
		},
		{
			name:    "max term frequency above one",
			mutate:  func(c *Config) { c.MaxTermFrequency = 1.2 },
			wantErr: "max_term_frequency",
		},
		{
			name:    "unknown algorithm",
			mutate:  func(c *Config) { c.Algorithm = "pagerank" },
			wantErr: "algorithm",
		},
		{
			name:    "unknown weighting",
			mutate:  func(c *Config) { c.TermWeighting = "tf" },
			wantErr: "term weighting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateAcceptsBoundaryLambda(t *testing.T) {
	for _, lambda := range []float64{0, 0.5, 1} {
		cfg := DefaultConfig()
		cfg.MMRLambda = lambda
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with lambda %v = %v, want nil", lambda, err)
		}
	}
}

func TestConfigValidateAcceptsZeroBudgets(t *testing.T) {
	// topK=0 and expansionTerms=0 are legal degenerate settings.
	cfg := DefaultConfig()
	cfg.TopK = 0
	cfg.ExpansionTerms = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with zero budgets = %v, want nil", err)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	defaults := DefaultConfig()
	if cfg.Algorithm != defaults.Algorithm {
		t.Errorf("Algorithm = %q, want %q", cfg.Algorithm, defaults.Algorithm)
	}
	if cfg.TermWeighting != defaults.TermWeighting {
		t.Errorf("TermWeighting = %q, want %q", cfg.TermWeighting, defaults.TermWeighting)
	}
	if cfg.TopK != defaults.TopK || cfg.ExpansionTerms != defaults.ExpansionTerms {
		t.Errorf("budgets = %d/%d, want %d/%d", cfg.TopK, cfg.ExpansionTerms, defaults.TopK, defaults.ExpansionTerms)
	}
	if cfg.MaxTermFrequency != defaults.MaxTermFrequency {
		t.Errorf("MaxTermFrequency = %v, want %v", cfg.MaxTermFrequency, defaults.MaxTermFrequency)
	}
}

func TestConfigApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Algorithm:        AlgorithmQueryBiased,
		TermWeighting:    WeightingBM25,
		TopK:             3,
		ExpansionTerms:   7,
		MMRLambda:        0.4,
		MinTermFrequency: 1,
		MaxTermFrequency: 0.9,
	}
	cfg.ApplyDefaults()

	if cfg.TopK != 3 || cfg.ExpansionTerms != 7 {
		t.Errorf("budgets changed: %d/%d", cfg.TopK, cfg.ExpansionTerms)
	}
	if cfg.MMRLambda != 0.4 {
		t.Errorf("MMRLambda = %v, want 0.4", cfg.MMRLambda)
	}
	if cfg.TermWeighting != WeightingBM25 {
		t.Errorf("TermWeighting = %q, want bm25", cfg.TermWeighting)
	}
}
