package expansion

import (
	"math"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinTermFrequency = 1
	return cfg
}

func docOf(id string, relevance float64, text string) RelevantDocument {
	return RelevantDocument{ID: id, Relevance: relevance, Tokens: Tokenize(text)}
}

func TestExtractorExcludesQueryTerms(t *testing.T) {
	extractor := NewExtractor(testConfig())
	corpus := BuildCorpusIndex(materialsFromContents(
		"quicksort partition pivot",
		"sorting arrays with comparisons",
	))

	docs := []RelevantDocument{
		docOf("d1", 1.0, "quicksort quicksort partition partition pivot"),
	}
	queryTerms := TokenSet("what is quicksort")

	candidates := extractor.Extract(queryTerms, docs, corpus)
	for _, c := range candidates {
		if queryTerms[c.Term] {
			t.Errorf("query term %q leaked into candidates", c.Term)
		}
	}
	if len(candidates) == 0 {
		t.Fatal("expected non-query candidates, got none")
	}
}

func TestExtractorMinTermFrequencyFloor(t *testing.T) {
	cfg := testConfig()
	cfg.MinTermFrequency = 2
	extractor := NewExtractor(cfg)
	corpus := BuildCorpusIndex(materialsFromContents(
		"partition pivot sorting",
		"unrelated lecture notes",
		"further lecture notes",
	))

	docs := []RelevantDocument{
		docOf("d1", 1.0, "partition partition pivot"),
	}
	candidates := extractor.Extract(TokenSet("unrelated query"), docs, corpus)

	var gotPartition, gotPivot bool
	for _, c := range candidates {
		switch c.Term {
		case "partition":
			gotPartition = true
		case "pivot":
			gotPivot = true
		}
	}
	if !gotPartition {
		t.Error("partition (tf 2) should clear the floor")
	}
	if gotPivot {
		t.Error("pivot (tf 1) should be filtered by the per-document floor")
	}
}

func TestExtractorFloorAppliedPerDocument(t *testing.T) {
	// tf 1 in each of two documents does not aggregate past a floor of 2.
	cfg := testConfig()
	cfg.MinTermFrequency = 2
	extractor := NewExtractor(cfg)
	corpus := BuildCorpusIndex(materialsFromContents("pivot here", "pivot there", "other text"))

	docs := []RelevantDocument{
		docOf("d1", 1.0, "pivot filler filler"),
		docOf("d2", 0.5, "pivot filler filler"),
	}
	candidates := extractor.Extract(TokenSet("query"), docs, corpus)
	for _, c := range candidates {
		if c.Term == "pivot" {
			t.Error("pivot below the per-document floor in every document; must not aggregate into a candidate")
		}
	}
}

func TestExtractorStopWordSuppression(t *testing.T) {
	// "algorithm" in 9 of 10 corpus docs: ratio 0.9 > default cap 0.5.
	contents := make([]string, 10)
	for i := range contents {
		contents[i] = "lecture notes"
		if i < 9 {
			contents[i] += " algorithm"
		}
	}
	corpus := BuildCorpusIndex(materialsFromContents(contents...))

	extractor := NewExtractor(testConfig())
	docs := []RelevantDocument{
		docOf("d1", 1.0, "algorithm algorithm algorithm partition"),
	}
	candidates := extractor.Extract(TokenSet("query"), docs, corpus)
	for _, c := range candidates {
		if c.Term == "algorithm" {
			t.Error("high-DF term must be suppressed regardless of weight")
		}
	}
}

func TestExtractorEmptyCorpusNoStopWordFilter(t *testing.T) {
	// With corpusSize 0 the DF ratio is treated as 0, so nothing is filtered
	// by the stop-word cap.
	extractor := NewExtractor(testConfig())
	candidates := extractor.Extract(TokenSet("query"), []RelevantDocument{
		docOf("d1", 1.0, "partition pivot sorting"),
	}, NewCorpusIndex())

	if len(candidates) != 3 {
		t.Errorf("expected 3 candidates on empty corpus, got %d", len(candidates))
	}
}

func TestExtractorEmptyWindow(t *testing.T) {
	extractor := NewExtractor(testConfig())
	corpus := BuildCorpusIndex(materialsFromContents("some corpus text"))
	if got := extractor.Extract(TokenSet("query"), nil, corpus); got != nil {
		t.Errorf("empty window should yield nil candidates, got %v", got)
	}
}

func TestExtractorEmptyQueryDoesNotShortCircuit(t *testing.T) {
	extractor := NewExtractor(testConfig())
	corpus := BuildCorpusIndex(materialsFromContents(
		"partition pivot",
		"other notes",
		"more notes",
	))
	candidates := extractor.Extract(TokenSet(""), []RelevantDocument{
		docOf("d1", 1.0, "partition pivot"),
	}, corpus)
	if len(candidates) != 2 {
		t.Errorf("expected every document term as candidate, got %d", len(candidates))
	}
}

func TestExtractorRelevanceWeightedAggregation(t *testing.T) {
	extractor := NewExtractor(testConfig())
	corpus := BuildCorpusIndex(materialsFromContents("partition text", "filler text", "more filler"))

	// partition: tf 2 at relevance 1.0 plus tf 2 at relevance 0.5 -> 3.0.
	docs := []RelevantDocument{
		docOf("d1", 1.0, "partition partition"),
		docOf("d2", 0.5, "partition partition"),
	}
	candidates := extractor.Extract(TokenSet("query"), docs, corpus)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.Frequency != 3 {
		t.Errorf("Frequency = %d, want 3 (relevance-weighted, rounded)", c.Frequency)
	}

	idf := corpus.IDF("partition")
	wantWeight := 3.0 * idf
	if math.Abs(c.Weight-wantWeight) > 1e-9 {
		t.Errorf("Weight = %v, want %v", c.Weight, wantWeight)
	}
	wantRelevance := wantWeight / (1 + wantWeight)
	if math.Abs(c.Relevance-wantRelevance) > 1e-9 {
		t.Errorf("Relevance = %v, want %v", c.Relevance, wantRelevance)
	}
}

func TestExtractorSourceMaterialIDs(t *testing.T) {
	cfg := testConfig()
	cfg.MinTermFrequency = 2
	extractor := NewExtractor(cfg)
	corpus := BuildCorpusIndex(materialsFromContents("pivot once", "second doc", "third doc"))

	// d2 contains pivot only once (below the floor) but still counts as a
	// source: provenance is a membership check.
	docs := []RelevantDocument{
		docOf("d1", 1.0, "pivot pivot partition"),
		docOf("d2", 0.5, "pivot filler filler"),
		docOf("d3", 0.25, "unrelated terms"),
	}
	candidates := extractor.Extract(TokenSet("query"), docs, corpus)

	for _, c := range candidates {
		if c.Term != "pivot" {
			continue
		}
		if len(c.SourceMaterialIDs) != 2 {
			t.Fatalf("SourceMaterialIDs = %v, want [d1 d2]", c.SourceMaterialIDs)
		}
		if c.SourceMaterialIDs[0] != "d1" || c.SourceMaterialIDs[1] != "d2" {
			t.Errorf("SourceMaterialIDs = %v, want [d1 d2]", c.SourceMaterialIDs)
		}
		return
	}
	t.Fatal("pivot candidate not found")
}

func TestExtractorQueryBiasedWeighting(t *testing.T) {
	cfg := testConfig()
	cfg.TermWeighting = WeightingQueryBiased
	extractor := NewExtractor(cfg)
	corpus := BuildCorpusIndex(materialsFromContents("spread term", "other again", "dense stuff"))

	// "spread" recurs across both documents; "dense" is concentrated in one
	// with the same aggregate weighted tf.
	docs := []RelevantDocument{
		docOf("d1", 1.0, "spread dense dense"),
		docOf("d2", 1.0, "spread filler filler"),
	}
	candidates := extractor.Extract(TokenSet("query"), docs, corpus)

	weights := make(map[string]float64)
	idfs := make(map[string]float64)
	for _, c := range candidates {
		weights[c.Term] = c.Weight
		idfs[c.Term] = c.IDF
	}

	// spread: tf 2, spread factor min(2,2)/2 = 1 -> weight = 2*idf.
	wantSpread := 2 * idfs["spread"] * 1.0
	if math.Abs(weights["spread"]-wantSpread) > 1e-9 {
		t.Errorf("spread weight = %v, want %v", weights["spread"], wantSpread)
	}
	// dense: tf 2, same spread factor 1 under this formula; verify exact value.
	wantDense := 2 * idfs["dense"] * math.Min(2, 2) / 2
	if math.Abs(weights["dense"]-wantDense) > 1e-9 {
		t.Errorf("dense weight = %v, want %v", weights["dense"], wantDense)
	}
}

func TestExtractorBM25Weighting(t *testing.T) {
	cfg := testConfig()
	cfg.TermWeighting = WeightingBM25
	extractor := NewExtractor(cfg)
	corpus := BuildCorpusIndex(materialsFromContents("saturating term study", "other notes", "more notes"))

	docs := []RelevantDocument{
		docOf("d1", 1.0, "saturating saturating saturating saturating"),
	}
	candidates := extractor.Extract(TokenSet("query"), docs, corpus)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]

	idf := corpus.IDF("saturating")
	tf := 4.0
	want := idf * (tf * (bm25K1 + 1)) / (tf + bm25K1)
	if math.Abs(c.Weight-want) > 1e-9 {
		t.Errorf("BM25 weight = %v, want %v", c.Weight, want)
	}
	// Saturation: weight grows sublinearly in tf and stays below idf*(k1+1).
	if c.Weight >= idf*(bm25K1+1) {
		t.Errorf("BM25 weight %v should saturate below %v", c.Weight, idf*(bm25K1+1))
	}
}
