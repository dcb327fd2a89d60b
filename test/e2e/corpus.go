// Package e2e provides end-to-end tests with a generated corpus and multiple queries.
package e2e

import (
	"fmt"

	"github.com/hyperjump/hirogeru/internal/models"
)

// QueryCase defines a query and terms that are acceptable expansions for it.
// At least one of AcceptableTerms must appear among the expansion terms.
type QueryCase struct {
	Query           string
	AcceptableTerms []string
	Description     string
}

// Corpus holds materials and query cases for the e2e suite.
type Corpus struct {
	Materials []*models.Material
	Cases     []QueryCase
}

type topic struct {
	title     string
	signature string
	filler    string
}

var topics = []topic{
	{"Quicksort", "quicksort pivot partition recursion", "sorting arrays in place with average linearithmic cost"},
	{"Mergesort", "mergesort merging divide conquer", "stable sorting by splitting and combining sorted runs"},
	{"Hash Tables", "hashing buckets collision chaining", "constant time lookup structures for key value pairs"},
	{"Graph Traversal", "breadth depth traversal frontier", "visiting vertices and edges in systematic order"},
	{"Dynamic Programming", "memoization subproblem overlapping tabulation", "caching intermediate answers to avoid recomputation"},
	{"Binary Trees", "binary subtree leaf balanced", "hierarchical structures with ordered children"},
	{"Heaps", "heap sift priority extract", "partially ordered trees backing priority queues"},
	{"Regression", "regression gradient loss coefficients", "fitting parameters by minimizing prediction error"},
}

// BuildCorpus returns a corpus of n materials cycling through the topics,
// plus query cases asserting topically related expansions. Each topic's
// signature terms recur across its materials so they survive frequency floors.
func BuildCorpus(n int) *Corpus {
	materials := make([]*models.Material, 0, n)
	for i := 0; i < n; i++ {
		tp := topics[i%len(topics)]
		materials = append(materials, &models.Material{
			ID:    fmt.Sprintf("e2e-%03d", i),
			Title: fmt.Sprintf("%s, part %d", tp.title, i/len(topics)+1),
			Content: fmt.Sprintf("%s %s. %s %s again covering week %d.",
				tp.signature, tp.filler, tp.signature, tp.title, i),
		})
	}
	cases := []QueryCase{
		{
			Query:           "quicksort",
			AcceptableTerms: []string{"pivot", "partition", "recursion", "sorting"},
			Description:     "sorting query pulls sorting vocabulary",
		},
		{
			Query:           "hashing",
			AcceptableTerms: []string{"buckets", "collision", "chaining", "lookup"},
			Description:     "hashing query pulls hash table vocabulary",
		},
		{
			Query:           "graph traversal",
			AcceptableTerms: []string{"breadth", "depth", "frontier", "vertices", "edges"},
			Description:     "multi-word query pulls traversal vocabulary",
		},
		{
			Query:           "memoization",
			AcceptableTerms: []string{"subproblem", "overlapping", "tabulation", "caching"},
			Description:     "dynamic programming query pulls DP vocabulary",
		},
	}
	return &Corpus{Materials: materials, Cases: cases}
}
