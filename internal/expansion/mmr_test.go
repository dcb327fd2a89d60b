package expansion

import (
	"math"
	"testing"

	"github.com/hyperjump/hirogeru/internal/models"
)

func termWith(term string, weight float64) models.ExpansionTerm {
	return models.ExpansionTerm{Term: term, Weight: weight}
}

func TestSelectTermsPureRelevance(t *testing.T) {
	// lambda=1 degenerates to top-N by weight.
	candidates := []models.ExpansionTerm{
		termWith("partition", 3.0),
		termWith("partitions", 2.9),
		termWith("pivot", 2.5),
		termWith("array", 1.0),
	}
	selected := SelectTerms(candidates, 3, 1.0)

	want := []string{"partition", "partitions", "pivot"}
	if len(selected) != len(want) {
		t.Fatalf("selected %d terms, want %d", len(selected), len(want))
	}
	for i, w := range want {
		if selected[i].Term != w {
			t.Errorf("selected[%d] = %q, want %q", i, selected[i].Term, w)
		}
	}
}

func TestSelectTermsPureDiversity(t *testing.T) {
	// lambda=0: after the first pick, near-duplicate terms are penalized in
	// favor of lexically orthogonal ones, even at lower weight.
	candidates := []models.ExpansionTerm{
		termWith("partition", 3.0),
		termWith("partitions", 2.9), // same character set as partition
		termWith("xyz", 0.1),        // disjoint characters
	}
	selected := SelectTerms(candidates, 2, 0.0)

	if len(selected) != 2 {
		t.Fatalf("selected %d terms, want 2", len(selected))
	}
	for i := range selected {
		for j := i + 1; j < len(selected); j++ {
			if sim := charJaccard(selected[i].Term, selected[j].Term); sim > 0.5 {
				t.Errorf("terms %q and %q too similar (%v) despite orthogonal alternative",
					selected[i].Term, selected[j].Term, sim)
			}
		}
	}
}

func TestSelectTermsBounds(t *testing.T) {
	candidates := []models.ExpansionTerm{
		termWith("alpha", 2.0),
		termWith("beta", 1.0),
	}

	if got := SelectTerms(candidates, 5, 0.7); len(got) != 2 {
		t.Errorf("maxTerms beyond candidates: got %d, want 2", len(got))
	}
	if got := SelectTerms(candidates, 0, 0.7); got != nil {
		t.Errorf("maxTerms 0: got %v, want nil", got)
	}
	if got := SelectTerms(nil, 3, 0.7); got != nil {
		t.Errorf("no candidates: got %v, want nil", got)
	}
}

func TestSelectTermsDoesNotMutateInput(t *testing.T) {
	candidates := []models.ExpansionTerm{
		termWith("alpha", 2.0),
		termWith("beta", 1.0),
		termWith("gamma", 0.5),
	}
	SelectTerms(candidates, 2, 0.5)

	want := []string{"alpha", "beta", "gamma"}
	for i, w := range want {
		if candidates[i].Term != w {
			t.Errorf("input mutated: candidates[%d] = %q, want %q", i, candidates[i].Term, w)
		}
	}
}

func TestSelectTermsDeterministic(t *testing.T) {
	candidates := []models.ExpansionTerm{
		termWith("partition", 3.0),
		termWith("pivot", 2.5),
		termWith("sorting", 2.0),
		termWith("array", 1.5),
	}
	first := SelectTerms(candidates, 3, 0.5)
	for i := 0; i < 5; i++ {
		again := SelectTerms(candidates, 3, 0.5)
		for j := range first {
			if again[j].Term != first[j].Term {
				t.Fatalf("selection not deterministic: run %d differs at %d", i, j)
			}
		}
	}
}

func TestCharJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 1.0},
		{"abc", "xyz", 0.0},
		{"abc", "abd", 0.5},       // {a,b} over {a,b,c,d}
		{"aab", "ab", 1.0},        // character sets, not multisets
		{"partition", "partitions", 7.0 / 8.0},
		{"", "", 0.0},
	}
	for _, tt := range tests {
		if got := charJaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("charJaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
