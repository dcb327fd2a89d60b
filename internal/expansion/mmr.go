package expansion

import "github.com/hyperjump/hirogeru/internal/models"

// SelectTerms picks up to maxTerms candidates by greedy Maximal Marginal
// Relevance: each round scores every remaining candidate as
// lambda*weight - (1-lambda)*maxSimilarityToSelected and moves the argmax
// into the selected set. Output order is selection order. lambda=1 degenerates
// to pure top-N by weight; lambda=0 greedily minimizes lexical overlap.
func SelectTerms(candidates []models.ExpansionTerm, maxTerms int, lambda float64) []models.ExpansionTerm {
	if maxTerms <= 0 || len(candidates) == 0 {
		return nil
	}

	remaining := make([]models.ExpansionTerm, len(candidates))
	copy(remaining, candidates)

	selected := make([]models.ExpansionTerm, 0, maxTerms)
	for len(selected) < maxTerms && len(remaining) > 0 {
		bestIdx := 0
		bestScore := mmrScore(remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			if score := mmrScore(remaining[i], selected, lambda); score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

// mmrScore computes lambda*weight - (1-lambda)*max similarity to any already
// selected term. With an empty selected set the penalty is zero.
func mmrScore(candidate models.ExpansionTerm, selected []models.ExpansionTerm, lambda float64) float64 {
	maxSim := 0.0
	for _, s := range selected {
		if sim := charJaccard(candidate.Term, s.Term); sim > maxSim {
			maxSim = sim
		}
	}
	return lambda*candidate.Weight - (1-lambda)*maxSim
}

// charJaccard is the Jaccard index over the two terms' character sets. A
// cheap proxy for term similarity: exact and near duplicates (plural/singular
// forms) score high even without stemming.
func charJaccard(a, b string) float64 {
	setA := make(map[rune]bool)
	for _, r := range a {
		setA[r] = true
	}
	setB := make(map[rune]bool)
	for _, r := range b {
		setB[r] = true
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	intersection := 0
	for r := range setA {
		if setB[r] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
