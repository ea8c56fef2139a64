package semindex

import (
	"math"
)

// Candidate is a retrieved document together with its stored vector.
type Candidate struct {
	Doc    Document
	Vector []float32
}

// SelectMMR picks up to k candidates by maximal marginal relevance: each
// round takes the candidate maximizing
//
//	lambda*sim(query, c) - (1-lambda)*max_{s in selected} sim(c, s)
//
// which trades pure relevance against similarity to what was already picked.
func SelectMMR(query []float32, candidates []Candidate, k int, lambda float64) []Document {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = CosineSimilarity(query, c.Vector)
	}

	selected := make([]int, 0, k)
	used := make([]bool, len(candidates))

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			for _, s := range selected {
				sim := CosineSimilarity(candidates[i].Vector, candidates[s].Vector)
				if sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, bestIdx)
	}

	out := make([]Document, 0, len(selected))
	for _, i := range selected {
		out = append(out, candidates[i].Doc)
	}
	return out
}

func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
