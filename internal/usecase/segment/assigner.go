package segment

import "math"

// Cosine returns the cosine similarity of a and b, or 0 when either is
// empty, zero or of mismatched length.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// AssignTopics picks the most similar topic for every chunk. A chunk whose
// best score is below threshold inherits the previous chunk's topic; the
// first chunk always takes its best. Chunks without a vector also inherit,
// and are -1 when nothing precedes them.
func AssignTopics(chunkVecs, topicVecs [][]float32, threshold float64) []int {
	if len(chunkVecs) == 0 || len(topicVecs) == 0 {
		return nil
	}

	out := make([]int, len(chunkVecs))
	for i, vec := range chunkVecs {
		best, score := bestTopic(vec, topicVecs)
		switch {
		case best < 0 && i > 0:
			out[i] = out[i-1]
		case best < 0:
			out[i] = -1
		case score < threshold && i > 0:
			out[i] = out[i-1]
		default:
			out[i] = best
		}
	}
	return out
}

func bestTopic(vec []float32, topicVecs [][]float32) (int, float64) {
	if vec == nil {
		return -1, 0
	}
	best, bestScore := -1, math.Inf(-1)
	for j, tv := range topicVecs {
		if tv == nil {
			continue
		}
		if s := Cosine(vec, tv); s > bestScore {
			best, bestScore = j, s
		}
	}
	return best, bestScore
}
