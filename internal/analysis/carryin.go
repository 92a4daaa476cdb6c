package analysis

import (
	"math"

	"github.com/scrypster/murmur/pkg/types"
)

// DefaultCarryInThreshold is the cosine similarity above which an entry is
// considered a continuation of recent history even without theme overlap.
// The comparison is strictly greater-than: a score exactly at the threshold
// does not carry in. Source variants disagreed on the boundary; strict was
// chosen and is pinned by a test.
const DefaultCarryInThreshold = 0.86

// DetectCarryIn reports whether the current entry continues a thread present
// in the recency window. recentEntries must be ordered recency-descending.
//
// carry_in is true when the entry shares at least one theme with any recent
// entry, or when the maximum cosine similarity against the window strictly
// exceeds the threshold. An empty window never carries in: no history means
// no continuity by definition.
func DetectCarryIn(currentEmbedding []float64, currentThemes []string, recentEntries []types.DiaryEntry, threshold float64) types.CarryInResult {
	if len(recentEntries) == 0 {
		return types.CarryInResult{CarryIn: false, SimilarityScore: 0, MatchingThemes: []string{}}
	}

	recentThemes := map[string]struct{}{}
	for _, entry := range recentEntries {
		for _, theme := range entry.Parsed.Theme {
			recentThemes[theme] = struct{}{}
		}
	}

	matching := []string{}
	for _, theme := range currentThemes {
		if _, ok := recentThemes[theme]; ok {
			matching = append(matching, theme)
		}
	}

	// Max over the whole window, not just the latest entry, so a brief
	// digression does not mask an ongoing thread.
	maxSim := 0.0
	for _, entry := range recentEntries {
		if sim := CosineSimilarity(currentEmbedding, entry.Embedding); sim > maxSim {
			maxSim = sim
		}
	}

	return types.CarryInResult{
		CarryIn:         len(matching) > 0 || maxSim > threshold,
		SimilarityScore: math.Round(maxSim*1000) / 1000,
		MatchingThemes:  matching,
	}
}

// CosineSimilarity computes cosine similarity between two equal-length
// vectors. Returns 0 if either vector has zero magnitude or lengths differ,
// never NaN.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
