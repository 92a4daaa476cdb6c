package analysis

import (
	"math"
	"reflect"
	"testing"

	"github.com/scrypster/murmur/pkg/types"
)

func entryWith(themes []string, embedding []float64) types.DiaryEntry {
	return types.DiaryEntry{
		Parsed:    types.ParsedEntry{Theme: themes},
		Embedding: embedding,
	}
}

func TestDetectCarryInEmptyHistory(t *testing.T) {
	result := DetectCarryIn([]float64{1, 0, 0}, []string{"productivity"}, nil, DefaultCarryInThreshold)

	if result.CarryIn {
		t.Error("no history must never carry in")
	}
	if result.SimilarityScore != 0 {
		t.Errorf("similarity = %v, want 0", result.SimilarityScore)
	}
	if !reflect.DeepEqual(result.MatchingThemes, []string{}) {
		t.Errorf("matching themes = %v, want empty", result.MatchingThemes)
	}
}

func TestDetectCarryInThemeOverlap(t *testing.T) {
	recent := []types.DiaryEntry{
		entryWith([]string{"productivity", "startup culture"}, []float64{0, 1, 0}),
		entryWith([]string{"personal growth"}, []float64{0, 0, 1}),
	}
	result := DetectCarryIn([]float64{1, 0, 0}, []string{"personal growth", "general"}, recent, DefaultCarryInThreshold)

	if !result.CarryIn {
		t.Error("shared theme should carry in regardless of similarity")
	}
	if !reflect.DeepEqual(result.MatchingThemes, []string{"personal growth"}) {
		t.Errorf("matching themes = %v, want [personal growth]", result.MatchingThemes)
	}
}

func TestDetectCarryInSimilarityMaxOverWindow(t *testing.T) {
	// Latest entry is orthogonal; an older one in the window is identical.
	v := []float64{0.5, 0.5, 0.1}
	recent := []types.DiaryEntry{
		entryWith([]string{"a"}, []float64{-0.1, 0.2, -0.9}),
		entryWith([]string{"b"}, v),
	}
	result := DetectCarryIn(v, []string{"c"}, recent, DefaultCarryInThreshold)

	if !result.CarryIn {
		t.Error("identical embedding anywhere in the window should carry in")
	}
	if math.Abs(result.SimilarityScore-1.0) > 0.001 {
		t.Errorf("similarity = %v, want ~1.0", result.SimilarityScore)
	}
}

func TestDetectCarryInThresholdIsStrict(t *testing.T) {
	a := []float64{0.2, 0.9, -0.4}
	b := []float64{0.3, 0.8, -0.1}
	sim := CosineSimilarity(a, b)
	recent := []types.DiaryEntry{entryWith([]string{"x"}, b)}

	// Threshold exactly at the observed similarity: strict comparison says no.
	if DetectCarryIn(a, []string{"y"}, recent, sim).CarryIn {
		t.Error("similarity equal to the threshold must not carry in")
	}
	// Any threshold below it says yes.
	if !DetectCarryIn(a, []string{"y"}, recent, sim-1e-9).CarryIn {
		t.Error("similarity strictly above the threshold must carry in")
	}
}

func TestCosineSimilarityReflexive(t *testing.T) {
	v := []float64{0.3, -0.7, 0.2, 0.9}
	if sim := CosineSimilarity(v, v); math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("cos(v, v) = %v, want 1.0", sim)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	zero := []float64{0, 0, 0}
	v := []float64{1, 2, 3}
	if sim := CosineSimilarity(zero, v); sim != 0 {
		t.Errorf("cos(0, v) = %v, want 0 (never NaN)", sim)
	}
	if sim := CosineSimilarity(zero, zero); sim != 0 || math.IsNaN(sim) {
		t.Errorf("cos(0, 0) = %v, want 0", sim)
	}
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	if sim := CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0}); sim != 0 {
		t.Errorf("mismatched lengths = %v, want 0", sim)
	}
}

func TestDetectCarryInScoreRounded(t *testing.T) {
	recent := []types.DiaryEntry{entryWith([]string{"x"}, []float64{1, 1, 0})}
	result := DetectCarryIn([]float64{1, 0, 0}, nil, recent, DefaultCarryInThreshold)

	// cos = 1/sqrt(2) ≈ 0.7071; the reported score is rounded to 3 decimals.
	if result.SimilarityScore != 0.707 {
		t.Errorf("similarity = %v, want 0.707", result.SimilarityScore)
	}
}
