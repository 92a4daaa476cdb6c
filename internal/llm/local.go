package llm

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// DefaultEmbeddingDimension matches the sentence-transformers MiniLM output size.
const DefaultEmbeddingDimension = 384

// LocalEmbedder generates deterministic embeddings without an external model.
// The vector is seeded from an MD5 digest of the text, so the same text always
// produces the same embedding across runs and across processes. A handful of
// emotion and work related keywords nudge fixed dimensions so that texts about
// similar topics land closer together than unrelated texts.
//
// It is the default provider: good enough for similarity comparisons within a
// single installation, and it keeps the pipeline fully offline.
type LocalEmbedder struct {
	dimension int
}

var emotionKeywords = []string{"happy", "sad", "angry", "excited", "tired", "stressed", "calm"}
var workKeywords = []string{"work", "job", "meeting", "project", "deadline", "boss", "team"}

// NewLocalEmbedder creates a local embedder with the given dimension.
// Dimension values below 1 fall back to DefaultEmbeddingDimension.
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension < 1 {
		dimension = DefaultEmbeddingDimension
	}
	return &LocalEmbedder{dimension: dimension}
}

// Embed returns a unit-length deterministic vector for the given text.
// Empty or whitespace-only text yields the zero vector.
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	if strings.TrimSpace(text) == "" {
		return vec, nil
	}

	sum := md5.Sum([]byte(text))
	digest := hex.EncodeToString(sum[:])
	seed, err := strconv.ParseUint(digest[:8], 16, 64)
	if err != nil {
		// Cannot happen for a hex digest, but keep the error path honest.
		return nil, err
	}

	for i := range vec {
		vec[i] = float32((seededUnit(float64(seed)+float64(i)) - 0.5) * 2)
	}

	lower := strings.ToLower(text)
	for i, word := range emotionKeywords {
		if strings.Contains(lower, word) {
			vec[i%e.dimension] += 0.5
		}
	}
	for i, word := range workKeywords {
		if strings.Contains(lower, word) {
			vec[(i+10)%e.dimension] += 0.3
		}
	}

	normalize(vec)
	return vec, nil
}

// GetModel returns the pseudo model identifier for the local embedder.
func (e *LocalEmbedder) GetModel() string {
	return "local-deterministic"
}

// seededUnit is a stateless pseudo-random generator in [0, 1).
func seededUnit(seed float64) float64 {
	x := math.Sin(seed) * 10000
	return x - math.Floor(x)
}

// normalize scales vec to unit length in place. Zero vectors are left alone.
func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// Compile-time assertion.
var _ EmbeddingGenerator = (*LocalEmbedder)(nil)
