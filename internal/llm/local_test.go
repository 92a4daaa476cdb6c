package llm

import (
	"context"
	"math"
	"testing"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder(DefaultEmbeddingDimension)
	ctx := context.Background()

	a, err := e.Embed(ctx, "I keep checking Slack even when I'm exhausted.")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(ctx, "I keep checking Slack even when I'm exhausted.")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(a) != DefaultEmbeddingDimension {
		t.Fatalf("dimension = %d, want %d", len(a), DefaultEmbeddingDimension)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestLocalEmbedderDistinctTextsDiffer(t *testing.T) {
	e := NewLocalEmbedder(DefaultEmbeddingDimension)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "work deadline stress")
	b, _ := e.Embed(ctx, "quiet walk in the park")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different texts produced identical embeddings")
	}
}

func TestLocalEmbedderUnitNorm(t *testing.T) {
	e := NewLocalEmbedder(DefaultEmbeddingDimension)

	vec, err := e.Embed(context.Background(), "feeling driven about the new project")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	if math.Abs(norm-1.0) > 1e-4 {
		t.Fatalf("norm = %v, want 1.0", norm)
	}
}

func TestLocalEmbedderEmptyTextIsZeroVector(t *testing.T) {
	e := NewLocalEmbedder(DefaultEmbeddingDimension)

	for _, text := range []string{"", "   ", "\n\t"} {
		vec, err := e.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("Embed(%q): %v", text, err)
		}
		if len(vec) != DefaultEmbeddingDimension {
			t.Fatalf("dimension = %d, want %d", len(vec), DefaultEmbeddingDimension)
		}
		for i, v := range vec {
			if v != 0 {
				t.Fatalf("Embed(%q)[%d] = %v, want 0", text, i, v)
			}
		}
	}
}

func TestLocalEmbedderDimensionFallback(t *testing.T) {
	e := NewLocalEmbedder(0)
	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != DefaultEmbeddingDimension {
		t.Fatalf("dimension = %d, want %d", len(vec), DefaultEmbeddingDimension)
	}
}

func TestLocalEmbedderKeywordSignal(t *testing.T) {
	// Two texts sharing work vocabulary should be closer to each other
	// than to a text with none of the tracked keywords.
	e := NewLocalEmbedder(DefaultEmbeddingDimension)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "big meeting about the project deadline at work")
	b, _ := e.Embed(ctx, "another work meeting, project updates, deadline soon")
	c, _ := e.Embed(ctx, "zzz qqq xxx unrelated noise string")

	if cos32(a, b) <= cos32(a, c) {
		t.Errorf("work-themed texts should score higher similarity than unrelated text: ab=%v ac=%v",
			cos32(a, b), cos32(a, c))
	}
}

func cos32(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
