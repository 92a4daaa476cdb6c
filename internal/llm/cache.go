package llm

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder wraps an EmbeddingGenerator with an LRU cache keyed by the
// trimmed input text. Diary entries are often re-embedded during imports and
// carry-in comparisons, so caching saves repeated provider round trips.
//
// Cached vectors are shared, never mutated. Callers that need to modify an
// embedding must copy it first.
type CachedEmbedder struct {
	inner EmbeddingGenerator
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with a cache holding up to size entries.
// A size below 1 returns inner unchanged.
func NewCachedEmbedder(inner EmbeddingGenerator, size int) (EmbeddingGenerator, error) {
	if size < 1 {
		return inner, nil
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector when present, otherwise delegates to the
// wrapped generator and caches the result. Errors are never cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := strings.TrimSpace(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// GetModel returns the wrapped generator's model name.
func (c *CachedEmbedder) GetModel() string {
	return c.inner.GetModel()
}

// Compile-time assertion.
var _ EmbeddingGenerator = (*CachedEmbedder)(nil)
