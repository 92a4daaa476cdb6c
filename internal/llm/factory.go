package llm

import (
	"fmt"

	"github.com/scrypster/murmur/internal/config"
)

// NewEmbeddingGenerator creates the embedding provider selected by the config
// and wraps it in an LRU cache when EmbedCacheSize is positive. The "local"
// provider is the default and never fails at construction time.
func NewEmbeddingGenerator(cfg config.LLMConfig) (EmbeddingGenerator, error) {
	var gen EmbeddingGenerator

	switch cfg.Provider {
	case "local", "":
		gen = NewLocalEmbedder(DefaultEmbeddingDimension)
	case "ollama":
		gen = NewOllamaClient(OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaEmbeddingModel,
		})
	case "openai":
		gen = NewOpenAIEmbeddingClient(OpenAIEmbeddingConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIEmbeddingModel,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}

	return NewCachedEmbedder(gen, cfg.EmbedCacheSize)
}

// NewTextGenerator creates the reply model for the configured provider.
// Returns (nil, nil) when the provider has no text model ("local"); the
// pipeline falls back to template replies in that case.
func NewTextGenerator(cfg config.LLMConfig) (TextGenerator, error) {
	switch cfg.Provider {
	case "local", "":
		return nil, nil
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
		}), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		}), nil
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
