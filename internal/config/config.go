// Package config provides configuration management for Murmur.
// It loads settings from environment variables with the MURMUR_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"os"
	"strconv"
)

// Config holds all configuration settings for the Murmur application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Security SecurityConfig
	Importer ImporterConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 6464)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory (default: ./data)
	PostgresDSN   string // Postgres connection string when StorageEngine is postgres
}

// LLMConfig contains embedding and reply provider configuration.
//
// The default provider is "local", which needs no external service and
// produces deterministic embeddings. Replies come from templates unless
// ReplyLLM is enabled and the provider supports text generation.
type LLMConfig struct {
	Provider             string // embedding/reply provider: local, ollama, openai (default: local)
	OllamaURL            string // Ollama API URL (default: http://localhost:11434)
	OllamaModel          string // Ollama model for reply generation (default: qwen2.5:7b)
	OllamaEmbeddingModel string // Ollama model for embeddings (default: nomic-embed-text)
	OpenAIAPIKey         string // OpenAI API key
	OpenAIModel          string // OpenAI model for reply generation (default: gpt-4o-mini)
	OpenAIEmbeddingModel string // OpenAI model for embeddings (default: text-embedding-3-small)
	AnthropicAPIKey      string // Anthropic API key (reply generation only)
	AnthropicModel       string // Anthropic model name (default: claude-3-5-sonnet-20241022)
	ReplyLLM             bool   // generate replies with the LLM instead of templates (default: false)
	EmbedCacheSize       int    // LRU embedding cache capacity, 0 disables caching (default: 512)
}

// PipelineConfig contains entry analysis tuning knobs.
type PipelineConfig struct {
	CarryInThreshold float64 // cosine similarity that counts as carry-in (default: 0.86)
	RecentWindow     int     // how many recent entries carry-in inspects (default: 5)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// ImporterConfig contains journal import and drop-folder settings.
type ImporterConfig struct {
	WatchEnabled bool   // watch a drop folder for journal files (default: false)
	WatchPath    string // drop folder path (default: ./inbox)
	WatchUserID  string // user the watched entries are recorded under (default: local)
}

// LoadConfig loads configuration from environment variables with sensible defaults.
// All environment variables use the MURMUR_ prefix.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("MURMUR_PORT", 6464),
			Host: getEnv("MURMUR_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("MURMUR_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("MURMUR_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("MURMUR_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			Provider:             getEnv("MURMUR_LLM_PROVIDER", "local"),
			OllamaURL:            getEnv("MURMUR_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:          getEnv("MURMUR_OLLAMA_MODEL", "qwen2.5:7b"),
			OllamaEmbeddingModel: getEnv("MURMUR_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:         getEnv("MURMUR_OPENAI_API_KEY", ""),
			OpenAIModel:          getEnv("MURMUR_OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIEmbeddingModel: getEnv("MURMUR_OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			AnthropicAPIKey:      getEnv("MURMUR_ANTHROPIC_API_KEY", ""),
			AnthropicModel:       getEnv("MURMUR_ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
			ReplyLLM:             getEnvBool("MURMUR_REPLY_LLM", false),
			EmbedCacheSize:       getEnvInt("MURMUR_EMBED_CACHE_SIZE", 512),
		},
		Pipeline: PipelineConfig{
			CarryInThreshold: getEnvFloat("MURMUR_CARRYIN_THRESHOLD", 0.86),
			RecentWindow:     getEnvInt("MURMUR_RECENT_WINDOW", 5),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("MURMUR_SECURITY_MODE", "development"),
			APIToken:     getEnv("MURMUR_API_TOKEN", ""),
		},
		Importer: ImporterConfig{
			WatchEnabled: getEnvBool("MURMUR_WATCH_ENABLED", false),
			WatchPath:    getEnv("MURMUR_WATCH_PATH", "./inbox"),
			WatchUserID:  getEnv("MURMUR_WATCH_USER", "local"),
		},
	}, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
// If the environment variable exists but cannot be parsed as a boolean,
// it returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
