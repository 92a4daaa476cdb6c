package handlers

import (
	"github.com/scrypster/murmur/internal/config"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CreateEntryRequest is the request body for POST /api/entries.
type CreateEntryRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// StatsResponse is the response format for GET /api/stats.
type StatsResponse struct {
	UserID       string `json:"user_id"`
	Entries      int    `json:"entries"`
	Themes       int    `json:"themes"`
	Vibes        int    `json:"vibes"`
	DominantVibe string `json:"dominant_vibe"`
}

// ImportJournalRequest is the request body for POST /api/import/journal.
// Path may point at a single journal file or a directory of them.
type ImportJournalRequest struct {
	Path   string `json:"path"`
	UserID string `json:"user_id,omitempty"`
}

// ImportStartedResponse acknowledges an asynchronous import job.
type ImportStartedResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// ConfigResponse is the response format for GET /api/config.
// API keys are masked for security.
type ConfigResponse struct {
	LLM      LLMConfigResponse      `json:"llm"`
	Pipeline PipelineConfigResponse `json:"pipeline"`
}

// LLMConfigResponse contains LLM configuration with masked API keys.
type LLMConfigResponse struct {
	Provider        string `json:"provider"`
	OllamaURL       string `json:"ollama_url"`
	OllamaModel     string `json:"ollama_model"`
	OpenAIAPIKey    string `json:"openai_api_key"` // Masked
	OpenAIModel     string `json:"openai_model"`
	AnthropicAPIKey string `json:"anthropic_api_key"` // Masked
	AnthropicModel  string `json:"anthropic_model"`
	ReplyLLM        bool   `json:"reply_llm"`
}

// PipelineConfigResponse contains the tunable pipeline settings.
type PipelineConfigResponse struct {
	CarryInThreshold float64 `json:"carry_in_threshold"`
	RecentWindow     int     `json:"recent_window"`
}

// MaskAPIKey masks an API key for safe display.
// Shows first 7 chars and last 4 chars, hides the middle.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) < 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// ToConfigResponse converts a config.Config to ConfigResponse with masked keys.
func ToConfigResponse(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		LLM: LLMConfigResponse{
			Provider:        cfg.LLM.Provider,
			OllamaURL:       cfg.LLM.OllamaURL,
			OllamaModel:     cfg.LLM.OllamaModel,
			OpenAIAPIKey:    MaskAPIKey(cfg.LLM.OpenAIAPIKey),
			OpenAIModel:     cfg.LLM.OpenAIModel,
			AnthropicAPIKey: MaskAPIKey(cfg.LLM.AnthropicAPIKey),
			AnthropicModel:  cfg.LLM.AnthropicModel,
			ReplyLLM:        cfg.LLM.ReplyLLM,
		},
		Pipeline: PipelineConfigResponse{
			CarryInThreshold: cfg.Pipeline.CarryInThreshold,
			RecentWindow:     cfg.Pipeline.RecentWindow,
		},
	}
}
