package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/scrypster/murmur/internal/config"
	"github.com/scrypster/murmur/internal/engine"
	"github.com/scrypster/murmur/internal/storage"
)

// maxEntryBodyBytes caps the request body for entry creation. Diary entries
// are short free text; anything larger is a client error.
const maxEntryBodyBytes = 64 * 1024

// defaultUserID is used when a request does not name a user. Murmur is a
// single-tenant tool first, so the common case needs no user bookkeeping.
const defaultUserID = "local"

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	pipeline *engine.Pipeline
	config   *config.Config
}

// NewAPIHandlers creates a new APIHandlers instance.
func NewAPIHandlers(pipeline *engine.Pipeline, cfg *config.Config) *APIHandlers {
	return &APIHandlers{
		pipeline: pipeline,
		config:   cfg,
	}
}

// CreateEntry handles POST /api/entries - run one diary entry through the
// pipeline and return the full result envelope.
func (h *APIHandlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	body := io.LimitReader(r.Body, maxEntryBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	result, err := h.pipeline.Process(r.Context(), userID, req.Text)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "entry text must not be empty", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to process entry", err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// GetProfile handles GET /api/profile - return the user's aggregated profile.
// Unknown users get the empty profile rather than a 404, matching the
// pipeline's treatment of first entries.
func (h *APIHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	profile, err := h.pipeline.Profile(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load profile", err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// RecentEntries handles GET /api/entries/recent - return the newest entries
// for a user, newest first.
func (h *APIHandlers) RecentEntries(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	limit := parseInt(r.URL.Query().Get("n"), 0)
	if limit == 0 {
		limit = parseInt(r.URL.Query().Get("limit"), 10)
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := h.pipeline.RecentEntries(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list entries", err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// GetStats handles GET /api/stats - entry counts and profile summary.
func (h *APIHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	count, err := h.pipeline.EntryCount(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count entries", err)
		return
	}

	profile, err := h.pipeline.Profile(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load profile", err)
		return
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		UserID:       userID,
		Entries:      count,
		Themes:       len(profile.ThemeCount),
		Vibes:        len(profile.VibeCount),
		DominantVibe: profile.DominantVibe,
	})
}

// GetConfig handles GET /api/config - current configuration with masked keys.
func (h *APIHandlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ToConfigResponse(h.config))
}

// requestUserID resolves the user for a read request from the user_id query
// parameter, falling back to the single-tenant default.
func requestUserID(r *http.Request) string {
	if id := strings.TrimSpace(r.URL.Query().Get("user_id")); id != "" {
		return id
	}
	return defaultUserID
}

// extractID extracts a path parameter using Go 1.22+ request path values.
func extractID(r *http.Request, key string) string {
	return r.PathValue(key)
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, log but don't try to write another response
		// (headers already sent)
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
