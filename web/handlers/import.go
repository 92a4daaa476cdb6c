package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/scrypster/murmur/internal/importer"
)

// ImportHandlers contains HTTP handlers for the journal import API.
type ImportHandlers struct {
	importer *importer.JournalImporter
}

// NewImportHandlers creates a new ImportHandlers backed by the given importer.
func NewImportHandlers(imp *importer.JournalImporter) *ImportHandlers {
	return &ImportHandlers{importer: imp}
}

// PostJournalImport handles POST /api/import/journal.
// Accepts a JSON body with {"path": "...", "user_id": "..."}; the path may
// name a single journal file or a directory of them. Directory imports run
// asynchronously and return a job ID; single files are imported inline.
func (h *ImportHandlers) PostJournalImport(w http.ResponseWriter, r *http.Request) {
	var req ImportJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if strings.TrimSpace(req.Path) == "" {
		respondError(w, http.StatusBadRequest, "path is required", nil)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	// Resolve the path relative to the working directory when not absolute.
	path := req.Path
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "cannot determine working directory", err)
			return
		}
		path = filepath.Join(wd, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("path not found: %s", req.Path), nil)
		return
	}

	// Single files process inline; the caller gets the entry count directly.
	if !info.IsDir() {
		count, err := h.importer.ImportFile(r.Context(), path, userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to import journal file", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"entries_created": count,
			"message":         fmt.Sprintf("Imported %s", req.Path),
		})
		return
	}

	// Start the async import job for directories.
	jobID, err := h.importer.StartImport(r.Context(), path, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to start import", err)
		return
	}

	respondJSON(w, http.StatusAccepted, ImportStartedResponse{
		JobID:   jobID,
		Message: fmt.Sprintf("Import started for %s", req.Path),
	})
}

// GetImportStatus handles GET /api/import/status/{job_id}.
// Returns live progress while running, and the full result when complete.
func (h *ImportHandlers) GetImportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := extractID(r, "job_id")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "job_id is required", nil)
		return
	}

	progress, ok := h.importer.GetJobProgress(jobID)
	if !ok {
		respondError(w, http.StatusNotFound, "import job not found", nil)
		return
	}

	// If complete, return the full result alongside progress.
	if progress.Status == "complete" || progress.Status == "failed" {
		result := h.importer.GetJobResult(jobID)
		type statusResponse struct {
			Progress importer.ImportProgress `json:"progress"`
			Result   *importer.ImportResult  `json:"result,omitempty"`
		}
		respondJSON(w, http.StatusOK, statusResponse{
			Progress: progress,
			Result:   result,
		})
		return
	}

	respondJSON(w, http.StatusOK, progress)
}
