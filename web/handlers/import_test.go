package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/scrypster/murmur/internal/engine"
	"github.com/scrypster/murmur/internal/importer"
	"github.com/scrypster/murmur/internal/llm"
	"github.com/scrypster/murmur/internal/storage/sqlite"
	"github.com/scrypster/murmur/web/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImportHandlers(t *testing.T) *handlers.ImportHandlers {
	t.Helper()

	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pipeline, err := engine.NewPipeline(store, llm.NewLocalEmbedder(llm.DefaultEmbeddingDimension), engine.DefaultConfig())
	require.NoError(t, err)

	return handlers.NewImportHandlers(importer.NewJournalImporter(pipeline))
}

func TestPostJournalImport_SingleFile(t *testing.T) {
	h := newTestImportHandlers(t)

	path := filepath.Join(t.TempDir(), "monday.md")
	content := "## Morning\n\nFeeling excited about the new project.\n\n## Evening\n\nTired after a long day at work.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	body, _ := json.Marshal(handlers.ImportJournalRequest{Path: path, UserID: "sam"})
	req := httptest.NewRequest("POST", "/api/import/journal", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.PostJournalImport(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["entries_created"])
}

func TestPostJournalImport_DirectoryStartsJob(t *testing.T) {
	h := newTestImportHandlers(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("A quiet day, mostly reading."), 0o644))

	body, _ := json.Marshal(handlers.ImportJournalRequest{Path: dir})
	req := httptest.NewRequest("POST", "/api/import/journal", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.PostJournalImport(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp handlers.ImportStartedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)

	// The job should be immediately queryable via the status endpoint.
	statusReq := httptest.NewRequest("GET", "/api/import/status/"+resp.JobID, nil)
	statusReq.SetPathValue("job_id", resp.JobID)
	statusRec := httptest.NewRecorder()
	h.GetImportStatus(statusRec, statusReq)
	assert.Equal(t, http.StatusOK, statusRec.Code)
}

func TestPostJournalImport_MissingPath(t *testing.T) {
	h := newTestImportHandlers(t)

	body, _ := json.Marshal(handlers.ImportJournalRequest{Path: ""})
	req := httptest.NewRequest("POST", "/api/import/journal", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.PostJournalImport(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "path is required")
}

func TestPostJournalImport_PathNotFound(t *testing.T) {
	h := newTestImportHandlers(t)

	body, _ := json.Marshal(handlers.ImportJournalRequest{Path: "/no/such/place"})
	req := httptest.NewRequest("POST", "/api/import/journal", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.PostJournalImport(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetImportStatus_UnknownJob(t *testing.T) {
	h := newTestImportHandlers(t)

	req := httptest.NewRequest("GET", "/api/import/status/nope", nil)
	req.SetPathValue("job_id", "nope")
	w := httptest.NewRecorder()
	h.GetImportStatus(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
