package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/murmur/internal/engine"
)

// ImportResult is the final summary produced by a completed import job.
type ImportResult struct {
	JobID          string        `json:"job_id"`
	FilesFound     int           `json:"files_found"`
	FilesProcessed int           `json:"files_processed"`
	FilesSkipped   int           `json:"files_skipped"`
	FilesFailed    int           `json:"files_failed"`
	EntriesCreated int           `json:"entries_created"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"duration_ms"`
}

// ImportProgress carries live progress data for a running job.
type ImportProgress struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"` // "running" | "complete" | "failed"
	FilesFound     int    `json:"files_found"`
	FilesProcessed int    `json:"files_processed"`
	FilesTotal     int    `json:"files_total"`
	CurrentFile    string `json:"current_file,omitempty"`
	Message        string `json:"message,omitempty"`
}

// ImportJob tracks the state of an async import operation.
type ImportJob struct {
	mu       sync.RWMutex
	Progress ImportProgress
	Result   *ImportResult
	Done     chan struct{}
}

func newImportJob(jobID string) *ImportJob {
	return &ImportJob{
		Progress: ImportProgress{
			JobID:  jobID,
			Status: "running",
		},
		Done: make(chan struct{}),
	}
}

// GetProgress returns a snapshot of the current import progress.
func (j *ImportJob) GetProgress() ImportProgress {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Progress
}

// JournalImporter walks a directory of markdown journal files and runs every
// entry it finds through the pipeline.
type JournalImporter struct {
	pipeline *engine.Pipeline

	// mu protects jobs.
	mu   sync.RWMutex
	jobs map[string]*ImportJob
}

// NewJournalImporter creates an importer that processes entries with the
// given pipeline.
func NewJournalImporter(pipeline *engine.Pipeline) *JournalImporter {
	return &JournalImporter{
		pipeline: pipeline,
		jobs:     make(map[string]*ImportJob),
	}
}

// StartImport begins an asynchronous import of the directory at dirPath.
// Entries are recorded under defaultUserID unless a file's frontmatter names
// a user. It returns a job ID for GetJobProgress / GetJobResult.
func (imp *JournalImporter) StartImport(ctx context.Context, dirPath, defaultUserID string) (string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return "", fmt.Errorf("cannot access directory %q: %w", dirPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dirPath)
	}

	jobID := uuid.New().String()
	job := newImportJob(jobID)

	imp.mu.Lock()
	imp.jobs[jobID] = job
	imp.mu.Unlock()

	go func() {
		result := imp.runImport(ctx, job, dirPath, defaultUserID)
		job.mu.Lock()
		job.Result = result
		if len(result.Errors) > 0 && result.FilesProcessed == 0 {
			job.Progress.Status = "failed"
			job.Progress.Message = "Import failed"
		} else {
			job.Progress.Status = "complete"
			job.Progress.Message = fmt.Sprintf("Imported %d entries from %d files",
				result.EntriesCreated, result.FilesProcessed)
		}
		job.mu.Unlock()
		close(job.Done)
	}()

	return jobID, nil
}

// GetJobProgress returns the live progress for a job, or false if unknown.
func (imp *JournalImporter) GetJobProgress(jobID string) (ImportProgress, bool) {
	imp.mu.RLock()
	job, ok := imp.jobs[jobID]
	imp.mu.RUnlock()
	if !ok {
		return ImportProgress{}, false
	}
	return job.GetProgress(), true
}

// GetJobResult returns the final result for a completed job.
// Returns nil if the job is still running or not found.
func (imp *JournalImporter) GetJobResult(jobID string) *ImportResult {
	imp.mu.RLock()
	job, ok := imp.jobs[jobID]
	imp.mu.RUnlock()
	if !ok {
		return nil
	}
	job.mu.RLock()
	defer job.mu.RUnlock()
	return job.Result
}

// ImportFile parses a single journal file and processes its entries
// synchronously. Used by the drop-folder watcher, which hands over one file
// at a time. Returns the number of entries created.
func (imp *JournalImporter) ImportFile(ctx context.Context, path, defaultUserID string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return 0, nil
	}

	parsed, err := ParseJournalFile(data, path, filepath.Base(path))
	if err != nil {
		return 0, err
	}

	userID := parsed.UserID
	if userID == "" {
		userID = defaultUserID
	}

	created := 0
	for _, text := range parsed.Entries {
		if _, err := imp.pipeline.Process(ctx, userID, text); err != nil {
			return created, fmt.Errorf("process entry from %s: %w", filepath.Base(path), err)
		}
		created++
	}
	return created, nil
}

// runImport is the synchronous import logic executed in a goroutine.
func (imp *JournalImporter) runImport(ctx context.Context, job *ImportJob, dirPath, defaultUserID string) *ImportResult {
	start := time.Now()
	result := &ImportResult{JobID: job.Progress.JobID}

	files, err := collectJournalFiles(dirPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("walk error: %v", err))
		return result
	}

	result.FilesFound = len(files)
	job.mu.Lock()
	job.Progress.FilesFound = len(files)
	job.Progress.FilesTotal = len(files)
	job.mu.Unlock()

	if len(files) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	for i, absPath := range files {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "context cancelled")
			break
		}

		rel, _ := filepath.Rel(dirPath, absPath)

		job.mu.Lock()
		job.Progress.FilesProcessed = i
		job.Progress.CurrentFile = rel
		job.mu.Unlock()

		created, err := imp.ImportFile(ctx, absPath, defaultUserID)
		result.EntriesCreated += created
		if err != nil {
			log.Printf("import: failed %s: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rel, err))
			continue
		}
		if created == 0 {
			result.FilesSkipped++
			continue
		}
		result.FilesProcessed++
	}

	job.mu.Lock()
	job.Progress.FilesProcessed = result.FilesProcessed
	job.mu.Unlock()

	result.Duration = time.Since(start)
	return result
}

// collectJournalFiles walks dirPath and returns all .md / .markdown / .txt
// files found. Hidden directories (e.g. .obsidian, .git) are skipped.
func collectJournalFiles(dirPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".md" || ext == ".markdown" || ext == ".txt" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
