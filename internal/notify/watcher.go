// Package notify watches a drop folder for journal files. Files placed in
// the folder are handed to the importer and then archived, so a user can
// feed their diary by saving files from any editor or sync tool.
package notify

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// journalExtensions are the file types the watcher picks up.
var journalExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// DropWatcher watches a directory and dispatches new journal files to a
// handler. Handled files are moved to a processed/ subdirectory; files the
// handler rejects go to failed/ so nothing is silently lost.
type DropWatcher struct {
	dir     string
	handler func(path string) error
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewDropWatcher creates a watcher for the given directory.
func NewDropWatcher(dir string, handler func(path string) error) *DropWatcher {
	return &DropWatcher{
		dir:     dir,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start begins watching. It drains any files already in the folder first,
// then watches for new ones. Call Stop() to clean up.
func (dw *DropWatcher) Start() error {
	if err := os.MkdirAll(dw.dir, 0o700); err != nil {
		return err
	}
	for _, sub := range []string{"processed", "failed"} {
		if err := os.MkdirAll(filepath.Join(dw.dir, sub), 0o700); err != nil {
			return err
		}
	}

	dw.drainExisting()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dw.dir); err != nil {
		_ = w.Close()
		return err
	}
	dw.watcher = w

	go dw.loop()
	log.Printf("notify: watching %s for journal files", dw.dir)
	return nil
}

// Stop shuts down the watcher.
func (dw *DropWatcher) Stop() {
	if dw.watcher != nil {
		_ = dw.watcher.Close()
	}
	<-dw.done
}

func (dw *DropWatcher) loop() {
	defer close(dw.done)
	for {
		select {
		case evt, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Rename) != 0 && isJournalFile(evt.Name) {
				// Give the writing process a moment to finish the file.
				time.Sleep(50 * time.Millisecond)
				dw.processFile(evt.Name)
			}
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		}
	}
}

func (dw *DropWatcher) drainExisting() {
	entries, err := os.ReadDir(dw.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && isJournalFile(entry.Name()) {
			dw.processFile(filepath.Join(dw.dir, entry.Name()))
		}
	}
}

func (dw *DropWatcher) processFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return // file already consumed or moved away
	}

	if err := dw.handler(path); err != nil {
		log.Printf("notify: import failed for %s: %v", filepath.Base(path), err)
		dw.archive(path, "failed")
		return
	}
	dw.archive(path, "processed")
}

// archive moves a handled file into the named subdirectory. A timestamp
// prefix keeps repeated drops of the same filename from colliding.
func (dw *DropWatcher) archive(path, sub string) {
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(path))
	dest := filepath.Join(dw.dir, sub, name)
	if err := os.Rename(path, dest); err != nil {
		log.Printf("notify: failed to archive %s: %v", filepath.Base(path), err)
	}
}

func isJournalFile(path string) bool {
	return journalExtensions[strings.ToLower(filepath.Ext(path))]
}
