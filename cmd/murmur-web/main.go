package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/murmur/internal/config"
	"github.com/scrypster/murmur/internal/engine"
	"github.com/scrypster/murmur/internal/importer"
	"github.com/scrypster/murmur/internal/llm"
	"github.com/scrypster/murmur/internal/notify"
	"github.com/scrypster/murmur/internal/server"
	"github.com/scrypster/murmur/internal/storage"
	"github.com/scrypster/murmur/internal/storage/postgres"
	"github.com/scrypster/murmur/internal/storage/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	pipeline, err := buildPipeline(cfg, store)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}
	imp := importer.NewJournalImporter(pipeline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional drop-folder watcher: journal files dropped there are imported
	// under the configured user and archived.
	if cfg.Importer.WatchEnabled {
		watcher := notify.NewDropWatcher(cfg.Importer.WatchPath, func(path string) error {
			_, err := imp.ImportFile(ctx, path, cfg.Importer.WatchUserID)
			return err
		})
		if err := watcher.Start(); err != nil {
			log.Fatalf("Failed to start drop-folder watcher: %v", err)
		}
		defer watcher.Stop()
		log.Printf("Watching drop folder %s for journal files", cfg.Importer.WatchPath)
	}

	addr, _ := server.Start(ctx, cfg, pipeline, imp)
	log.Printf("Murmur running at http://%s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openStore selects the storage backend from config.
func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.StorageEngine == "postgres" {
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	}
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, err
	}
	return sqlite.NewStore(cfg.Storage.DataPath + "/murmur.db")
}

// buildPipeline wires the embedder, optional LLM replier, and pipeline config.
func buildPipeline(cfg *config.Config, store storage.Store) (*engine.Pipeline, error) {
	embedder, err := llm.NewEmbeddingGenerator(cfg.LLM)
	if err != nil {
		return nil, err
	}

	engineCfg := engine.Config{
		RecentWindow:     cfg.Pipeline.RecentWindow,
		CarryInThreshold: cfg.Pipeline.CarryInThreshold,
	}
	pipeline, err := engine.NewPipeline(store, embedder, engineCfg)
	if err != nil {
		return nil, err
	}

	if cfg.LLM.ReplyLLM {
		gen, err := llm.NewTextGenerator(cfg.LLM)
		if err != nil {
			return nil, err
		}
		if gen == nil {
			log.Printf("MURMUR_REPLY_LLM set but provider %q has no text model, using template replies", cfg.LLM.Provider)
		} else {
			pipeline.SetReplyGenerator(llm.NewReplyGenerator(gen))
			log.Printf("LLM replies enabled via %s (%s)", cfg.LLM.Provider, gen.GetModel())
		}
	}

	return pipeline, nil
}
