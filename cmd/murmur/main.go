// Command murmur processes diary entries from the command line.
//
// Each argument is treated as one entry; with no arguments, entries are read
// from stdin one per line. Every processed entry prints its result envelope
// as JSON. The -profile flag skips processing and dumps the user's profile.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scrypster/murmur/internal/config"
	"github.com/scrypster/murmur/internal/engine"
	"github.com/scrypster/murmur/internal/llm"
	"github.com/scrypster/murmur/internal/storage"
	"github.com/scrypster/murmur/internal/storage/postgres"
	"github.com/scrypster/murmur/internal/storage/sqlite"
)

func main() {
	userID := flag.String("user", "local", "User the entries are recorded under")
	dumpProfile := flag.Bool("profile", false, "Print the user's profile instead of processing entries")
	flag.Parse()

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

	ctx := context.Background()

	if *dumpProfile {
		profile, err := pipeline.Profile(ctx, *userID)
		if err != nil {
			log.Fatalf("Failed to load profile: %v", err)
		}
		printJSON(profile)
		return
	}

	if flag.NArg() > 0 {
		for _, text := range flag.Args() {
			processOne(ctx, pipeline, *userID, text)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		processOne(ctx, pipeline, *userID, line)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Failed to read stdin: %v", err)
	}
}

func processOne(ctx context.Context, pipeline *engine.Pipeline, userID, text string) {
	result, err := pipeline.Process(ctx, userID, text)
	if err != nil {
		log.Fatalf("Failed to process entry: %v", err)
	}
	printJSON(result)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode JSON: %v", err)
	}
	fmt.Println(string(out))
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
		if gen != nil {
			pipeline.SetReplyGenerator(llm.NewReplyGenerator(gen))
		}
	}

	return pipeline, nil
}
