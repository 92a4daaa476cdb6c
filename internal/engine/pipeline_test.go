package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scrypster/murmur/internal/llm"
	"github.com/scrypster/murmur/internal/storage"
	"github.com/scrypster/murmur/internal/storage/sqlite"
	"github.com/scrypster/murmur/pkg/types"
)

func newTestPipeline(t *testing.T) (*Pipeline, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	p, err := NewPipeline(store, llm.NewLocalEmbedder(llm.DefaultEmbeddingDimension), DefaultConfig())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p, store
}

func TestProcessFirstEntry(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	result, err := p.Process(ctx, "u1", "I'm exhausted but I can't stop checking work Slack.")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.EntryID == "" {
		t.Error("entry ID must be set")
	}
	if result.ResponseText == "" {
		t.Error("response text must be set")
	}
	if n := len([]rune(result.ResponseText)); n > 55 {
		t.Errorf("response is %d runes, want <= 55", n)
	}
	if result.CarryIn {
		t.Error("first entry can never be carry-in")
	}
	if result.EmotionFlip {
		t.Error("first entry can never flip against an empty profile")
	}
	if result.UpdatedProfile == nil || result.UpdatedProfile.TotalEntries() != 1 {
		t.Errorf("updated profile should count one entry, got %+v", result.UpdatedProfile)
	}
}

func TestProcessPersistsEntryAndProfile(t *testing.T) {
	p, store := newTestPipeline(t)
	ctx := context.Background()

	result, err := p.Process(ctx, "u1", "Planning my goals for the quarter, feeling driven.")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	entries, err := store.RecentEntries(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("stored %d entries, want 1", len(entries))
	}
	if entries[0].ID != result.EntryID {
		t.Errorf("stored entry ID = %q, want %q", entries[0].ID, result.EntryID)
	}
	if len(entries[0].Embedding) != llm.DefaultEmbeddingDimension {
		t.Errorf("stored embedding has %d dims, want %d", len(entries[0].Embedding), llm.DefaultEmbeddingDimension)
	}

	profile, err := store.LoadProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if profile.TotalEntries() != 1 {
		t.Errorf("profile counts %d entries, want 1", profile.TotalEntries())
	}
	if profile.BucketCount[types.BucketGoal] != 1 {
		t.Errorf("goal-flavored entry should land in the Goal bucket, got %+v", profile.BucketCount)
	}
}

func TestProcessRejectsEmptyInput(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Process(ctx, "u1", "   "); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty text: err = %v, want ErrInvalidInput", err)
	}
	if _, err := p.Process(ctx, "", "some text"); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty user: err = %v, want ErrInvalidInput", err)
	}
}

func TestProcessCarryInOnRepeatedText(t *testing.T) {
	// The local embedder is deterministic, so identical text gives cosine
	// similarity 1.0, which is above any threshold below 1.
	p, _ := newTestPipeline(t)
	ctx := context.Background()
	text := "Another long day at work worrying about the project deadline."

	first, err := p.Process(ctx, "u1", text)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if first.CarryIn {
		t.Fatal("first entry must not be carry-in")
	}

	second, err := p.Process(ctx, "u1", text)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !second.CarryIn {
		t.Error("identical repeated entry should carry in")
	}
}

func TestProcessEmotionFlipAcrossEntries(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	// Establish an excited-dominant profile.
	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("So excited about this amazing launch, attempt %d!", i)
		if _, err := p.Process(ctx, "u1", text); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	// Exhausted is a direct opposite of excited.
	result, err := p.Process(ctx, "u1", "Completely exhausted and drained today, no energy left.")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.EmotionFlip {
		t.Error("exhausted after an excited streak should flip")
	}
}

func TestProcessUsersAreIsolated(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Process(ctx, "alice", "Excited about my pottery hobby, so much fun."); err != nil {
		t.Fatalf("Process alice: %v", err)
	}
	if _, err := p.Process(ctx, "bob", "Exhausted from work meetings all day."); err != nil {
		t.Fatalf("Process bob: %v", err)
	}

	alice, err := p.Profile(ctx, "alice")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	bob, err := p.Profile(ctx, "bob")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}

	if alice.DominantVibe == bob.DominantVibe {
		t.Errorf("profiles leaked across users: alice=%q bob=%q", alice.DominantVibe, bob.DominantVibe)
	}
	count, err := p.EntryCount(ctx, "alice")
	if err != nil {
		t.Fatalf("EntryCount: %v", err)
	}
	if count != 1 {
		t.Errorf("alice has %d entries, want 1", count)
	}
}

func TestProcessConcurrentSameUser(t *testing.T) {
	// Concurrent writes for one user must serialize: every entry is counted
	// exactly once and the profile total matches the entry count.
	p, _ := newTestPipeline(t)
	ctx := context.Background()
	const n = 8

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("Entry number %d about work and the project.", i)
			if _, err := p.Process(ctx, "u1", text); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Process: %v", err)
	}

	count, err := p.EntryCount(ctx, "u1")
	if err != nil {
		t.Fatalf("EntryCount: %v", err)
	}
	if count != n {
		t.Errorf("stored %d entries, want %d", count, n)
	}

	profile, err := p.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.TotalEntries() != n {
		t.Errorf("profile counts %d entries, want %d", profile.TotalEntries(), n)
	}
}

func TestProcessCallbackFires(t *testing.T) {
	p, _ := newTestPipeline(t)

	var got *types.PipelineResult
	p.SetOnEntryProcessed(func(result *types.PipelineResult) { got = result })

	result, err := p.Process(context.Background(), "u1", "Curious about this new library I found.")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got == nil {
		t.Fatal("callback did not fire")
	}
	if got.EntryID != result.EntryID {
		t.Errorf("callback entry = %q, want %q", got.EntryID, result.EntryID)
	}
}

// failingReplier always errors.
type failingReplier struct{}

func (failingReplier) Complete(context.Context, string) (string, error) {
	return "", errors.New("model offline")
}

func (failingReplier) GetModel() string { return "failing" }

func TestProcessLLMReplyFailureIsFatal(t *testing.T) {
	p, store := newTestPipeline(t)
	p.SetReplyGenerator(llm.NewReplyGenerator(failingReplier{}))
	ctx := context.Background()

	if _, err := p.Process(ctx, "u1", "Feeling anxious about tomorrow."); err == nil {
		t.Fatal("expected error when reply generation fails")
	}

	// The failed entry must not have been recorded.
	count, err := store.CountEntries(ctx, "u1")
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if count != 0 {
		t.Errorf("failed pipeline run stored %d entries, want 0", count)
	}
}

func TestGenerateEntryIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateEntryID(time.Now())
		if !strings.HasPrefix(id, "entry:") {
			t.Fatalf("id %q missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

// rendezvousEmbedder only returns once two calls are inside Embed at the same
// time, pairing them up through an unbuffered channel.
type rendezvousEmbedder struct {
	inner   *llm.LocalEmbedder
	barrier chan struct{}
}

func (e *rendezvousEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case e.barrier <- struct{}{}:
	case <-e.barrier:
	case <-time.After(2 * time.Second):
		return nil, errors.New("no concurrent embed call arrived")
	}
	return e.inner.Embed(ctx, text)
}

func (e *rendezvousEmbedder) GetModel() string { return e.inner.GetModel() }

func TestEmbeddingRunsOutsideUserLock(t *testing.T) {
	store, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	embedder := &rendezvousEmbedder{
		inner:   llm.NewLocalEmbedder(llm.DefaultEmbeddingDimension),
		barrier: make(chan struct{}),
	}
	p, err := NewPipeline(store, embedder, DefaultConfig())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	// Two entries for the same user: both must reach Embed concurrently.
	// If embedding ran under the per-user lock the calls would serialize
	// and the rendezvous would time out.
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, text := range []string{"excited about the launch", "tired after the long week"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, err := p.Process(ctx, "u1", text)
			errs <- err
		}(text)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
	}
	count, err := store.CountEntries(ctx, "u1")
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if count != 2 {
		t.Errorf("stored %d entries, want 2", count)
	}
}
