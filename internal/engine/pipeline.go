package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/scrypster/murmur/internal/analysis"
	"github.com/scrypster/murmur/internal/llm"
	"github.com/scrypster/murmur/internal/storage"
	"github.com/scrypster/murmur/pkg/types"
)

// Pipeline processes diary entries end to end: classify, embed, compare
// against recent history, fold into the user profile, select a response and
// persist. One Pipeline serves all users; entries for the same user are
// serialized so profile updates never race, while different users proceed
// in parallel.
type Pipeline struct {
	store    storage.Store
	embedder llm.EmbeddingGenerator
	config   Config

	// replier is optional; when nil, replies come from the built-in templates.
	replier *llm.ReplyGenerator

	mu               sync.Mutex
	userLocks        map[string]*sync.Mutex
	onEntryProcessed func(result *types.PipelineResult)
}

// NewPipeline creates a pipeline over the given store and embedding provider.
func NewPipeline(store storage.Store, embedder llm.EmbeddingGenerator, config Config) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("entry store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedding generator is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Pipeline{
		store:     store,
		embedder:  embedder,
		config:    config,
		userLocks: make(map[string]*sync.Mutex),
	}, nil
}

// SetReplyGenerator switches reply generation from templates to the LLM.
// When set, a reply failure fails the whole entry; there is no silent
// fallback to templates, so callers always know which path produced a reply.
func (p *Pipeline) SetReplyGenerator(r *llm.ReplyGenerator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replier = r
}

// SetOnEntryProcessed sets a callback fired after an entry is fully persisted.
// Useful for pushing updates to connected clients.
func (p *Pipeline) SetOnEntryProcessed(callback func(result *types.PipelineResult)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEntryProcessed = callback
}

// Process runs one diary entry through the full pipeline and returns the
// outcome. On any collaborator failure the entry is not recorded and an
// error is returned; there are no partially analyzed entries.
func (p *Pipeline) Process(ctx context.Context, userID, rawText string) (*types.PipelineResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user ID is required: %w", storage.ErrInvalidInput)
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("entry text is required: %w", storage.ErrInvalidInput)
	}

	trace := NewTrace()

	parsed := analysis.Classify(rawText)
	meta := analysis.ExtractMeta(rawText)
	trace.Mark(StepClassify)

	// Embedding depends only on the raw text and touches no shared state,
	// so a slow remote provider must not hold up the user's other entries.
	vec, err := p.embedder.Embed(ctx, rawText)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	embedding := make([]float64, len(vec))
	for i, v := range vec {
		embedding[i] = float64(v)
	}
	trace.Mark(StepEmbed)

	// Serialize per user so read-modify-write on the profile is safe.
	lock := p.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	recent, err := p.store.RecentEntries(ctx, userID, p.config.RecentWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}
	profile, err := p.store.LoadProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		profile = types.NewUserProfile()
	}
	trace.Mark(StepFetch)

	// Carry-in and contrast both read the pre-update state and are
	// independent, so they run concurrently.
	var (
		carry    types.CarryInResult
		contrast types.ContrastResult
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		carry = analysis.DetectCarryIn(embedding, parsed.Theme, recent, p.config.CarryInThreshold)
	}()
	go func() {
		defer wg.Done()
		contrast = analysis.CheckContrast(parsed.Vibe, profile)
	}()
	wg.Wait()
	trace.Mark(StepAnalyze)

	updated := analysis.UpdateProfile(profile, parsed)
	trace.Mark(StepAggregate)

	responseText, err := p.selectResponse(ctx, parsed, updated, carry.CarryIn, contrast.EmotionFlip)
	if err != nil {
		return nil, err
	}
	trace.Mark(StepRespond)

	now := time.Now().UTC()
	entry := &types.DiaryEntry{
		ID:        GenerateEntryID(now),
		UserID:    userID,
		RawText:   rawText,
		Embedding: embedding,
		Parsed:    parsed,
		Meta:      meta,
		CreatedAt: now,
	}
	if err := p.store.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append entry: %w", err)
	}
	if err := p.store.SaveProfile(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	trace.Mark(StepPersist)

	result := &types.PipelineResult{
		EntryID:        entry.ID,
		ResponseText:   responseText,
		CarryIn:        carry.CarryIn,
		EmotionFlip:    contrast.EmotionFlip,
		UpdatedProfile: updated,
	}

	p.mu.Lock()
	callback := p.onEntryProcessed
	p.mu.Unlock()
	if callback != nil {
		callback(result)
	}

	log.Printf("[PIPELINE] user=%s entry=%s carry_in=%v flip=%v sim=%.3f %s total=%s",
		userID, entry.ID, carry.CarryIn, contrast.EmotionFlip, carry.SimilarityScore,
		trace.Summary(), trace.Total().Round(time.Microsecond))

	return result, nil
}

// selectResponse produces the reply for the entry, from templates or the LLM.
func (p *Pipeline) selectResponse(ctx context.Context, parsed types.ParsedEntry, profile *types.UserProfile, carryIn, emotionFlip bool) (string, error) {
	p.mu.Lock()
	replier := p.replier
	p.mu.Unlock()

	if replier == nil {
		return analysis.SelectResponse(parsed, profile, carryIn, emotionFlip), nil
	}
	text, err := replier.Generate(ctx, parsed, profile, carryIn, emotionFlip)
	if err != nil {
		return "", fmt.Errorf("reply generation failed: %w", err)
	}
	return text, nil
}

// RecentEntries exposes the user's recent history for the API layer.
func (p *Pipeline) RecentEntries(ctx context.Context, userID string, n int) ([]types.DiaryEntry, error) {
	if n < 1 {
		n = p.config.RecentWindow
	}
	return p.store.RecentEntries(ctx, userID, n)
}

// Profile returns the user's current profile, or a zero-valued profile for a
// user with no history.
func (p *Pipeline) Profile(ctx context.Context, userID string) (*types.UserProfile, error) {
	profile, err := p.store.LoadProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.NewUserProfile(), nil
		}
		return nil, err
	}
	return profile, nil
}

// EntryCount returns the number of entries recorded for the user.
func (p *Pipeline) EntryCount(ctx context.Context, userID string) (int, error) {
	return p.store.CountEntries(ctx, userID)
}

// userLock returns the mutex for a user, creating it on first use.
// Locks are never removed; the map grows with the number of distinct users,
// which is tiny for a personal journal.
func (p *Pipeline) userLock(userID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		p.userLocks[userID] = lock
	}
	return lock
}
