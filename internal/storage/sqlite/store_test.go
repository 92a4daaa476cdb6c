package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/scrypster/murmur/internal/storage"
	"github.com/scrypster/murmur/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEntry(id, userID string, createdAt time.Time) *types.DiaryEntry {
	return &types.DiaryEntry{
		ID:        id,
		UserID:    userID,
		RawText:   "worked late again, feeling drained",
		Embedding: []float64{0.1, -0.2, 0.3},
		Parsed: types.ParsedEntry{
			Theme:        []string{"work-life balance"},
			Vibe:         []string{"exhausted"},
			Intent:       "Find rest without guilt or fear",
			Subtext:      "Surface-level expression",
			PersonaTrait: []string{"reflective"},
			Bucket:       types.BucketThought,
		},
		Meta:      types.MetaData{WordCount: 5, TopWords: []string{"worked"}},
		CreatedAt: createdAt,
	}
}

func TestAppendAndRecentEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		entry := testEntry(fmt.Sprintf("entry-%02d", i), "mj", base.Add(time.Duration(i)*time.Minute))
		if err := store.AppendEntry(ctx, entry); err != nil {
			t.Fatalf("AppendEntry(%d): %v", i, err)
		}
	}

	recent, err := store.RecentEntries(ctx, "mj", 5)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("got %d entries, want 5", len(recent))
	}
	if recent[0].ID != "entry-06" {
		t.Errorf("newest entry = %s, want entry-06", recent[0].ID)
	}
	for i := 1; i < len(recent); i++ {
		if recent[i-1].CreatedAt.Before(recent[i].CreatedAt) {
			t.Error("entries not ordered recency-descending")
		}
	}
}

func TestEntryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original := testEntry("entry-rt", "mj", time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC))
	if err := store.AppendEntry(ctx, original); err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	recent, err := store.RecentEntries(ctx, "mj", 1)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	got := recent[0]

	if got.RawText != original.RawText {
		t.Errorf("raw text = %q, want %q", got.RawText, original.RawText)
	}
	if len(got.Embedding) != len(original.Embedding) {
		t.Fatalf("embedding dimension = %d, want %d", len(got.Embedding), len(original.Embedding))
	}
	for i := range got.Embedding {
		if math.Abs(got.Embedding[i]-original.Embedding[i]) > 1e-12 {
			t.Errorf("embedding[%d] = %v, want %v", i, got.Embedding[i], original.Embedding[i])
		}
	}
	if got.Parsed.Bucket != types.BucketThought {
		t.Errorf("bucket = %q, want Thought", got.Parsed.Bucket)
	}
	if got.Parsed.Theme[0] != "work-life balance" {
		t.Errorf("theme = %v", got.Parsed.Theme)
	}
}

func TestAppendEntryRejectsDuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := testEntry("entry-dup", "mj", time.Now())
	if err := store.AppendEntry(ctx, entry); err != nil {
		t.Fatalf("first append: %v", err)
	}
	err := store.AppendEntry(ctx, entry)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("duplicate append error = %v, want ErrInvalidInput", err)
	}
}

func TestRecentEntriesIsolatedPerUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.AppendEntry(ctx, testEntry("entry-a", "alice", time.Now()))
	_ = store.AppendEntry(ctx, testEntry("entry-b", "bob", time.Now()))

	recent, err := store.RecentEntries(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(recent) != 1 || recent[0].UserID != "alice" {
		t.Errorf("got %v, want only alice's entry", recent)
	}

	count, err := store.CountEntries(ctx, "bob")
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if count != 1 {
		t.Errorf("bob's count = %d, want 1", count)
	}
}

func TestLoadProfileNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadProfile(context.Background(), "nobody")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LoadProfile error = %v, want ErrNotFound", err)
	}
}

func TestProfileRoundTripAndUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile := types.NewUserProfile()
	profile.ThemeCount["productivity"] = 2
	profile.VibeCount["driven"] = 2
	profile.BucketCount[types.BucketGoal] = 2
	profile.TopThemes = []string{"productivity"}
	profile.DominantVibe = "driven"
	profile.TraitPool = []string{"builder"}
	profile.LastTheme = "productivity"

	if err := store.SaveProfile(ctx, "mj", profile); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	loaded, err := store.LoadProfile(ctx, "mj")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if loaded.DominantVibe != "driven" || loaded.ThemeCount["productivity"] != 2 {
		t.Errorf("loaded profile = %+v", loaded)
	}

	// Upsert overwrites.
	profile.DominantVibe = "anxious"
	if err := store.SaveProfile(ctx, "mj", profile); err != nil {
		t.Fatalf("SaveProfile upsert: %v", err)
	}
	loaded, _ = store.LoadProfile(ctx, "mj")
	if loaded.DominantVibe != "anxious" {
		t.Errorf("upsert did not overwrite: %q", loaded.DominantVibe)
	}
}

func TestLoadProfileRepairsCorruptRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Write a row with valid JSON missing every field; loading must repair
	// to a zero-valued profile, never fail.
	_, err := store.GetDB().Exec(
		`INSERT INTO profiles (user_id, profile) VALUES (?, ?)`, "mj", `{}`)
	if err != nil {
		t.Fatalf("seeding corrupt row: %v", err)
	}

	loaded, err := store.LoadProfile(ctx, "mj")
	if err != nil {
		t.Fatalf("LoadProfile on corrupt row: %v", err)
	}
	if loaded.ThemeCount == nil || loaded.VibeCount == nil || loaded.BucketCount == nil {
		t.Error("loaded profile not repaired")
	}
}

func TestEmbeddingCodecRoundTrip(t *testing.T) {
	vectors := [][]float64{
		nil,
		{0},
		{1.5, -2.25, math.Pi, math.SmallestNonzeroFloat64},
	}
	for _, v := range vectors {
		blob := serializeEmbedding(v)
		got, err := deserializeEmbedding(blob, len(v))
		if err != nil {
			t.Fatalf("deserialize(%v): %v", v, err)
		}
		if len(got) != len(v) {
			t.Fatalf("dimension = %d, want %d", len(got), len(v))
		}
		for i := range v {
			if got[i] != v[i] {
				t.Errorf("component %d = %v, want %v", i, got[i], v[i])
			}
		}
	}
}

func TestDeserializeEmbeddingSizeMismatch(t *testing.T) {
	if _, err := deserializeEmbedding([]byte{1, 2, 3}, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}
