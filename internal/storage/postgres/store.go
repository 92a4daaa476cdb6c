// Package postgres implements storage.Store on PostgreSQL. Embeddings are
// stored in a pgvector column when the extension is available, so future
// similarity queries can run in the database, with a BYTEA fallback
// otherwise. Use this backend when a diary outgrows a single SQLite file.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/scrypster/murmur/internal/storage"
	"github.com/scrypster/murmur/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	raw_text   TEXT NOT NULL,
	embedding  BYTEA,
	dimension  INTEGER NOT NULL DEFAULT 0,
	parsed     JSONB NOT NULL,
	meta       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_recency
	ON entries(user_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS profiles (
	user_id    TEXT PRIMARY KEY,
	profile    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// vectorColumnDDL is applied only when the pgvector extension is present.
const vectorColumnDDL = `
ALTER TABLE entries ADD COLUMN IF NOT EXISTS embedding_vec vector;
`

// Store implements storage.Store using PostgreSQL.
type Store struct {
	db                *sql.DB
	pgvectorAvailable bool
}

// NewStore connects to PostgreSQL, creates the schema, and probes for the
// pgvector extension.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	store := &Store{db: db}
	store.pgvectorAvailable = probePgvector(db)
	if store.pgvectorAvailable {
		if _, err := db.Exec(vectorColumnDDL); err != nil {
			log.Printf("postgres: pgvector column unavailable: %v", err)
			store.pgvectorAvailable = false
		}
	}

	return store, nil
}

// probePgvector checks whether the vector extension is installed.
func probePgvector(db *sql.DB) bool {
	var installed bool
	err := db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')`).Scan(&installed)
	if err != nil {
		return false
	}
	return installed
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendEntry persists a new diary entry.
func (s *Store) AppendEntry(ctx context.Context, entry *types.DiaryEntry) error {
	if entry == nil || entry.ID == "" || entry.UserID == "" {
		return fmt.Errorf("%w: entry with ID and user ID is required", storage.ErrInvalidInput)
	}

	parsedJSON, err := json.Marshal(entry.Parsed)
	if err != nil {
		return fmt.Errorf("failed to serialize parsed entry: %w", err)
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return fmt.Errorf("failed to serialize entry metadata: %w", err)
	}

	if s.pgvectorAvailable && len(entry.Embedding) > 0 {
		f32 := make([]float32, len(entry.Embedding))
		for i, v := range entry.Embedding {
			f32[i] = float32(v)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO entries (id, user_id, raw_text, embedding, dimension, parsed, meta, created_at, embedding_vec)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			entry.ID, entry.UserID, entry.RawText, serializeEmbedding(entry.Embedding),
			len(entry.Embedding), parsedJSON, metaJSON, entry.CreatedAt, pgvector.NewVector(f32))
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO entries (id, user_id, raw_text, embedding, dimension, parsed, meta, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			entry.ID, entry.UserID, entry.RawText, serializeEmbedding(entry.Embedding),
			len(entry.Embedding), parsedJSON, metaJSON, entry.CreatedAt)
	}
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("%w: entry %s already exists", storage.ErrInvalidInput, entry.ID)
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// RecentEntries returns up to n entries for the user, newest first.
func (s *Store) RecentEntries(ctx context.Context, userID string, n int) ([]types.DiaryEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if n <= 0 {
		return []types.DiaryEntry{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, raw_text, embedding, dimension, parsed, meta, created_at
		FROM entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []types.DiaryEntry{}
	for rows.Next() {
		var entry types.DiaryEntry
		var blob []byte
		var dimension int
		var parsedJSON, metaJSON []byte

		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.RawText, &blob, &dimension,
			&parsedJSON, &metaJSON, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.Embedding, err = deserializeEmbedding(blob, dimension)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", entry.ID, err)
		}
		if err := json.Unmarshal(parsedJSON, &entry.Parsed); err != nil {
			return nil, fmt.Errorf("entry %s: corrupt parsed data: %w", entry.ID, err)
		}
		if err := json.Unmarshal(metaJSON, &entry.Meta); err != nil {
			return nil, fmt.Errorf("entry %s: corrupt metadata: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// CountEntries returns the number of entries stored for the user.
func (s *Store) CountEntries(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// LoadProfile returns the stored profile, repaired, or storage.ErrNotFound.
func (s *Store) LoadProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	var profileJSON []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM profiles WHERE user_id = $1`, userID).Scan(&profileJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile types.UserProfile
	if err := json.Unmarshal(profileJSON, &profile); err != nil {
		return types.NewUserProfile(), nil
	}
	profile.Repair()
	return &profile, nil
}

// SaveProfile persists the profile with upsert semantics.
func (s *Store) SaveProfile(ctx context.Context, userID string, profile *types.UserProfile) error {
	if userID == "" || profile == nil {
		return fmt.Errorf("%w: user ID and profile are required", storage.ErrInvalidInput)
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, profile, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT(user_id) DO UPDATE SET
			profile = excluded.profile,
			updated_at = now()`,
		userID, profileJSON)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
