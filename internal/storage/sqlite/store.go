// Package sqlite implements storage.Store on SQLite via modernc.org/sqlite.
// It is the default backend: zero external setup, a single database file
// (or :memory: for tests).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/murmur/internal/storage"
	"github.com/scrypster/murmur/pkg/types"
)

// Schema creates the tables and indexes used by this backend. Parsed entry
// data and profiles are stored as JSON documents; embeddings as binary BLOBs
// with an explicit dimension column.
const Schema = `
CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	raw_text   TEXT NOT NULL,
	embedding  BLOB,
	dimension  INTEGER NOT NULL DEFAULT 0,
	parsed     TEXT NOT NULL,
	meta       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_recency
	ON entries(user_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS profiles (
	user_id    TEXT PRIMARY KEY,
	profile    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database, configures WAL mode, and creates the
// schema. Pass ":memory:" for an ephemeral store.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load;
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// GetDB exposes the underlying connection so tests can plant fixture rows
// directly.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendEntry persists a new diary entry. Entries are immutable, so an
// existing ID is rejected rather than overwritten.
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
	blob := serializeEmbedding(entry.Embedding)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (id, user_id, raw_text, embedding, dimension, parsed, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.RawText, blob, len(entry.Embedding),
		string(parsedJSON), string(metaJSON), entry.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entry %s already exists", storage.ErrInvalidInput, entry.ID)
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// RecentEntries returns up to n entries for the user, newest first. The ID
// is the secondary sort key so entries created within the same timestamp
// granularity still order by creation.
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
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []types.DiaryEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
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
		`SELECT COUNT(*) FROM entries WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// LoadProfile returns the stored profile, repaired against missing fields,
// or storage.ErrNotFound when the user has no profile yet.
func (s *Store) LoadProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	var profileJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM profiles WHERE user_id = ?`, userID).Scan(&profileJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile types.UserProfile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		// A corrupt row degrades to a zero-valued profile rather than
		// failing the pipeline.
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
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			profile = excluded.profile,
			updated_at = CURRENT_TIMESTAMP`,
		userID, string(profileJSON))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// scanEntry reads one entries row.
func scanEntry(rows *sql.Rows) (*types.DiaryEntry, error) {
	var entry types.DiaryEntry
	var blob []byte
	var dimension int
	var parsedJSON, metaJSON string

	if err := rows.Scan(&entry.ID, &entry.UserID, &entry.RawText, &blob, &dimension,
		&parsedJSON, &metaJSON, &entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	embedding, err := deserializeEmbedding(blob, dimension)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", entry.ID, err)
	}
	entry.Embedding = embedding

	if err := json.Unmarshal([]byte(parsedJSON), &entry.Parsed); err != nil {
		return nil, fmt.Errorf("entry %s: corrupt parsed data: %w", entry.ID, err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &entry.Meta); err != nil {
		return nil, fmt.Errorf("entry %s: corrupt metadata: %w", entry.ID, err)
	}
	return &entry, nil
}

// isUniqueViolation reports whether err is a primary-key conflict.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
