// Package storage provides the persistence interfaces for the Murmur
// pipeline: an append-only entry store and a per-user profile store.
//
// Interfaces are small and focused so backends can be implemented
// independently. Two backends ship with the module: SQLite (default,
// zero-setup) and PostgreSQL with pgvector for deployments with large
// histories.
package storage

import (
	"context"
	"errors"

	"github.com/scrypster/murmur/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// EntryStore persists diary entries. Entries are append-only: the pipeline
// never mutates an entry after creation.
type EntryStore interface {
	// AppendEntry persists a new entry. The entry ID must be unique;
	// appending a duplicate ID is ErrInvalidInput.
	AppendEntry(ctx context.Context, entry *types.DiaryEntry) error

	// RecentEntries returns up to n entries for the user, ordered by
	// recency descending (newest first). Returns an empty slice, not an
	// error, when the user has no entries.
	RecentEntries(ctx context.Context, userID string, n int) ([]types.DiaryEntry, error)

	// CountEntries returns the number of entries stored for the user.
	CountEntries(ctx context.Context, userID string) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// ProfileStore persists one UserProfile per user.
type ProfileStore interface {
	// LoadProfile returns the user's profile, or ErrNotFound when the user
	// has none yet. Callers initialize a zero-valued profile on ErrNotFound.
	LoadProfile(ctx context.Context, userID string) (*types.UserProfile, error)

	// SaveProfile persists the profile (upsert semantics).
	SaveProfile(ctx context.Context, userID string, profile *types.UserProfile) error
}

// Store combines both persistence interfaces; the shipped backends
// implement it on a single database handle.
type Store interface {
	EntryStore
	ProfileStore
}
