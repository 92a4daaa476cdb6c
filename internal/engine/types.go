// Package engine orchestrates the diary entry pipeline. It wires together
// classification, embedding, carry-in detection, contrast checking, profile
// aggregation and response selection, and persists the outcome through the
// storage layer.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds configuration for the pipeline.
type Config struct {
	// RecentWindow is how many recent entries carry-in detection inspects (default: 5).
	RecentWindow int

	// CarryInThreshold is the cosine similarity a recent entry must exceed
	// for the new entry to count as carry-in (default: 0.86).
	CarryInThreshold float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RecentWindow:     5,
		CarryInThreshold: 0.86,
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.RecentWindow < 1 {
		return fmt.Errorf("RecentWindow must be >= 1, got %d", c.RecentWindow)
	}
	if c.CarryInThreshold < 0 || c.CarryInThreshold > 1 {
		return fmt.Errorf("CarryInThreshold must be in [0, 1], got %v", c.CarryInThreshold)
	}
	return nil
}

// GenerateEntryID generates a unique entry ID in the format entry:<ms>:<slug>.
// The millisecond timestamp prefix keeps IDs roughly time-sortable; the UUID
// slug guarantees uniqueness when entries land in the same millisecond.
func GenerateEntryID(now time.Time) string {
	slug := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("entry:%d:%s", now.UnixMilli(), slug)
}
