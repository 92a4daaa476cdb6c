package types

import "sort"

// UserProfile is the single piece of mutable long-lived state per user.
// TopThemes and DominantVibe are derived from the counter maps and are
// recomputed on every update; they must never be read as stale. Counter ties
// break by first appearance, so the order slices persist alongside the maps
// (Go maps do not keep insertion order).
//
// Only the profile aggregator writes profiles. Every update produces a new
// value, so callers holding the previous snapshot (e.g. the contrast checker)
// always compare against pre-update state.
type UserProfile struct {
	TopThemes    []string       `json:"top_themes"` // at most 4, count-descending
	ThemeCount   map[string]int `json:"theme_count"`
	ThemeOrder   []string       `json:"theme_order"`   // theme keys in first-appearance order
	DominantVibe string         `json:"dominant_vibe"` // "" until the first vibe is recorded
	VibeCount    map[string]int `json:"vibe_count"`
	VibeOrder    []string       `json:"vibe_order"` // vibe keys in first-appearance order
	BucketCount  map[Bucket]int `json:"bucket_count"` // keys restricted to canonical buckets
	TraitPool    []string       `json:"trait_pool"`   // accumulates, never shrinks, first-seen order
	LastTheme    string         `json:"last_theme"`
}

// NewUserProfile returns the zero-valued profile used for new users:
// empty counters, empty trait pool, no dominant vibe.
func NewUserProfile() *UserProfile {
	return &UserProfile{
		TopThemes:   []string{},
		ThemeCount:  map[string]int{},
		ThemeOrder:  []string{},
		VibeCount:   map[string]int{},
		VibeOrder:   []string{},
		BucketCount: map[Bucket]int{},
		TraitPool:   []string{},
	}
}

// Clone returns a deep copy of the profile. Maps and slices are copied so
// the clone can be mutated without leaking into the original snapshot.
func (p *UserProfile) Clone() *UserProfile {
	clone := &UserProfile{
		TopThemes:    append([]string{}, p.TopThemes...),
		ThemeCount:   make(map[string]int, len(p.ThemeCount)),
		ThemeOrder:   append([]string{}, p.ThemeOrder...),
		DominantVibe: p.DominantVibe,
		VibeCount:    make(map[string]int, len(p.VibeCount)),
		VibeOrder:    append([]string{}, p.VibeOrder...),
		BucketCount:  make(map[Bucket]int, len(p.BucketCount)),
		TraitPool:    append([]string{}, p.TraitPool...),
		LastTheme:    p.LastTheme,
	}
	for k, v := range p.ThemeCount {
		clone.ThemeCount[k] = v
	}
	for k, v := range p.VibeCount {
		clone.VibeCount[k] = v
	}
	for k, v := range p.BucketCount {
		clone.BucketCount[k] = v
	}
	return clone
}

// TotalEntries derives the number of recorded entries from the bucket
// counters. Each processed entry increments exactly one bucket, so the sum
// is the entry count without a second source of truth.
func (p *UserProfile) TotalEntries() int {
	total := 0
	for _, c := range p.BucketCount {
		total += c
	}
	return total
}

// Repair substitutes zero values for any missing fields and drops bucket
// counter keys outside the canonical set. Profiles loaded from storage pass
// through here so a corrupt row degrades to defaults instead of failing the
// pipeline.
func (p *UserProfile) Repair() {
	if p.TopThemes == nil {
		p.TopThemes = []string{}
	}
	if p.ThemeCount == nil {
		p.ThemeCount = map[string]int{}
	}
	if p.VibeCount == nil {
		p.VibeCount = map[string]int{}
	}
	if p.TraitPool == nil {
		p.TraitPool = []string{}
	}
	p.ThemeOrder = repairKeyOrder(p.ThemeOrder, p.ThemeCount)
	p.VibeOrder = repairKeyOrder(p.VibeOrder, p.VibeCount)
	if p.BucketCount == nil {
		p.BucketCount = map[Bucket]int{}
		return
	}
	for k := range p.BucketCount {
		if !k.Valid() {
			delete(p.BucketCount, k)
		}
	}
}

// repairKeyOrder makes an order slice cover every counter key. Rows written
// before the order slices existed get their missing keys appended in sorted
// order; the true arrival order is unrecoverable but the result is
// deterministic.
func repairKeyOrder(order []string, counts map[string]int) []string {
	if order == nil {
		order = []string{}
	}
	seen := make(map[string]struct{}, len(order))
	for _, k := range order {
		seen[k] = struct{}{}
	}
	missing := []string{}
	for k := range counts {
		if _, ok := seen[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return append(order, missing...)
}
