package analysis

import (
	"sort"

	"github.com/scrypster/murmur/pkg/types"
)

// maxTopThemes bounds the derived top-themes list on the profile.
const maxTopThemes = 4

// UpdateProfile folds a classified entry into the profile and returns a new
// value; the input snapshot is never mutated. Callers that need the
// pre-update state (the contrast checker does) keep their reference.
//
// All steps are unconditional: counters increment, new traits append in
// first-seen order, and the derived fields are recomputed from the counters
// so they can never be stale.
func UpdateProfile(profile *types.UserProfile, parsed types.ParsedEntry) *types.UserProfile {
	updated := profile.Clone()

	for _, theme := range parsed.Theme {
		if _, ok := updated.ThemeCount[theme]; !ok {
			updated.ThemeOrder = append(updated.ThemeOrder, theme)
		}
		updated.ThemeCount[theme]++
	}
	for _, vibe := range parsed.Vibe {
		if _, ok := updated.VibeCount[vibe]; !ok {
			updated.VibeOrder = append(updated.VibeOrder, vibe)
		}
		updated.VibeCount[vibe]++
	}
	if parsed.Bucket.Valid() {
		updated.BucketCount[parsed.Bucket]++
	}

	for _, trait := range parsed.PersonaTrait {
		if !contains(updated.TraitPool, trait) {
			updated.TraitPool = append(updated.TraitPool, trait)
		}
	}

	updated.TopThemes = topThemes(updated.ThemeCount, updated.ThemeOrder)
	updated.DominantVibe = dominantVibe(updated.VibeCount, updated.VibeOrder)

	if theme := parsed.PrimaryTheme(); theme != "" {
		updated.LastTheme = theme
	}

	return updated
}

// MergeProfiles combines two profiles' counters and trait pools into a new
// profile and recomputes the derived fields. b's last theme wins when set.
func MergeProfiles(a, b *types.UserProfile) *types.UserProfile {
	merged := a.Clone()

	for _, theme := range b.ThemeOrder {
		if _, ok := merged.ThemeCount[theme]; !ok {
			merged.ThemeOrder = append(merged.ThemeOrder, theme)
		}
	}
	for theme, count := range b.ThemeCount {
		merged.ThemeCount[theme] += count
	}
	for _, vibe := range b.VibeOrder {
		if _, ok := merged.VibeCount[vibe]; !ok {
			merged.VibeOrder = append(merged.VibeOrder, vibe)
		}
	}
	for vibe, count := range b.VibeCount {
		merged.VibeCount[vibe] += count
	}
	for bucket, count := range b.BucketCount {
		if bucket.Valid() {
			merged.BucketCount[bucket] += count
		}
	}
	for _, trait := range b.TraitPool {
		if !contains(merged.TraitPool, trait) {
			merged.TraitPool = append(merged.TraitPool, trait)
		}
	}
	if b.LastTheme != "" {
		merged.LastTheme = b.LastTheme
	}

	merged.TopThemes = topThemes(merged.ThemeCount, merged.ThemeOrder)
	merged.DominantVibe = dominantVibe(merged.VibeCount, merged.VibeOrder)

	return merged
}

// topThemes returns the up-to-four highest-count themes, count descending,
// ties broken by first-appearance order (stable sort).
func topThemes(counts map[string]int, order []string) []string {
	ranked := rankedKeys(counts, order)
	if len(ranked) > maxTopThemes {
		ranked = ranked[:maxTopThemes]
	}
	return ranked
}

// dominantVibe returns the single highest-count vibe with the same tie-break
// rule, or "" when there is no data.
func dominantVibe(counts map[string]int, order []string) string {
	ranked := rankedKeys(counts, order)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0]
}

// rankedKeys sorts counter keys by count descending with a stable sort over
// the provided appearance order.
func rankedKeys(counts map[string]int, order []string) []string {
	keys := make([]string, 0, len(counts))
	seen := map[string]struct{}{}
	for _, k := range order {
		if _, ok := counts[k]; ok {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	// Any counter key missing from the order list still participates.
	rest := make([]string, 0)
	for k := range counts {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	sort.SliceStable(keys, func(i, j int) bool {
		return counts[keys[i]] > counts[keys[j]]
	})
	if keys == nil {
		keys = []string{}
	}
	return keys
}
