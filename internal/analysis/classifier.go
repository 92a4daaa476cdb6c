// Package analysis implements the diary analysis core: rule-based entry
// classification, carry-in detection, emotional contrast checking, profile
// aggregation, and empathetic response selection.
//
// Every function in this package is pure. Persistent state lives behind the
// storage interfaces and is only touched by the pipeline in internal/engine.
package analysis

import (
	"strings"

	"github.com/scrypster/murmur/pkg/types"
)

// Classify produces a structured annotation of raw diary text.
//
// It is total: any string input, including empty text, yields a valid
// ParsedEntry. Dimensions that match no rule fall back to their defaults, so
// the worst case is an all-defaults entry, never an error.
func Classify(rawText string) types.ParsedEntry {
	text := strings.ToLower(rawText)

	themes := matchLabels(themeRules, text)
	if len(themes) == 0 {
		themes = []string{defaultTheme}
	}

	vibes := matchLabels(vibeRules, text)
	if len(vibes) == 0 {
		vibes = []string{defaultVibe}
	}

	traits := matchLabels(traitRules, text)
	if len(traits) == 0 {
		traits = []string{defaultTrait}
	}

	return types.ParsedEntry{
		Theme:        themes,
		Vibe:         vibes,
		Intent:       matchSentence(intentRules, text, defaultIntent),
		Subtext:      matchSentence(subtextRules, text, defaultSubtext),
		PersonaTrait: traits,
		Bucket:       matchBucket(text),
	}
}
