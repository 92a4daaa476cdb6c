package analysis

import "github.com/scrypster/murmur/pkg/types"

// oppositeEmotions maps an emotion to the set considered its polar opposite.
// The table is hand-curated and deliberately asymmetric: a→b does not imply
// b→a, and no symmetric closure is computed. Reproduce entries exactly; the
// flip scenarios in the test suite enumerate them.
var oppositeEmotions = map[string][]string{
	"excited":       {"exhausted", "anxious", "overwhelmed", "bored"},
	"driven":        {"exhausted", "overwhelmed", "apathetic"},
	"anxious":       {"excited", "curious", "confident", "relaxed"},
	"exhausted":     {"excited", "driven", "energetic"},
	"curious":       {"anxious", "bored", "disinterested"},
	"overwhelmed":   {"excited", "driven", "calm", "confident"},
	"confident":     {"anxious", "overwhelmed", "insecure"},
	"calm":          {"anxious", "overwhelmed", "agitated"},
	"apathetic":     {"excited", "driven", "energetic", "curious"},
	"bored":         {"excited", "driven", "energetic", "curious"},
	"disinterested": {"excited", "driven", "energetic", "curious"},
	"insecure":      {"excited", "driven", "energetic", "curious"},
	"agitated":      {"excited", "driven", "energetic", "curious"},
}

// Energy label sets for intensity-shift classification.
var (
	highEnergyVibes = []string{"excited", "driven", "anxious", "overwhelmed"}
	lowEnergyVibes  = []string{"exhausted", "calm", "neutral", "relaxed"}
)

// Broad emotional categories for contrast-type classification.
var vibeCategories = []struct {
	Name  string
	Vibes []string
}{
	{"positive", []string{"excited", "curious", "confident", "happy"}},
	{"negative", []string{"anxious", "exhausted", "overwhelmed", "sad"}},
	{"neutral", []string{"neutral", "calm", "focused"}},
}

// patternBreakMinEntries is the minimum recorded entries before the pattern
// break signal is meaningful; below it the signal is always false.
const patternBreakMinEntries = 5

// patternBreakFrequency is the historical-frequency floor: a dominant vibe
// seen in fewer than 10% of entries counts as a break from pattern.
const patternBreakFrequency = 0.1

// CheckContrast compares the entry's dominant vibe against the profile's
// recorded dominant. The profile must be the PRE-update snapshot; calling
// this after aggregation would compare the entry against itself.
//
// EmotionFlip is false when the profile has no dominant yet (new user) or
// when the dominant is unchanged; otherwise it is a pure lookup in the
// opposites table. ContrastType, IntensityShift, and PatternBreak are
// enrichment signals derived alongside.
func CheckContrast(currentVibes []string, profile *types.UserProfile) types.ContrastResult {
	previous := profile.DominantVibe
	current := defaultVibe
	if len(currentVibes) > 0 {
		current = currentVibes[0]
	}

	flip := false
	if previous != "" && previous != current {
		flip = contains(oppositeEmotions[previous], current)
	}

	return types.ContrastResult{
		EmotionFlip:      flip,
		PreviousDominant: previous,
		CurrentDominant:  current,
		ContrastType:     contrastType(previous, current),
		IntensityShift:   intensityShift(previous, current),
		PatternBreak:     patternBreak(currentVibes, profile),
	}
}

// contrastType labels the transition: "" when there is no transition,
// "direct-opposite" for table hits, "<cat>-to-<cat>" for category changes,
// "subtle-shift" otherwise.
func contrastType(previous, current string) string {
	if previous == "" || previous == current {
		return ""
	}
	if contains(oppositeEmotions[previous], current) {
		return "direct-opposite"
	}
	prevCat := categoryOf(previous)
	currCat := categoryOf(current)
	if prevCat != "" && currCat != "" && prevCat != currCat {
		return prevCat + "-to-" + currCat
	}
	return "subtle-shift"
}

func intensityShift(previous, current string) types.IntensityShift {
	prevHigh := contains(highEnergyVibes, previous)
	prevLow := contains(lowEnergyVibes, previous)
	switch {
	case prevHigh && contains(lowEnergyVibes, current):
		return types.IntensityHighToLow
	case prevLow && contains(highEnergyVibes, current):
		return types.IntensityLowToHigh
	default:
		return types.IntensityNone
	}
}

// patternBreak flags a dominant vibe that departs from established history.
// It needs at least patternBreakMinEntries recorded entries to mean anything.
// A vibe with history is a break when its frequency is below the floor; a
// vibe never seen before is a break outright.
func patternBreak(currentVibes []string, profile *types.UserProfile) bool {
	total := profile.TotalEntries()
	if total < patternBreakMinEntries {
		return false
	}

	if len(currentVibes) > 0 {
		dominant := currentVibes[0]
		if count, ok := profile.VibeCount[dominant]; ok && count > 0 {
			return float64(count)/float64(total) < patternBreakFrequency
		}
	}

	for _, vibe := range currentVibes {
		if _, ok := profile.VibeCount[vibe]; !ok {
			return true
		}
	}
	return false
}

func categoryOf(vibe string) string {
	for _, cat := range vibeCategories {
		if contains(cat.Vibes, vibe) {
			return cat.Name
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
