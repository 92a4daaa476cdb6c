package analysis

import (
	"regexp"

	"github.com/scrypster/murmur/pkg/types"
)

// The classifier is a deterministic pattern matcher, not a model. Every rule
// table below is the single canonical copy: tests enumerate them, and no
// other package defines matching logic of its own.
//
// Table order is load-bearing. Multi-label dimensions (theme, vibe, trait)
// collect matches in table order; single-label dimensions (intent, subtext)
// take the first match.

// labelRule names a label and the pattern that selects it.
type labelRule struct {
	Label   string
	Pattern *regexp.Regexp
}

// sentenceRule maps a pattern to a canonical output sentence.
type sentenceRule struct {
	Pattern  *regexp.Regexp
	Sentence string
}

// Defaults substituted when a dimension matches nothing.
const (
	defaultTheme   = "general"
	defaultVibe    = "neutral"
	defaultTrait   = "reflective"
	defaultIntent  = "Express thoughts and feelings"
	defaultSubtext = "Surface-level expression"
)

var themeRules = []labelRule{
	{"work-life balance", regexp.MustCompile(`work.*life|balance|slack|overtime|rest`)},
	{"productivity", regexp.MustCompile(`productive|efficiency|focus|task|deadline`)},
	{"startup culture", regexp.MustCompile(`startup|company|team|culture|growth`)},
	{"intern management", regexp.MustCompile(`intern|mentor|junior|manage|guide`)},
	{"personal growth", regexp.MustCompile(`learn|improve|growth|skill|develop`)},
}

var vibeRules = []labelRule{
	{"anxious", regexp.MustCompile(`anxious|worried|nervous|scared|stress`)},
	{"excited", regexp.MustCompile(`excited|thrilled|amazing|fantastic|awesome`)},
	{"exhausted", regexp.MustCompile(`exhausted|tired|drained|worn|fatigue`)},
	{"driven", regexp.MustCompile(`driven|motivated|determined|focused|ambitious`)},
	{"curious", regexp.MustCompile(`curious|wonder|interesting|explore|discover`)},
	{"overwhelmed", regexp.MustCompile(`overwhelmed|too much|can't handle|swamped`)},
}

var intentRules = []sentenceRule{
	{regexp.MustCompile(`need.*rest|want.*sleep|should.*relax`), "Find rest without guilt or fear"},
	{regexp.MustCompile(`improve.*productivity|be more efficient`), "Increase work efficiency"},
	{regexp.MustCompile(`learn.*skill|want.*grow`), "Develop new capabilities"},
	{regexp.MustCompile(`help.*team|support.*others`), "Support team members effectively"},
}

var subtextRules = []sentenceRule{
	{regexp.MustCompile(`but.*scared|however.*worry`), "Fear of missing out or falling behind"},
	{regexp.MustCompile(`don't want.*seen|afraid.*think`), "Concerns about others' perceptions"},
	{regexp.MustCompile(`should.*more|need.*better`), "Self-imposed pressure to excel"},
}

var traitRules = []labelRule{
	{"conscientious", regexp.MustCompile(`check|ensure|careful|thorough|responsible`)},
	{"vigilant", regexp.MustCompile(`watch|monitor|alert|aware|notice`)},
	{"organiser", regexp.MustCompile(`plan|organize|structure|system|method`)},
	{"builder", regexp.MustCompile(`create|build|develop|make|construct`)},
	{"mentor", regexp.MustCompile(`teach|guide|help|support|share`)},
}

// bucketRules form a cascade evaluated top to bottom, each satisfied rule
// overwriting the previous result. The LAST satisfied rule wins: an entry
// matching both the Goal and the Value pattern lands in Value. This ordering
// is deliberate and covered by tests; do not reorder or convert to
// first-match.
var bucketRules = []struct {
	Bucket  types.Bucket
	Pattern *regexp.Regexp
}{
	{types.BucketGoal, regexp.MustCompile(`goal|plan|want to|going to`)},
	{types.BucketHobby, regexp.MustCompile(`hobby|fun|enjoy|leisure`)},
	{types.BucketValue, regexp.MustCompile(`believe|value|important|principle`)},
}

// defaultBucket applies when no cascade rule matches.
const defaultBucket = types.BucketThought

// matchLabels collects the labels of every rule whose pattern matches,
// preserving table order.
func matchLabels(rules []labelRule, text string) []string {
	var out []string
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			out = append(out, r.Label)
		}
	}
	return out
}

// matchSentence returns the sentence of the first matching rule, or the
// fallback when nothing matches.
func matchSentence(rules []sentenceRule, text, fallback string) string {
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			return r.Sentence
		}
	}
	return fallback
}

// matchBucket runs the last-wins cascade.
func matchBucket(text string) types.Bucket {
	bucket := defaultBucket
	for _, r := range bucketRules {
		if r.Pattern.MatchString(text) {
			bucket = r.Bucket
		}
	}
	return bucket
}
