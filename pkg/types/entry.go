package types

import "time"

// Bucket is the single category assigned to a diary entry.
type Bucket string

const (
	BucketGoal    Bucket = "Goal"
	BucketThought Bucket = "Thought"
	BucketHobby   Bucket = "Hobby"
	BucketValue   Bucket = "Value"
)

// CanonicalBuckets lists every valid bucket value. Profile bucket counters
// are restricted to these keys; anything else is dropped on repair.
func CanonicalBuckets() []Bucket {
	return []Bucket{BucketGoal, BucketThought, BucketHobby, BucketValue}
}

// Valid reports whether b is one of the canonical bucket values.
func (b Bucket) Valid() bool {
	switch b {
	case BucketGoal, BucketThought, BucketHobby, BucketValue:
		return true
	}
	return false
}

// ParsedEntry is the structured annotation produced by the entry classifier.
// Slice order is significant: Theme and Vibe preserve rule-table match order,
// and downstream consumers treat index 0 as the primary label.
// A ParsedEntry is immutable once produced.
type ParsedEntry struct {
	Theme        []string `json:"theme"`         // matched themes, never empty
	Vibe         []string `json:"vibe"`          // matched emotions, never empty
	Intent       string   `json:"intent"`        // canonical intent sentence
	Subtext      string   `json:"subtext"`       // canonical subtext sentence
	PersonaTrait []string `json:"persona_trait"` // matched traits, never empty
	Bucket       Bucket   `json:"bucket"`        // exactly one canonical bucket
}

// PrimaryTheme returns the first extracted theme, or "" for a malformed entry.
func (p *ParsedEntry) PrimaryTheme() string {
	if len(p.Theme) == 0 {
		return ""
	}
	return p.Theme[0]
}

// PrimaryVibe returns the first extracted vibe, or "" for a malformed entry.
func (p *ParsedEntry) PrimaryVibe() string {
	if len(p.Vibe) == 0 {
		return ""
	}
	return p.Vibe[0]
}

// PunctuationFlags records surface punctuation signals of the raw text.
type PunctuationFlags struct {
	HasExclamation bool `json:"has_exclamation"`
	HasQuestion    bool `json:"has_question"`
	HasEllipsis    bool `json:"has_ellipsis"`
}

// MetaData holds word and punctuation statistics for one entry.
// It is produced alongside classification and stored verbatim; the analysis
// core never reads it back.
type MetaData struct {
	WordCount        int              `json:"word_count"`
	TopWords         []string         `json:"top_words"` // most frequent content words, at most 5
	PunctuationFlags PunctuationFlags `json:"punctuation_flags"`
}

// DiaryEntry is the persisted record for one processed entry.
// Entries are owned by the entry store and never mutated after creation.
// IDs are unique and sort lexicographically in creation order, which the
// carry-in detector relies on for its recency window.
type DiaryEntry struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	RawText   string      `json:"raw_text"`
	Embedding []float64   `json:"embedding,omitempty"`
	Parsed    ParsedEntry `json:"parsed"`
	Meta      MetaData    `json:"meta_data"`
	CreatedAt time.Time   `json:"created_at"`
}
