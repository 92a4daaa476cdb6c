package types

// IntensityShift classifies the energy transition between the previous and
// current dominant vibes.
type IntensityShift string

const (
	IntensityHighToLow IntensityShift = "high-to-low"
	IntensityLowToHigh IntensityShift = "low-to-high"
	IntensityNone      IntensityShift = "none"
)

// CarryInResult reports whether the current entry continues a recent thread.
type CarryInResult struct {
	CarryIn         bool     `json:"carry_in"`
	SimilarityScore float64  `json:"similarity_score"` // max cosine over the recency window, in [0,1]
	MatchingThemes  []string `json:"matching_themes"`
}

// ContrastResult reports whether the current dominant emotion inverts the
// profile's recorded dominant. EmotionFlip is driven purely by the opposites
// table; the remaining fields are enrichment signals.
type ContrastResult struct {
	EmotionFlip      bool           `json:"emotion_flip"`
	PreviousDominant string         `json:"previous_dominant"` // "" for a new user
	CurrentDominant  string         `json:"current_dominant"`
	ContrastType     string         `json:"contrast_type,omitempty"` // direct-opposite, <cat>-to-<cat>, subtle-shift
	IntensityShift   IntensityShift `json:"intensity_shift,omitempty"`
	PatternBreak     bool           `json:"pattern_break"` // meaningful only once the profile has ≥5 entries
}

// PipelineResult is the envelope returned for one processed entry.
type PipelineResult struct {
	EntryID        string       `json:"entry_id"`
	ResponseText   string       `json:"response_text"`
	CarryIn        bool         `json:"carry_in"`
	EmotionFlip    bool         `json:"emotion_flip"`
	UpdatedProfile *UserProfile `json:"updated_profile"`
}
