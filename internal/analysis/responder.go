package analysis

import (
	"strings"

	"github.com/scrypster/murmur/pkg/types"
)

// maxResponseLen is the hard cap on reply length, counted in runes. Replies
// that would exceed it are truncated with an ellipsis marker.
const maxResponseLen = 55

// firstEntryResponses keys a template on the entry's dominant vibe for users
// with essentially no history.
var firstEntryResponses = map[string]string{
	"anxious":   "Sounds like you're drained but trying. Rest is OK.",
	"exhausted": "You deserve rest without guilt. Take care.",
	"driven":    "Your motivation shows. Balance drive with care.",
	"excited":   "Love the energy! Channel it mindfully.",
}

// firstEntryFallback covers vibes with no dedicated first-entry template.
const firstEntryFallback = "Thanks for sharing. Your feelings are valid."

// vibeEmojis annotates later-entry replies.
var vibeEmojis = map[string]string{
	"excited":     "🚀",
	"driven":      "💪",
	"anxious":     "😰",
	"exhausted":   "💤",
	"curious":     "🤔",
	"overwhelmed": "😵",
}

const defaultEmoji = "💭"

// SelectResponse chooses a short empathetic reply for the entry. It is a
// pure projection over its inputs and never mutates state.
//
// "First entry" is derived from the counters at call time: a profile with at
// most one distinct vibe recorded means the user had no real history before
// this entry. profile must be the post-update snapshot.
func SelectResponse(parsed types.ParsedEntry, profile *types.UserProfile, carryIn, emotionFlip bool) string {
	dominant := parsed.PrimaryVibe()
	if dominant == "" {
		dominant = defaultVibe
	}
	theme := parsed.PrimaryTheme()
	if theme == "" {
		theme = defaultTheme
	}

	var response string
	if len(profile.VibeCount) <= 1 {
		response = firstEntryResponses[dominant]
		if response == "" {
			response = firstEntryFallback
		}
		if emotionFlip {
			response += " Big shift today 🔄"
		}
	} else {
		if carryIn {
			response = "🧩 You're still " + strings.ReplaceAll(theme, "-", " ") + "-focused! "
		} else {
			response = "✨ New energy detected: " + dominant + "! "
		}
		if emotionFlip {
			response += "Big shift today 🔄"
		} else {
			response += vibeEmoji(dominant) + " Keep going"
		}
	}

	return truncateResponse(response)
}

func vibeEmoji(vibe string) string {
	if e, ok := vibeEmojis[vibe]; ok {
		return e
	}
	return defaultEmoji
}

// truncateResponse enforces the length cap in runes so multi-byte emoji
// count as one character and are never split mid-sequence.
func truncateResponse(s string) string {
	runes := []rune(s)
	if len(runes) <= maxResponseLen {
		return s
	}
	return string(runes[:maxResponseLen-3]) + "..."
}
