package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrypster/murmur/pkg/types"
)

const maxReplyChars = 55

// ReplyGenerator produces short empathic replies with a text model.
// It is the opt-in alternative to the built-in template responses; the
// pipeline only uses it when MURMUR_REPLY_LLM is enabled.
type ReplyGenerator struct {
	gen TextGenerator
}

// NewReplyGenerator wraps the given text generator.
func NewReplyGenerator(gen TextGenerator) *ReplyGenerator {
	return &ReplyGenerator{gen: gen}
}

// Generate asks the model for a reply to the analyzed entry and enforces the
// same length contract as the template responses: at most 55 characters. The
// raw entry text is not sent to the model, only the extracted labels.
func (r *ReplyGenerator) Generate(ctx context.Context, parsed types.ParsedEntry, profile *types.UserProfile, carryIn, emotionFlip bool) (string, error) {
	prompt := buildReplyPrompt(parsed, profile, carryIn, emotionFlip)

	raw, err := r.gen.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("reply generation failed: %w", err)
	}

	reply := sanitizeReply(raw)
	if reply == "" {
		return "", fmt.Errorf("reply generation returned empty text")
	}
	return reply, nil
}

func buildReplyPrompt(parsed types.ParsedEntry, profile *types.UserProfile, carryIn, emotionFlip bool) string {
	var b strings.Builder
	b.WriteString("You respond to a private diary entry with one short, warm, empathic sentence.\n")
	b.WriteString("Hard limit: 55 characters. No preamble, no quotes, just the reply.\n\n")
	fmt.Fprintf(&b, "Theme: %s\n", parsed.PrimaryTheme())
	fmt.Fprintf(&b, "Mood: %s\n", parsed.PrimaryVibe())
	fmt.Fprintf(&b, "Intent: %s\n", parsed.Intent)
	if profile != nil && profile.DominantVibe != "" {
		fmt.Fprintf(&b, "Writer's usual mood: %s\n", profile.DominantVibe)
	}
	if carryIn {
		b.WriteString("The writer is continuing a recent topic.\n")
	}
	if emotionFlip {
		b.WriteString("The writer's mood flipped compared to their usual one.\n")
	}
	b.WriteString("\nReply:")
	return b.String()
}

// sanitizeReply collapses the model output to a single line, strips wrapping
// quotes, and truncates to the reply length contract. Truncation counts runes
// so multi-byte characters and emoji are never split.
func sanitizeReply(raw string) string {
	reply := strings.TrimSpace(raw)
	if i := strings.IndexAny(reply, "\r\n"); i >= 0 {
		reply = strings.TrimSpace(reply[:i])
	}
	reply = strings.Trim(reply, `"'`)

	runes := []rune(reply)
	if len(runes) > maxReplyChars {
		reply = string(runes[:maxReplyChars-3]) + "..."
	}
	return reply
}
