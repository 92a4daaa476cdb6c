package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/scrypster/murmur/pkg/types"
)

// scriptedGenerator returns a fixed completion or error.
type scriptedGenerator struct {
	reply string
	err   error
}

func (s *scriptedGenerator) Complete(context.Context, string) (string, error) {
	return s.reply, s.err
}

func (s *scriptedGenerator) GetModel() string { return "scripted" }

func sampleParsed() types.ParsedEntry {
	return types.ParsedEntry{
		Theme:  []string{"work-life balance"},
		Vibe:   []string{"anxious"},
		Intent: "Find rest without guilt",
	}
}

func TestReplyGeneratorTruncatesToLimit(t *testing.T) {
	gen := NewReplyGenerator(&scriptedGenerator{
		reply: strings.Repeat("you are doing great ", 10),
	})

	reply, err := gen.Generate(context.Background(), sampleParsed(), types.NewUserProfile(), false, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n := len([]rune(reply)); n > maxReplyChars {
		t.Errorf("reply is %d runes, want <= %d", n, maxReplyChars)
	}
	if !strings.HasSuffix(reply, "...") {
		t.Errorf("truncated reply should end with ellipsis, got %q", reply)
	}
}

func TestReplyGeneratorKeepsFirstLineOnly(t *testing.T) {
	gen := NewReplyGenerator(&scriptedGenerator{
		reply: "Rest is not failure.\nHere is a longer explanation you did not ask for.",
	})

	reply, err := gen.Generate(context.Background(), sampleParsed(), types.NewUserProfile(), false, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "Rest is not failure." {
		t.Errorf("reply = %q, want first line only", reply)
	}
}

func TestReplyGeneratorStripsQuotes(t *testing.T) {
	gen := NewReplyGenerator(&scriptedGenerator{reply: `"Take the evening off."`})

	reply, err := gen.Generate(context.Background(), sampleParsed(), types.NewUserProfile(), false, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "Take the evening off." {
		t.Errorf("reply = %q, want quotes stripped", reply)
	}
}

func TestReplyGeneratorEmojiSafeTruncation(t *testing.T) {
	gen := NewReplyGenerator(&scriptedGenerator{
		reply: strings.Repeat("💪", 80),
	})

	reply, err := gen.Generate(context.Background(), sampleParsed(), types.NewUserProfile(), false, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(reply, "💪") {
		t.Errorf("emoji should survive truncation intact, got %q", reply)
	}
	if n := len([]rune(reply)); n > maxReplyChars {
		t.Errorf("reply is %d runes, want <= %d", n, maxReplyChars)
	}
}

func TestReplyGeneratorPropagatesErrors(t *testing.T) {
	gen := NewReplyGenerator(&scriptedGenerator{err: errors.New("model offline")})

	if _, err := gen.Generate(context.Background(), sampleParsed(), types.NewUserProfile(), false, false); err == nil {
		t.Fatal("expected error when the model fails")
	}
}

func TestReplyGeneratorRejectsEmptyCompletion(t *testing.T) {
	gen := NewReplyGenerator(&scriptedGenerator{reply: "   \n  "})

	if _, err := gen.Generate(context.Background(), sampleParsed(), types.NewUserProfile(), false, false); err == nil {
		t.Fatal("expected error for empty completion")
	}
}

func TestBuildReplyPromptIncludesContext(t *testing.T) {
	profile := types.NewUserProfile()
	profile.DominantVibe = "driven"

	prompt := buildReplyPrompt(sampleParsed(), profile, true, true)

	for _, want := range []string{"work-life balance", "anxious", "driven", "continuing a recent topic", "mood flipped"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
