package ai

import (
	"strings"
	"testing"
)

func TestSanitizeRemovesHeaderLines(t *testing.T) {
	raw := "## Market Overview\nBTC looks strong.\n### Levels\nEntry near 42000."
	got := Sanitize(raw)
	if strings.Contains(got, "#") {
		t.Fatalf("hashtags survived: %q", got)
	}
	if strings.Contains(got, "Market Overview") || strings.Contains(got, "Levels") {
		t.Fatalf("header lines should be dropped entirely: %q", got)
	}
	if !strings.Contains(got, "BTC looks strong.") || !strings.Contains(got, "Entry near 42000.") {
		t.Fatalf("body text lost: %q", got)
	}
}

func TestSanitizeStripsInlineHashtags(t *testing.T) {
	got := Sanitize("Watch #BTC and the #breakout zone.")
	if strings.Contains(got, "#") {
		t.Fatalf("inline hashtags survived: %q", got)
	}
	if !strings.Contains(got, "BTC") {
		t.Fatalf("ticker text lost: %q", got)
	}
}

func TestSanitizeCollapsesBlankRuns(t *testing.T) {
	got := Sanitize("first\n\n\n\n\nsecond")
	if got != "first\n\nsecond" {
		t.Fatalf("blank runs not collapsed: %q", got)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"## Heading\n\n\n\nBody with #tag and trailing space   ",
		"plain text stays plain",
		"",
		"#### Deep header\ncontent",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Fatalf("sanitize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestBuildMessagesTruncatesHistory(t *testing.T) {
	history := makeHistory(25)
	messages := buildMessages("latest question", history, nil)

	// system prompt + capped history + user turn
	if len(messages) != 1+historyLimit+1 {
		t.Fatalf("unexpected message count: %d", len(messages))
	}
	if messages[0].Content != systemPrompt {
		t.Fatalf("first message must be the persona prompt")
	}
	if messages[1].Content != history[len(history)-historyLimit].Content {
		t.Fatalf("history not truncated from the front")
	}
	last := messages[len(messages)-1]
	if last.Content != "latest question" {
		t.Fatalf("user turn must come last, got %q", last.Content)
	}
}
