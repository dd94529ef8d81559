package ai

import (
	"regexp"
	"strings"
)

var (
	headerLinePattern = regexp.MustCompile(`(?m)^#{1,6}\s+.*$`)
	inlineHeaderStyle = regexp.MustCompile(`#{1,6}\s+([^\n\r#]+)`)
	hashtagRunPattern = regexp.MustCompile(`#+`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips markdown headers and hashtag sigils from model output,
// collapses runs of blank lines, and trims the result. Sanitizing twice
// yields the same string as sanitizing once.
func Sanitize(raw string) string {
	out := headerLinePattern.ReplaceAllString(raw, "")
	out = inlineHeaderStyle.ReplaceAllString(out, "$1")
	out = hashtagRunPattern.ReplaceAllString(out, "")
	out = blankRunPattern.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
