package chunker

import (
	"regexp"
	"strings"
)

var blankRun = regexp.MustCompile(`\n{3,}`)

// Normalize converts carriage returns to newlines, collapses runs of three or
// more newlines into a single blank line and trims surrounding whitespace.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
