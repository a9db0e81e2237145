package gemini

import (
	"regexp"
	"strings"
)

// Child-supplied text is embedded verbatim into model prompts, so the
// obvious injection markers are stripped before use.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore previous instructions`),
	regexp.MustCompile(`(?i)system:`),
	regexp.MustCompile(`(?i)assistant:`),
	regexp.MustCompile(`(?i)user:`),
}

// Sanitize removes known prompt-injection patterns from free text and
// trims surrounding whitespace.
func Sanitize(input string) string {
	for _, re := range injectionPatterns {
		input = re.ReplaceAllString(input, "")
	}
	return strings.TrimSpace(input)
}
