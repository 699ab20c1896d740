package normalization

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

func Fold(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func CollapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

func SanitizeUTF8(s string) string {
	if s == "" {
		return s
	}
	if utf8.ValidString(s) {
		return s
	}
	// Replace invalid byte sequences with a space (keeps words separated)
	return strings.ToValidUTF8(s, " ")
}

var (
	lineEndingRe    = regexp.MustCompile(`\r\n?`)
	excessNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText prepares raw document text for chunking: consistent line
// endings, valid UTF-8, and runs of 3+ newlines collapsed to a single
// paragraph break.
func NormalizeText(s string) string {
	s = SanitizeUTF8(s)
	s = lineEndingRe.ReplaceAllString(s, "\n")
	s = excessNewlineRe.ReplaceAllString(s, "\n\n")
	return s
}
