package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func Truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}

	return s[:maxLength]
}

// TruncateAtSentence cuts s to maxLength, backing up to the last sentence
// terminator when that keeps at least 80% of the budget.
func TruncateAtSentence(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}

	truncated := s[:maxLength]

	lastEnd := strings.LastIndexAny(truncated, ".!?")
	if lastEnd > maxLength*8/10 {
		truncated = truncated[:lastEnd+1]
	}

	return truncated
}

func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}

	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsLower(r) {
		return string(unicode.ToUpper(r)) + s[size:]
	}

	return s
}

func CleanCodeBlock(s string) string {
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")

	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}
