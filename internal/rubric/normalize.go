package rubric

import (
	"strings"
	"unicode"
)

// Normalize collapses every run of whitespace to a single space and trims
// the ends. All scorers expect normalized input.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// WordCount returns the number of whitespace-separated tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Sentences splits text on '.' and returns the trimmed, non-empty segments.
// '!' and '?' are deliberately not treated as terminators.
func Sentences(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SentenceCount returns len(Sentences(text)).
func SentenceCount(text string) int {
	return len(Sentences(text))
}

// isWordRune matches the characters of a regex \w class in Unicode mode.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// wordRuns returns the maximal runs of word characters in text, in order.
func wordRuns(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) })
}

// isASCIILower reports whether s is made only of the letters a-z.
func isASCIILower(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return s != ""
}
