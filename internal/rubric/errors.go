package rubric

import (
	"fmt"
	"unicode/utf8"
)

// InvalidInputError is returned when a transcript is not text: invalid
// UTF-8 or control characters other than ordinary whitespace.
type InvalidInputError struct {
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rubric: invalid input: %s: %v", e.Reason, e.Err)
	}
	return "rubric: invalid input: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// CheckText returns an [*InvalidInputError] if s cannot be a transcript.
// Empty text is valid.
func CheckText(s string) error {
	if !utf8.ValidString(s) {
		return &InvalidInputError{Reason: "transcript is not valid UTF-8"}
	}
	for i, r := range s {
		if isBinaryControl(r) {
			return &InvalidInputError{Reason: fmt.Sprintf("control character %U at byte %d", r, i)}
		}
	}
	return nil
}

func isBinaryControl(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r':
		return false
	}
	return r < 0x20 || r == 0x7f
}
