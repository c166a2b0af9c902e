// Package intake turns raw uploaded or on-disk bytes into transcript text.
//
// Only plain text is accepted. Content is sniffed with mimetype so that
// binaries, images and archives are rejected before they reach the scorer, a
// leading UTF-8 byte order mark is stripped, and the remainder must be valid
// UTF-8.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/MrWong99/introscore/internal/rubric"
)

// DefaultMaxBytes is the upload limit used when the caller passes zero.
const DefaultMaxBytes = 1 << 20

var (
	// ErrNotText is wrapped in a [*rubric.InvalidInputError] when the content
	// is not UTF-8 plain text.
	ErrNotText = errors.New("intake: content is not UTF-8 text")

	// ErrTooLarge is returned when the content exceeds the byte limit.
	ErrTooLarge = errors.New("intake: content exceeds size limit")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode validates data and returns it as transcript text.
func Decode(data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	if !isText(mtype) {
		return "", &rubric.InvalidInputError{Reason: "unsupported content type " + mtype.String(), Err: ErrNotText}
	}
	text := string(bytes.TrimPrefix(data, utf8BOM))
	if err := rubric.CheckText(text); err != nil {
		var invalid *rubric.InvalidInputError
		if errors.As(err, &invalid) {
			return "", &rubric.InvalidInputError{Reason: invalid.Reason, Err: ErrNotText}
		}
		return "", err
	}
	return text, nil
}

// Read decodes at most maxBytes from r. A non-positive maxBytes means
// [DefaultMaxBytes].
func Read(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("intake: read: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}
	return Decode(data)
}

// ReadFile decodes the file at path. See [Read].
func ReadFile(path string, maxBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("intake: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, maxBytes)
}

// isText reports whether mtype is text/plain or one of its descendants
// (csv, html and the like are still readable transcripts).
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
