package intake_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/introscore/internal/intake"
	"github.com/MrWong99/introscore/internal/rubric"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		want    string
		notText bool
	}{
		{name: "plain", data: []byte("Hello everyone, myself Muskan."), want: "Hello everyone, myself Muskan."},
		{name: "bom stripped", data: append([]byte{0xEF, 0xBB, 0xBF}, "Hi there"...), want: "Hi there"},
		{name: "empty", data: nil, want: ""},
		{name: "unicode", data: []byte("Grüße aus München"), want: "Grüße aus München"},
		{name: "png", data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), notText: true},
		{name: "pdf", data: []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj"), notText: true},
		{name: "nul bytes", data: []byte("hello\x00\x00world"), notText: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := intake.Decode(tt.data)
			if tt.notText {
				if !errors.Is(err, intake.ErrNotText) {
					t.Fatalf("Decode error = %v, want ErrNotText", err)
				}
				var invalid *rubric.InvalidInputError
				if !errors.As(err, &invalid) {
					t.Errorf("Decode error = %T, want *rubric.InvalidInputError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRead_TooLarge(t *testing.T) {
	t.Parallel()

	_, err := intake.Read(strings.NewReader(strings.Repeat("a", 11)), 10)
	if !errors.Is(err, intake.ErrTooLarge) {
		t.Errorf("Read error = %v, want ErrTooLarge", err)
	}

	got, err := intake.Read(strings.NewReader(strings.Repeat("a", 10)), 10)
	if err != nil {
		t.Fatalf("Read at limit: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("len = %d, want 10", len(got))
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "intro.txt")
	if err := os.WriteFile(path, []byte("Good morning. My name is Ria.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := intake.ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "Good morning. My name is Ria.\n" {
		t.Errorf("ReadFile = %q", got)
	}

	if _, err := intake.ReadFile(filepath.Join(t.TempDir(), "missing.txt"), 0); err == nil {
		t.Error("ReadFile(missing) error = nil, want error")
	}
}
