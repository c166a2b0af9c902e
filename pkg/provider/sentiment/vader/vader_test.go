package vader_test

import (
	"testing"

	"github.com/MrWong99/introscore/pkg/provider/sentiment/vader"
)

func TestPolarityScores_Positive(t *testing.T) {
	t.Parallel()

	a := vader.New()
	s := a.PolarityScores("I love my family and I really enjoy playing cricket. It is wonderful!")
	if s.Compound < 0.3 {
		t.Errorf("Compound = %.3f, want >= 0.3", s.Compound)
	}
	if s.Positive <= s.Negative {
		t.Errorf("Positive = %.3f, Negative = %.3f, want Positive > Negative", s.Positive, s.Negative)
	}
}

func TestPolarityScores_Negative(t *testing.T) {
	t.Parallel()

	a := vader.New()
	s := a.PolarityScores("I hate school. It is terrible and awful.")
	if s.Compound >= 0 {
		t.Errorf("Compound = %.3f, want < 0", s.Compound)
	}
}

func TestPolarityScores_Deterministic(t *testing.T) {
	t.Parallel()

	a := vader.New()
	const text = "Thank you for listening, it was a pleasure."
	first := a.PolarityScores(text)
	for range 5 {
		if got := a.PolarityScores(text); got != first {
			t.Fatalf("PolarityScores changed between calls: %+v vs %+v", got, first)
		}
	}
}

func TestPolarityScores_Bounds(t *testing.T) {
	t.Parallel()

	a := vader.New()
	for _, text := range []string{"", "okay", "Good morning everyone!", "This is bad."} {
		s := a.PolarityScores(text)
		if s.Compound < -1 || s.Compound > 1 {
			t.Errorf("PolarityScores(%q).Compound = %f, out of [-1, 1]", text, s.Compound)
		}
		if s.Positive < 0 || s.Positive > 1 {
			t.Errorf("PolarityScores(%q).Positive = %f, out of [0, 1]", text, s.Positive)
		}
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	if got := vader.New().Name(); got != "vader" {
		t.Errorf("Name() = %q, want %q", got, "vader")
	}
}
