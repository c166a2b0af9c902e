// Package sentiment defines the Analyzer interface for sentiment-polarity
// backends.
//
// An analyzer maps a text to polarity proportions and a normalised compound
// score, in the manner of VADER (Valence Aware Dictionary and sEntiment
// Reasoner). The rubric's engagement criterion is banded on these values.
//
// Analyzers are expensive to build (lexicon loading) and are therefore
// constructed once per process and shared. Implementations must be safe for
// concurrent use and must not expose mutable state to callers: the same text
// always yields the same [Scores].
package sentiment

// Scores is the polarity breakdown of a single text.
type Scores struct {
	// Compound is the normalised aggregate polarity in [-1, 1]. Values near
	// +1 are strongly positive, values near -1 strongly negative.
	Compound float64 `json:"compound" yaml:"compound"`

	// Positive is the proportion of the text carrying positive affect (0-1).
	Positive float64 `json:"pos" yaml:"pos"`

	// Neutral is the proportion of the text carrying no affect (0-1).
	Neutral float64 `json:"neu" yaml:"neu"`

	// Negative is the proportion of the text carrying negative affect (0-1).
	Negative float64 `json:"neg" yaml:"neg"`
}

// Analyzer is the abstraction over any sentiment-polarity model.
//
// PolarityScores has no error return: analyzers run in-process over bounded
// text, and an empty text yields zero Scores.
type Analyzer interface {
	// PolarityScores returns the polarity breakdown of text.
	PolarityScores(text string) Scores

	// Name returns a short identifier of the backing model (e.g. "vader"),
	// used in logs and readiness output.
	Name() string
}
