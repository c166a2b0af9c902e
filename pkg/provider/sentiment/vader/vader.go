// Package vader provides a sentiment.Analyzer backed by
// github.com/jonreiter/govader, a Go port of the VADER lexicon and rule set.
//
// Building the analyzer parses the embedded lexicon and emoji tables, which
// takes a noticeable amount of time; build one per process and share it.
package vader

import (
	"github.com/jonreiter/govader"

	"github.com/MrWong99/introscore/pkg/provider/sentiment"
)

// Analyzer implements sentiment.Analyzer with VADER.
type Analyzer struct {
	sia *govader.SentimentIntensityAnalyzer
}

// Ensure Analyzer satisfies the sentiment.Analyzer interface at compile time.
var _ sentiment.Analyzer = (*Analyzer)(nil)

// New loads the VADER lexicon and returns a ready Analyzer.
func New() *Analyzer {
	return &Analyzer{sia: govader.NewSentimentIntensityAnalyzer()}
}

// PolarityScores implements sentiment.Analyzer.
func (a *Analyzer) PolarityScores(text string) sentiment.Scores {
	s := a.sia.PolarityScores(text)
	return sentiment.Scores{
		Compound: s.Compound,
		Positive: s.Positive,
		Neutral:  s.Neutral,
		Negative: s.Negative,
	}
}

// Name implements sentiment.Analyzer.
func (a *Analyzer) Name() string { return "vader" }
