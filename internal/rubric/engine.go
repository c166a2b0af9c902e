// Package rubric scores spoken self-introduction transcripts.
//
// A transcript is normalized, then evaluated by eight independent scorers
// (salutation, keyword coverage, flow, speech rate, grammar, vocabulary,
// filler words and sentiment). Each scorer yields a bounded sub-score whose
// maximum is the criterion weight; the weights sum to 90 and the composite
// is the clamped sum of the sub-scores.
//
// All scorers are pure functions of the normalized text. The only external
// collaborator is a [sentiment.Analyzer], injected at construction.
package rubric

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/MrWong99/introscore/pkg/provider/sentiment"
)

// Engine scores transcripts against a fixed lexicon. An Engine is immutable
// after [New] returns and is safe for concurrent use as long as its analyzer
// is.
type Engine struct {
	lexicon  Lexicon
	must     *Matcher
	bonus    *Matcher
	analyzer sentiment.Analyzer
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLexicon replaces the default lexicon. The lexicon is copied.
func WithLexicon(l Lexicon) Option {
	return func(e *Engine) { e.lexicon = l.Clone() }
}

// New builds an Engine. analyzer must not be nil.
func New(analyzer sentiment.Analyzer, opts ...Option) (*Engine, error) {
	if analyzer == nil {
		return nil, errors.New("rubric: sentiment analyzer is required")
	}
	e := &Engine{lexicon: DefaultLexicon(), analyzer: analyzer}
	for _, o := range opts {
		o(e)
	}
	if err := e.lexicon.Validate(); err != nil {
		return nil, fmt.Errorf("rubric: invalid lexicon: %w", err)
	}

	var err error
	if e.must, err = NewMatcher(e.lexicon.MustHave); err != nil {
		return nil, err
	}
	if e.bonus, err = NewMatcher(e.lexicon.Bonus); err != nil {
		return nil, err
	}
	return e, nil
}

// Lexicon returns a copy of the engine's lexicon.
func (e *Engine) Lexicon() Lexicon {
	return e.lexicon.Clone()
}

// Analyzer returns the sentiment analyzer the engine consults.
func (e *Engine) Analyzer() sentiment.Analyzer {
	return e.analyzer
}

// Score evaluates transcript. durationSeconds <= 0 means the duration is
// unknown. Empty text is scored, not rejected; only non-text input yields an
// error, always an [*InvalidInputError].
func (e *Engine) Score(transcript string, durationSeconds float64) (*Report, error) {
	if err := CheckText(transcript); err != nil {
		return nil, err
	}
	text := Normalize(transcript)

	criteria := []CriterionResult{
		Salutation(text, &e.lexicon),
		Keywords(text, e.must, e.bonus),
		Flow(text, &e.lexicon),
		SpeechRate(text, durationSeconds),
		Grammar(text),
		Vocabulary(text),
		Fillers(text, e.lexicon.Fillers),
		Engagement(text, e.analyzer),
	}
	total := lo.SumBy(criteria, func(c CriterionResult) float64 { return c.Score })

	return &Report{
		OverallScore:  min(max(total, 0), 100),
		WordCount:     WordCount(text),
		SentenceCount: SentenceCount(text),
		Criteria:      criteria,
	}, nil
}
