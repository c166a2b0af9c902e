// Package mock provides a test double for the sentiment.Analyzer interface.
//
// Use Analyzer to feed deterministic polarity values to the rubric engine and
// to verify which texts were analysed.
//
// Example:
//
//	a := &mock.Analyzer{Default: sentiment.Scores{Compound: 0.5}}
//	engine, _ := rubric.New(a)
package mock

import (
	"sync"

	"github.com/MrWong99/introscore/pkg/provider/sentiment"
)

// Analyzer is a mock implementation of sentiment.Analyzer.
type Analyzer struct {
	mu sync.Mutex

	// Default is returned for any text without an entry in ByText.
	Default sentiment.Scores

	// ByText maps exact texts to the Scores returned for them.
	ByText map[string]sentiment.Scores

	// NameValue is returned by Name. Empty means "mock".
	NameValue string

	// Calls records every text passed to PolarityScores, in order.
	Calls []string
}

// Ensure Analyzer satisfies the sentiment.Analyzer interface at compile time.
var _ sentiment.Analyzer = (*Analyzer)(nil)

// PolarityScores implements sentiment.Analyzer.
func (a *Analyzer) PolarityScores(text string) sentiment.Scores {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls = append(a.Calls, text)
	if s, ok := a.ByText[text]; ok {
		return s
	}
	return a.Default
}

// Name implements sentiment.Analyzer.
func (a *Analyzer) Name() string {
	if a.NameValue == "" {
		return "mock"
	}
	return a.NameValue
}

// CallCount returns the number of PolarityScores invocations so far.
func (a *Analyzer) CallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Calls)
}
