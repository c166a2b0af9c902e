package rubric

import (
	"fmt"

	"github.com/MrWong99/introscore/pkg/provider/sentiment"
)

// Engagement scores positivity from the analyzer's compound polarity and
// positive-affect proportion.
func Engagement(text string, analyzer sentiment.Analyzer) CriterionResult {
	s := analyzer.PolarityScores(text)
	c, pos := s.Compound, s.Positive

	var (
		score float64
		label string
	)
	switch {
	case c >= 0.3 || pos >= 0.2:
		score, label = 10, "Positive & engaging"
	case c >= 0.1 || pos >= 0.1:
		score, label = 9, "Friendly"
	case c >= -0.1:
		score, label = 8, "Neutral-positive"
	case c >= -0.3:
		score, label = 6, "Neutral"
	default:
		score, label = 4, "Could be more positive"
	}
	return newResult(CriterionSentiment, WeightSentiment, score, fmt.Sprintf("%s (compound %.2f)", label, c))
}
