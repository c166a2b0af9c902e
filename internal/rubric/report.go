package rubric

import (
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

// CriterionResult is the outcome of one scorer. Score is always within
// [0, MaxScore] and MaxScore equals the criterion weight.
type CriterionResult struct {
	Criterion string  `json:"criterion" yaml:"criterion"`
	Score     float64 `json:"score" yaml:"score"`
	MaxScore  int     `json:"max_score" yaml:"max_score"`
	Feedback  string  `json:"feedback" yaml:"feedback"`
}

func newResult(criterion string, weight int, score float64, feedback string) CriterionResult {
	return CriterionResult{
		Criterion: criterion,
		Score:     min(max(score, 0), float64(weight)),
		MaxScore:  weight,
		Feedback:  feedback,
	}
}

// Report is the result of scoring one transcript. Criteria are always in
// the canonical order of [Criteria].
type Report struct {
	OverallScore  float64           `json:"overall_score" yaml:"overall_score"`
	WordCount     int               `json:"word_count" yaml:"word_count"`
	SentenceCount int               `json:"sentence_count" yaml:"sentence_count"`
	Criteria      []CriterionResult `json:"criteria_scores" yaml:"criteria_scores"`
}

// Grade returns the qualitative band for the report's composite score.
func (r *Report) Grade() Grade {
	return GradeFor(r.OverallScore)
}

// Criterion returns the result for the named criterion.
func (r *Report) Criterion(name string) (CriterionResult, bool) {
	return lo.Find(r.Criteria, func(c CriterionResult) bool { return c.Criterion == name })
}

// Flatten returns the report as a single-level map: the three headline
// numbers plus "<criterion>.score", "<criterion>.max_score" and
// "<criterion>.feedback" for every criterion.
func (r *Report) Flatten() map[string]any {
	out := make(map[string]any, 3+3*len(r.Criteria))
	out["overall_score"] = r.OverallScore
	out["word_count"] = r.WordCount
	out["sentence_count"] = r.SentenceCount
	for _, c := range r.Criteria {
		out[c.Criterion+".score"] = c.Score
		out[c.Criterion+".max_score"] = c.MaxScore
		out[c.Criterion+".feedback"] = c.Feedback
	}
	return out
}

// LogValue implements [slog.LogValuer] so a report is only expanded when the
// record is actually emitted.
func (r *Report) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 3+len(r.Criteria))
	attrs = append(attrs,
		slog.Float64("overall_score", r.OverallScore),
		slog.Int("word_count", r.WordCount),
		slog.Int("sentence_count", r.SentenceCount),
	)
	for _, c := range r.Criteria {
		attrs = append(attrs, slog.Group(c.Criterion,
			slog.Float64("score", c.Score),
			slog.Int("max_score", c.MaxScore),
			slog.String("feedback", c.Feedback),
		))
	}
	return slog.GroupValue(attrs...)
}

// Grade is a qualitative band over the composite score.
type Grade string

const (
	GradeExcellent        Grade = "Excellent"
	GradeGood             Grade = "Good"
	GradeFair             Grade = "Fair"
	GradeNeedsImprovement Grade = "Needs Improvement"
)

// GradeBand is the lowest composite score that earns Grade.
type GradeBand struct {
	Grade    Grade   `json:"grade" yaml:"grade"`
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// GradeBands lists the grade thresholds from best to worst.
var GradeBands = []GradeBand{
	{GradeExcellent, 85},
	{GradeGood, 70},
	{GradeFair, 55},
	{GradeNeedsImprovement, 0},
}

// GradeFor maps a composite score to its grade.
func GradeFor(score float64) Grade {
	for _, b := range GradeBands {
		if score >= b.MinScore {
			return b.Grade
		}
	}
	return GradeNeedsImprovement
}

// CriterionWeight pairs a criterion label with its maximum score.
type CriterionWeight struct {
	Name   string `json:"name" yaml:"name"`
	Weight int    `json:"weight" yaml:"weight"`
}

// Overview describes a scoring configuration: weights, grade bands and the
// phrase tables in use.
type Overview struct {
	Criteria []CriterionWeight `json:"criteria" yaml:"criteria"`
	Grades   []GradeBand       `json:"grades" yaml:"grades"`
	Lexicon  Lexicon           `json:"lexicon" yaml:"lexicon"`
}

// Describe returns the overview of an engine using lex.
func Describe(lex Lexicon) Overview {
	return Overview{
		Criteria: slices.Clone(Criteria),
		Grades:   slices.Clone(GradeBands),
		Lexicon:  lex,
	}
}
