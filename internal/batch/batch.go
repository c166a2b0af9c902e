// Package batch scores many transcripts with bounded concurrency.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/introscore/internal/intake"
	"github.com/MrWong99/introscore/internal/observe"
	"github.com/MrWong99/introscore/internal/rubric"
	"github.com/MrWong99/introscore/internal/scoring"
)

// Scorer is the subset of [scoring.Service] a Runner needs.
type Scorer interface {
	Score(ctx context.Context, req scoring.Request) (*scoring.Result, error)
}

// Item is one transcript to score. When Path is set the transcript is read
// from that file through [intake.ReadFile]; otherwise Transcript is used.
type Item struct {
	Name            string
	Path            string
	Transcript      string
	DurationSeconds *float64
}

// Outcome is the result for the Item at the same index. Exactly one of
// Result and Err is set.
type Outcome struct {
	Name   string          `json:"name"`
	Result *scoring.Result `json:"result,omitempty"`
	Err    error           `json:"-"`
	Error  string          `json:"error,omitempty"`
}

// Runner scores items concurrently.
type Runner struct {
	scorer      Scorer
	concurrency int
	maxBytes    int64
	metrics     *observe.Metrics
}

// Option configures a [Runner].
type Option func(*Runner)

// WithConcurrency bounds the number of items scored at once. Values below
// one mean runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithMaxBytes caps the size of files read for items with a Path.
func WithMaxBytes(n int64) Option {
	return func(r *Runner) { r.maxBytes = n }
}

// WithMetrics overrides the metrics sink. The default is
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner returns a Runner backed by s.
func NewRunner(s Scorer, opts ...Option) *Runner {
	r := &Runner{scorer: s, maxBytes: intake.DefaultMaxBytes}
	for _, o := range opts {
		o(r)
	}
	if r.concurrency < 1 {
		r.concurrency = runtime.NumCPU()
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// FromPaths builds one Item per path, named by the file's base name.
func FromPaths(paths []string, durationSeconds *float64) []Item {
	return lo.Map(paths, func(p string, _ int) Item {
		return Item{Name: filepath.Base(p), Path: p, DurationSeconds: durationSeconds}
	})
}

// Run scores every item and returns the outcomes in input order. A failing
// item does not stop the others; Run itself only fails when ctx is done.
func (r *Runner) Run(ctx context.Context, items []Item) ([]Outcome, error) {
	out := make([]Outcome, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, it := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.metrics.BatchInFlight.Add(gctx, 1)
			defer r.metrics.BatchInFlight.Add(gctx, -1)

			out[i] = r.scoreOne(gctx, it)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	return out, nil
}

func (r *Runner) scoreOne(ctx context.Context, it Item) Outcome {
	o := Outcome{Name: it.Name}
	text := it.Transcript
	if it.Path != "" {
		var err error
		if text, err = intake.ReadFile(it.Path, r.maxBytes); err != nil {
			o.Err, o.Error = err, err.Error()
			return o
		}
	}
	res, err := r.scorer.Score(ctx, scoring.Request{Transcript: text, DurationSeconds: it.DurationSeconds})
	if err != nil {
		o.Err, o.Error = err, err.Error()
		return o
	}
	o.Result = res
	return o
}

// Summary aggregates the successful outcomes of a run.
type Summary struct {
	Count   int                  `json:"count"`
	Failed  int                  `json:"failed"`
	Mean    float64              `json:"mean"`
	Min     float64              `json:"min"`
	Max     float64              `json:"max"`
	ByGrade map[rubric.Grade]int `json:"by_grade"`
}

// Summarize computes a [Summary] over outcomes.
func Summarize(outcomes []Outcome) Summary {
	ok, failed := lo.FilterReject(outcomes, func(o Outcome, _ int) bool { return o.Err == nil && o.Result != nil })
	s := Summary{Count: len(outcomes), Failed: len(failed), ByGrade: map[rubric.Grade]int{}}
	if len(ok) == 0 {
		return s
	}

	scores := lo.Map(ok, func(o Outcome, _ int) float64 { return o.Result.OverallScore })
	s.Mean = lo.Mean(scores)
	s.Min = lo.Min(scores)
	s.Max = lo.Max(scores)
	s.ByGrade = lo.CountValuesBy(ok, func(o Outcome) rubric.Grade { return o.Result.Grade })
	return s
}
