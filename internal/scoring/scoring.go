// Package scoring is the request-scoped front of the rubric engine. It
// resolves default durations, rejects blank transcripts, detects the
// transcript language, and wraps every call in a span and metrics.
//
// The engine is held in an atomic pointer so a config reload can swap in a
// rebuilt engine while requests are in flight.
package scoring

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/abadojack/whatlanggo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MrWong99/introscore/internal/observe"
	"github.com/MrWong99/introscore/internal/rubric"
)

// ErrEmptyTranscript is returned for transcripts with no visible text.
var ErrEmptyTranscript = errors.New("scoring: transcript is empty")

// LanguageUnknown is reported when language detection is not reliable.
const LanguageUnknown = "und"

// Request is one scoring call.
type Request struct {
	Transcript string `json:"transcript"`

	// DurationSeconds is the spoken length. Nil means the service default.
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

// Result is a rubric report plus the service-level annotations.
type Result struct {
	rubric.Report `yaml:",inline"`

	Grade           rubric.Grade `json:"grade" yaml:"grade"`
	Language        string       `json:"language" yaml:"language"`
	DurationSeconds float64      `json:"duration_seconds" yaml:"duration_seconds"`
}

// Service scores transcripts with the current engine.
type Service struct {
	engine          atomic.Pointer[rubric.Engine]
	defaultDuration atomic.Uint64 // math.Float64bits
	metrics         *observe.Metrics
}

// Option configures a [Service].
type Option func(*Service)

// WithMetrics overrides the metrics sink. The default is
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultDuration sets the duration assumed when a request has none.
func WithDefaultDuration(seconds float64) Option {
	return func(s *Service) { s.SetDefaultDuration(seconds) }
}

// New returns a Service scoring with engine.
func New(engine *rubric.Engine, opts ...Option) *Service {
	s := &Service{}
	s.engine.Store(engine)
	s.SetDefaultDuration(rubric.SampleDurationSeconds)
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Engine returns the engine currently in use.
func (s *Service) Engine() *rubric.Engine {
	return s.engine.Load()
}

// Swap installs engine for all subsequent calls and returns the previous one.
func (s *Service) Swap(engine *rubric.Engine) *rubric.Engine {
	return s.engine.Swap(engine)
}

// SetDefaultDuration changes the duration assumed when a request has none.
func (s *Service) SetDefaultDuration(seconds float64) {
	s.defaultDuration.Store(math.Float64bits(seconds))
}

// DefaultDuration returns the duration assumed when a request has none.
func (s *Service) DefaultDuration() float64 {
	return math.Float64frombits(s.defaultDuration.Load())
}

// Score evaluates req. Errors are [ErrEmptyTranscript] or a
// [*rubric.InvalidInputError].
func (s *Service) Score(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "rubric.score")
	defer span.End()

	duration := s.DefaultDuration()
	if req.DurationSeconds != nil {
		duration = *req.DurationSeconds
	}

	if strings.TrimSpace(req.Transcript) == "" {
		s.metrics.RecordScoreRequest(ctx, "", "empty")
		span.SetStatus(codes.Error, ErrEmptyTranscript.Error())
		return nil, ErrEmptyTranscript
	}

	report, err := s.Engine().Score(req.Transcript, duration)
	if err != nil {
		s.metrics.RecordScoreRequest(ctx, "", "invalid")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}

	res := &Result{
		Report:          *report,
		Grade:           report.Grade(),
		Language:        detectLanguage(req.Transcript),
		DurationSeconds: duration,
	}

	s.metrics.ScoreDuration.Record(ctx, time.Since(start).Seconds())
	s.metrics.CompositeScore.Record(ctx, res.OverallScore)
	for _, c := range res.Criteria {
		s.metrics.RecordCriterion(ctx, c.Criterion, c.Score)
	}
	s.metrics.RecordScoreRequest(ctx, string(res.Grade), "ok")

	span.SetAttributes(
		attribute.Float64("rubric.overall_score", res.OverallScore),
		attribute.Int("rubric.word_count", res.WordCount),
		attribute.String("rubric.grade", string(res.Grade)),
		attribute.String("rubric.language", res.Language),
	)

	log := observe.Logger(ctx)
	if res.Language != "en" && res.Language != LanguageUnknown {
		log.Warn("transcript does not look like English; lexicon matching will be weak", "language", res.Language)
	}
	log.Debug("transcript scored", slog.Any("report", &res.Report), slog.String("grade", string(res.Grade)))
	return res, nil
}

// detectLanguage returns the ISO 639-1 code of text, or [LanguageUnknown].
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return LanguageUnknown
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return LanguageUnknown
}
