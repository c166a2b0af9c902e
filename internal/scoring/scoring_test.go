package scoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/introscore/internal/observe"
	"github.com/MrWong99/introscore/internal/rubric"
	"github.com/MrWong99/introscore/internal/scoring"
	"github.com/MrWong99/introscore/pkg/provider/sentiment"
	"github.com/MrWong99/introscore/pkg/provider/sentiment/mock"
)

func newService(t *testing.T, compound float64, opts ...scoring.Option) (*scoring.Service, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	engine, err := rubric.New(&mock.Analyzer{Default: sentiment.Scores{Compound: compound}})
	if err != nil {
		t.Fatalf("rubric.New: %v", err)
	}
	return scoring.New(engine, append([]scoring.Option{scoring.WithMetrics(m)}, opts...)...), reader
}

func ptr(f float64) *float64 { return &f }

func TestScore_Sample(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, 0.9)
	res, err := svc.Score(context.Background(), scoring.Request{Transcript: rubric.SampleTranscript})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.OverallScore != 84 {
		t.Errorf("OverallScore = %v, want 84", res.OverallScore)
	}
	if res.Grade != rubric.GradeGood {
		t.Errorf("Grade = %q, want Good", res.Grade)
	}
	if res.DurationSeconds != 52 {
		t.Errorf("DurationSeconds = %v, want default 52", res.DurationSeconds)
	}
	if res.Language != "en" {
		t.Errorf("Language = %q, want en", res.Language)
	}
}

func TestScore_ExplicitDuration(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, 0.9, scoring.WithDefaultDuration(30))
	res, err := svc.Score(context.Background(), scoring.Request{Transcript: "hello there friend", DurationSeconds: ptr(0)})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	rate, _ := res.Criterion(rubric.CriterionRate)
	if rate.Feedback != "Duration not provided" {
		t.Errorf("rate feedback = %q, want unknown duration", rate.Feedback)
	}
	if res.DurationSeconds != 0 {
		t.Errorf("DurationSeconds = %v, want 0", res.DurationSeconds)
	}
}

func TestScore_Errors(t *testing.T) {
	t.Parallel()

	svc, reader := newService(t, 0)

	if _, err := svc.Score(context.Background(), scoring.Request{Transcript: " \n\t"}); !errors.Is(err, scoring.ErrEmptyTranscript) {
		t.Errorf("blank error = %v, want ErrEmptyTranscript", err)
	}
	_, err := svc.Score(context.Background(), scoring.Request{Transcript: "bin\x00ary"})
	var invalid *rubric.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("binary error = %v, want *rubric.InvalidInputError", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	statuses := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "introscore.score.requests" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value("status")
				statuses[v.AsString()] += dp.Value
			}
		}
	}
	if statuses["empty"] != 1 || statuses["invalid"] != 1 {
		t.Errorf("statuses = %v, want empty=1 invalid=1", statuses)
	}
}

func TestScore_NonEnglish(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, 0)
	res, err := svc.Score(context.Background(), scoring.Request{
		Transcript: "Hola a todos, me llamo Lucía y tengo trece años. Vivo con mi familia en una casa pequeña cerca del mar.",
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Language == "en" {
		t.Errorf("Language = %q, want a non-English code", res.Language)
	}
}

func TestSwap(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, 0.9)
	lex := rubric.DefaultLexicon()
	lex.Fillers = []string{"hello"}
	next, err := rubric.New(&mock.Analyzer{Default: sentiment.Scores{Compound: 0.9}}, rubric.WithLexicon(lex))
	if err != nil {
		t.Fatalf("rubric.New: %v", err)
	}

	prev := svc.Swap(next)
	if prev == nil || svc.Engine() != next {
		t.Fatal("Swap did not install the new engine")
	}
	res, err := svc.Score(context.Background(), scoring.Request{Transcript: "hello hello world"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	filler, _ := res.Criterion(rubric.CriterionFiller)
	if filler.Score != 4 {
		t.Errorf("filler score = %v, want 4 with swapped lexicon", filler.Score)
	}
}

func TestScore_ConcurrentWithSwap(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, 0.9)
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 20 {
				if _, err := svc.Score(context.Background(), scoring.Request{Transcript: rubric.SampleTranscript}); err != nil {
					t.Errorf("Score: %v", err)
					return
				}
			}
		})
	}
	wg.Go(func() {
		for range 20 {
			e, err := rubric.New(&mock.Analyzer{})
			if err != nil {
				t.Errorf("rubric.New: %v", err)
				return
			}
			svc.Swap(e)
		}
	})
	wg.Wait()
}

func TestResult_Encoding(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, 0.9)
	res, err := svc.Score(context.Background(), scoring.Request{Transcript: rubric.SampleTranscript})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	for _, key := range []string{"overall_score", "word_count", "sentence_count", "criteria_scores", "grade", "language"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("JSON missing top-level %q", key)
		}
	}

	out, err := yaml.Marshal(res)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	var y map[string]any
	if err := yaml.Unmarshal(out, &y); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if y["overall_score"] != 84.0 && y["overall_score"] != 84 {
		t.Errorf("YAML overall_score = %v, want 84", y["overall_score"])
	}
}
