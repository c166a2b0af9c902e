package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/introscore/internal/app"
	"github.com/MrWong99/introscore/internal/config"
	"github.com/MrWong99/introscore/internal/observe"
	"github.com/MrWong99/introscore/internal/rubric"
	"github.com/MrWong99/introscore/internal/scoring"
	"github.com/MrWong99/introscore/pkg/provider/sentiment"
	"github.com/MrWong99/introscore/pkg/provider/sentiment/mock"
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func testRegistry(compound float64) *config.Registry {
	reg := config.NewRegistry()
	reg.RegisterSentiment("vader", func(config.ProviderEntry) (sentiment.Analyzer, error) {
		return &mock.Analyzer{Default: sentiment.Scores{Compound: compound}, NameValue: "vader"}, nil
	})
	reg.RegisterSentiment("grumpy", func(config.ProviderEntry) (sentiment.Analyzer, error) {
		return &mock.Analyzer{Default: sentiment.Scores{Compound: -0.5}, NameValue: "grumpy"}, nil
	})
	return reg
}

func newApp(t *testing.T, cfg *config.Config, opts ...app.Option) *app.App {
	t.Helper()
	opts = append([]app.Option{
		app.WithMetrics(testMetrics(t)),
		app.WithRegistry(testRegistry(0.9)),
	}, opts...)
	a, err := app.New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return a
}

func TestNew_ScoresSample(t *testing.T) {
	t.Parallel()

	a := newApp(t, config.Default())
	res, err := a.Scorer().Score(context.Background(), scoring.Request{Transcript: rubric.SampleTranscript})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.OverallScore != 84 {
		t.Errorf("OverallScore = %v, want 84", res.OverallScore)
	}
}

func TestNew_UnknownSentiment(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Sentiment.Name = "afinn"
	_, err := app.New(context.Background(), cfg,
		app.WithMetrics(testMetrics(t)),
		app.WithRegistry(testRegistry(0.9)),
	)
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("New() error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestNew_StartsTelemetry(t *testing.T) {
	cfg, err := config.Load("../../configs/example.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a, err := app.New(context.Background(), cfg, app.WithRegistry(testRegistry(0.9)))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	h := a.Handler()
	body, _ := json.Marshal(map[string]any{"transcript": rubric.SampleTranscript})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/score", strings.NewReader(string(body))))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/score = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", rec.Code)
	}
	for _, want := range []string{"go_goroutines", "introscore_score_requests"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}

func TestNewRegistry_HasVader(t *testing.T) {
	t.Parallel()

	names := app.NewRegistry().SentimentNames()
	if len(names) != 1 || names[0] != "vader" {
		t.Errorf("SentimentNames() = %v, want [vader]", names)
	}
}

func TestApplyConfig(t *testing.T) {
	t.Parallel()

	var level slog.LevelVar
	a := newApp(t, config.Default(), app.WithLevel(&level))
	before := a.Scorer().Engine()

	next := config.Default()
	next.Server.LogLevel = config.LogDebug
	next.Rubric.DefaultDurationSeconds = 30
	next.Rubric.Lexicon.Fillers = []string{"basically"}
	next.Server.ListenAddr = ":9999"

	d, err := a.ApplyConfig(context.Background(), next)
	if err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	if !d.EngineChanged() {
		t.Error("EngineChanged() = false, want true")
	}
	if a.Scorer().Engine() == before {
		t.Error("engine was not swapped")
	}
	if got := a.Scorer().Engine().Lexicon().Fillers; len(got) != 1 || got[0] != "basically" {
		t.Errorf("Fillers = %v, want [basically]", got)
	}
	if got := a.Scorer().DefaultDuration(); got != 30 {
		t.Errorf("DefaultDuration() = %v, want 30", got)
	}
	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", level.Level())
	}
	if len(d.RestartRequired) != 1 || d.RestartRequired[0] != "server.listen_addr" {
		t.Errorf("RestartRequired = %v, want [server.listen_addr]", d.RestartRequired)
	}
	if a.Config() != next {
		t.Error("Config() was not updated")
	}
}

func TestApplyConfig_SwitchesAnalyzer(t *testing.T) {
	t.Parallel()

	a := newApp(t, config.Default())
	next := config.Default()
	next.Sentiment.Name = "grumpy"

	if _, err := a.ApplyConfig(context.Background(), next); err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	if got := a.Scorer().Engine().Analyzer().Name(); got != "grumpy" {
		t.Errorf("analyzer = %q, want grumpy", got)
	}
}

func TestApplyConfig_KeepsEngineOnError(t *testing.T) {
	t.Parallel()

	a := newApp(t, config.Default())
	before := a.Scorer().Engine()
	next := config.Default()
	next.Sentiment.Name = "missing"

	if _, err := a.ApplyConfig(context.Background(), next); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("ApplyConfig error = %v, want ErrProviderNotRegistered", err)
	}
	if a.Scorer().Engine() != before {
		t.Error("engine swapped despite error")
	}
	if a.Config().Sentiment.Name != "vader" {
		t.Errorf("Config().Sentiment.Name = %q, want vader", a.Config().Sentiment.Name)
	}
}

func TestApplyConfig_NoChange(t *testing.T) {
	t.Parallel()

	a := newApp(t, config.Default())
	before := a.Scorer().Engine()
	d, err := a.ApplyConfig(context.Background(), config.Default())
	if err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	if !d.Empty() {
		t.Errorf("diff = %+v, want empty", d)
	}
	if a.Scorer().Engine() != before {
		t.Error("engine swapped for identical config")
	}
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return ln
}

func postSample(t *testing.T, addr string) map[string]any {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"transcript": rubric.SampleTranscript})
	resp, err := http.Post("http://"+addr+"/v1/score", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("POST /v1/score: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestApp_RunAndShutdown(t *testing.T) {
	t.Parallel()

	ln := listen(t)
	a := newApp(t, config.Default(), app.WithListener(ln))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
	}()

	out := postSample(t, ln.Addr().String())
	if out["grade"] != "Good" {
		t.Errorf("grade = %v, want Good", out["grade"])
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return within 5s after context cancellation")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	// Second call is a no-op.
	if err := a.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("second Shutdown() error: %v", err)
	}
}

func TestApp_ReloadsWatchedConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rubric:\n  default_duration_seconds: 52\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ln := listen(t)
	a := newApp(t, cfg,
		app.WithListener(ln),
		app.WithConfigPath(path),
		app.WithWatchInterval(10*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	// Wait for the server so the watcher has taken its initial snapshot.
	postSample(t, ln.Addr().String())

	// Ensure the mtime moves on coarse filesystems.
	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(path, []byte("rubric:\n  default_duration_seconds: 104\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Second)
	_ = os.Chtimes(path, future, future)

	deadline := time.Now().Add(3 * time.Second)
	for a.Scorer().DefaultDuration() != 104 {
		if time.Now().After(deadline) {
			t.Fatalf("DefaultDuration() = %v, want 104 after reload", a.Scorer().DefaultDuration())
		}
		time.Sleep(10 * time.Millisecond)
	}

	out := postSample(t, ln.Addr().String())
	if out["duration_seconds"] != 104.0 {
		t.Errorf("duration_seconds = %v, want 104", out["duration_seconds"])
	}

	cancel()
	<-errCh
	_ = a.Shutdown(context.Background())
}
