// Package app wires the introscore subsystems into a running application.
//
// The App struct owns the full lifecycle: New builds the sentiment analyzer,
// the rubric engine and the scoring service from the config, Run serves the
// HTTP API and follows config file changes, and Shutdown tears everything
// down in order.
//
// For testing, inject doubles via functional options (WithRegistry,
// WithMetrics, WithListener). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/introscore/internal/config"
	"github.com/MrWong99/introscore/internal/health"
	"github.com/MrWong99/introscore/internal/observe"
	"github.com/MrWong99/introscore/internal/rubric"
	"github.com/MrWong99/introscore/internal/scoring"
	"github.com/MrWong99/introscore/internal/server"
	"github.com/MrWong99/introscore/pkg/provider/sentiment"
	"github.com/MrWong99/introscore/pkg/provider/sentiment/vader"
)

// Version is reported in telemetry resource attributes. Overridden at link
// time.
var Version = "dev"

// App owns all subsystem lifetimes.
type App struct {
	mu  sync.Mutex
	cfg *config.Config

	registry      *config.Registry
	telemetry     *observe.Telemetry
	metrics       *observe.Metrics
	level         *slog.LevelVar
	scorer        *scoring.Service
	configPath    string
	watchInterval time.Duration
	listener      net.Listener
	watcher       *config.Watcher

	// closers are called in order during Shutdown.
	closers []func(context.Context) error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithRegistry injects the sentiment registry instead of [NewRegistry].
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithMetrics injects metric instruments. No telemetry provider is started
// and /metrics is not served.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLevel lets config reloads change the log level through lv.
func WithLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithConfigPath makes Run watch path and apply changes while serving.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// WithWatchInterval sets how often the config file is polled.
func WithWatchInterval(d time.Duration) Option {
	return func(a *App) { a.watchInterval = d }
}

// WithListener makes Run serve on l instead of listening on
// server.listen_addr.
func WithListener(l net.Listener) Option {
	return func(a *App) { a.listener = l }
}

// NewRegistry returns a sentiment registry with every built-in analyzer.
func NewRegistry() *config.Registry {
	reg := config.NewRegistry()
	reg.RegisterSentiment("vader", func(config.ProviderEntry) (sentiment.Analyzer, error) {
		return vader.New(), nil
	})
	return reg
}

// New creates an App from cfg. It performs all initialisation synchronously:
// telemetry, analyzer construction, lexicon validation and engine assembly.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.registry == nil {
		a.registry = NewRegistry()
	}

	if a.metrics == nil {
		tel, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: Version,
		})
		if err != nil {
			return nil, fmt.Errorf("app: init telemetry: %w", err)
		}
		a.telemetry = tel
		a.closers = append(a.closers, tel.Shutdown)

		a.metrics, err = observe.NewMetrics(tel.MeterProvider)
		if err != nil {
			return nil, fmt.Errorf("app: init metrics: %w", err)
		}
	}

	analyzer, err := a.registry.CreateSentiment(cfg.Sentiment)
	if err != nil {
		return nil, fmt.Errorf("app: create sentiment analyzer: %w", err)
	}
	engine, err := rubric.New(analyzer, rubric.WithLexicon(cfg.Rubric.EffectiveLexicon()))
	if err != nil {
		return nil, fmt.Errorf("app: build engine: %w", err)
	}
	a.scorer = scoring.New(engine,
		scoring.WithMetrics(a.metrics),
		scoring.WithDefaultDuration(cfg.Rubric.DefaultDurationSeconds),
	)

	slog.Info("engine ready",
		"sentiment", analyzer.Name(),
		"must_have", len(engine.Lexicon().MustHave),
		"bonus", len(engine.Lexicon().Bonus),
		"default_duration_seconds", cfg.Rubric.DefaultDurationSeconds,
	)
	return a, nil
}

// Scorer returns the scoring service.
func (a *App) Scorer() *scoring.Service { return a.scorer }

// Metrics returns the metric instruments in use.
func (a *App) Metrics() *observe.Metrics { return a.metrics }

// Config returns the config most recently applied.
func (a *App) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Handler returns the HTTP API handler.
func (a *App) Handler() http.Handler {
	cfg := a.Config()
	opts := []server.Option{
		server.WithMetrics(a.metrics),
		server.WithMaxBytes(cfg.Server.MaxUploadBytes),
		server.WithHealth(health.New(a.analyzerCheck())),
	}
	if a.telemetry != nil {
		opts = append(opts, server.WithMetricsHandler(a.telemetry.Handler))
	}
	return server.New(a.scorer, opts...).Handler()
}

// analyzerCheck probes whichever analyzer the current engine uses.
func (a *App) analyzerCheck() health.Checker {
	return health.Checker{
		Name: "sentiment",
		Check: func(ctx context.Context) error {
			return health.AnalyzerCheck(a.scorer.Engine().Analyzer()).Check(ctx)
		},
	}
}

// ApplyConfig compares next with the current config and applies every
// hot-reloadable change. Fields that need a restart are only logged. On
// error the previous engine stays in place.
func (a *App) ApplyConfig(ctx context.Context, next *config.Config) (config.ConfigDiff, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	d := config.Diff(a.cfg, next)
	if d.Empty() {
		return d, nil
	}

	if d.EngineChanged() {
		analyzer := a.scorer.Engine().Analyzer()
		if d.SentimentChanged {
			var err error
			analyzer, err = a.registry.CreateSentiment(next.Sentiment)
			if err != nil {
				a.metrics.RecordReload(ctx, "error")
				return d, fmt.Errorf("app: reload sentiment analyzer: %w", err)
			}
		}
		engine, err := rubric.New(analyzer, rubric.WithLexicon(next.Rubric.EffectiveLexicon()))
		if err != nil {
			a.metrics.RecordReload(ctx, "error")
			return d, fmt.Errorf("app: rebuild engine: %w", err)
		}
		a.scorer.Swap(engine)
		slog.Info("engine reloaded", "sentiment", analyzer.Name(), "lexicon_tables", d.LexiconTables)
	}
	if d.DefaultDurationChanged {
		a.scorer.SetDefaultDuration(next.Rubric.DefaultDurationSeconds)
		slog.Info("default duration changed", "seconds", next.Rubric.DefaultDurationSeconds)
	}
	if d.LogLevelChanged && a.level != nil {
		a.level.Set(d.NewLogLevel.SlogLevel())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	for _, field := range d.RestartRequired {
		slog.Warn("config change requires a restart", "field", field)
	}

	a.metrics.RecordReload(ctx, "ok")
	a.cfg = next
	return d, nil
}

// Run serves the HTTP API until ctx is cancelled, then drains in-flight
// requests within server.shutdown_timeout. When a config path was given the
// file is watched for the lifetime of Run.
func (a *App) Run(ctx context.Context) error {
	cfg := a.Config()

	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath,
			func(_, next *config.Config) {
				if _, err := a.ApplyConfig(ctx, next); err != nil {
					slog.Error("config reload failed", "err", err)
				}
			},
			config.WithInterval(a.watchInterval),
			config.WithErrorHandler(func(error) {
				a.metrics.RecordReload(ctx, "invalid")
			}),
		)
		if err != nil {
			return fmt.Errorf("app: watch config: %w", err)
		}
		a.watcher = w
		defer w.Stop()
	}

	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("app: listen: %w", err)
		}
	}

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Shutdown stops the config watcher and flushes telemetry. It is safe to
// call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.watcher != nil {
			a.watcher.Stop()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
