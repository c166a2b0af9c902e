package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/MrWong99/introscore/internal/app"
	"github.com/MrWong99/introscore/internal/batch"
	"github.com/MrWong99/introscore/internal/intake"
	"github.com/MrWong99/introscore/internal/observe"
	"github.com/MrWong99/introscore/internal/render"
	"github.com/MrWong99/introscore/internal/rubric"
	"github.com/MrWong99/introscore/internal/scoring"
)

func durationFlag() cli.Flag {
	return &cli.FloatFlag{
		Name:    "duration",
		Aliases: []string{"d"},
		Usage:   "spoken length in seconds; <= 0 means unknown (defaults to rubric.default_duration_seconds)",
		Value:   rubric.SampleDurationSeconds,
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"o"},
		Usage:   "output format: table, json or yaml",
		Value:   string(render.FormatTable),
	}
}

func noColorFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable grade colouring in table output",
	}
}

// renderer builds the output renderer from the format flags of c.
func renderer(c *cli.Command) (render.Renderer, error) {
	f, err := render.ParseFormat(c.String("format"))
	if err != nil {
		return render.Renderer{}, cli.Exit(err.Error(), 2)
	}
	return render.Renderer{Format: f, Color: !c.Bool("no-color")}, nil
}

// duration returns the --duration value when it was given explicitly.
func duration(c *cli.Command) *float64 {
	if !c.IsSet("duration") {
		return nil
	}
	d := c.Float("duration")
	return &d
}

// offlineApp builds an App for one-shot commands. Telemetry stays on the
// global no-op provider.
func (st *state) offlineApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, st.cfg, app.WithMetrics(observe.DefaultMetrics()), app.WithLevel(st.level))
}

func serveCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "override server.listen_addr",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if addr := c.String("listen"); addr != "" {
				st.cfg.Server.ListenAddr = addr
			}
			slog.Info("introscore starting",
				"config", st.configPath,
				"listen_addr", st.cfg.Server.ListenAddr,
				"log_level", st.cfg.Server.LogLevel,
				"sentiment", st.cfg.Sentiment.Name,
			)

			opts := []app.Option{app.WithLevel(st.level)}
			if st.configPath != "" {
				opts = append(opts, app.WithConfigPath(st.configPath))
			}
			application, err := app.New(ctx, st.cfg, opts...)
			if err != nil {
				return err
			}

			runErr := application.Run(ctx)
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				slog.Error("run error", "err", runErr)
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), st.cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := application.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			slog.Info("goodbye")
			return nil
		},
	}
}

func scoreCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "score one transcript file, or stdin when the argument is - or missing",
		ArgsUsage: "[file|-]",
		Flags:     []cli.Flag{durationFlag(), formatFlag(), noColorFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() > 1 {
				return cli.Exit("score takes at most one file; use batch for several", 2)
			}
			r, err := renderer(c)
			if err != nil {
				return err
			}

			maxBytes := st.cfg.Server.MaxUploadBytes
			var text string
			switch path := c.Args().First(); path {
			case "", "-":
				text, err = intake.Read(c.Root().Reader, maxBytes)
			default:
				text, err = intake.ReadFile(path, maxBytes)
			}
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			a, err := st.offlineApp(ctx)
			if err != nil {
				return err
			}
			res, err := a.Scorer().Score(ctx, scoring.Request{Transcript: text, DurationSeconds: duration(c)})
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return r.Result(c.Root().Writer, res)
		},
	}
}

func batchCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "score many transcript files concurrently",
		ArgsUsage: "<file> [file...]",
		Flags: []cli.Flag{
			durationFlag(), formatFlag(), noColorFlag(),
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "override batch.concurrency",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() == 0 {
				return cli.Exit("batch needs at least one file", 2)
			}
			r, err := renderer(c)
			if err != nil {
				return err
			}
			a, err := st.offlineApp(ctx)
			if err != nil {
				return err
			}

			concurrency := st.cfg.Batch.Concurrency
			if c.IsSet("concurrency") {
				concurrency = int(c.Int("concurrency"))
			}
			runner := batch.NewRunner(a.Scorer(),
				batch.WithConcurrency(concurrency),
				batch.WithMaxBytes(st.cfg.Server.MaxUploadBytes),
				batch.WithMetrics(a.Metrics()),
			)
			outcomes, err := runner.Run(ctx, batch.FromPaths(c.Args().Slice(), duration(c)))
			if err != nil {
				return err
			}
			if err := r.Batch(c.Root().Writer, outcomes); err != nil {
				return err
			}
			if s := batch.Summarize(outcomes); s.Failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d transcripts failed", s.Failed, s.Count), 1)
			}
			return nil
		},
	}
}

func rubricCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:  "rubric",
		Usage: "print the criterion weights, grade bands and active lexicon",
		Flags: []cli.Flag{formatFlag(), noColorFlag()},
		Action: func(_ context.Context, c *cli.Command) error {
			r, err := renderer(c)
			if err != nil {
				return err
			}
			lex := st.cfg.Rubric.EffectiveLexicon()
			if err := lex.Validate(); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return r.Lexicon(c.Root().Writer, lex)
		},
	}
}
