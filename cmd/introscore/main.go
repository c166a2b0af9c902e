// Command introscore scores spoken self-introduction transcripts, either as
// an HTTP service or one-off from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/MrWong99/introscore/internal/app"
	"github.com/MrWong99/introscore/internal/config"
)

// configEnv names the environment variable that selects the config file.
const configEnv = "INTROSCORE_CONFIG"

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "introscore: load .env: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand(stdin, stdout).Run(ctx, args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			fmt.Fprintf(os.Stderr, "introscore: %v\n", err)
			return exit.ExitCode()
		}
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "introscore: %v\n", err)
		return 1
	}
	return 0
}

// state is shared by the root command and its subcommands. It is filled in
// by the root Before hook.
type state struct {
	cfg        *config.Config
	configPath string
	level      *slog.LevelVar
}

func newCommand(stdin io.Reader, stdout io.Writer) *cli.Command {
	st := &state{level: new(slog.LevelVar)}
	return &cli.Command{
		Name:    "introscore",
		Usage:   "score spoken self-introduction transcripts",
		Version: app.Version,
		Reader:  stdin,
		Writer:  stdout,
		// Exit codes are mapped in run.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file (defaults apply when unset)",
				Sources: cli.EnvVars(configEnv),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override server.log_level (debug, info, warn, error)",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, st.load(c.String("config"), c.String("log-level"))
		},
		Commands: []*cli.Command{
			serveCommand(st),
			scoreCommand(st),
			batchCommand(st),
			rubricCommand(st),
		},
	}
}

// load reads the config file, when given, and installs the logger.
func (st *state) load(path, level string) error {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return cli.Exit(fmt.Sprintf("config file %q not found, copy configs/example.yaml to get started", path), 1)
			}
			return cli.Exit(err.Error(), 1)
		}
	}
	if level != "" {
		lvl := config.LogLevel(level)
		if !lvl.IsValid() {
			return cli.Exit(fmt.Sprintf("invalid --log-level %q", level), 1)
		}
		cfg.Server.LogLevel = lvl
	}

	st.cfg = cfg
	st.configPath = path
	st.level.Set(cfg.Server.LogLevel.SlogLevel())
	slog.SetDefault(newLogger(st.level))
	return nil
}

func newLogger(level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
