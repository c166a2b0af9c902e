package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// KnownSentimentProviders lists the analyzer names shipped with introscore.
// [Validate] warns about names outside this list.
var KnownSentimentProviders = []string{"vader"}

// maxBatchConcurrency bounds batch.concurrency.
const maxBatchConcurrency = 256

// Load reads the YAML configuration file at path and returns a defaulted,
// validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. Unknown keys are rejected. An empty document yields
// [Default].
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout %s must not be negative", cfg.Server.ReadTimeout))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", cfg.Server.ShutdownTimeout))
	}
	if cfg.Server.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes %d must not be negative", cfg.Server.MaxUploadBytes))
	}

	// Sentiment
	if cfg.Sentiment.Name == "" {
		errs = append(errs, errors.New("sentiment.name is required"))
	} else if !slices.Contains(KnownSentimentProviders, cfg.Sentiment.Name) {
		slog.Warn("unknown sentiment provider; it must be registered before startup",
			"name", cfg.Sentiment.Name,
			"known", KnownSentimentProviders,
		)
	}

	// Rubric
	if d := cfg.Rubric.DefaultDurationSeconds; math.IsNaN(d) || math.IsInf(d, 0) {
		errs = append(errs, fmt.Errorf("rubric.default_duration_seconds %v must be a finite number", d))
	}
	if err := cfg.Rubric.EffectiveLexicon().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rubric.lexicon: %w", err))
	}

	// Batch
	if c := cfg.Batch.Concurrency; c < 0 || c > maxBatchConcurrency {
		errs = append(errs, fmt.Errorf("batch.concurrency %d is out of range [1, %d]", c, maxBatchConcurrency))
	}

	return errors.Join(errs...)
}
