// Package config provides the configuration schema, loader, sentiment
// analyzer registry and file watcher for the introscore service.
package config

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/MrWong99/introscore/internal/rubric"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to its [slog.Level]. Unknown levels map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Defaults applied by [Config.ApplyDefaults].
const (
	DefaultListenAddr      = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxUploadBytes  = 1 << 20
	DefaultSentiment       = "vader"
	DefaultServiceName     = "introscore"
)

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader]; [Default] returns the
// configuration used when no file is given.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sentiment ProviderEntry   `yaml:"sentiment"`
	Rubric    RubricConfig    `yaml:"rubric"`
	Batch     BatchConfig     `yaml:"batch"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP API listens on (e.g. ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Hot-reloadable.
	LogLevel LogLevel `yaml:"log_level"`

	// ReadTimeout bounds reading an entire request, body included.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxUploadBytes caps transcript uploads and JSON bodies.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// ProviderEntry selects a registered provider by name. Options are passed
// to the factory unchanged.
type ProviderEntry struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
}

// RubricConfig tunes the scoring engine. Hot-reloadable.
type RubricConfig struct {
	// DefaultDurationSeconds is assumed when a caller gives no duration. A
	// negative value makes unknown durations score as unknown.
	DefaultDurationSeconds float64 `yaml:"default_duration_seconds"`

	// Lexicon overrides individual tables of [rubric.DefaultLexicon]. Tables
	// left empty keep their defaults.
	Lexicon rubric.Lexicon `yaml:"lexicon"`
}

// EffectiveLexicon returns the default lexicon with c's overrides applied.
func (c RubricConfig) EffectiveLexicon() rubric.Lexicon {
	return rubric.DefaultLexicon().Merge(c.Lexicon)
}

// BatchConfig controls batch scoring.
type BatchConfig struct {
	// Concurrency is the number of transcripts scored in parallel.
	Concurrency int `yaml:"concurrency"`
}

// TelemetryConfig configures OpenTelemetry resource attributes.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every zero-valued field with its default.
func (c *Config) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Sentiment.Name == "" {
		c.Sentiment.Name = DefaultSentiment
	}
	if c.Rubric.DefaultDurationSeconds == 0 {
		c.Rubric.DefaultDurationSeconds = rubric.SampleDurationSeconds
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = runtime.NumCPU()
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
}
