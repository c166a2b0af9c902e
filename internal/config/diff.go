package config

import (
	"slices"

	"github.com/MrWong99/introscore/internal/rubric"
)

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// LexiconTables names the lexicon tables whose effective content changed.
	LexiconTables []string

	DefaultDurationChanged bool
	SentimentChanged       bool

	// RestartRequired names changed fields that only take effect on restart.
	RestartRequired []string
}

// EngineChanged reports whether the scoring engine must be rebuilt.
func (d ConfigDiff) EngineChanged() bool {
	return len(d.LexiconTables) > 0 || d.SentimentChanged
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.EngineChanged() && !d.DefaultDurationChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Rubric.DefaultDurationSeconds != new.Rubric.DefaultDurationSeconds {
		d.DefaultDurationChanged = true
	}
	if old.Sentiment.Name != new.Sentiment.Name {
		d.SentimentChanged = true
	}
	d.LexiconTables = diffLexicon(old.Rubric.EffectiveLexicon(), new.Rubric.EffectiveLexicon())

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Server.ReadTimeout != new.Server.ReadTimeout {
		d.RestartRequired = append(d.RestartRequired, "server.read_timeout")
	}
	if old.Batch.Concurrency != new.Batch.Concurrency {
		d.RestartRequired = append(d.RestartRequired, "batch.concurrency")
	}
	if old.Telemetry.ServiceName != new.Telemetry.ServiceName {
		d.RestartRequired = append(d.RestartRequired, "telemetry.service_name")
	}
	return d
}

func diffLexicon(old, new rubric.Lexicon) []string {
	var changed []string
	if !slices.EqualFunc(old.MustHave, new.MustHave, equalCategory) {
		changed = append(changed, "must_have")
	}
	if !slices.EqualFunc(old.Bonus, new.Bonus, equalCategory) {
		changed = append(changed, "bonus")
	}
	tables := []struct {
		name     string
		old, new []string
	}{
		{"fillers", old.Fillers, new.Fillers},
		{"enthusiastic", old.Enthusiastic, new.Enthusiastic},
		{"formal", old.Formal, new.Formal},
		{"casual", old.Casual, new.Casual},
		{"self_introductions", old.SelfIntroductions, new.SelfIntroductions},
		{"closings", old.Closings, new.Closings},
	}
	for _, t := range tables {
		if !slices.Equal(t.old, t.new) {
			changed = append(changed, t.name)
		}
	}
	return changed
}

func equalCategory(a, b rubric.Category) bool {
	return a.Name == b.Name && slices.Equal(a.Phrases, b.Phrases)
}
