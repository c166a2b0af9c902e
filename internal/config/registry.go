package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/introscore/pkg/provider/sentiment"
)

// ErrProviderNotRegistered is returned by [Registry.CreateSentiment] when no
// factory has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// SentimentFactory builds an analyzer from its config entry.
type SentimentFactory func(ProviderEntry) (sentiment.Analyzer, error)

// Registry maps provider names to their constructor functions. It is safe
// for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	sentiment map[string]SentimentFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{sentiment: make(map[string]SentimentFactory)}
}

// RegisterSentiment registers a sentiment analyzer factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterSentiment(name string, factory SentimentFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sentiment[name] = factory
}

// CreateSentiment instantiates the analyzer registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for
// that name.
func (r *Registry) CreateSentiment(entry ProviderEntry) (sentiment.Analyzer, error) {
	r.mu.RLock()
	factory, ok := r.sentiment[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: sentiment/%q (registered: %v)", ErrProviderNotRegistered, entry.Name, r.SentimentNames())
	}
	a, err := factory(entry)
	if err != nil {
		return nil, fmt.Errorf("config: create sentiment/%q: %w", entry.Name, err)
	}
	return a, nil
}

// SentimentNames returns the registered analyzer names, sorted.
func (r *Registry) SentimentNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sentiment))
	for n := range r.sentiment {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
