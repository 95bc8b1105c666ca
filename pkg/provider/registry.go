// Package provider holds the registry of instrumentation providers.
//
// A provider implements the contract in pkg/core for one backend (the
// Windows WMI service, an in-memory fixture catalog, ...). Concrete
// providers live in pkg/providers/ subdirectories and register
// themselves from init().
package provider

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// Config selects and parameterises a provider.
type Config struct {
	// Type is the registered provider name (e.g. "ole", "fixture").
	Type string

	// Fixture is the catalog file used by file-backed providers.
	Fixture string
}

// Factory builds a provider subsystem.
type Factory func(cfg Config, logger *slog.Logger) (core.Subsystem, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a provider factory to the registry.
// Called by provider implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a provider factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates a provider subsystem based on cfg.Type.
// A nil logger is replaced by a discard logger.
func New(cfg Config, logger *slog.Logger) (core.Subsystem, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("provider type not specified")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownProviderError{
			Type:      cfg.Type,
			Available: List(),
		}
	}
	return factory(cfg, logger.With("provider", cfg.Type))
}

// List returns all registered provider names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a provider is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownProviderError is returned when an unknown provider is requested.
type UnknownProviderError struct {
	Type      string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q\nAvailable providers: %v\nHint: Check provider in wbemctl.yaml or --provider", e.Type, e.Available)
}
