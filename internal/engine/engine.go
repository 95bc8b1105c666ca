// Package engine is the operator-level facade over the management bridge.
// It owns the provider session and namespace connection, turns catalog
// objects into plain reports, and records method invocations in the
// history store.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/wbemctl/internal/history"
	"github.com/leapstack-labs/wbemctl/internal/wbem"
	"github.com/leapstack-labs/wbemctl/pkg/core"
	"github.com/leapstack-labs/wbemctl/pkg/provider"
)

// Engine runs catalog operations against one namespace.
type Engine struct {
	// Provider connection (lazy initialized)
	providerCfg provider.Config
	subsystem   core.Subsystem
	session     *wbem.Session
	services    *wbem.Services
	connected   bool
	connMu      sync.Mutex

	namespace string
	security  core.Security
	logger    *slog.Logger
	store     history.Store
}

// Config holds engine configuration.
type Config struct {
	// Provider is the registered provider name (e.g. "ole", "fixture")
	Provider string
	// Fixture is the catalog file for the fixture provider (optional)
	Fixture string
	// Subsystem overrides the registry lookup when set
	Subsystem core.Subsystem
	// Namespace to connect to (wbem.DefaultNamespace when empty)
	Namespace string
	// Security policy (core.DefaultSecurity when nil)
	Security *core.Security
	// HistoryPath is the SQLite invocation log; empty disables history
	HistoryPath string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. The provider is connected on first use, so
// commands that only read history never touch the catalog.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = wbem.DefaultNamespace
	}
	security := core.DefaultSecurity()
	if cfg.Security != nil {
		security = *cfg.Security
	}
	if cfg.Provider == "" && cfg.Subsystem == nil {
		return nil, fmt.Errorf("provider type not specified")
	}

	logger.Debug("initializing engine", "provider", cfg.Provider, "namespace", namespace)

	var store history.Store
	if cfg.HistoryPath != "" {
		s := history.NewSQLiteStore()
		if err := s.Open(cfg.HistoryPath); err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to migrate history store: %w", err)
		}
		store = s
	}

	return &Engine{
		providerCfg: provider.Config{Type: cfg.Provider, Fixture: cfg.Fixture},
		subsystem:   cfg.Subsystem,
		namespace:   namespace,
		security:    security,
		logger:      logger,
		store:       store,
	}, nil
}

// Namespace returns the namespace the engine targets.
func (e *Engine) Namespace() string {
	return e.namespace
}

// HistoryEnabled reports whether invocations are recorded.
func (e *Engine) HistoryEnabled() bool {
	return e.store != nil
}

// ensureConnected lazily initializes the provider and connects.
func (e *Engine) ensureConnected() (*wbem.Services, error) {
	e.connMu.Lock()
	defer e.connMu.Unlock()

	if e.connected {
		return e.services, nil
	}

	sub := e.subsystem
	if sub == nil {
		var err error
		sub, err = provider.New(e.providerCfg, e.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
		e.subsystem = sub
	}

	session, err := wbem.Initialize(sub, e.logger)
	if err != nil {
		return nil, err
	}
	services, err := wbem.Connect(session, e.namespace,
		wbem.WithSecurity(e.security), wbem.WithLogger(e.logger))
	if err != nil {
		session.Close()
		return nil, err
	}

	e.session = session
	e.services = services
	e.connected = true
	return services, nil
}

// Close releases the connection, the session and the history store.
func (e *Engine) Close() error {
	e.connMu.Lock()
	if e.connected {
		e.services.Release()
		e.session.Close()
		e.services = nil
		e.session = nil
		e.connected = false
	}
	e.connMu.Unlock()

	if e.store != nil {
		if err := e.store.Close(); err != nil {
			return fmt.Errorf("failed to close history store: %w", err)
		}
		e.store = nil
	}
	return nil
}

// History returns up to limit recorded invocations, newest first.
func (e *Engine) History(limit int) ([]*history.Invocation, error) {
	if e.store == nil {
		return nil, fmt.Errorf("history is disabled")
	}
	return e.store.List(limit)
}

// Invocation returns one recorded invocation by ID.
func (e *Engine) Invocation(id string) (*history.Invocation, error) {
	if e.store == nil {
		return nil, fmt.Errorf("history is disabled")
	}
	return e.store.Get(id)
}
