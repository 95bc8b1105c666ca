package wbem

import (
	"log/slog"
	"sync"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// Session owns the process-wide initialization of a provider subsystem.
//
// The session is reference counted: Close drops the owner reference, and
// every Services (and through it every Object) holds one more. The
// subsystem is uninitialized when the last reference goes, so handles
// released after Close are still torn down before the subsystem.
type Session struct {
	sub    core.Subsystem
	logger *slog.Logger

	mu       sync.Mutex
	refs     int
	closed   bool
	secured  bool
	security core.Security
}

// Initialize initializes sub and returns the owning session.
// A nil logger is replaced by a discard logger.
func Initialize(sub core.Subsystem, logger *slog.Logger) (*Session, error) {
	if sub == nil {
		return nil, errNull("Initialize")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := sub.Initialize(); err != nil {
		return nil, newError(KindConnectFailure, "Initialize", err)
	}
	logger.Debug("subsystem initialized")
	return &Session{sub: sub, logger: logger, refs: 1}, nil
}

// Valid reports whether the session can open new connections.
func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.refs > 0
}

// Active reports whether the subsystem is still initialized, which
// stays true after Close while connections remain.
func (s *Session) Active() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs > 0
}

// Subsystem returns the provider subsystem.
func (s *Session) Subsystem() core.Subsystem {
	return s.sub
}

// Close drops the owner reference. It is safe to call more than once.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.release()
}

func (s *Session) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return false
	}
	s.refs++
	return true
}

func (s *Session) release() {
	s.mu.Lock()
	s.refs--
	last := s.refs == 0
	s.mu.Unlock()
	if last {
		s.sub.Uninitialize()
		s.logger.Debug("subsystem uninitialized")
	}
}

// secure applies the process security policy once. A later connection
// asking for a different policy keeps the first one.
func (s *Session) secure(sec core.Security) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secured {
		if sec != s.security {
			s.logger.Debug("process security already applied, keeping it",
				"applied", s.security.Authentication, "requested", sec.Authentication)
		}
		return nil
	}
	if err := s.sub.InitializeSecurity(sec); err != nil {
		if core.StatusOf(err) != core.StatusTooLate {
			return err
		}
		s.logger.Debug("process security was set elsewhere", "status", core.StatusTooLate)
	}
	s.secured = true
	s.security = sec
	return nil
}
