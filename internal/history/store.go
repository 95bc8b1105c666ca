// Package history records method invocations in a SQLite audit log.
//
// The log is write-mostly: it is read back only by the history command
// and is never consulted to answer a call.
package history

import "time"

// Status is the outcome of an invocation.
type Status string

// Invocation outcomes.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Invocation is one recorded method call.
type Invocation struct {
	ID          string            `json:"id"`
	Namespace   string            `json:"namespace"`
	Path        string            `json:"path"`
	Method      string            `json:"method"`
	Inputs      map[string]string `json:"inputs"`
	Outputs     map[string]string `json:"outputs"`
	ReturnValue string            `json:"return_value"`
	Status      Status            `json:"status"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	DurationMs  int64             `json:"duration_ms"`
}

// Store persists invocations.
type Store interface {
	// Open opens the store at path (":memory:" for an in-memory store).
	Open(path string) error

	// Close releases the store.
	Close() error

	// Migrate applies pending schema migrations.
	Migrate() error

	// Record saves inv, assigning an ID when it has none.
	Record(inv *Invocation) error

	// List returns up to limit invocations, newest first. A limit of
	// zero or less returns all of them.
	List(limit int) ([]*Invocation, error)

	// Get returns one invocation by ID.
	Get(id string) (*Invocation, error)
}
