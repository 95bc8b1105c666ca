package wbem

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// Kind classifies bridge failures.
type Kind int

// Error kinds.
const (
	KindPointerNull Kind = iota + 1
	KindConnectFailure
	KindQueryFailure
	KindNotFound
	KindAccessFailure
	KindSchemaFailure
	KindPropertyNotFound
	KindCoercionFailure
	KindArrayCleanupFailure
	KindInvokeFailure
)

var kindNames = map[Kind]string{
	KindPointerNull:         "pointer null",
	KindConnectFailure:      "connect failure",
	KindQueryFailure:        "query failure",
	KindNotFound:            "not found",
	KindAccessFailure:       "access failure",
	KindSchemaFailure:       "schema failure",
	KindPropertyNotFound:    "property not found",
	KindCoercionFailure:     "coercion failure",
	KindArrayCleanupFailure: "array cleanup failure",
	KindInvokeFailure:       "invoke failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrPointerNull         = errors.New(KindPointerNull.String())
	ErrConnectFailure      = errors.New(KindConnectFailure.String())
	ErrQueryFailure        = errors.New(KindQueryFailure.String())
	ErrNotFound            = errors.New(KindNotFound.String())
	ErrAccessFailure       = errors.New(KindAccessFailure.String())
	ErrSchemaFailure       = errors.New(KindSchemaFailure.String())
	ErrPropertyNotFound    = errors.New(KindPropertyNotFound.String())
	ErrCoercionFailure     = errors.New(KindCoercionFailure.String())
	ErrArrayCleanupFailure = errors.New(KindArrayCleanupFailure.String())
	ErrInvokeFailure       = errors.New(KindInvokeFailure.String())
)

var sentinels = map[Kind]error{
	KindPointerNull:         ErrPointerNull,
	KindConnectFailure:      ErrConnectFailure,
	KindQueryFailure:        ErrQueryFailure,
	KindNotFound:            ErrNotFound,
	KindAccessFailure:       ErrAccessFailure,
	KindSchemaFailure:       ErrSchemaFailure,
	KindPropertyNotFound:    ErrPropertyNotFound,
	KindCoercionFailure:     ErrCoercionFailure,
	KindArrayCleanupFailure: ErrArrayCleanupFailure,
	KindInvokeFailure:       ErrInvokeFailure,
}

// Error is a bridge failure. Status carries the provider status that
// caused it (StatusOK when the bridge itself detected the problem) and
// Location the file:line where the failure was converted.
type Error struct {
	Kind     Kind
	Status   core.Status
	Op       string
	Location string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Status != core.StatusOK {
		msg += ": " + e.Status.String()
	}
	var se *core.StatusError
	if e.Err != nil && !errors.As(e.Err, &se) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target != nil && sentinels[e.Kind] == target
}

// newError converts err at the caller's location. A nil err records a
// failure detected by the bridge itself.
func newError(kind Kind, op string, err error) *Error {
	e := &Error{Kind: kind, Op: op, Err: err, Location: location(2)}
	if err != nil {
		e.Status = core.StatusOf(err)
	}
	return e
}

// errNull reports an operation on an invalid handle.
func errNull(op string) *Error {
	return &Error{Kind: KindPointerNull, Status: core.StatusPointer, Op: op, Location: location(2)}
}

// statusError records a bridge-detected failure with an explicit status.
func statusError(kind Kind, op string, status core.Status, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Status:   status,
		Op:       op,
		Location: location(2),
		Err:      fmt.Errorf(format, args...),
	}
}

func location(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// StatusOf returns the provider status carried by err's chain.
func StatusOf(err error) core.Status {
	var e *Error
	if errors.As(err, &e) && e.Status != core.StatusOK {
		return e.Status
	}
	return core.StatusOf(err)
}
