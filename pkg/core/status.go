package core

import (
	"errors"
	"fmt"
)

// Status is a 32-bit provider status code in HRESULT layout: the high bit
// marks failure.
type Status uint32

// Status codes produced or interpreted by wbemctl.
const (
	StatusOK     Status = 0x00000000
	StatusFalse  Status = 0x00000001
	StatusNoMore Status = 0x00040005 // WBEM_S_NO_MORE_DATA

	StatusNotImplemented Status = 0x80004001
	StatusPointer        Status = 0x80004003
	StatusFailed         Status = 0x80004005
	StatusAccessDenied   Status = 0x80070005
	StatusInvalidArg     Status = 0x80070057

	StatusTypeMismatch Status = 0x80020005 // DISP_E_TYPEMISMATCH
	StatusOverflow     Status = 0x8002000A // DISP_E_OVERFLOW

	StatusChangedMode  Status = 0x80010106 // RPC_E_CHANGED_MODE
	StatusDisconnected Status = 0x80010108 // RPC_E_DISCONNECTED
	StatusTooLate      Status = 0x80010119 // RPC_E_TOO_LATE

	StatusWbemFailed           Status = 0x80041001
	StatusNotFound             Status = 0x80041002
	StatusWbemAccessDenied     Status = 0x80041003
	StatusWbemTypeMismatch     Status = 0x80041005
	StatusOutOfMemory          Status = 0x80041006
	StatusInvalidParameter     Status = 0x80041008
	StatusNotSupported         Status = 0x8004100C
	StatusInvalidNamespace     Status = 0x8004100E
	StatusInvalidClass         Status = 0x80041010
	StatusInvalidQuery         Status = 0x80041017
	StatusInvalidQueryType     Status = 0x80041018
	StatusInvalidMethod        Status = 0x8004102E
	StatusInvalidMethodParams  Status = 0x8004102F
	StatusInvalidObjectPath    Status = 0x8004103A
	StatusMethodNotImplemented Status = 0x80041055
)

var statusText = map[Status]string{
	StatusOK:                   "success",
	StatusFalse:                "success (false)",
	StatusNoMore:               "no more data",
	StatusNotImplemented:       "not implemented",
	StatusPointer:              "invalid pointer",
	StatusFailed:               "unspecified failure",
	StatusAccessDenied:         "access denied",
	StatusInvalidArg:           "invalid argument",
	StatusTypeMismatch:         "type mismatch",
	StatusOverflow:             "value out of range",
	StatusChangedMode:          "apartment already initialised in a different mode",
	StatusDisconnected:         "object disconnected from its clients",
	StatusTooLate:              "security must be initialised before any interfaces are marshalled",
	StatusWbemFailed:           "call failed",
	StatusNotFound:             "object cannot be found",
	StatusWbemAccessDenied:     "current user does not have permission to perform the action",
	StatusWbemTypeMismatch:     "type mismatch",
	StatusOutOfMemory:          "not enough memory for the operation",
	StatusInvalidParameter:     "invalid parameter",
	StatusNotSupported:         "feature or operation is not supported",
	StatusInvalidNamespace:     "namespace specified cannot be found",
	StatusInvalidClass:         "specified class is not valid",
	StatusInvalidQuery:         "query was not syntactically valid",
	StatusInvalidQueryType:     "requested query language is not supported",
	StatusInvalidMethod:        "requested method is not available",
	StatusInvalidMethodParams:  "parameters provided for the method are not valid",
	StatusInvalidObjectPath:    "object path is not syntactically valid",
	StatusMethodNotImplemented: "attempt was made to execute a method not marked with implemented",
}

// Failed reports whether the status carries the failure bit.
func (s Status) Failed() bool { return s&0x80000000 != 0 }

// Text returns a human readable description of the status.
func (s Status) Text() string {
	if text, ok := statusText[s]; ok {
		return text
	}
	if s.Failed() {
		return "unrecognised failure"
	}
	return "unrecognised status"
}

// String renders the status as text plus hex code.
func (s Status) String() string {
	return fmt.Sprintf("%s (0x%08X)", s.Text(), uint32(s))
}

// StatusError is the error type returned by providers.
type StatusError struct {
	Status Status
	// Op names the provider operation that failed, e.g. "ExecQuery".
	Op string
}

func (e *StatusError) Error() string {
	if e.Op == "" {
		return e.Status.String()
	}
	return e.Op + ": " + e.Status.String()
}

// NewStatusError returns a *StatusError for op.
func NewStatusError(op string, status Status) *StatusError {
	return &StatusError{Status: status, Op: op}
}

// StatusOf extracts the status carried by err. A nil error is StatusOK;
// an error without a StatusError in its chain is StatusFailed.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return StatusFailed
}
