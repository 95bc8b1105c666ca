package fixture

import (
	"strings"
	"sync"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// Operation names accepted by Faults. They match the provider contract
// method names, with cursor fetches split by source.
const (
	OpInitialize             = "Initialize"
	OpInitializeSecurity     = "InitializeSecurity"
	OpNewLocator             = "NewLocator"
	OpConnectServer          = "ConnectServer"
	OpSetProxyBlanket        = "SetProxyBlanket"
	OpExecQuery              = "ExecQuery"
	OpQueryNext              = "QueryNext"
	OpInstancesOf            = "InstancesOf"
	OpInstanceNext           = "InstanceNext"
	OpGetObject              = "GetObject"
	OpExecMethod             = "ExecMethod"
	OpGet                    = "Get"
	OpPut                    = "Put"
	OpNames                  = "Names"
	OpLowerBound             = "LowerBound"
	OpUpperBound             = "UpperBound"
	OpElement                = "Element"
	OpDestroy                = "Destroy"
	OpBeginMethodEnumeration = "BeginMethodEnumeration"
	OpNextMethod             = "NextMethod"
	OpGetMethod              = "GetMethod"
	OpSpawnInstance          = "SpawnInstance"
	OpBeginEnumeration       = "BeginEnumeration"
	OpNext                   = "Next"
)

type fault struct {
	status core.Status
	after  int
	calls  int
	match  string
}

// Faults injects provider failures for tests. Each operation can fail
// immediately or after a number of successful calls, optionally only when
// its argument (class, path, property or method name) matches.
type Faults struct {
	mu     sync.Mutex
	faults map[string]*fault
}

// Set makes every call of op fail with status.
func (f *Faults) Set(op string, status core.Status) {
	f.SetAfter(op, 0, status)
}

// SetAfter lets op succeed after times, then fail with status.
func (f *Faults) SetAfter(op string, after int, status core.Status) {
	f.set(op, &fault{status: status, after: after})
}

// SetFor makes op fail with status only when its argument equals arg
// (case-insensitive).
func (f *Faults) SetFor(op, arg string, status core.Status) {
	f.set(op, &fault{status: status, match: arg})
}

// Clear removes the fault for op.
func (f *Faults) Clear(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.faults, op)
}

// Reset removes all faults.
func (f *Faults) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = nil
}

func (f *Faults) set(op string, ft *fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.faults == nil {
		f.faults = make(map[string]*fault)
	}
	f.faults[op] = ft
}

// check returns the injected error for op, if any.
func (f *Faults) check(op, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft, ok := f.faults[op]
	if !ok {
		return nil
	}
	if ft.match != "" && !strings.EqualFold(ft.match, arg) {
		return nil
	}
	if ft.calls < ft.after {
		ft.calls++
		return nil
	}
	return core.NewStatusError(op, ft.status)
}

// Stats counts live provider objects and contract violations.
type Stats struct {
	Services int
	Locators int
	Records  int
	Cursors  int
	Arrays   int

	// UseAfterRelease counts calls made on released objects or after
	// Uninitialize.
	UseAfterRelease int
}

// Live reports the number of objects not yet released.
func (s Stats) Live() int {
	return s.Services + s.Locators + s.Records + s.Cursors + s.Arrays
}
