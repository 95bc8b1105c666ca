//go:build windows

package ole

import (
	"runtime"
	"sync"

	"github.com/go-ole/go-ole"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// apartment runs functions on a single OS thread initialized for COM in
// single-threaded apartment mode.
type apartment struct {
	calls chan func()
	done  chan struct{}

	mu      sync.Mutex
	stopped bool
}

func startApartment() (*apartment, error) {
	a := &apartment{calls: make(chan func()), done: make(chan struct{})}
	ready := make(chan error, 1)
	go a.loop(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return a, nil
}

func (a *apartment) loop(ready chan<- error) {
	defer close(a.done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		ready <- toStatus("Initialize", err)
		return
	}
	ready <- nil
	for fn := range a.calls {
		fn()
	}
	ole.CoUninitialize()
}

// do runs fn on the apartment thread and waits for it.
func (a *apartment) do(fn func() error) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return core.NewStatusError("apartment", core.StatusDisconnected)
	}
	errc := make(chan error, 1)
	a.calls <- func() { errc <- fn() }
	a.mu.Unlock()
	return <-errc
}

// stop uninitializes COM and ends the thread once queued calls finish.
func (a *apartment) stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	close(a.calls)
	a.mu.Unlock()
	<-a.done
}
