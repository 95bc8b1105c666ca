//go:build windows

package ole

import (
	"log/slog"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"

	"github.com/leapstack-labs/wbemctl/pkg/core"
	"github.com/leapstack-labs/wbemctl/pkg/provider"
)

func init() {
	provider.Register("ole", func(_ provider.Config, logger *slog.Logger) (core.Subsystem, error) {
		return New(logger), nil
	})
}

// Scripting API query flags: wbemFlagReturnImmediately | wbemFlagForwardOnly.
const queryFlags = 0x10 | 0x20

var (
	ole32                    = windows.NewLazySystemDLL("ole32.dll")
	procCoInitializeSecurity = ole32.NewProc("CoInitializeSecurity")
)

// Provider talks to the local WMI service.
type Provider struct {
	logger *slog.Logger

	mu  sync.Mutex
	apt *apartment
}

// New returns an uninitialized provider. A nil logger is replaced by a
// discard logger.
func New(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{logger: logger}
}

// Initialize starts the apartment thread. A second call without
// Uninitialize reports StatusFalse.
func (p *Provider) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.apt != nil {
		return core.NewStatusError("Initialize", core.StatusFalse)
	}
	apt, err := startApartment()
	if err != nil {
		return err
	}
	p.apt = apt
	p.logger.Debug("apartment started")
	return nil
}

// Uninitialize stops the apartment thread.
func (p *Provider) Uninitialize() {
	p.mu.Lock()
	apt := p.apt
	p.apt = nil
	p.mu.Unlock()
	if apt != nil {
		apt.stop()
		p.logger.Debug("apartment stopped")
	}
}

func (p *Provider) do(fn func() error) error {
	p.mu.Lock()
	apt := p.apt
	p.mu.Unlock()
	if apt == nil {
		return core.NewStatusError("apartment", core.StatusDisconnected)
	}
	return apt.do(fn)
}

// InitializeSecurity calls CoInitializeSecurity on the apartment thread.
func (p *Provider) InitializeSecurity(sec core.Security) error {
	return p.do(func() error {
		if err := procCoInitializeSecurity.Find(); err != nil {
			return core.NewStatusError("InitializeSecurity", core.StatusNotImplemented)
		}
		authServices := int32(-1)
		hr, _, _ := procCoInitializeSecurity.Call(
			0,
			uintptr(authServices),
			0,
			0,
			uintptr(sec.Authentication),
			uintptr(sec.Impersonation),
			0,
			0, // EOAC_NONE
			0,
		)
		if status := core.Status(uint32(hr)); status.Failed() {
			return core.NewStatusError("InitializeSecurity", status)
		}
		return nil
	})
}

// NewLocator creates an SWbemLocator.
func (p *Provider) NewLocator() (core.Locator, error) {
	var disp *ole.IDispatch
	err := p.do(func() error {
		unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
		if err != nil {
			return toStatus("NewLocator", err)
		}
		defer unknown.Release()
		disp, err = unknown.QueryInterface(ole.IID_IDispatch)
		return toStatus("NewLocator", err)
	})
	if err != nil {
		return nil, err
	}
	return &locator{p: p, disp: disp}, nil
}

// SetProxyBlanket sets the SWbemSecurity levels of a service handle.
// Default levels leave the service's own setting alone.
func (p *Provider) SetProxyBlanket(svc core.Services, sec core.Security) error {
	s, ok := svc.(*services)
	if !ok || s == nil {
		return core.NewStatusError("SetProxyBlanket", core.StatusInvalidArg)
	}
	return p.do(func() error {
		v, err := oleutil.GetProperty(s.disp, "Security_")
		if err != nil {
			return toStatus("SetProxyBlanket", err)
		}
		security := v.ToIDispatch()
		defer v.Clear()
		if sec.Impersonation != core.ImpLevelDefault {
			if _, err := oleutil.PutProperty(security, "ImpersonationLevel", int32(sec.Impersonation)); err != nil {
				return toStatus("SetProxyBlanket", err)
			}
		}
		if sec.ProxyAuthentication != core.AuthLevelDefault {
			if _, err := oleutil.PutProperty(security, "AuthenticationLevel", int32(sec.ProxyAuthentication)); err != nil {
				return toStatus("SetProxyBlanket", err)
			}
		}
		return nil
	})
}

// release drops a COM reference on the apartment thread.
func (p *Provider) release(disp *ole.IDispatch) {
	if disp == nil {
		return
	}
	_ = p.do(func() error {
		disp.Release()
		return nil
	})
}

type locator struct {
	p    *Provider
	disp *ole.IDispatch
}

func (l *locator) ConnectServer(namespace string) (core.Services, error) {
	var disp *ole.IDispatch
	err := l.p.do(func() error {
		v, err := oleutil.CallMethod(l.disp, "ConnectServer", ".", namespace)
		if err != nil {
			return toStatus("ConnectServer", err)
		}
		disp = v.ToIDispatch()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &services{p: l.p, disp: disp}, nil
}

func (l *locator) Release() {
	l.p.release(l.disp)
	l.disp = nil
}

type services struct {
	p    *Provider
	disp *ole.IDispatch
}

func (s *services) ExecQuery(language, query string) (core.RecordCursor, error) {
	return s.cursor("ExecQuery", "ExecQuery", query, language, queryFlags)
}

func (s *services) InstancesOf(class string) (core.RecordCursor, error) {
	return s.cursor("InstancesOf", "InstancesOf", class, queryFlags)
}

func (s *services) cursor(op, method string, args ...any) (core.RecordCursor, error) {
	var enum *ole.IEnumVARIANT
	err := s.p.do(func() error {
		set, err := oleutil.CallMethod(s.disp, method, args...)
		if err != nil {
			return toStatus(op, err)
		}
		defer set.Clear()
		nv, err := oleutil.GetProperty(set.ToIDispatch(), "_NewEnum")
		if err != nil {
			return toStatus(op, err)
		}
		defer nv.Clear()
		enum, err = nv.ToIUnknown().IEnumVARIANT(ole.IID_IEnumVariant)
		return toStatus(op, err)
	})
	if err != nil {
		return nil, err
	}
	return &cursor{p: s.p, op: op, enum: enum}, nil
}

func (s *services) GetObject(path string) (core.Record, error) {
	var rec core.Record
	err := s.p.do(func() error {
		v, err := oleutil.CallMethod(s.disp, "Get", path)
		if err != nil {
			return toStatus("GetObject", err)
		}
		rec = s.p.newRecord(v.ToIDispatch())
		return nil
	})
	return rec, err
}

func (s *services) ExecMethod(path, method string, in core.Record) (core.Record, error) {
	args := []any{path, method}
	if r, ok := in.(*record); ok && r != nil {
		args = append(args, r.obj)
	}
	var out core.Record
	err := s.p.do(func() error {
		v, err := oleutil.CallMethod(s.disp, "ExecMethod", args...)
		if err != nil {
			return toStatus("ExecMethod", err)
		}
		if v.VT == ole.VT_DISPATCH && v.ToIDispatch() != nil {
			out = s.p.newRecord(v.ToIDispatch())
			return nil
		}
		return v.Clear()
	})
	return out, err
}

func (s *services) Release() {
	s.p.release(s.disp)
	s.disp = nil
}

// cursor walks an SWbemObjectSet through its IEnumVARIANT.
type cursor struct {
	p    *Provider
	op   string
	enum *ole.IEnumVARIANT
}

func (c *cursor) Next() (core.Record, error) {
	var rec core.Record
	err := c.p.do(func() error {
		item, fetched, err := c.enum.Next(1)
		if err != nil {
			return toStatus(c.op, err)
		}
		if fetched == 0 {
			return nil
		}
		disp := item.ToIDispatch()
		if disp == nil {
			return item.Clear()
		}
		rec = c.p.newRecord(disp)
		return nil
	})
	return rec, err
}

func (c *cursor) Release() {
	if c.enum == nil {
		return
	}
	enum := c.enum
	c.enum = nil
	_ = c.p.do(func() error {
		enum.Release()
		return nil
	})
}
