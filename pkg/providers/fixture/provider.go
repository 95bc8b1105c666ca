// Package fixture provides an in-memory provider backed by a YAML catalog.
//
// It implements the whole provider contract: the meta_class query with
// LIKE filters, instance enumeration, object paths, method signatures
// and method execution with canned results. Faults and Stats let tests
// drive failure paths and check that every handed-out object is
// released.
//
// Registration happens automatically via init() when this package is
// imported.
package fixture

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/wbemctl/pkg/core"
	"github.com/leapstack-labs/wbemctl/pkg/provider"
)

func init() {
	provider.Register("fixture", func(cfg provider.Config, logger *slog.Logger) (core.Subsystem, error) {
		cat := Default()
		if cfg.Fixture != "" {
			var err error
			cat, err = LoadFile(cfg.Fixture)
			if err != nil {
				return nil, err
			}
		}
		return New(cat, logger), nil
	})
}

// Call records one method execution.
type Call struct {
	Namespace string
	Path      string
	Method    string
	Inputs    map[string]core.Variant
}

// Provider implements core.Subsystem over a Catalog.
type Provider struct {
	// Faults injects failures into contract calls.
	Faults Faults

	catalog *Catalog
	logger  *slog.Logger

	mu          sync.Mutex
	initialized bool
	security    *core.Security
	stats       Stats
	calls       []Call
}

// New creates a fixture provider. A nil logger is replaced by a discard
// logger.
func New(cat *Catalog, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{catalog: cat, logger: logger}
}

// Catalog returns the catalog the provider serves.
func (p *Provider) Catalog() *Catalog {
	return p.catalog
}

// Stats returns a snapshot of the object counters.
func (p *Provider) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Calls returns the method executions seen so far.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// Initialized reports whether Initialize has run without a matching
// Uninitialize.
func (p *Provider) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// Security returns the process security policy, if one was applied.
func (p *Provider) Security() (core.Security, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.security == nil {
		return core.Security{}, false
	}
	return *p.security, true
}

// touch fails calls on released objects or after Uninitialize, counting
// them as contract violations.
func (p *Provider) touch(released bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if released || !p.initialized {
		p.stats.UseAfterRelease++
		return core.NewStatusError("use", core.StatusDisconnected)
	}
	return nil
}

func (p *Provider) Initialize() error {
	if err := p.Faults.check(OpInitialize, ""); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return core.NewStatusError(OpInitialize, core.StatusFalse)
	}
	p.initialized = true
	p.logger.Debug("fixture initialized", "namespaces", len(p.catalog.namespaces))
	return nil
}

func (p *Provider) Uninitialize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		p.stats.UseAfterRelease++
		return
	}
	p.initialized = false
	p.security = nil
	p.logger.Debug("fixture uninitialized", "live", p.stats.Live())
}

func (p *Provider) InitializeSecurity(sec core.Security) error {
	if err := p.touch(false); err != nil {
		return err
	}
	if err := p.Faults.check(OpInitializeSecurity, ""); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.security != nil {
		return core.NewStatusError(OpInitializeSecurity, core.StatusTooLate)
	}
	p.security = &sec
	return nil
}

func (p *Provider) NewLocator() (core.Locator, error) {
	if err := p.touch(false); err != nil {
		return nil, err
	}
	if err := p.Faults.check(OpNewLocator, ""); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.stats.Locators++
	p.mu.Unlock()
	return &locator{p: p}, nil
}

func (p *Provider) SetProxyBlanket(svc core.Services, sec core.Security) error {
	if err := p.touch(false); err != nil {
		return err
	}
	if err := p.Faults.check(OpSetProxyBlanket, ""); err != nil {
		return err
	}
	s, ok := svc.(*services)
	if !ok || s == nil {
		return core.NewStatusError(OpSetProxyBlanket, core.StatusInvalidArg)
	}
	if err := p.touch(s.released); err != nil {
		return err
	}
	s.proxy = &sec
	return nil
}

type locator struct {
	p        *Provider
	released bool
}

func (l *locator) ConnectServer(ns string) (core.Services, error) {
	if err := l.p.touch(l.released); err != nil {
		return nil, err
	}
	if err := l.p.Faults.check(OpConnectServer, ns); err != nil {
		return nil, err
	}
	n, ok := l.p.catalog.namespace(ns)
	if !ok {
		return nil, core.NewStatusError(OpConnectServer, core.StatusInvalidNamespace)
	}
	l.p.mu.Lock()
	l.p.stats.Services++
	l.p.mu.Unlock()
	return &services{p: l.p, ns: n}, nil
}

func (l *locator) Release() {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	if l.released {
		l.p.stats.UseAfterRelease++
		return
	}
	l.released = true
	l.p.stats.Locators--
}

type services struct {
	p        *Provider
	ns       *namespace
	proxy    *core.Security
	released bool
}

// ProxySecurity returns the call-level security applied to svc by
// SetProxyBlanket. svc must come from a fixture provider.
func ProxySecurity(svc core.Services) (core.Security, bool) {
	s, ok := svc.(*services)
	if !ok || s.proxy == nil {
		return core.Security{}, false
	}
	return *s.proxy, true
}

func (s *services) ExecQuery(language, query string) (core.RecordCursor, error) {
	if err := s.p.touch(s.released); err != nil {
		return nil, err
	}
	if err := s.p.Faults.check(OpExecQuery, query); err != nil {
		return nil, err
	}
	if !strings.EqualFold(language, core.QueryLanguageWQL) {
		return nil, core.NewStatusError(OpExecQuery, core.StatusInvalidQueryType)
	}
	pattern, ok := parseMetaClassQuery(query)
	if !ok {
		return nil, core.NewStatusError(OpExecQuery, core.StatusInvalidQuery)
	}

	var items []func() *record
	for _, c := range s.ns.classes {
		if pattern != "" && !Like(c.name, pattern) {
			continue
		}
		items = append(items, func() *record { return s.p.newClassRecord(s.ns, c) })
	}
	return s.p.newCursor(OpQueryNext, items), nil
}

func (s *services) InstancesOf(className string) (core.RecordCursor, error) {
	if err := s.p.touch(s.released); err != nil {
		return nil, err
	}
	if err := s.p.Faults.check(OpInstancesOf, className); err != nil {
		return nil, err
	}
	c, ok := s.ns.class(className)
	if !ok {
		return nil, core.NewStatusError(OpInstancesOf, core.StatusInvalidClass)
	}
	items := make([]func() *record, 0, len(c.instances))
	for _, inst := range c.instances {
		items = append(items, func() *record { return s.p.newInstanceRecord(s.ns, c, inst.values) })
	}
	return s.p.newCursor(OpInstanceNext, items), nil
}

func (s *services) GetObject(path string) (core.Record, error) {
	if err := s.p.touch(s.released); err != nil {
		return nil, err
	}
	if err := s.p.Faults.check(OpGetObject, path); err != nil {
		return nil, err
	}
	c, inst, err := s.resolve(OpGetObject, path)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return s.p.newClassRecord(s.ns, c), nil
	}
	return s.p.newInstanceRecord(s.ns, c, inst.values), nil
}

func (s *services) ExecMethod(path, methodName string, in core.Record) (core.Record, error) {
	if err := s.p.touch(s.released); err != nil {
		return nil, err
	}
	if err := s.p.Faults.check(OpExecMethod, methodName); err != nil {
		return nil, err
	}
	c, _, err := s.resolve(OpExecMethod, path)
	if err != nil {
		return nil, err
	}
	m, ok := c.method(methodName)
	if !ok {
		return nil, core.NewStatusError(OpExecMethod, core.StatusInvalidMethod)
	}

	inputs := make(map[string]core.Variant, len(m.in))
	for _, fd := range m.in {
		inputs[fd.name] = core.NullValue()
	}
	if in != nil {
		rec, ok := in.(*record)
		if !ok {
			return nil, core.NewStatusError(OpExecMethod, core.StatusInvalidMethodParams)
		}
		if err := s.p.touch(rec.released); err != nil {
			return nil, err
		}
		for _, fd := range m.in {
			if v, ok := rec.values[fd.name]; ok {
				inputs[fd.name] = v
			}
		}
	}

	s.p.mu.Lock()
	s.p.calls = append(s.p.calls, Call{Namespace: s.ns.name, Path: path, Method: m.name, Inputs: inputs})
	s.p.mu.Unlock()
	s.p.logger.Debug("fixture method executed", "path", path, "method", m.name)

	if m.void {
		return nil, nil
	}
	out := s.p.newSignature(s.ns, m.out, true)
	for name, v := range m.returns {
		out.values[name] = v
	}
	for outName, inName := range m.echo {
		outField, _ := findField(m.out, outName)
		inField, _ := findField(m.in, inName)
		v, ok := cast(inputs[inField.name], outField.kind)
		if !ok {
			out.Release()
			return nil, core.NewStatusError(OpExecMethod, core.StatusTypeMismatch)
		}
		out.values[outField.name] = v
	}
	return out, nil
}

func (s *services) Release() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.released {
		s.p.stats.UseAfterRelease++
		return
	}
	s.released = true
	s.p.stats.Services--
}

// resolve maps an object path to a class and, for instance paths, the
// matching instance. A leading \\server\namespace: prefix is ignored.
func (s *services) resolve(op, path string) (*class, *instanceData, error) {
	rel := stripNamespace(strings.TrimSpace(path))
	if rel == "" {
		return nil, nil, core.NewStatusError(op, core.StatusInvalidObjectPath)
	}
	end := strings.IndexAny(rel, ".=")
	name := rel
	if end >= 0 {
		name = rel[:end]
	}
	c, ok := s.ns.class(name)
	if !ok {
		return nil, nil, core.NewStatusError(op, core.StatusNotFound)
	}
	if end < 0 {
		return c, nil, nil
	}
	if rel[end] == '.' && !strings.Contains(rel[end:], "=") {
		return nil, nil, core.NewStatusError(op, core.StatusInvalidObjectPath)
	}
	want := c.name + rel[end:]
	for i := range c.instances {
		if strings.EqualFold(c.instances[i].relPath, want) {
			return c, &c.instances[i], nil
		}
	}
	return nil, nil, core.NewStatusError(op, core.StatusNotFound)
}

func stripNamespace(path string) string {
	if !strings.HasPrefix(path, `\\`) && !strings.HasPrefix(path, "//") {
		return path
	}
	if i := strings.Index(path, ":"); i >= 0 {
		return path[i+1:]
	}
	return path
}

type cursor struct {
	p        *Provider
	op       string
	items    []func() *record
	pos      int
	released bool
}

func (p *Provider) newCursor(op string, items []func() *record) *cursor {
	p.mu.Lock()
	p.stats.Cursors++
	p.mu.Unlock()
	return &cursor{p: p, op: op, items: items}
}

func (c *cursor) Next() (core.Record, error) {
	if err := c.p.touch(c.released); err != nil {
		return nil, err
	}
	if err := c.p.Faults.check(c.op, ""); err != nil {
		return nil, err
	}
	if c.pos >= len(c.items) {
		return nil, nil
	}
	rec := c.items[c.pos]()
	c.pos++
	return rec, nil
}

func (c *cursor) Release() {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	if c.released {
		c.p.stats.UseAfterRelease++
		return
	}
	c.released = true
	c.p.stats.Cursors--
}

// String describes the provider for log output.
func (p *Provider) String() string {
	return fmt.Sprintf("fixture(%s)", strings.Join(p.catalog.Namespaces(), ", "))
}
