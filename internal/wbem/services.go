package wbem

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// DefaultNamespace is used when Connect is given an empty namespace.
const DefaultNamespace = `ROOT\CIMV2`

// Option configures Connect.
type Option func(*connectOptions)

type connectOptions struct {
	security core.Security
	logger   *slog.Logger
}

// WithSecurity overrides the default security policy.
func WithSecurity(sec core.Security) Option {
	return func(o *connectOptions) { o.security = sec }
}

// WithLogger sets the logger used by the connection and its objects.
func WithLogger(logger *slog.Logger) Option {
	return func(o *connectOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// serviceRef is a provider service handle shared by a Services and every
// Object derived from it. The handle, and the session reference it holds,
// are released with the last reference.
type serviceRef struct {
	svc     core.Services
	session *Session

	mu   sync.Mutex
	refs int
}

func (r *serviceRef) acquire() {
	r.mu.Lock()
	r.refs++
	r.mu.Unlock()
}

func (r *serviceRef) release() {
	r.mu.Lock()
	r.refs--
	last := r.refs == 0
	r.mu.Unlock()
	if last {
		r.svc.Release()
		r.session.release()
	}
}

// Services is a connection to one namespace.
type Services struct {
	ref       *serviceRef
	namespace string
	security  core.Security
	logger    *slog.Logger
}

// Connect opens a connection to namespace (DefaultNamespace when empty).
// It applies the process security policy, creates a locator, connects
// and sets the call-level security on the service handle. Any failing
// step is a KindConnectFailure.
func Connect(session *Session, namespace string, opts ...Option) (*Services, error) {
	if !session.Valid() {
		return nil, errNull("Connect")
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	o := connectOptions{security: core.DefaultSecurity(), logger: session.logger}
	for _, opt := range opts {
		opt(&o)
	}
	sub := session.sub

	if err := session.secure(o.security); err != nil {
		return nil, newError(KindConnectFailure, "InitializeSecurity", err)
	}

	loc, err := sub.NewLocator()
	if err != nil {
		return nil, newError(KindConnectFailure, "NewLocator", err)
	}
	defer loc.Release()

	svc, err := loc.ConnectServer(namespace)
	if err != nil {
		return nil, newError(KindConnectFailure, "ConnectServer", err)
	}
	if err := sub.SetProxyBlanket(svc, o.security); err != nil {
		svc.Release()
		return nil, newError(KindConnectFailure, "SetProxyBlanket", err)
	}
	if !session.acquire() {
		svc.Release()
		return nil, errNull("Connect")
	}

	o.logger.Debug("connected", "namespace", namespace,
		"authentication", o.security.ProxyAuthentication, "impersonation", o.security.Impersonation)
	return &Services{
		ref:       &serviceRef{svc: svc, session: session, refs: 1},
		namespace: namespace,
		security:  o.security,
		logger:    o.logger,
	}, nil
}

// Valid reports whether the connection has not been released.
func (s *Services) Valid() bool {
	return s != nil && s.ref != nil
}

// Namespace returns the connected namespace.
func (s *Services) Namespace() string {
	return s.namespace
}

// Security returns the policy fixed at connect time.
func (s *Services) Security() core.Security {
	return s.security
}

// Release drops the connection's own reference. Objects obtained from it
// keep the service handle alive until they are released too.
func (s *Services) Release() {
	if !s.Valid() {
		return
	}
	s.ref.release()
	s.ref = nil
}

// ClassNames returns the classes of the namespace whose name matches the
// WQL LIKE pattern filter. An empty filter matches every class. A failed
// query or row fetch discards everything gathered.
func (s *Services) ClassNames(filter string) (ClassNameSet, error) {
	if !s.Valid() {
		return nil, errNull("ClassNames")
	}
	query := "SELECT * FROM meta_class"
	if filter != "" {
		query += " WHERE __CLASS LIKE '" + strings.ReplaceAll(filter, "'", "''") + "'"
	}

	cur, err := s.ref.svc.ExecQuery(core.QueryLanguageWQL, query)
	if err != nil {
		return nil, newError(KindQueryFailure, "ExecQuery", err)
	}
	defer cur.Release()

	names := make(ClassNameSet)
	for {
		rec, err := cur.Next()
		if err != nil {
			return nil, newError(KindQueryFailure, "Next", err)
		}
		if rec == nil {
			break
		}
		v, err := rec.Get(core.PropClass)
		rec.Release()
		if err != nil || v.Kind() != core.KindString {
			s.logger.Debug("skipping class row without name", "error", err)
			continue
		}
		names.Add(v.Text())
	}
	s.logger.Debug("class names enumerated", "filter", filter, "count", len(names))
	return names, nil
}

// Instances returns every live instance of className in enumeration
// order. A failed fetch releases the instances gathered so far.
func (s *Services) Instances(className string) ([]*Object, error) {
	if !s.Valid() {
		return nil, errNull("Instances")
	}
	cur, err := s.ref.svc.InstancesOf(className)
	if err != nil {
		return nil, newError(KindQueryFailure, "InstancesOf", err)
	}
	defer cur.Release()

	objects := []*Object{}
	for {
		rec, err := cur.Next()
		if err != nil {
			ReleaseAll(objects)
			return nil, newError(KindQueryFailure, "Next", err)
		}
		if rec == nil {
			break
		}
		objects = append(objects, s.wrap(rec))
	}
	s.logger.Debug("instances enumerated", "class", className, "count", len(objects))
	return objects, nil
}

// Object retrieves a class definition by name or an instance by path.
func (s *Services) Object(path string) (*Object, error) {
	if !s.Valid() {
		return nil, errNull("Object")
	}
	rec, err := s.ref.svc.GetObject(path)
	if err != nil {
		if isNotFound(core.StatusOf(err)) {
			return nil, newError(KindNotFound, "GetObject", err)
		}
		return nil, newError(KindAccessFailure, "GetObject", err)
	}
	return s.wrap(rec), nil
}

func (s *Services) wrap(rec core.Record) *Object {
	s.ref.acquire()
	return &Object{rec: rec, ref: s.ref, logger: s.logger}
}

func isNotFound(status core.Status) bool {
	switch status {
	case core.StatusNotFound, core.StatusInvalidClass, core.StatusInvalidObjectPath:
		return true
	}
	return false
}

// ClassNameSet is a set of class names.
type ClassNameSet map[string]struct{}

// Add inserts name.
func (s ClassNameSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s ClassNameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in ascending order.
func (s ClassNameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
