package fixture

import (
	"strings"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

type recordKind int

const (
	kindClass recordKind = iota
	kindInstance
	kindSignature
	kindSignatureInstance
)

// signatureClass is the class name WMI reports for method signature records.
const signatureClass = "__PARAMETERS"

var systemNames = []string{
	"__GENUS",
	core.PropClass,
	core.PropSuperclass,
	core.PropRelPath,
	core.PropPath,
	core.PropNamespace,
}

// record implements core.Record over the compiled catalog. Each record
// owns a private copy of its values, so Put never mutates the catalog.
type record struct {
	p        *Provider
	ns       *namespace
	kind     recordKind
	cls      *class
	fields   []fieldDef
	values   map[string]core.Variant
	released bool

	inMethods bool
	methodPos int

	inEnum    bool
	enumNames []string
	enumPos   int
}

func (p *Provider) newClassRecord(ns *namespace, c *class) *record {
	values := make(map[string]core.Variant, len(c.props))
	for _, fd := range c.props {
		values[fd.name] = fd.def
	}
	return p.track(&record{p: p, ns: ns, kind: kindClass, cls: c, fields: c.props, values: values})
}

func (p *Provider) newInstanceRecord(ns *namespace, c *class, data map[string]core.Variant) *record {
	values := make(map[string]core.Variant, len(data))
	for k, v := range data {
		values[k] = v
	}
	return p.track(&record{p: p, ns: ns, kind: kindInstance, cls: c, fields: c.props, values: values})
}

func (p *Provider) newSignature(ns *namespace, params []fieldDef, instance bool) *record {
	kind := kindSignature
	if instance {
		kind = kindSignatureInstance
	}
	values := make(map[string]core.Variant, len(params))
	for _, fd := range params {
		values[fd.name] = core.NullValue()
	}
	return p.track(&record{p: p, ns: ns, kind: kind, fields: params, values: values})
}

func (p *Provider) track(r *record) *record {
	p.mu.Lock()
	p.stats.Records++
	p.mu.Unlock()
	return r
}

func (r *record) className() string {
	if r.cls == nil {
		return signatureClass
	}
	return r.cls.name
}

func (r *record) relPath() core.Variant {
	switch r.kind {
	case kindClass:
		return core.StringValue(r.cls.name)
	case kindInstance:
		for _, key := range r.cls.keys {
			if r.values[key].IsNull() {
				return core.NullValue()
			}
		}
		return core.StringValue(r.cls.relPath(r.values))
	default:
		return core.NullValue()
	}
}

func (r *record) systemValue(name string) (core.Variant, bool) {
	switch strings.ToUpper(name) {
	case "__GENUS":
		if r.kind == kindClass || r.kind == kindSignature {
			return core.IntValue(1), true
		}
		return core.IntValue(2), true
	case core.PropClass:
		return core.StringValue(r.className()), true
	case core.PropSuperclass:
		if r.cls == nil || r.cls.superclass == "" {
			return core.NullValue(), true
		}
		return core.StringValue(r.cls.superclass), true
	case core.PropRelPath:
		return r.relPath(), true
	case core.PropPath:
		rel := r.relPath()
		if rel.IsNull() {
			return rel, true
		}
		return core.StringValue(`\\.\` + r.ns.name + ":" + rel.Text()), true
	case core.PropNamespace:
		return core.StringValue(r.ns.name), true
	default:
		return core.Variant{}, false
	}
}

func (r *record) names(flags core.NameFlags) []string {
	var out []string
	for _, name := range systemNames {
		if flags.Includes(name) {
			out = append(out, name)
		}
	}
	for _, fd := range r.fields {
		if flags.Includes(fd.name) {
			out = append(out, fd.name)
		}
	}
	return out
}

func (r *record) Get(name string) (core.Variant, error) {
	if err := r.p.touch(r.released); err != nil {
		return core.Variant{}, err
	}
	if err := r.p.Faults.check(OpGet, name); err != nil {
		return core.Variant{}, err
	}
	if core.IsSystemName(name) {
		if v, ok := r.systemValue(name); ok {
			return v, nil
		}
		return core.Variant{}, core.NewStatusError(OpGet, core.StatusNotFound)
	}
	fd, ok := findField(r.fields, name)
	if !ok {
		return core.Variant{}, core.NewStatusError(OpGet, core.StatusNotFound)
	}
	return r.values[fd.name], nil
}

func (r *record) Put(name string, value core.Variant) error {
	if err := r.p.touch(r.released); err != nil {
		return err
	}
	if err := r.p.Faults.check(OpPut, name); err != nil {
		return err
	}
	if core.IsSystemName(name) {
		return core.NewStatusError(OpPut, core.StatusNotSupported)
	}
	fd, ok := findField(r.fields, name)
	if !ok {
		return core.NewStatusError(OpPut, core.StatusNotFound)
	}
	v, ok := cast(value, fd.kind)
	if !ok {
		return core.NewStatusError(OpPut, core.StatusWbemTypeMismatch)
	}
	r.values[fd.name] = v
	return nil
}

func (r *record) Names(flags core.NameFlags) (core.NameArray, error) {
	if err := r.p.touch(r.released); err != nil {
		return nil, err
	}
	if err := r.p.Faults.check(OpNames, r.className()); err != nil {
		return nil, err
	}
	r.p.mu.Lock()
	r.p.stats.Arrays++
	r.p.mu.Unlock()
	return &nameArray{p: r.p, names: r.names(flags)}, nil
}

func (r *record) BeginMethodEnumeration() error {
	if err := r.p.touch(r.released); err != nil {
		return err
	}
	if err := r.p.Faults.check(OpBeginMethodEnumeration, r.className()); err != nil {
		return err
	}
	r.inMethods = true
	r.methodPos = 0
	return nil
}

func (r *record) NextMethod() (string, core.Record, core.Record, error) {
	if err := r.p.touch(r.released); err != nil {
		return "", nil, nil, err
	}
	if !r.inMethods {
		return "", nil, nil, core.NewStatusError(OpNextMethod, core.StatusWbemFailed)
	}
	if err := r.p.Faults.check(OpNextMethod, r.className()); err != nil {
		return "", nil, nil, err
	}
	if r.cls == nil || r.methodPos >= len(r.cls.methods) {
		return "", nil, nil, nil
	}
	m := r.cls.methods[r.methodPos]
	r.methodPos++
	in, out := r.signatures(m)
	return m.name, in, out, nil
}

func (r *record) EndMethodEnumeration() error {
	if err := r.p.touch(r.released); err != nil {
		return err
	}
	r.inMethods = false
	return nil
}

func (r *record) GetMethod(name string) (core.Record, core.Record, error) {
	if err := r.p.touch(r.released); err != nil {
		return nil, nil, err
	}
	if err := r.p.Faults.check(OpGetMethod, name); err != nil {
		return nil, nil, err
	}
	if r.cls == nil {
		return nil, nil, core.NewStatusError(OpGetMethod, core.StatusNotFound)
	}
	m, ok := r.cls.method(name)
	if !ok {
		return nil, nil, core.NewStatusError(OpGetMethod, core.StatusNotFound)
	}
	in, out := r.signatures(m)
	return in, out, nil
}

// signatures returns nil for an absent (parameterless) signature.
func (r *record) signatures(m *method) (in, out core.Record) {
	if len(m.in) > 0 {
		in = r.p.newSignature(r.ns, m.in, false)
	}
	if len(m.out) > 0 {
		out = r.p.newSignature(r.ns, m.out, false)
	}
	return in, out
}

func (r *record) SpawnInstance() (core.Record, error) {
	if err := r.p.touch(r.released); err != nil {
		return nil, err
	}
	if err := r.p.Faults.check(OpSpawnInstance, r.className()); err != nil {
		return nil, err
	}
	switch r.kind {
	case kindClass:
		return r.p.newInstanceRecord(r.ns, r.cls, r.values), nil
	case kindSignature:
		return r.p.newSignature(r.ns, r.fields, true), nil
	default:
		return nil, core.NewStatusError(OpSpawnInstance, core.StatusNotSupported)
	}
}

func (r *record) BeginEnumeration(flags core.NameFlags) error {
	if err := r.p.touch(r.released); err != nil {
		return err
	}
	if err := r.p.Faults.check(OpBeginEnumeration, r.className()); err != nil {
		return err
	}
	r.inEnum = true
	r.enumNames = r.names(flags)
	r.enumPos = 0
	return nil
}

func (r *record) Next() (string, core.Variant, error) {
	if err := r.p.touch(r.released); err != nil {
		return "", core.Variant{}, err
	}
	if !r.inEnum {
		return "", core.Variant{}, core.NewStatusError(OpNext, core.StatusWbemFailed)
	}
	if err := r.p.Faults.check(OpNext, r.className()); err != nil {
		return "", core.Variant{}, err
	}
	if r.enumPos >= len(r.enumNames) {
		return "", core.Variant{}, nil
	}
	name := r.enumNames[r.enumPos]
	r.enumPos++
	if v, ok := r.systemValue(name); ok {
		return name, v, nil
	}
	return name, r.values[name], nil
}

func (r *record) EndEnumeration() error {
	if err := r.p.touch(r.released); err != nil {
		return err
	}
	r.inEnum = false
	r.enumNames = nil
	return nil
}

func (r *record) Release() {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if r.released {
		r.p.stats.UseAfterRelease++
		return
	}
	r.released = true
	r.p.stats.Records--
}

// nameArray is the fixture's legacy array: zero-based, inclusive bounds.
type nameArray struct {
	p         *Provider
	names     []string
	destroyed bool
}

func (a *nameArray) LowerBound() (int, error) {
	if err := a.p.touch(a.destroyed); err != nil {
		return 0, err
	}
	if err := a.p.Faults.check(OpLowerBound, ""); err != nil {
		return 0, err
	}
	return 0, nil
}

func (a *nameArray) UpperBound() (int, error) {
	if err := a.p.touch(a.destroyed); err != nil {
		return 0, err
	}
	if err := a.p.Faults.check(OpUpperBound, ""); err != nil {
		return 0, err
	}
	return len(a.names) - 1, nil
}

func (a *nameArray) Element(i int) (string, error) {
	if err := a.p.touch(a.destroyed); err != nil {
		return "", err
	}
	if err := a.p.Faults.check(OpElement, ""); err != nil {
		return "", err
	}
	if i < 0 || i >= len(a.names) {
		return "", core.NewStatusError(OpElement, core.StatusInvalidArg)
	}
	return a.names[i], nil
}

func (a *nameArray) Destroy() error {
	if err := a.p.touch(a.destroyed); err != nil {
		return err
	}
	if err := a.p.Faults.check(OpDestroy, ""); err != nil {
		return err
	}
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	a.destroyed = true
	a.p.stats.Arrays--
	return nil
}
