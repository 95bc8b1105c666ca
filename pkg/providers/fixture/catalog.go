package fixture

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/wbemctl/pkg/core"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// File is the YAML layout of a fixture catalog.
type File struct {
	Namespaces []NamespaceSpec `yaml:"namespaces"`
}

// NamespaceSpec describes one namespace.
type NamespaceSpec struct {
	Name    string      `yaml:"name"`
	Classes []ClassSpec `yaml:"classes"`
}

// ClassSpec describes one class, its methods and its live instances.
type ClassSpec struct {
	Name       string         `yaml:"name"`
	Superclass string         `yaml:"superclass"`
	Properties []PropertySpec `yaml:"properties"`
	Methods    []MethodSpec   `yaml:"methods"`
	Instances  []InstanceSpec `yaml:"instances"`
}

// PropertySpec describes one property. Key properties form the relative
// path of instances.
type PropertySpec struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Key     bool   `yaml:"key"`
	Default any    `yaml:"default"`
}

// ParamSpec describes one method parameter.
type ParamSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// MethodSpec describes one method and its canned behaviour.
//
// Returns gives fixed out-parameter values. Echo copies in-parameters to
// out-parameters (out name -> in name). Void methods yield no out record.
type MethodSpec struct {
	Name    string            `yaml:"name"`
	In      []ParamSpec       `yaml:"in"`
	Out     []ParamSpec       `yaml:"out"`
	Returns map[string]any    `yaml:"returns"`
	Echo    map[string]string `yaml:"echo"`
	Void    bool              `yaml:"void"`
}

// InstanceSpec gives the property values of one instance.
type InstanceSpec struct {
	Values map[string]any `yaml:"values"`
}

// Catalog is a compiled, immutable fixture catalog.
type Catalog struct {
	namespaces []*namespace
}

type namespace struct {
	name    string
	classes []*class
	byName  map[string]*class
}

type fieldDef struct {
	name string
	kind core.Kind
	def  core.Variant
}

type class struct {
	name       string
	superclass string
	props      []fieldDef
	keys       []string
	methods    []*method
	instances  []instanceData
}

type method struct {
	name    string
	in      []fieldDef
	out     []fieldDef
	returns map[string]core.Variant
	echo    map[string]string
	void    bool
}

type instanceData struct {
	relPath string
	values  map[string]core.Variant
}

// LoadFile reads and compiles a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture catalog: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fixture catalog %s: %w", path, err)
	}
	return cat, nil
}

// Default returns the catalog embedded in the binary. It models a small
// ROOT\CIMV2 with Win32_LogicalDisk, Win32_Service and a few others.
func Default() *Catalog {
	cat, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded fixture catalog is invalid: %v", err))
	}
	return cat
}

// Parse compiles a catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return Compile(f)
}

// Compile validates a decoded File and builds a Catalog.
func Compile(f File) (*Catalog, error) {
	if len(f.Namespaces) == 0 {
		return nil, fmt.Errorf("catalog declares no namespaces")
	}
	cat := &Catalog{}
	seenNS := make(map[string]bool)
	for _, nsSpec := range f.Namespaces {
		if nsSpec.Name == "" {
			return nil, fmt.Errorf("namespace without name")
		}
		lower := strings.ToLower(nsSpec.Name)
		if seenNS[lower] {
			return nil, fmt.Errorf("duplicate namespace %q", nsSpec.Name)
		}
		seenNS[lower] = true

		ns := &namespace{name: nsSpec.Name, byName: make(map[string]*class)}
		for _, cs := range nsSpec.Classes {
			c, err := compileClass(cs)
			if err != nil {
				return nil, fmt.Errorf("namespace %s: %w", nsSpec.Name, err)
			}
			key := strings.ToLower(c.name)
			if _, dup := ns.byName[key]; dup {
				return nil, fmt.Errorf("namespace %s: duplicate class %q", nsSpec.Name, c.name)
			}
			ns.byName[key] = c
			ns.classes = append(ns.classes, c)
		}
		cat.namespaces = append(cat.namespaces, ns)
	}
	return cat, nil
}

// Namespaces returns the namespace names in declaration order.
func (c *Catalog) Namespaces() []string {
	names := make([]string, len(c.namespaces))
	for i, ns := range c.namespaces {
		names[i] = ns.name
	}
	return names
}

func (c *Catalog) namespace(name string) (*namespace, bool) {
	for _, ns := range c.namespaces {
		if strings.EqualFold(ns.name, name) {
			return ns, true
		}
	}
	return nil, false
}

func (ns *namespace) class(name string) (*class, bool) {
	c, ok := ns.byName[strings.ToLower(name)]
	return c, ok
}

func compileClass(cs ClassSpec) (*class, error) {
	if cs.Name == "" {
		return nil, fmt.Errorf("class without name")
	}
	if core.IsSystemName(cs.Name) {
		return nil, fmt.Errorf("class %q: system names are reserved", cs.Name)
	}
	c := &class{name: cs.Name, superclass: cs.Superclass}

	seen := make(map[string]bool)
	for _, ps := range cs.Properties {
		fd, err := compileField(ps.Name, ps.Type, ps.Default)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", cs.Name, err)
		}
		if seen[strings.ToLower(fd.name)] {
			return nil, fmt.Errorf("class %s: duplicate property %q", cs.Name, fd.name)
		}
		seen[strings.ToLower(fd.name)] = true
		c.props = append(c.props, fd)
		if ps.Key {
			c.keys = append(c.keys, fd.name)
		}
	}

	for _, ms := range cs.Methods {
		m, err := compileMethod(ms)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", cs.Name, err)
		}
		c.methods = append(c.methods, m)
	}

	paths := make(map[string]bool)
	for i, is := range cs.Instances {
		inst, err := c.compileInstance(is)
		if err != nil {
			return nil, fmt.Errorf("class %s: instance %d: %w", cs.Name, i, err)
		}
		lower := strings.ToLower(inst.relPath)
		if paths[lower] {
			return nil, fmt.Errorf("class %s: duplicate instance path %s", cs.Name, inst.relPath)
		}
		paths[lower] = true
		c.instances = append(c.instances, inst)
	}
	return c, nil
}

func compileField(name, typ string, def any) (fieldDef, error) {
	if name == "" {
		return fieldDef{}, fmt.Errorf("field without name")
	}
	if core.IsSystemName(name) {
		return fieldDef{}, fmt.Errorf("field %q: system names are reserved", name)
	}
	kind := core.KindString
	if typ != "" {
		k, ok := core.ParseKind(typ)
		if !ok || k == core.KindObject || k == core.KindEmpty || k == core.KindNull {
			return fieldDef{}, fmt.Errorf("field %s: unsupported type %q", name, typ)
		}
		kind = k
	}
	value, err := convert(def, kind)
	if err != nil {
		return fieldDef{}, fmt.Errorf("field %s: default: %w", name, err)
	}
	return fieldDef{name: name, kind: kind, def: value}, nil
}

func compileMethod(ms MethodSpec) (*method, error) {
	if ms.Name == "" {
		return nil, fmt.Errorf("method without name")
	}
	m := &method{name: ms.Name, void: ms.Void, echo: ms.Echo, returns: make(map[string]core.Variant)}
	for _, p := range ms.In {
		fd, err := compileField(p.Name, p.Type, nil)
		if err != nil {
			return nil, fmt.Errorf("method %s: in: %w", ms.Name, err)
		}
		m.in = append(m.in, fd)
	}
	for _, p := range ms.Out {
		fd, err := compileField(p.Name, p.Type, nil)
		if err != nil {
			return nil, fmt.Errorf("method %s: out: %w", ms.Name, err)
		}
		m.out = append(m.out, fd)
	}
	for name, raw := range ms.Returns {
		fd, ok := findField(m.out, name)
		if !ok {
			return nil, fmt.Errorf("method %s: returns undeclared out-parameter %q", ms.Name, name)
		}
		v, err := convert(raw, fd.kind)
		if err != nil {
			return nil, fmt.Errorf("method %s: returns %s: %w", ms.Name, name, err)
		}
		m.returns[fd.name] = v
	}
	for outName, inName := range ms.Echo {
		if _, ok := findField(m.out, outName); !ok {
			return nil, fmt.Errorf("method %s: echo to undeclared out-parameter %q", ms.Name, outName)
		}
		if _, ok := findField(m.in, inName); !ok {
			return nil, fmt.Errorf("method %s: echo from undeclared in-parameter %q", ms.Name, inName)
		}
	}
	return m, nil
}

func (c *class) compileInstance(is InstanceSpec) (instanceData, error) {
	values := make(map[string]core.Variant, len(c.props))
	for _, fd := range c.props {
		values[fd.name] = fd.def
	}
	for name, raw := range is.Values {
		fd, ok := findField(c.props, name)
		if !ok {
			return instanceData{}, fmt.Errorf("undeclared property %q", name)
		}
		v, err := convert(raw, fd.kind)
		if err != nil {
			return instanceData{}, fmt.Errorf("property %s: %w", name, err)
		}
		values[fd.name] = v
	}
	for _, key := range c.keys {
		if values[key].IsNull() {
			return instanceData{}, fmt.Errorf("key property %s has no value", key)
		}
	}
	return instanceData{relPath: c.relPath(values), values: values}, nil
}

// relPath renders the relative path of an instance: Class.Key="v",...
// or Class=@ for keyless (singleton) classes.
func (c *class) relPath(values map[string]core.Variant) string {
	if len(c.keys) == 0 {
		return c.name + "=@"
	}
	parts := make([]string, len(c.keys))
	for i, key := range c.keys {
		parts[i] = key + "=" + formatKey(values[key])
	}
	return c.name + "." + strings.Join(parts, ",")
}

func (c *class) method(name string) (*method, bool) {
	for _, m := range c.methods {
		if strings.EqualFold(m.name, name) {
			return m, true
		}
	}
	return nil, false
}

func formatKey(v core.Variant) string {
	switch v.Kind() {
	case core.KindInt:
		return strconv.FormatInt(v.Int64(), 10)
	case core.KindUint:
		return strconv.FormatUint(v.Uint64(), 10)
	case core.KindBool:
		if v.Bool() {
			return "TRUE"
		}
		return "FALSE"
	default:
		s := strings.ReplaceAll(v.Text(), `\`, `\\`)
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
}

func findField(fields []fieldDef, name string) (fieldDef, bool) {
	for _, fd := range fields {
		if strings.EqualFold(fd.name, name) {
			return fd, true
		}
	}
	return fieldDef{}, false
}

// convert turns a decoded YAML value into a variant of the declared kind.
func convert(raw any, kind core.Kind) (core.Variant, error) {
	if raw == nil {
		return core.NullValue(), nil
	}
	if t, ok := raw.(time.Time); ok && kind == core.KindDateTime {
		return core.DateTimeValue(core.FormatDateTime(t)), nil
	}
	v, ok := core.VariantOf(raw)
	if !ok {
		return core.Variant{}, fmt.Errorf("unsupported value %v (%T)", raw, raw)
	}
	out, ok := cast(v, kind)
	if !ok {
		return core.Variant{}, fmt.Errorf("cannot use %s as %s", v, kind)
	}
	return out, nil
}

// cast converts v to kind the way an automation Put would. Null passes
// through unchanged.
func cast(v core.Variant, kind core.Kind) (core.Variant, bool) {
	if v.IsNull() || v.Kind() == kind {
		return v, true
	}
	switch kind {
	case core.KindBool:
		switch v.Kind() {
		case core.KindInt:
			return core.BoolValue(v.Int64() != 0), true
		case core.KindUint:
			return core.BoolValue(v.Uint64() != 0), true
		case core.KindString:
			b, err := strconv.ParseBool(v.Text())
			return core.BoolValue(b), err == nil
		}
	case core.KindInt:
		switch v.Kind() {
		case core.KindUint:
			if v.Uint64() > math.MaxInt64 {
				return core.Variant{}, false
			}
			return core.IntValue(int64(v.Uint64())), true
		case core.KindBool:
			if v.Bool() {
				return core.IntValue(1), true
			}
			return core.IntValue(0), true
		case core.KindReal:
			f := v.Float64()
			if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
				return core.Variant{}, false
			}
			return core.IntValue(int64(f)), true
		case core.KindString:
			i, err := strconv.ParseInt(strings.TrimSpace(v.Text()), 10, 64)
			return core.IntValue(i), err == nil
		}
	case core.KindUint:
		switch v.Kind() {
		case core.KindInt:
			if v.Int64() < 0 {
				return core.Variant{}, false
			}
			return core.UintValue(uint64(v.Int64())), true
		case core.KindBool:
			if v.Bool() {
				return core.UintValue(1), true
			}
			return core.UintValue(0), true
		case core.KindReal:
			f := v.Float64()
			if f != math.Trunc(f) || f < 0 || f > math.MaxUint64 {
				return core.Variant{}, false
			}
			return core.UintValue(uint64(f)), true
		case core.KindString:
			u, err := strconv.ParseUint(strings.TrimSpace(v.Text()), 10, 64)
			return core.UintValue(u), err == nil
		}
	case core.KindReal:
		switch v.Kind() {
		case core.KindInt:
			return core.RealValue(float64(v.Int64())), true
		case core.KindUint:
			return core.RealValue(float64(v.Uint64())), true
		case core.KindString:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
			return core.RealValue(f), err == nil
		}
	case core.KindString:
		switch v.Kind() {
		case core.KindInt:
			return core.StringValue(strconv.FormatInt(v.Int64(), 10)), true
		case core.KindUint:
			return core.StringValue(strconv.FormatUint(v.Uint64(), 10)), true
		case core.KindBool:
			return core.StringValue(strconv.FormatBool(v.Bool())), true
		case core.KindDateTime:
			return core.StringValue(v.Text()), true
		}
	case core.KindDateTime:
		if v.Kind() == core.KindString {
			return core.DateTimeValue(v.Text()), true
		}
	case core.KindArray:
		return core.ArrayValue(v), true
	}
	return core.Variant{}, false
}
