package wbem

import (
	"log/slog"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// MethodDef describes one method: its name and the non-system parameter
// names of its input and output signatures.
type MethodDef struct {
	Name string
	In   []string
	Out  []string
}

// Object is a handle to one class definition or instance. It shares the
// service handle of the connection it came from.
type Object struct {
	rec    core.Record
	ref    *serviceRef
	logger *slog.Logger
}

// Valid reports whether the handle still holds a record.
func (o *Object) Valid() bool {
	return o != nil && o.rec != nil && o.ref != nil
}

// Release drops the record and the service reference. It is safe to
// call more than once.
func (o *Object) Release() {
	if !o.Valid() {
		return
	}
	o.rec.Release()
	o.rec = nil
	o.ref.release()
	o.ref = nil
}

// ReleaseAll releases every object in objs.
func ReleaseAll(objs []*Object) {
	for _, o := range objs {
		o.Release()
	}
}

// Properties returns the non-system property names in schema order.
func (o *Object) Properties() ([]string, error) {
	if !o.Valid() {
		return nil, errNull("Properties")
	}
	return EnumNames(o.rec, core.NamesNonSystem)
}

// Variant returns the raw value of a property. The caller releases it.
func (o *Object) Variant(name string) (core.Variant, error) {
	if !o.Valid() {
		return core.Variant{}, errNull("Get")
	}
	v, err := o.rec.Get(name)
	if err != nil {
		return core.Variant{}, newError(propertyKind(err), "Get", err)
	}
	return v, nil
}

// Value returns a property rendered as text (see Text).
func (o *Object) Value(name string) (string, error) {
	v, err := o.Variant(name)
	if err != nil {
		return "", err
	}
	defer v.Release()
	return Text(v)
}

// IntValue returns a property converted to an integer (see Int).
func (o *Object) IntValue(name string) (int64, error) {
	v, err := o.Variant(name)
	if err != nil {
		return 0, err
	}
	defer v.Release()
	return Int(v)
}

// ClassName returns the __CLASS pseudo-property.
func (o *Object) ClassName() (string, error) {
	return o.Value(core.PropClass)
}

// RelPath returns the __RELPATH pseudo-property.
func (o *Object) RelPath() (string, error) {
	return o.Value(core.PropRelPath)
}

// Methods walks the method table of the object's class. A failure to
// start the walk yields no methods; a failed fetch ends the walk the
// same way exhaustion does.
func (o *Object) Methods() ([]MethodDef, error) {
	if !o.Valid() {
		return nil, errNull("Methods")
	}
	cls, err := o.classDef()
	if err != nil {
		return nil, err
	}
	defer cls.Release()

	methods := []MethodDef{}
	if err := cls.BeginMethodEnumeration(); err != nil {
		o.logger.Debug("method enumeration unavailable", "error", err)
		return methods, nil
	}
	defer func() {
		if err := cls.EndMethodEnumeration(); err != nil {
			o.logger.Debug("ending method enumeration failed", "error", err)
		}
	}()

	for {
		name, in, out, err := cls.NextMethod()
		if err != nil || name == "" {
			releaseRecords(in, out)
			if err != nil {
				o.logger.Debug("method walk stopped", "error", err)
			}
			break
		}
		def, err := describeMethod(name, in, out)
		releaseRecords(in, out)
		if err != nil {
			return nil, err
		}
		methods = append(methods, def)
	}
	return methods, nil
}

func describeMethod(name string, in, out core.Record) (MethodDef, error) {
	def := MethodDef{Name: name, In: []string{}, Out: []string{}}
	var err error
	if in != nil {
		if def.In, err = EnumNames(in, core.NamesNonSystem); err != nil {
			return MethodDef{}, err
		}
	}
	if out != nil {
		if def.Out, err = EnumNames(out, core.NamesNonSystem); err != nil {
			return MethodDef{}, err
		}
	}
	return def, nil
}

// classDef fetches the definition of the object's class by __CLASS.
func (o *Object) classDef() (core.Record, error) {
	v, err := o.rec.Get(core.PropClass)
	if err != nil {
		return nil, newError(propertyKind(err), "Get", err)
	}
	name, err := Text(v)
	if err != nil {
		return nil, err
	}
	cls, err := o.ref.svc.GetObject(name)
	if err != nil {
		if isNotFound(core.StatusOf(err)) {
			return nil, newError(KindNotFound, "GetObject", err)
		}
		return nil, newError(KindAccessFailure, "GetObject", err)
	}
	return cls, nil
}

func propertyKind(err error) Kind {
	if core.StatusOf(err) == core.StatusNotFound {
		return KindPropertyNotFound
	}
	return KindAccessFailure
}

func releaseRecords(recs ...core.Record) {
	for _, r := range recs {
		if r != nil {
			r.Release()
		}
	}
}
