//go:build windows

package ole

import (
	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// record wraps an SWbemObject.
type record struct {
	p   *Provider
	obj *ole.IDispatch

	methods []string
	fields  []field
	pos     int
	walking bool
}

type field struct {
	name  string
	value core.Variant
}

func (p *Provider) newRecord(obj *ole.IDispatch) *record {
	return &record{p: p, obj: obj}
}

// property returns the SWbemProperty for name from Properties_ or, for
// system names, SystemProperties_. Runs on the apartment thread.
func (r *record) property(op, name string) (*ole.VARIANT, error) {
	set := "Properties_"
	if core.IsSystemName(name) {
		set = "SystemProperties_"
	}
	props, err := oleutil.GetProperty(r.obj, set)
	if err != nil {
		return nil, toStatus(op, err)
	}
	defer props.Clear()
	prop, err := oleutil.CallMethod(props.ToIDispatch(), "Item", name)
	if err != nil {
		return nil, toStatus(op, err)
	}
	return prop, nil
}

// value reads a property's Value, honoring its CIM type. Runs on the
// apartment thread.
func (r *record) value(prop *ole.IDispatch) (core.Variant, error) {
	datetime := false
	if ct, err := oleutil.GetProperty(prop, "CIMType"); err == nil {
		if n, ok := ct.Value().(int32); ok && n == cimDateTime {
			datetime = true
		}
		_ = ct.Clear()
	}
	v, err := oleutil.GetProperty(prop, "Value")
	if err != nil {
		return core.Variant{}, toStatus("Get", err)
	}
	defer v.Clear()
	return r.p.fromOle(v, datetime), nil
}

func (r *record) Get(name string) (core.Variant, error) {
	var out core.Variant
	err := r.p.do(func() error {
		prop, err := r.property("Get", name)
		if err != nil {
			return err
		}
		defer prop.Clear()
		out, err = r.value(prop.ToIDispatch())
		return err
	})
	return out, err
}

func (r *record) Put(name string, value core.Variant) error {
	if core.IsSystemName(name) {
		return core.NewStatusError("Put", core.StatusNotSupported)
	}
	arg, ok := toOle(value)
	if !ok {
		return core.NewStatusError("Put", core.StatusTypeMismatch)
	}
	return r.p.do(func() error {
		prop, err := r.property("Put", name)
		if err != nil {
			return err
		}
		defer prop.Clear()
		if _, err := oleutil.PutProperty(prop.ToIDispatch(), "Value", arg); err != nil {
			return toStatus("Put", err)
		}
		return nil
	})
}

// names lists the Name of every item in a property collection. Runs on
// the apartment thread.
func (r *record) names(set string) ([]string, error) {
	props, err := oleutil.GetProperty(r.obj, set)
	if err != nil {
		return nil, toStatus("Names", err)
	}
	defer props.Clear()
	var names []string
	err = oleutil.ForEach(props.ToIDispatch(), func(item *ole.VARIANT) error {
		defer item.Clear()
		n, err := oleutil.GetProperty(item.ToIDispatch(), "Name")
		if err != nil {
			return err
		}
		names = append(names, n.ToString())
		return n.Clear()
	})
	if err != nil {
		return nil, toStatus("Names", err)
	}
	return names, nil
}

func (r *record) Names(flags core.NameFlags) (core.NameArray, error) {
	var names []string
	err := r.p.do(func() error {
		if flags != core.NamesNonSystem {
			sys, err := r.names("SystemProperties_")
			if err != nil {
				return err
			}
			names = append(names, sys...)
		}
		if flags != core.NamesSystem {
			props, err := r.names("Properties_")
			if err != nil {
				return err
			}
			names = append(names, props...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nameArray(names), nil
}

func (r *record) BeginMethodEnumeration() error {
	var names []string
	err := r.p.do(func() error {
		var err error
		names, err = r.names("Methods_")
		return err
	})
	if err != nil {
		return err
	}
	r.methods = names
	r.pos = 0
	r.walking = true
	return nil
}

func (r *record) NextMethod() (string, core.Record, core.Record, error) {
	if !r.walking {
		return "", nil, nil, core.NewStatusError("NextMethod", core.StatusWbemFailed)
	}
	if r.pos >= len(r.methods) {
		return "", nil, nil, nil
	}
	name := r.methods[r.pos]
	r.pos++
	in, out, err := r.GetMethod(name)
	if err != nil {
		return "", nil, nil, err
	}
	return name, in, out, nil
}

func (r *record) EndMethodEnumeration() error {
	r.methods = nil
	r.walking = false
	return nil
}

func (r *record) GetMethod(name string) (core.Record, core.Record, error) {
	var in, out core.Record
	err := r.p.do(func() error {
		methods, err := oleutil.GetProperty(r.obj, "Methods_")
		if err != nil {
			return toStatus("GetMethod", err)
		}
		defer methods.Clear()
		m, err := oleutil.CallMethod(methods.ToIDispatch(), "Item", name)
		if err != nil {
			return toStatus("GetMethod", err)
		}
		defer m.Clear()
		in = r.signature(m.ToIDispatch(), "InParameters")
		out = r.signature(m.ToIDispatch(), "OutParameters")
		return nil
	})
	return in, out, err
}

// signature reads an SWbemMethod parameter object, nil when absent.
func (r *record) signature(method *ole.IDispatch, prop string) core.Record {
	v, err := oleutil.GetProperty(method, prop)
	if err != nil {
		return nil
	}
	if v.VT != ole.VT_DISPATCH || v.ToIDispatch() == nil {
		_ = v.Clear()
		return nil
	}
	return r.p.newRecord(v.ToIDispatch())
}

func (r *record) SpawnInstance() (core.Record, error) {
	var rec core.Record
	err := r.p.do(func() error {
		v, err := oleutil.CallMethod(r.obj, "SpawnInstance_")
		if err != nil {
			return toStatus("SpawnInstance", err)
		}
		rec = r.p.newRecord(v.ToIDispatch())
		return nil
	})
	return rec, err
}

// BeginEnumeration snapshots the selected fields and their values.
func (r *record) BeginEnumeration(flags core.NameFlags) error {
	arr, err := r.Names(flags)
	if err != nil {
		return err
	}
	names := arr.(nameArray)
	fields := make([]field, 0, len(names))
	for _, name := range names {
		v, err := r.Get(name)
		if err != nil {
			return err
		}
		fields = append(fields, field{name: name, value: v})
	}
	r.fields = fields
	r.pos = 0
	return nil
}

func (r *record) Next() (string, core.Variant, error) {
	if r.fields == nil {
		return "", core.Variant{}, core.NewStatusError("Next", core.StatusWbemFailed)
	}
	if r.pos >= len(r.fields) {
		return "", core.Variant{}, nil
	}
	f := r.fields[r.pos]
	r.pos++
	return f.name, f.value, nil
}

func (r *record) EndEnumeration() error {
	r.fields = nil
	return nil
}

func (r *record) Release() {
	r.p.release(r.obj)
	r.obj = nil
}

// nameArray is a zero-based name array.
type nameArray []string

func (a nameArray) LowerBound() (int, error) { return 0, nil }
func (a nameArray) UpperBound() (int, error) { return len(a) - 1, nil }

func (a nameArray) Element(i int) (string, error) {
	if i < 0 || i >= len(a) {
		return "", core.NewStatusError("Element", core.StatusInvalidArg)
	}
	return a[i], nil
}

func (a nameArray) Destroy() error { return nil }
