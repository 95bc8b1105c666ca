package wbem

import (
	"strings"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// Param is one named method input.
type Param struct {
	Name  string
	Value core.Variant
}

// BoolParam returns a boolean input.
func BoolParam(name string, b bool) Param {
	return Param{Name: name, Value: core.BoolValue(b)}
}

// IntParam returns an integer input.
func IntParam(name string, i int64) Param {
	return Param{Name: name, Value: core.IntValue(i)}
}

// StringParam returns a string input.
func StringParam(name, s string) Param {
	return Param{Name: name, Value: core.StringValue(s)}
}

// NullParam returns a null input.
func NullParam(name string) Param {
	return Param{Name: name, Value: core.NullValue()}
}

// ParamMap holds decoded out-parameters by name.
type ParamMap map[string]core.Variant

// Release releases every value in the map.
func (m ParamMap) Release() {
	for _, v := range m {
		v.Release()
	}
}

// ExecMethod invokes method on the object and returns its ReturnValue.
//
// Inputs are written to a fresh in-parameter record in order, so a
// repeated name keeps its last value. Out-parameters other than
// ReturnValue are stored in out, which may be nil. When the method
// returns no out record the result is Empty and out is left untouched.
// The caller releases the result and the values stored in out.
func (o *Object) ExecMethod(method string, in []Param, out ParamMap) (core.Variant, error) {
	if !o.Valid() {
		return core.Variant{}, errNull("ExecMethod")
	}
	cls, err := o.classDef()
	if err != nil {
		return core.Variant{}, err
	}
	defer cls.Release()

	inSig, outSig, err := cls.GetMethod(method)
	if err != nil {
		return core.Variant{}, newError(KindNotFound, "GetMethod", err)
	}
	releaseRecords(outSig)

	var inRec core.Record
	if inSig != nil {
		defer inSig.Release()
		inRec, err = inSig.SpawnInstance()
		if err != nil {
			return core.Variant{}, newError(KindInvokeFailure, "SpawnInstance", err)
		}
		defer inRec.Release()
		for _, p := range in {
			if err := inRec.Put(p.Name, p.Value); err != nil {
				kind := KindCoercionFailure
				if core.StatusOf(err) == core.StatusNotFound {
					kind = KindPropertyNotFound
				}
				return core.Variant{}, newError(kind, "Put "+p.Name, err)
			}
		}
	} else if len(in) > 0 {
		return core.Variant{}, statusError(KindCoercionFailure, "Put", core.StatusInvalidParameter,
			"method %s takes no input parameters", method)
	}

	rel, err := o.Variant(core.PropRelPath)
	if err != nil {
		return core.Variant{}, err
	}
	if rel.Kind() != core.KindString {
		return core.Variant{}, statusError(KindInvokeFailure, "ExecMethod", core.StatusInvalidObjectPath,
			"object has no relative path")
	}
	path := rel.Text()

	o.logger.Debug("executing method", "path", path, "method", method, "inputs", len(in))
	outRec, err := o.ref.svc.ExecMethod(path, method, inRec)
	if err != nil {
		return core.Variant{}, newError(KindInvokeFailure, "ExecMethod", err)
	}
	if outRec == nil {
		return core.EmptyValue(), nil
	}
	defer outRec.Release()

	ret, err := outRec.Get(core.ReturnValueField)
	if err != nil {
		o.logger.Debug("out record has no return value", "method", method, "error", err)
		ret = core.EmptyValue()
	}

	fields, err := outFields(outRec)
	if err != nil {
		ret.Release()
		return core.Variant{}, err
	}
	if out == nil {
		fields.Release()
		return ret, nil
	}
	for name, v := range fields {
		if old, ok := out[name]; ok {
			old.Release()
		}
		out[name] = v
	}
	return ret, nil
}

// outFields reads the non-system fields of an out record, skipping the
// return value slot.
func outFields(rec core.Record) (ParamMap, error) {
	if err := rec.BeginEnumeration(core.NamesNonSystem); err != nil {
		return nil, newError(KindSchemaFailure, "BeginEnumeration", err)
	}
	defer func() { _ = rec.EndEnumeration() }()

	fields := make(ParamMap)
	for {
		name, v, err := rec.Next()
		if err != nil {
			fields.Release()
			return nil, newError(KindSchemaFailure, "Next", err)
		}
		if name == "" {
			break
		}
		if strings.EqualFold(name, core.ReturnValueField) {
			v.Release()
			continue
		}
		if old, ok := fields[name]; ok {
			old.Release()
		}
		fields[name] = v
	}
	return fields, nil
}
