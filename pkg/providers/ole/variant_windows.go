//go:build windows

package ole

import (
	"errors"
	"math"
	"strconv"

	"github.com/go-ole/go-ole"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

const (
	// dispException is DISP_E_EXCEPTION; the WMI status sits in EXCEPINFO.
	dispException = 0x80020009
	// cimDateTime is wbemCimtypeDatetime.
	cimDateTime = 101
)

// toStatus converts a go-ole error into a *core.StatusError.
func toStatus(op string, err error) error {
	if err == nil {
		return nil
	}
	var oe *ole.OleError
	if !errors.As(err, &oe) {
		return core.NewStatusError(op, core.StatusFailed)
	}
	code := uint32(oe.Code())
	if code == dispException {
		if ex, ok := oe.SubError().(ole.EXCEPINFO); ok && ex.SCODE() != 0 {
			code = ex.SCODE()
		}
	}
	return core.NewStatusError(op, core.Status(code))
}

// fromOle converts a VARIANT. Embedded objects become records owned by
// the result; v keeps its own reference and must still be cleared.
func (p *Provider) fromOle(v *ole.VARIANT, datetime bool) core.Variant {
	switch {
	case v == nil || v.VT == ole.VT_EMPTY:
		return core.EmptyValue()
	case v.VT == ole.VT_NULL:
		return core.NullValue()
	case v.VT&ole.VT_ARRAY != 0:
		arr := v.ToArray()
		if arr == nil {
			return core.NullValue()
		}
		out, ok := core.VariantOf(arr.ToValueArray())
		if !ok {
			return core.NullValue()
		}
		return out
	case v.VT == ole.VT_DISPATCH:
		disp := v.ToIDispatch()
		if disp == nil {
			return core.NullValue()
		}
		// Released by Variant.Release once the caller is done.
		disp.AddRef()
		return core.ObjectValue(p.newRecord(disp))
	case v.VT == ole.VT_BSTR && datetime:
		return core.DateTimeValue(v.ToString())
	}
	out, ok := core.VariantOf(v.Value())
	if !ok {
		return core.NullValue()
	}
	return out
}

// toOle converts a variant into a value go-ole can marshal. Integers go
// as VT_I4 when they fit and as decimal strings otherwise, which is how
// the scripting API takes 64-bit values. Arrays are not supported.
func toOle(v core.Variant) (any, bool) {
	switch v.Kind() {
	case core.KindEmpty, core.KindNull:
		return nil, true
	case core.KindBool:
		return v.Bool(), true
	case core.KindInt:
		i := v.Int64()
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), true
		}
		return strconv.FormatInt(i, 10), true
	case core.KindUint:
		u := v.Uint64()
		if u <= math.MaxInt32 {
			return int32(u), true
		}
		return strconv.FormatUint(u, 10), true
	case core.KindReal:
		return v.Float64(), true
	case core.KindString, core.KindDateTime:
		return v.Text(), true
	case core.KindObject:
		if r, ok := v.Object().(*record); ok && r.obj != nil {
			return r.obj, true
		}
	}
	return nil, false
}
