package wbem

import (
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// NullText is how Text renders null and empty values.
const NullText = "NULL"

// Text renders v for display. Rules apply in order: null renders as
// NullText, booleans as "true"/"false", other scalars as their textual
// form, and strings unchanged. Objects and arrays cannot be rendered.
func Text(v core.Variant) (string, error) {
	switch v.Kind() {
	case core.KindNull, core.KindEmpty:
		return NullText, nil
	case core.KindBool:
		if v.Bool() {
			return "true", nil
		}
		return "false", nil
	case core.KindInt:
		return strconv.FormatInt(v.Int64(), 10), nil
	case core.KindUint:
		return strconv.FormatUint(v.Uint64(), 10), nil
	case core.KindReal:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64), nil
	case core.KindDateTime, core.KindString:
		return v.Text(), nil
	default:
		return "", statusError(KindCoercionFailure, "Text", core.StatusTypeMismatch, "cannot render %s value as text", v.Kind())
	}
}

// Int converts v to a signed integer. Unsigned values must fit, booleans
// become 1 or 0, reals are truncated toward zero and strings are parsed
// as decimal after trimming.
func Int(v core.Variant) (int64, error) {
	switch v.Kind() {
	case core.KindInt:
		return v.Int64(), nil
	case core.KindUint:
		if v.Uint64() > math.MaxInt64 {
			return 0, statusError(KindCoercionFailure, "Int", core.StatusOverflow, "%d overflows int64", v.Uint64())
		}
		return int64(v.Uint64()), nil
	case core.KindBool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	case core.KindReal:
		f := math.Trunc(v.Float64())
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, statusError(KindCoercionFailure, "Int", core.StatusOverflow, "%g does not fit int64", v.Float64())
		}
		return int64(f), nil
	case core.KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Text()), 10, 64)
		if err != nil {
			return 0, statusError(KindCoercionFailure, "Int", core.StatusTypeMismatch, "%q is not an integer", v.Text())
		}
		return i, nil
	default:
		return 0, statusError(KindCoercionFailure, "Int", core.StatusTypeMismatch, "cannot convert %s value to integer", v.Kind())
	}
}
