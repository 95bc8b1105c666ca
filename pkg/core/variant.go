package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// Kind
// =============================================================================

// Kind is the tag of a Variant.
type Kind int

// Variant kinds.
const (
	// KindEmpty is an uninitialised value. It is what a method without an
	// out-parameter record yields as its return value.
	KindEmpty Kind = iota
	// KindNull is an explicit null.
	KindNull
	KindBool
	KindInt
	KindUint
	KindReal
	KindString
	// KindDateTime holds a CIM datetime string (yyyymmddHHMMSS.mmmmmmsUUU).
	KindDateTime
	// KindObject holds an embedded record.
	KindObject
	KindArray
)

var kindNames = map[Kind]string{
	KindEmpty:    "empty",
	KindNull:     "null",
	KindBool:     "bool",
	KindInt:      "int",
	KindUint:     "uint",
	KindReal:     "real",
	KindString:   "string",
	KindDateTime: "datetime",
	KindObject:   "object",
	KindArray:    "array",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind converts a kind name (as used in fixture files and typed
// parameters) to a Kind. Accepts a few CIM type aliases.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "empty":
		return KindEmpty, true
	case "null":
		return KindNull, true
	case "bool", "boolean":
		return KindBool, true
	case "int", "sint8", "sint16", "sint32", "sint64", "integer":
		return KindInt, true
	case "uint", "uint8", "uint16", "uint32", "uint64":
		return KindUint, true
	case "real", "real32", "real64", "float", "double":
		return KindReal, true
	case "string", "str", "char16":
		return KindString, true
	case "datetime":
		return KindDateTime, true
	case "object":
		return KindObject, true
	case "array":
		return KindArray, true
	default:
		return KindEmpty, false
	}
}

// =============================================================================
// Variant
// =============================================================================

// Variant is a dynamically typed value as exchanged with a provider.
// The zero Variant is Empty.
type Variant struct {
	kind Kind
	num  uint64
	f    float64
	s    string
	obj  Record
	arr  []Variant
}

// EmptyValue returns an Empty variant.
func EmptyValue() Variant { return Variant{} }

// NullValue returns a Null variant.
func NullValue() Variant { return Variant{kind: KindNull} }

// BoolValue returns a Bool variant.
func BoolValue(b bool) Variant {
	v := Variant{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

// IntValue returns a signed integer variant.
func IntValue(i int64) Variant { return Variant{kind: KindInt, num: uint64(i)} }

// UintValue returns an unsigned integer variant.
func UintValue(u uint64) Variant { return Variant{kind: KindUint, num: u} }

// RealValue returns a floating point variant.
func RealValue(f float64) Variant { return Variant{kind: KindReal, f: f} }

// StringValue returns a string variant.
func StringValue(s string) Variant { return Variant{kind: KindString, s: s} }

// DateTimeValue returns a datetime variant holding a CIM datetime string.
func DateTimeValue(s string) Variant { return Variant{kind: KindDateTime, s: s} }

// ObjectValue returns a variant wrapping an embedded record.
func ObjectValue(r Record) Variant { return Variant{kind: KindObject, obj: r} }

// ArrayValue returns an array variant. The slice is copied.
func ArrayValue(items ...Variant) Variant {
	return Variant{kind: KindArray, arr: append([]Variant(nil), items...)}
}

// Kind returns the variant's tag.
func (v Variant) Kind() Kind { return v.kind }

// IsNull reports whether the variant is Null or Empty.
func (v Variant) IsNull() bool { return v.kind == KindNull || v.kind == KindEmpty }

// Bool returns the boolean payload. False for other kinds.
func (v Variant) Bool() bool { return v.kind == KindBool && v.num != 0 }

// Int64 returns the signed payload. Zero for other kinds.
func (v Variant) Int64() int64 {
	if v.kind != KindInt {
		return 0
	}
	return int64(v.num)
}

// Uint64 returns the unsigned payload. Zero for other kinds.
func (v Variant) Uint64() uint64 {
	if v.kind != KindUint {
		return 0
	}
	return v.num
}

// Float64 returns the real payload. Zero for other kinds.
func (v Variant) Float64() float64 {
	if v.kind != KindReal {
		return 0
	}
	return v.f
}

// Text returns the string payload of a String or DateTime variant.
func (v Variant) Text() string {
	if v.kind != KindString && v.kind != KindDateTime {
		return ""
	}
	return v.s
}

// Object returns the embedded record, or nil.
func (v Variant) Object() Record { return v.obj }

// Release releases the embedded record of an Object variant, or those of
// the elements of an Array variant. Other kinds are unaffected.
func (v Variant) Release() {
	switch v.kind {
	case KindObject:
		if v.obj != nil {
			v.obj.Release()
		}
	case KindArray:
		for _, item := range v.arr {
			item.Release()
		}
	}
}

// Array returns a copy of the array items, or nil.
func (v Variant) Array() []Variant {
	if v.kind != KindArray {
		return nil
	}
	return append([]Variant(nil), v.arr...)
}

// String implements fmt.Stringer for debugging and log output.
func (v Variant) String() string {
	switch v.kind {
	case KindEmpty:
		return "<empty>"
	case KindNull:
		return "<null>"
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt:
		return strconv.FormatInt(v.Int64(), 10)
	case KindUint:
		return strconv.FormatUint(v.num, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindDateTime:
		return "datetime(" + v.s + ")"
	case KindObject:
		return "<object>"
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<unknown>"
	}
}

// Interface converts the variant into a plain Go value suitable for
// JSON encoding. Objects become nil.
func (v Variant) Interface() any {
	switch v.kind {
	case KindBool:
		return v.Bool()
	case KindInt:
		return v.Int64()
	case KindUint:
		return v.num
	case KindReal:
		return v.f
	case KindString, KindDateTime:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// VariantOf converts a plain Go value into a Variant. It understands the
// scalar types produced by YAML/JSON decoders and COM automation
// (including time.Time, rendered as a CIM datetime). The second result is
// false for unsupported types.
func VariantOf(x any) (Variant, bool) {
	switch val := x.(type) {
	case nil:
		return NullValue(), true
	case Variant:
		return val, true
	case bool:
		return BoolValue(val), true
	case int:
		return IntValue(int64(val)), true
	case int8:
		return IntValue(int64(val)), true
	case int16:
		return IntValue(int64(val)), true
	case int32:
		return IntValue(int64(val)), true
	case int64:
		return IntValue(val), true
	case uint:
		return UintValue(uint64(val)), true
	case uint8:
		return UintValue(uint64(val)), true
	case uint16:
		return UintValue(uint64(val)), true
	case uint32:
		return UintValue(uint64(val)), true
	case uint64:
		return UintValue(val), true
	case float32:
		return RealValue(float64(val)), true
	case float64:
		return RealValue(val), true
	case string:
		return StringValue(val), true
	case time.Time:
		return DateTimeValue(FormatDateTime(val)), true
	case []any:
		items := make([]Variant, 0, len(val))
		for _, item := range val {
			iv, ok := VariantOf(item)
			if !ok {
				return Variant{}, false
			}
			items = append(items, iv)
		}
		return ArrayValue(items...), true
	case []string:
		items := make([]Variant, len(val))
		for i, item := range val {
			items[i] = StringValue(item)
		}
		return ArrayValue(items...), true
	default:
		return Variant{}, false
	}
}

// FormatDateTime renders t as a CIM datetime string.
func FormatDateTime(t time.Time) string {
	_, offset := t.Zone()
	sign := '+'
	minutes := offset / 60
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%s.%06d%c%03d", t.Format("20060102150405"), t.Nanosecond()/1000, sign, minutes)
}
