package wbem

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		v    core.Variant
		want string
	}{
		{"null", core.NullValue(), "NULL"},
		{"empty", core.EmptyValue(), "NULL"},
		{"true", core.BoolValue(true), "true"},
		{"false", core.BoolValue(false), "false"},
		{"int", core.IntValue(-42), "-42"},
		{"uint", core.UintValue(18446744073709551615), "18446744073709551615"},
		{"real", core.RealValue(2.5), "2.5"},
		{"whole real", core.RealValue(3), "3"},
		{"datetime", core.DateTimeValue("20261015081502.500000+120"), "20261015081502.500000+120"},
		{"string", core.StringValue("  NTFS  "), "  NTFS  "},
		{"string spelled null", core.StringValue("null"), "null"},
		{"empty string", core.StringValue(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestText_Unrenderable(t *testing.T) {
	for _, v := range []core.Variant{core.ArrayValue(core.IntValue(1)), core.ObjectValue(nil)} {
		_, err := Text(v)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCoercionFailure))
		assert.Equal(t, core.StatusTypeMismatch, StatusOf(err))
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name    string
		v       core.Variant
		want    int64
		wantErr bool
	}{
		{"int", core.IntValue(-7), -7, false},
		{"uint", core.UintValue(3), 3, false},
		{"uint overflow", core.UintValue(math.MaxUint64), 0, true},
		{"true", core.BoolValue(true), 1, false},
		{"false", core.BoolValue(false), 0, false},
		{"real truncates", core.RealValue(-2.9), -2, false},
		{"real too large", core.RealValue(1e30), 0, true},
		{"nan", core.RealValue(math.NaN()), 0, true},
		{"string", core.StringValue(" 512 "), 512, false},
		{"bad string", core.StringValue("12abc"), 0, true},
		{"null", core.NullValue(), 0, true},
		{"datetime", core.DateTimeValue("20260101000000.000000+000"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Int(tt.v)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrCoercionFailure), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestError_Format(t *testing.T) {
	err := newError(KindQueryFailure, "ExecQuery", core.NewStatusError("ExecQuery", core.StatusInvalidQuery))

	assert.Equal(t, "query failure in ExecQuery: query was not syntactically valid (0x80041017)", err.Error())
	assert.Equal(t, core.StatusInvalidQuery, err.Status)
	assert.Contains(t, err.Location, "coerce_test.go:")
	assert.True(t, errors.Is(err, ErrQueryFailure))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindQueryFailure, KindOf(err))

	var se *core.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "ExecQuery", se.Op)
}
