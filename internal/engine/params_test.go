package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/internal/wbem"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []wbem.Param
	}{
		{"none", nil, []wbem.Param{}},
		{"inferred", []string{"A=true", "B=FALSE", "C=-12", "D=null", "E=hello"}, []wbem.Param{
			wbem.BoolParam("A", true),
			wbem.BoolParam("B", false),
			wbem.IntParam("C", -12),
			wbem.NullParam("D"),
			wbem.StringParam("E", "hello"),
		}},
		{"typed", []string{"A:string=true", "B:int=7", "C:bool=1", "D:null=", "E:STRING=42"}, []wbem.Param{
			wbem.StringParam("A", "true"),
			wbem.IntParam("B", 7),
			wbem.BoolParam("C", true),
			wbem.NullParam("D"),
			wbem.StringParam("E", "42"),
		}},
		{"value with equals", []string{"Q=a=b"}, []wbem.Param{wbem.StringParam("Q", "a=b")}},
		{"empty value", []string{"S="}, []wbem.Param{wbem.StringParam("S", "")}},
		{"order kept", []string{"B=1", "A=2", "B=3"}, []wbem.Param{
			wbem.IntParam("B", 1),
			wbem.IntParam("A", 2),
			wbem.IntParam("B", 3),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseParams_Errors(t *testing.T) {
	tests := []struct {
		name   string
		arg    string
		errMsg string
	}{
		{"missing equals", "Flag", "expected name=value"},
		{"empty name", "=1", "empty name"},
		{"bad bool", "F:bool=maybe", "invalid bool for F"},
		{"bad int", "N:int=ten", "invalid int for N"},
		{"unknown type", "X:float=1.5", `unknown parameter type "float"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParams([]string{tt.arg})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseWhere(t *testing.T) {
	got, err := ParseWhere([]string{"Name=Spooler", "State=Running"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Name": "Spooler", "State": "Running"}, got)

	got, err = ParseWhere(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseWhere([]string{"Name"})
	assert.ErrorContains(t, err, "expected property=value")
}
