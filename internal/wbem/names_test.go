package wbem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/pkg/core"
	"github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
)

func TestEnumNames(t *testing.T) {
	p, _, svc := setup(t)
	obj := object(t, svc, "Win32_Environment")

	names, err := EnumNames(obj.rec, core.NamesNonSystem)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "UserName", "VariableValue", "SystemVariable"}, names)
	assert.Zero(t, p.Stats().Arrays, "array destroyed")

	system, err := EnumNames(obj.rec, core.NamesSystem)
	require.NoError(t, err)
	assert.Contains(t, system, core.PropClass)
	assert.Contains(t, system, core.PropRelPath)
}

func TestEnumNames_Empty(t *testing.T) {
	_, _, svc := setup(t)
	obj := object(t, svc, "StdRegProv")

	names, err := EnumNames(obj.rec, core.NamesNonSystem)
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestEnumNames_Nil(t *testing.T) {
	_, err := EnumNames(nil, core.NamesAll)
	assert.True(t, errors.Is(err, ErrPointerNull))
}

func TestEnumNames_Failures(t *testing.T) {
	tests := []struct {
		name      string
		op        string
		schema    bool
		cleanup   bool
		arraysOut int
	}{
		{name: "names", op: fixture.OpNames, schema: true},
		{name: "lower bound", op: fixture.OpLowerBound, schema: true},
		{name: "upper bound", op: fixture.OpUpperBound, schema: true},
		{name: "element", op: fixture.OpElement, schema: true},
		{name: "destroy", op: fixture.OpDestroy, cleanup: true, arraysOut: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, svc := setup(t)
			obj := object(t, svc, "Win32_Service")

			p.Faults.Set(tt.op, core.StatusFailed)
			names, err := EnumNames(obj.rec, core.NamesNonSystem)
			p.Faults.Reset()

			require.Error(t, err)
			assert.Nil(t, names)
			assert.Equal(t, tt.schema, errors.Is(err, ErrSchemaFailure))
			assert.Equal(t, tt.cleanup, errors.Is(err, ErrArrayCleanupFailure))
			assert.Equal(t, tt.arraysOut, p.Stats().Arrays)
		})
	}
}

func TestEnumNames_FailureAndCleanupFailure(t *testing.T) {
	p, _, svc := setup(t)
	obj := object(t, svc, "Win32_Service")

	p.Faults.Set(fixture.OpElement, core.StatusFailed)
	p.Faults.Set(fixture.OpDestroy, core.StatusInvalidArg)
	_, err := EnumNames(obj.rec, core.NamesNonSystem)
	p.Faults.Reset()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaFailure))
	assert.True(t, errors.Is(err, ErrArrayCleanupFailure))
}
