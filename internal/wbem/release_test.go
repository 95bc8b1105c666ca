package wbem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/internal/testutil"
	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// countedRecord counts its releases. Other Record methods are not called.
type countedRecord struct {
	core.Record
	released int
}

func (r *countedRecord) Release() { r.released++ }

// fieldRecord serves a fixed field list through Get and the field walk.
// Next fails at failAt when it is not negative.
type fieldRecord struct {
	core.Record
	names  []string
	values []core.Variant
	pos    int
	failAt int
}

func (r *fieldRecord) Get(name string) (core.Variant, error) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], nil
		}
	}
	return core.Variant{}, &core.StatusError{Status: core.StatusNotFound, Op: "Get"}
}

func (r *fieldRecord) BeginEnumeration(core.NameFlags) error {
	r.pos = 0
	return nil
}

func (r *fieldRecord) Next() (string, core.Variant, error) {
	if r.failAt >= 0 && r.pos == r.failAt {
		return "", core.Variant{}, &core.StatusError{Status: core.StatusFailed, Op: "Next"}
	}
	if r.pos >= len(r.names) {
		return "", core.Variant{}, nil
	}
	r.pos++
	return r.names[r.pos-1], r.values[r.pos-1], nil
}

func (r *fieldRecord) EndEnumeration() error { return nil }

func TestObject_Value_ReleasesEmbedded(t *testing.T) {
	embedded := &countedRecord{}
	o := &Object{
		rec:    &fieldRecord{names: []string{"Nested"}, values: []core.Variant{core.ObjectValue(embedded)}, failAt: -1},
		ref:    &serviceRef{refs: 1},
		logger: testutil.NewTestLogger(t),
	}

	_, err := o.Value("Nested")
	require.Error(t, err)
	assert.Equal(t, KindCoercionFailure, KindOf(err))
	assert.Equal(t, 1, embedded.released)

	_, err = o.IntValue("Nested")
	require.Error(t, err)
	assert.Equal(t, 2, embedded.released)
}

func TestOutFields_Release(t *testing.T) {
	t.Run("skipped return value and duplicates", func(t *testing.T) {
		ret, first, second := &countedRecord{}, &countedRecord{}, &countedRecord{}
		rec := &fieldRecord{
			names: []string{"ReturnValue", "Obj", "Obj"},
			values: []core.Variant{
				core.ObjectValue(ret), core.ObjectValue(first), core.ObjectValue(second),
			},
			failAt: -1,
		}

		fields, err := outFields(rec)
		require.NoError(t, err)
		assert.Equal(t, 1, ret.released)
		assert.Equal(t, 1, first.released)
		assert.Equal(t, 0, second.released)

		fields.Release()
		assert.Equal(t, 1, second.released)
	})

	t.Run("walk failure releases collected fields", func(t *testing.T) {
		kept := &countedRecord{}
		rec := &fieldRecord{
			names:  []string{"Obj", "Other"},
			values: []core.Variant{core.ObjectValue(kept), core.IntValue(1)},
			failAt: 1,
		}

		_, err := outFields(rec)
		require.Error(t, err)
		assert.Equal(t, KindSchemaFailure, KindOf(err))
		assert.Equal(t, 1, kept.released)
	})
}

func TestParamMap_Release(t *testing.T) {
	a, b := &countedRecord{}, &countedRecord{}
	m := ParamMap{
		"A":    core.ObjectValue(a),
		"List": core.ArrayValue(core.ObjectValue(b), core.StringValue("x")),
		"N":    core.IntValue(4),
	}
	m.Release()
	assert.Equal(t, 1, a.released)
	assert.Equal(t, 1, b.released)
}
