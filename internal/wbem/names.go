package wbem

import (
	"errors"

	"github.com/leapstack-labs/wbemctl/pkg/core"
)

// EnumNames returns the names of rec's fields selected by flags, in
// schema order. The provider's name array is destroyed on every path; a
// failed destroy is reported as KindArrayCleanupFailure, joined with any
// earlier failure, and discards the names.
func EnumNames(rec core.Record, flags core.NameFlags) (names []string, err error) {
	if rec == nil {
		return nil, errNull("Names")
	}
	arr, err := rec.Names(flags)
	if err != nil {
		return nil, newError(KindSchemaFailure, "Names", err)
	}
	defer func() {
		if derr := arr.Destroy(); derr != nil {
			cleanup := newError(KindArrayCleanupFailure, "Destroy", derr)
			if err != nil {
				err = errors.Join(err, cleanup)
			} else {
				err = cleanup
			}
			names = nil
		}
	}()

	lo, err := arr.LowerBound()
	if err != nil {
		return nil, newError(KindSchemaFailure, "LowerBound", err)
	}
	hi, err := arr.UpperBound()
	if err != nil {
		return nil, newError(KindSchemaFailure, "UpperBound", err)
	}

	names = make([]string, 0, max(hi-lo+1, 0))
	for i := lo; i <= hi; i++ {
		name, err := arr.Element(i)
		if err != nil {
			return nil, newError(KindSchemaFailure, "Element", err)
		}
		names = append(names, name)
	}
	return names, nil
}
