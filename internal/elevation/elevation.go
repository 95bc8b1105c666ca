// Package elevation reports whether the process runs with administrative
// rights. Method calls that change system state usually need them.
package elevation

import "errors"

// ErrNotElevated is returned by Require when the process is not elevated.
var ErrNotElevated = errors.New("this operation requires an elevated (administrator) process")

// Elevated reports whether the current process is elevated.
func Elevated() bool {
	return elevated()
}

// Require returns ErrNotElevated unless the process is elevated.
func Require() error {
	if !elevated() {
		return ErrNotElevated
	}
	return nil
}
