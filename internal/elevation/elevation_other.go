//go:build !windows

package elevation

import "os"

func elevated() bool {
	return os.Geteuid() == 0
}
