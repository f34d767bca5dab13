//go:build darwin

package streamwrite

import "github.com/atomicfs/atomicfs/internal/platform"

// preallocate delegates to the platform's F_PREALLOCATE hint.
func preallocate(fd int, size int64) {
	platform.Preallocate(fd, size)
}
