//go:build linux

package streamwrite

import "golang.org/x/sys/unix"

// preallocate hints at disk space reservation without advancing fd's
// apparent size: FALLOC_FL_KEEP_SIZE keeps st_size equal to bytes
// actually written even though blocks are reserved ahead of that point.
// Purely a hint; failures (e.g. filesystem doesn't support fallocate)
// are ignored.
func preallocate(fd int, size int64) {
	_ = unix.Fallocate(fd, unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
