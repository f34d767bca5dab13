//go:build freebsd || openbsd || netbsd || dragonfly

package streamwrite

// preallocate is a no-op on BSD targets: none of them expose a
// size-preserving preallocation hint through golang.org/x/sys/unix, so
// direct mode simply writes without reserving space ahead of time.
func preallocate(fd int, size int64) {}
