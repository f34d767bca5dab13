//go:build !windows

package fsio

import (
	"errors"
	"syscall"
)

// isCrossDevice reports whether err is the EXDEV os.Rename returns when
// src and dest live on different filesystems. os.Rename surfaces the raw
// syscall error via the standard "syscall" package regardless of
// whether golang.org/x/sys/unix is also linked, so that's what's
// compared here rather than unix.EXDEV.
func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
