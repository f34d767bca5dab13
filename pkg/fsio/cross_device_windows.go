//go:build windows

package fsio

import (
	"errors"
	"syscall"

	"golang.org/x/sys/windows"
)

func isCrossDevice(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return errno == windows.ERROR_NOT_SAME_DEVICE
}
