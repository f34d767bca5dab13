//go:build windows

package fsio

import (
	"os"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
)

func copySymlink(src, dest string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fserrors.OperationFailed("readlink", fserrors.PlatformCode{}, err.Error())
	}
	_ = os.Remove(dest)
	if err := os.Symlink(target, dest); err != nil {
		return fserrors.OperationFailed("symlink", fserrors.PlatformCode{}, err.Error())
	}
	return nil
}
