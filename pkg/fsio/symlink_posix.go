//go:build !windows

package fsio

import (
	"os"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
)

// copySymlink replicates src's link target at dest via a fresh symlink.
// A relative target is carried verbatim: it resolves against dest's own
// parent once created, not against src's — callers that need
// source-relative resolution must pre-resolve the target themselves.
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
