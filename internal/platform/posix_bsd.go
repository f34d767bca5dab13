//go:build freebsd || openbsd || netbsd || dragonfly

package platform

import (
	"crypto/rand"

	"golang.org/x/sys/unix"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
)

const openDirectoryFlags = unix.O_RDONLY | unix.O_DIRECTORY | unix.O_CLOEXEC

// fillRandom falls back to crypto/rand on BSD variants this package does
// not special-case; none of them expose getentropy/getrandom through
// golang.org/x/sys/unix uniformly, and crypto/rand is already backed by
// the kernel CSPRNG on every one of them.
func fillRandom(buf []byte) error {
	if getrandomOverride != nil {
		return getrandomOverride(buf)
	}
	_, err := rand.Read(buf)
	return err
}

// SyncFile has no dataOnly/full distinction on these platforms; both sync
// the whole file via fsync, matching the "no dir sync" contract for
// DurabilityDataOnly at the directory-sync call site instead.
func SyncFile(fd int, durability Durability) error {
	if durability == DurabilityNone {
		return nil
	}
	for {
		var err error
		if fsyncOverride != nil {
			err = fsyncOverride(fd)
		} else {
			err = unix.Fsync(fd)
		}
		if err == nil {
			return nil
		}
		if err == unix.EINTR {
			continue
		}
		return fserrors.SyncFailed(fserrors.FromPosix(int32(errno(err))), err.Error())
	}
}

// Publish has no atomic noClobber rename primitive on these platforms, so
// NoClobber always uses the link+unlink fallback.
func Publish(tempPath, destPath string, strategy PublishStrategy) error {
	if strategy == ReplaceExisting {
		if renameOverride != nil {
			return wrapRenameErr(renameOverride(tempPath, destPath), tempPath, destPath)
		}
		return wrapRenameErr(unix.Rename(tempPath, destPath), tempPath, destPath)
	}
	if err := unix.Link(tempPath, destPath); err != nil {
		if err == unix.EEXIST {
			return fserrors.DestinationExists(destPath)
		}
		return fserrors.RenameFailed(tempPath, destPath, fserrors.FromPosix(int32(errno(err))), err.Error())
	}
	_ = unix.Unlink(tempPath)
	return nil
}

func wrapRenameErr(err error, from, to string) error {
	if err == nil {
		return nil
	}
	return fserrors.RenameFailed(from, to, fserrors.FromPosix(int32(errno(err))), err.Error())
}
