//go:build linux

package platform

import (
	"golang.org/x/sys/unix"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
)

const openDirectoryFlags = unix.O_RDONLY | unix.O_DIRECTORY | unix.O_CLOEXEC

func fillRandom(buf []byte) error {
	if getrandomOverride != nil {
		return getrandomOverride(buf)
	}
	for got := 0; got < len(buf); {
		n, err := unix.Getrandom(buf[got:], 0)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		got += n
	}
	return nil
}

// SyncFile syncs fd's data per durability. DurabilityFull and
// DurabilityDataOnly both map to fdatasync on Linux; the caller (the
// commit pipeline) is responsible for the separate directory-sync step
// that distinguishes them. fsync/fdatasync retry on EINTR since both are
// idempotent.
func SyncFile(fd int, durability Durability) error {
	if durability == DurabilityNone {
		return nil
	}
	for {
		var err error
		if fdatasyncOverride != nil {
			err = fdatasyncOverride(fd)
		} else {
			err = unix.Fdatasync(fd)
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

// renameat2Supported caches whether this kernel implements renameat2; a
// process that finds ENOSYS once never retries the syscall for later
// commits.
var renameat2Supported = newFeatureProbe()

// ResetFeatureProbesForTest clears the cached renameat2 support latch so
// a test can observe both the probed and already-known code paths within
// a single process.
func ResetFeatureProbesForTest() {
	renameat2Supported = newFeatureProbe()
}

// Publish performs the atomic rename/link-unlink publish step. On
// strategy == ReplaceExisting it's a plain rename. On NoClobber it tries
// renameat2(RENAME_NOREPLACE) first; ENOSYS/EINVAL falls back to
// link+unlink, and EPERM is treated as "filesystem refused the flag" and
// also falls back, surfacing the original EPERM if the fallback fails
// too.
func Publish(tempPath, destPath string, strategy PublishStrategy) error {
	if strategy == ReplaceExisting {
		if renameOverride != nil {
			return wrapRenameErr(renameOverride(tempPath, destPath), tempPath, destPath)
		}
		return wrapRenameErr(unix.Rename(tempPath, destPath), tempPath, destPath)
	}

	if renameat2Supported.supported() {
		err := doRenameat2(tempPath, destPath)
		if err == nil {
			return nil
		}
		if err == unix.EEXIST {
			return fserrors.DestinationExists(destPath)
		}
		if err == unix.ENOSYS || err == unix.EINVAL {
			renameat2Supported.markUnsupported()
			return publishViaLinkUnlink(tempPath, destPath, nil)
		}
		if err == unix.EPERM {
			return publishViaLinkUnlink(tempPath, destPath, err)
		}
		return wrapRenameErr(err, tempPath, destPath)
	}
	return publishViaLinkUnlink(tempPath, destPath, nil)
}

func doRenameat2(tempPath, destPath string) error {
	if renameat2Override != nil {
		return renameat2Override(tempPath, destPath)
	}
	err := unix.Renameat2(unix.AT_FDCWD, tempPath, unix.AT_FDCWD, destPath, unix.RENAME_NOREPLACE)
	if err == nil {
		renameat2Supported.markSupported()
	}
	return err
}

// publishViaLinkUnlink is the fallback for platforms/kernels without an
// atomic noClobber rename: link fails atomically with EEXIST if dest
// already exists, then unlink of the temp name is best-effort. If
// origErr is non-nil (a renameat2 EPERM that this fallback also could not
// satisfy), it is surfaced with context instead of the fallback's own
// error.
func publishViaLinkUnlink(tempPath, destPath string, origErr error) error {
	if err := unix.Link(tempPath, destPath); err != nil {
		if err == unix.EEXIST {
			return fserrors.DestinationExists(destPath)
		}
		if origErr != nil {
			return fserrors.RenameFailed(tempPath, destPath, fserrors.FromPosix(int32(errno(origErr))), "renameat2 EPERM and link+unlink fallback also failed: "+err.Error())
		}
		return fserrors.RenameFailed(tempPath, destPath, fserrors.FromPosix(int32(errno(err))), err.Error())
	}
	_ = unix.Unlink(tempPath) // best-effort; data is already published under destPath
	return nil
}

func wrapRenameErr(err error, from, to string) error {
	if err == nil {
		return nil
	}
	return fserrors.RenameFailed(from, to, fserrors.FromPosix(int32(errno(err))), err.Error())
}
