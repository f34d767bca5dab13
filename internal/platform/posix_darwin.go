//go:build darwin

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
	return unix.Getentropy(buf)
}

// fullFsyncSupported caches whether F_FULLFSYNC works on the filesystem
// backing recent fds; some network/exotic filesystems reject it with
// ENOTSUP, in which case every subsequent call falls back to plain fsync
// without re-probing.
var fullFsyncSupported = newFeatureProbe()

// ResetFeatureProbesForTest clears the cached F_FULLFSYNC support latch.
func ResetFeatureProbesForTest() {
	fullFsyncSupported = newFeatureProbe()
}

// SyncFile syncs fd's data. DurabilityFull uses F_FULLFSYNC, which
// actually flushes the drive's write cache; DurabilityDataOnly uses the
// weaker F_BARRIERFSYNC. Both fall back to plain fsync if the fcntl isn't
// supported. fcntl(F_FULLFSYNC) does not blindly retry on failure; any
// non-ENOTSUP error falls straight through to the fsync fallback.
func SyncFile(fd int, durability Durability) error {
	switch durability {
	case DurabilityNone:
		return nil
	case DurabilityFull:
		if fullFsyncSupported.supported() {
			if fsyncOverride != nil {
				if err := fsyncOverride(fd); err == nil {
					return nil
				}
			} else if _, err := unix.FcntlInt(uintptr(fd), unix.F_FULLFSYNC, 0); err == nil {
				return nil
			} else if err == unix.ENOTSUP {
				fullFsyncSupported.markUnsupported()
			}
		}
		return plainFsync(fd)
	default: // DurabilityDataOnly
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_BARRIERFSYNC, 0); err == nil {
			return nil
		}
		return plainFsync(fd)
	}
}

func plainFsync(fd int) error {
	for {
		err := unix.Fsync(fd)
		if err == nil {
			return nil
		}
		if err == unix.EINTR {
			continue
		}
		return fserrors.SyncFailed(fserrors.FromPosix(int32(errno(err))), err.Error())
	}
}

// Publish performs the atomic rename/link-unlink publish step. On
// NoClobber, renamex_np(RENAME_EXCL) is the strongest available atomic
// primitive; ENOTSUP/EINVAL falls back to link+unlink.
func Publish(tempPath, destPath string, strategy PublishStrategy) error {
	if strategy == ReplaceExisting {
		if renameOverride != nil {
			return wrapRenameErr(renameOverride(tempPath, destPath), tempPath, destPath)
		}
		return wrapRenameErr(unix.Rename(tempPath, destPath), tempPath, destPath)
	}

	err := unix.Renamex_np(tempPath, destPath, unix.RENAME_EXCL)
	if err == nil {
		return nil
	}
	if err == unix.EEXIST {
		return fserrors.DestinationExists(destPath)
	}
	if err == unix.ENOTSUP || err == unix.EINVAL {
		return publishViaLinkUnlink(tempPath, destPath)
	}
	return wrapRenameErr(err, tempPath, destPath)
}

func publishViaLinkUnlink(tempPath, destPath string) error {
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

// Preallocate hints at disk space reservation for fd via F_PREALLOCATE.
// Purely advisory: failures are ignored by the caller and EOF is not
// advanced by this call, so file length still equals bytes written.
func Preallocate(fd int, size int64) {
	store := unix.Fstore_t{
		Flags:   unix.F_ALLOCATECONTIG,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	}
	if _, err := unix.FcntlFstore(uintptr(fd), unix.F_PREALLOCATE, &store); err != nil {
		store.Flags = unix.F_ALLOCATEALL
		_, _ = unix.FcntlFstore(uintptr(fd), unix.F_PREALLOCATE, &store)
	}
}
