//go:build !windows

package platform

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
)

// MaxTempCreateAttempts bounds the create-excl retry loop on EEXIST before
// giving up and surfacing a temp-file-creation failure.
const MaxTempCreateAttempts = 64

// TempFile is an open temp file descriptor plus the path it was created
// at, returned by CreateTemp and consumed by the commit/cleanup phases.
type TempFile struct {
	Fd   int
	Path string
}

// CreateTemp creates a uniquely-named temp file in dir for basename,
// retrying on EEXIST with a freshly generated random suffix up to
// MaxTempCreateAttempts times. The file is opened O_CREAT|O_EXCL|O_RDWR
// with mode 0600, matching invariant A1: always in the destination's own
// directory.
func CreateTemp(dir, basename, kind string) (TempFile, error) {
	pid := os.Getpid()

	var lastErr error
	for attempt := 0; attempt < MaxTempCreateAttempts; attempt++ {
		suffix, err := randomHex(12)
		if err != nil {
			return TempFile{}, fserrors.RandomGenerationFailed("createTemp", fserrors.FromPosix(0), err.Error())
		}

		name := fmt.Sprintf(".%s.%s.%d.%s.tmp", basename, kind, pid, suffix)
		path := dir + "/" + name

		fd, err := openExcl(path)
		if err == nil {
			return TempFile{Fd: fd, Path: path}, nil
		}
		if err != unix.EEXIST {
			return TempFile{}, fserrors.TempFileCreationFailed(dir, fserrors.FromPosix(int32(errno(err))), err.Error())
		}
		lastErr = err
	}
	return TempFile{}, fserrors.TempFileCreationFailed(dir, fserrors.FromPosix(int32(errno(lastErr))), "exhausted retry attempts on EEXIST")
}

func openExcl(path string) (int, error) {
	if openOverride != nil {
		return openOverride(path)
	}
	return unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR|unix.O_CLOEXEC, 0600)
}

// rawWrite performs a single write() call, or the injected override if a
// test has set one. Letting a test drive this in short, controlled bursts
// (e.g. always returning 1 byte) exercises WriteAll's partial-write loop
// without needing a real fd that actually behaves that way.
func rawWrite(fd int, data []byte) (int, error) {
	if writeOverride != nil {
		return writeOverride(fd, data)
	}
	return unix.Write(fd, data)
}

// WriteAll writes the entirety of data to fd, looping over partial writes
// and retrying on EINTR, EAGAIN, and EWOULDBLOCK. A write() returning 0 is
// treated as an error rather than looped on forever.
func WriteAll(fd int, data []byte) (int64, error) {
	var total int64
	for len(data) > 0 {
		n, err := rawWrite(fd, data)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				continue
			}
			return total, fserrors.WriteFailed(total, total+int64(len(data)), fserrors.FromPosix(int32(errno(err))), err.Error())
		}
		if n == 0 {
			return total, fserrors.WriteFailed(total, total+int64(len(data)), fserrors.PlatformCode{}, "write() returned 0 on a regular file")
		}
		total += int64(n)
		data = data[n:]
	}
	return total, nil
}

// CloseOnce closes fd exactly once and never retries on EINTR: POSIX
// leaves the descriptor's state undefined after an interrupted close, and
// retrying risks closing a handle reassigned to another thread meanwhile.
func CloseOnce(fd int) error {
	if err := unix.Close(fd); err != nil {
		return fserrors.CloseFailed(fserrors.FromPosix(int32(errno(err))), err.Error())
	}
	return nil
}

// Lstat stats path without following a trailing symlink, returning
// (PreservedMetadata{Present:false}, nil) on ENOENT rather than an error,
// since "destination does not yet exist" is the common case, not a
// failure.
func Lstat(path string) (PreservedMetadata, error) {
	var st unix.Stat_t
	err := unix.Lstat(path, &st)
	if err == nil {
		return PreservedMetadata{
			Present: true,
			Mode:    st.Mode,
			UID:     st.Uid,
			GID:     st.Gid,
			Atime:   st.Atim.Nano(),
			Mtime:   st.Mtim.Nano(),
		}, nil
	}
	if err == unix.ENOENT {
		return PreservedMetadata{Present: false}, nil
	}
	return PreservedMetadata{}, fserrors.DestinationStatFailed(path, fserrors.FromPosix(int32(errno(err))), err.Error())
}

// ApplyMetadata reapplies permissions, ownership, and timestamps to fd in
// that order, per the documented precedence: permissions precede
// ownership precede timestamps. Ownership failures are tolerated unless
// opts.StrictOwnership is set.
func ApplyMetadata(fd int, meta PreservedMetadata, opts PreserveOptions) error {
	if !meta.Present {
		return nil
	}
	if opts.Permissions {
		if err := unix.Fchmod(fd, meta.Mode); err != nil {
			return fserrors.MetadataPreservationFailed("chmod", fserrors.FromPosix(int32(errno(err))), err.Error())
		}
	}
	if opts.Ownership {
		if err := unix.Fchown(fd, int(meta.UID), int(meta.GID)); err != nil {
			if opts.StrictOwnership {
				return fserrors.MetadataPreservationFailed("chown", fserrors.FromPosix(int32(errno(err))), err.Error())
			}
		}
	}
	if opts.Timestamps {
		ts := [2]unix.Timespec{
			unix.NsecToTimespec(meta.Atime),
			unix.NsecToTimespec(meta.Mtime),
		}
		if err := unix.Futimens(fd, &ts); err != nil {
			return fserrors.MetadataPreservationFailed("utimens", fserrors.FromPosix(int32(errno(err))), err.Error())
		}
	}
	return nil
}

// SyncDirectory opens dir read-only and fsyncs it, retrying the open on
// EINTR per the documented EINTR discipline. Callers only invoke this
// under DurabilityFull.
func SyncDirectory(dir string) error {
	fd, err := openDirectoryForSync(dir)
	if err != nil {
		return fserrors.DirectorySyncFailed(dir, fserrors.FromPosix(int32(errno(err))), err.Error())
	}
	defer unix.Close(fd)

	for {
		err := unix.Fsync(fd)
		if err == nil {
			return nil
		}
		if err == unix.EINTR {
			continue
		}
		return fserrors.DirectorySyncFailed(dir, fserrors.FromPosix(int32(errno(err))), err.Error())
	}
}

func openDirectoryForSync(dir string) (int, error) {
	for {
		fd, err := unix.Open(dir, openDirectoryFlags, 0)
		if err == nil {
			return fd, nil
		}
		if err == unix.EINTR {
			continue
		}
		return -1, err
	}
}

func errno(err error) int {
	if e, ok := err.(unix.Errno); ok {
		return int(e)
	}
	return 0
}
