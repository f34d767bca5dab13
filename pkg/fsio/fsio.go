// Package fsio provides positional read/write primitives and a
// copy/move helper that prefers an atomic rename and falls back to
// copy-then-rename across filesystem boundaries, mirroring the
// same-directory-temp-then-publish shape the commit engines use, but for
// callers moving an already-written file rather than writing fresh bytes.
package fsio

import (
	"io"
	"os"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
	"github.com/atomicfs/atomicfs/pkg/fsmeta"
)

// CopyOptions controls Copy's behavior.
type CopyOptions struct {
	// PreserveAttributes copies permissions and timestamps (and, on
	// Darwin, enables the clone fast path) in addition to data.
	PreserveAttributes bool
}

// ReadAt reads up to len(buf) bytes from path at offset, without
// disturbing any other handle's file position on the same file. A read
// that reaches end of file returns the shorter count with a nil error.
func ReadAt(path string, offset int64, buf []byte) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, classifyOpenErr(path, err)
	}
	defer f.Close()

	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, fserrors.OperationFailed("pread", fserrors.PlatformCode{}, err.Error())
	}
	return n, nil
}

// WriteAt writes data to path at offset, without truncating the rest of
// the file and without disturbing any other handle's file position.
// path must already exist; WriteAt never creates a new file, since a
// positional write into nothing has no sensible crash-safety story — use
// the write engines for that.
func WriteAt(path string, offset int64, data []byte) (int, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return 0, classifyOpenErr(path, err)
	}
	defer f.Close()

	n, err := f.WriteAt(data, offset)
	if err != nil {
		return n, fserrors.OperationFailed("pwrite", fserrors.PlatformCode{}, err.Error())
	}
	return n, nil
}

// Move relocates src to dest, preferring a direct rename and falling
// back to Copy-then-remove when src and dest are on different
// filesystems (rename returns EXDEV).
func Move(src, dest string, opts CopyOptions) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return fserrors.RenameFailed(src, dest, fserrors.PlatformCode{}, err.Error())
	}

	if err := Copy(src, dest, opts); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fserrors.OperationFailed("remove", fserrors.PlatformCode{}, err.Error())
	}
	return nil
}

// Copy copies src to dest via a temp file in dest's own directory
// followed by a rename, so a reader never observes a partially-written
// dest. Symlinks are replicated as links (resolved against dest's parent
// if relative, never against src's — a caller relying on absolute
// resolution must pre-resolve the target itself), not followed.
func Copy(src, dest string, opts CopyOptions) error {
	info, err := fsmeta.Lstat(src)
	if err != nil {
		return err
	}
	if info.Kind == fsmeta.KindSymbolicLink {
		return copySymlink(src, dest)
	}
	return copyRegular(src, dest, info, opts)
}

func copyRegular(src, dest string, info fsmeta.Info, opts CopyOptions) error {
	if tryClone(src, dest, opts) {
		return nil
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return classifyOpenErr(src, err)
	}
	defer srcFile.Close()

	tempDest := dest + copyTempSuffix()
	tempFile, err := os.OpenFile(tempDest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fserrors.TempFileCreationFailed(dest, fserrors.PlatformCode{}, err.Error())
	}

	if _, err := io.Copy(tempFile, srcFile); err != nil {
		tempFile.Close()
		os.Remove(tempDest)
		return fserrors.OperationFailed("copy", fserrors.PlatformCode{}, err.Error())
	}

	if opts.PreserveAttributes {
		if err := applyAttributes(tempFile, info); err != nil {
			tempFile.Close()
			os.Remove(tempDest)
			return err
		}
	}

	if err := tempFile.Close(); err != nil {
		os.Remove(tempDest)
		return fserrors.CloseFailed(fserrors.PlatformCode{}, err.Error())
	}

	if err := os.Rename(tempDest, dest); err != nil {
		os.Remove(tempDest)
		return fserrors.RenameFailed(tempDest, dest, fserrors.PlatformCode{}, err.Error())
	}
	return nil
}

func applyAttributes(f *os.File, info fsmeta.Info) error {
	if err := f.Chmod(os.FileMode(info.Mode)); err != nil {
		return fserrors.MetadataPreservationFailed("chmod", fserrors.PlatformCode{}, err.Error())
	}
	if err := os.Chtimes(f.Name(), info.AccessTime, info.ModificationTime); err != nil {
		return fserrors.MetadataPreservationFailed("chtimes", fserrors.PlatformCode{}, err.Error())
	}
	return nil
}

func copyTempSuffix() string {
	return ".fsio-copy.tmp"
}

func classifyOpenErr(path string, err error) error {
	if os.IsNotExist(err) {
		return fserrors.PathNotFound(path)
	}
	if os.IsPermission(err) {
		return fserrors.PermissionDenied(path)
	}
	return fserrors.OpenFailed(path, fserrors.PlatformCode{}, err.Error())
}
