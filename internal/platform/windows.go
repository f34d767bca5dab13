//go:build windows

package platform

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
)

// MaxTempCreateAttempts bounds the CREATE_NEW retry loop on
// ERROR_FILE_EXISTS before giving up.
const MaxTempCreateAttempts = 64

// TempFile is an open temp file handle plus the path it was created at.
type TempFile struct {
	Handle windows.Handle
	Path   string
}

// CreateTemp creates a uniquely-named temp file in dir for basename,
// retrying on ERROR_FILE_EXISTS with a freshly generated random suffix.
// FILE_ATTRIBUTE_TEMPORARY hints the cache manager to avoid writing the
// temp file back unless it's renamed into place.
func CreateTemp(dir, basename, kind string) (TempFile, error) {
	pid := os.Getpid()

	var lastErr error
	for attempt := 0; attempt < MaxTempCreateAttempts; attempt++ {
		suffix, err := randomHex(12)
		if err != nil {
			return TempFile{}, fserrors.RandomGenerationFailed("createTemp", fserrors.PlatformCode{}, err.Error())
		}

		name := fmt.Sprintf(".%s.%s.%d.%s.tmp", basename, kind, pid, suffix)
		path := dir + `\` + name

		pathPtr, err := windows.UTF16PtrFromString(path)
		if err != nil {
			return TempFile{}, fserrors.TempFileCreationFailed(dir, fserrors.PlatformCode{}, err.Error())
		}

		h, err := windows.CreateFile(
			pathPtr,
			windows.GENERIC_READ|windows.GENERIC_WRITE,
			0,
			nil,
			windows.CREATE_NEW,
			windows.FILE_ATTRIBUTE_TEMPORARY,
			0,
		)
		if err == nil {
			return TempFile{Handle: h, Path: path}, nil
		}
		if err != windows.ERROR_FILE_EXISTS {
			return TempFile{}, fserrors.TempFileCreationFailed(dir, fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
		}
		lastErr = err
	}
	return TempFile{}, fserrors.TempFileCreationFailed(dir, fserrors.FromWindows(uint32(lastErr.(syscall.Errno))), "exhausted retry attempts on ERROR_FILE_EXISTS")
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if err := windows.RtlGenRandom(buf); err != nil {
		return "", err
	}
	var out []byte
	const hextable = "0123456789abcdef"
	for _, b := range buf {
		out = append(out, hextable[b>>4], hextable[b&0x0f])
	}
	return string(out), nil
}

// WriteAll writes the entirety of data to h, looping over partial
// writes. WriteFile on a regular file does not return short writes under
// normal operation, but the loop is kept for parity with the POSIX side
// and to tolerate the degenerate case.
func WriteAll(h windows.Handle, data []byte) (int64, error) {
	var total int64
	for len(data) > 0 {
		var n uint32
		err := windows.WriteFile(h, data, &n, nil)
		if err != nil {
			return total, fserrors.WriteFailed(total, total+int64(len(data)), fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
		}
		if n == 0 {
			return total, fserrors.WriteFailed(total, total+int64(len(data)), fserrors.PlatformCode{}, "WriteFile wrote 0 bytes")
		}
		total += int64(n)
		data = data[n:]
	}
	return total, nil
}

// CloseOnce closes h exactly once.
func CloseOnce(h windows.Handle) error {
	if err := windows.CloseHandle(h); err != nil {
		return fserrors.CloseFailed(fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
	}
	return nil
}

// Stat reads the destination's basic file information so its timestamps
// can be reapplied to the replacement file. A missing destination is
// reported as PreservedMetadata{Present:false}, not an error.
func Stat(path string) (PreservedMetadata, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return PreservedMetadata{}, fserrors.DestinationStatFailed(path, fserrors.PlatformCode{}, err.Error())
	}
	var data windows.Win32FileAttributeData
	err = windows.GetFileAttributesEx(pathPtr, windows.GetFileExInfoStandard, (*byte)(unsafe.Pointer(&data)))
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok && (errno == windows.ERROR_FILE_NOT_FOUND || errno == windows.ERROR_PATH_NOT_FOUND) {
			return PreservedMetadata{Present: false}, nil
		}
		return PreservedMetadata{}, fserrors.DestinationStatFailed(path, fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
	}
	return PreservedMetadata{
		Present:           true,
		WindowsAttributes: data.FileAttributes,
		Atime:             data.LastAccessTime.Nanoseconds(),
		Mtime:             data.LastWriteTime.Nanoseconds(),
	}, nil
}

// SyncFile flushes h's buffers. Windows has no metadata-only sync, so
// FlushFileBuffers satisfies both DurabilityFull and DurabilityDataOnly
// at the file level; directory durability is handled separately by
// SyncDirectory.
func SyncFile(h windows.Handle, durability Durability) error {
	if durability == DurabilityNone {
		return nil
	}
	if err := windows.FlushFileBuffers(h); err != nil {
		return fserrors.SyncFailed(fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
	}
	return nil
}

// SyncDirectory opens dir with FILE_FLAG_BACKUP_SEMANTICS (required to
// open a directory at all) and flushes it.
func SyncDirectory(dir string) error {
	pathPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return fserrors.DirectorySyncFailed(dir, fserrors.PlatformCode{}, err.Error())
	}
	h, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return fserrors.DirectorySyncFailed(dir, fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
	}
	defer windows.CloseHandle(h)

	if err := windows.FlushFileBuffers(h); err != nil {
		return fserrors.DirectorySyncFailed(dir, fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
	}
	return nil
}

// Publish renames tempPath onto destPath with MoveFileExW and
// MOVEFILE_WRITE_THROUGH, adding MOVEFILE_REPLACE_EXISTING for
// ReplaceExisting. It does not use SetFileInformationByHandle with
// FileRenameInfoEx.
func Publish(tempPath, destPath string, strategy PublishStrategy) error {
	flags := uint32(windows.MOVEFILE_WRITE_THROUGH)
	if strategy == ReplaceExisting {
		flags |= windows.MOVEFILE_REPLACE_EXISTING
	}

	fromPtr, err := windows.UTF16PtrFromString(tempPath)
	if err != nil {
		return fserrors.RenameFailed(tempPath, destPath, fserrors.PlatformCode{}, err.Error())
	}
	toPtr, err := windows.UTF16PtrFromString(destPath)
	if err != nil {
		return fserrors.RenameFailed(tempPath, destPath, fserrors.PlatformCode{}, err.Error())
	}

	err = windows.MoveFileEx(fromPtr, toPtr, flags)
	if err == nil {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok && uint32(errno) == windows.ERROR_ALREADY_EXISTS {
		return fserrors.DestinationExists(destPath)
	}
	return fserrors.RenameFailed(tempPath, destPath, fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
}

// ApplyMetadata reapplies the captured access and write timestamps via
// FILE_BASIC_INFO when opts.Timestamps is set. No security descriptor is
// captured or reapplied, so permissions are not preserved on Windows.
func ApplyMetadata(h windows.Handle, meta PreservedMetadata, opts PreserveOptions) error {
	if !meta.Present {
		return nil
	}
	if opts.Timestamps {
		info := windows.FileBasicInfo{
			LastAccessTime: windows.NsecToFiletime(meta.Atime),
			LastWriteTime:  windows.NsecToFiletime(meta.Mtime),
		}
		err := windows.SetFileInformationByHandle(
			h,
			windows.FileBasicInfo,
			(*byte)(unsafe.Pointer(&info)),
			uint32(unsafe.Sizeof(info)),
		)
		if err != nil {
			return fserrors.MetadataPreservationFailed("fileBasicInfo", fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
		}
	}
	return nil
}
