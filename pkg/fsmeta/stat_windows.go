//go:build windows

package fsmeta

import (
	"syscall"
	"time"

	"golang.org/x/sys/windows"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
)

func stat(path string) (Info, error) {
	return statWithFlags(path, 0)
}

func lstat(path string) (Info, error) {
	return statWithFlags(path, windows.FILE_FLAG_OPEN_REPARSE_POINT)
}

func statWithFlags(path string, extraFlags uint32) (Info, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return Info{}, fserrors.OperationFailed("stat", fserrors.PlatformCode{}, err.Error())
	}

	h, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|extraFlags,
		0,
	)
	if err != nil {
		return Info{}, classify(path, err)
	}
	defer windows.CloseHandle(h)

	var fi windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &fi); err != nil {
		return Info{}, classify(path, err)
	}

	kind := KindRegular
	if fi.FileAttributes&windows.FILE_ATTRIBUTE_DIRECTORY != 0 {
		kind = KindDirectory
	}
	if fi.FileAttributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0 {
		kind = KindSymbolicLink
	}

	return Info{
		Size:             int64(fi.FileSizeHigh)<<32 | int64(fi.FileSizeLow),
		Mode:             modeFromAttributes(fi.FileAttributes),
		AccessTime:       time.Unix(0, fi.LastAccessTime.Nanoseconds()),
		ModificationTime: time.Unix(0, fi.LastWriteTime.Nanoseconds()),
		ChangeTime:       time.Unix(0, fi.LastWriteTime.Nanoseconds()),
		CreationTime:     time.Unix(0, fi.CreationTime.Nanoseconds()),
		Kind:             kind,
		Identity: Identity{
			Device: uint64(fi.VolumeSerialNumber),
			Inode:  uint64(fi.FileIndexHigh)<<32 | uint64(fi.FileIndexLow),
		},
		LinkCount: uint64(fi.NumberOfLinks),
	}, nil
}

// modeFromAttributes synthesizes a POSIX-shaped permission bit for
// FILE_ATTRIBUTE_READONLY, since Windows has no separate mode field.
func modeFromAttributes(attrs uint32) uint32 {
	if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
		return 0444
	}
	return 0644
}

func classify(path string, err error) error {
	errno, ok := err.(syscall.Errno)
	if !ok {
		return fserrors.OperationFailed("stat", fserrors.PlatformCode{}, err.Error())
	}
	switch errno {
	case windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND:
		return fserrors.PathNotFound(path)
	case windows.ERROR_ACCESS_DENIED:
		return fserrors.PermissionDenied(path)
	default:
		return fserrors.OperationFailed("stat", fserrors.FromWindows(uint32(errno)), err.Error())
	}
}
