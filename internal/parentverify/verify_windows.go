//go:build windows

package parentverify

import (
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
	"github.com/atomicfs/atomicfs/pkg/fspath"
)

func verify(dir fspath.Path, createIntermediates bool) error {
	if dir.IsRoot() {
		return nil
	}

	err := statDir(dir.String())
	switch {
	case err == nil:
		return nil
	case isMissing(err):
		if !createIntermediates {
			return fserrors.ParentMissing(dir.String())
		}
		return createWithIntermediates(dir)
	case err == errNotDirectory:
		return fserrors.ParentNotDirectory(dir.String())
	default:
		return classifyStatFailure(dir.String(), err)
	}
}

var errNotDirectory = syscall.Errno(0x7fffffff) // sentinel, never a real Win32 code

func statDir(dir string) error {
	pathPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(pathPtr)
	if err != nil {
		return err
	}
	if attrs&windows.FILE_ATTRIBUTE_DIRECTORY == 0 {
		return errNotDirectory
	}
	return nil
}

func isMissing(err error) bool {
	errno, ok := err.(syscall.Errno)
	if !ok {
		return false
	}
	return errno == windows.ERROR_FILE_NOT_FOUND || errno == windows.ERROR_PATH_NOT_FOUND
}

func classifyStatFailure(path string, err error) error {
	errno, ok := err.(syscall.Errno)
	if !ok {
		return fserrors.ParentStatFailed(path, fserrors.PlatformCode{}, err.Error())
	}
	switch errno {
	case windows.ERROR_ACCESS_DENIED, windows.ERROR_PRIVILEGE_NOT_HELD:
		return fserrors.ParentAccessDenied(path)
	case windows.ERROR_INVALID_NAME:
		return fserrors.ParentInvalidPath(path)
	case windows.ERROR_BAD_NETPATH, windows.ERROR_BAD_NET_NAME:
		return fserrors.ParentNetworkPathNotFound(path)
	default:
		return fserrors.ParentStatFailed(path, fserrors.FromWindows(uint32(errno)), err.Error())
	}
}

func createWithIntermediates(dir fspath.Path) error {
	var missing []fspath.Path
	cursor := dir
	for {
		err := statDir(cursor.String())
		if err == nil {
			break
		}
		if !isMissing(err) {
			if err == errNotDirectory {
				return fserrors.ParentNotDirectory(cursor.String())
			}
			return classifyStatFailure(cursor.String(), err)
		}
		missing = append(missing, cursor)
		parent, ok := cursor.Parent()
		if !ok {
			break
		}
		cursor = parent
	}

	for i := len(missing) - 1; i >= 0; i-- {
		path := missing[i].String()
		pathPtr, err := windows.UTF16PtrFromString(path)
		if err != nil {
			return fserrors.DirectoryCreationFailed(path, fserrors.PlatformCode{}, err)
		}
		if err := windows.CreateDirectory(pathPtr, nil); err != nil && err != windows.ERROR_ALREADY_EXISTS {
			return fserrors.DirectoryCreationFailed(path, fserrors.FromWindows(uint32(err.(syscall.Errno))), err)
		}
	}

	if err := statDir(dir.String()); err != nil {
		if err == errNotDirectory {
			return fserrors.ParentNotDirectory(dir.String())
		}
		return fserrors.ParentStatFailed(dir.String(), fserrors.PlatformCode{}, "directory still missing after creating intermediates")
	}
	return nil
}
