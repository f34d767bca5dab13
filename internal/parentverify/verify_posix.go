//go:build !windows

package parentverify

import (
	"golang.org/x/sys/unix"

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
	case err == unix.ENOENT || err == unix.ELOOP:
		if !createIntermediates {
			return fserrors.ParentMissing(dir.String())
		}
		return createWithIntermediates(dir)
	case err == unix.ENOTDIR:
		return fserrors.ParentNotDirectory(dir.String())
	case err == unix.EACCES:
		return fserrors.ParentAccessDenied(dir.String())
	default:
		return fserrors.ParentStatFailed(dir.String(), fserrors.FromPosix(int32(err.(unix.Errno))), err.Error())
	}
}

// statDir stats dir and returns nil if it exists and is a directory,
// unix.ENOTDIR if it exists but is not, or the raw stat error otherwise.
func statDir(dir string) error {
	var st unix.Stat_t
	if err := unix.Stat(dir, &st); err != nil {
		return err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return unix.ENOTDIR
	}
	return nil
}

// createWithIntermediates walks upward from dir collecting non-existent
// ancestors until it finds one that exists, then creates them
// deepest-first. EEXIST from mkdir is tolerated as success provided the
// existing entry is in fact a directory (a concurrent creator raced us).
func createWithIntermediates(dir fspath.Path) error {
	var missing []fspath.Path
	cursor := dir
	for {
		err := statDir(cursor.String())
		if err == nil {
			break
		}
		if err != unix.ENOENT && err != unix.ELOOP {
			if err == unix.ENOTDIR {
				return fserrors.ParentNotDirectory(cursor.String())
			}
			if err == unix.EACCES {
				return fserrors.ParentAccessDenied(cursor.String())
			}
			return fserrors.ParentStatFailed(cursor.String(), fserrors.FromPosix(int32(err.(unix.Errno))), err.Error())
		}
		missing = append(missing, cursor)
		parent, ok := cursor.Parent()
		if !ok {
			break // reached root without finding an existing ancestor
		}
		cursor = parent
	}

	for i := len(missing) - 1; i >= 0; i-- {
		path := missing[i].String()
		if err := unix.Mkdir(path, 0755); err != nil && err != unix.EEXIST {
			return fserrors.DirectoryCreationFailed(path, fserrors.FromPosix(int32(err.(unix.Errno))), err)
		}
	}

	if err := statDir(dir.String()); err != nil {
		if err == unix.ENOTDIR {
			return fserrors.ParentNotDirectory(dir.String())
		}
		return fserrors.ParentStatFailed(dir.String(), fserrors.FromPosix(0), "directory still missing after creating intermediates")
	}
	return nil
}
