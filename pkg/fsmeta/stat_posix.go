//go:build !windows

package fsmeta

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
)

func stat(path string) (Info, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Info{}, classify(path, err)
	}
	return fromStatT(&st), nil
}

func lstat(path string) (Info, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Info{}, classify(path, err)
	}
	return fromStatT(&st), nil
}

func classify(path string, err error) error {
	errno, ok := err.(unix.Errno)
	if !ok {
		return fserrors.OperationFailed("stat", fserrors.PlatformCode{}, err.Error())
	}
	switch errno {
	case unix.ENOENT:
		return fserrors.PathNotFound(path)
	case unix.EACCES:
		return fserrors.PermissionDenied(path)
	default:
		return fserrors.OperationFailed("stat", fserrors.FromPosix(int32(errno)), err.Error())
	}
}

func fromStatT(st *unix.Stat_t) Info {
	return Info{
		Size:             st.Size,
		Mode:             st.Mode &^ unix.S_IFMT,
		UID:              st.Uid,
		GID:              st.Gid,
		AccessTime:       time.Unix(st.Atim.Unix()),
		ModificationTime: time.Unix(st.Mtim.Unix()),
		ChangeTime:       time.Unix(st.Ctim.Unix()),
		Kind:             kindFromMode(st.Mode),
		Identity:         Identity{Device: uint64(st.Dev), Inode: st.Ino},
		LinkCount:        uint64(st.Nlink),
	}
}

func kindFromMode(mode uint32) Kind {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return KindRegular
	case unix.S_IFDIR:
		return KindDirectory
	case unix.S_IFLNK:
		return KindSymbolicLink
	case unix.S_IFBLK:
		return KindBlockDevice
	case unix.S_IFCHR:
		return KindCharacterDevice
	case unix.S_IFIFO:
		return KindFIFO
	case unix.S_IFSOCK:
		return KindSocket
	default:
		return KindUnknown
	}
}
