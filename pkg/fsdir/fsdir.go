// Package fsdir provides directory iteration: listing a directory's
// entries with their kind, without the caller needing a full fsmeta.Stat
// per entry unless it asks for one.
package fsdir

import (
	"os"
	"sort"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
	"github.com/atomicfs/atomicfs/pkg/fsmeta"
)

// Entry is one directory entry as returned by readdir, cheap to obtain
// without a full stat.
type Entry struct {
	Name string
	Kind fsmeta.Kind
}

// List returns dir's entries sorted by name. It does not recurse and does
// not include "." or "..".
func List(dir string) ([]Entry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, classifyOpenErr(dir, err)
	}
	defer f.Close()

	dirents, err := f.ReadDir(-1)
	if err != nil {
		return nil, fserrors.OperationFailed("readdir", fserrors.PlatformCode{}, err.Error())
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		entries = append(entries, Entry{Name: d.Name(), Kind: kindFromDirEntry(d)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Walk calls fn for every entry under root, recursing into subdirectories
// depth-first. fn returning an error stops the walk and returns that
// error from Walk.
func Walk(root string, fn func(path string, entry Entry) error) error {
	entries, err := List(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		path := root + "/" + e.Name
		if err := fn(path, e); err != nil {
			return err
		}
		if e.Kind == fsmeta.KindDirectory {
			if err := Walk(path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func kindFromDirEntry(d os.DirEntry) fsmeta.Kind {
	info, err := d.Info()
	if err != nil {
		return fsmeta.KindUnknown
	}
	mode := info.Mode()
	switch {
	case mode.IsRegular():
		return fsmeta.KindRegular
	case mode.IsDir():
		return fsmeta.KindDirectory
	case mode&os.ModeSymlink != 0:
		return fsmeta.KindSymbolicLink
	case mode&os.ModeNamedPipe != 0:
		return fsmeta.KindFIFO
	case mode&os.ModeSocket != 0:
		return fsmeta.KindSocket
	case mode&os.ModeDevice != 0:
		if mode&os.ModeCharDevice != 0 {
			return fsmeta.KindCharacterDevice
		}
		return fsmeta.KindBlockDevice
	default:
		return fsmeta.KindUnknown
	}
}

func classifyOpenErr(dir string, err error) error {
	if os.IsNotExist(err) {
		return fserrors.PathNotFound(dir)
	}
	if os.IsPermission(err) {
		return fserrors.PermissionDenied(dir)
	}
	return fserrors.OperationFailed("opendir", fserrors.PlatformCode{}, err.Error())
}
