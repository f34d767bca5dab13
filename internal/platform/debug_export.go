//go:build !windows && platformtesting

package platform

// SetOpenOverride, and the other SetXOverride functions below, exist only
// in binaries built with -tags platformtesting: they let a crash-point
// simulation test in internal/atomicwrite or internal/streamwrite inject
// faults at this package's syscall boundary. Passing nil restores the
// real syscall. These setters are absent from a build without the tag;
// the hook variables they assign (debug.go) are compiled into every
// non-Windows build and stay nil there.

func SetOpenOverride(fn func(path string) (int, error)) { openOverride = fn }

func SetWriteOverride(fn func(fd int, data []byte) (int, error)) { writeOverride = fn }

func SetFsyncOverride(fn func(fd int) error) { fsyncOverride = fn }

func SetFdatasyncOverride(fn func(fd int) error) { fdatasyncOverride = fn }

func SetGetrandomOverride(fn func(buf []byte) error) { getrandomOverride = fn }

func SetRenameOverride(fn func(oldpath, newpath string) error) { renameOverride = fn }

func SetRenameat2Override(fn func(oldpath, newpath string) error) { renameat2Override = fn }
