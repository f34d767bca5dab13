//go:build darwin

package fsio

import "golang.org/x/sys/unix"

// tryClone attempts the kernel-assisted clonefile(2) fast path, which
// preserves all metadata as a side effect of cloning the same backing
// store — so it is only attempted when the caller asked for
// attribute-preserving copy. A caller wanting data-only copy keeps the
// regular read/write path even on a filesystem where cloning would be
// cheap, since clone always carries metadata along with it.
func tryClone(src, dest string, opts CopyOptions) bool {
	if !opts.PreserveAttributes {
		return false
	}
	return unix.Clonefile(src, dest, 0) == nil
}
