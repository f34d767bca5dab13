//go:build !darwin

package fsio

// tryClone is a no-op outside Darwin: no other target platform here
// offers a copy-on-write clone primitive this package wires.
func tryClone(src, dest string, opts CopyOptions) bool {
	return false
}
