// Package parentverify ensures a destination's parent directory exists and
// is a directory before a write engine creates its temp file there,
// optionally creating missing intermediates.
package parentverify

import "github.com/atomicfs/atomicfs/pkg/fspath"

// Verify checks that dir exists and is a directory. If it is missing and
// createIntermediates is true, every non-existent ancestor is created,
// deepest-first, starting from the first existing ancestor found walking
// upward. Root directories (per fspath's root detection) are always
// treated as already present and are never passed to a create call.
func Verify(dir fspath.Path, createIntermediates bool) error {
	return verify(dir, createIntermediates)
}
