package streamwrite

import (
	"github.com/atomicfs/atomicfs/internal/buffer"
	"github.com/atomicfs/atomicfs/pkg/fspath"
)

// defaultPullBufferSize is the bucket size requested from the shared
// pool when a caller doesn't already own a reusable buffer of its own.
const defaultPullBufferSize = 65536

// PullPooled is Pull with its working buffer borrowed from
// internal/buffer's shared pool instead of supplied by the caller, for
// callers that write many independent streams and would otherwise each
// allocate their own scratch buffer.
func PullPooled(dest fspath.Path, opts Options, fill FillFunc) error {
	buf := buffer.GetBuffer(defaultPullBufferSize)
	defer buffer.PutBuffer(buf)
	return Pull(dest, opts, buf, fill)
}
