// Package streamwrite implements the streaming-write engine: the same
// crash-safe commit model as atomicwrite, applied to an unbounded
// sequence of byte chunks instead of a single borrowed span, plus a
// zero-alloc buffer-pull mode and an optional non-atomic direct mode.
package streamwrite

import (
	"github.com/atomicfs/atomicfs/internal/platform"
)

// Options configures a streaming write.
type Options struct {
	Strategy   platform.PublishStrategy
	Durability platform.Durability

	CreateIntermediates bool
	Preserve            platform.PreserveOptions

	// Direct, when true, skips the temp file and publish steps entirely
	// and writes straight to the destination per DirectStrategy. No
	// crash-safety guarantee is offered in this mode.
	Direct         bool
	DirectStrategy platform.DirectStrategy

	// ExpectedSize, if non-zero, is passed to the platform's
	// preallocation hint in direct mode. It does not affect the
	// destination's final length, which is always exactly the bytes
	// written.
	ExpectedSize int64
}

// FillFunc is the caller-supplied closure for the buffer-pull API. It
// fills buf and returns the number of bytes produced; returning 0 ends
// the stream.
type FillFunc func(buf []byte) (n int, err error)
