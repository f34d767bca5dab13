// Package atomicwrite implements the crash-safe atomic-write commit
// engine: given a byte span and a destination path, it produces a file
// that is either fully and correctly written at the destination, or not
// visible there at all. No partial or corrupt destination state is ever
// observable by another process.
package atomicwrite

import (
	"github.com/atomicfs/atomicfs/internal/phase"
	"github.com/atomicfs/atomicfs/internal/platform"
	"github.com/atomicfs/atomicfs/pkg/fspath"
)

// Options configures one atomic write.
type Options struct {
	// Strategy selects replace-existing or fail-if-exists publish
	// semantics.
	Strategy platform.PublishStrategy

	// Durability selects how much is synced before the write is
	// reported successful.
	Durability platform.Durability

	// CreateIntermediates creates missing parent directories instead of
	// failing with a missing-parent error.
	CreateIntermediates bool

	// Preserve controls which categories of the destination's
	// pre-existing metadata (if any) are reapplied to the new content.
	Preserve platform.PreserveOptions
}

// Result reports how a successful write actually completed, since the
// happy path has legitimate degraded variants (link+unlink fallback
// instead of a true atomic rename, or a directory sync that was skipped
// or failed).
type Result struct {
	FinalPhase phase.CommitPhase

	// UsedFallbackPublish is true when the platform's atomic
	// noClobber rename primitive was unavailable and the engine fell
	// back to link+unlink.
	UsedFallbackPublish bool
}

// NewTracker returns a fresh phase Tracker for diagnostics: Subscribe to
// it and pass it to WriteWithTracker to observe the phase transitions of
// a single write, or call Write to let the engine create its own.
func NewTracker() *phase.Tracker { return phase.NewTracker() }

func tempBasename(dest fspath.Path) (string, error) {
	c, ok := dest.LastComponent()
	if !ok {
		return "", errNoLastComponent
	}
	return c.String(), nil
}

type atomicwriteError struct{ msg string }

func (e *atomicwriteError) Error() string { return e.msg }

var errNoLastComponent = &atomicwriteError{msg: "destination path has no final component to derive a temp file name from"}
