//go:build !windows

package atomicwrite

import (
	"golang.org/x/sys/unix"

	"github.com/atomicfs/atomicfs/internal/parentverify"
	"github.com/atomicfs/atomicfs/internal/phase"
	"github.com/atomicfs/atomicfs/internal/platform"
	"github.com/atomicfs/atomicfs/pkg/fserrors"
	"github.com/atomicfs/atomicfs/pkg/fspath"
)

// Write performs the full 10-phase commit pipeline: resolve, ensure
// parent, stat the destination, create a temp file alongside it, write
// every byte, sync per durability, reapply preserved metadata, close
// once, publish atomically, and (durability permitting) sync the parent
// directory.
func Write(data []byte, dest fspath.Path, opts Options) (Result, error) {
	return WriteWithTracker(data, dest, opts, phase.NewTracker())
}

// WriteWithTracker is Write, but lets the caller observe phase
// transitions via a Tracker it owns (e.g. one already Subscribe()d to).
func WriteWithTracker(data []byte, dest fspath.Path, opts Options, tr *phase.Tracker) (Result, error) {
	parent := dest.ParentOrSelf()

	if err := parentverify.Verify(parent, opts.CreateIntermediates); err != nil {
		return Result{}, err
	}

	meta, err := platform.Lstat(dest.String())
	if err != nil {
		return Result{}, err
	}

	basename, err := tempBasename(dest)
	if err != nil {
		return Result{}, err
	}

	tf, err := platform.CreateTemp(parent.String(), basename, "atomic")
	if err != nil {
		return Result{}, err
	}

	result, err := commit(tf, dest, data, meta, opts, tr)
	if err != nil {
		cleanup(tf, tr)
		return Result{}, err
	}
	return result, nil
}

func commit(tf platform.TempFile, dest fspath.Path, data []byte, meta platform.PreservedMetadata, opts Options, tr *phase.Tracker) (Result, error) {
	tr.Advance(phase.Writing)
	if _, err := platform.WriteAll(tf.Fd, data); err != nil {
		return Result{}, err
	}

	if err := platform.SyncFile(tf.Fd, opts.Durability); err != nil {
		return Result{}, err
	}
	tr.Advance(phase.SyncedFile)

	if err := platform.ApplyMetadata(tf.Fd, meta, opts.Preserve); err != nil {
		return Result{}, err
	}

	if err := platform.CloseOnce(tf.Fd); err != nil {
		return Result{}, err
	}
	tr.Advance(phase.Closed)

	usedFallback, err := publish(tf.Path, dest.String(), opts.Strategy)
	if err != nil {
		return Result{}, err
	}
	tr.Advance(phase.RenamedPublished)

	if opts.Durability != platform.DurabilityFull {
		return Result{FinalPhase: tr.Phase(), UsedFallbackPublish: usedFallback}, nil
	}

	tr.Advance(phase.DirectorySyncAttempted)
	if err := platform.SyncDirectory(dest.ParentOrSelf().String()); err != nil {
		// The file is already published; report the sync failure but do
		// not undo the publish — it succeeded.
		return Result{FinalPhase: tr.Phase(), UsedFallbackPublish: usedFallback},
			fserrors.DirectorySyncFailedAfterCommit(dest.ParentOrSelf().String(), fserrors.PlatformCodeOf(err), err.Error())
	}
	tr.Advance(phase.SyncedDirectory)

	return Result{FinalPhase: tr.Phase(), UsedFallbackPublish: usedFallback}, nil
}

// publish wraps platform.Publish and reports whether it had to fall back
// to link+unlink, by probing for renameat2/renamex_np support before and
// after the call — the platform package already caches this decision
// process-wide, this is just surfacing it to the caller for health
// reporting.
func publish(tempPath, destPath string, strategy platform.PublishStrategy) (bool, error) {
	if err := platform.Publish(tempPath, destPath, strategy); err != nil {
		return false, err
	}
	// A NoClobber publish that used the link+unlink fallback leaves the
	// temp name as a second hard link to the same inode rather than
	// consuming it; detecting this distinguishes the fallback path
	// without platform needing to return it explicitly.
	var st unix.Stat_t
	if err := unix.Lstat(tempPath, &st); err == nil && st.Nlink > 1 {
		return true, nil
	}
	return false, nil
}

func cleanup(tf platform.TempFile, tr *phase.Tracker) {
	if tr.NeedsFDClose() {
		_ = unix.Close(tf.Fd)
	}
	if tr.NeedsTempUnlink() {
		_ = unix.Unlink(tf.Path)
	}
}
