//go:build windows

package atomicwrite

import (
	"golang.org/x/sys/windows"

	"github.com/atomicfs/atomicfs/internal/parentverify"
	"github.com/atomicfs/atomicfs/internal/phase"
	"github.com/atomicfs/atomicfs/internal/platform"
	"github.com/atomicfs/atomicfs/pkg/fserrors"
	"github.com/atomicfs/atomicfs/pkg/fspath"
)

// Write mirrors the POSIX pipeline using CreateFile/WriteFile/
// FlushFileBuffers/MoveFileEx. Windows has no metadata-only sync, so
// Durability's dataOnly and full variants both flush the file the same
// way; only the directory-sync step is skipped for anything but full.
func Write(data []byte, dest fspath.Path, opts Options) (Result, error) {
	return WriteWithTracker(data, dest, opts, phase.NewTracker())
}

func WriteWithTracker(data []byte, dest fspath.Path, opts Options, tr *phase.Tracker) (Result, error) {
	parent := dest.ParentOrSelf()

	if err := parentverify.Verify(parent, opts.CreateIntermediates); err != nil {
		return Result{}, err
	}

	meta, err := platform.Stat(dest.String())
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
	if _, err := platform.WriteAll(tf.Handle, data); err != nil {
		return Result{}, err
	}

	if err := platform.SyncFile(tf.Handle, opts.Durability); err != nil {
		return Result{}, err
	}
	tr.Advance(phase.SyncedFile)

	if err := platform.ApplyMetadata(tf.Handle, meta, opts.Preserve); err != nil {
		return Result{}, err
	}

	if err := platform.CloseOnce(tf.Handle); err != nil {
		return Result{}, err
	}
	tr.Advance(phase.Closed)

	if err := platform.Publish(tf.Path, dest.String(), opts.Strategy); err != nil {
		return Result{}, err
	}
	tr.Advance(phase.RenamedPublished)

	if opts.Durability != platform.DurabilityFull {
		return Result{FinalPhase: tr.Phase()}, nil
	}

	tr.Advance(phase.DirectorySyncAttempted)
	if err := platform.SyncDirectory(dest.ParentOrSelf().String()); err != nil {
		return Result{FinalPhase: tr.Phase()},
			fserrors.DirectorySyncFailedAfterCommit(dest.ParentOrSelf().String(), fserrors.PlatformCodeOf(err), err.Error())
	}
	tr.Advance(phase.SyncedDirectory)

	return Result{FinalPhase: tr.Phase()}, nil
}

func cleanup(tf platform.TempFile, tr *phase.Tracker) {
	if tr.NeedsFDClose() {
		_ = windows.CloseHandle(tf.Handle)
	}
	if tr.NeedsTempUnlink() {
		if p, err := windows.UTF16PtrFromString(tf.Path); err == nil {
			_ = windows.DeleteFile(p)
		}
	}
}
