//go:build !windows

package streamwrite

import (
	"strings"

	"golang.org/x/sys/unix"

	"github.com/atomicfs/atomicfs/internal/parentverify"
	"github.com/atomicfs/atomicfs/internal/phase"
	"github.com/atomicfs/atomicfs/internal/platform"
	"github.com/atomicfs/atomicfs/pkg/fserrors"
	"github.com/atomicfs/atomicfs/pkg/fspath"
)

// assertSameDirectory panics if tempPath was somehow created outside
// dir: a mismatch here is invariant A1 being violated, a design error in
// this package rather than a runtime condition a caller can recover
// from.
func assertSameDirectory(tempPath, dir string) {
	if !strings.HasPrefix(tempPath, dir+"/") {
		panic("streamwrite: temp file created outside destination's directory, violating invariant A1")
	}
}

// Context is the opaque handle returned by Open and consumed by Write,
// Commit, and Cleanup. Same-directory invariant A1 is asserted at
// construction: the temp file this holds is always in dest's own parent.
type Context struct {
	tf     platform.TempFile
	dest   fspath.Path
	meta   platform.PreservedMetadata
	opts   Options
	tr     *phase.Tracker
	direct bool
}

// Open performs steps 1–4 of the commit pipeline (resolve, ensure
// parent, stat destination, create temp file) and returns a Context that
// owns the descriptor until Commit or Cleanup consumes it.
func Open(dest fspath.Path, opts Options) (*Context, error) {
	if opts.Direct {
		return openDirect(dest, opts)
	}

	parent := dest.ParentOrSelf()
	if err := parentverify.Verify(parent, opts.CreateIntermediates); err != nil {
		return nil, err
	}

	meta, err := platform.Lstat(dest.String())
	if err != nil {
		return nil, err
	}

	c, ok := dest.LastComponent()
	if !ok {
		return nil, fserrors.OperationFailed("streamOpen", fserrors.PlatformCode{}, "destination path has no final component")
	}

	tf, err := platform.CreateTemp(parent.String(), c.String(), "streaming")
	if err != nil {
		return nil, err
	}
	assertSameDirectory(tf.Path, parent.String())

	tr := phase.NewTracker()
	tr.Advance(phase.Writing)
	return &Context{tf: tf, dest: dest, meta: meta, opts: opts, tr: tr}, nil
}

// Write performs the partial-write loop for one chunk against the
// context's descriptor. chunk is borrowed and never retained past the
// call.
func (c *Context) Write(chunk []byte) error {
	_, err := platform.WriteAll(c.tf.Fd, chunk)
	return err
}

// Commit performs steps 6–10 of the commit pipeline (sync, metadata,
// close, publish, directory sync) and consumes the context.
func (c *Context) Commit() error {
	if c.direct {
		return c.commitDirect()
	}

	if err := platform.SyncFile(c.tf.Fd, c.opts.Durability); err != nil {
		return err
	}
	c.tr.Advance(phase.SyncedFile)

	if err := platform.ApplyMetadata(c.tf.Fd, c.meta, c.opts.Preserve); err != nil {
		return err
	}

	if err := platform.CloseOnce(c.tf.Fd); err != nil {
		return err
	}
	c.tr.Advance(phase.Closed)

	if err := platform.Publish(c.tf.Path, c.dest.String(), c.opts.Strategy); err != nil {
		return err
	}
	c.tr.Advance(phase.RenamedPublished)

	if c.opts.Durability != platform.DurabilityFull {
		return nil
	}

	c.tr.Advance(phase.DirectorySyncAttempted)
	if err := platform.SyncDirectory(c.dest.ParentOrSelf().String()); err != nil {
		return fserrors.DirectorySyncFailedAfterCommit(c.dest.ParentOrSelf().String(), fserrors.PlatformCodeOf(err), err.Error())
	}
	c.tr.Advance(phase.SyncedDirectory)
	return nil
}

// Cleanup is the best-effort close-and-unlink path for a caller that
// abandons a write before Commit (e.g. on cancellation).
func (c *Context) Cleanup() {
	if c.direct {
		_ = unix.Close(c.tf.Fd)
		return
	}
	if c.tr.NeedsFDClose() {
		_ = unix.Close(c.tf.Fd)
	}
	if c.tr.NeedsTempUnlink() {
		_ = unix.Unlink(c.tf.Path)
	}
}

// WriteChunks is the one-shot API: it opens, writes every chunk in
// order, and commits, running Cleanup automatically on any error.
func WriteChunks(dest fspath.Path, opts Options, chunks [][]byte) error {
	ctx, err := Open(dest, opts)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := ctx.Write(chunk); err != nil {
			ctx.Cleanup()
			return err
		}
	}
	if err := ctx.Commit(); err != nil {
		ctx.Cleanup()
		return err
	}
	return nil
}

// Pull is the zero-alloc buffer-pull API. It repeatedly invokes fill
// against buf; n==0 ends the stream, n>cap(buf) is a contract violation
// from the caller, and any error returned by fill is surfaced wrapped as
// a user error. On any engine error the context is cleaned up.
func Pull(dest fspath.Path, opts Options, buf []byte, fill FillFunc) error {
	ctx, err := Open(dest, opts)
	if err != nil {
		return err
	}

	for {
		n, err := fill(buf)
		if err != nil {
			ctx.Cleanup()
			return fserrors.UserError("fill closure returned an error", err)
		}
		if n == 0 {
			break
		}
		if n > cap(buf) {
			ctx.Cleanup()
			return fserrors.InvalidFillResult(n, cap(buf))
		}
		if err := ctx.Write(buf[:n]); err != nil {
			ctx.Cleanup()
			return err
		}
	}

	if err := ctx.Commit(); err != nil {
		ctx.Cleanup()
		return err
	}
	return nil
}
