//go:build !windows

package streamwrite

import (
	"golang.org/x/sys/unix"

	"github.com/atomicfs/atomicfs/internal/parentverify"
	"github.com/atomicfs/atomicfs/internal/phase"
	"github.com/atomicfs/atomicfs/internal/platform"
	"github.com/atomicfs/atomicfs/pkg/fserrors"
	"github.com/atomicfs/atomicfs/pkg/fspath"
)

// openDirect skips the temp file and publish steps, opening the
// destination itself per opts.DirectStrategy. No crash-safety guarantee
// is offered: a write that fails partway leaves the destination exactly
// as far as it got.
func openDirect(dest fspath.Path, opts Options) (*Context, error) {
	parent := dest.ParentOrSelf()
	if err := parentverify.Verify(parent, opts.CreateIntermediates); err != nil {
		return nil, err
	}

	flags := unix.O_WRONLY | unix.O_CLOEXEC
	switch opts.DirectStrategy {
	case platform.DirectCreate:
		flags |= unix.O_CREAT | unix.O_EXCL
	case platform.DirectTruncate:
		flags |= unix.O_CREAT | unix.O_TRUNC
	case platform.DirectAppend:
		flags |= unix.O_CREAT | unix.O_APPEND
	}

	fd, err := unix.Open(dest.String(), flags, 0644)
	if err != nil {
		return nil, fserrors.OpenFailed(dest.String(), fserrors.FromPosix(int32(err.(unix.Errno))), err.Error())
	}

	if opts.ExpectedSize > 0 {
		preallocate(fd, opts.ExpectedSize)
	}

	tr := phase.NewTracker()
	tr.Advance(phase.Writing)
	return &Context{
		tf:     platform.TempFile{Fd: fd, Path: dest.String()},
		dest:   dest,
		opts:   opts,
		tr:     tr,
		direct: true,
	}, nil
}

func (c *Context) commitDirect() error {
	if err := platform.SyncFile(c.tf.Fd, c.opts.Durability); err != nil {
		return err
	}
	return platform.CloseOnce(c.tf.Fd)
}
