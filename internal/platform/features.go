//go:build !windows

package platform

import "sync/atomic"

// featureProbe is a process-wide capability latch: once a syscall's
// support is learned (by trying it and observing ENOSYS/ENOTSUP, or by a
// successful call), later commits skip the probe entirely instead of
// re-trying a syscall known to be unavailable on this kernel. This is a
// one-time latch, not a value cache with eviction — there's nothing to
// evict, the kernel's feature set doesn't change under a running process.
type featureProbe struct {
	// state: 0 = unknown, 1 = supported, 2 = unsupported.
	state atomic.Int32
}

func newFeatureProbe() *featureProbe { return &featureProbe{} }

// supported reports the cached result; unknown is treated as "still
// worth trying" (true) so the first real call can learn the answer.
func (p *featureProbe) supported() bool {
	return p.state.Load() != 2
}

func (p *featureProbe) markSupported()   { p.state.Store(1) }
func (p *featureProbe) markUnsupported() { p.state.Store(2) }
