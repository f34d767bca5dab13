// Package platform isolates every raw syscall the write engines depend on
// behind a small surface: temp-file creation, the write-retry loop,
// durability sync, atomic publish (with its link+unlink fallback), and
// directory sync. POSIX and Windows each get their own file; callers in
// internal/atomicwrite and internal/streamwrite never import
// golang.org/x/sys directly.
package platform

// Durability controls which syscalls back a commit's sync phase.
type Durability int

const (
	// DurabilityNone skips syncing entirely. Suitable for caches.
	DurabilityNone Durability = iota
	// DurabilityDataOnly syncs file data but never the parent directory.
	// The directory entry itself may not survive a crash.
	DurabilityDataOnly
	// DurabilityFull syncs both file data and the parent directory entry.
	DurabilityFull
)

// PublishStrategy controls how the atomic publish step behaves when the
// destination already exists.
type PublishStrategy int

const (
	// ReplaceExisting overwrites any existing destination atomically.
	ReplaceExisting PublishStrategy = iota
	// NoClobber fails the publish if the destination already exists,
	// using the strongest atomic primitive the platform offers.
	NoClobber
)

// DirectStrategy controls how the streaming engine's direct (non-atomic)
// mode opens its destination.
type DirectStrategy int

const (
	DirectCreate   DirectStrategy = iota // O_CREAT|O_EXCL
	DirectTruncate                       // O_CREAT|O_TRUNC
	DirectAppend                         // O_CREAT|O_APPEND
)

// PreservedMetadata carries the destination's pre-existing metadata,
// captured during the stat step, for reapplication to the temp file
// before publish.
type PreservedMetadata struct {
	Present bool

	Mode  uint32
	UID   uint32
	GID   uint32
	Atime int64 // nanoseconds since epoch
	Mtime int64 // nanoseconds since epoch

	// WindowsAttributes and WindowsSecurityDescriptor are populated only
	// on Windows, where permission/ownership preservation takes a
	// different shape than POSIX mode/uid/gid.
	WindowsAttributes         uint32
	WindowsSecurityDescriptor []byte
}

// PreserveOptions selects which categories of metadata to reapply.
type PreserveOptions struct {
	Permissions bool
	Ownership   bool
	Timestamps  bool
	ExtendedAttrs bool
	ACLs        bool

	// StrictOwnership, when true, turns an ownership-preservation
	// failure into a hard error instead of a tolerated best-effort skip.
	StrictOwnership bool
}
