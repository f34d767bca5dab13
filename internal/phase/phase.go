// Package phase tracks a single write operation's progress through the
// commit pipeline and gates cleanup decisions on it: whether the temp
// descriptor still needs closing, and whether the temp path is still
// safe to unlink.
package phase

import (
	"sync"
	"time"
)

// CommitPhase is the ordered state a write operation passes through. A
// phase is never revisited once passed. Writing and DirectorySyncAttempted
// are assigned before their step runs; every other value is assigned
// after its step succeeds.
type CommitPhase int

const (
	Pending CommitPhase = iota
	Writing
	SyncedFile
	Closed
	RenamedPublished
	DirectorySyncAttempted
	SyncedDirectory
)

func (p CommitPhase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Writing:
		return "writing"
	case SyncedFile:
		return "syncedFile"
	case Closed:
		return "closed"
	case RenamedPublished:
		return "renamedPublished"
	case DirectorySyncAttempted:
		return "directorySyncAttempted"
	case SyncedDirectory:
		return "syncedDirectory"
	default:
		return "unknown"
	}
}

// Update is delivered to subscribers each time a Tracker advances, for
// post-mortem diagnostics of interrupted or failed writes.
type Update struct {
	Phase     CommitPhase
	Timestamp time.Time
}

// Tracker is the phase state for one write operation. It is not safe to
// share across operations; the engines create one per call.
type Tracker struct {
	mu          sync.RWMutex
	phase       CommitPhase
	subscribers []chan Update
}

// NewTracker returns a Tracker starting at Pending.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Phase returns the current phase.
func (t *Tracker) Phase() CommitPhase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase
}

// Advance moves the tracker to phase and notifies every subscriber. The
// engines advance to Writing before the first write and to
// DirectorySyncAttempted before the directory sync; every other phase is
// reached only after its step has succeeded — step 9's publish, for
// instance, advances to RenamedPublished only once the rename/link has
// actually succeeded.
func (t *Tracker) Advance(p CommitPhase) {
	t.mu.Lock()
	t.phase = p
	subs := append([]chan Update(nil), t.subscribers...)
	t.mu.Unlock()

	update := Update{Phase: p, Timestamp: time.Now()}
	for _, ch := range subs {
		select {
		case ch <- update:
		default: // a slow or abandoned subscriber never blocks the write path
		}
	}
}

// Subscribe registers a channel that receives every subsequent Advance
// call. The returned func unsubscribes; callers should always defer it.
func (t *Tracker) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 8)

	t.mu.Lock()
	t.subscribers = append(t.subscribers, ch)
	t.mu.Unlock()

	unsubscribe := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, existing := range t.subscribers {
			if existing == ch {
				t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
				break
			}
		}
	}
	return ch, unsubscribe
}

// NeedsFDClose reports whether the temp descriptor has not yet been
// closed and still needs cleanup.
func (t *Tracker) NeedsFDClose() bool {
	return t.Phase() < Closed
}

// NeedsTempUnlink reports whether the temp path has not yet been
// published and is still safe to unlink. Once RenamedPublished, the temp
// filename may no longer refer to the caller's content — unlinking it
// could delete the destination's newly-published inode on filesystems
// that preserve the temp name as an additional hard link — so this is
// never true past that point.
func (t *Tracker) NeedsTempUnlink() bool {
	return t.Phase() < RenamedPublished
}

// Published reports whether the file is visible at its destination,
// regardless of whether durability syncing afterward succeeded.
func (t *Tracker) Published() bool {
	return t.Phase() >= RenamedPublished
}
