package task

import (
	"sync"
	"time"
)

// Kind names the operations ProgressManager can track, per spec.md §4.7.
type Kind int

const (
	KindCopy Kind = iota
	KindMove
	KindDelete
	KindArchiveCreate
	KindArchiveExtract
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindMove:
		return "move"
	case KindDelete:
		return "delete"
	case KindArchiveCreate:
		return "archive-create"
	case KindArchiveExtract:
		return "archive-extract"
	default:
		return "unknown"
	}
}

// Snapshot is the throttled payload handed to a ProgressManager's callback,
// the Go shape of rclone's root accounting.go Stats.String() fields
// generalized to a single in-flight task instead of a global counter.
type Snapshot struct {
	Kind           Kind
	TotalItems     int
	ProcessedItems int
	CurrentItem    string
	Errors         int
	Skipped        int
	StartedAt      time.Time
	// CurrentItemBytesDone/Total give the optional per-file byte-level
	// sub-progress spec.md §4.7 allows; Total is 0 when unknown.
	CurrentItemBytesDone  int64
	CurrentItemBytesTotal int64
}

// ProgressManager tracks one operation's progress and throttles callback
// delivery to at most ~10 Hz, the cadence spec.md §4.7 requires so the UI
// isn't flooded by per-file accounting the way a naive per-item callback
// would. Counter bookkeeping follows accounting.go's Stats: a mutex-guarded
// struct updated via small dedicated methods (Bytes, Errors) rather than
// exposing fields directly.
type ProgressManager struct {
	mu       sync.Mutex
	snap     Snapshot
	callback func(Snapshot)
	interval time.Duration
	lastFire time.Time
}

// NewProgressManager builds a manager for the given operation kind and
// total item count (as produced by a prior CountFiles walk). callback may
// be nil (progress tracked but not reported, useful in tests).
func NewProgressManager(kind Kind, totalItems int, callback func(Snapshot)) *ProgressManager {
	return &ProgressManager{
		snap: Snapshot{
			Kind:       kind,
			TotalItems: totalItems,
			StartedAt:  time.Now(),
		},
		callback: callback,
		interval: 100 * time.Millisecond, // ~10 Hz, per spec.md §4.7
	}
}

// SetInterval overrides the default ~10 Hz throttle, mainly for tests that
// want every update delivered.
func (m *ProgressManager) SetInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = d
}

// ItemStarted records which item is currently in flight, for display, and
// resets its byte sub-progress.
func (m *ProgressManager) ItemStarted(name string, totalBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.CurrentItem = name
	m.snap.CurrentItemBytesDone = 0
	m.snap.CurrentItemBytesTotal = totalBytes
	m.fireLocked(false)
}

// ItemBytes records additional bytes copied for the current item — called
// from the chunked-copy callback at spec.md §4.6's ~1 MiB granularity.
func (m *ProgressManager) ItemBytes(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.CurrentItemBytesDone += n
	m.fireLocked(false)
}

// ItemDone marks one item complete, incrementing ProcessedItems.
func (m *ProgressManager) ItemDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.ProcessedItems++
	m.fireLocked(false)
}

// ItemFailed increments the error counter, tracked separately from success
// count per spec.md §4.7.
func (m *ProgressManager) ItemFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Errors++
	m.fireLocked(false)
}

// ItemSkipped increments the skipped counter — an item the user chose to
// leave alone via a per-conflict or skip-all conflict resolution, counted
// separately from both success and error so results.success +
// results.skipped + results.errors always equals the item total (spec.md
// §3, §8).
func (m *ProgressManager) ItemSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Skipped++
	m.fireLocked(false)
}

// Finish delivers a final, unthrottled callback so the UI always sees the
// completed state even if the last throttle window hadn't elapsed.
func (m *ProgressManager) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fireLocked(true)
}

// Snapshot returns a copy of the current progress state.
func (m *ProgressManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *ProgressManager) fireLocked(force bool) {
	if m.callback == nil {
		return
	}
	now := time.Now()
	if !force && now.Sub(m.lastFire) < m.interval {
		return
	}
	m.lastFire = now
	m.callback(m.snap)
}
