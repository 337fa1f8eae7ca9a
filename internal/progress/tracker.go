package progress

import (
	"sync"
	"sync/atomic"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// Emitter receives every snapshot produced by a Tracker. Calls are serialized.
type Emitter func(transfertypes.ProgressSnapshot)

// Tracker aggregates per-part read positions into a command-wide total.
type Tracker struct {
	mu         sync.Mutex
	total      int64
	path       string
	reported   map[int]int64
	cumulative atomic.Int64
	emit       Emitter
}

// NewTracker creates a tracker for an object of the given total size
// (transfertypes.UnknownSize when not known yet).
func NewTracker(total int64, path string, emit Emitter) *Tracker {
	if emit == nil {
		emit = func(transfertypes.ProgressSnapshot) {}
	}
	return &Tracker{
		total:    total,
		path:     path,
		reported: make(map[int]int64),
		emit:     emit,
	}
}

// Observe records that part has transferred bytes up to pos (relative to the
// part start). Only bytes beyond the part's previous high-watermark are
// reported, so a part that restarted its read contributes nothing until it
// passes the point it had reached before.
func (t *Tracker) Observe(part int, pos int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	increment := pos - t.reported[part]
	if increment <= 0 {
		return
	}
	if t.total >= 0 {
		if room := t.total - t.cumulative.Load(); increment > room {
			increment = room
		}
		if increment <= 0 {
			return
		}
	}

	t.reported[part] += increment
	cumulative := t.cumulative.Add(increment)
	t.emit(NewWithPath(increment, cumulative, t.total, t.path))
}

// Retry records that part is about to restart its read from the beginning.
// It emits a compensated snapshot carrying the bytes already reported for
// the part and returns that amount.
func (t *Tracker) Retry(part int) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	compensation := t.reported[part]
	if compensation == 0 {
		return 0
	}
	snapshot := NewWithPath(0, t.cumulative.Load(), t.total, t.path)
	t.emit(Compensate(snapshot, compensation))
	return compensation
}

// SetTotal records the object size once discovered.
func (t *Tracker) SetTotal(total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
}

// Total returns the object size, or transfertypes.UnknownSize.
func (t *Tracker) Total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Cumulative returns the number of bytes reported so far.
func (t *Tracker) Cumulative() int64 {
	return t.cumulative.Load()
}

// Reported returns the bytes reported for a single part.
func (t *Tracker) Reported(part int) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reported[part]
}
