package testutil

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// RecordingTracker is a ProgressTracker that records every callback.
type RecordingTracker struct {
	mu             sync.Mutex
	updates        []transfertypes.ProgressSnapshot
	completeCalled bool
	lastError      error
}

// Update records a progress snapshot.
func (r *RecordingTracker) Update(s transfertypes.ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, s)
}

// Complete marks the operation as complete.
func (r *RecordingTracker) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completeCalled = true
}

// Error records an error.
func (r *RecordingTracker) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastError = err
}

// Updates returns a copy of the recorded snapshots.
func (r *RecordingTracker) Updates() []transfertypes.ProgressSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transfertypes.ProgressSnapshot(nil), r.updates...)
}

// CompleteCalled reports whether Complete was called.
func (r *RecordingTracker) CompleteCalled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completeCalled
}

// LastError returns the error passed to Error, if any.
func (r *RecordingTracker) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}

// SumIncrements adds up every snapshot's Increment.
func SumIncrements(snapshots []transfertypes.ProgressSnapshot) int64 {
	var sum int64
	for _, s := range snapshots {
		sum += s.Increment
	}
	return sum
}
