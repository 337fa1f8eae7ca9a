package progress

import (
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// New creates a snapshot carrying only byte counts.
func New(increment, cumulative, total int64) transfertypes.ProgressSnapshot {
	return transfertypes.ProgressSnapshot{
		Increment:  increment,
		Cumulative: cumulative,
		Total:      total,
	}
}

// NewWithPath creates a snapshot for a transfer involving a local file.
func NewWithPath(increment, cumulative, total int64, path string) transfertypes.ProgressSnapshot {
	s := New(increment, cumulative, total)
	s.SourcePath = path
	return s
}

// NewCompensated creates a snapshot with every field set.
func NewCompensated(increment, cumulative, total, compensation int64, path string) transfertypes.ProgressSnapshot {
	s := NewWithPath(increment, cumulative, total, path)
	s.Compensation = compensation
	return s
}

// Compensate derives a copy of s carrying the given retry compensation.
func Compensate(s transfertypes.ProgressSnapshot, compensation int64) transfertypes.ProgressSnapshot {
	s.Compensation = compensation
	return s
}
