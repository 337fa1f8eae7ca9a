package s3transfer

import (
	"log/slog"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// WithMinPartSize sets the smallest part the planner emits.
// Default is 5 MiB, the smallest part S3 accepts.
func WithMinPartSize(size int64) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.MinPartSize = size
	}
}

// WithMaxPartSize sets the largest part the planner may grow to when an
// object would otherwise need more than the maximum number of parts.
// Default is 5 GiB.
func WithMaxPartSize(size int64) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.MaxPartSize = size
	}
}

// WithMaxParts sets the maximum number of parts per object.
// Default is 10,000.
func WithMaxParts(n int) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.MaxParts = n
	}
}

// WithConcurrency sets the number of parts in flight per command.
// Default is 5.
func WithConcurrency(n int) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.Concurrency = n
	}
}

// WithMaxAttempts sets the attempt ceiling per part, counting the first
// attempt. Default is 4.
func WithMaxAttempts(n int) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.MaxAttempts = n
	}
}

// WithBackoffTable sets the waits applied before each retry. The last entry
// is reused once the table runs out.
func WithBackoffTable(table ...time.Duration) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.BackoffTable = append([]time.Duration(nil), table...)
	}
}

// WithClockSkewCorrection turns automatic signing-clock correction on or off.
// Default is on.
func WithClockSkewCorrection(enabled bool) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.ClockSkewCorrection = enabled
	}
}

// WithSkewCacheSize bounds the number of endpoints with a remembered clock offset.
func WithSkewCacheSize(n int) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.SkewCacheSize = n
	}
}

// WithPartTimeout bounds a single part attempt. An attempt that runs out of
// time is retried like any transient failure. Zero disables the bound.
func WithPartTimeout(timeout time.Duration) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.PartTimeout = timeout
	}
}

// WithCleanupTimeout bounds the abort call issued after an upload stops.
func WithCleanupTimeout(timeout time.Duration) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.CleanupTimeout = timeout
	}
}

// WithLogger sets the structured logger. Default discards everything.
func WithLogger(logger *slog.Logger) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.Logger = logger
	}
}

// WithProgressTracker sets a tracker that receives the progress of every command.
func WithProgressTracker(tracker transfertypes.ProgressTracker) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.ProgressTracker = tracker
	}
}

// WithFilesystem sets the filesystem used to resolve TransferRequest.FilePath.
// This is useful for testing with in-memory filesystems.
// Default is the OS filesystem rooted at /.
func WithFilesystem(filesystem fs.Filesystem) transfertypes.Option {
	return func(c *transfertypes.Config) {
		c.Filesystem = filesystem
	}
}
