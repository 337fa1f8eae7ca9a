package transfertypes

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
)

// Default planning and execution limits.
const (
	// DefaultMinPartSize is the smallest part size accepted by S3 (5 MiB)
	DefaultMinPartSize int64 = 5 * 1024 * 1024

	// DefaultMaxPartSize is the largest part size accepted by S3 (5 GiB)
	DefaultMaxPartSize int64 = 5 * 1024 * 1024 * 1024

	// DefaultMaxParts is the maximum number of parts in a multipart upload
	DefaultMaxParts = 10000

	// DefaultConcurrency is the default number of parts in flight per command
	DefaultConcurrency = 5

	// DefaultMaxAttempts is the default attempt ceiling per part
	DefaultMaxAttempts = 4

	// DefaultSkewCacheSize bounds the number of endpoints with a cached clock offset
	DefaultSkewCacheSize = 128

	// DefaultCleanupTimeout bounds abort calls made after a command stops
	DefaultCleanupTimeout = 30 * time.Second
)

// DefaultBackoffTable is the wait applied before each retry, indexed by
// retry number and clamped to the last entry.
var DefaultBackoffTable = []time.Duration{
	500 * time.Millisecond,
	1000 * time.Millisecond,
	2000 * time.Millisecond,
	5000 * time.Millisecond,
}

// Config holds configuration for a transfer Manager.
type Config struct {
	// MinPartSize is the smallest part the planner emits (except a final remainder)
	MinPartSize int64 `validate:"gte=1"`

	// MaxPartSize is the largest part the planner may grow to
	MaxPartSize int64 `validate:"gtefield=MinPartSize"`

	// MaxParts is the maximum number of parts per object
	MaxParts int `validate:"gte=1"`

	// Concurrency is the number of parts in flight per command
	Concurrency int `validate:"gte=1"`

	// MaxAttempts is the attempt ceiling per part, including the first attempt
	MaxAttempts int `validate:"gte=1"`

	// BackoffTable is the wait before each retry
	BackoffTable []time.Duration `validate:"min=1,dive,gte=0"`

	// ClockSkewCorrection enables automatic signing-clock correction
	ClockSkewCorrection bool

	// SkewCacheSize bounds the per-endpoint clock offset cache
	SkewCacheSize int `validate:"gte=1"`

	// PartTimeout bounds a single part attempt; zero disables it
	PartTimeout time.Duration `validate:"gte=0"`

	// CleanupTimeout bounds abort calls issued after a command stops
	CleanupTimeout time.Duration `validate:"gt=0"`

	// Logger receives structured transfer logs
	Logger *slog.Logger `validate:"-"`

	// ProgressTracker receives progress callbacks for every command
	ProgressTracker ProgressTracker `validate:"-"`

	// Filesystem resolves TransferRequest.FilePath
	Filesystem fs.Filesystem `validate:"-"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	table := make([]time.Duration, len(DefaultBackoffTable))
	copy(table, DefaultBackoffTable)

	return &Config{
		MinPartSize:         DefaultMinPartSize,
		MaxPartSize:         DefaultMaxPartSize,
		MaxParts:            DefaultMaxParts,
		Concurrency:         DefaultConcurrency,
		MaxAttempts:         DefaultMaxAttempts,
		BackoffTable:        table,
		ClockSkewCorrection: true,
		SkewCacheSize:       DefaultSkewCacheSize,
		CleanupTimeout:      DefaultCleanupTimeout,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration limits.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewSenderError("config", fmt.Errorf("%w: %w", errors.ErrInvalidInput, err))
	}
	return nil
}

// Option is a functional option for configuring a transfer Manager.
type Option func(*Config)
