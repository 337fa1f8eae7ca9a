package transfer

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/retry"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// Config holds the collaborators and limits an Executor runs with.
type Config struct {
	// Client performs the per-part network operations
	Client transfertypes.PartTransferClient

	// Limits bound part planning
	Limits planner.Limits

	// Concurrency is the default number of parts in flight per command
	Concurrency int

	// MaxAttempts is the attempt ceiling per part
	MaxAttempts int

	// Backoff is the wait schedule between attempts
	Backoff *retry.Table

	// Skew applies clock-offset corrections; nil disables correction
	Skew *retry.SkewCorrector

	// PartTimeout bounds one attempt; zero disables it
	PartTimeout time.Duration

	// CleanupTimeout bounds abort calls
	CleanupTimeout time.Duration

	// Logger receives structured logs
	Logger *slog.Logger

	// Tracker receives progress callbacks for every command
	Tracker transfertypes.ProgressTracker

	// Buffers supplies part buffers for streamed uploads
	Buffers *pool.PartPool
}

// Executor creates and runs transfer commands.
type Executor struct {
	cfg Config
}

// NewExecutor creates an executor, filling unset fields with defaults.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.Client == nil {
		return nil, errors.NewSenderError("newExecutor", errors.ErrInvalidInput).WithMessage("client cannot be nil")
	}
	if cfg.Limits == (planner.Limits{}) {
		cfg.Limits = planner.DefaultLimits()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = transfertypes.DefaultConcurrency
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = transfertypes.DefaultMaxAttempts
	}
	if cfg.Backoff == nil {
		cfg.Backoff = retry.NewTable(transfertypes.DefaultBackoffTable)
	}
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = transfertypes.DefaultCleanupTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Buffers == nil {
		cfg.Buffers = pool.NewPartPool()
	}
	return &Executor{cfg: cfg}, nil
}

// UploadSource is the data an upload reads.
type UploadSource struct {
	// ReaderAt is sectioned per part when Size is known
	ReaderAt io.ReaderAt

	// Reader is read sequentially when ReaderAt is nil
	Reader io.Reader

	// Size is the object size, or transfertypes.UnknownSize
	Size int64

	// Path is the local file backing the source, if any
	Path string

	// Release is called with the command's final error once it stops
	Release func(err error) error
}

// DownloadSink is where a download writes.
type DownloadSink struct {
	// WriterAt receives each part at its offset
	WriterAt io.WriterAt

	// Path is the local file backing the sink, if any
	Path string

	// Release is called with the command's final error once it stops
	Release func(err error) error
}

// Upload creates a command sending src to target and starts it. The command
// stops when ctx is done or Cancel is called.
func (e *Executor) Upload(
	ctx context.Context,
	req *transfertypes.TransferRequest,
	target transfertypes.ObjectTarget,
	src UploadSource,
) *Command {
	c := e.newCommand(transfertypes.DirectionUpload, req, target, src.Size, src.Path)
	c.src = src
	c.release = src.Release
	c.start(ctx, c.runUpload)
	return c
}

// Download creates a command receiving the object described by req into
// sink and starts it.
func (e *Executor) Download(
	ctx context.Context,
	req *transfertypes.TransferRequest,
	sink DownloadSink,
) *Command {
	size := transfertypes.UnknownSize
	if req.Size != nil && *req.Size >= 0 {
		size = *req.Size
	}
	target := transfertypes.ObjectTarget{Bucket: req.Bucket, Key: req.Key}
	c := e.newCommand(transfertypes.DirectionDownload, req, target, size, sink.Path)
	c.sink = sink
	c.release = sink.Release
	c.start(ctx, c.runDownload)
	return c
}

func (e *Executor) newCommand(
	dir transfertypes.Direction,
	req *transfertypes.TransferRequest,
	target transfertypes.ObjectTarget,
	size int64,
	path string,
) *Command {
	id := uuid.NewString()

	limits := e.cfg.Limits
	if req.PartSize > 0 {
		limits.MinPartSize = req.PartSize
		if limits.MaxPartSize < limits.MinPartSize {
			limits.MaxPartSize = limits.MinPartSize
		}
	}
	concurrency := e.cfg.Concurrency
	if req.Concurrency > 0 {
		concurrency = req.Concurrency
	}

	return newCommand(commandParams{
		id:          id,
		direction:   dir,
		request:     req,
		target:      target,
		size:        size,
		path:        path,
		limits:      limits,
		concurrency: concurrency,
		exec:        e,
		logger: e.cfg.Logger.With(
			"command_id", id,
			"direction", string(dir),
			"bucket", target.Bucket,
			"key", target.Key,
		),
	})
}

// preRequest applies any cached clock offset before an attempt.
func (e *Executor) preRequest(log *slog.Logger) {
	if e.cfg.Skew == nil {
		return
	}
	if err := e.cfg.Skew.PreRequest(e.cfg.Client); err != nil {
		if errors.Is(err, errors.ErrUnsupportedOperation) {
			log.Debug("client does not support clock offsets", "error", err)
			return
		}
		log.Warn("failed to apply clock offset", "error", err)
	}
}

// correctSkew records the offset implied by a clock-skew rejection.
func (e *Executor) correctSkew(log *slog.Logger, skew *errors.Error) {
	if e.cfg.Skew == nil {
		return
	}
	if offset, ok := e.cfg.Skew.Correct(e.cfg.Client, skew.ServerTime); ok {
		log.Info("clock skew detected", "endpoint", e.cfg.Client.Endpoint(), "offset", offset)
	}
}
