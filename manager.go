package s3transfer

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/retry"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// sniffLength is how much of a source is inspected to detect its content type.
const sniffLength = 512

// Manager runs multipart transfers against a PartTransferClient.
// It is safe for concurrent use; every Upload and Download starts an
// independent command.
type Manager struct {
	cfg  transfertypes.Config
	exec *transfer.Executor
	skew *retry.SkewCorrector
	fs   fs.Filesystem
	log  *slog.Logger
}

// New creates a Manager driving client with the provided options.
//
// Example:
//
//	m, err := s3transfer.New(client,
//	    s3transfer.WithConcurrency(8),
//	    s3transfer.WithMaxAttempts(5),
//	)
func New(client transfertypes.PartTransferClient, opts ...transfertypes.Option) (*Manager, error) {
	if client == nil {
		return nil, errors.NewSenderError("new", errors.ErrInvalidInput).WithMessage("client cannot be nil")
	}

	cfg := transfertypes.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = billy.NewOSFS("/")
	}

	skew, err := retry.NewSkewCorrector(cfg.ClockSkewCorrection, cfg.SkewCacheSize,
		retry.WithSkewLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	exec, err := transfer.NewExecutor(transfer.Config{
		Client: client,
		Limits: planner.Limits{
			MinPartSize: cfg.MinPartSize,
			MaxPartSize: cfg.MaxPartSize,
			MaxParts:    cfg.MaxParts,
		},
		Concurrency:    cfg.Concurrency,
		MaxAttempts:    cfg.MaxAttempts,
		Backoff:        retry.NewTable(cfg.BackoffTable),
		Skew:           skew,
		PartTimeout:    cfg.PartTimeout,
		CleanupTimeout: cfg.CleanupTimeout,
		Logger:         cfg.Logger,
		Tracker:        cfg.ProgressTracker,
		Buffers:        pool.NewPartPool(),
	})
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:  *cfg,
		exec: exec,
		skew: skew,
		fs:   cfg.Filesystem,
		log:  cfg.Logger,
	}, nil
}

// Upload validates req and starts sending it. The source is req.FilePath,
// opened through the configured filesystem, or req.Body. A Body that is an
// io.ReaderAt with a known Size is read in place; any other Body is read
// sequentially into pooled part buffers.
//
// The returned error covers request validation and opening the source only;
// transfer failures are reported through the Handle.
func (m *Manager) Upload(ctx context.Context, req *transfertypes.TransferRequest) (*Handle, error) {
	if err := validation.ValidateUpload(req); err != nil {
		return nil, err
	}

	src, contentType, err := m.uploadSource(req)
	if err != nil {
		return nil, err
	}

	target := transfertypes.ObjectTarget{
		Bucket:      req.Bucket,
		Key:         req.Key,
		ContentType: contentType,
		Metadata:    req.Metadata,
	}
	return &Handle{cmd: m.exec.Upload(ctx, req, target, src)}, nil
}

func (m *Manager) uploadSource(req *transfertypes.TransferRequest) (transfer.UploadSource, string, error) {
	contentType := req.ContentType

	if req.FilePath != "" {
		info, err := m.fs.Stat(req.FilePath)
		if err != nil {
			return transfer.UploadSource{}, "", errors.NewSenderError("openFile", err).
				WithBucket(req.Bucket).WithKey(req.Key)
		}
		if info.IsDir() {
			return transfer.UploadSource{}, "", errors.NewSenderError("openFile", errors.ErrInvalidInput).
				WithBucket(req.Bucket).WithKey(req.Key).
				WithMessage(req.FilePath + " is a directory")
		}
		f, err := m.fs.Open(req.FilePath)
		if err != nil {
			return transfer.UploadSource{}, "", errors.NewSenderError("openFile", err).
				WithBucket(req.Bucket).WithKey(req.Key)
		}
		if contentType == "" {
			contentType = sniffAt(f, info.Size())
		}
		return transfer.UploadSource{
			ReaderAt: f,
			Size:     info.Size(),
			Path:     req.FilePath,
			Release:  func(error) error { return f.Close() },
		}, contentType, nil
	}

	size := transfertypes.UnknownSize
	if req.Size != nil && *req.Size >= 0 {
		size = *req.Size
	}

	if ra, ok := req.Body.(io.ReaderAt); ok && size >= 0 {
		if contentType == "" {
			contentType = sniffAt(ra, size)
		}
		return transfer.UploadSource{ReaderAt: ra, Size: size}, contentType, nil
	}

	body := req.Body
	if contentType == "" {
		br := bufio.NewReaderSize(body, sniffLength)
		head, _ := br.Peek(sniffLength)
		contentType = sniff(head)
		body = br
	}
	return transfer.UploadSource{Reader: body, Size: size}, contentType, nil
}

func sniffAt(ra io.ReaderAt, size int64) string {
	n := int64(sniffLength)
	if size < n {
		n = size
	}
	head := make([]byte, n)
	read, _ := ra.ReadAt(head, 0)
	return sniff(head[:read])
}

func sniff(head []byte) string {
	if len(head) == 0 {
		return ""
	}
	return mimetype.Detect(head).String()
}

// Download validates req and starts receiving the object into dst. When dst
// is nil the object is written to req.FilePath, created through the
// configured filesystem and removed again if the download does not complete.
func (m *Manager) Download(ctx context.Context, req *transfertypes.TransferRequest, dst io.WriterAt) (*Handle, error) {
	if err := validation.ValidateDownload(req); err != nil {
		return nil, err
	}

	sink := transfer.DownloadSink{WriterAt: dst, Path: req.FilePath}
	if dst == nil {
		if req.FilePath == "" {
			return nil, errors.NewSenderError("validateDownload", errors.ErrInvalidInput).
				WithBucket(req.Bucket).WithKey(req.Key).
				WithMessage("download requires a destination writer or a file path")
		}
		f, err := m.fs.Create(req.FilePath)
		if err != nil {
			return nil, errors.NewSenderError("createFile", err).WithBucket(req.Bucket).WithKey(req.Key)
		}
		sink.WriterAt = fileWriterAt(f)
		sink.Release = func(cause error) error {
			if err := f.Close(); err != nil {
				return err
			}
			if cause != nil {
				return m.fs.Remove(req.FilePath)
			}
			return nil
		}
	}

	return &Handle{cmd: m.exec.Download(ctx, req, sink)}, nil
}

// fileWriterAt returns f as an io.WriterAt, serializing seek-then-write when
// the file does not provide positional writes itself.
func fileWriterAt(f fs.File) io.WriterAt {
	if wa, ok := f.(io.WriterAt); ok {
		return wa
	}
	return &seekWriterAt{f: f}
}

type seekWriterAt struct {
	mu sync.Mutex
	f  io.WriteSeeker
}

func (w *seekWriterAt) WriteAt(p []byte, off int64) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.f.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return w.f.Write(p)
}

// DisableClockSkewCorrection suspends automatic clock-skew correction until
// the returned scope is released. Scopes nest, and releasing one restores
// the state seen when it was acquired.
func (m *Manager) DisableClockSkewCorrection() *retry.Scope {
	return m.skew.Disable()
}

// ClockSkewCorrectionEnabled reports whether automatic correction is active.
func (m *Manager) ClockSkewCorrectionEnabled() bool {
	return m.skew.Enabled()
}

// ClockOffset returns the signing-clock offset remembered for endpoint.
func (m *Manager) ClockOffset(endpoint string) (time.Duration, bool) {
	return m.skew.Offset(endpoint)
}

// ResetClockSkew forgets the offset remembered for endpoint so the next
// skew rejection measures it again.
func (m *Manager) ResetClockSkew(endpoint string) {
	m.skew.Reset(endpoint)
	m.log.Debug("clock offset reset", "endpoint", endpoint)
}

// Config returns a copy of the manager's configuration.
func (m *Manager) Config() transfertypes.Config {
	cfg := m.cfg
	cfg.BackoffTable = append([]time.Duration(nil), m.cfg.BackoffTable...)
	return cfg
}
