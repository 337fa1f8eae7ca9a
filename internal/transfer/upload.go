package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/stream"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

func (c *Command) runUpload(ctx context.Context) error {
	c.setState(transfertypes.StatePlanning)

	var parts []planner.Part
	if c.src.ReaderAt != nil && c.size >= 0 {
		var err error
		if parts, err = planner.PlanWithLimits(c.size, c.limits); err != nil {
			return c.wrap("plan", 0, err)
		}
	}

	uploadID, err := c.createUpload(ctx)
	if err != nil {
		return err
	}
	c.target.UploadID = uploadID
	c.ext.Set(transfertypes.ExtUploadID, uploadID)
	c.log.Debug("multipart upload created", "upload_id", uploadID)

	c.setState(transfertypes.StateRunning)

	if parts != nil {
		err = c.uploadSections(ctx, parts)
	} else {
		err = c.uploadStream(ctx)
	}
	if err != nil {
		c.abort(ctx)
		return err
	}

	if err := c.completeUpload(ctx); err != nil {
		c.abort(ctx)
		return err
	}
	return nil
}

func (c *Command) createUpload(ctx context.Context) (string, error) {
	var uploadID string
	_, err := c.withRetry(ctx, c.log, func(int) error {
		id, err := c.exec.cfg.Client.CreateMultipartUpload(ctx, c.target)
		if err != nil {
			return err
		}
		uploadID = id
		return nil
	})
	if err != nil {
		return "", c.wrap("createMultipartUpload", 0, err)
	}
	return uploadID, nil
}

// uploadSections uploads a random-access source, one section per part.
func (c *Command) uploadSections(ctx context.Context, parts []planner.Part) error {
	states := make([]*partState, len(parts))
	for i, p := range parts {
		states[i] = c.addPart(p)
	}

	i := 0
	return c.runJobs(ctx, func() (*job, error) {
		if i == len(states) {
			return nil, io.EOF
		}
		ps := states[i]
		i++
		return &job{
			part: ps,
			run: func(ctx context.Context, p *partState) error {
				return c.uploadPart(ctx, p, func() io.ReadSeeker {
					return io.NewSectionReader(c.src.ReaderAt, p.Offset, p.Length)
				})
			},
		}, nil
	})
}

// uploadStream uploads a sequential source, planning parts as data arrives.
func (c *Command) uploadStream(ctx context.Context) error {
	limits := c.limits
	if c.size >= 0 {
		size, err := planner.PartSize(c.size, limits)
		if err != nil {
			return c.wrap("plan", 0, err)
		}
		limits.MinPartSize = size
		limits.MaxPartSize = size
	}

	reader := c.src.Reader
	if reader == nil {
		reader = io.NewSectionReader(c.src.ReaderAt, 0, 1<<63-1)
	}
	streamer, err := planner.NewStreamer(reader, limits, c.exec.cfg.Buffers)
	if err != nil {
		return c.wrap("plan", 0, err)
	}

	err = c.runJobs(ctx, func() (*job, error) {
		chunk, err := streamer.Next()
		if err != nil {
			return nil, err
		}
		ps := c.addPart(chunk.Part)
		data := chunk.Data
		return &job{
			part:    ps,
			release: chunk.Release,
			run: func(ctx context.Context, p *partState) error {
				return c.uploadPart(ctx, p, func() io.ReadSeeker {
					return bytes.NewReader(data)
				})
			},
		}, nil
	})
	if err != nil {
		if errors.CodeOf(err) == errors.CodeCapacity || errors.Is(err, errors.ErrCapacityExceeded) {
			return c.wrap("plan", 0, err)
		}
		return err
	}

	total := streamer.Total()
	if c.size >= 0 && total != c.size {
		return errors.NewSenderError("upload", errors.ErrInvalidInput).
			WithBucket(c.target.Bucket).
			WithKey(c.target.Key).
			WithMessage(fmt.Sprintf("source produced %d bytes, declared %d", total, c.size))
	}
	c.tracker.SetTotal(total)
	return nil
}

// uploadPart sends one part, retrying per policy. Each attempt reads a fresh
// body positioned at the part start.
func (c *Command) uploadPart(ctx context.Context, p *partState, body func() io.ReadSeeker) error {
	log := c.log.With("part", p.Number)

	_, err := c.withRetry(ctx, log, func(int) error {
		attempt := p.begin()
		if attempt > 1 {
			if comp := c.tracker.Retry(p.Number); comp > 0 {
				log.Debug("part restarted", "attempt", attempt, "compensation", comp)
			}
		}

		etag, err := c.uploadAttempt(ctx, p, attempt, body())
		if err != nil {
			p.fail(partStatusFor(err))
			return err
		}
		p.succeed(etag)
		return nil
	})
	if err != nil {
		p.fail(transfertypes.PartFatalError)
		return c.wrap("uploadPart", p.Number, err)
	}
	return nil
}

func (c *Command) uploadAttempt(ctx context.Context, p *partState, attempt int, src io.ReadSeeker) (string, error) {
	actx, cancel := c.attemptContext(ctx)
	defer cancel()

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", errors.NewSenderError("seekPart", err)
	}

	body := stream.NewReader(src,
		stream.WithContext(actx),
		stream.WithLeaveOpen(true),
		stream.WithLength(p.Length),
		stream.WithReadHandler(func(ev stream.ReadEvent) {
			c.tracker.Observe(p.Number, ev.Pos)
		}),
	)
	defer body.Close()

	etag, err := c.exec.cfg.Client.UploadPart(actx, c.descriptor(p, attempt), body)
	if err != nil {
		return "", err
	}
	// The client may have sent the bytes without reading through body.
	c.tracker.Observe(p.Number, p.Length)
	return etag, nil
}

func (c *Command) completeUpload(ctx context.Context) error {
	c.mu.Lock()
	states := append([]*partState(nil), c.parts...)
	c.mu.Unlock()

	completed := make([]transfertypes.CompletedPart, 0, len(states))
	for _, ps := range states {
		cp, ok := ps.completed()
		if !ok {
			return c.wrap("completeMultipartUpload", ps.Number,
				fmt.Errorf("%w: part %d did not succeed", errors.ErrInvalidInput, ps.Number))
		}
		completed = append(completed, cp)
	}
	sort.Slice(completed, func(i, j int) bool { return completed[i].Number < completed[j].Number })

	var etag string
	_, err := c.withRetry(ctx, c.log, func(int) error {
		tag, err := c.exec.cfg.Client.CompleteMultipartUpload(ctx, c.target, completed)
		if err != nil {
			return err
		}
		etag = tag
		return nil
	})
	if err != nil {
		return c.wrap("completeMultipartUpload", 0, err)
	}

	c.mu.Lock()
	c.etag = etag
	c.mu.Unlock()
	c.ext.Set(transfertypes.ExtETag, etag)
	return nil
}

// abort abandons the multipart upload. It runs detached from ctx so that a
// canceled command still cleans up, bounded by the cleanup timeout.
func (c *Command) abort(ctx context.Context) {
	if c.target.UploadID == "" {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.exec.cfg.CleanupTimeout)
	defer cancel()

	if err := c.exec.cfg.Client.AbortMultipartUpload(actx, c.target); err != nil {
		c.log.Warn("failed to abort multipart upload", "upload_id", c.target.UploadID, "error", err)
		return
	}
	c.log.Debug("multipart upload aborted", "upload_id", c.target.UploadID)
}

func (c *Command) descriptor(p *partState, attempt int) transfertypes.PartDescriptor {
	return transfertypes.PartDescriptor{
		ObjectTarget: c.target,
		Number:       p.Number,
		Offset:       p.Offset,
		Length:       p.Length,
		Attempt:      attempt,
	}
}

func partStatusFor(err error) transfertypes.PartStatus {
	if errors.CodeOf(err).Retryable() {
		return transfertypes.PartRetryableError
	}
	return transfertypes.PartFatalError
}
