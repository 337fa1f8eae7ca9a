package transfer

import (
	"context"
	"fmt"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/stream"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

func (c *Command) runDownload(ctx context.Context) error {
	c.setState(transfertypes.StatePlanning)

	if c.size < 0 {
		info, err := c.headObject(ctx)
		if err != nil {
			return err
		}
		c.size = info.Size
		c.tracker.SetTotal(info.Size)
		c.mu.Lock()
		c.etag = info.ETag
		c.mu.Unlock()
		if info.ETag != "" {
			c.ext.Set(transfertypes.ExtETag, info.ETag)
		}
	}

	parts, err := planner.PlanWithLimits(c.size, c.limits)
	if err != nil {
		return c.wrap("plan", 0, err)
	}
	states := make([]*partState, len(parts))
	for i, p := range parts {
		states[i] = c.addPart(p)
	}

	c.setState(transfertypes.StateRunning)

	i := 0
	return c.runJobs(ctx, func() (*job, error) {
		if i == len(states) {
			return nil, io.EOF
		}
		ps := states[i]
		i++
		return &job{part: ps, run: c.downloadPart}, nil
	})
}

func (c *Command) headObject(ctx context.Context) (transfertypes.ObjectInfo, error) {
	var info transfertypes.ObjectInfo
	_, err := c.withRetry(ctx, c.log, func(int) error {
		got, err := c.exec.cfg.Client.HeadObject(ctx, c.target)
		if err != nil {
			return err
		}
		info = got
		return nil
	})
	if err != nil {
		return info, c.wrap("headObject", 0, err)
	}
	return info, nil
}

// downloadPart fetches one part into the sink at the part offset, retrying
// per policy.
func (c *Command) downloadPart(ctx context.Context, p *partState) error {
	log := c.log.With("part", p.Number)

	if p.Length == 0 {
		p.begin()
		p.succeed("")
		return nil
	}

	_, err := c.withRetry(ctx, log, func(int) error {
		attempt := p.begin()
		if attempt > 1 {
			if comp := c.tracker.Retry(p.Number); comp > 0 {
				log.Debug("part restarted", "attempt", attempt, "compensation", comp)
			}
		}
		if err := c.downloadAttempt(ctx, p, attempt); err != nil {
			p.fail(partStatusFor(err))
			return err
		}
		p.succeed("")
		return nil
	})
	if err != nil {
		p.fail(transfertypes.PartFatalError)
		return c.wrap("downloadPart", p.Number, err)
	}
	return nil
}

func (c *Command) downloadAttempt(ctx context.Context, p *partState, attempt int) error {
	actx, cancel := c.attemptContext(ctx)
	defer cancel()

	rc, err := c.exec.cfg.Client.DownloadPart(actx, c.descriptor(p, attempt))
	if err != nil {
		return err
	}
	body := stream.NewReader(rc,
		stream.WithContext(actx),
		stream.WithLength(p.Length),
		stream.WithReadHandler(func(ev stream.ReadEvent) {
			c.tracker.Observe(p.Number, ev.Pos)
		}),
	)
	defer body.Close()

	buf := pool.GetCopyBuffer()
	defer pool.PutCopyBuffer(buf)

	dst := &sinkWriter{w: io.NewOffsetWriter(c.sink.WriterAt, p.Offset)}
	n, err := io.CopyBuffer(dst, io.LimitReader(body, p.Length), buf)
	if dst.err != nil {
		return errors.NewSenderError("writeSink", dst.err)
	}
	if err != nil {
		if actx.Err() != nil {
			return err
		}
		return errors.NewTransientError("downloadPart", err)
	}
	if n != p.Length {
		return errors.NewTransientError("downloadPart", io.ErrUnexpectedEOF).
			WithMessage(fmt.Sprintf("received %d of %d bytes", n, p.Length))
	}
	return nil
}

// sinkWriter remembers the first error raised by the local destination so it
// is not mistaken for a failure reading the response body.
type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil && s.err == nil {
		s.err = err
	}
	return n, err
}
