package transfer

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/extdata"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/progress"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// Command is one in-flight object transfer.
type Command struct {
	id          string
	direction   transfertypes.Direction
	request     *transfertypes.TransferRequest
	target      transfertypes.ObjectTarget
	size        int64
	path        string
	limits      planner.Limits
	concurrency int

	exec    *Executor
	log     *slog.Logger
	ext     *extdata.Data
	tracker *progress.Tracker
	feed    *progress.Feed

	src     UploadSource
	sink    DownloadSink
	release func(error) error

	cancel context.CancelCauseFunc
	done   chan struct{}

	mu     sync.Mutex
	state  transfertypes.State
	parts  []*partState
	result transfertypes.Result
	etag   string
}

type commandParams struct {
	id          string
	direction   transfertypes.Direction
	request     *transfertypes.TransferRequest
	target      transfertypes.ObjectTarget
	size        int64
	path        string
	limits      planner.Limits
	concurrency int
	exec        *Executor
	logger      *slog.Logger
}

func newCommand(p commandParams) *Command {
	c := &Command{
		id:          p.id,
		direction:   p.direction,
		request:     p.request,
		target:      p.target,
		size:        p.size,
		path:        p.path,
		limits:      p.limits,
		concurrency: p.concurrency,
		exec:        p.exec,
		log:         p.logger,
		ext:         p.request.Ext.Clone(),
		feed:        progress.NewFeed(),
		done:        make(chan struct{}),
		state:       transfertypes.StateCreated,
	}
	c.tracker = progress.NewTracker(p.size, p.path, c.emit)
	return c
}

// emit is called by the tracker with its lock held, so events reach the
// feed and the tracker callback in order.
func (c *Command) emit(s transfertypes.ProgressSnapshot) {
	c.feed.Publish(s)
	if t := c.exec.cfg.Tracker; t != nil {
		t.Update(s)
	}
}

func (c *Command) start(ctx context.Context, run func(context.Context) error) {
	runCtx, cancel := context.WithCancelCause(ctx)
	c.cancel = cancel

	go func() {
		defer cancel(nil)

		started := time.Now()
		c.log.Info("transfer started", "size", c.size)

		err := run(runCtx)
		state := transfertypes.StateCompleted
		if err != nil {
			state, err = c.resolve(runCtx, err)
		}
		c.finish(state, err, time.Since(started))
	}()
}

// resolve turns the error that stopped a command into its terminal state.
// Failures caused by the command's context ending become Canceled, or a
// timeout failure when the context's deadline passed.
func (c *Command) resolve(ctx context.Context, err error) (transfertypes.State, error) {
	code := errors.CodeOf(err)
	if ctx.Err() == nil || code == errors.CodeSender || code == errors.CodeCapacity {
		return transfertypes.StateFailed, err
	}

	cause := context.Cause(ctx)
	if errors.Is(cause, context.DeadlineExceeded) {
		return transfertypes.StateFailed, errors.NewError(string(c.direction), cause).
			WithCode(errors.CodeTimeout).
			WithBucket(c.target.Bucket).
			WithKey(c.target.Key)
	}
	return transfertypes.StateCanceled, errors.NewError(string(c.direction), cause).
		WithCode(errors.CodeCanceled).
		WithBucket(c.target.Bucket).
		WithKey(c.target.Key)
}

func (c *Command) finish(state transfertypes.State, err error, elapsed time.Duration) {
	if c.release != nil {
		if rerr := c.release(err); rerr != nil {
			c.log.Warn("failed to release local resource", "error", rerr)
			if err == nil {
				state = transfertypes.StateFailed
				err = errors.NewError("release", rerr).WithBucket(c.target.Bucket).WithKey(c.target.Key)
			}
		}
	}

	c.mu.Lock()
	c.state = state
	c.result = transfertypes.Result{
		CommandID: c.id,
		State:     state,
		Err:       err,
		Bytes:     c.tracker.Cumulative(),
		ETag:      c.etag,
		Parts:     len(c.parts),
		Duration:  elapsed,
	}
	result := c.result
	c.mu.Unlock()

	switch state {
	case transfertypes.StateCompleted:
		c.log.Info("transfer completed",
			"bytes", result.Bytes,
			"parts", result.Parts,
			"duration", result.Duration)
	case transfertypes.StateCanceled:
		c.log.Info("transfer canceled", "bytes", result.Bytes, "error", err)
	default:
		c.log.Error("transfer failed", "bytes", result.Bytes, "error", err)
	}

	c.feed.Close()
	if t := c.exec.cfg.Tracker; t != nil {
		if state == transfertypes.StateCompleted {
			t.Complete()
		} else {
			t.Error(err)
		}
	}
	close(c.done)
}

func (c *Command) setState(state transfertypes.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Terminal() {
		return
	}
	c.state = state
}

func (c *Command) addPart(p planner.Part) *partState {
	ps := &partState{Part: p, status: transfertypes.PartPending}
	c.mu.Lock()
	c.parts = append(c.parts, ps)
	c.mu.Unlock()
	return ps
}

// ID returns the command's unique identifier.
func (c *Command) ID() string {
	return c.id
}

// Direction returns whether the command uploads or downloads.
func (c *Command) Direction() transfertypes.Direction {
	return c.direction
}

// Request returns the request the command was created from.
func (c *Command) Request() *transfertypes.TransferRequest {
	return c.request
}

// State returns the current lifecycle state.
func (c *Command) State() transfertypes.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Extensions returns the command's extension data.
func (c *Command) Extensions() *extdata.Data {
	return c.ext
}

// Transferred returns the bytes reported so far.
func (c *Command) Transferred() int64 {
	return c.tracker.Cumulative()
}

// Parts returns a snapshot of every planned part, ordered by part number.
func (c *Command) Parts() []transfertypes.PartInfo {
	c.mu.Lock()
	parts := append([]*partState(nil), c.parts...)
	c.mu.Unlock()

	out := make([]transfertypes.PartInfo, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Cancel asks the command to stop. In-flight parts stop at their next read
// and unstarted parts are skipped. It has no effect on a terminal command.
func (c *Command) Cancel() {
	c.cancel(errors.ErrCanceled)
}

// Subscribe returns a channel of progress snapshots and a function that
// stops the subscription. The channel closes once the command is terminal.
func (c *Command) Subscribe() (<-chan transfertypes.ProgressSnapshot, func()) {
	return c.feed.Subscribe()
}

// Done returns a channel closed when the command reaches a terminal state.
func (c *Command) Done() <-chan struct{} {
	return c.done
}

// Result returns the terminal result and true, or false while the command
// is still running. Repeated calls return the same result.
func (c *Command) Result() (transfertypes.Result, bool) {
	select {
	case <-c.done:
	default:
		return transfertypes.Result{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, true
}

// Wait blocks until the command is terminal or ctx is done. A ctx deadline
// yields a timeout error; the command keeps running either way.
func (c *Command) Wait(ctx context.Context) (transfertypes.Result, error) {
	select {
	case <-c.done:
		r, _ := c.Result()
		return r, nil
	case <-ctx.Done():
	}

	err := ctx.Err()
	code := errors.CodeCanceled
	if errors.Is(err, context.DeadlineExceeded) {
		code = errors.CodeTimeout
	}
	return transfertypes.Result{CommandID: c.id, State: c.State()},
		errors.NewError("wait", err).WithCode(code).WithBucket(c.target.Bucket).WithKey(c.target.Key)
}
