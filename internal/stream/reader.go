package stream

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
)

// ReadEvent describes a single completed read.
type ReadEvent struct {
	// N is the number of bytes returned by this read
	N int

	// Total is the number of bytes read through the Reader since creation
	Total int64

	// Pos is the position in the underlying stream after the read
	Pos int64

	// EOF is set when the read reached the end of a stream that produced at
	// least one byte. An empty source never raises an end-of-stream event.
	EOF bool
}

// ReadHandler is invoked after every read.
type ReadHandler func(ReadEvent)

// Option configures a Reader.
type Option func(*Reader)

// WithReadHandler sets the callback raised on every read.
func WithReadHandler(h ReadHandler) Option {
	return func(r *Reader) {
		r.onRead = h
	}
}

// WithLeaveOpen controls whether Close leaves the wrapped source open.
func WithLeaveOpen(leaveOpen bool) Option {
	return func(r *Reader) {
		r.leaveOpen = leaveOpen
	}
}

// WithContext makes every Read fail with the context's error once it is done.
func WithContext(ctx context.Context) Option {
	return func(r *Reader) {
		r.ctx = ctx
	}
}

// WithLength sets the stream length reported by Length when the source is
// not seekable.
func WithLength(n int64) Option {
	return func(r *Reader) {
		r.length = n
	}
}

// Reader wraps a byte source and reports reads.
type Reader struct {
	src       io.Reader
	ctx       context.Context
	onRead    ReadHandler
	leaveOpen bool
	length    int64

	mu     sync.Mutex
	total  int64
	pos    int64
	closed bool
}

// NewReader wraps src.
func NewReader(src io.Reader, opts ...Option) *Reader {
	r := &Reader{
		src:    src,
		ctx:    context.Background(),
		length: -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	return r.ReadContext(r.ctx, p)
}

// ReadContext reads into p unless ctx (or the Reader's own context) is done.
func (r *Reader) ReadContext(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, errors.NewSenderError("read", errors.ErrStreamClosed)
	}
	r.mu.Unlock()

	n, err := r.src.Read(p)

	r.mu.Lock()
	r.total += int64(n)
	r.pos += int64(n)
	ev := ReadEvent{N: n, Total: r.total, Pos: r.pos, EOF: err == io.EOF && r.total > 0}
	r.mu.Unlock()

	if r.onRead != nil && (n > 0 || ev.EOF) {
		r.onRead(ev)
	}
	return n, err
}

// Seek implements io.Seeker when the wrapped source does.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	s, ok := r.src.(io.Seeker)
	if !ok {
		return 0, errors.NewSenderError("seek", errors.ErrUnsupportedOperation)
	}
	pos, err := s.Seek(offset, whence)
	if err != nil {
		return pos, err
	}

	r.mu.Lock()
	r.pos = pos
	r.mu.Unlock()
	return pos, nil
}

// Write always fails; transfer streams are read-only.
func (r *Reader) Write([]byte) (int, error) {
	return 0, errors.NewSenderError("write", errors.ErrUnsupportedOperation)
}

// Close closes the wrapped source unless the Reader was created with
// WithLeaveOpen(true). Reads after Close fail.
func (r *Reader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if r.leaveOpen {
		return nil
	}
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Position returns the current position in the wrapped source.
func (r *Reader) Position() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// Total returns the number of bytes read since creation.
func (r *Reader) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Length returns the size of the wrapped source. Seekable sources are
// measured and restored to their current position.
func (r *Reader) Length() (int64, error) {
	if r.length >= 0 {
		return r.length, nil
	}
	s, ok := r.src.(io.Seeker)
	if !ok {
		return 0, errors.NewSenderError("length", errors.ErrUnsupportedOperation)
	}
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

// CanRead reports whether the Reader can still be read.
func (r *Reader) CanRead() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed
}

// CanSeek reports whether the wrapped source is seekable.
func (r *Reader) CanSeek() bool {
	_, ok := r.src.(io.Seeker)
	return ok
}

// CanWrite reports whether the wrapped source accepts writes. Writes through
// the Reader are refused regardless.
func (r *Reader) CanWrite() bool {
	_, ok := r.src.(io.Writer)
	return ok
}

// CanTimeout reports whether the wrapped source supports read deadlines.
func (r *Reader) CanTimeout() bool {
	_, ok := r.src.(interface{ SetReadDeadline(time.Time) error })
	return ok
}
