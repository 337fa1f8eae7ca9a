package planner

import (
	"fmt"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/pool"
)

// Chunk is a part cut from a stream together with its bytes.
type Chunk struct {
	Part
	Data []byte

	release func([]byte)
}

// Release returns the chunk's buffer to its pool. Data must not be used
// afterwards.
func (c *Chunk) Release() {
	if c.release != nil && c.Data != nil {
		c.release(c.Data)
		c.Data = nil
	}
}

// Streamer plans parts incrementally from a reader of unknown length. Every
// part has MinPartSize bytes except the last, which holds the remainder.
type Streamer struct {
	src      io.Reader
	partSize int64
	maxParts int
	buffers  *pool.PartPool

	next   int
	offset int64
	done   bool
}

// NewStreamer creates a Streamer reading from src. A nil pool allocates a
// private one.
func NewStreamer(src io.Reader, limits Limits, buffers *pool.PartPool) (*Streamer, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}
	if buffers == nil {
		buffers = pool.NewPartPool()
	}
	return &Streamer{
		src:      src,
		partSize: limits.MinPartSize,
		maxParts: limits.MaxParts,
		buffers:  buffers,
		next:     1,
	}, nil
}

// Next reads the next part. It returns io.EOF once the stream has been fully
// planned, and a capacity error when the stream holds more than MaxParts
// parts. An empty stream yields a single zero-length part.
func (s *Streamer) Next() (*Chunk, error) {
	if s.done {
		return nil, io.EOF
	}

	buf := s.buffers.Get(int(s.partSize))
	n, err := io.ReadFull(s.src, buf)
	switch err {
	case nil:
	case io.EOF, io.ErrUnexpectedEOF:
		s.done = true
		if n == 0 && s.next > 1 {
			s.buffers.Put(buf)
			return nil, io.EOF
		}
	default:
		s.buffers.Put(buf)
		return nil, errors.NewSenderError("readSource", err).WithPart(s.next)
	}

	if s.next > s.maxParts {
		s.buffers.Put(buf)
		s.done = true
		return nil, errors.NewError("plan", errors.ErrCapacityExceeded).
			WithCode(errors.CodeCapacity).
			WithMessage(fmt.Sprintf("stream exceeds %d parts of %d bytes", s.maxParts, s.partSize))
	}

	chunk := &Chunk{
		Part:    Part{Number: s.next, Offset: s.offset, Length: int64(n)},
		Data:    buf[:n],
		release: s.buffers.Put,
	}
	s.next++
	s.offset += int64(n)
	return chunk, nil
}

// Done reports whether the end of the stream has been reached.
func (s *Streamer) Done() bool {
	return s.done
}

// Total returns the number of bytes planned so far.
func (s *Streamer) Total() int64 {
	return s.offset
}

// Parts returns the number of parts planned so far.
func (s *Streamer) Parts() int {
	return s.next - 1
}
