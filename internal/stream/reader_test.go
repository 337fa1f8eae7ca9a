package stream

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
)

type closeTracker struct {
	io.ReadSeeker
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestReader_ReportsEveryRead(t *testing.T) {
	var events []ReadEvent
	r := NewReader(strings.NewReader("hello world"), WithReadHandler(func(ev ReadEvent) {
		events = append(events, ev)
	}))

	buf := make([]byte, 4)
	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	require.Len(t, events, 4)
	assert.Equal(t, ReadEvent{N: 4, Total: 4, Pos: 4}, events[0])
	assert.Equal(t, ReadEvent{N: 3, Total: 11, Pos: 11}, events[2])
	assert.Equal(t, ReadEvent{N: 0, Total: 11, Pos: 11, EOF: true}, events[3])
	assert.Equal(t, int64(11), r.Total())
}

func TestReader_EmptySourceRaisesNoEndOfStream(t *testing.T) {
	var events []ReadEvent
	r := NewReader(strings.NewReader(""), WithReadHandler(func(ev ReadEvent) {
		events = append(events, ev)
	}))

	n, err := r.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
	assert.Empty(t, events)
	assert.Zero(t, r.Total())
}

func TestReader_SeekResetsPositionNotTotal(t *testing.T) {
	var last ReadEvent
	r := NewReader(strings.NewReader("abcdefgh"), WithReadHandler(func(ev ReadEvent) { last = ev }))

	_, err := io.ReadAll(r)
	require.NoError(t, err)

	pos, err := r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Zero(t, pos)
	assert.Zero(t, r.Position())

	buf := make([]byte, 3)
	_, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(3), last.Pos)
	assert.Equal(t, int64(11), last.Total)
}

func TestReader_WriteUnsupported(t *testing.T) {
	r := NewReader(&bytes.Buffer{})

	n, err := r.Write([]byte("x"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, errors.ErrUnsupportedOperation)
	assert.True(t, errors.IsSender(err))
	assert.True(t, r.CanWrite())
}

func TestReader_Capabilities(t *testing.T) {
	tests := []struct {
		name       string
		src        io.Reader
		canSeek    bool
		canWrite   bool
		canTimeout bool
	}{
		{name: "strings reader", src: strings.NewReader("x"), canSeek: true},
		{name: "buffer", src: &bytes.Buffer{}, canWrite: true},
		{name: "plain reader", src: io.LimitReader(strings.NewReader("x"), 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.src)
			assert.True(t, r.CanRead())
			assert.Equal(t, tt.canSeek, r.CanSeek())
			assert.Equal(t, tt.canWrite, r.CanWrite())
			assert.Equal(t, tt.canTimeout, r.CanTimeout())
		})
	}
}

func TestReader_CanTimeoutOnConn(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	assert.True(t, NewReader(client).CanTimeout())
}

func TestReader_Length(t *testing.T) {
	src := strings.NewReader("0123456789")
	r := NewReader(src)

	_, err := r.Read(make([]byte, 4))
	require.NoError(t, err)

	n, err := r.Length()
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(rest))

	_, err = NewReader(io.LimitReader(src, 1)).Length()
	assert.ErrorIs(t, err, errors.ErrUnsupportedOperation)

	n, err = NewReader(io.LimitReader(src, 1), WithLength(42)).Length()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestReader_Close(t *testing.T) {
	tests := []struct {
		name      string
		leaveOpen bool
		wantClose bool
	}{
		{name: "closes source", leaveOpen: false, wantClose: true},
		{name: "leaves source open", leaveOpen: true, wantClose: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &closeTracker{ReadSeeker: strings.NewReader("data")}
			r := NewReader(src, WithLeaveOpen(tt.leaveOpen))

			require.NoError(t, r.Close())
			require.NoError(t, r.Close())
			assert.Equal(t, tt.wantClose, src.closed)
			assert.False(t, r.CanRead())

			_, err := r.Read(make([]byte, 1))
			assert.ErrorIs(t, err, errors.ErrStreamClosed)
		})
	}
}

func TestReader_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewReader(strings.NewReader("abcdef"), WithContext(ctx))

	_, err := r.Read(make([]byte, 2))
	require.NoError(t, err)

	cancel()
	_, err = r.Read(make([]byte, 2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(2), r.Total())
}

func TestReader_ReadContext(t *testing.T) {
	r := NewReader(strings.NewReader("abcdef"))

	ctx, cancel := context.WithCancel(context.Background())
	n, err := r.ReadContext(ctx, make([]byte, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cancel()
	_, err = r.ReadContext(ctx, make([]byte, 3))
	assert.ErrorIs(t, err, context.Canceled)
}
