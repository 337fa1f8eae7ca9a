package planner

import (
	"bytes"
	stderrors "errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/pool"
)

func collect(t *testing.T, s *Streamer) ([]Part, []byte) {
	t.Helper()
	var parts []Part
	var data []byte
	for {
		c, err := s.Next()
		if err == io.EOF {
			return parts, data
		}
		require.NoError(t, err)
		parts = append(parts, c.Part)
		data = append(data, c.Data...)
		c.Release()
	}
}

func TestStreamer_Parts(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		partSize  int64
		wantParts int
		wantLast  int64
	}{
		{"empty stream", 0, 4, 1, 0},
		{"shorter than a part", 3, 4, 1, 3},
		{"exact multiple", 12, 4, 3, 4},
		{"remainder", 13, 4, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := bytes.Repeat([]byte{'x'}, tt.size)
			s, err := NewStreamer(iotest.HalfReader(bytes.NewReader(src)), Limits{
				MinPartSize: tt.partSize, MaxPartSize: tt.partSize, MaxParts: 100,
			}, pool.NewPartPool())
			require.NoError(t, err)

			parts, data := collect(t, s)

			require.Len(t, parts, tt.wantParts)
			assert.Equal(t, tt.wantLast, parts[len(parts)-1].Length)
			assert.True(t, bytes.Equal(src, data))
			assert.Equal(t, int64(tt.size), s.Total())
			assert.Equal(t, tt.wantParts, s.Parts())
			assert.True(t, s.Done())
			assertContiguous(t, parts, int64(tt.size), 100)
		})
	}
}

func TestStreamer_CapacityExceeded(t *testing.T) {
	s, err := NewStreamer(bytes.NewReader(make([]byte, 9)), Limits{
		MinPartSize: 2, MaxPartSize: 2, MaxParts: 4,
	}, nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		c, err := s.Next()
		require.NoError(t, err)
		c.Release()
	}

	_, err = s.Next()
	assert.ErrorIs(t, err, errors.ErrCapacityExceeded)

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStreamer_FillsMaxPartsExactly(t *testing.T) {
	s, err := NewStreamer(bytes.NewReader(make([]byte, 8)), Limits{
		MinPartSize: 2, MaxPartSize: 2, MaxParts: 4,
	}, nil)
	require.NoError(t, err)

	parts, _ := collect(t, s)
	assert.Len(t, parts, 4)
}

func TestStreamer_ReadError(t *testing.T) {
	boom := stderrors.New("disk gone")
	s, err := NewStreamer(iotest.ErrReader(boom), DefaultLimits(), nil)
	require.NoError(t, err)

	_, err = s.Next()
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.IsSender(err))
}

func TestNewStreamer_InvalidLimits(t *testing.T) {
	_, err := NewStreamer(bytes.NewReader(nil), Limits{}, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
