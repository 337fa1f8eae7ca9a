package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

type recorder struct {
	mu     sync.Mutex
	events []transfertypes.ProgressSnapshot
}

func (r *recorder) emit(s transfertypes.ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) sumIncrements() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, e := range r.events {
		sum += e.Increment
	}
	return sum
}

func TestTracker_Observe(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(100, "", rec.emit)

	tr.Observe(1, 30)
	tr.Observe(1, 50)
	tr.Observe(2, 50)

	require.Len(t, rec.events, 3)
	assert.Equal(t, int64(30), rec.events[0].Increment)
	assert.Equal(t, int64(20), rec.events[1].Increment)
	assert.Equal(t, int64(100), rec.events[2].Cumulative)
	assert.Equal(t, int64(100), tr.Cumulative())
}

func TestTracker_RetryDoesNotDoubleCount(t *testing.T) {
	tests := []struct {
		name     string
		length   int64
		attempts [][]int64 // read positions per attempt
	}{
		{name: "no retry", length: 100, attempts: [][]int64{{40, 100}}},
		{name: "one retry", length: 100, attempts: [][]int64{{40}, {10, 40, 70, 100}}},
		{name: "two retries", length: 100, attempts: [][]int64{{25, 60}, {30}, {50, 90, 100}}},
		{name: "retry before any bytes", length: 10, attempts: [][]int64{{}, {10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			tr := NewTracker(tt.length, "", rec.emit)

			for i, positions := range tt.attempts {
				if i > 0 {
					tr.Retry(3)
				}
				for _, pos := range positions {
					tr.Observe(3, pos)
				}
			}

			assert.Equal(t, tt.length, rec.sumIncrements())
			assert.Equal(t, tt.length, tr.Cumulative())
			assert.Equal(t, tt.length, tr.Reported(3))
		})
	}
}

func TestTracker_RetryEmitsCompensation(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(100, "src.bin", rec.emit)

	tr.Observe(1, 40)
	got := tr.Retry(1)

	assert.Equal(t, int64(40), got)
	require.Len(t, rec.events, 2)
	assert.Equal(t, int64(0), rec.events[1].Increment)
	assert.Equal(t, int64(40), rec.events[1].Compensation)
	assert.Equal(t, int64(40), rec.events[1].Cumulative)
	assert.Equal(t, "src.bin", rec.events[1].SourcePath)
}

func TestTracker_NeverExceedsTotal(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(10, "", rec.emit)

	tr.Observe(1, 8)
	tr.Observe(2, 8)

	assert.Equal(t, int64(10), tr.Cumulative())
	for _, e := range rec.events {
		assert.LessOrEqual(t, e.Cumulative, int64(10))
	}
}

func TestTracker_UnknownTotal(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(transfertypes.UnknownSize, "", rec.emit)

	tr.Observe(1, 1000)
	assert.Equal(t, transfertypes.UnknownSize, rec.events[0].Total)

	tr.SetTotal(1500)
	tr.Observe(2, 500)
	assert.Equal(t, int64(1500), rec.events[1].Total)
	assert.Equal(t, int64(1500), tr.Total())
}

func TestTracker_ConcurrentMonotonic(t *testing.T) {
	const parts = 8
	const length = 1000

	rec := &recorder{}
	tr := NewTracker(parts*length, "", rec.emit)

	var wg sync.WaitGroup
	for p := 1; p <= parts; p++ {
		wg.Add(1)
		go func(part int) {
			defer wg.Done()
			for pos := int64(100); pos <= length; pos += 100 {
				tr.Observe(part, pos)
				if pos == 500 && part%2 == 0 {
					tr.Retry(part)
				}
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, int64(parts*length), tr.Cumulative())
	var last int64
	for _, e := range rec.events {
		assert.GreaterOrEqual(t, e.Cumulative, last)
		last = e.Cumulative
	}
}
