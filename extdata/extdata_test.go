package extdata

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
)

func TestData_GetSet(t *testing.T) {
	d := New()

	_, err := d.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)

	d.Set("upload-id", "abc")
	v, err := d.Get("upload-id")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	d.Set("upload-id", "def")
	v, ok := d.TryGet("upload-id")
	assert.True(t, ok)
	assert.Equal(t, "def", v)
}

func TestData_ZeroValue(t *testing.T) {
	var d Data

	_, ok := d.TryGet("x")
	assert.False(t, ok)
	assert.False(t, d.Remove("x"))
	d.Clear()

	d.Set("x", 1)
	assert.True(t, d.Contains("x"))
	assert.Equal(t, 1, d.Len())
}

func TestData_RemoveAndClear(t *testing.T) {
	d := New()
	d.Set("a", 1)
	d.Set("b", 2)

	assert.True(t, d.Remove("a"))
	assert.False(t, d.Remove("a"))
	assert.False(t, d.Contains("a"))
	assert.True(t, d.Contains("b"))

	d.Clear()
	assert.Equal(t, 0, d.Len())
	assert.False(t, d.Contains("b"))
}

func TestData_Clone(t *testing.T) {
	d := New()
	d.Set("a", 1)

	c := d.Clone()
	c.Set("b", 2)
	d.Set("a", 3)

	v, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, d.Contains("b"))

	var nilData *Data
	assert.Equal(t, 0, nilData.Clone().Len())
}

func TestLookup(t *testing.T) {
	d := New()
	d.Set("count", 42)

	n, ok := Lookup[int](d, "count")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = Lookup[string](d, "count")
	assert.False(t, ok)

	_, ok = Lookup[int](nil, "count")
	assert.False(t, ok)
}

func TestData_ConcurrentAccess(t *testing.T) {
	d := New()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k-%d-%d", i, j%10)
				d.Set(key, j)
				_, _ = d.TryGet(key)
				_ = d.Contains(key)
				if j%7 == 0 {
					d.Remove(key)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, d.Len(), 16*10)
}
