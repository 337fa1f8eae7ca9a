// Package extdata provides a concurrency-safe bag of opaque values that can be
// attached to a transfer request or command, letting components stash state
// without widening the core types.
package extdata

import (
	"fmt"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
)

// Data maps string keys to opaque values.
// The zero value is ready to use and safe for concurrent access.
type Data struct {
	mu     sync.RWMutex
	values map[string]any
}

// New returns an empty Data.
func New() *Data {
	return &Data{}
}

// Get returns the value stored under key.
// It fails with errors.ErrKeyNotFound when key is absent.
func (d *Data) Get(key string) (any, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.values[key]
	if !ok {
		return nil, fmt.Errorf("extension data %q: %w", key, errors.ErrKeyNotFound)
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (d *Data) Set(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.values == nil {
		d.values = make(map[string]any)
	}
	d.values[key] = value
}

// TryGet returns the value stored under key and whether it was present.
func (d *Data) TryGet(key string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.values[key]
	return v, ok
}

// Contains reports whether key is present.
func (d *Data) Contains(key string) bool {
	_, ok := d.TryGet(key)
	return ok
}

// Remove deletes key and reports whether it was present.
func (d *Data) Remove(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.values[key]; !ok {
		return false
	}
	delete(d.values, key)
	return true
}

// Clear removes every key.
func (d *Data) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	clear(d.values)
}

// Clone returns an independent copy of d. A nil d yields an empty Data.
func (d *Data) Clone() *Data {
	out := New()
	if d == nil {
		return out
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.values) > 0 {
		out.values = make(map[string]any, len(d.values))
		for k, v := range d.values {
			out.values[k] = v
		}
	}
	return out
}

// Len returns the number of stored keys.
func (d *Data) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.values)
}

// Lookup returns the value under key converted to T.
// The second result is false when key is absent or holds another type.
func Lookup[T any](d *Data, key string) (T, bool) {
	var zero T
	if d == nil {
		return zero, false
	}
	v, ok := d.TryGet(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
