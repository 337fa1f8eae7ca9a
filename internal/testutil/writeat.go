package testutil

import (
	"sync"
)

// WriteAtBuffer is an in-memory io.WriterAt that grows as needed.
type WriteAtBuffer struct {
	mu  sync.Mutex
	buf []byte
}

// WriteAt implements io.WriterAt.
func (w *WriteAtBuffer) WriteAt(p []byte, off int64) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	end := int(off) + len(p)
	if end > len(w.buf) {
		grown := make([]byte, end)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[off:], p)
	return len(p), nil
}

// Bytes returns a copy of the buffer contents.
func (w *WriteAtBuffer) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf...)
}
