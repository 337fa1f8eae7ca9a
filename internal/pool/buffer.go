package pool

import (
	"sync"
)

// CopyBufferSize is the size of buffers handed out by GetCopyBuffer (64KB).
const CopyBufferSize = 64 * 1024

// PartPool manages reusable buffers, keyed by exact size.
type PartPool struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

// NewPartPool creates an empty pool.
func NewPartPool() *PartPool {
	return &PartPool{pools: make(map[int]*sync.Pool)}
}

func (p *PartPool) poolFor(size int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	sp, ok := p.pools[size]
	if !ok {
		sp = &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		}
		p.pools[size] = sp
	}
	return sp
}

// Get returns a buffer of length size.
// The caller is responsible for calling Put to return the buffer to the pool.
func (p *PartPool) Get(size int) []byte {
	if size <= 0 {
		return []byte{}
	}
	bufPtr := p.poolFor(size).Get().(*[]byte)
	return (*bufPtr)[:size]
}

// Put returns a buffer obtained from Get. Zero-capacity buffers are dropped.
func (p *PartPool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	p.poolFor(cap(buf)).Put(&buf)
}

var copyBuffers = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, CopyBufferSize)
		return &buf
	},
}

// GetCopyBuffer returns a buffer for io.CopyBuffer.
func GetCopyBuffer() []byte {
	return *copyBuffers.Get().(*[]byte)
}

// PutCopyBuffer returns a buffer obtained from GetCopyBuffer.
func PutCopyBuffer(buf []byte) {
	if cap(buf) != CopyBufferSize {
		return
	}
	buf = buf[:CopyBufferSize]
	copyBuffers.Put(&buf)
}
