// Package bufferpool recycles byte buffers for hot serialization paths.
package bufferpool

import (
	"bytes"
	"sync"
)

// initial capacity of pooled buffers
const initialSize = 1024

var pool = sync.Pool{
	New: func() any {
		return &Buffer{Buffer: bytes.NewBuffer(make([]byte, 0, initialSize))}
	},
}

// Buffer is a pooled bytes.Buffer.
type Buffer struct {
	*bytes.Buffer
}

// Get fetches a reset buffer from the pool.
func Get() *Buffer {
	buf := pool.Get().(*Buffer)
	buf.Reset()
	return buf
}

// Release returns the buffer to the pool. The caller must not touch
// the buffer or its bytes afterwards.
func (b *Buffer) Release() {
	pool.Put(b)
}
