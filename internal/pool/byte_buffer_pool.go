package pool

import "sync"

const (
	// DecodeBufferDefaultSize is the default capacity of a pooled decode buffer.
	DecodeBufferDefaultSize = 1024 * 1024 // 1MiB
	// DecodeBufferMaxThreshold is the largest buffer returned to the pool.
	// Oversized buffers from unusually large covering decodes are dropped.
	DecodeBufferMaxThreshold = 1024 * 1024 * 64 // 64MiB
)

// ByteBuffer is a reusable byte slice wrapper handed out by the decode
// buffer pool.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, capacity),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// SetLength sets the length of the buffer to n, reallocating if the current
// capacity is insufficient. The first min(n, len) bytes are preserved.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 {
		panic("SetLength: negative length")
	}
	if n <= cap(bb.B) {
		bb.B = bb.B[:n]
		return
	}

	grown := make([]byte, n)
	copy(grown, bb.B)
	bb.B = grown
}

var decodeBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(DecodeBufferDefaultSize)
	},
}

// GetDecodeBuffer returns a pooled buffer with length n and undefined contents.
//
// The buffer must be returned with PutDecodeBuffer once the covering decode
// has been scattered to its member outputs.
func GetDecodeBuffer(n int) *ByteBuffer {
	bb, _ := decodeBufferPool.Get().(*ByteBuffer)
	bb.SetLength(n)

	return bb
}

// PutDecodeBuffer returns a buffer to the pool. Buffers that grew past
// DecodeBufferMaxThreshold are dropped to bound pool memory.
func PutDecodeBuffer(bb *ByteBuffer) {
	if bb == nil || bb.Cap() > DecodeBufferMaxThreshold {
		return
	}
	bb.Reset()
	decodeBufferPool.Put(bb)
}
