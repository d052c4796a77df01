package pool

import (
	"io"
	"math"
	"strconv"
	"sync"
)

const (
	TextBufferDefaultSize  = 1024 * 16  // 16KiB, scratch space for one rendering pass
	TextBufferMaxThreshold = 1024 * 128 // 128KiB
)

// ByteBuffer is an append-only byte slice with helpers for text formatting.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
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

// Available returns the free space left before the buffer must grow.
func (bb *ByteBuffer) Available() int {
	return cap(bb.B) - len(bb.B)
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteString appends s to the buffer.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.B = append(bb.B, s...)
	return len(s), nil
}

// WriteByte appends c to the buffer.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// AppendInt appends the decimal form of v.
func (bb *ByteBuffer) AppendInt(v int64) {
	bb.B = strconv.AppendInt(bb.B, v, 10)
}

// AppendFloat appends v in %g form with prec significant digits. Non-finite
// values are spelled nan, inf and -inf.
func (bb *ByteBuffer) AppendFloat(v float64, prec int) {
	switch {
	case math.IsNaN(v):
		if math.Signbit(v) {
			bb.B = append(bb.B, '-')
		}
		bb.B = append(bb.B, "nan"...)
	case math.IsInf(v, 1):
		bb.B = append(bb.B, "inf"...)
	case math.IsInf(v, -1):
		bb.B = append(bb.B, "-inf"...)
	default:
		bb.B = strconv.AppendFloat(bb.B, v, 'g', prec, 64)
	}
}

// PadTo appends spaces until the bytes written since mark reach width.
func (bb *ByteBuffer) PadTo(mark, width int) {
	for len(bb.B)-mark < width {
		bb.B = append(bb.B, ' ')
	}
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers that grew beyond maxThreshold are dropped instead of being retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var textDefaultPool = NewByteBufferPool(TextBufferDefaultSize, TextBufferMaxThreshold)

// GetTextBuffer retrieves a ByteBuffer from the default text pool.
func GetTextBuffer() *ByteBuffer {
	return textDefaultPool.Get()
}

// PutTextBuffer returns a ByteBuffer to the default text pool.
func PutTextBuffer(bb *ByteBuffer) {
	textDefaultPool.Put(bb)
}
