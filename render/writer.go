package render

import (
	"io"

	"github.com/arloliu/tsascii/internal/pool"
)

// LowWaterMark is the free space below which the scratch buffer is flushed.
const LowWaterMark = 1024

// textWriter accumulates formatted text in a pooled scratch buffer and
// flushes it to the destination whenever free space drops below the low
// water mark. The first write error is sticky.
type textWriter struct {
	dst      io.Writer
	buf      *pool.ByteBuffer
	lowWater int
	written  int64
	err      error
}

func newTextWriter(dst io.Writer, lowWater int) *textWriter {
	return &textWriter{
		dst:      dst,
		buf:      pool.GetTextBuffer(),
		lowWater: lowWater,
	}
}

// release returns the scratch buffer to the pool. The writer must not be
// used afterwards.
func (tw *textWriter) release() {
	pool.PutTextBuffer(tw.buf)
	tw.buf = nil
}

// check flushes when the buffer is close to full.
func (tw *textWriter) check() error {
	if tw.err != nil {
		return tw.err
	}
	if tw.buf.Available() < tw.lowWater {
		return tw.flush()
	}

	return nil
}

// flush writes any buffered residue to the destination.
func (tw *textWriter) flush() error {
	if tw.err != nil {
		return tw.err
	}
	if tw.buf.Len() == 0 {
		return nil
	}

	n, err := tw.buf.WriteTo(tw.dst)
	tw.written += n
	tw.buf.Reset()
	if err != nil {
		tw.err = err
	}

	return tw.err
}

// raw flushes the buffer and writes p straight to the destination.
func (tw *textWriter) raw(p []byte) error {
	if err := tw.flush(); err != nil {
		return err
	}

	n, err := tw.dst.Write(p)
	tw.written += int64(n)
	if err != nil {
		tw.err = err
	}

	return tw.err
}

func (tw *textWriter) str(s string) {
	_, _ = tw.buf.WriteString(s)
}

func (tw *textWriter) byte(c byte) {
	_ = tw.buf.WriteByte(c)
}
