//go:build cgo && gozstd

package compress

import (
	"io"

	"github.com/valyala/gozstd"
)

const gozstdLevel = 3

type gozstdWriter struct {
	*gozstd.Writer
}

// Close finishes the frame and releases the C encoder.
func (w gozstdWriter) Close() error {
	err := w.Writer.Close()
	w.Release()

	return err
}

type gozstdReader struct {
	*gozstd.Reader
}

func (r gozstdReader) Close() error {
	r.Release()
	return nil
}

// NewWriter returns a libzstd stream encoder writing to w.
func (c ZstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gozstdWriter{gozstd.NewWriterLevel(w, gozstdLevel)}, nil
}

// NewReader returns a libzstd stream decoder reading from r.
func (c ZstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gozstdReader{gozstd.NewReader(r)}, nil
}
