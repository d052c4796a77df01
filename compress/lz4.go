package compress

import (
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/tsascii/format"
)

// LZ4Codec streams LZ4 frames.
type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec creates a new LZ4 codec.
//
// Returns:
//   - LZ4Codec: New LZ4 codec instance
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

func (c LZ4Codec) Type() format.CompressionType { return format.CompressionLZ4 }

func (c LZ4Codec) Extension() string { return ".lz4" }

// NewWriter returns an LZ4 frame writer using the fast compression level.
//
// Close writes the end mark of the frame.
func (c LZ4Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
		return nil, err
	}

	return zw, nil
}

// NewReader returns an LZ4 frame reader.
func (c LZ4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
