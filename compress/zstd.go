package compress

import "github.com/arloliu/tsascii/format"

// ZstdCodec streams Zstandard frames.
//
// The implementation is chosen at build time: klauspost/compress/zstd by
// default, or the libzstd bindings of valyala/gozstd when built with cgo and
// the gozstd tag.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new Zstd codec with default settings.
//
// Example:
//
//	codec := NewZstdCodec()
//	zw, err := codec.NewWriter(file)
//	if err != nil {
//		return err
//	}
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}

func (c ZstdCodec) Type() format.CompressionType { return format.CompressionZstd }

func (c ZstdCodec) Extension() string { return ".zst" }
