package compress

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/arloliu/tsascii/format"
)

// Codec creates streaming compressors and decompressors for one algorithm.
type Codec interface {
	// Type returns the compression algorithm.
	Type() format.CompressionType

	// Extension returns the conventional file suffix including the dot, or
	// "" for no compression.
	Extension() string

	// NewWriter returns a writer that compresses into w.
	//
	// Close flushes any buffered data and finishes the stream. It does not
	// close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)

	// NewReader returns a reader that decompresses r.
	//
	// Close releases decoder resources. It does not close r.
	NewReader(r io.Reader) (io.ReadCloser, error)
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCodec(),
	format.CompressionZstd: NewZstdCodec(),
	format.CompressionS2:   NewS2Codec(),
	format.CompressionLZ4:  NewLZ4Codec(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// DetectByExtension returns the compression implied by the suffix of path.
// Unknown or missing suffixes map to format.CompressionNone.
func DetectByExtension(path string) format.CompressionType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return format.CompressionZstd
	case ".s2":
		return format.CompressionS2
	case ".lz4":
		return format.CompressionLZ4
	default:
		return format.CompressionNone
	}
}

// NewWriter wraps w with the compressor for compressionType.
func NewWriter(compressionType format.CompressionType, w io.Writer) (io.WriteCloser, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	return codec.NewWriter(w)
}

// NewReader wraps r with the decompressor for compressionType.
func NewReader(compressionType format.CompressionType, r io.Reader) (io.ReadCloser, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	return codec.NewReader(r)
}
