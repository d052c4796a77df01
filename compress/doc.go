// Package compress provides streaming compression for tsascii text output
// and compressed trace inputs.
//
// # Overview
//
// Rendered text is highly repetitive (timestamps, padded columns) and
// compresses well. The shared output file can be wrapped in a compressing
// writer, and the trace source transparently decompresses input documents
// by file extension. Supported algorithms:
//   - None: pass-through
//   - Zstd: best ratio, moderate speed
//   - S2: balanced ratio and speed
//   - LZ4: fastest, lowest ratio
//
// # Architecture
//
// Each algorithm is a Codec that wraps an io.Writer or io.Reader:
//
//	type Codec interface {
//	    Type() format.CompressionType
//	    Extension() string
//	    NewWriter(w io.Writer) (io.WriteCloser, error)
//	    NewReader(r io.Reader) (io.ReadCloser, error)
//	}
//
// Closing a writer returned by NewWriter flushes the compressed stream but
// never closes the underlying writer; the caller owns it.
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	zw, err := codec.NewWriter(file)
//	if err != nil {
//	    return err
//	}
//	defer zw.Close()
//
// # Zstd Implementations
//
// The default build uses the pure Go klauspost/compress/zstd package. Building
// with cgo and the gozstd tag switches to the libzstd bindings from
// valyala/gozstd. Both produce standard zstd frames and interoperate.
//
// # Thread Safety
//
// Codecs are stateless and safe to share. The writers and readers they
// return are not safe for concurrent use.
package compress
