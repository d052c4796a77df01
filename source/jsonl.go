// Package source reads traces for the command line tool.
//
// Decoding binary waveform formats is outside tsascii. Traces arrive as
// JSON-lines documents, one trace per line, optionally compressed:
//
//	{"net":"IU","sta":"ANMO","loc":"00","chan":"BHZ","quality":"D",
//	 "start":"2020-01-01T00:00:00","rate":20,"type":"i","samples":[1,2,3]}
//
// ASCII traces carry their payload as a string in "samples". An optional
// "end" field overrides the end time derived from start, rate and count.
package source

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/arloliu/tsascii/compress"
	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/format"
	"github.com/arloliu/tsascii/trace"
)

// Stdin is the input path that selects standard input.
const Stdin = "-"

// maxDocumentSize bounds a single JSON line.
const maxDocumentSize = 512 * 1024 * 1024

// Document is the JSON form of one trace.
type Document struct {
	Network  string          `json:"net"`
	Station  string          `json:"sta"`
	Location string          `json:"loc"`
	Channel  string          `json:"chan"`
	Quality  string          `json:"quality,omitempty"`
	Start    string          `json:"start"`
	End      string          `json:"end,omitempty"`
	Rate     float64         `json:"rate"`
	Type     string          `json:"type"`
	Samples  json.RawMessage `json:"samples"`
}

// Trace converts the document into a trace.
//
// A type tag outside i, f, d and a still yields a trace, carrying the tag and
// no sample buffer, so that the renderer can reject it.
func (d *Document) Trace() (*trace.Trace, error) {
	if len(d.Type) != 1 {
		return nil, fmt.Errorf("%w: sample type %q", errs.ErrMalformedTrace, d.Type)
	}
	if len(d.Quality) > 1 {
		return nil, fmt.Errorf("%w: quality %q", errs.ErrMalformedTrace, d.Quality)
	}

	start, err := trace.ParseHPTime(d.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: start: %w", errs.ErrMalformedTrace, err)
	}

	id := trace.SourceID{
		Network:  d.Network,
		Station:  d.Station,
		Location: d.Location,
		Channel:  d.Channel,
	}
	if d.Quality != "" {
		id.Quality = d.Quality[0]
	}

	st := format.SampleType(d.Type[0])
	var t *trace.Trace
	switch st {
	case format.SampleInt32:
		var v []int32
		err = unmarshalSamples(d.Samples, &v)
		t = trace.NewInt32(id, start, d.Rate, v)
	case format.SampleFloat32:
		var v []float32
		err = unmarshalSamples(d.Samples, &v)
		t = trace.NewFloat32(id, start, d.Rate, v)
	case format.SampleFloat64:
		var v []float64
		err = unmarshalSamples(d.Samples, &v)
		t = trace.NewFloat64(id, start, d.Rate, v)
	case format.SampleASCII:
		var v string
		err = unmarshalSamples(d.Samples, &v)
		t = trace.NewASCII(id, start, d.Rate, v)
	default:
		var v []json.RawMessage
		err = unmarshalSamples(d.Samples, &v)
		t = trace.New(id, start, d.Rate, st, int64(len(v)), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: samples: %w", errs.ErrMalformedTrace, err)
	}

	if d.End != "" {
		end, err := trace.ParseHPTime(d.End)
		if err != nil {
			return nil, fmt.Errorf("%w: end: %w", errs.ErrMalformedTrace, err)
		}
		t.End = end
	}

	return t, nil
}

func unmarshalSamples(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}

	return json.Unmarshal(raw, v)
}

// Reader decodes traces from a JSON-lines stream.
type Reader struct {
	name    string
	file    io.Closer
	zr      io.ReadCloser
	scanner *bufio.Scanner
	line    int
}

// NewReader reads documents from r. name labels error messages.
func NewReader(r io.Reader, name string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDocumentSize)

	return &Reader{name: name, scanner: scanner}
}

// Open opens path, or standard input for Stdin, and decompresses it according
// to its extension. Failures wrap errs.ErrInputRead.
func Open(path string) (*Reader, error) {
	var f *os.File
	if path == Stdin {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrInputRead, err)
		}
	}

	zr, err := compress.NewReader(compress.DetectByExtension(path), f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrInputRead, path, err)
	}

	r := NewReader(zr, path)
	r.zr = zr
	if f != os.Stdin {
		r.file = f
	}

	return r, nil
}

// Next returns the next trace, or io.EOF after the last one.
//
// A document that cannot be decoded returns an error wrapping
// errs.ErrMalformedTrace; the following call continues with the next line.
// Any other error is terminal.
func (r *Reader) Next() (*trace.Trace, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()
		if isBlank(line) {
			continue
		}

		var doc Document
		if err := json.Unmarshal(line, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %w", errs.ErrMalformedTrace, r.name, r.line, err)
		}

		t, err := doc.Trace()
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", r.name, r.line, err)
		}

		return t, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrInputRead, r.name, err)
	}

	return nil, io.EOF
}

// Close releases the decompressor and closes the underlying file.
func (r *Reader) Close() error {
	var err error
	if r.zr != nil {
		err = r.zr.Close()
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// ReadFile returns every decodable trace in path. Malformed documents are
// logged and skipped.
func ReadFile(path string, logger *slog.Logger) ([]*trace.Trace, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var traces []*trace.Trace
	for {
		t, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, errs.ErrMalformedTrace) {
				logger.Error("skipping trace document", slog.Any("error", err))
				continue
			}

			return traces, err
		}
		traces = append(traces, t)
	}

	logger.Debug("read input", slog.String("path", path), slog.Int("traces", len(traces)))

	return traces, nil
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}

	return true
}
