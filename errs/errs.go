// Package errs defines the sentinel errors shared by the tsascii packages.
//
// Errors fall into three classes. Fatal errors abort the whole run, per-trace
// errors abort only the rendering of the current trace, and advisory errors
// are logged and never stop processing. Callers wrap sentinels with
// fmt.Errorf("...: %w", err) and classify them with errors.Is or IsFatal.
package errs

import "errors"

// Fatal configuration and resource errors.
var (
	// ErrMalformedField is returned when a numeric or time field of a metadata line cannot be parsed.
	ErrMalformedField = errors.New("malformed metadata field")
	// ErrSinkOpen is returned when an output file, shared file or archive cannot be opened.
	ErrSinkOpen = errors.New("cannot open output sink")
	// ErrListFile is returned when a list file or metadata file exists but cannot be read.
	ErrListFile = errors.New("cannot read list file")
	// ErrInvalidConfig is returned for out-of-range or unknown configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Per-trace errors.
var (
	// ErrUnknownSampleType is returned for a trace whose sample type is not i, f, d or a.
	ErrUnknownSampleType = errors.New("unrecognized sample type")
	// ErrUnknownFormat is returned for an unrecognized header dialect or body layout selector.
	ErrUnknownFormat = errors.New("unrecognized output format")
	// ErrSinkWrite is returned when a rendered chunk cannot be written to every active sink.
	ErrSinkWrite = errors.New("output write failed")
	// ErrSampleBuffer is returned when a trace's sample buffer is shorter than its sample count requires.
	ErrSampleBuffer = errors.New("sample buffer too short")
	// ErrNoEntry is returned when data is written to an archive without an open entry.
	ErrNoEntry = errors.New("no open archive entry")
	// ErrMalformedTrace is returned for an input trace document that cannot be decoded.
	ErrMalformedTrace = errors.New("malformed trace document")
	// ErrInputRead is returned when an input file cannot be opened or read.
	ErrInputRead = errors.New("cannot read input")
)

// Advisory conditions.
var (
	// ErrTooFewFields marks a metadata line with fewer than three delimiters.
	ErrTooFewFields = errors.New("too few metadata fields")
	// ErrRateMismatch marks a trace whose reported and derived sample rates disagree.
	ErrRateMismatch = errors.New("reported sample rate differs from derived rate")
	// ErrListFileNotFound marks a list file that does not exist.
	ErrListFileNotFound = errors.New("list file not found")
)

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMalformedField) ||
		errors.Is(err, ErrSinkOpen) ||
		errors.Is(err, ErrListFile) ||
		errors.Is(err, ErrInvalidConfig)
}
