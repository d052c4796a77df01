// Package output routes rendered text to the run's destinations.
//
// Exactly one policy is active per run:
//   - per-trace: each trace gets a fresh file in the output directory, closed
//     as soon as the trace is rendered;
//   - shared and/or archive: every trace is appended to one shared file,
//     written as its own ZIP entry, or both. Shared and archive sinks stay open
//     until Close.
//
// A Multiplexer is driven by one goroutine: Begin, any number of Write calls,
// then End, once per trace.
package output

import (
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/arloliu/tsascii/compress"
	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/format"
	"github.com/arloliu/tsascii/internal/collision"
	ihash "github.com/arloliu/tsascii/internal/hash"
	"github.com/arloliu/tsascii/internal/options"
)

// Stdout is the path that selects standard output for the shared file or
// the archive.
const Stdout = "-"

// Policy identifies the destination policy of a run.
type Policy uint8

const (
	PolicyPerTrace Policy = iota + 1 // PolicyPerTrace writes one file per trace.
	PolicyShared                     // PolicyShared appends to a shared file and/or archive.
)

func (p Policy) String() string {
	switch p {
	case PolicyPerTrace:
		return "per-trace"
	case PolicyShared:
		return "shared"
	default:
		return "unknown"
	}
}

// Entry describes one finished trace output.
type Entry struct {
	Name    string
	Samples int64
	Bytes   int64
	Digest  uint64
	Failed  bool
}

// Multiplexer fans rendered chunks out to every active sink.
//
// Note: Multiplexer is NOT thread-safe.
type Multiplexer struct {
	dir string

	sharedPath        string
	sharedCompression format.CompressionType
	sharedFile        *os.File
	shared            io.WriteCloser // compressing writer over sharedFile

	archivePath   string
	archiveMethod format.ArchiveMethod
	archiveLevel  int
	archiveFile   *os.File
	archive       *zip.Writer

	logger  *slog.Logger
	tracker *collision.Tracker
	entries []Entry

	// current trace
	name    string
	file    *os.File
	sinks   []io.Writer
	digest  hash.Hash64
	written int64
	failed  bool
	open    bool
}

// Option configures a Multiplexer.
type Option = options.Option[*Multiplexer]

// WithOutputDir sets the directory for per-trace files.
func WithOutputDir(dir string) Option {
	return options.NoError(func(m *Multiplexer) {
		m.dir = dir
	})
}

// WithSharedFile appends every trace to path, or to standard output when path
// is Stdout, compressed with ct.
func WithSharedFile(path string, ct format.CompressionType) Option {
	return options.New(func(m *Multiplexer) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err)
		}
		m.sharedPath = path
		m.sharedCompression = ct

		return nil
	})
}

// WithArchive writes every trace as an entry of the ZIP archive at path, or
// to standard output when path is Stdout.
func WithArchive(path string, method format.ArchiveMethod) Option {
	return options.New(func(m *Multiplexer) error {
		switch method {
		case format.ArchiveStore, format.ArchiveDeflate:
		default:
			return fmt.Errorf("%w: archive method %s", errs.ErrInvalidConfig, method)
		}
		m.archivePath = path
		m.archiveMethod = method

		return nil
	})
}

// WithDeflateLevel sets the flate level used for deflated archive entries.
func WithDeflateLevel(level int) Option {
	return options.New(func(m *Multiplexer) error {
		if level < flate.HuffmanOnly || level > flate.BestCompression {
			return fmt.Errorf("%w: deflate level %d", errs.ErrInvalidConfig, level)
		}
		m.archiveLevel = level

		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(m *Multiplexer) {
		if logger != nil {
			m.logger = logger
		}
	})
}

// New creates a Multiplexer and opens the shared file and archive, if
// configured. Open failures wrap errs.ErrSinkOpen.
func New(opts ...Option) (*Multiplexer, error) {
	m := &Multiplexer{
		dir:          ".",
		archiveLevel: flate.BestSpeed,
		logger:       slog.Default(),
		tracker:      collision.NewTracker(),
	}

	if err := options.Apply(m, opts...); err != nil {
		return nil, err
	}

	if m.sharedPath == Stdout && m.archivePath == Stdout {
		return nil, fmt.Errorf("%w: shared file and archive cannot both be standard output", errs.ErrInvalidConfig)
	}

	if err := m.openShared(); err != nil {
		return nil, err
	}
	if err := m.openArchive(); err != nil {
		_ = m.closeShared()
		return nil, err
	}

	return m, nil
}

func openPath(path string) (*os.File, error) {
	if path == Stdout {
		return os.Stdout, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrSinkOpen, err)
	}

	return f, nil
}

func (m *Multiplexer) openShared() error {
	if m.sharedPath == "" {
		return nil
	}

	f, err := openPath(m.sharedPath)
	if err != nil {
		return err
	}

	zw, err := compress.NewWriter(m.sharedCompression, f)
	if err != nil {
		_ = closeFile(f)
		return fmt.Errorf("%w: %w", errs.ErrSinkOpen, err)
	}
	m.sharedFile = f
	m.shared = zw

	m.logger.Info("opened shared output",
		slog.String("path", m.sharedPath),
		slog.String("compression", m.sharedCompression.String()),
	)

	return nil
}

func (m *Multiplexer) openArchive() error {
	if m.archivePath == "" {
		return nil
	}

	f, err := openPath(m.archivePath)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(f)
	level := m.archiveLevel
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	m.archiveFile = f
	m.archive = zw

	m.logger.Info("opened archive",
		slog.String("path", m.archivePath),
		slog.String("method", m.archiveMethod.String()),
	)

	return nil
}

// Policy returns the destination policy of the run.
func (m *Multiplexer) Policy() Policy {
	if m.shared != nil || m.archive != nil {
		return PolicyShared
	}

	return PolicyPerTrace
}

// Begin starts the output of one trace named name. In per-trace mode it
// creates the file; in archive mode it starts a new entry stamped with mod.
//
// Failures wrap errs.ErrSinkOpen and are fatal to the run.
func (m *Multiplexer) Begin(name string, mod time.Time) error {
	if m.open {
		return fmt.Errorf("output %q still open while beginning %q", m.name, name)
	}

	if m.tracker.Track(name) {
		m.logger.Warn("duplicate output name, earlier output is replaced or shadowed", slog.String("name", name))
	}

	m.name = name
	m.sinks = m.sinks[:0]
	m.digest = ihash.NewDigest()
	m.written = 0
	m.failed = false

	if m.Policy() == PolicyPerTrace {
		path := filepath.Join(m.dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("%w: %w", errs.ErrSinkOpen, err)
		}
		m.file = f
		m.sinks = append(m.sinks, f)
	}

	if m.shared != nil {
		m.sinks = append(m.sinks, m.shared)
	}

	if m.archive != nil {
		method := zip.Store
		if m.archiveMethod == format.ArchiveDeflate {
			method = zip.Deflate
		}
		w, err := m.archive.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   method,
			Modified: zipTime(mod),
		})
		if err != nil {
			return fmt.Errorf("%w: archive entry %s: %w", errs.ErrSinkOpen, name, err)
		}
		m.sinks = append(m.sinks, w)
	}

	m.open = true

	return nil
}

// Bounds of the ZIP entry time: the MS-DOS date starts in 1980 and the
// extended timestamp holds unsigned 32-bit Unix seconds.
var (
	zipMinTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	zipMaxTime = time.Unix(math.MaxUint32, 0).UTC()
)

// zipTime clamps mod into the range a ZIP entry header can store.
func zipTime(mod time.Time) time.Time {
	mod = mod.UTC()
	switch {
	case mod.Before(zipMinTime):
		return zipMinTime
	case mod.After(zipMaxTime):
		return zipMaxTime
	default:
		return mod
	}
}

// Write sends p to every active sink.
//
// If any sink fails, the trace is marked failed, errs.ErrSinkWrite is
// returned and every later Write for the same trace fails immediately.
func (m *Multiplexer) Write(p []byte) (int, error) {
	if !m.open {
		return 0, errs.ErrNoEntry
	}
	if m.failed {
		return 0, fmt.Errorf("%w: %s: earlier write failed", errs.ErrSinkWrite, m.name)
	}

	for _, w := range m.sinks {
		if _, err := w.Write(p); err != nil {
			m.failed = true
			return 0, fmt.Errorf("%w: %s: %w", errs.ErrSinkWrite, m.name, err)
		}
	}
	_, _ = m.digest.Write(p)
	m.written += int64(len(p))

	return len(p), nil
}

// End finishes the current trace, recording samples as the number of
// samples rendered. A per-trace file is always closed; when the trace failed
// it is removed as well.
func (m *Multiplexer) End(samples int64) (Entry, error) {
	if !m.open {
		return Entry{}, errs.ErrNoEntry
	}
	m.open = false

	entry := Entry{
		Name:    m.name,
		Samples: samples,
		Bytes:   m.written,
		Digest:  m.digest.Sum64(),
		Failed:  m.failed,
	}
	if entry.Failed {
		entry.Samples = 0
	}

	var err error
	if m.file != nil {
		path := m.file.Name()
		err = m.file.Close()
		m.file = nil
		if err != nil {
			entry.Failed = true
			err = fmt.Errorf("%w: close %s: %w", errs.ErrSinkWrite, path, err)
		}
		if entry.Failed {
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				m.logger.Warn("cannot remove incomplete output", slog.String("path", path), slog.Any("error", rmErr))
			}
		}
	}

	m.entries = append(m.entries, entry)

	return entry, err
}

// Entries returns the finished outputs in order.
func (m *Multiplexer) Entries() []Entry {
	return m.entries
}

// Duplicates returns how many output names were used more than once.
func (m *Multiplexer) Duplicates() int {
	return m.tracker.Duplicates()
}

// SharedPath returns the shared file path, or "".
func (m *Multiplexer) SharedPath() string {
	return m.sharedPath
}

// ArchivePath returns the archive path, or "".
func (m *Multiplexer) ArchivePath() string {
	return m.archivePath
}

// Close finishes the archive and the shared file. It returns the first error.
func (m *Multiplexer) Close() error {
	var firstErr error
	if m.open {
		if _, err := m.End(0); err != nil {
			firstErr = err
		}
	}

	if err := m.closeArchive(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := m.closeShared(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}

func (m *Multiplexer) closeArchive() error {
	if m.archive == nil {
		return nil
	}

	err := m.archive.Close()
	m.archive = nil
	if cerr := closeFile(m.archiveFile); err == nil {
		err = cerr
	}
	m.archiveFile = nil
	if err != nil {
		return fmt.Errorf("close archive %s: %w", m.archivePath, err)
	}

	return nil
}

func (m *Multiplexer) closeShared() error {
	if m.shared == nil {
		return nil
	}

	err := m.shared.Close()
	m.shared = nil
	if cerr := closeFile(m.sharedFile); err == nil {
		err = cerr
	}
	m.sharedFile = nil
	if err != nil {
		return fmt.Errorf("close shared output %s: %w", m.sharedPath, err)
	}

	return nil
}

// closeFile closes f unless it is standard output.
func closeFile(f *os.File) error {
	if f == nil {
		return nil
	}
	if f == os.Stdout {
		return nil
	}

	return f.Close()
}
