// Package metadata parses per-channel station metadata and matches it
// against traces.
//
// A Catalog is an ordered list of Records built once at startup from a file
// and inline lines. Lookup scans in insertion order and returns the first
// record whose source-name pattern and validity window match the trace, so an
// early wildcard record shadows a later, more specific one.
package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/internal/hash"
	"github.com/arloliu/tsascii/internal/options"
	"github.com/arloliu/tsascii/trace"
)

// DefaultCacheSize is the number of lookup results retained by default.
const DefaultCacheSize = 1024

// noMatch is cached for traces without a matching record.
const noMatch = -1

// Catalog is an ordered, append-only collection of metadata records.
//
// Note: Catalog is NOT thread-safe while records are being added. Once
// loading is complete, Lookup may be called from multiple goroutines.
type Catalog struct {
	records   []*Record
	cache     *lru.Cache[uint64, int]
	cacheSize int
	logger    *slog.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption = options.Option[*Catalog]

// WithLogger sets the logger used for advisory diagnostics.
func WithLogger(logger *slog.Logger) CatalogOption {
	return options.NoError(func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithCacheSize sets the number of cached lookup results. Zero disables the cache.
func WithCacheSize(n int) CatalogOption {
	return options.New(func(c *Catalog) error {
		if n < 0 {
			return fmt.Errorf("%w: negative metadata cache size %d", errs.ErrInvalidConfig, n)
		}
		c.cacheSize = n

		return nil
	})
}

// NewCatalog creates an empty catalog.
func NewCatalog(opts ...CatalogOption) (*Catalog, error) {
	c := &Catalog{
		records:   make([]*Record, 0, 16),
		cacheSize: DefaultCacheSize,
		logger:    slog.Default(),
	}

	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	if c.cacheSize > 0 {
		cache, err := lru.New[uint64, int](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create metadata cache: %w", err)
		}
		c.cache = cache
	}

	return c, nil
}

// AddLine parses line and appends the record.
//
// A line with too few delimiters is skipped with a warning and nil is
// returned. A malformed numeric or time field returns an error wrapping
// errs.ErrMalformedField, which is fatal to the run.
func (c *Catalog) AddLine(line string) error {
	rec, err := ParseLine(line)
	if err != nil {
		if errors.Is(err, errs.ErrTooFewFields) {
			c.logger.Warn("skipping metadata line with too few fields", slog.String("line", line))
			return nil
		}

		return err
	}

	if !rec.HasSourceName() {
		c.logger.Warn("metadata line has no source name fields", slog.String("line", line))
	}

	c.records = append(c.records, rec)
	if c.cache != nil {
		c.cache.Purge()
	}

	return nil
}

// Load reads metadata lines from r. Blank lines and lines starting with '#'
// are ignored.
func (c *Catalog) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := c.AddLine(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrListFile, err)
	}

	return nil
}

// LoadFile reads metadata lines from the named file.
//
// A missing file returns an error wrapping errs.ErrListFileNotFound; any other
// open or read failure wraps errs.ErrListFile.
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", errs.ErrListFileNotFound, path)
		}

		return fmt.Errorf("%w: %s: %w", errs.ErrListFile, path, err)
	}
	defer f.Close()

	c.logger.Info("reading metadata", slog.String("path", path))
	if err := c.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}

// Lookup returns the first record matching t, or nil.
func (c *Catalog) Lookup(t *trace.Trace) *Record {
	if len(c.records) == 0 {
		return nil
	}

	var key uint64
	if c.cache != nil {
		key = lookupKey(t)
		if idx, ok := c.cache.Get(key); ok {
			if idx == noMatch {
				return nil
			}

			return c.records[idx]
		}
	}

	idx := noMatch
	for i, rec := range c.records {
		if rec.Matches(t) {
			idx = i
			break
		}
	}

	if c.cache != nil {
		c.cache.Add(key, idx)
	}

	if idx == noMatch {
		return nil
	}

	return c.records[idx]
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

func lookupKey(t *trace.Trace) uint64 {
	return hash.Key(t.Network, t.Station, t.Location, t.Channel,
		strconv.FormatInt(int64(t.Start), 10), strconv.FormatInt(int64(t.End), 10))
}
