// Package render formats traces as text.
//
// Two header dialects (Simple and GeoCSV) combine with two body layouts
// (SLIST and TSPAIR). Output is accumulated in a pooled scratch buffer and
// flushed to the destination writer whenever free space drops below
// LowWaterMark, so peak memory does not grow with the sample count.
package render

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/format"
	"github.com/arloliu/tsascii/internal/options"
	"github.com/arloliu/tsascii/metadata"
	"github.com/arloliu/tsascii/trace"
)

const (
	// DefaultUnits is the units string used when neither configuration nor
	// metadata provide one.
	DefaultUnits = "Counts"

	// MaxColumns is the largest accepted SLIST column count.
	MaxColumns = 100

	// columnWidth is the minimum width of a non-final SLIST column.
	columnWidth = 10

	float32Digits = 8
	float64Digits = 10
)

// Job is the per-trace input of Render.
type Job struct {
	Trace *trace.Trace
	// Meta is the matching metadata record, or nil.
	Meta *metadata.Record
	// Units overrides the renderer's default units when non-empty.
	Units string
}

// Result reports what Render produced.
type Result struct {
	Samples int64
	Bytes   int64
}

// Renderer writes traces in a fixed dialect and layout.
//
// A Renderer holds no per-trace state and may be reused for any number of
// traces. It is safe for concurrent use as long as each call writes to its
// own destination.
type Renderer struct {
	dialect  format.HeaderDialect
	layout   format.Layout
	columns  int
	units    string
	lowWater int
	logger   *slog.Logger
}

// Option configures a Renderer.
type Option = options.Option[*Renderer]

// WithDialect selects the header dialect.
func WithDialect(d format.HeaderDialect) Option {
	return options.NoError(func(r *Renderer) {
		r.dialect = d
	})
}

// WithLayout selects the body layout.
func WithLayout(l format.Layout) Option {
	return options.NoError(func(r *Renderer) {
		r.layout = l
	})
}

// WithColumns sets the SLIST column count, 1 through MaxColumns.
func WithColumns(n int) Option {
	return options.New(func(r *Renderer) error {
		if n < 1 || n > MaxColumns {
			return fmt.Errorf("%w: column count %d outside 1..%d", errs.ErrInvalidConfig, n, MaxColumns)
		}
		r.columns = n

		return nil
	})
}

// WithUnits sets the default units string.
func WithUnits(units string) Option {
	return options.NoError(func(r *Renderer) {
		if units != "" {
			r.units = units
		}
	})
}

// WithLowWaterMark overrides the free-space threshold that triggers a flush.
func WithLowWaterMark(n int) Option {
	return options.New(func(r *Renderer) error {
		if n <= 0 {
			return fmt.Errorf("%w: low water mark must be positive, got %d", errs.ErrInvalidConfig, n)
		}
		r.lowWater = n

		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	})
}

// NewRenderer creates a renderer. The defaults are the Simple dialect, the
// SLIST layout, one column and "Counts" units.
//
// Dialect and layout selectors are not validated here; an unknown selector
// makes every Render call fail with errs.ErrUnknownFormat.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		dialect:  format.DialectSimple,
		layout:   format.LayoutSampleList,
		columns:  1,
		units:    DefaultUnits,
		lowWater: LowWaterMark,
		logger:   slog.Default(),
	}

	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	return r, nil
}

// Dialect returns the header dialect.
func (r *Renderer) Dialect() format.HeaderDialect {
	return r.dialect
}

// Layout returns the configured body layout.
func (r *Renderer) Layout() format.Layout {
	return r.layout
}

// Columns returns the configured SLIST column count.
func (r *Renderer) Columns() int {
	return r.columns
}

// FileName returns the deterministic output name of t for this dialect.
func (r *Renderer) FileName(t *trace.Trace) string {
	return t.FileName(r.dialect)
}

// Check reports whether t can be rendered. It returns an error wrapping
// errs.ErrUnknownSampleType, errs.ErrSampleBuffer or errs.ErrUnknownFormat.
// Callers run Check before opening any sink so that a rejected trace leaves
// no output behind.
func (r *Renderer) Check(t *trace.Trace) error {
	switch r.dialect {
	case format.DialectSimple, format.DialectGeoCSV:
	default:
		return fmt.Errorf("%w: header dialect %d", errs.ErrUnknownFormat, r.dialect)
	}

	switch r.layout {
	case format.LayoutSampleList, format.LayoutTimeSamplePair:
	default:
		return fmt.Errorf("%w: body layout %d", errs.ErrUnknownFormat, r.layout)
	}

	return t.Validate()
}

// plan holds the per-trace resolved settings.
type plan struct {
	t       *trace.Trace
	meta    *metadata.Record
	units   string
	layout  format.Layout
	columns int
	geo     bool
}

func (r *Renderer) resolve(job Job) plan {
	p := plan{
		t:       job.Trace,
		meta:    job.Meta,
		units:   r.units,
		layout:  r.layout,
		columns: r.columns,
		geo:     r.dialect == format.DialectGeoCSV,
	}
	if job.Units != "" {
		p.units = job.Units
	}
	if p.t.SampleType == format.SampleASCII {
		p.layout = format.LayoutSampleList
	}
	if p.geo {
		p.columns = 1
	}

	return p
}

// Render writes the header and body of job.Trace to w.
//
// Nothing is written when Check fails. A write error aborts the trace; the
// returned Result still counts the bytes that reached w.
func (r *Renderer) Render(w io.Writer, job Job) (Result, error) {
	if job.Trace == nil {
		return Result{}, fmt.Errorf("%w: nil trace", errs.ErrUnknownSampleType)
	}
	if err := r.Check(job.Trace); err != nil {
		return Result{}, err
	}

	p := r.resolve(job)
	tw := newTextWriter(w, r.lowWater)
	defer tw.release()

	if p.geo {
		writeGeoCSVHeader(tw, p)
	} else {
		writeSimpleHeader(tw, p)
	}

	var err error
	switch {
	case p.t.SampleType == format.SampleASCII:
		err = writeText(tw, p)
	case p.layout == format.LayoutTimeSamplePair:
		err = writePairs(tw, p)
	default:
		err = writeList(tw, p)
	}
	if err == nil {
		err = tw.flush()
	}

	res := Result{Bytes: tw.written}
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", errs.ErrSinkWrite, p.t.Dotted(), err)
	}
	res.Samples = p.t.SampleCount

	r.logger.Debug("rendered trace",
		slog.String("source", p.t.Name(true)),
		slog.Int64("samples", res.Samples),
		slog.Int64("bytes", res.Bytes),
		slog.String("layout", p.layout.String()),
	)

	return res, nil
}
