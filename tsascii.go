// Package tsascii renders seismic time series traces as text.
//
// A trace is one contiguous segment of a channel's waveform: a source
// identifier (network, station, location, channel, quality), a start time, a
// sample rate and a typed sample buffer (int32, float32, float64 or ASCII).
// tsascii writes each trace as plain text in one of two header dialects and
// one of two body layouts:
//
//   - Simple: a single "TIMESERIES ..." header line
//   - GeoCSV: a commented preamble carrying channel metadata
//
// and
//
//   - SLIST: sample values wrapped into a fixed number of columns
//   - TSPAIR: one "time value" pair per line
//
// Rendered traces go to one file per trace, to a shared (optionally
// compressed) file, to a ZIP archive, or to the shared file and the archive
// at once.
//
// # Basic Usage
//
// Rendering a single trace:
//
//	import "github.com/arloliu/tsascii"
//
//	id := trace.SourceID{Network: "IU", Station: "ANMO", Location: "00", Channel: "BHZ"}
//	t := trace.NewInt32(id, trace.FromTime(start), 20, samples)
//
//	err := tsascii.RenderTrace(os.Stdout, t)
//
// Converting JSON-lines input files with a full configuration:
//
//	cfg := tsascii.DefaultConfig()
//	cfg.GeoCSV = true
//	cfg.OutputFile = "all.csv"
//	cfg.Inputs = []string{"day1.jsonl.zst", "day2.jsonl.zst"}
//
//	report, err := tsascii.Convert(ctx, cfg)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the render and
// pipeline packages. For fine-grained control, use those packages directly:
//
//   - trace: trace model, merging of contiguous segments
//   - rate: sample rate reconciliation
//   - metadata: channel metadata catalog
//   - scale: conversion of counts to physical units
//   - render: text rendering
//   - output: per-trace, shared file and archive sinks
//   - source: JSON-lines input and list files
//   - pipeline: the complete conversion
package tsascii

import (
	"context"
	"io"
	"slices"

	"github.com/arloliu/tsascii/format"
	"github.com/arloliu/tsascii/internal/config"
	"github.com/arloliu/tsascii/metadata"
	"github.com/arloliu/tsascii/pipeline"
	"github.com/arloliu/tsascii/render"
	"github.com/arloliu/tsascii/trace"
)

// Config is the configuration of a conversion run.
type Config = config.Config

// Report summarizes a finished conversion run.
type Report = pipeline.Report

var defaultRendererOptions = []render.Option{
	render.WithDialect(format.DialectSimple),
	render.WithLayout(format.LayoutSampleList),
	render.WithColumns(1),
	render.WithUnits(render.DefaultUnits),
}

// DefaultConfig returns the built-in configuration: Simple headers, sample
// list layout with one column, units "Counts" and one output file per trace
// in the working directory.
func DefaultConfig() *Config {
	return config.Default()
}

// NewRenderer creates a renderer with custom options.
//
// Options are applied on top of the defaults (Simple dialect, SLIST layout,
// one column, units "Counts").
//
// Available options:
//   - render.WithDialect(format.DialectSimple|DialectGeoCSV)
//   - render.WithLayout(format.LayoutSampleList|LayoutTimeSamplePair)
//   - render.WithColumns(1..100)
//   - render.WithUnits(units)
//   - render.WithLogger(logger)
//
// Returns an error wrapping errs.ErrInvalidConfig if an option is out of range.
//
// Example:
//
//	r, err := tsascii.NewRenderer(
//	    render.WithLayout(format.LayoutSampleList),
//	    render.WithColumns(6),
//	)
func NewRenderer(opts ...render.Option) (*render.Renderer, error) {
	return render.NewRenderer(slices.Concat(defaultRendererOptions, opts)...)
}

// NewGeoCSVRenderer creates a renderer writing GeoCSV headers with the given
// body layout. GeoCSV output always uses a single sample column.
//
// Example:
//
//	r, err := tsascii.NewGeoCSVRenderer(format.LayoutTimeSamplePair)
//	_, err = r.Render(w, render.Job{Trace: t, Meta: rec})
func NewGeoCSVRenderer(layout format.Layout, opts ...render.Option) (*render.Renderer, error) {
	all := append([]render.Option{
		render.WithDialect(format.DialectGeoCSV),
		render.WithLayout(layout),
	}, opts...)

	return NewRenderer(all...)
}

// RenderTrace writes t to w with the default settings, or with opts applied
// on top of them.
//
// It returns an error wrapping errs.ErrUnknownSampleType or
// errs.ErrSampleBuffer for a trace that cannot be rendered, and
// errs.ErrSinkWrite when w fails.
func RenderTrace(w io.Writer, t *trace.Trace, opts ...render.Option) error {
	r, err := NewRenderer(opts...)
	if err != nil {
		return err
	}

	_, err = r.Render(w, render.Job{Trace: t})

	return err
}

// NewCatalog creates a metadata catalog holding the given lines, in the
// '|' separated FDSN station text layout or the ',' separated layout with
// SAC inclinations.
//
// Lines with too few fields are skipped. A malformed numeric or time field
// returns an error wrapping errs.ErrMalformedField.
//
// Example:
//
//	catalog, err := tsascii.NewCatalog(
//	    "IU|ANMO|00|BHZ|34.9459|-106.4572|1850|100|0|-90|STS-1|3.3e9|0.02|M/S",
//	)
//	rec := catalog.Lookup(t)
func NewCatalog(lines ...string) (*metadata.Catalog, error) {
	catalog, err := metadata.NewCatalog()
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if err := catalog.AddLine(line); err != nil {
			return nil, err
		}
	}

	return catalog, nil
}

// NewPipeline validates cfg and creates a conversion pipeline.
//
// Example:
//
//	p, err := tsascii.NewPipeline(cfg, pipeline.WithLogger(logger))
//	report, err := p.Run(ctx)
func NewPipeline(cfg *Config, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	return pipeline.New(cfg, opts...)
}

// Convert runs a complete conversion of cfg.Inputs.
//
// The returned error is fatal to the run. Inputs or traces that failed
// individually are counted in the Report; see Report.Failed.
func Convert(ctx context.Context, cfg *Config, opts ...pipeline.Option) (Report, error) {
	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		return Report{}, err
	}

	return p.Run(ctx)
}
