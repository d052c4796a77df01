// Package pipeline runs a conversion: it reads input files, merges their
// traces, reconciles sample rates, resolves metadata, optionally scales and
// renders every trace to the configured outputs.
//
// Input files are decoded concurrently up to the configured read-ahead depth,
// but traces are always rendered one at a time in discovery order, so the
// shared file and archive receive the same byte stream as a sequential run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/internal/config"
	"github.com/arloliu/tsascii/internal/options"
	"github.com/arloliu/tsascii/internal/stats"
	"github.com/arloliu/tsascii/internal/upload"
	"github.com/arloliu/tsascii/metadata"
	"github.com/arloliu/tsascii/output"
	"github.com/arloliu/tsascii/rate"
	"github.com/arloliu/tsascii/render"
	"github.com/arloliu/tsascii/scale"
	"github.com/arloliu/tsascii/source"
	"github.com/arloliu/tsascii/trace"
)

// Report summarizes a finished run.
type Report struct {
	stats.Summary

	// InputErrors counts input files that could not be opened or read.
	InputErrors int
	// TraceErrors counts traces rejected or lost to a write failure.
	TraceErrors int
	// Duplicates counts output names produced more than once.
	Duplicates int
	// Uploaded lists the object keys written by the upload step.
	Uploaded []string
}

// Failed reports whether any input or trace failed.
func (r Report) Failed() bool {
	return r.InputErrors > 0 || r.TraceErrors > 0
}

// Pipeline converts traces according to one configuration.
//
// Note: Pipeline is NOT thread-safe; Run must not be called concurrently.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder *stats.Recorder
	renderer *render.Renderer
	catalog  *metadata.Catalog
	uploader *upload.Uploader

	// per run
	mux    *output.Multiplexer
	report Report
}

// Option configures a Pipeline.
type Option = options.Option[*Pipeline]

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	})
}

// WithRecorder sets the statistics recorder.
func WithRecorder(r *stats.Recorder) Option {
	return options.NoError(func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	})
}

// New validates cfg and prepares the renderer, the metadata catalog and the
// uploader. Errors are fatal.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil configuration", errs.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		logger: slog.Default(),
	}
	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}
	if p.recorder == nil {
		p.recorder = stats.NewRecorder()
	}

	layout, err := cfg.LayoutValue()
	if err != nil {
		return nil, err
	}
	p.renderer, err = render.NewRenderer(
		render.WithDialect(cfg.Dialect()),
		render.WithLayout(layout),
		render.WithColumns(cfg.Columns),
		render.WithUnits(cfg.Units),
		render.WithLogger(p.logger),
	)
	if err != nil {
		return nil, err
	}

	if err := p.loadCatalog(); err != nil {
		return nil, err
	}

	if cfg.Upload.Enabled() {
		p.uploader, err = upload.New(cfg.Upload, p.logger)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Pipeline) loadCatalog() error {
	catalog, err := metadata.NewCatalog(metadata.WithLogger(p.logger))
	if err != nil {
		return err
	}

	if p.cfg.MetadataFile != "" {
		if err := catalog.LoadFile(p.cfg.MetadataFile); err != nil {
			if !errors.Is(err, errs.ErrListFileNotFound) {
				return err
			}
			p.logger.Warn("metadata file not found", slog.String("path", p.cfg.MetadataFile))
		}
	}
	for _, line := range p.cfg.MetadataLines {
		if err := catalog.AddLine(line); err != nil {
			return err
		}
	}

	if catalog.Len() > 0 {
		p.logger.Info("loaded metadata", slog.Int("records", catalog.Len()))
	}
	p.catalog = catalog

	return nil
}

// Catalog returns the metadata catalog.
func (p *Pipeline) Catalog() *metadata.Catalog {
	return p.catalog
}

// Recorder returns the statistics recorder.
func (p *Pipeline) Recorder() *stats.Recorder {
	return p.recorder
}

// Run converts every configured input.
//
// The returned error is fatal: a configuration, list file, metadata or sink
// open failure, a failure to finish the shared outputs, or ctx being done.
// Per-file and per-trace failures are logged, counted in the Report and do
// not stop the run.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	p.report = Report{}

	paths, err := source.ExpandArgs(p.cfg.Inputs, p.logger)
	if err != nil {
		return p.report, err
	}
	if len(paths) == 0 {
		return p.report, fmt.Errorf("%w: no input files specified", errs.ErrInvalidConfig)
	}

	p.mux, err = p.openOutputs()
	if err != nil {
		return p.report, err
	}

	runErr := p.process(ctx, paths)

	if err := p.mux.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("%w: %w", errs.ErrSinkWrite, err)
	}
	p.report.Duplicates = p.mux.Duplicates()
	p.report.Summary = p.recorder.Summary()

	p.logger.Info(fmt.Sprintf("Files: %d, Traces: %d, Samples: %d",
		p.report.Files, p.report.Traces, p.report.Samples))

	if err := p.finish(ctx, runErr == nil); err != nil && runErr == nil {
		runErr = err
	}

	return p.report, runErr
}

func (p *Pipeline) openOutputs() (*output.Multiplexer, error) {
	opts := []output.Option{
		output.WithOutputDir(p.cfg.OutputDir),
		output.WithLogger(p.logger),
	}
	if p.cfg.OutputFile != "" {
		ct, err := p.cfg.CompressionValue()
		if err != nil {
			return nil, err
		}
		opts = append(opts, output.WithSharedFile(p.cfg.OutputFile, ct))
	}
	if p.cfg.ArchiveFile != "" {
		method, err := p.cfg.ArchiveMethodValue()
		if err != nil {
			return nil, err
		}
		opts = append(opts, output.WithArchive(p.cfg.ArchiveFile, method))
	}

	return output.New(opts...)
}

func (p *Pipeline) process(ctx context.Context, paths []string) error {
	group := trace.NewGroup(p.cfg.TimeTolerance, p.cfg.RateTolerance)

	fetch, fctx := startPrefetch(ctx, paths, p.cfg.ReadAhead, p.logger)
	defer fetch.Stop()

	for {
		in, ok := fetch.Next(fctx)
		if !ok {
			break
		}

		p.consume(in, group)

		if p.cfg.PerFile {
			if err := p.renderGroup(group); err != nil {
				return err
			}
			group.Reset()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !p.cfg.PerFile {
		return p.renderGroup(group)
	}

	return nil
}

func (p *Pipeline) consume(in input, group *trace.Group) {
	for range in.malformed {
		p.recorder.Skipped(stats.ReasonMalformed)
	}

	if in.err != nil {
		p.report.InputErrors++
		p.recorder.Skipped(stats.ReasonInputRead)
		p.logger.Error("cannot read input", slog.String("path", in.path), slog.Any("error", in.err))
		if len(in.traces) == 0 {
			return
		}
	}

	p.recorder.FileRead()
	p.logger.Debug("read input", slog.String("path", in.path), slog.Int("traces", len(in.traces)))
	for _, t := range in.traces {
		group.Add(t)
	}
}

func (p *Pipeline) renderGroup(group *trace.Group) error {
	for _, t := range group.Traces() {
		if err := p.renderTrace(t); err != nil {
			return err
		}
	}

	return nil
}

// renderTrace runs one trace through reconciliation, metadata lookup,
// scaling and rendering. Only fatal errors are returned.
func (p *Pipeline) renderTrace(t *trace.Trace) error {
	if !t.HasSignal() {
		p.logger.Debug("skipping trace without samples or sample rate", slog.String("source", t.Name(true)))
		p.recorder.Skipped(stats.ReasonNoSignal)

		return nil
	}

	// mismatches are advisory and already logged
	res, _ := rate.Reconcile(t, p.cfg.DeriveRate, p.logger)
	if res.Overridden {
		p.recorder.RateOverridden()
	}

	job := render.Job{Trace: t, Meta: p.catalog.Lookup(t)}
	if p.cfg.Scale {
		if scaled, units, ok := scale.Apply(t, job.Meta); ok {
			job.Trace = scaled
			job.Units = units
			p.recorder.Scaled()
		}
	}

	if err := p.renderer.Check(job.Trace); err != nil {
		p.traceFailed(t, err)
		return nil
	}

	name := p.renderer.FileName(job.Trace)
	if err := p.mux.Begin(name, t.Start.Time()); err != nil {
		return err
	}

	began := time.Now()
	result, renderErr := p.renderer.Render(p.mux, job)
	samples := result.Samples
	if renderErr != nil {
		samples = 0
	}
	entry, endErr := p.mux.End(samples)

	if err := errors.Join(renderErr, endErr); err != nil {
		p.traceFailed(t, err)
		return nil
	}
	p.recorder.Rendered(entry.Samples, entry.Bytes, time.Since(began))

	p.logger.Log(context.Background(), config.LevelNotice,
		fmt.Sprintf("Wrote %d samples from %s to %s", entry.Samples, t.Name(true), p.destination(name)))

	return nil
}

func (p *Pipeline) destination(name string) string {
	if p.mux.Policy() == output.PolicyShared && p.mux.ArchivePath() == "" {
		return p.mux.SharedPath()
	}

	return name
}

func (p *Pipeline) traceFailed(t *trace.Trace, err error) {
	p.report.TraceErrors++
	p.recorder.Skipped(skipReason(err))
	p.logger.Error("cannot render trace",
		slog.String("source", t.Name(true)),
		slog.String("start", t.Start.ISOString()),
		slog.Any("error", err))
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrUnknownSampleType), errors.Is(err, errs.ErrSampleBuffer):
		return stats.ReasonSampleType
	case errors.Is(err, errs.ErrUnknownFormat):
		return stats.ReasonFormat
	case errors.Is(err, errs.ErrSinkWrite):
		return stats.ReasonWrite
	default:
		return stats.ReasonUnspecified
	}
}

// finish writes the manifest and metrics textfile and, after a run without
// fatal errors, uploads the shared outputs.
func (p *Pipeline) finish(ctx context.Context, clean bool) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if p.cfg.ManifestFile != "" {
		keep(output.WriteManifestFile(p.cfg.ManifestFile, p.mux.Entries()))
	}
	if p.cfg.MetricsFile != "" {
		keep(p.recorder.WriteTextfile(p.cfg.MetricsFile))
	}

	if clean && p.uploader != nil {
		var files []string
		for _, path := range []string{p.mux.SharedPath(), p.mux.ArchivePath()} {
			if path != "" && path != output.Stdout {
				files = append(files, path)
			}
		}
		if len(files) > 0 {
			keys, err := p.uploader.Upload(ctx, files...)
			p.report.Uploaded = keys
			keep(err)
		}
	}

	return firstErr
}
