// Package stats counts what a conversion run produced.
//
// Counters live in a private Prometheus registry so that several runs in one
// process (tests, library use) never share state. The registry can be
// exported once at the end of the run as a node_exporter textfile.
package stats

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tsascii"

// Skip reasons used as the "reason" label of traces_skipped_total.
const (
	ReasonNoSignal    = "no_signal"
	ReasonSampleType  = "sample_type"
	ReasonFormat      = "format"
	ReasonWrite       = "write"
	ReasonMalformed   = "malformed"
	ReasonInputRead   = "input_read"
	ReasonUnspecified = "other"
)

// Summary is the plain-number view of a run.
type Summary struct {
	Files   int64
	Traces  int64
	Skipped int64
	Samples int64
	Bytes   int64
}

// Recorder accumulates run statistics.
//
// Note: Recorder is NOT thread-safe for Summary bookkeeping; the Prometheus
// collectors themselves are.
type Recorder struct {
	registry *prometheus.Registry
	summary  Summary

	filesRead      prometheus.Counter
	tracesRendered prometheus.Counter
	tracesSkipped  *prometheus.CounterVec
	samplesWritten prometheus.Counter
	bytesWritten   prometheus.Counter
	rateOverrides  prometheus.Counter
	scaledTraces   prometheus.Counter
	renderSeconds  prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		filesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_read_total",
			Help:      "Input files read",
		}),
		tracesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traces_rendered_total",
			Help:      "Traces rendered to at least one sink",
		}),
		tracesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traces_skipped_total",
			Help:      "Traces not rendered by reason",
		}, []string{"reason"}),
		samplesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_written_total",
			Help:      "Samples written across all traces",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Uncompressed text bytes written",
		}),
		rateOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_overrides_total",
			Help:      "Traces whose reported sample rate was replaced by the derived rate",
		}),
		scaledTraces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traces_scaled_total",
			Help:      "Traces converted to physical units",
		}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering one trace",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}

	r.registry.MustRegister(
		r.filesRead,
		r.tracesRendered,
		r.tracesSkipped,
		r.samplesWritten,
		r.bytesWritten,
		r.rateOverrides,
		r.scaledTraces,
		r.renderSeconds,
	)

	return r
}

// Registry returns the registry holding the run's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// FileRead counts one input file.
func (r *Recorder) FileRead() {
	r.summary.Files++
	r.filesRead.Inc()
}

// Rendered counts one successfully rendered trace.
func (r *Recorder) Rendered(samples, bytes int64, elapsed time.Duration) {
	r.summary.Traces++
	r.summary.Samples += samples
	r.summary.Bytes += bytes
	r.tracesRendered.Inc()
	r.samplesWritten.Add(float64(samples))
	r.bytesWritten.Add(float64(bytes))
	r.renderSeconds.Observe(elapsed.Seconds())
}

// Skipped counts one trace that produced no output.
func (r *Recorder) Skipped(reason string) {
	if reason == "" {
		reason = ReasonUnspecified
	}
	r.summary.Skipped++
	r.tracesSkipped.WithLabelValues(reason).Inc()
}

// RateOverridden counts one trace rendered with its derived sample rate.
func (r *Recorder) RateOverridden() {
	r.rateOverrides.Inc()
}

// Scaled counts one trace converted to physical units.
func (r *Recorder) Scaled() {
	r.scaledTraces.Inc()
}

// Summary returns the totals so far.
func (r *Recorder) Summary() Summary {
	return r.summary
}

// WriteTextfile writes the registry in Prometheus text exposition format to
// path, replacing it atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
