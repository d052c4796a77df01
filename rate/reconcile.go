// Package rate reconciles a trace's reported sample rate with the rate
// implied by its start time, end time and sample count.
package rate

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/trace"
)

// Result describes the outcome of a reconciliation.
type Result struct {
	Reported   float64 // rate carried by the trace on entry
	Derived    float64 // (n-1)/elapsed, zero when not computed
	Disagree   bool    // time shift exceeds half a reported sample period
	Overridden bool    // the derived rate replaced the reported one
}

// Rate returns the rate the trace should be rendered with.
func (r Result) Rate() float64 {
	if r.Overridden {
		return r.Derived
	}

	return r.Reported
}

// Check compares the reported rate of t with the rate derived from its time
// span without modifying t.
//
// No check is made when start >= end. A zero reported rate has a zero sample
// period and never disagrees.
func Check(t *trace.Trace) Result {
	res := Result{Reported: t.SampleRate}
	if t.Start >= t.End || t.SampleRate == 0 {
		return res
	}

	elapsed := int64(t.End - t.Start)
	expected := int64(float64(t.SampleCount-1) * trace.HPTModulus / t.SampleRate)
	shift := elapsed - expected
	if shift < 0 {
		shift = -shift
	}
	delta := int64(trace.Period(t.SampleRate))

	res.Derived = float64(t.SampleCount-1) * trace.HPTModulus / float64(elapsed)
	res.Disagree = float64(shift) > float64(delta)*0.5

	return res
}

// Reconcile checks t and, when the rates disagree and derive is set,
// overwrites t.SampleRate with the derived rate. Without derive a
// disagreement is only logged.
//
// The returned error wraps errs.ErrRateMismatch when the rates disagree and
// were not overridden; it is advisory.
func Reconcile(t *trace.Trace, derive bool, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res := Check(t)
	if !res.Disagree {
		return res, nil
	}

	if derive {
		logger.Info("using derived sample rate",
			slog.String("source", t.Dotted()),
			slog.Float64("derived", res.Derived),
			slog.Float64("reported", res.Reported))
		t.SampleRate = res.Derived
		res.Overridden = true

		return res, nil
	}

	logger.Warn("reported sample rate different than derived rate, consider -dr",
		slog.String("source", t.Dotted()),
		slog.Float64("reported", res.Reported),
		slog.Float64("derived", res.Derived))

	return res, fmt.Errorf("%w: [%s] %g versus %g",
		errs.ErrRateMismatch, t.Dotted(), res.Reported, roundRate(res.Derived))
}

func roundRate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
