// Package scale converts raw sample counts to physical units using a
// metadata scale factor.
package scale

import (
	"github.com/arloliu/tsascii/format"
	"github.com/arloliu/tsascii/metadata"
	"github.com/arloliu/tsascii/trace"
)

// Apply divides every sample of t by rec's scale factor and returns the
// scaled trace together with the units to render.
//
// Integer samples are widened and the result is a float32 trace; float32 and
// float64 traces keep their type. ASCII traces, records without a scale
// factor or scale units, and a nil record leave t unchanged and ok false.
// The input trace is never modified.
func Apply(t *trace.Trace, rec *metadata.Record) (scaled *trace.Trace, units string, ok bool) {
	if rec == nil || !rec.CanScale() {
		return t, "", false
	}

	factor := *rec.ScaleFactor
	n := int(t.SampleCount)

	switch t.SampleType {
	case format.SampleInt32:
		out := make([]float32, n)
		for i := range n {
			out[i] = float32(float64(t.Int32(i)) / factor)
		}

		return t.WithData(format.SampleFloat32, trace.EncodeFloat32(out)), rec.ScaleUnits, true

	case format.SampleFloat32:
		out := make([]float32, n)
		for i := range n {
			out[i] = float32(float64(t.Float32(i)) / factor)
		}

		return t.WithData(format.SampleFloat32, trace.EncodeFloat32(out)), rec.ScaleUnits, true

	case format.SampleFloat64:
		out := make([]float64, n)
		for i := range n {
			out[i] = t.Float64(i) / factor
		}

		return t.WithData(format.SampleFloat64, trace.EncodeFloat64(out)), rec.ScaleUnits, true

	default:
		return t, "", false
	}
}
