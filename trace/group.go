package trace

import "math"

// Group is an ordered collection of traces that joins contiguous segments
// of the same channel as they are added.
//
// A negative time tolerance selects the default of half a sample period, a
// negative rate tolerance selects the default relative tolerance of 0.0001.
//
// Note: Group is NOT thread-safe.
type Group struct {
	traces  []*Trace
	timeTol float64 // seconds
	rateTol float64 // Hz
}

// NewGroup creates an empty group with the given tolerances.
func NewGroup(timeTol, rateTol float64) *Group {
	return &Group{
		traces:  make([]*Trace, 0, 16),
		timeTol: timeTol,
		rateTol: rateTol,
	}
}

// Add merges seg into an adjacent trace of the same channel, or appends it
// as a new trace. The group takes ownership of seg.
func (g *Group) Add(seg *Trace) {
	for _, t := range g.traces {
		if !g.compatible(t, seg) {
			continue
		}

		delta := Period(t.SampleRate)
		tol := g.tolerance(delta)

		// seg follows t
		if gap := float64(seg.Start - t.End); math.Abs(gap-delta) <= tol {
			t.Data = append(t.Data[:t.SampleCount*int64(t.SampleType.Size())], seg.Data...)
			t.SampleCount += seg.SampleCount
			t.End = seg.End

			return
		}

		// seg precedes t
		if gap := float64(t.Start - seg.End); math.Abs(gap-delta) <= tol {
			data := make([]byte, 0, len(seg.Data)+len(t.Data))
			data = append(data, seg.Data...)
			data = append(data, t.Data...)
			t.Data = data
			t.SampleCount += seg.SampleCount
			t.Start = seg.Start

			return
		}
	}

	g.traces = append(g.traces, seg)
}

// Traces returns the traces in discovery order.
func (g *Group) Traces() []*Trace {
	return g.traces
}

// Len returns the number of traces in the group.
func (g *Group) Len() int {
	return len(g.traces)
}

// Reset empties the group, keeping its tolerances.
func (g *Group) Reset() {
	clear(g.traces)
	g.traces = g.traces[:0]
}

func (g *Group) compatible(a, b *Trace) bool {
	return a.SourceID == b.SourceID &&
		a.SampleType == b.SampleType &&
		a.SampleType.Valid() &&
		a.SampleRate != 0 &&
		g.rateTolerable(a.SampleRate, b.SampleRate)
}

func (g *Group) rateTolerable(a, b float64) bool {
	if g.rateTol < 0 {
		return math.Abs(1.0-(a/b)) < 0.0001
	}

	return math.Abs(a-b) <= g.rateTol
}

// tolerance returns the time tolerance in ticks.
func (g *Group) tolerance(delta float64) float64 {
	if g.timeTol < 0 {
		return delta * 0.5
	}

	return g.timeTol * HPTModulus
}
