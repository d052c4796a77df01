// Package trace defines the merged time-series segments rendered by tsascii.
//
// A Trace is produced by an external waveform decoder: identity codes, start
// and end times in high-precision ticks, a nominal sample rate and a
// contiguous buffer of samples in host byte order. Traces are treated as
// immutable once handed to the rendering pipeline; transformations such as
// scaling return a new Trace that shares the identity but owns its samples.
package trace

import (
	"fmt"
	"math"
	"strconv"

	"github.com/arloliu/tsascii/endian"
	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/format"
)

// DefaultQuality is the data-quality code assumed when a decoder reports none.
const DefaultQuality = 'D'

var engine = endian.GetNativeEngine()

// SourceID identifies the channel a trace belongs to.
type SourceID struct {
	Network  string
	Station  string
	Location string
	Channel  string
	Quality  byte
}

// Name returns NET_STA_LOC_CHAN, followed by _Q when withQuality is set and
// a quality code is present.
func (id SourceID) Name(withQuality bool) string {
	name := id.Network + "_" + id.Station + "_" + id.Location + "_" + id.Channel
	if withQuality && id.Quality != 0 {
		name += "_" + string(id.Quality)
	}

	return name
}

// Dotted returns NET.STA.LOC.CHAN for log messages.
func (id SourceID) Dotted() string {
	return id.Network + "." + id.Station + "." + id.Location + "." + id.Channel
}

// Trace is one contiguous segment of a channel's waveform.
type Trace struct {
	SourceID

	Start       HPTime
	End         HPTime
	SampleRate  float64
	SampleCount int64
	SampleType  format.SampleType
	// Data holds SampleCount elements of SampleType in host byte order.
	Data []byte
}

// HasSignal reports whether the trace carries renderable samples.
func (t *Trace) HasSignal() bool {
	return t.SampleCount > 0 && t.SampleRate != 0
}

// Validate checks the sample type tag and that the buffer covers SampleCount
// elements.
func (t *Trace) Validate() error {
	size := t.SampleType.Size()
	if size == 0 {
		return fmt.Errorf("%w: %q", errs.ErrUnknownSampleType, t.SampleType)
	}
	if int64(len(t.Data)) < t.SampleCount*int64(size) {
		return fmt.Errorf("%w: %d bytes for %d samples of type %s",
			errs.ErrSampleBuffer, len(t.Data), t.SampleCount, t.SampleType)
	}

	return nil
}

// Int32 returns sample i of an integer trace.
func (t *Trace) Int32(i int) int32 {
	return int32(engine.Uint32(t.Data[i*4:]))
}

// Float32 returns sample i of a float32 trace.
func (t *Trace) Float32(i int) float32 {
	return math.Float32frombits(engine.Uint32(t.Data[i*4:]))
}

// Float64 returns sample i of a float64 trace.
func (t *Trace) Float64(i int) float64 {
	return math.Float64frombits(engine.Uint64(t.Data[i*8:]))
}

// Text returns the payload of an ASCII trace.
func (t *Trace) Text() []byte {
	return t.Data[:t.SampleCount]
}

// WithData returns a shallow copy of t carrying a new sample type and buffer.
// The receiver is left untouched.
func (t *Trace) WithData(st format.SampleType, data []byte) *Trace {
	c := *t
	c.SampleType = st
	c.Data = data

	return &c
}

// FileName returns the deterministic output name
// Net.Sta.Loc.Chan.Qual.YYYY-MM-DDTHHMMSS.ffffff.<ext>.
func (t *Trace) FileName(dialect format.HeaderDialect) string {
	st := t.Start.Time()
	buf := make([]byte, 0, 64)
	buf = append(buf, t.Network...)
	buf = append(buf, '.')
	buf = append(buf, t.Station...)
	buf = append(buf, '.')
	buf = append(buf, t.Location...)
	buf = append(buf, '.')
	buf = append(buf, t.Channel...)
	buf = append(buf, '.')
	if t.Quality != 0 {
		buf = append(buf, t.Quality)
	}
	buf = append(buf, '.')
	buf = st.AppendFormat(buf, "2006-01-02T150405")
	buf = append(buf, '.')
	buf = appendPadded(buf, t.Start.Micros(), 6)
	buf = append(buf, '.')
	buf = append(buf, dialect.Extension()...)

	return string(buf)
}

func appendPadded(dst []byte, v, width int) []byte {
	s := strconv.Itoa(v)
	for i := len(s); i < width; i++ {
		dst = append(dst, '0')
	}

	return append(dst, s...)
}

// New builds a trace from already encoded sample bytes. End is derived from
// the start time, rate and sample count.
func New(id SourceID, start HPTime, rate float64, st format.SampleType, count int64, data []byte) *Trace {
	if id.Quality == 0 {
		id.Quality = DefaultQuality
	}

	t := &Trace{
		SourceID:    id,
		Start:       start,
		SampleRate:  rate,
		SampleCount: count,
		SampleType:  st,
		Data:        data,
	}
	t.End = EndTime(start, rate, count)

	return t
}

// EndTime returns the time of the last of count samples starting at start.
func EndTime(start HPTime, rate float64, count int64) HPTime {
	if count <= 1 || rate == 0 {
		return start
	}

	return start + HPTime(float64(count-1)*Period(rate))
}

// NewInt32 builds an integer trace from samples.
func NewInt32(id SourceID, start HPTime, rate float64, samples []int32) *Trace {
	return New(id, start, rate, format.SampleInt32, int64(len(samples)), EncodeInt32(samples))
}

// NewFloat32 builds a float32 trace from samples.
func NewFloat32(id SourceID, start HPTime, rate float64, samples []float32) *Trace {
	return New(id, start, rate, format.SampleFloat32, int64(len(samples)), EncodeFloat32(samples))
}

// NewFloat64 builds a float64 trace from samples.
func NewFloat64(id SourceID, start HPTime, rate float64, samples []float64) *Trace {
	return New(id, start, rate, format.SampleFloat64, int64(len(samples)), EncodeFloat64(samples))
}

// NewASCII builds a text trace.
func NewASCII(id SourceID, start HPTime, rate float64, text string) *Trace {
	return New(id, start, rate, format.SampleASCII, int64(len(text)), []byte(text))
}

// EncodeInt32 lays samples out in host byte order.
func EncodeInt32(samples []int32) []byte {
	buf := make([]byte, 0, len(samples)*4)
	for _, v := range samples {
		buf = engine.AppendUint32(buf, uint32(v))
	}

	return buf
}

// EncodeFloat32 lays samples out in host byte order.
func EncodeFloat32(samples []float32) []byte {
	buf := make([]byte, 0, len(samples)*4)
	for _, v := range samples {
		buf = engine.AppendUint32(buf, math.Float32bits(v))
	}

	return buf
}

// EncodeFloat64 lays samples out in host byte order.
func EncodeFloat64(samples []float64) []byte {
	buf := make([]byte, 0, len(samples)*8)
	for _, v := range samples {
		buf = engine.AppendUint64(buf, math.Float64bits(v))
	}

	return buf
}
