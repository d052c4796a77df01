package render

import (
	"github.com/arloliu/tsascii/format"
	"github.com/arloliu/tsascii/internal/pool"
	"github.com/arloliu/tsascii/trace"
)

// appendValue formats sample i of t: integers verbatim, float32 with 8 and
// float64 with 10 significant digits in %g form.
func appendValue(buf *pool.ByteBuffer, t *trace.Trace, i int) {
	switch t.SampleType {
	case format.SampleInt32:
		buf.AppendInt(int64(t.Int32(i)))
	case format.SampleFloat32:
		buf.AppendFloat(float64(t.Float32(i)), float32Digits)
	case format.SampleFloat64:
		buf.AppendFloat(t.Float64(i), float64Digits)
	}
}

// writeList writes the SLIST body: values wrapped into p.columns columns.
// Every value except the one in the final column is padded to columnWidth
// and followed by two spaces.
func writeList(tw *textWriter, p plan) error {
	t := p.t
	n := int(t.SampleCount)

	for i := 0; i < n; {
		for col := 1; col <= p.columns && i < n; col++ {
			mark := tw.buf.Len()
			appendValue(tw.buf, t, i)
			if col != p.columns {
				tw.buf.PadTo(mark, columnWidth)
				tw.str("  ")
			}
			i++
		}
		tw.byte('\n')

		if err := tw.check(); err != nil {
			return err
		}
	}

	return nil
}

// writePairs writes the TSPAIR body, one "time<delim> value" line per sample.
// The time of sample i is start + i sample periods, truncated to whole ticks.
func writePairs(tw *textWriter, p plan) error {
	t := p.t
	n := int(t.SampleCount)
	period := trace.Period(t.SampleRate)

	delim := byte(' ')
	if p.geo {
		delim = ','
	}

	for i := 0; i < n; i++ {
		ts := t.Start + trace.HPTime(float64(i)*period)
		tw.buf.B = ts.AppendISO(tw.buf.B)
		if p.geo {
			tw.byte('Z')
		}
		tw.byte(delim)
		tw.byte(' ')
		appendValue(tw.buf, t, i)
		tw.byte('\n')

		if err := tw.check(); err != nil {
			return err
		}
	}

	return nil
}

// writeText writes the payload of an ASCII trace followed by a newline.
func writeText(tw *textWriter, p plan) error {
	if err := tw.raw(p.t.Text()); err != nil {
		return err
	}
	tw.byte('\n')

	return nil
}
