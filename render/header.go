package render

import (
	"strconv"

	"github.com/arloliu/tsascii/format"
)

// writeSimpleHeader writes the single TIMESERIES line:
//
//	TIMESERIES IU_ANMO_00_BHZ_D, 3 samples, 20 sps, 2020-01-01T00:00:00.000000, SLIST, INTEGER, Counts
func writeSimpleHeader(tw *textWriter, p plan) {
	t := p.t
	tw.str("TIMESERIES ")
	tw.str(t.Name(true))
	tw.str(", ")
	tw.buf.AppendInt(t.SampleCount)
	tw.str(" samples, ")
	tw.buf.AppendFloat(t.SampleRate, 6)
	tw.str(" sps, ")
	tw.buf.B = t.Start.AppendISO(tw.buf.B)
	tw.str(", ")
	tw.str(p.layout.String())
	tw.str(", ")
	tw.str(t.SampleType.Label())
	tw.str(", ")
	tw.str(p.units)
	tw.byte('\n')
}

// writeGeoCSVHeader writes the commented GeoCSV preamble and the column-name
// line. Optional metadata lines appear only for fields the record carries.
func writeGeoCSVHeader(tw *textWriter, p plan) {
	t := p.t
	tw.str("# dataset: GeoCSV 2.0\n")
	tw.str("# delimiter: ,\n")
	tw.str("# SID: ")
	tw.str(t.Name(false))
	tw.str("\n# sample_count: ")
	tw.buf.AppendInt(t.SampleCount)
	tw.str("\n# sample_rate_hz: ")
	tw.buf.AppendFloat(t.SampleRate, float64Digits)
	tw.str("\n# start_time: ")
	tw.buf.B = t.Start.AppendISO(tw.buf.B)
	tw.str("Z\n")

	if m := p.meta; m != nil {
		geoLine(tw, "latitude_deg", m.Latitude)
		geoLine(tw, "longitude_deg", m.Longitude)
		geoLine(tw, "elevation_m", m.Elevation)
		geoLine(tw, "depth_m", m.Depth)
		geoLine(tw, "azimuth_deg", m.Azimuth)
		if m.Dip != nil {
			geoLine(tw, "dip_deg", strconv.FormatFloat(*m.Dip, 'g', -1, 64))
		}
		geoLine(tw, "instrument", m.Instrument)
		if m.ScaleFactor != nil {
			geoLine(tw, "scale_factor", strconv.FormatFloat(*m.ScaleFactor, 'g', -1, 64))
		}
		geoLine(tw, "scale_frequency_hz", m.ScaleFrequency)
		geoLine(tw, "scale_units", m.ScaleUnits)
	}

	pairs := p.layout == format.LayoutTimeSamplePair
	tw.str("# field_unit: ")
	if pairs {
		tw.str("ISO_8601, ")
	}
	tw.str(p.units)
	tw.str("\n# field_type: ")
	if pairs {
		tw.str("datetime, ")
	}
	tw.str(t.SampleType.FieldType())
	tw.byte('\n')

	if pairs {
		tw.str("Time, Sample\n")
	} else {
		tw.str("Sample\n")
	}
}

func geoLine(tw *textWriter, key, value string) {
	if value == "" {
		return
	}
	tw.str("# ")
	tw.str(key)
	tw.str(": ")
	tw.str(value)
	tw.byte('\n')
}
