package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/trace"
)

// Wildcard matches any value in a source-name field.
const Wildcard = "*"

// Field positions in a metadata line.
const (
	fieldNetwork = iota
	fieldStation
	fieldLocation
	fieldChannel
	fieldLatitude
	fieldLongitude
	fieldElevation
	fieldDepth
	fieldAzimuth
	fieldDip
	fieldInstrument
	fieldScale
	fieldScaleFreq
	fieldScaleUnits
	fieldSampleRate
	fieldStart
	fieldEnd
)

// Record holds the channel attributes parsed from one metadata line.
//
// The four source-name fields are always set (possibly empty or Wildcard).
// Every other field is optional: strings are empty and pointers nil when the
// line left them blank.
type Record struct {
	Network  string
	Station  string
	Location string
	Channel  string

	Latitude       string
	Longitude      string
	Elevation      string
	Depth          string
	Azimuth        string
	Dip            *float64 // SEED convention, degrees down from horizontal
	Instrument     string
	ScaleFactor    *float64
	ScaleFrequency string
	ScaleUnits     string
	SampleRate     string
	Start          *trace.HPTime
	End            *trace.HPTime
}

// ParseLine parses a delimited metadata line.
//
// The delimiter is '|' when the line contains a bar and ',' otherwise. Bar
// lines follow the FDSN station text format and carry a SEED dip; comma lines
// carry a SAC inclination, converted here by subtracting 90 degrees.
//
// Lines with fewer than three delimiters return an error wrapping
// errs.ErrTooFewFields. Unparsable dip, scale, start or end fields return an
// error wrapping errs.ErrMalformedField naming the field.
//
//	Net|Sta|Loc|Chan|Lat|Lon|Elev|Depth|Az|Dip|Instrument|Scale|ScaleFreq|ScaleUnits|SampleRate|Start|End
func ParseLine(line string) (*Record, error) {
	delim := ","
	seedDip := false
	if strings.Contains(line, "|") {
		delim = "|"
		seedDip = true
	}

	if strings.Count(line, delim) < 3 {
		return nil, fmt.Errorf("%w: %q", errs.ErrTooFewFields, line)
	}

	fields := strings.Split(line, delim)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	rec := &Record{
		Network:  get(fieldNetwork),
		Station:  get(fieldStation),
		Location: get(fieldLocation),
		Channel:  get(fieldChannel),

		Latitude:       get(fieldLatitude),
		Longitude:      get(fieldLongitude),
		Elevation:      get(fieldElevation),
		Depth:          get(fieldDepth),
		Azimuth:        get(fieldAzimuth),
		Instrument:     get(fieldInstrument),
		ScaleFrequency: get(fieldScaleFreq),
		ScaleUnits:     get(fieldScaleUnits),
		SampleRate:     get(fieldSampleRate),
	}
	if rec.Location == "--" {
		rec.Location = ""
	}

	if s := get(fieldDip); s != "" {
		dip, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot convert dip %q: %w", errs.ErrMalformedField, s, err)
		}
		if !seedDip {
			dip -= 90
		}
		rec.Dip = &dip
	}

	if s := get(fieldScale); s != "" {
		scale, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot convert scale %q: %w", errs.ErrMalformedField, s, err)
		}
		rec.ScaleFactor = &scale
	}

	if s := get(fieldStart); s != "" {
		start, err := trace.ParseHPTime(s)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot convert start time %q: %w", errs.ErrMalformedField, s, err)
		}
		rec.Start = &start
	}

	if s := get(fieldEnd); s != "" {
		end, err := trace.ParseHPTime(s)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot convert end time %q: %w", errs.ErrMalformedField, s, err)
		}
		rec.End = &end
	}

	return rec, nil
}

// HasSourceName reports whether any of network, station, location or
// channel is set.
func (r *Record) HasSourceName() bool {
	return r.Network != "" || r.Station != "" || r.Location != "" || r.Channel != ""
}

// Matches reports whether the record applies to t: every source-name field
// equals the trace's or is a wildcard, and the validity window, open on an
// absent bound, intersects [t.Start, t.End].
func (r *Record) Matches(t *trace.Trace) bool {
	if !fieldMatch(r.Network, t.Network) ||
		!fieldMatch(r.Station, t.Station) ||
		!fieldMatch(r.Location, t.Location) ||
		!fieldMatch(r.Channel, t.Channel) {
		return false
	}

	start, end := trace.MinHPTime, trace.MaxHPTime
	if r.Start != nil {
		start = *r.Start
	}
	if r.End != nil {
		end = *r.End
	}

	return t.End >= start && t.Start <= end
}

// CanScale reports whether the record carries both a non-zero scale factor
// and scale units.
func (r *Record) CanScale() bool {
	return r.ScaleFactor != nil && *r.ScaleFactor != 0 && r.ScaleUnits != ""
}

func fieldMatch(pattern, value string) bool {
	return pattern == Wildcard || pattern == value
}
