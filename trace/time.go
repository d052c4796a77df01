package trace

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// HPTModulus is the number of high-precision ticks per second.
const HPTModulus = 1_000_000_000

// HPTime is a high-precision timestamp in nanoseconds since the Unix epoch.
type HPTime int64

const isoLayout = "2006-01-02T15:04:05.000000"

// FromTime converts t to an HPTime.
func FromTime(t time.Time) HPTime {
	return HPTime(t.UnixNano())
}

// Time returns t as a UTC time.Time.
func (t HPTime) Time() time.Time {
	return time.Unix(0, int64(t)).UTC()
}

// ISOString returns t as YYYY-MM-DDTHH:MM:SS.ffffff without a zone suffix.
// Sub-microsecond ticks are truncated.
func (t HPTime) ISOString() string {
	return t.Time().Format(isoLayout)
}

// AppendISO appends the ISOString form of t to dst.
func (t HPTime) AppendISO(dst []byte) []byte {
	return t.Time().AppendFormat(dst, isoLayout)
}

// Micros returns the sub-second remainder of t in microseconds.
func (t HPTime) Micros() int {
	rem := int64(t) % HPTModulus
	if rem < 0 {
		rem += HPTModulus
	}

	return int(rem / 1000)
}

// Seconds returns t in seconds since the epoch.
func (t HPTime) Seconds() float64 {
	return float64(t) / HPTModulus
}

// Add returns t shifted by secs seconds, truncated to whole ticks.
func (t HPTime) Add(secs float64) HPTime {
	return t + HPTime(secs*HPTModulus)
}

// Period returns the duration of one sample at rate in ticks, or 0 for a
// zero rate.
func Period(rate float64) float64 {
	if rate == 0 {
		return 0
	}

	return HPTModulus / rate
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006,002,15:04:05.999999999",
	"2006,002,15:04:05",
	"2006,002",
}

// ParseHPTime parses an ISO-like or SEED ordinal (YYYY,DDD,HH:MM:SS) time
// string. A trailing Z is accepted and the time is always taken as UTC.
func ParseHPTime(s string) (HPTime, error) {
	v := strings.TrimSuffix(strings.TrimSpace(s), "Z")
	if v == "" {
		return 0, fmt.Errorf("empty time string")
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return FromTime(t), nil
		}
	}

	return 0, fmt.Errorf("unrecognized time string %q", s)
}

// Infinite bounds used for open-ended time windows.
const (
	MinHPTime HPTime = math.MinInt64
	MaxHPTime HPTime = math.MaxInt64
)
