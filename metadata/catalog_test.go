package metadata

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/trace"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, logs *bytes.Buffer, opts ...CatalogOption) *Catalog {
	t.Helper()
	if logs != nil {
		opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(logs, nil))))
	}
	c, err := NewCatalog(opts...)
	require.NoError(t, err)

	return c
}

func tr(net, sta, loc, cha string, start, end trace.HPTime) *trace.Trace {
	return &trace.Trace{
		SourceID: trace.SourceID{Network: net, Station: sta, Location: loc, Channel: cha, Quality: 'D'},
		Start:    start,
		End:      end,
	}
}

func TestParseLine(t *testing.T) {
	t.Run("bar delimited keeps SEED dip", func(t *testing.T) {
		rec, err := ParseLine("IU|ANMO|00|BHZ|34.9459|-106.4572|1850|100|0|-90|Streckeisen STS-1|3.3e9|0.02|M/S|20|2008-06-30T20:00:00|")
		require.NoError(t, err)
		require.Equal(t, "IU", rec.Network)
		require.Equal(t, "00", rec.Location)
		require.Equal(t, "34.9459", rec.Latitude)
		require.Equal(t, "1850", rec.Elevation)
		require.NotNil(t, rec.Dip)
		require.Equal(t, -90.0, *rec.Dip)
		require.Equal(t, "Streckeisen STS-1", rec.Instrument)
		require.NotNil(t, rec.ScaleFactor)
		require.Equal(t, 3.3e9, *rec.ScaleFactor)
		require.Equal(t, "0.02", rec.ScaleFrequency)
		require.Equal(t, "M/S", rec.ScaleUnits)
		require.Equal(t, "20", rec.SampleRate)
		require.NotNil(t, rec.Start)
		require.Nil(t, rec.End)
	})

	t.Run("comma delimited converts SAC inclination", func(t *testing.T) {
		rec, err := ParseLine("XX,ABC,--,BHZ,,,,,,90")
		require.NoError(t, err)
		require.Empty(t, rec.Location)
		require.NotNil(t, rec.Dip)
		require.Equal(t, 0.0, *rec.Dip)
		require.Empty(t, rec.Latitude)
		require.Nil(t, rec.ScaleFactor)
	})

	t.Run("bar delimited dip zero unchanged", func(t *testing.T) {
		rec, err := ParseLine("XX|ABC||BHN|||||90|0")
		require.NoError(t, err)
		require.Equal(t, 0.0, *rec.Dip)
		require.Equal(t, "90", rec.Azimuth)
	})

	t.Run("minimal line", func(t *testing.T) {
		rec, err := ParseLine("XX,ABC,,BHZ")
		require.NoError(t, err)
		require.Equal(t, "BHZ", rec.Channel)
		require.Nil(t, rec.Dip)
		require.Nil(t, rec.Start)
		require.False(t, rec.CanScale())
	})

	t.Run("too few delimiters", func(t *testing.T) {
		_, err := ParseLine("XX,ABC,BHZ")
		require.ErrorIs(t, err, errs.ErrTooFewFields)
		require.False(t, errs.IsFatal(err))
	})

	t.Run("malformed fields are fatal", func(t *testing.T) {
		for field, line := range map[string]string{
			"dip":   "XX|ABC||BHZ||||||down",
			"scale": "XX|ABC||BHZ|||||||inst|big",
			"start": "XX|ABC||BHZ||||||||||||someday",
			"end":   "XX|ABC||BHZ||||||||||||2020-01-01|never",
		} {
			_, err := ParseLine(line)
			require.ErrorIs(t, err, errs.ErrMalformedField, field)
			require.True(t, errs.IsFatal(err), field)
			require.Contains(t, err.Error(), field)
		}
	})

	t.Run("can scale", func(t *testing.T) {
		rec, err := ParseLine("XX|ABC||BHZ|||||||inst|10|1|M/S")
		require.NoError(t, err)
		require.True(t, rec.CanScale())

		rec, err = ParseLine("XX|ABC||BHZ|||||||inst|10|1|")
		require.NoError(t, err)
		require.False(t, rec.CanScale())

		rec, err = ParseLine("XX|ABC||BHZ|||||||inst|0|1|M/S")
		require.NoError(t, err)
		require.False(t, rec.CanScale())
	})
}

func TestRecord_Matches(t *testing.T) {
	rec, err := ParseLine("XX,*,*,BHZ")
	require.NoError(t, err)

	require.True(t, rec.Matches(tr("XX", "ABC", "", "BHZ", 0, 10)))
	require.False(t, rec.Matches(tr("XX", "ABC", "", "BHN", 0, 10)))
	require.False(t, rec.Matches(tr("YY", "ABC", "", "BHZ", 0, 10)))

	t.Run("time window", func(t *testing.T) {
		rec, err := ParseLine("XX|ABC||BHZ||||||||||||2020-01-01T00:00:00|2020-01-02T00:00:00")
		require.NoError(t, err)
		day, err := trace.ParseHPTime("2020-01-01T12:00:00")
		require.NoError(t, err)
		before, err := trace.ParseHPTime("2019-12-31T00:00:00")
		require.NoError(t, err)
		after, err := trace.ParseHPTime("2020-01-03T00:00:00")
		require.NoError(t, err)

		require.True(t, rec.Matches(tr("XX", "ABC", "", "BHZ", day, day+1000)))
		require.True(t, rec.Matches(tr("XX", "ABC", "", "BHZ", before, day)), "overlap at start")
		require.True(t, rec.Matches(tr("XX", "ABC", "", "BHZ", day, after)), "overlap at end")
		require.False(t, rec.Matches(tr("XX", "ABC", "", "BHZ", before, before+1000)))
		require.False(t, rec.Matches(tr("XX", "ABC", "", "BHZ", after, after+1000)))
	})

	t.Run("open ended window", func(t *testing.T) {
		rec, err := ParseLine("XX|ABC||BHZ||||||||||||2020-01-01")
		require.NoError(t, err)
		early, err := trace.ParseHPTime("2010-01-01")
		require.NoError(t, err)
		late, err := trace.ParseHPTime("2030-01-01")
		require.NoError(t, err)

		require.False(t, rec.Matches(tr("XX", "ABC", "", "BHZ", early, early+10)))
		require.True(t, rec.Matches(tr("XX", "ABC", "", "BHZ", late, late+10)))
	})
}

func TestCatalog_Lookup(t *testing.T) {
	t.Run("first match wins", func(t *testing.T) {
		c := newTestCatalog(t, nil)
		require.NoError(t, c.AddLine("XX,*,*,BHZ,1.0"))
		require.NoError(t, c.AddLine("XX,ABC,,BHZ,2.0"))
		require.Equal(t, 2, c.Len())

		rec := c.Lookup(tr("XX", "ABC", "", "BHZ", 0, 10))
		require.NotNil(t, rec)
		require.Equal(t, "1.0", rec.Latitude)

		require.Nil(t, c.Lookup(tr("XX", "ABC", "", "BHN", 0, 10)))
	})

	t.Run("cached and uncached agree", func(t *testing.T) {
		for _, size := range []int{0, 4} {
			c := newTestCatalog(t, nil, WithCacheSize(size))
			require.NoError(t, c.AddLine("XX|ABC||BHZ|5"))
			for range 3 {
				rec := c.Lookup(tr("XX", "ABC", "", "BHZ", 0, 10))
				require.NotNil(t, rec)
				require.Equal(t, "5", rec.Latitude)
				require.Nil(t, c.Lookup(tr("XX", "ABC", "", "BHE", 0, 10)))
			}
		}
	})

	t.Run("adding a record invalidates cached misses", func(t *testing.T) {
		c := newTestCatalog(t, nil)
		require.NoError(t, c.AddLine("XX|ABC||BHZ"))
		bhn := tr("XX", "ABC", "", "BHN", 0, 10)
		require.Nil(t, c.Lookup(bhn))

		require.NoError(t, c.AddLine("XX|ABC||BHN|7"))
		rec := c.Lookup(bhn)
		require.NotNil(t, rec)
		require.Equal(t, "7", rec.Latitude)
	})

	t.Run("empty catalog", func(t *testing.T) {
		c := newTestCatalog(t, nil)
		require.Nil(t, c.Lookup(tr("XX", "ABC", "", "BHZ", 0, 10)))
	})

	t.Run("negative cache size rejected", func(t *testing.T) {
		_, err := NewCatalog(WithCacheSize(-1))
		require.ErrorIs(t, err, errs.ErrInvalidConfig)
	})
}

func TestCatalog_AddLineDiagnostics(t *testing.T) {
	var logs bytes.Buffer
	c := newTestCatalog(t, &logs)

	require.NoError(t, c.AddLine("XX,ABC"))
	require.Equal(t, 0, c.Len())
	require.Contains(t, logs.String(), "too few fields")

	logs.Reset()
	require.NoError(t, c.AddLine(",,,"))
	require.Equal(t, 1, c.Len())
	require.Contains(t, logs.String(), "no source name fields")

	logs.Reset()
	require.NoError(t, c.AddLine(",,00,"))
	require.Equal(t, 2, c.Len())
	require.NotContains(t, logs.String(), "no source name fields")

	logs.Reset()
	require.NoError(t, c.AddLine(",,--,"))
	require.Equal(t, 3, c.Len())
	require.Contains(t, logs.String(), "no source name fields")

	err := c.AddLine("XX,ABC,,BHZ,,,,,,steep")
	require.ErrorIs(t, err, errs.ErrMalformedField)
}

func TestCatalog_LoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("skips comments and blank lines", func(t *testing.T) {
		path := filepath.Join(dir, "meta.txt")
		content := strings.Join([]string{
			"#Network|Station|Location|Channel|Latitude|Longitude",
			"",
			"IU|ANMO|00|BHZ|34.9459|-106.4572",
			"IU|ANMO|00|BH1|34.9459|-106.4572\r",
		}, "\n")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		c := newTestCatalog(t, nil)
		require.NoError(t, c.LoadFile(path))
		require.Equal(t, 2, c.Len())
		rec := c.Lookup(tr("IU", "ANMO", "00", "BH1", 0, 10))
		require.NotNil(t, rec)
		require.Equal(t, "BH1", rec.Channel)
		require.Equal(t, "-106.4572", rec.Longitude)
	})

	t.Run("malformed line reports line number", func(t *testing.T) {
		path := filepath.Join(dir, "bad.txt")
		require.NoError(t, os.WriteFile(path, []byte("IU|ANMO|00|BHZ\nIU|ANMO|00|BHN|||||||x|nan?\n"), 0o644))

		c := newTestCatalog(t, nil)
		err := c.LoadFile(path)
		require.ErrorIs(t, err, errs.ErrMalformedField)
		require.Contains(t, err.Error(), "line 2")
	})

	t.Run("missing file is not fatal", func(t *testing.T) {
		c := newTestCatalog(t, nil)
		err := c.LoadFile(filepath.Join(dir, "absent.txt"))
		require.ErrorIs(t, err, errs.ErrListFileNotFound)
		require.False(t, errs.IsFatal(err))
	})

	t.Run("directory is fatal", func(t *testing.T) {
		c := newTestCatalog(t, nil)
		err := c.LoadFile(dir)
		require.True(t, errs.IsFatal(err))
	})
}
