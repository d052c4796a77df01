package tsascii

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/format"
	"github.com/arloliu/tsascii/pipeline"
	"github.com/arloliu/tsascii/render"
	"github.com/arloliu/tsascii/scale"
	"github.com/arloliu/tsascii/trace"
)

var (
	testID    = trace.SourceID{Network: "XX", Station: "ABC", Location: "", Channel: "BHZ"}
	testStart = trace.FromTime(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
)

func TestRenderTrace_Default(t *testing.T) {
	tr := trace.NewInt32(testID, testStart, 20, []int32{1, -2, 3})

	var buf bytes.Buffer
	require.NoError(t, RenderTrace(&buf, tr))
	require.Equal(t,
		"TIMESERIES XX_ABC__BHZ_D, 3 samples, 20 sps, 2020-01-01T00:00:00.000000, SLIST, INTEGER, Counts\n"+
			"1\n-2\n3\n",
		buf.String())
}

func TestRenderTrace_Options(t *testing.T) {
	tr := trace.NewInt32(testID, testStart, 20, []int32{1, 2, 3, 4})

	var buf bytes.Buffer
	require.NoError(t, RenderTrace(&buf, tr, render.WithColumns(2)))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3, "header plus two rows")

	err := RenderTrace(io.Discard, tr, render.WithColumns(0))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	bad := trace.New(testID, testStart, 20, format.SampleType('z'), 2, nil)
	err = RenderTrace(io.Discard, bad)
	require.ErrorIs(t, err, errs.ErrUnknownSampleType)
}

func TestNewGeoCSVRenderer(t *testing.T) {
	r, err := NewGeoCSVRenderer(format.LayoutTimeSamplePair, render.WithColumns(8))
	require.NoError(t, err)
	require.Equal(t, format.DialectGeoCSV, r.Dialect())
	require.Equal(t, format.LayoutTimeSamplePair, r.Layout())

	tr := trace.NewFloat64(testID, testStart, 1, []float64{0.5})
	require.Equal(t, "XX.ABC..BHZ.D.2020-01-01T000000.000000.csv", r.FileName(tr))

	var buf bytes.Buffer
	_, err = r.Render(&buf, render.Job{Trace: tr})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(buf.String(), "Time, Sample\n2020-01-01T00:00:00.000000Z, 0.5\n"), buf.String())
}

func TestNewCatalog_Scaling(t *testing.T) {
	catalog, err := NewCatalog(
		"XX|*|*|BHN|||||||inst|2|1|M/S",
		"XX|*|*|BHZ|||||||inst|10|1|M/S",
		"too,few",
	)
	require.NoError(t, err)
	require.Equal(t, 2, catalog.Len())

	tr := trace.NewInt32(testID, testStart, 20, []int32{100, 200, -100})
	rec := catalog.Lookup(tr)
	require.NotNil(t, rec)

	scaled, units, ok := scale.Apply(tr, rec)
	require.True(t, ok)
	require.Equal(t, "M/S", units)
	require.Equal(t, format.SampleFloat32, scaled.SampleType)
	require.Equal(t, []float32{10, 20, -10}, []float32{scaled.Float32(0), scaled.Float32(1), scaled.Float32(2)})

	_, err = NewCatalog("XX|ABC||BHZ|||||||inst|ten")
	require.ErrorIs(t, err, errs.ErrMalformedField)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.jsonl")
	doc := `{"net":"XX","sta":"ABC","loc":"","chan":"BHZ","start":"2020-01-01T00:00:00","rate":20,"type":"i","samples":[1,-2,3]}`
	require.NoError(t, os.WriteFile(input, []byte(doc+"\n"), 0o644))

	cfg := DefaultConfig()
	cfg.OutputDir = dir
	cfg.Inputs = []string{input}

	report, err := Convert(context.Background(), cfg, pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	require.False(t, report.Failed())
	require.Equal(t, int64(3), report.Samples)

	data, err := os.ReadFile(filepath.Join(dir, "XX.ABC..BHZ.D.2020-01-01T000000.000000.txt"))
	require.NoError(t, err)

	var want bytes.Buffer
	require.NoError(t, RenderTrace(&want, trace.NewInt32(testID, testStart, 20, []int32{1, -2, 3})))
	require.Equal(t, want.String(), string(data))

	cfg.Columns = 500
	_, err = NewPipeline(cfg)
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}
