package rate

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/format"
	"github.com/arloliu/tsascii/trace"
	"github.com/stretchr/testify/require"
)

func span(start, end trace.HPTime, count int64, rate float64) *trace.Trace {
	return &trace.Trace{
		SourceID:    trace.SourceID{Network: "XX", Station: "ABC", Channel: "BHZ", Quality: 'D'},
		Start:       start,
		End:         end,
		SampleRate:  rate,
		SampleCount: count,
		SampleType:  format.SampleInt32,
		Data:        make([]byte, count*4),
	}
}

func TestCheck(t *testing.T) {
	t.Run("consistent rate", func(t *testing.T) {
		res := Check(span(0, 999_000_000, 1000, 1000))
		require.False(t, res.Disagree)
		require.InDelta(t, 1000.0, res.Derived, 1e-9)
		require.Equal(t, 1000.0, res.Rate())
	})

	t.Run("shift within half a period", func(t *testing.T) {
		res := Check(span(0, 999_400_000, 1000, 1000))
		require.False(t, res.Disagree)
	})

	t.Run("shift beyond half a period", func(t *testing.T) {
		res := Check(span(0, 1_100_000_000, 1000, 1000))
		require.True(t, res.Disagree)
		require.InDelta(t, 908.1818, res.Derived, 1e-3)
	})

	t.Run("zero rate never disagrees", func(t *testing.T) {
		res := Check(span(0, 1_100_000_000, 1000, 0))
		require.False(t, res.Disagree)
		require.Zero(t, res.Derived)
	})

	t.Run("degenerate span skipped", func(t *testing.T) {
		res := Check(span(5, 5, 1, 40))
		require.False(t, res.Disagree)
		require.Zero(t, res.Derived)

		res = Check(span(10, 5, 3, 40))
		require.False(t, res.Disagree)
	})
}

func TestReconcile(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Run("derive overrides rate", func(t *testing.T) {
		tr := span(0, 1_100_000_000, 1000, 1000)
		res, err := Reconcile(tr, true, logger)
		require.NoError(t, err)
		require.True(t, res.Overridden)
		require.InDelta(t, 908.1818, tr.SampleRate, 1e-3)
		require.Equal(t, tr.SampleRate, res.Rate())
	})

	t.Run("without derive only warns", func(t *testing.T) {
		logs.Reset()
		tr := span(0, 1_100_000_000, 1000, 1000)
		res, err := Reconcile(tr, false, logger)
		require.ErrorIs(t, err, errs.ErrRateMismatch)
		require.False(t, errs.IsFatal(err))
		require.False(t, res.Overridden)
		require.Equal(t, 1000.0, tr.SampleRate)
		require.Contains(t, logs.String(), "reported sample rate different than derived rate")
	})

	t.Run("agreement leaves trace untouched", func(t *testing.T) {
		tr := span(0, 999_000_000, 1000, 1000)
		res, err := Reconcile(tr, true, nil)
		require.NoError(t, err)
		require.False(t, res.Overridden)
		require.Equal(t, 1000.0, tr.SampleRate)
	})
}
