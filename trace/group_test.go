package trace

import (
	"testing"

	"github.com/arloliu/tsascii/format"
	"github.com/stretchr/testify/require"
)

func TestGroup_Add(t *testing.T) {
	start := HPTime(1_000_000_000_000_000_000)

	t.Run("appends contiguous segment", func(t *testing.T) {
		g := NewGroup(-1, -1)
		g.Add(NewInt32(anmo, start, 10, []int32{1, 2, 3}))
		g.Add(NewInt32(anmo, start+300_000_000, 10, []int32{4, 5}))

		require.Equal(t, 1, g.Len())
		tr := g.Traces()[0]
		require.Equal(t, int64(5), tr.SampleCount)
		require.Equal(t, int32(5), tr.Int32(4))
		require.Equal(t, start+400_000_000, tr.End)
	})

	t.Run("prepends preceding segment", func(t *testing.T) {
		g := NewGroup(-1, -1)
		g.Add(NewInt32(anmo, start+300_000_000, 10, []int32{4, 5}))
		g.Add(NewInt32(anmo, start, 10, []int32{1, 2, 3}))

		require.Equal(t, 1, g.Len())
		tr := g.Traces()[0]
		require.Equal(t, start, tr.Start)
		require.Equal(t, int32(1), tr.Int32(0))
		require.Equal(t, int32(5), tr.Int32(4))
	})

	t.Run("gap beyond default tolerance starts new trace", func(t *testing.T) {
		g := NewGroup(-1, -1)
		g.Add(NewInt32(anmo, start, 10, []int32{1, 2, 3}))
		g.Add(NewInt32(anmo, start+360_000_000, 10, []int32{4}))

		require.Equal(t, 2, g.Len())
	})

	t.Run("explicit time tolerance", func(t *testing.T) {
		g := NewGroup(0.1, -1)
		g.Add(NewInt32(anmo, start, 10, []int32{1, 2, 3}))
		g.Add(NewInt32(anmo, start+360_000_000, 10, []int32{4}))

		require.Equal(t, 1, g.Len())
	})

	t.Run("different channel, type or rate not merged", func(t *testing.T) {
		g := NewGroup(-1, -1)
		g.Add(NewInt32(anmo, start, 10, []int32{1, 2, 3}))

		other := anmo
		other.Channel = "BHN"
		g.Add(NewInt32(other, start+300_000_000, 10, []int32{4}))
		g.Add(NewFloat32(anmo, start+300_000_000, 10, []float32{4}))
		g.Add(NewInt32(anmo, start+300_000_000, 20, []int32{4}))

		require.Equal(t, 4, g.Len())
		require.Equal(t, format.SampleInt32, g.Traces()[0].SampleType)
		require.Equal(t, int64(3), g.Traces()[0].SampleCount)
	})

	t.Run("explicit rate tolerance", func(t *testing.T) {
		g := NewGroup(-1, 0.5)
		g.Add(NewInt32(anmo, start, 10, []int32{1, 2, 3}))
		g.Add(NewInt32(anmo, start+300_000_000, 10.2, []int32{4}))

		require.Equal(t, 1, g.Len())
	})

	t.Run("reset", func(t *testing.T) {
		g := NewGroup(-1, -1)
		g.Add(NewInt32(anmo, start, 10, []int32{1}))
		g.Reset()
		require.Equal(t, 0, g.Len())
	})
}
