package collision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.Empty(t, tracker.Names())
}

func TestTracker_Track(t *testing.T) {
	tracker := NewTracker()

	require.False(t, tracker.Track("IU.ANMO.00.BHZ.D.2010-02-27T063000.019538.txt"))
	require.False(t, tracker.Track("IU.ANMO.00.BHN.D.2010-02-27T063000.019538.txt"))
	require.True(t, tracker.Track("IU.ANMO.00.BHZ.D.2010-02-27T063000.019538.txt"))

	require.Equal(t, 2, tracker.Count())
	require.Equal(t, 1, tracker.Duplicates())
	require.False(t, tracker.HasCollision())
	require.Equal(t, []string{
		"IU.ANMO.00.BHZ.D.2010-02-27T063000.019538.txt",
		"IU.ANMO.00.BHN.D.2010-02-27T063000.019538.txt",
	}, tracker.Names())
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()
	tracker.Track("a.txt")
	tracker.Track("a.txt")

	tracker.Reset()

	require.Equal(t, 0, tracker.Count())
	require.Equal(t, 0, tracker.Duplicates())
	require.False(t, tracker.Track("a.txt"))
}
