package face

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNearestEmptyGallery(t *testing.T) {
	_, ok := Nearest([]float64{0.1, 0.2}, nil, DefaultThreshold)
	require.False(t, ok)

	_, ok = Nearest([]float64{0.1, 0.2}, []Enrollment{}, DefaultThreshold)
	require.False(t, ok)
}

func TestNearestThresholdBoundary(t *testing.T) {
	probe := []float64{0.0}

	// Distance 0.59 sits under the 0.6 threshold.
	match, ok := Nearest(probe, []Enrollment{{UserID: "u1", Descriptor: []float64{0.59}}}, 0.6)
	require.True(t, ok)
	require.Equal(t, "u1", match.UserID)
	require.InDelta(t, 0.59, match.Distance, 1e-9)

	// Distance exactly 0.6 does not: the bound is strict.
	_, ok = Nearest(probe, []Enrollment{{UserID: "u1", Descriptor: []float64{0.6}}}, 0.6)
	require.False(t, ok)
}

func TestNearestPicksMinimum(t *testing.T) {
	probe := []float64{0.0, 0.0}
	gallery := []Enrollment{
		{UserID: "far", Descriptor: []float64{0.3, 0.4}},  // distance 0.5
		{UserID: "near", Descriptor: []float64{0.1, 0.0}}, // distance 0.1
		{UserID: "out", Descriptor: []float64{3.0, 4.0}},  // distance 5.0
	}

	match, ok := Nearest(probe, gallery, 0.6)
	require.True(t, ok)
	require.Equal(t, "near", match.UserID)
	require.InDelta(t, 0.1, match.Distance, 1e-9)
}

func TestNearestTieBreakFirstWins(t *testing.T) {
	probe := []float64{0.0}
	gallery := []Enrollment{
		{UserID: "first", Descriptor: []float64{0.2}},
		{UserID: "second", Descriptor: []float64{0.2}},
	}

	match, ok := Nearest(probe, gallery, 0.6)
	require.True(t, ok)
	require.Equal(t, "first", match.UserID)
}

func TestNearestSkipsMismatchedLength(t *testing.T) {
	probe := []float64{0.0, 0.0}
	gallery := []Enrollment{
		{UserID: "short", Descriptor: []float64{0.0}},
		{UserID: "fits", Descriptor: []float64{0.1, 0.1}},
	}

	match, ok := Nearest(probe, gallery, 0.6)
	require.True(t, ok)
	require.Equal(t, "fits", match.UserID)
}

func TestNearestDefaultThresholdFallback(t *testing.T) {
	probe := []float64{0.0}
	gallery := []Enrollment{{UserID: "u1", Descriptor: []float64{0.5}}}

	match, ok := Nearest(probe, gallery, 0)
	require.True(t, ok)
	require.Equal(t, "u1", match.UserID)
}
