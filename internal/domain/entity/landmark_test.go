package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLandmarkInFrame(t *testing.T) {
	require.True(t, Landmark{X: 0, Y: 1}.InFrame())
	require.True(t, Landmark{X: 0.5, Y: 0.5}.InFrame())
	require.False(t, Landmark{X: -0.01, Y: 0.5}.InFrame())
	require.False(t, Landmark{X: 0.5, Y: 1.2}.InFrame())
	require.False(t, Landmark{X: math.NaN(), Y: 0.5}.InFrame())
	require.False(t, Landmark{X: 0.5, Y: math.Inf(1)}.InFrame())
}

func TestLandmarkPixel(t *testing.T) {
	x, y := Landmark{X: 0.5, Y: 0.25}.Pixel(320, 240)
	require.Equal(t, 160, x)
	require.Equal(t, 60, y)
}

func TestSideIndices(t *testing.T) {
	ear, shoulder := SideLeft.Indices()
	require.Equal(t, LeftEar, ear)
	require.Equal(t, LeftShoulder, shoulder)

	ear, shoulder = SideRight.Indices()
	require.Equal(t, RightEar, ear)
	require.Equal(t, RightShoulder, shoulder)

	ear, _ = Side("").Indices()
	require.Equal(t, LeftEar, ear)
}
