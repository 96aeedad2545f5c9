package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKnownDistance(t *testing.T) {
	// Buenos Aires microcentro to Palermo, roughly 6.5km apart.
	a := Point{Lat: -34.6083, Lon: -58.3712}
	b := Point{Lat: -34.5875, Lon: -58.4371}
	km := HaversineKM(a, b)
	assert.InDelta(t, 6.5, km, 2.0)
}

func TestHaversineZeroForSamePoint(t *testing.T) {
	a := Point{Lat: -34.6, Lon: -58.4}
	assert.Equal(t, 0.0, HaversineMeters(a, a))
}

func TestInterpolateSinglePointReturnsItself(t *testing.T) {
	line := []LonLat{{Lon: -58.4, Lat: -34.6}}
	for _, p := range []float64{0, 0.25, 0.5, 1} {
		got := Interpolate(line, p)
		require.Equal(t, Point{Lat: -34.6, Lon: -58.4}, got)
	}
}

func TestInterpolateEndpoints(t *testing.T) {
	line := []LonLat{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}}
	start := Interpolate(line, 0)
	end := Interpolate(line, 1)
	assert.InDelta(t, 0, start.Lat, 1e-9)
	assert.InDelta(t, 1, end.Lat, 1e-9)
}

func TestInterpolateMidpointWithinBoundingBox(t *testing.T) {
	line := []LonLat{{Lon: -58.40, Lat: -34.60}, {Lon: -58.30, Lat: -34.55}}
	mid := Interpolate(line, 0.5)
	assert.True(t, mid.Lon >= -58.40 && mid.Lon <= -58.30)
	assert.True(t, mid.Lat >= -34.60 && mid.Lat <= -34.55)
}

func TestGridPathHasAtLeastThreePoints(t *testing.T) {
	path := GridPath(Point{Lat: -34.6, Lon: -58.4}, Point{Lat: -34.65, Lon: -58.45})
	assert.GreaterOrEqual(t, len(path), 3)
}

func TestGridPathDeterministic(t *testing.T) {
	a := Point{Lat: -34.6, Lon: -58.4}
	b := Point{Lat: -34.65, Lon: -58.45}
	p1 := GridPath(a, b)
	p2 := GridPath(a, b)
	assert.Equal(t, p1, p2)
}

func TestPointToSegmentDistanceAtEndpoints(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 0.01}
	d := PointToSegmentDistanceMeters(a, a, b)
	assert.InDelta(t, 0, d, 1e-6)
}

func TestPointToSegmentDistancePerpendicular(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 0.01}
	// a point roughly 0.001 degrees lat off the midpoint of the segment
	p := Point{Lat: 0.001, Lon: 0.005}
	d := PointToSegmentDistanceMeters(p, a, b)
	assert.Greater(t, d, 0.0)
	assert.Less(t, d, math.Abs(0.001)*metresPerDegreeLat*1.5)
}
