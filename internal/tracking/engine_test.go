package tracking

import (
	"testing"
	"time"

	"github.com/caba911/dispatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPRNGIsDeterministic(t *testing.T) {
	r1 := SeedPRNG("vehicle-1", "incident-1")
	r2 := SeedPRNG("vehicle-1", "incident-1")
	assert.Equal(t, r1.Float64(), r2.Float64())
}

func TestSeedPRNGDiffersByInput(t *testing.T) {
	r1 := SeedPRNG("vehicle-1", "incident-1")
	r2 := SeedPRNG("vehicle-2", "incident-1")
	assert.NotEqual(t, r1.Float64(), r2.Float64())
}

func TestTrafficFactorWithinClampedBounds(t *testing.T) {
	now := time.Date(2026, 7, 29, 3, 0, 0, 0, time.UTC)
	factor := TrafficFactor("vehicle-1", "incident-1", models.CodeGreen, false, now)
	assert.GreaterOrEqual(t, factor, minFactor)
	assert.LessOrEqual(t, factor, maxFactor)
}

func TestTrafficFactorDeterministicAcrossCalls(t *testing.T) {
	now := time.Date(2026, 7, 29, 3, 0, 0, 0, time.UTC)
	f1 := TrafficFactor("vehicle-1", "incident-1", models.CodeGreen, false, now)
	f2 := TrafficFactor("vehicle-1", "incident-1", models.CodeGreen, false, now)
	assert.Equal(t, f1, f2)
}

func TestTrafficFactorRedWithOndaVerdeLowersFactor(t *testing.T) {
	now := time.Date(2026, 7, 29, 3, 0, 0, 0, time.UTC)
	redOnda := TrafficFactor("vehicle-1", "incident-1", models.CodeRed, true, now)
	redNoOnda := TrafficFactor("vehicle-1", "incident-1", models.CodeRed, false, now)
	assert.Less(t, redOnda, redNoOnda)
}

func TestTrackProgressClampedAtOne(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	route := models.CalculatedRoute{
		DistanceKM:           10,
		EstimatedTimeMinutes: 15,
		Geometry:             models.LineString{{Lon: -58.40, Lat: -34.60}, {Lon: -58.41, Lat: -34.61}},
		CalculatedAt:         now.Add(-24 * time.Hour),
	}

	snap := Track("vehicle-1", "incident-1", route, models.CodeGreen, false, now)
	assert.Equal(t, 1.0, snap.Progress)
	assert.Equal(t, 0.0, snap.RemainingKM)
	assert.Equal(t, 0.0, snap.ETARemainingMin)
}

func TestTrackProgressZeroAtStart(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	route := models.CalculatedRoute{
		DistanceKM:           10,
		EstimatedTimeMinutes: 15,
		Geometry:             models.LineString{{Lon: -58.40, Lat: -34.60}, {Lon: -58.41, Lat: -34.61}},
		CalculatedAt:         now,
	}

	snap := Track("vehicle-1", "incident-1", route, models.CodeGreen, false, now)
	assert.InDelta(t, 0.0, snap.Progress, 0.01)
	assert.InDelta(t, 10.0, snap.RemainingKM, 0.1)
}

func TestTrackBandThresholds(t *testing.T) {
	assert.Equal(t, BandFree, bandFor(0.5))
	assert.Equal(t, BandModerate, bandFor(0.9))
	assert.Equal(t, BandCongested, bandFor(1.5))
}

func TestFrozenSnapshotIsTerminal(t *testing.T) {
	route := models.CalculatedRoute{
		DistanceKM: 5,
		Geometry:   models.LineString{{Lon: -58.40, Lat: -34.60}, {Lon: -58.41, Lat: -34.61}},
	}
	snap := FrozenSnapshot("vehicle-1", "incident-1", route)
	assert.Equal(t, 1.0, snap.Progress)
	assert.Equal(t, 0.0, snap.ETARemainingMin)
	assert.Equal(t, 0.0, snap.SpeedKMH)
}

func TestTrackMinimumNominalDurationFloor(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	route := models.CalculatedRoute{
		DistanceKM:           1,
		EstimatedTimeMinutes: 0.1, // below the 60s floor
		Geometry:             models.LineString{{Lon: -58.40, Lat: -34.60}, {Lon: -58.41, Lat: -34.61}},
		CalculatedAt:         now.Add(-30 * time.Second),
	}

	snap := Track("vehicle-1", "incident-1", route, models.CodeGreen, false, now)
	require.GreaterOrEqual(t, snap.Progress, 0.0)
	assert.LessOrEqual(t, snap.Progress, 1.0)
}
