package greenwave

import (
	"testing"
	"time"

	"github.com/caba911/dispatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog([]Intersection{
		{Name: "9 de Julio & Corrientes", Location: models.LatLon{Lat: -34.6030, Lon: -58.3810}, Priority: PriorityMajor},
		{Name: "Callao & Santa Fe", Location: models.LatLon{Lat: -34.5950, Lon: -58.3950}, Priority: PrioritySecondary},
		{Name: "Far Intersection", Location: models.LatLon{Lat: -10.0, Lon: -10.0}, Priority: PriorityMajor},
	})
}

func TestActivateSelectsNearbyIntersectionsOnly(t *testing.T) {
	now := time.Now()
	co := NewCoordinator(testCatalog(), NewRegistry())
	from := models.LatLon{Lat: -34.6037, Lon: -58.3816}
	to := models.LatLon{Lat: -34.5875, Lon: -58.4205}

	wave := co.Activate("wave-1", "incident-1", "vehicle-1", from, to, 0, now)

	names := make([]string, 0, len(wave.Windows))
	for _, w := range wave.Windows {
		names = append(names, w.Intersection)
	}
	assert.NotContains(t, names, "Far Intersection")
}

func TestActivateAssignsCorrectWindowDurations(t *testing.T) {
	now := time.Now()
	co := NewCoordinator(testCatalog(), NewRegistry())
	from := models.LatLon{Lat: -34.6037, Lon: -58.3816}
	to := models.LatLon{Lat: -34.5875, Lon: -58.4205}

	wave := co.Activate("wave-1", "incident-1", "vehicle-1", from, to, 0, now)
	require.NotEmpty(t, wave.Windows)

	for _, w := range wave.Windows {
		dur := w.GreenEnd.Sub(w.GreenStart)
		if w.Priority == string(PriorityMajor) {
			assert.Equal(t, arrivalLeadTime+majorGreenWindow, dur)
		} else {
			assert.Equal(t, arrivalLeadTime+secondaryGreenWindow, dur)
		}
	}
}

func TestActivateWithEmptyCatalogYieldsEmptyWindows(t *testing.T) {
	now := time.Now()
	co := NewCoordinator(NewCatalog(nil), NewRegistry())
	wave := co.Activate("wave-1", "incident-1", "vehicle-1", models.LatLon{}, models.LatLon{}, 0, now)
	assert.Empty(t, wave.Windows)
}

func TestStatusReportsGreenWithinWindow(t *testing.T) {
	now := time.Now()
	registry := NewRegistry()
	co := NewCoordinator(testCatalog(), registry)

	wave := models.GreenWave{
		WaveID:     "wave-1",
		IncidentID: "incident-1",
		Windows: []models.GreenWaveWindow{
			{Intersection: "9 de Julio & Corrientes", GreenStart: now.Add(-time.Second), GreenEnd: now.Add(time.Minute)},
		},
	}
	registry.Put(wave, now)

	status := co.Status("9 de Julio & Corrientes", now)
	assert.True(t, status.IsGreen)
	assert.True(t, status.HasEmergency)
}

func TestStatusPurgesExpiredWaves(t *testing.T) {
	now := time.Now()
	registry := NewRegistry()
	co := NewCoordinator(testCatalog(), registry)

	wave := models.GreenWave{WaveID: "wave-old", IncidentID: "incident-1"}
	registry.Put(wave, now.Add(-waveTTL-time.Minute))

	status := co.Status("9 de Julio & Corrientes", now)
	assert.False(t, status.HasEmergency)
	_, ok := registry.Get("wave-old", now)
	assert.False(t, ok)
}

func TestRegistryPutIsIdempotentOnReactivation(t *testing.T) {
	now := time.Now()
	registry := NewRegistry()

	registry.Put(models.GreenWave{WaveID: "wave-1", Windows: []models.GreenWaveWindow{{Intersection: "a"}}}, now)
	registry.Put(models.GreenWave{WaveID: "wave-1", Windows: []models.GreenWaveWindow{{Intersection: "b"}}}, now)

	wave, ok := registry.Get("wave-1", now)
	require.True(t, ok)
	require.Len(t, wave.Windows, 1)
	assert.Equal(t, "b", wave.Windows[0].Intersection)
}
