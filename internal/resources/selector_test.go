package resources

import (
	"context"
	"testing"

	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func straightLineLookup(ctx context.Context, from, to geo.Point) (float64, float64) {
	distM := geo.HaversineMeters(from, to)
	return distM, distM / (40.0 * 1000.0 / 3600.0)
}

func TestSelectRanksClosestFirstWhenPrimary(t *testing.T) {
	incident := models.LatLon{Lat: -34.60, Lon: -58.40}
	vehicles := []models.Vehicle{
		{ID: "v-far", Force: models.ForceFire, Type: "fire_engine", Status: models.VehicleAvailable, CurrentLocation: &models.LatLon{Lat: -34.70, Lon: -58.50}},
		{ID: "v-near", Force: models.ForceFire, Type: "fire_engine", Status: models.VehicleAvailable, CurrentLocation: &models.LatLon{Lat: -34.601, Lon: -58.401}},
	}

	vCands, _ := Select(context.Background(), incident, models.ForceFire, models.ForceFire, vehicles, nil, 1.0, straightLineLookup)

	require.Len(t, vCands, 2)
	assert.Equal(t, "v-near", vCands[0].ID)
	assert.Equal(t, "v-far", vCands[1].ID)
}

func TestSelectExcludesUnavailableVehiclesForNonPolice(t *testing.T) {
	incident := models.LatLon{Lat: -34.60, Lon: -58.40}
	vehicles := []models.Vehicle{
		{ID: "v-busy", Force: models.ForceFire, Status: models.VehicleBusy, CurrentLocation: &models.LatLon{Lat: -34.60, Lon: -58.40}},
	}

	vCands, _ := Select(context.Background(), incident, models.ForceFire, models.ForceFire, vehicles, nil, 1.0, straightLineLookup)
	assert.Empty(t, vCands)
}

func TestSelectIncludesBusyPoliceVehiclesForFleetPressure(t *testing.T) {
	incident := models.LatLon{Lat: -34.60, Lon: -58.40}
	vehicles := []models.Vehicle{
		{ID: "v-busy", Force: models.ForcePolice, Status: models.VehicleBusy, CurrentLocation: &models.LatLon{Lat: -34.60, Lon: -58.40}},
	}

	vCands, _ := Select(context.Background(), incident, models.ForcePolice, models.ForcePolice, vehicles, nil, 1.0, straightLineLookup)
	assert.Len(t, vCands, 1)
}

func TestSelectNonPrimaryScoreUsesTypeWeightAndPenalty(t *testing.T) {
	incident := models.LatLon{Lat: -34.60, Lon: -58.40}
	vehicles := []models.Vehicle{
		{ID: "v1", Force: models.ForceMedical, Type: "ambulance", Status: models.VehicleAvailable, CurrentLocation: &models.LatLon{Lat: -34.60, Lon: -58.40}},
	}

	// assignedForce differs from force, so isPrimary is false.
	vCands, _ := Select(context.Background(), incident, models.ForceFire, models.ForceMedical, vehicles, nil, 1.0, straightLineLookup)
	require.Len(t, vCands, 1)
	assert.False(t, vCands[0].IsPrimary)
	assert.Greater(t, vCands[0].Score, 0.0)
}

func TestSelectTruncatesToDefaultLimits(t *testing.T) {
	incident := models.LatLon{Lat: -34.60, Lon: -58.40}
	var vehicles []models.Vehicle
	for i := 0; i < 10; i++ {
		vehicles = append(vehicles, models.Vehicle{
			ID: "v", Force: models.ForceFire, Status: models.VehicleAvailable,
			CurrentLocation: &models.LatLon{Lat: -34.60, Lon: -58.40},
		})
	}

	vCands, _ := Select(context.Background(), incident, models.ForceFire, models.ForceFire, vehicles, nil, 1.0, straightLineLookup)
	assert.Len(t, vCands, defaultVehicleLimit)
}

func TestSelectSkipsVehiclesWithoutLocation(t *testing.T) {
	incident := models.LatLon{Lat: -34.60, Lon: -58.40}
	vehicles := []models.Vehicle{
		{ID: "v-nolocation", Force: models.ForceFire, Status: models.VehicleAvailable},
	}

	vCands, _ := Select(context.Background(), incident, models.ForceFire, models.ForceFire, vehicles, nil, 1.0, straightLineLookup)
	assert.Empty(t, vCands)
}

func TestApplySelectionAndReleaseOnFinish(t *testing.T) {
	vStatus, aStatus := ApplySelection(nil)
	assert.Equal(t, models.VehicleEnRoute, vStatus)
	assert.Equal(t, models.AgentEnRoute, aStatus)

	vStatus, aStatus = ReleaseOnFinish()
	assert.Equal(t, models.VehicleAvailable, vStatus)
	assert.Equal(t, models.AgentAvailable, aStatus)
}
