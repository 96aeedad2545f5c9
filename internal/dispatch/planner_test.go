package dispatch

import (
	"context"
	"testing"

	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredForcesDefaultsToPolice(t *testing.T) {
	forces := RequiredForces("", "")
	assert.Equal(t, []models.ForceName{models.ForcePolice}, forces)
}

func TestRequiredForcesFireKeyword(t *testing.T) {
	forces := RequiredForces("incendio en depósito", "")
	assert.Contains(t, forces, models.ForceFire)
}

func TestRequiredForcesCollisionRequiresThreeForces(t *testing.T) {
	forces := RequiredForces("choque con heridos", "")
	assert.Contains(t, forces, models.ForcePolice)
	assert.Contains(t, forces, models.ForceTraffic)
	assert.Contains(t, forces, models.ForceMedical)
}

func TestRequiredForcesOrsTriageType(t *testing.T) {
	forces := RequiredForces("llamada de rutina", models.ForceFire)
	assert.Contains(t, forces, models.ForceFire)
}

func TestRequiredForcesRespectsPrecedenceOrder(t *testing.T) {
	forces := RequiredForces("choque con heridos e incendio", "")
	require.True(t, len(forces) >= 2)
	assert.Equal(t, models.ForceFire, forces[0])
}

func straightLineLookup(ctx context.Context, from, to geo.Point) (float64, float64) {
	dist := geo.HaversineMeters(from, to)
	return dist, dist / (40.0 * 1000.0 / 3600.0)
}

func TestPlanForceAssignsTopVehicleAndAgent(t *testing.T) {
	incidentLocation := models.LatLon{Lat: -34.60, Lon: -58.40}
	vehicles := []models.Vehicle{
		{ID: "v1", Force: models.ForceFire, Type: "fire_engine", Status: models.VehicleAvailable, CurrentLocation: &models.LatLon{Lat: -34.601, Lon: -58.401}},
	}
	agents := []models.Agent{
		{ID: "a1", Force: models.ForceFire, Status: models.AgentAvailable, CurrentLocation: &models.LatLon{Lat: -34.601, Lon: -58.401}},
	}

	outcome := PlanForce(context.Background(), "incident-1", incidentLocation, models.ForceFire, models.ForceFire, vehicles, agents, 1.0, 3, straightLineLookup, nil)

	assert.Equal(t, "v1", outcome.VehicleID)
	assert.Equal(t, "a1", outcome.AgentID)
	assert.NotEmpty(t, outcome.RouteCandidates)
}

func TestPlanForceWithNoResourcesStillReturnsDispatch(t *testing.T) {
	incidentLocation := models.LatLon{Lat: -34.60, Lon: -58.40}
	outcome := PlanForce(context.Background(), "incident-1", incidentLocation, models.ForceFire, models.ForceFire, nil, nil, 1.0, 3, straightLineLookup, nil)

	assert.Empty(t, outcome.VehicleID)
	assert.Empty(t, outcome.AgentID)
	assert.Equal(t, models.ForceFire, outcome.Dispatch.Force)
}

func TestPlanForceFillsGeometryFromBestRoute(t *testing.T) {
	incidentLocation := models.LatLon{Lat: -34.60, Lon: -58.40}
	vehicles := []models.Vehicle{
		{ID: "v1", Force: models.ForceFire, Type: "fire_engine", Status: models.VehicleAvailable, CurrentLocation: &models.LatLon{Lat: -34.601, Lon: -58.401}},
	}

	stubGeometry := models.LineString{{Lon: -58.401, Lat: -34.601}, {Lon: -58.40, Lat: -34.60}}
	bestRoute := func(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (float64, float64, models.LineString) {
		return 1.5, 3.2, stubGeometry
	}

	outcome := PlanForce(context.Background(), "incident-1", incidentLocation, models.ForceFire, models.ForceFire, vehicles, nil, 1.0, 3, straightLineLookup, bestRoute)

	require.NotEmpty(t, outcome.RouteCandidates)
	assert.Equal(t, stubGeometry, outcome.RouteCandidates[0].Geometry)
	assert.Equal(t, 1.5, outcome.RouteCandidates[0].DistanceKM)
	assert.Equal(t, 3.2, outcome.RouteCandidates[0].EstimatedTimeMinutes)
}

func TestPrimaryForceSummaryPrecedence(t *testing.T) {
	outcomes := []DispatchOutcome{
		{Force: models.ForcePolice, VehicleID: "p1"},
		{Force: models.ForceMedical, VehicleID: "m1"},
	}
	force, vehicle, ok := PrimaryForceSummary(outcomes)
	require.True(t, ok)
	assert.Equal(t, models.ForceMedical, force)
	assert.Equal(t, "m1", vehicle)
}

func TestPrimaryForceSummaryNoneAssigned(t *testing.T) {
	_, _, ok := PrimaryForceSummary(nil)
	assert.False(t, ok)
}
