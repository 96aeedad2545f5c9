package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/caba911/dispatch/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dispatch.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAppliesSchema(t *testing.T) {
	s := newTestStore(t)
	_, err := s.db.Exec("SELECT 1 FROM incidents LIMIT 1")
	assert.NoError(t, err)
}

func TestInsertAndGetIncident(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
	inc := models.Incident{
		ID:          "incident-1",
		Description: "incendio en edificio",
		Code:        models.CodeRed,
		Priority:    10,
		Status:      models.IncidentPending,
		OndaVerde:   true,
		ReportedAt:  now,
		Location:    &models.LatLon{Lat: -34.60, Lon: -58.40},
	}
	require.NoError(t, s.InsertIncident(ctx, inc))

	got, err := s.GetIncident(ctx, "incident-1")
	require.NoError(t, err)
	assert.Equal(t, models.CodeRed, got.Code)
	assert.True(t, got.OndaVerde)
	require.NotNil(t, got.Location)
	assert.InDelta(t, -34.60, got.Location.Lat, 0.0001)
}

func TestVehicleStatusTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := models.Vehicle{ID: "v1", Force: models.ForceFire, Type: "fire_engine", Status: models.VehicleAvailable,
		CurrentLocation: &models.LatLon{Lat: -34.6, Lon: -58.4}}
	require.NoError(t, s.InsertVehicle(ctx, v))

	require.NoError(t, s.SetVehicleStatus(ctx, nil, "v1", models.VehicleEnRoute, &models.LatLon{Lat: -34.61, Lon: -58.41}))

	vehicles, err := s.ListVehiclesByForce(ctx, models.ForceFire)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, models.VehicleEnRoute, vehicles[0].Status)
	require.NotNil(t, vehicles[0].TargetLocation)
}

func TestInsertVehicleAssignsUUIDWhenIDEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := models.Vehicle{Force: models.ForcePolice, Type: "patrol", Status: models.VehicleAvailable}
	require.NoError(t, s.InsertVehicle(ctx, v))

	vehicles, err := s.ListVehiclesByForce(ctx, models.ForcePolice)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	_, err = uuid.Parse(vehicles[0].ID)
	assert.NoError(t, err, "store-assigned vehicle ID should be a valid UUID")
}

func TestDispatchUniquenessPerIncidentForce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestIncident(t, s, "incident-1")

	now := time.Now()
	d := models.Dispatch{ID: "d1", IncidentID: "incident-1", Force: models.ForceFire, Status: models.DispatchDispatched, CreatedAt: now}
	_, err := upsertDispatch(ctx, s.db, d)
	require.NoError(t, err)

	d2 := models.Dispatch{ID: "d1-retry", IncidentID: "incident-1", Force: models.ForceFire, VehicleID: "v2", Status: models.DispatchEnRoute, CreatedAt: now}
	_, err = upsertDispatch(ctx, s.db, d2)
	require.NoError(t, err)

	dispatches, err := s.ListDispatchesByIncident(ctx, "incident-1")
	require.NoError(t, err)
	require.Len(t, dispatches, 1)
	assert.Equal(t, "v2", dispatches[0].VehicleID)
}

func TestReplanRejectedWhenIncidentResolved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	inc := models.Incident{ID: "incident-1", Description: "x", Code: models.CodeGreen, Priority: 1,
		Status: models.IncidentResolved, ReportedAt: now, ResolvedAt: &now}
	require.NoError(t, s.InsertIncident(ctx, inc))

	frozenRoute := models.CalculatedRoute{
		ID: "route-1", IncidentID: "incident-1", ResourceID: "vehicle_v1", ResourceType: "fire_engine",
		Status: models.RouteActive, CalculatedAt: now, Geometry: models.LineString{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}},
	}
	require.NoError(t, insertRoute(ctx, s.db, frozenRoute))

	routes, err := s.Replan(ctx, ReplanInput{
		IncidentID: "incident-1",
		NewStatus:  models.IncidentAssigned,
		Routes: []models.CalculatedRoute{
			{ID: "route-2", IncidentID: "incident-1", Status: models.RouteActive, CalculatedAt: now, Geometry: models.LineString{{Lon: 3, Lat: 3}, {Lon: 4, Lat: 4}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "route-1", routes[0].ID)

	got, err := s.GetIncident(ctx, "incident-1")
	require.NoError(t, err)
	assert.Equal(t, models.IncidentResolved, got.Status)
}

func TestReplanRewritesRoutesAsASet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestIncident(t, s, "incident-1")
	now := time.Now()

	old := models.CalculatedRoute{ID: "old-route", IncidentID: "incident-1", Status: models.RouteActive, CalculatedAt: now,
		Geometry: models.LineString{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}}
	require.NoError(t, insertRoute(ctx, s.db, old))

	newRoutes := []models.CalculatedRoute{
		{ID: "new-route", IncidentID: "incident-1", ResourceID: "vehicle_v1", Status: models.RouteActive, CalculatedAt: now,
			Geometry: models.LineString{{Lon: 3, Lat: 3}, {Lon: 4, Lat: 4}}},
	}

	routes, err := s.Replan(ctx, ReplanInput{
		IncidentID:      "incident-1",
		NewStatus:       models.IncidentAssigned,
		AssignedForce:   models.ForceFire,
		AssignedVehicle: "v1",
		Routes:          newRoutes,
	})
	require.NoError(t, err)
	require.Len(t, routes, 1)

	stored, err := s.ListActiveRoutes(ctx, "incident-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "new-route", stored[0].ID)
}

func TestResolveReleasesResourcesAndCompletesRoutes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestIncident(t, s, "incident-1")
	now := time.Now()

	v := models.Vehicle{ID: "v1", Force: models.ForceFire, Status: models.VehicleEnRoute, CurrentLocation: &models.LatLon{Lat: 1, Lon: 1}}
	require.NoError(t, s.InsertVehicle(ctx, v))

	d := models.Dispatch{ID: "d1", IncidentID: "incident-1", Force: models.ForceFire, VehicleID: "v1", Status: models.DispatchEnRoute, CreatedAt: now}
	_, err := upsertDispatch(ctx, s.db, d)
	require.NoError(t, err)

	route := models.CalculatedRoute{ID: "r1", IncidentID: "incident-1", ResourceID: "vehicle_v1", Status: models.RouteActive,
		CalculatedAt: now, Geometry: models.LineString{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}}
	require.NoError(t, insertRoute(ctx, s.db, route))

	require.NoError(t, s.Resolve(ctx, "incident-1", "resolved by operator", now))

	got, err := s.GetIncident(ctx, "incident-1")
	require.NoError(t, err)
	assert.Equal(t, models.IncidentResolved, got.Status)

	vehicles, err := s.ListVehiclesByForce(ctx, models.ForceFire)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, models.VehicleAvailable, vehicles[0].Status)

	activeRoutes, err := s.ListActiveRoutes(ctx, "incident-1")
	require.NoError(t, err)
	assert.Empty(t, activeRoutes)
}

func insertTestIncident(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.InsertIncident(context.Background(), models.Incident{
		ID: id, Description: "test", Code: models.CodeGreen, Priority: 1,
		Status: models.IncidentPending, ReportedAt: time.Now(),
	})
	require.NoError(t, err)
}
