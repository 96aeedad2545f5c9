package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caba911/dispatch/internal/greenwave"
	"github.com/caba911/dispatch/internal/models"
	"github.com/caba911/dispatch/internal/routing"
	"github.com/caba911/dispatch/internal/store"
	"github.com/caba911/dispatch/internal/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(t.TempDir() + "/dispatch.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	engine, err := triage.NewEngine(triage.ProviderRules, nil)
	require.NoError(t, err)

	routingEngine := routing.NewEngine(nil, routing.EngineConfig{Offline: true, CacheCapacity: 32})
	coordinator := greenwave.NewCoordinator(greenwave.NewCatalog(nil), greenwave.NewRegistry())

	fixedNow := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	return &Service{
		Store:        st,
		Triage:       engine,
		Routing:      routingEngine,
		GreenWave:    coordinator,
		VehicleLimit: 6,
		AgentLimit:   4,
		MaxRoutes:    3,
		Now:          func() time.Time { return fixedNow },
	}
}

func insertPendingIncident(t *testing.T, s *Service, code models.Code, description string) models.Incident {
	t.Helper()
	inc := models.Incident{
		ID:          "incident-1",
		Description: description,
		Location:    &models.LatLon{Lat: -34.60, Lon: -58.40},
		Code:        code,
		Priority:    code.Priority(),
		Status:      models.IncidentPending,
		OndaVerde:   code == models.CodeRed,
		ReportedAt:  s.now(),
	}
	require.NoError(t, s.Store.InsertIncident(context.Background(), inc))
	return inc
}

func TestPlanAssignsResourcesAndPersistsRoutes(t *testing.T) {
	s := newTestService(t)
	insertPendingIncident(t, s, models.CodeRed, "incendio en deposito")

	require.NoError(t, s.Store.InsertVehicle(context.Background(), models.Vehicle{
		ID: "v1", Force: models.ForceFire, Type: "fire_engine", Status: models.VehicleAvailable,
		CurrentLocation: &models.LatLon{Lat: -34.601, Lon: -58.401},
	}))

	result, err := s.Plan(context.Background(), "incident-1")
	require.NoError(t, err)
	assert.Equal(t, models.IncidentAssigned, result.Status)
	require.NotEmpty(t, result.Forces)
	require.NotEmpty(t, result.Routes)

	stored, err := s.Store.GetIncident(context.Background(), "incident-1")
	require.NoError(t, err)
	assert.Equal(t, models.IncidentAssigned, stored.Status)
	assert.Equal(t, models.ForceFire, stored.AssignedForce)
}

func TestPlanOnResolvedIncidentReturnsFrozenRoutes(t *testing.T) {
	s := newTestService(t)
	insertPendingIncident(t, s, models.CodeGreen, "llamada de rutina")
	require.NoError(t, s.Store.UpdateIncidentStatus(context.Background(), "incident-1", models.IncidentResolved))

	result, err := s.Plan(context.Background(), "incident-1")
	require.NoError(t, err)
	assert.Equal(t, models.IncidentResolved, result.Status)
	assert.Empty(t, result.Forces)
}

func TestGreenWaveRequiresRedCode(t *testing.T) {
	s := newTestService(t)
	insertPendingIncident(t, s, models.CodeGreen, "llamada de rutina")

	_, err := s.ActivateGreenWave(context.Background(), "incident-1")
	assert.Error(t, err)
}

func TestActivateGreenWaveTwiceIsIdempotent(t *testing.T) {
	s := newTestService(t)
	insertPendingIncident(t, s, models.CodeRed, "incendio en deposito")
	require.NoError(t, s.Store.InsertVehicle(context.Background(), models.Vehicle{
		ID: "v1", Force: models.ForceFire, Type: "fire_engine", Status: models.VehicleAvailable,
		CurrentLocation: &models.LatLon{Lat: -34.601, Lon: -58.401},
	}))
	_, err := s.Plan(context.Background(), "incident-1")
	require.NoError(t, err)

	first, err := s.ActivateGreenWave(context.Background(), "incident-1")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := s.ActivateGreenWave(context.Background(), "incident-1")
	require.NoError(t, err)
	require.Len(t, second, len(first))

	for i := range first {
		assert.Equal(t, first[i].WaveID, second[i].WaveID, "re-activating must reuse the same wave_id, not mint a duplicate overlapping entry")
	}
}

func TestResolveReleasesAndFreezes(t *testing.T) {
	s := newTestService(t)
	insertPendingIncident(t, s, models.CodeYellow, "robo a mano armada")
	require.NoError(t, s.Store.InsertVehicle(context.Background(), models.Vehicle{
		ID: "v1", Force: models.ForcePolice, Type: "patrol", Status: models.VehicleAvailable,
		CurrentLocation: &models.LatLon{Lat: -34.601, Lon: -58.401},
	}))
	_, err := s.Plan(context.Background(), "incident-1")
	require.NoError(t, err)

	inc, err := s.Resolve(context.Background(), "incident-1", "handled on scene")
	require.NoError(t, err)
	assert.Equal(t, models.IncidentResolved, inc.Status)
	assert.Equal(t, "handled on scene", inc.ResolutionNotes)

	vehicles, err := s.Store.ListVehiclesByForce(context.Background(), models.ForcePolice)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, models.VehicleAvailable, vehicles[0].Status)
}

func TestLiveSnapshotsCoversEnRouteDispatch(t *testing.T) {
	s := newTestService(t)
	insertPendingIncident(t, s, models.CodeYellow, "robo a mano armada")
	require.NoError(t, s.Store.InsertVehicle(context.Background(), models.Vehicle{
		ID: "v1", Force: models.ForcePolice, Type: "patrol", Status: models.VehicleAvailable,
		CurrentLocation: &models.LatLon{Lat: -34.601, Lon: -58.401},
	}))
	_, err := s.Plan(context.Background(), "incident-1")
	require.NoError(t, err)

	snapshots := s.LiveSnapshots(context.Background(), s.now().Add(30*time.Second))
	require.NotEmpty(t, snapshots)
	assert.Equal(t, "vehicle_v1", snapshots[0].ResourceID)
}

func TestHandlePlanEndToEndOverHTTP(t *testing.T) {
	s := newTestService(t)
	insertPendingIncident(t, s, models.CodeGreen, "llamada de rutina")

	mux := NewMux(s)
	req := httptest.NewRequest(http.MethodPost, "/incidents/incident-1/plan", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlePlanUnknownIncidentReturnsBadRequest(t *testing.T) {
	s := newTestService(t)
	mux := NewMux(s)

	req := httptest.NewRequest(http.MethodPost, "/incidents/missing/plan", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTrackingLiveReturnsEmptyArrayWhenNoneActive(t *testing.T) {
	s := newTestService(t)
	mux := NewMux(s)

	req := httptest.NewRequest(http.MethodGet, "/tracking/live", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
