package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/caba911/dispatch/internal/models"
)

// ListActiveDispatches returns every dispatch not yet finished (dispatched,
// en_route or on_scene) across all incidents, the read path the Tracking
// Engine polls. A freshly planned dispatch is "dispatched" while its
// assigned resource is already en_route, so it is included.
func (s *Store) ListActiveDispatches(ctx context.Context) ([]models.Dispatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_id, force, vehicle_id, agent_id, status, created_at
		FROM dispatches WHERE status IN (?, ?, ?)`,
		string(models.DispatchDispatched), string(models.DispatchEnRoute), string(models.DispatchOnScene))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetActiveRouteForResource loads the single active route for one resource
// within an incident, used to pair a Dispatch with the CalculatedRoute the
// Tracking Engine interpolates along.
func (s *Store) GetActiveRouteForResource(ctx context.Context, incidentID, resourceID string) (models.CalculatedRoute, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, incident_id, resource_id, resource_type, distance_km, estimated_time_minutes, priority_score, geometry, status, calculated_at, completed_at
		FROM calculated_routes WHERE incident_id = ? AND resource_id = ? AND status = ?
		ORDER BY calculated_at DESC LIMIT 1`, incidentID, resourceID, string(models.RouteActive))

	r, err := scanRouteRow(row)
	if err == sql.ErrNoRows {
		return models.CalculatedRoute{}, false, nil
	}
	if err != nil {
		return models.CalculatedRoute{}, false, err
	}
	return r, true, nil
}

func scanRouteRow(row *sql.Row) (models.CalculatedRoute, error) {
	var r models.CalculatedRoute
	var status, geomJSON string
	var completedAt sql.NullTime

	if err := row.Scan(&r.ID, &r.IncidentID, &r.ResourceID, &r.ResourceType, &r.DistanceKM, &r.EstimatedTimeMinutes,
		&r.PriorityScore, &geomJSON, &status, &r.CalculatedAt, &completedAt); err != nil {
		return models.CalculatedRoute{}, err
	}
	r.Status = models.RouteStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	if geomJSON != "" && geomJSON != "null" {
		if err := json.Unmarshal([]byte(geomJSON), &r.Geometry); err != nil {
			return models.CalculatedRoute{}, err
		}
	}
	return r, nil
}
