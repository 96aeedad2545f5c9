package store

import (
	"context"
	"database/sql"

	"github.com/caba911/dispatch/internal/models"
)

// getIncidentTx and its siblings below read through an in-flight
// transaction, used by transactions.go so the atomic boundaries of
// spec.md §5 see a consistent snapshot of the rows they're about to
// rewrite.
func (s *Store) getIncidentTx(ctx context.Context, tx *sql.Tx, id string) (models.Incident, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, description, address, lat, lon, code, priority, status, onda_verde, assigned_force, assigned_vehicle, reported_at, resolved_at, resolution_notes, ai_response
		FROM incidents WHERE id = ?`, id)
	return scanIncident(row)
}

func (s *Store) listActiveRoutesTx(ctx context.Context, tx *sql.Tx, incidentID string) ([]models.CalculatedRoute, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, incident_id, resource_id, resource_type, distance_km, estimated_time_minutes, priority_score, geometry, status, calculated_at, completed_at
		FROM calculated_routes WHERE incident_id = ? AND status = ?
		ORDER BY priority_score ASC, distance_km ASC`, incidentID, string(models.RouteActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CalculatedRoute
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) listDispatchesTx(ctx context.Context, tx *sql.Tx, incidentID string) ([]models.Dispatch, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, incident_id, force, vehicle_id, agent_id, status, created_at
		FROM dispatches WHERE incident_id = ?`, incidentID)
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
