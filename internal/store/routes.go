package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/caba911/dispatch/internal/models"
)

// insertRoute inserts one CalculatedRoute row using exec (either the plain
// db handle or a transaction), so it can participate in the atomic re-plan
// of transactions.go.
func insertRoute(ctx context.Context, exec execer, r models.CalculatedRoute) error {
	geomJSON, err := json.Marshal(r.Geometry)
	if err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO calculated_routes (id, incident_id, resource_id, resource_type, distance_km, estimated_time_minutes, priority_score, geometry, status, calculated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.IncidentID, r.ResourceID, r.ResourceType, r.DistanceKM, r.EstimatedTimeMinutes, r.PriorityScore,
		string(geomJSON), string(r.Status), r.CalculatedAt, nullTime(r.CompletedAt),
	)
	return err
}

// ListActiveRoutes returns active routes for an incident ordered by the
// (priority_score asc, distance_km asc) key of spec.md §3.
func (s *Store) ListActiveRoutes(ctx context.Context, incidentID string) ([]models.CalculatedRoute, error) {
	rows, err := s.db.QueryContext(ctx, `
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

func scanRoute(rows *sql.Rows) (models.CalculatedRoute, error) {
	var r models.CalculatedRoute
	var status, geomJSON string
	var completedAt sql.NullTime

	if err := rows.Scan(&r.ID, &r.IncidentID, &r.ResourceID, &r.ResourceType, &r.DistanceKM, &r.EstimatedTimeMinutes,
		&r.PriorityScore, &geomJSON, &status, &r.CalculatedAt, &completedAt); err != nil {
		return models.CalculatedRoute{}, err
	}
	r.Status = models.RouteStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(geomJSON), &r.Geometry); err != nil {
		return models.CalculatedRoute{}, err
	}
	return r, nil
}

// deleteActiveRoutes removes all active routes for an incident, the first
// half of the "rewrite as a set" semantics of spec.md §4.6/§5.
func deleteActiveRoutes(ctx context.Context, exec execer, incidentID string) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM calculated_routes WHERE incident_id = ? AND status = ?`,
		incidentID, string(models.RouteActive))
	return err
}
