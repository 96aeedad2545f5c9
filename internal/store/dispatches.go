package store

import (
	"context"
	"database/sql"

	"github.com/caba911/dispatch/internal/models"
)

// upsertDispatch enforces "at most one Dispatch per (incident, force)"
// (spec.md §3) via the UNIQUE(incident_id, force) constraint, updating in
// place when one already exists.
func upsertDispatch(ctx context.Context, exec execer, d models.Dispatch) (models.Dispatch, error) {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO dispatches (id, incident_id, force, vehicle_id, agent_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(incident_id, force) DO UPDATE SET
			vehicle_id = excluded.vehicle_id,
			agent_id = excluded.agent_id,
			status = excluded.status`,
		d.ID, d.IncidentID, string(d.Force), nullString(d.VehicleID), nullString(d.AgentID), string(d.Status), d.CreatedAt,
	)
	return d, err
}

func (s *Store) ListDispatchesByIncident(ctx context.Context, incidentID string) ([]models.Dispatch, error) {
	rows, err := s.db.QueryContext(ctx, `
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

func scanDispatch(rows *sql.Rows) (models.Dispatch, error) {
	var d models.Dispatch
	var force, status string
	var vehicleID, agentID sql.NullString

	if err := rows.Scan(&d.ID, &d.IncidentID, &force, &vehicleID, &agentID, &status, &d.CreatedAt); err != nil {
		return models.Dispatch{}, err
	}
	d.Force = models.ForceName(force)
	d.Status = models.DispatchStatus(status)
	d.VehicleID = vehicleID.String
	d.AgentID = agentID.String
	return d, nil
}

// finishDispatches marks every non-finished dispatch for incidentID as
// finished, part of the resolution transaction (spec.md §5).
func finishDispatches(ctx context.Context, exec execer, incidentID string) error {
	_, err := exec.ExecContext(ctx, `UPDATE dispatches SET status = ? WHERE incident_id = ? AND status != ?`,
		string(models.DispatchFinished), incidentID, string(models.DispatchFinished))
	return err
}
