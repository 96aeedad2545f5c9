package store

import (
	"context"
	"database/sql"

	"github.com/caba911/dispatch/internal/models"
	"github.com/google/uuid"
)

// InsertAgent persists a static-catalog agent, assigning it a UUID if the
// caller left ID unset (SPEC_FULL.md §6).
func (s *Store) InsertAgent(ctx context.Context, a models.Agent) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	curLat, curLon := latLonOf(a.CurrentLocation)
	tgtLat, tgtLon := latLonOf(a.TargetLocation)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (id, force, name, role, status, current_lat, current_lon, target_lat, target_lon, assigned_vehicle, home_facility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Force), a.Name, a.Role, string(a.Status), curLat, curLon, tgtLat, tgtLon,
		nullStringPtr(a.AssignedVehicle), nullStringPtr(a.HomeFacility),
	)
	return err
}

func (s *Store) ListAgentsByForce(ctx context.Context, force models.ForceName) ([]models.Agent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, force, name, role, status, current_lat, current_lon, target_lat, target_lon, assigned_vehicle, home_facility
		FROM agents WHERE force = ?`, string(force))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAgent(rows *sql.Rows) (models.Agent, error) {
	var a models.Agent
	var force, status string
	var curLat, curLon, tgtLat, tgtLon sql.NullFloat64
	var assignedVehicle, homeFacility sql.NullString

	if err := rows.Scan(&a.ID, &force, &a.Name, &a.Role, &status, &curLat, &curLon, &tgtLat, &tgtLon, &assignedVehicle, &homeFacility); err != nil {
		return models.Agent{}, err
	}
	a.Force = models.ForceName(force)
	a.Status = models.AgentStatus(status)
	a.CurrentLocation = latLonFromNullable(curLat, curLon)
	a.TargetLocation = latLonFromNullable(tgtLat, tgtLon)
	if assignedVehicle.Valid {
		v := assignedVehicle.String
		a.AssignedVehicle = &v
	}
	if homeFacility.Valid {
		hf := homeFacility.String
		a.HomeFacility = &hf
	}
	return a, nil
}

// SetAgentStatus updates an agent's status and target_location (spec.md §4.5).
func (s *Store) SetAgentStatus(ctx context.Context, tx *sql.Tx, agentID string, status models.AgentStatus, target *models.LatLon) error {
	lat, lon := latLonOf(target)
	exec := s.dbExec(tx)
	_, err := exec.ExecContext(ctx, `UPDATE agents SET status = ?, target_lat = ?, target_lon = ? WHERE id = ?`,
		string(status), lat, lon, agentID)
	return err
}
