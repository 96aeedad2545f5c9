package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/caba911/dispatch/internal/models"
)

// InsertIncident persists a newly classified, pending incident.
func (s *Store) InsertIncident(ctx context.Context, inc models.Incident) error {
	var lat, lon sql.NullFloat64
	if inc.Location != nil {
		lat, lon = sql.NullFloat64{Float64: inc.Location.Lat, Valid: true}, sql.NullFloat64{Float64: inc.Location.Lon, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents (id, description, address, lat, lon, code, priority, status, onda_verde, assigned_force, assigned_vehicle, reported_at, resolved_at, resolution_notes, ai_response)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ID, inc.Description, inc.Address, lat, lon, string(inc.Code), inc.Priority, string(inc.Status),
		boolToInt(inc.OndaVerde), nullString(string(inc.AssignedForce)), nullString(inc.AssignedVehicle),
		inc.ReportedAt, nullTime(inc.ResolvedAt), inc.ResolutionNotes, inc.AIResponse,
	)
	return err
}

// GetIncident loads one incident by ID.
func (s *Store) GetIncident(ctx context.Context, id string) (models.Incident, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, description, address, lat, lon, code, priority, status, onda_verde, assigned_force, assigned_vehicle, reported_at, resolved_at, resolution_notes, ai_response
		FROM incidents WHERE id = ?`, id)
	return scanIncident(row)
}

func scanIncident(row *sql.Row) (models.Incident, error) {
	var inc models.Incident
	var lat, lon sql.NullFloat64
	var code, status string
	var assignedForce, assignedVehicle, resolutionNotes, aiResponse sql.NullString
	var ondaVerde int
	var resolvedAt sql.NullTime

	err := row.Scan(&inc.ID, &inc.Description, &inc.Address, &lat, &lon, &code, &inc.Priority, &status,
		&ondaVerde, &assignedForce, &assignedVehicle, &inc.ReportedAt, &resolvedAt, &resolutionNotes, &aiResponse)
	if err != nil {
		return models.Incident{}, err
	}

	inc.Code = models.Code(code)
	inc.Status = models.IncidentStatus(status)
	inc.OndaVerde = ondaVerde != 0
	inc.AssignedForce = models.ForceName(assignedForce.String)
	inc.AssignedVehicle = assignedVehicle.String
	inc.ResolutionNotes = resolutionNotes.String
	inc.AIResponse = aiResponse.String
	if lat.Valid && lon.Valid {
		inc.Location = &models.LatLon{Lat: lat.Float64, Lon: lon.Float64}
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		inc.ResolvedAt = &t
	}
	return inc, nil
}

// UpdateIncidentStatus transitions an incident's status outside a re-plan
// transaction (used for the pending->assigned transition that isn't tied
// to route rewriting, e.g. when a force dispatch has no resource yet).
func (s *Store) UpdateIncidentStatus(ctx context.Context, id string, status models.IncidentStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE incidents SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// AppendIncidentNote appends one line to resolution_notes outside the
// resolve transaction, used when a pipeline stage degrades during
// planning (e.g. the routing engine fell through to its deterministic
// fallback) so the operator sees it without waiting for resolution
// (spec.md §7 "a free-form note is appended to resolution_notes").
func (s *Store) AppendIncidentNote(ctx context.Context, id, note string) error {
	inc, err := s.GetIncident(ctx, id)
	if err != nil {
		return err
	}
	inc.AppendDegradationNote(note)
	_, err = s.db.ExecContext(ctx, `UPDATE incidents SET resolution_notes = ? WHERE id = ?`, inc.ResolutionNotes, id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
