package store

import (
	"context"
	"database/sql"

	"github.com/caba911/dispatch/internal/models"
	"github.com/google/uuid"
)

// InsertFacility persists a static-catalog facility, assigning it a UUID
// if the caller left ID unset (SPEC_FULL.md §6).
func (s *Store) InsertFacility(ctx context.Context, f models.Facility) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	lat, lon := latLonOf(f.Location)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facilities (id, kind, force, lat, lon) VALUES (?, ?, ?, ?, ?)`,
		f.ID, string(f.Kind), string(f.Force), lat, lon,
	)
	return err
}

// DetachVehiclesFromFacility sets home_facility to NULL for every vehicle
// owned by facilityID, matching spec.md §3's "Deleting a facility detaches
// vehicles (sets home to null) rather than cascading".
func (s *Store) DetachVehiclesFromFacility(ctx context.Context, facilityID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE vehicles SET home_facility = NULL WHERE home_facility = ?`, facilityID)
	return err
}

func (s *Store) DeleteFacility(ctx context.Context, facilityID string) error {
	if err := s.DetachVehiclesFromFacility(ctx, facilityID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, facilityID)
	return err
}

func (s *Store) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, force, lat, lon FROM facilities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Facility
	for rows.Next() {
		var f models.Facility
		var kind, force string
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&f.ID, &kind, &force, &lat, &lon); err != nil {
			return nil, err
		}
		f.Kind = models.FacilityKind(kind)
		f.Force = models.ForceName(force)
		f.Location = latLonFromNullable(lat, lon)
		out = append(out, f)
	}
	return out, rows.Err()
}
