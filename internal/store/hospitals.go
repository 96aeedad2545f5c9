package store

import (
	"context"
	"database/sql"

	"github.com/caba911/dispatch/internal/models"
	"github.com/google/uuid"
)

// InsertHospital persists a static-catalog hospital, assigning it a UUID
// if the caller left ID unset (SPEC_FULL.md §6).
func (s *Store) InsertHospital(ctx context.Context, h models.Hospital) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	lat, lon := latLonOf(h.Location)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hospitals (id, name, lat, lon, total_beds, occupied_beds) VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, lat, lon, h.TotalBeds, h.OccupiedBeds,
	)
	return err
}

// UpdateHospitalOccupancy updates occupied beds, used as hospitals report
// capacity changes (SPEC_FULL.md "Supplemented features" -- hospital bed
// tracking).
func (s *Store) UpdateHospitalOccupancy(ctx context.Context, hospitalID string, occupiedBeds int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE hospitals SET occupied_beds = ? WHERE id = ?`, occupiedBeds, hospitalID)
	return err
}

func (s *Store) ListHospitals(ctx context.Context) ([]models.Hospital, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, lat, lon, total_beds, occupied_beds FROM hospitals`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Hospital
	for rows.Next() {
		var h models.Hospital
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&h.ID, &h.Name, &lat, &lon, &h.TotalBeds, &h.OccupiedBeds); err != nil {
			return nil, err
		}
		h.Location = latLonFromNullable(lat, lon)
		out = append(out, h)
	}
	return out, rows.Err()
}
