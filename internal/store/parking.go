package store

import (
	"context"
	"database/sql"

	"github.com/caba911/dispatch/internal/models"
)

// ParkingSpot support is a supplemented feature (SPEC_FULL.md); it is read
// and written but never consulted by the core dispatch pipeline.
func (s *Store) InsertParkingSpot(ctx context.Context, p models.ParkingSpot) error {
	var maxDuration sql.NullFloat64
	if p.MaxDurationHours != nil {
		maxDuration = sql.NullFloat64{Float64: *p.MaxDurationHours, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parking_spots (id, name, lat, lon, total_spaces, available_spaces, spot_type, is_paid, max_duration_hours, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Location.Lat, p.Location.Lon, p.TotalSpaces, p.AvailableSpaces, p.SpotType,
		boolToInt(p.IsPaid), maxDuration, boolToInt(p.IsActive),
	)
	return err
}

func (s *Store) ListActiveParkingSpots(ctx context.Context) ([]models.ParkingSpot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, lat, lon, total_spaces, available_spaces, spot_type, is_paid, max_duration_hours, is_active
		FROM parking_spots WHERE is_active = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ParkingSpot
	for rows.Next() {
		var p models.ParkingSpot
		var isPaid, isActive int
		var maxDuration sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &p.Location.Lat, &p.Location.Lon, &p.TotalSpaces, &p.AvailableSpaces,
			&p.SpotType, &isPaid, &maxDuration, &isActive); err != nil {
			return nil, err
		}
		p.IsPaid = isPaid != 0
		p.IsActive = isActive != 0
		if maxDuration.Valid {
			v := maxDuration.Float64
			p.MaxDurationHours = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
