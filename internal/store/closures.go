package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/caba911/dispatch/internal/models"
	"github.com/google/uuid"
)

// InsertStreetClosure persists a static-catalog street closure, assigning
// it a UUID if the caller (or the fixture feed it came from) left ID
// unset (SPEC_FULL.md §6).
func (s *Store) InsertStreetClosure(ctx context.Context, c models.StreetClosure) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	lat, lon := latLonOf(c.PointLocation)
	geomJSON, err := json.Marshal(c.Geometry)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO street_closures (id, name, closure_type, point_lat, point_lon, geometry, start_at, end_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.ClosureType, lat, lon, string(geomJSON), c.StartAt, nullTime(c.EndAt), boolToInt(c.IsActive),
	)
	return err
}

// ListActiveClosures returns closures flagged is_active in a window around
// now; ActiveAt still filters precisely since start_at/end_at comparisons
// in SQL and in Go must agree (spec.md §3 "currently active").
func (s *Store) ListActiveClosures(ctx context.Context, now time.Time) ([]models.StreetClosure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, closure_type, point_lat, point_lon, geometry, start_at, end_at, is_active
		FROM street_closures WHERE is_active = 1 AND start_at <= ?`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StreetClosure
	for rows.Next() {
		c, err := scanClosure(rows)
		if err != nil {
			return nil, err
		}
		if c.ActiveAt(now) {
			out = append(out, c)
		}
	}
	return out, rows.Err()
}

func scanClosure(rows *sql.Rows) (models.StreetClosure, error) {
	var c models.StreetClosure
	var lat, lon sql.NullFloat64
	var geomJSON string
	var endAt sql.NullTime
	var isActive int

	if err := rows.Scan(&c.ID, &c.Name, &c.ClosureType, &lat, &lon, &geomJSON, &c.StartAt, &endAt, &isActive); err != nil {
		return models.StreetClosure{}, err
	}
	c.PointLocation = latLonFromNullable(lat, lon)
	c.IsActive = isActive != 0
	if endAt.Valid {
		t := endAt.Time
		c.EndAt = &t
	}
	if geomJSON != "" && geomJSON != "null" {
		if err := json.Unmarshal([]byte(geomJSON), &c.Geometry); err != nil {
			return models.StreetClosure{}, err
		}
	}
	return c, nil
}
