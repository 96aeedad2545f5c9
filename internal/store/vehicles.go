package store

import (
	"context"
	"database/sql"

	"github.com/caba911/dispatch/internal/models"
	"github.com/google/uuid"
)

// InsertVehicle persists a static-catalog vehicle, assigning it a UUID if
// the caller left ID unset (SPEC_FULL.md §6, static-catalog IDs use
// google/uuid rather than the ULIDs used for time-ordered entities).
func (s *Store) InsertVehicle(ctx context.Context, v models.Vehicle) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	curLat, curLon := latLonOf(v.CurrentLocation)
	tgtLat, tgtLon := latLonOf(v.TargetLocation)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vehicles (id, force, type, status, current_lat, current_lon, target_lat, target_lon, home_facility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, string(v.Force), v.Type, string(v.Status), curLat, curLon, tgtLat, tgtLon, nullStringPtr(v.HomeFacility),
	)
	return err
}

func (s *Store) ListVehiclesByForce(ctx context.Context, force models.ForceName) ([]models.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, force, type, status, current_lat, current_lon, target_lat, target_lon, home_facility
		FROM vehicles WHERE force = ?`, string(force))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVehicle(rows *sql.Rows) (models.Vehicle, error) {
	var v models.Vehicle
	var force, status string
	var curLat, curLon, tgtLat, tgtLon sql.NullFloat64
	var homeFacility sql.NullString

	if err := rows.Scan(&v.ID, &force, &v.Type, &status, &curLat, &curLon, &tgtLat, &tgtLon, &homeFacility); err != nil {
		return models.Vehicle{}, err
	}
	v.Force = models.ForceName(force)
	v.Status = models.VehicleStatus(status)
	v.CurrentLocation = latLonFromNullable(curLat, curLon)
	v.TargetLocation = latLonFromNullable(tgtLat, tgtLon)
	if homeFacility.Valid {
		hf := homeFacility.String
		v.HomeFacility = &hf
	}
	return v, nil
}

// SetVehicleStatus updates a vehicle's status and target_location, used by
// the Resource Selector's transitions (spec.md §4.5). target=nil clears it.
func (s *Store) SetVehicleStatus(ctx context.Context, tx *sql.Tx, vehicleID string, status models.VehicleStatus, target *models.LatLon) error {
	lat, lon := latLonOf(target)
	exec := s.dbExec(tx)
	_, err := exec.ExecContext(ctx, `UPDATE vehicles SET status = ?, target_lat = ?, target_lon = ? WHERE id = ?`,
		string(status), lat, lon, vehicleID)
	return err
}

func latLonOf(p *models.LatLon) (sql.NullFloat64, sql.NullFloat64) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.Lat, Valid: true}, sql.NullFloat64{Float64: p.Lon, Valid: true}
}

func latLonFromNullable(lat, lon sql.NullFloat64) *models.LatLon {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &models.LatLon{Lat: lat.Float64, Lon: lon.Float64}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
