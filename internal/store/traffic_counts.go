package store

import (
	"context"
	"time"

	"github.com/caba911/dispatch/internal/models"
)

func (s *Store) InsertTrafficCount(ctx context.Context, c models.TrafficCount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO traffic_counts (id, lat, lon, count_type, count_value, unit, timestamp, period_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Location.Lat, c.Location.Lon, string(c.CountType), c.CountValue, c.Unit, c.Timestamp, c.PeriodMinutes,
	)
	return err
}

// RecentTrafficCounts returns counts recorded since `since`, read-only
// input to the Closure/Traffic Adjuster's congestion sampling (spec.md §4.4).
func (s *Store) RecentTrafficCounts(ctx context.Context, since time.Time) ([]models.TrafficCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lat, lon, count_type, count_value, unit, timestamp, period_minutes
		FROM traffic_counts WHERE timestamp >= ?`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TrafficCount
	for rows.Next() {
		var c models.TrafficCount
		var countType string
		if err := rows.Scan(&c.ID, &c.Location.Lat, &c.Location.Lon, &countType, &c.CountValue, &c.Unit, &c.Timestamp, &c.PeriodMinutes); err != nil {
			return nil, err
		}
		c.CountType = models.TrafficCountType(countType)
		out = append(out, c)
	}
	return out, rows.Err()
}
