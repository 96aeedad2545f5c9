package traffic

import (
	"time"

	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/models"
)

const (
	sampleIntervalMeters = 500.0
	sampleRadiusMeters   = 200.0
	sampleWindow         = 2 * time.Hour
)

// CongestionFactor samples route every 500m, gathers nearby recent
// TrafficCount rows, and returns the max per-sample multiplier across the
// whole route, per spec.md §4.4.
func CongestionFactor(route []geo.LonLat, counts []models.TrafficCount, now time.Time) float64 {
	if len(route) < 2 {
		return 1.0
	}

	samples := sampleRoute(route, sampleIntervalMeters)
	maxFactor := 1.0

	for _, s := range samples {
		factor := factorAtSample(s, counts, now)
		if factor > maxFactor {
			maxFactor = factor
		}
	}
	return maxFactor
}

// sampleRoute walks the polyline and returns points every intervalMeters,
// including the first and last vertex.
func sampleRoute(route []geo.LonLat, intervalMeters float64) []geo.Point {
	points := make([]geo.Point, 0, len(route))
	points = append(points, toPoint(route[0]))

	carried := 0.0
	for i := 1; i < len(route); i++ {
		a := toPoint(route[i-1])
		b := toPoint(route[i])
		segLen := geo.HaversineMeters(a, b)
		if segLen == 0 {
			continue
		}
		pos := carried
		for pos+intervalMeters <= carried+segLen {
			pos += intervalMeters
			frac := (pos - carried) / segLen
			points = append(points, lerp(a, b, frac))
		}
		carried += segLen
	}
	last := toPoint(route[len(route)-1])
	if points[len(points)-1] != last {
		points = append(points, last)
	}
	return points
}

func lerp(a, b geo.Point, frac float64) geo.Point {
	return geo.Point{
		Lat: a.Lat + (b.Lat-a.Lat)*frac,
		Lon: a.Lon + (b.Lon-a.Lon)*frac,
	}
}

// factorAtSample weights nearby counts by inverse distance and averages
// them into a single multiplier for this sample, matching the original
// system's get_traffic_congestion_factor (weighted_factor/total_weight),
// not a max over individual counts -- several moderately congested counts
// near one sample should combine toward a higher factor, not collapse to
// whichever single count blends highest.
func factorAtSample(sample geo.Point, counts []models.TrafficCount, now time.Time) float64 {
	var weightedFactor, totalWeight float64
	for _, c := range counts {
		if now.Sub(c.Timestamp) > sampleWindow || now.Before(c.Timestamp) {
			continue
		}
		p := geo.Point{Lat: c.Location.Lat, Lon: c.Location.Lon}
		dist := geo.HaversineMeters(sample, p)
		if dist > sampleRadiusMeters {
			continue
		}

		weight := inverseDistanceWeight(dist)
		weightedFactor += multiplierFor(c) * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 1.0
	}
	return weightedFactor / totalWeight
}

func inverseDistanceWeight(distMeters float64) float64 {
	if distMeters <= 1.0 {
		return 1.0
	}
	return sampleRadiusMeters / (sampleRadiusMeters + distMeters)
}

func multiplierFor(c models.TrafficCount) float64 {
	switch c.CountType {
	case models.CountVehicle:
		switch {
		case c.CountValue > 2000:
			return 1.8
		case c.CountValue > 1500:
			return 1.5
		case c.CountValue > 1000:
			return 1.2
		default:
			return 1.0
		}
	case models.CountSpeed:
		switch {
		case c.CountValue < 10:
			return 2.0
		case c.CountValue < 20:
			return 1.6
		case c.CountValue < 30:
			return 1.3
		case c.CountValue < 40:
			return 1.1
		default:
			return 1.0
		}
	case models.CountOccupancy:
		switch {
		case c.CountValue > 90:
			return 2.0
		case c.CountValue > 70:
			return 1.5
		case c.CountValue > 50:
			return 1.2
		default:
			return 1.0
		}
	default:
		return 1.0
	}
}
