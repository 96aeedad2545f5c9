// Package geo implements the pure geometric primitives the rest of the
// core builds on: great-circle distance, route-progress interpolation, and
// the deterministic fallback path used when no routing provider succeeds.
// Nothing in this package imports internal/models to keep it usable from
// internal/routing without the import cycle the design notes warn against.
package geo

import "math"

const earthRadiusM = 6371000.0

// Point is a plain lat/lon pair; it intentionally mirrors models.LatLon's
// shape without importing it.
type Point struct {
	Lat float64
	Lon float64
}

// LonLat mirrors models.LonLat's field order (GeoJSON: lon, lat).
type LonLat struct {
	Lon float64
	Lat float64
}

// HaversineMeters returns the great-circle distance between a and b in
// metres.
func HaversineMeters(a, b Point) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lon - a.Lon) * math.Pi / 180

	sinDPhi := math.Sin(dPhi / 2)
	sinDLambda := math.Sin(dLambda / 2)
	h := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// HaversineKM is the kilometre convenience form used by scoring code.
func HaversineKM(a, b Point) float64 {
	return HaversineMeters(a, b) / 1000.0
}

// Interpolate walks a LineString (lon/lat order) and returns the point
// reached after covering fraction p of the total length, p clamped to
// [0,1]. A single-point LineString returns that point for any p
// (spec.md §8 boundary behaviour).
func Interpolate(line []LonLat, p float64) Point {
	if len(line) == 0 {
		return Point{}
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	if len(line) == 1 {
		return Point{Lat: line[0].Lat, Lon: line[0].Lon}
	}

	segLen := make([]float64, len(line)-1)
	total := 0.0
	for i := 0; i < len(line)-1; i++ {
		d := HaversineMeters(
			Point{Lat: line[i].Lat, Lon: line[i].Lon},
			Point{Lat: line[i+1].Lat, Lon: line[i+1].Lon},
		)
		segLen[i] = d
		total += d
	}
	if total == 0 {
		return Point{Lat: line[0].Lat, Lon: line[0].Lon}
	}

	target := p * total
	covered := 0.0
	for i, d := range segLen {
		if covered+d >= target || i == len(segLen)-1 {
			remaining := target - covered
			frac := 0.0
			if d > 0 {
				frac = remaining / d
			}
			if frac > 1 {
				frac = 1
			}
			if frac < 0 {
				frac = 0
			}
			lat := line[i].Lat + (line[i+1].Lat-line[i].Lat)*frac
			lon := line[i].Lon + (line[i+1].Lon-line[i].Lon)*frac
			return Point{Lat: lat, Lon: lon}
		}
		covered += d
	}
	last := line[len(line)-1]
	return Point{Lat: last.Lat, Lon: last.Lon}
}

// metresPerDegreeLat is close enough for the small (~100m) lateral offsets
// the grid fallback needs; it is not used for real distance math.
const metresPerDegreeLat = 111320.0

// GridPath produces a deterministic 6-point zig-zag path between start and
// end, guaranteeing at least 3 points so downstream code never receives a
// trivial straight line (spec.md §4.1).
func GridPath(start, end Point) []LonLat {
	const points = 6
	const lateralOffsetM = 100.0

	metresPerDegreeLon := metresPerDegreeLat * math.Cos(start.Lat*math.Pi/180)
	if metresPerDegreeLon == 0 {
		metresPerDegreeLon = metresPerDegreeLat
	}
	latOffset := lateralOffsetM / metresPerDegreeLat
	lonOffset := lateralOffsetM / metresPerDegreeLon

	out := make([]LonLat, 0, points)
	for i := 0; i < points; i++ {
		t := float64(i) / float64(points-1)
		lat := start.Lat + (end.Lat-start.Lat)*t
		lon := start.Lon + (end.Lon-start.Lon)*t
		if i%2 == 1 {
			lat += latOffset
			lon += lonOffset
		} else if i != 0 && i != points-1 {
			lat -= latOffset
			lon -= lonOffset
		}
		out = append(out, LonLat{Lon: lon, Lat: lat})
	}
	return out
}

// PointToSegmentDistanceMeters returns the perpendicular distance in
// metres from p to the segment a-b (approximated in a local equirectangular
// projection, adequate at urban scale for the 500m/50m thresholds the core
// uses).
func PointToSegmentDistanceMeters(p, a, b Point) float64 {
	toXY := func(pt Point) (x, y float64) {
		metresPerDegreeLon := metresPerDegreeLat * math.Cos(a.Lat*math.Pi/180)
		return pt.Lon * metresPerDegreeLon, pt.Lat * metresPerDegreeLat
	}
	px, py := toXY(p)
	ax, ay := toXY(a)
	bx, by := toXY(b)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	projX := ax + t*dx
	projY := ay + t*dy
	return math.Hypot(px-projX, py-projY)
}
