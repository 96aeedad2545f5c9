// Package traffic implements the Closure/Traffic Adjuster of spec.md §4.4:
// detecting a route's intersection with active street closures, requesting
// alternative routes when one is found, and scaling a route's estimated
// duration by a congestion factor sampled from recent traffic counts.
package traffic

import (
	"time"

	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/models"
)

const closureProximityMeters = 50.0

// IntersectsClosures reports whether route comes within closureProximityMeters
// of any currently-active closure, either because a route vertex sits near
// the closure's point location or because a route vertex sits near a vertex
// of the closure's line geometry (spec.md §4.4).
func IntersectsClosures(route []geo.LonLat, closures []models.StreetClosure, now time.Time) (bool, []string) {
	var warnings []string
	hit := false

	for _, c := range closures {
		if !c.ActiveAt(now) {
			continue
		}
		if closureHitsRoute(route, c) {
			hit = true
			warnings = append(warnings, c.Name)
		}
	}
	return hit, warnings
}

func closureHitsRoute(route []geo.LonLat, c models.StreetClosure) bool {
	if c.PointLocation != nil {
		cp := geo.Point{Lat: c.PointLocation.Lat, Lon: c.PointLocation.Lon}
		for _, v := range route {
			if geo.HaversineMeters(toPoint(v), cp) <= closureProximityMeters {
				return true
			}
		}
	}
	for _, cv := range c.Geometry {
		cp := toPoint(cv)
		for _, v := range route {
			if geo.HaversineMeters(toPoint(v), cp) <= closureProximityMeters {
				return true
			}
		}
	}
	return false
}

func toPoint(v geo.LonLat) geo.Point {
	return geo.Point{Lat: v.Lat, Lon: v.Lon}
}
