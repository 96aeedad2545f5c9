package traffic

import (
	"context"
	"time"

	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/models"
	"github.com/caba911/dispatch/internal/routing"
	"github.com/rs/zerolog/log"
)

// AlternativeSource is implemented by internal/routing.Engine; kept as a
// narrow interface so this package never imports the routing package's
// concrete Engine construction details.
type AlternativeSource interface {
	BestRoute(ctx context.Context, start, end geo.Point) routing.Route
}

// Adjustment is the result of running a route through the adjuster: the
// possibly-replaced route plus closure/congestion metadata to surface to
// operators.
type Adjustment struct {
	Route               routing.Route
	IntersectsClosures   bool
	ClosuresWarning      []string
	OriginalDurationS    float64
	CongestionFactor     float64
}

// Adjust detects closures along route and, on a hit, asks source once more
// for the same endpoints and then tries a detour grid path, keeping the
// first closure-free candidate; providers other than the one source
// answers with are not queried. If none is closure-free, the original
// route is kept with intersects_closures=true. It then scales the
// resulting route's duration by the sampled congestion factor.
func Adjust(ctx context.Context, start, end geo.Point, route routing.Route, closures []models.StreetClosure, counts []models.TrafficCount, source AlternativeSource, now time.Time) Adjustment {
	hit, warnings := IntersectsClosures(route.Geometry, closures, now)

	finalRoute := route
	if hit {
		if alt, found := findClosureFreeAlternative(ctx, start, end, closures, source, now); found {
			finalRoute = alt
			hit, warnings = IntersectsClosures(finalRoute.Geometry, closures, now)
		} else {
			log.Warn().Strs("closures", warnings).Msg("no closure-free alternative found, keeping original route")
		}
	}

	factor := CongestionFactor(finalRoute.Geometry, counts, now)
	originalDuration := finalRoute.DurationS
	finalRoute.DurationS = finalRoute.DurationS * factor

	return Adjustment{
		Route:             finalRoute,
		IntersectsClosures: hit,
		ClosuresWarning:   warnings,
		OriginalDurationS: originalDuration,
		CongestionFactor:  factor,
	}
}

// findClosureFreeAlternative asks the routing source again for the same,
// unmodified start/end (a caching source such as routing.Engine can hand
// back the same route) and then tries a deterministic detour grid path,
// returning the first candidate clear of all active closures.
func findClosureFreeAlternative(ctx context.Context, start, end geo.Point, closures []models.StreetClosure, source AlternativeSource, now time.Time) (routing.Route, bool) {
	candidate := source.BestRoute(ctx, start, end)
	if hit, _ := IntersectsClosures(candidate.Geometry, closures, now); !hit {
		return candidate, true
	}

	detour := detourRoute(start, end)
	if hit, _ := IntersectsClosures(detour.Geometry, closures, now); !hit {
		return detour, true
	}

	return routing.Route{}, false
}

// detourRoute produces the same geo.GridPath geometry the routing fallback
// uses, with distance taken as 1.3x the great-circle distance at 25 km/h,
// used only as a last-resort closure detour.
func detourRoute(start, end geo.Point) routing.Route {
	line := geo.GridPath(start, end)
	dist := geo.HaversineMeters(start, end) * 1.3
	return routing.Route{
		Provider:   "detour",
		Geometry:   line,
		DistanceM:  dist,
		DurationS:  dist / (25.0 * 1000.0 / 3600.0),
		Steps:      []string{"closure detour grid path"},
		IsFallback: true,
	}
}
