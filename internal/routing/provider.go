// Package routing implements the pluggable external routing backend
// interface named in spec.md §4.3: a fixed preference order of HTTP
// providers, each guarded by a circuit breaker, backed by a bounded LRU
// cache and a deterministic fallback geometry generator so best_route
// never fails. Package routing depends only on plain geo types (internal/geo),
// never on internal/models, to avoid the cyclic routing<->models dependency
// the source exhibited (see DESIGN.md, internal/dispatch / spec.md REDESIGN FLAGS); the
// Dispatch Planner is the only component that speaks both languages.
package routing

import (
	"context"

	"github.com/caba911/dispatch/internal/geo"
)

// Route is the result of best_route: the provider that produced it, its
// geometry, total distance/duration, and turn-by-turn step descriptions.
type Route struct {
	Provider   string
	Geometry   []geo.LonLat
	DistanceM  float64
	DurationS  float64
	Steps      []string
	IsFallback bool
}

// Provider is implemented by each external routing backend plus the
// deterministic fallback. BestRoute must never block past its own
// configured timeout and must return a plain error on any failure so the
// orchestrator can move to the next provider in preference order.
type Provider interface {
	Name() string
	BestRoute(ctx context.Context, start, end geo.Point) (Route, error)
}
