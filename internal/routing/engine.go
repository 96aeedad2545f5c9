package routing

import (
	"context"

	"github.com/caba911/dispatch/internal/circuit"
	"github.com/caba911/dispatch/internal/geo"
	"github.com/rs/zerolog/log"
)

// Engine orchestrates the fixed preference order of spec.md §4.3:
// Mapbox -> OpenRouteService -> OSRM -> GraphHopper -> deterministic grid
// fallback, each external provider guarded by its own circuit breaker and
// results cached in a bounded LRU keyed by rounded coordinates.
type Engine struct {
	providers []Provider
	breakers  map[string]*circuit.Breaker
	cache     *routeCache
	offline   bool
}

// EngineConfig controls orchestration knobs outside the fixed provider list.
type EngineConfig struct {
	Offline       bool
	CacheCapacity int
	Backoff       circuit.Config
	// DisabledProviders is the set of provider names to skip entirely
	// (populated by config.ROUTING_DISABLED_PROVIDERS wildcard matching
	// performed by the caller before constructing the Engine).
	DisabledProviders map[string]bool
}

// NewEngine builds an Engine over an explicit, preference-ordered provider
// list. The fallback provider is always appended last regardless of what
// the caller supplies, so best_route never fails.
func NewEngine(providers []Provider, cfg EngineConfig) *Engine {
	filtered := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if cfg.DisabledProviders != nil && cfg.DisabledProviders[p.Name()] {
			continue
		}
		filtered = append(filtered, p)
	}
	filtered = append(filtered, fallbackProvider{})

	breakers := make(map[string]*circuit.Breaker, len(filtered))
	for _, p := range filtered {
		breakers[p.Name()] = circuit.NewBreaker(p.Name(), cfg.Backoff)
	}

	return &Engine{
		providers: filtered,
		breakers:  breakers,
		cache:     newRouteCache(cfg.CacheCapacity),
		offline:   cfg.Offline,
	}
}

// BestRoute tries each provider in preference order, skipping any whose
// breaker is open, and falls through to the deterministic grid path if
// every external attempt fails or ROUTING_OFFLINE is set. Successful and
// fallback results alike are cached.
func (e *Engine) BestRoute(ctx context.Context, start, end geo.Point) Route {
	if cached, ok := e.cache.get(start, end); ok {
		return cached
	}

	if e.offline {
		route, _ := fallbackProvider{}.BestRoute(ctx, start, end)
		e.cache.put(start, end, route)
		return route
	}

	for _, p := range e.providers {
		if _, isFallback := p.(fallbackProvider); isFallback {
			route, _ := p.BestRoute(ctx, start, end)
			e.cache.put(start, end, route)
			return route
		}

		breaker := e.breakers[p.Name()]
		if !breaker.Allow() {
			log.Debug().Str("provider", p.Name()).Msg("routing provider circuit open, skipping")
			continue
		}

		result, err := breaker.Execute(func() (any, circuit.ErrorCategory, error) {
			route, err := p.BestRoute(ctx, start, end)
			if err != nil {
				return nil, circuit.CategorizeError(err), err
			}
			return route, circuit.ErrorCategoryTransient, nil
		})
		if err != nil {
			log.Warn().Str("provider", p.Name()).Err(err).Msg("routing provider failed, trying next in preference order")
			continue
		}

		route := result.(Route)
		e.cache.put(start, end, route)
		return route
	}

	// Unreachable in practice: fallbackProvider is always appended and
	// always succeeds, but keep a last-resort return for safety.
	route, _ := fallbackProvider{}.BestRoute(ctx, start, end)
	return route
}

// ProviderStatus reports each provider's current breaker state, surfaced
// through telemetry/diagnostics endpoints.
func (e *Engine) ProviderStatus() map[string]string {
	out := make(map[string]string, len(e.breakers))
	for name, b := range e.breakers {
		out[name] = b.State()
	}
	return out
}
