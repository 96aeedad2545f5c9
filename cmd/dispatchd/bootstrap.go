package main

import (
	"time"

	"github.com/caba911/dispatch/internal/circuit"
	"github.com/caba911/dispatch/internal/config"
	"github.com/caba911/dispatch/internal/greenwave"
	"github.com/caba911/dispatch/internal/httpapi"
	"github.com/caba911/dispatch/internal/ioadapters"
	"github.com/caba911/dispatch/internal/routing"
	"github.com/caba911/dispatch/internal/store"
	"github.com/caba911/dispatch/internal/triage"
	"github.com/caba911/dispatch/internal/wsfeed"
	"github.com/rs/zerolog/log"
)

// components bundles every piece bootstrap wires up, so runServer and the
// ingest subcommand can share construction without a global registry.
type components struct {
	cfg         config.Config
	store       *store.Store
	triage      *triage.Engine
	routing     *routing.Engine
	greenwave   *greenwave.Coordinator
	catalogFile *config.FileWatcher
	geocoder    *ioadapters.Geocoder
	feedPoller  *ioadapters.FeedPoller
	hub         *wsfeed.Hub
	service     *httpapi.Service
}

// build wires every component once at startup in the order each depends
// on the last: storage first, then the engines that read from it, then
// the orchestration layer (httpapi.Service) that spans all of them,
// mirroring cmd/pulse's bootstrap ordering (storage -> monitoring -> API).
func build(cfg config.Config) (*components, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	triageEngine, err := buildTriageEngine(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	routingEngine := buildRoutingEngine(cfg)

	catalog, catalogWatcher, err := buildGreenWaveCatalog(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	coordinator := greenwave.NewCoordinator(catalog, greenwave.NewRegistry())

	httpClient := ioadapters.NewHTTPClient(0)
	geocoder := ioadapters.NewGeocoder(httpClient, cfg.GeocoderURL, cfg.IngressOffline)
	feedPoller := ioadapters.NewFeedPoller(httpClient, cfg.ClosuresFeedURL, cfg.TrafficFeedURL, st, cfg.FeedPollInterval, cfg.IngressOffline)

	hub := wsfeed.NewHub()

	svc := &httpapi.Service{
		Store:        st,
		Triage:       triageEngine,
		Routing:      routingEngine,
		GreenWave:    coordinator,
		VehicleLimit: cfg.VehicleCandidateLimit,
		AgentLimit:   cfg.AgentCandidateLimit,
		MaxRoutes:    cfg.MaxRoutesPerForce,
	}

	return &components{
		cfg:         cfg,
		store:       st,
		triage:      triageEngine,
		routing:     routingEngine,
		greenwave:   coordinator,
		catalogFile: catalogWatcher,
		geocoder:    geocoder,
		feedPoller:  feedPoller,
		hub:         hub,
		service:     svc,
	}, nil
}

func (c *components) Close() {
	if c.catalogFile != nil {
		c.catalogFile.Stop()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// buildTriageEngine selects the rules or cloud classifier per
// TRIAGE_PROVIDER, matching the teacher's internal/ai provider-selection
// pattern (cmd/pulse/bootstrap.go picks a monitoring backend the same way).
func buildTriageEngine(cfg config.Config) (*triage.Engine, error) {
	if cfg.TriageProvider == string(triage.ProviderCloud) {
		client := triage.NewAnthropicTriageClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, 0)
		return triage.NewEngine(triage.ProviderCloud, client)
	}
	return triage.NewEngine(triage.ProviderRules, nil)
}

// buildRoutingEngine constructs the fixed Mapbox -> ORS -> OSRM ->
// GraphHopper preference order (spec.md §4.3), skipping any provider
// whose credentials are absent, and applies the operator's
// ROUTING_DISABLED_PROVIDERS glob list before handing the filtered set to
// the Engine.
func buildRoutingEngine(cfg config.Config) *routing.Engine {
	if cfg.RoutingOffline {
		return routing.NewEngine(nil, routing.EngineConfig{Offline: true, CacheCapacity: cfg.RoutingCacheCapacity})
	}

	client := ioadapters.NewHTTPClient(0)
	var providers []routing.Provider
	if cfg.MapboxToken != "" {
		providers = append(providers, routing.NewMapboxProvider(cfg.MapboxToken, client, 0))
	}
	if cfg.OpenRouteServiceKey != "" {
		providers = append(providers, routing.NewOpenRouteServiceProvider(cfg.OpenRouteServiceKey, client, 0))
	}
	if len(cfg.OSRMHosts) > 0 {
		providers = append(providers, routing.NewOSRMProvider(cfg.OSRMHosts, client, 0))
	}
	if cfg.GraphHopperKey != "" {
		providers = append(providers, routing.NewGraphHopperProvider(cfg.GraphHopperKey, client, 0))
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	disabled := cfg.DisabledProviderSet(names)

	return routing.NewEngine(providers, routing.EngineConfig{
		CacheCapacity: cfg.RoutingCacheCapacity,
		Backoff: circuit.Config{
			FailureThreshold: uint32(cfg.BreakerFailureThresh),
			BackoffWindow:    time.Duration(cfg.BreakerBackoffSecs) * time.Second,
		},
		DisabledProviders: disabled,
	})
}

// buildGreenWaveCatalog loads the static intersection catalog and, when it
// loads, watches the file for hot reload the way the teacher's
// internal/config.NewConfigWatcher reloads .env changes without a
// restart. A missing or unreadable catalog yields an empty, unwatched one.
func buildGreenWaveCatalog(cfg config.Config) (*greenwave.Catalog, *config.FileWatcher, error) {
	catalog, err := greenwave.LoadCatalogFile(cfg.GreenWaveCatalogPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.GreenWaveCatalogPath).Msg("no green-wave catalog found, starting with an empty one")
		empty := greenwave.NewCatalog(nil)
		return empty, nil, nil
	}

	current := catalog
	watcher, err := config.WatchFile(cfg.GreenWaveCatalogPath, func(path string) error {
		reloaded, loadErr := greenwave.LoadCatalogFile(path)
		if loadErr != nil {
			return loadErr
		}
		*current = *reloaded
		log.Info().Str("path", path).Msg("reloaded green-wave catalog")
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to start green-wave catalog watcher, changes require restart")
		return catalog, nil, nil
	}
	return current, watcher, nil
}
