// Package config loads the dispatch backbone's runtime configuration from
// the environment (plus an optional .env file), the way cmd/pulse's
// internal/config.Load does: package-level defaults, env var overrides,
// and a typed struct the rest of the process wires off of.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var defaultDataDir = "/etc/dispatchd"

// Config is the fully-resolved runtime configuration for dispatchd.
type Config struct {
	// HTTP
	ListenAddr string

	// Persistence
	DataPath string
	DBPath   string

	// Routing providers (spec.md §2, routing engine)
	RoutingOffline       bool
	MapboxToken          string
	OpenRouteServiceKey  string
	OSRMHosts            []string
	GraphHopperKey       string
	RoutingCacheCapacity int
	BreakerFailureThresh int
	BreakerBackoffSecs   int
	// RoutingDisabledProviders holds glob patterns (matched against each
	// provider's Name()) of providers to skip entirely, e.g. "mapbox" or
	// "osrm-*". Matched with go-wildcard rather than strings.Contains so
	// operators can disable a whole family of hosts with one pattern.
	RoutingDisabledProviders []string

	// Ingress feeds (closures, traffic counts, geocoding)
	IngressOffline   bool
	GeocoderURL      string
	ClosuresFeedURL  string
	TrafficFeedURL   string
	FeedPollInterval time.Duration

	// Green-wave catalog
	GreenWaveCatalogPath string

	// Triage provider (spec.md §4.2)
	TriageProvider  string
	AnthropicAPIKey string
	AnthropicModel  string

	// Resource selection tuning
	VehicleCandidateLimit int
	AgentCandidateLimit   int
	MaxRoutesPerForce     int

	// Telemetry
	MetricsAddr string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envListOr(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Load resolves configuration from the environment, loading a .env file
// first if one is present in the current directory or DISPATCHD_ENV_FILE.
func Load() (Config, error) {
	loadDotEnv()

	dataPath := envOr("DISPATCHD_DATA_DIR", defaultDataDir)
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return Config{}, fmt.Errorf("create data dir %s: %w", dataPath, err)
	}

	cfg := Config{
		ListenAddr: envOr("LISTEN_ADDR", ":8090"),

		DataPath: dataPath,
		DBPath:   envOr("DISPATCHD_DB_PATH", dataPath+"/dispatch.db"),

		RoutingOffline:       envBoolOr("ROUTING_OFFLINE", false),
		MapboxToken:          os.Getenv("MAPBOX_TOKEN"),
		OpenRouteServiceKey:  os.Getenv("ORS_API_KEY"),
		OSRMHosts:            envListOr("OSRM_HOSTS", nil),
		GraphHopperKey:       os.Getenv("GRAPHHOPPER_API_KEY"),
		RoutingCacheCapacity: envIntOr("ROUTING_CACHE_CAPACITY", 128),
		BreakerFailureThresh: envIntOr("ROUTING_BREAKER_FAILURE_THRESHOLD", 3),
		BreakerBackoffSecs:       envIntOr("ROUTING_BREAKER_BACKOFF_SECONDS", 120),
		RoutingDisabledProviders: envListOr("ROUTING_DISABLED_PROVIDERS", nil),

		IngressOffline:   envBoolOr("INGRESS_OFFLINE", false),
		GeocoderURL:      os.Getenv("GEOCODER_URL"),
		ClosuresFeedURL:  os.Getenv("CLOSURES_FEED_URL"),
		TrafficFeedURL:   os.Getenv("TRAFFIC_FEED_URL"),
		FeedPollInterval: envDurationOr("FEED_POLL_INTERVAL", 60*time.Second),

		GreenWaveCatalogPath: envOr("GREENWAVE_CATALOG_PATH", dataPath+"/greenwave_catalog.json"),

		TriageProvider:  envOr("TRIAGE_PROVIDER", "rules"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  os.Getenv("ANTHROPIC_MODEL"),

		VehicleCandidateLimit: envIntOr("VEHICLE_CANDIDATE_LIMIT", 6),
		AgentCandidateLimit:   envIntOr("AGENT_CANDIDATE_LIMIT", 4),
		MaxRoutesPerForce:     envIntOr("MAX_ROUTES_PER_FORCE", 3),

		MetricsAddr: envOr("METRICS_ADDR", ":9090"),
	}

	return cfg, nil
}

func loadDotEnv() {
	if path := os.Getenv("DISPATCHD_ENV_FILE"); path != "" {
		_ = godotenv.Load(path)
		return
	}
	_ = godotenv.Load()
}
