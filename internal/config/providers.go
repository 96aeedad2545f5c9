package config

import "github.com/IGLOU-EU/go-wildcard/v2"

// DisabledProviderSet matches each candidate provider name against the
// RoutingDisabledProviders glob patterns (e.g. "osrm-*" disables every OSRM
// host), returning the set internal/routing.EngineConfig expects.
func (c Config) DisabledProviderSet(candidates []string) map[string]bool {
	out := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		for _, pattern := range c.RoutingDisabledProviders {
			if wildcard.Match(pattern, name) {
				out[name] = true
				break
			}
		}
	}
	return out
}
