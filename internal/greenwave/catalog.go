// Package greenwave implements the Green-Wave Coordinator of spec.md §4.7:
// a static, configuration-provided catalog of major intersections, the
// per-intersection timing-window computation along a resource's route, and
// an in-memory active-wave registry with TTL eviction.
//
// The catalog stays a static set per SPEC_FULL.md's Open Question
// resolution: the source models it as a configuration-provided list, and
// nothing in this system's scope (no OSM-grade routing, see spec.md
// Non-goals) calls for a routable network graph instead.
package greenwave

import (
	"encoding/json"
	"os"

	"github.com/caba911/dispatch/internal/models"
)

// IntersectionPriority distinguishes the green-window duration an
// intersection gets (45s major vs 30s secondary, spec.md §4.7).
type IntersectionPriority string

const (
	PriorityMajor     IntersectionPriority = "major"
	PrioritySecondary IntersectionPriority = "secondary"
)

// Intersection is one catalog entry.
type Intersection struct {
	Name     string               `json:"name"`
	Location models.LatLon        `json:"location"`
	Priority IntersectionPriority `json:"priority"`
}

// Catalog holds the loaded intersection set. It is replaced wholesale on
// config reload (see internal/config's fsnotify watcher), never mutated
// in place, so readers never observe a half-updated catalog.
type Catalog struct {
	intersections []Intersection
}

func NewCatalog(intersections []Intersection) *Catalog {
	return &Catalog{intersections: intersections}
}

// LoadCatalogFile reads a JSON array of Intersection from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var intersections []Intersection
	if err := json.Unmarshal(b, &intersections); err != nil {
		return nil, err
	}
	return NewCatalog(intersections), nil
}

func (c *Catalog) All() []Intersection {
	out := make([]Intersection, len(c.intersections))
	copy(out, c.intersections)
	return out
}
