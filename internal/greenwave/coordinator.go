package greenwave

import (
	"sort"
	"time"

	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/models"
)

const (
	maxPerpendicularDistanceMeters = 500.0
	defaultSpeedKMH                = 50.0
	minOverrideSpeedKMH            = 5.0
	majorGreenWindow               = 45 * time.Second
	secondaryGreenWindow           = 30 * time.Second
	arrivalLeadTime                = 5 * time.Second
)

// Coordinator computes green-wave windows and tracks active waves.
type Coordinator struct {
	catalog  *Catalog
	registry *Registry
}

func NewCoordinator(catalog *Catalog, registry *Registry) *Coordinator {
	return &Coordinator{catalog: catalog, registry: registry}
}

// Activate is only ever called for code=red incidents (spec.md §4.7). For
// each dispatched resource with a known current location it selects
// catalog intersections within 500m perpendicular distance of the straight
// line from resource to incident, computes their windows, and registers
// the resulting GreenWave. Activation never fails: an empty intersection
// set simply yields an empty window list.
func (co *Coordinator) Activate(waveID, incidentID, resourceID string, from, to models.LatLon, simulatedSpeedKMH float64, now time.Time) models.GreenWave {
	start := geo.Point{Lat: from.Lat, Lon: from.Lon}
	end := geo.Point{Lat: to.Lat, Lon: to.Lon}

	speed := defaultSpeedKMH
	if simulatedSpeedKMH >= minOverrideSpeedKMH {
		speed = simulatedSpeedKMH
	}

	type candidate struct {
		intersection Intersection
		distFromA    float64
	}
	var candidates []candidate
	for _, ix := range co.catalog.All() {
		p := geo.Point{Lat: ix.Location.Lat, Lon: ix.Location.Lon}
		perp := geo.PointToSegmentDistanceMeters(p, start, end)
		if perp > maxPerpendicularDistanceMeters {
			continue
		}
		candidates = append(candidates, candidate{intersection: ix, distFromA: geo.HaversineMeters(start, p)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distFromA < candidates[j].distFromA })

	windows := make([]models.GreenWaveWindow, 0, len(candidates))
	for _, c := range candidates {
		speedMS := speed * 1000.0 / 3600.0
		travelS := c.distFromA / speedMS
		arrival := now.Add(time.Duration(travelS * float64(time.Second)))

		window := majorGreenWindow
		if c.intersection.Priority == PrioritySecondary {
			window = secondaryGreenWindow
		}

		windows = append(windows, models.GreenWaveWindow{
			Intersection: c.intersection.Name,
			Arrival:      arrival,
			GreenStart:   arrival.Add(-arrivalLeadTime),
			GreenEnd:     arrival.Add(window),
			Priority:     string(c.intersection.Priority),
		})
	}

	wave := models.GreenWave{
		WaveID:     waveID,
		IncidentID: incidentID,
		Resource:   resourceID,
		CreatedAt:  now,
		PathStart:  from,
		PathEnd:    to,
		Windows:    windows,
	}

	co.registry.Put(wave, now)
	return wave
}

// IntersectionStatus is the per-intersection status query result of
// spec.md §4.7.
type IntersectionStatus struct {
	IsGreen          bool
	HasEmergency     bool
	NextGreen        *time.Time
	ActiveIncidents  []string
}

// Status reports the current state of one named intersection across all
// non-expired active waves, purging expired waves as a side effect.
func (co *Coordinator) Status(intersectionName string, now time.Time) IntersectionStatus {
	waves := co.registry.Active(now)

	status := IntersectionStatus{}
	var earliestUpcoming *time.Time

	for _, wave := range waves {
		for _, w := range wave.Windows {
			if w.Intersection != intersectionName {
				continue
			}
			status.HasEmergency = true
			status.ActiveIncidents = append(status.ActiveIncidents, wave.IncidentID)
			if !now.Before(w.GreenStart) && !now.After(w.GreenEnd) {
				status.IsGreen = true
			}
			if now.Before(w.GreenStart) {
				if earliestUpcoming == nil || w.GreenStart.Before(*earliestUpcoming) {
					t := w.GreenStart
					earliestUpcoming = &t
				}
			}
		}
	}
	status.NextGreen = earliestUpcoming
	return status
}
