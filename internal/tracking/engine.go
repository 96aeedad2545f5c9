// Package tracking implements the Tracking Engine of spec.md §4.8: a
// pull-based snapshot synthesizer that interpolates a resource's position
// along its calculated route using a deterministic, seeded traffic factor
// so the same (resource, incident, calculated_at, now) always reproduces
// the same snapshot.
package tracking

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/models"
)

// TrafficBand labels the congestion level implied by the current factor.
type TrafficBand string

const (
	BandFree        TrafficBand = "libre"
	BandModerate    TrafficBand = "moderate"
	BandCongested   TrafficBand = "congestionado"
)

// Snapshot is the per-resource telemetry the engine emits on request.
type Snapshot struct {
	ResourceID        string
	IncidentID        string
	CurrentPoint      geo.Point
	Progress          float64
	RemainingKM       float64
	SpeedKMH          float64
	ETARemainingMin   float64
	TrafficFactor     float64
	TrafficBand       TrafficBand
}

const (
	minFactor       = 0.45
	maxFactor       = 1.75
	baseFactorMin   = 0.85
	baseFactorMax   = 1.35
	peakMultMin     = 1.05
	peakMultMax     = 1.25
	redOndaVerdeMul = 0.6
	redNoOndaMul    = 0.85
)

// SeedPRNG derives a deterministic *rand.Rand from (resourceID, incidentID)
// so the same pair always produces the same sequence of draws, per spec.md
// §4.8 "the seeding must be deterministic so tests can reproduce the exact
// factor".
func SeedPRNG(resourceID, incidentID string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(resourceID))
	h.Write([]byte("|"))
	h.Write([]byte(incidentID))
	seed := int64(h.Sum64())
	return rand.New(rand.NewSource(seed))
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// TrafficFactor computes the deterministic congestion multiplier for one
// resource/incident pair at instant now (spec.md §4.8 step 1).
func TrafficFactor(resourceID, incidentID string, code models.Code, ondaVerde bool, now time.Time) float64 {
	r := SeedPRNG(resourceID, incidentID)
	factor := uniform(r, baseFactorMin, baseFactorMax)

	hour := now.Hour()
	isPeak := (hour >= 7 && hour < 10) || (hour >= 17 && hour < 20)
	if isPeak {
		factor *= uniform(r, peakMultMin, peakMultMax)
	}

	if code == models.CodeRed {
		if ondaVerde {
			factor *= redOndaVerdeMul
		} else {
			factor *= redNoOndaMul
		}
	}

	return clamp(factor, minFactor, maxFactor)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Track computes a full telemetry snapshot for a route at instant now.
// When the incident is already resolved, callers should use FrozenSnapshot
// instead (spec.md §4.8 "On incident resolution, snapshots are frozen").
func Track(resourceID, incidentID string, route models.CalculatedRoute, code models.Code, ondaVerde bool, now time.Time) Snapshot {
	factor := TrafficFactor(resourceID, incidentID, code, ondaVerde, now)

	nominalS := math.Max(route.EstimatedTimeMinutes*60.0, 60.0)
	adjustedTotalS := nominalS * factor

	elapsedS := now.Sub(route.CalculatedAt).Seconds()
	progress := clamp(elapsedS/adjustedTotalS, 0, 1)

	lineString := make([]geo.LonLat, len(route.Geometry))
	for i, p := range route.Geometry {
		lineString[i] = geo.LonLat{Lon: p.Lon, Lat: p.Lat}
	}
	currentPoint := geo.Interpolate(lineString, progress)

	remainingKM := route.DistanceKM * (1 - progress)

	hoursEstimate := math.Max(route.EstimatedTimeMinutes/60.0, 0.1)
	speedKMH := (route.DistanceKM / hoursEstimate) / math.Max(factor, 0.1)

	etaRemainingMin := math.Max(0, adjustedTotalS-elapsedS) / 60.0

	return Snapshot{
		ResourceID:      resourceID,
		IncidentID:      incidentID,
		CurrentPoint:    currentPoint,
		Progress:        progress,
		RemainingKM:     remainingKM,
		SpeedKMH:        speedKMH,
		ETARemainingMin: etaRemainingMin,
		TrafficFactor:   factor,
		TrafficBand:     bandFor(factor),
	}
}

// FrozenSnapshot returns the terminal snapshot for a resolved incident:
// progress=1, eta_remaining=0 (spec.md §4.8).
func FrozenSnapshot(resourceID, incidentID string, route models.CalculatedRoute) Snapshot {
	lineString := make([]geo.LonLat, len(route.Geometry))
	for i, p := range route.Geometry {
		lineString[i] = geo.LonLat{Lon: p.Lon, Lat: p.Lat}
	}
	endPoint := geo.Interpolate(lineString, 1.0)

	return Snapshot{
		ResourceID:      resourceID,
		IncidentID:      incidentID,
		CurrentPoint:    endPoint,
		Progress:        1.0,
		RemainingKM:     0,
		SpeedKMH:        0,
		ETARemainingMin: 0,
		TrafficFactor:   0,
		TrafficBand:     BandFree,
	}
}

func bandFor(factor float64) TrafficBand {
	switch {
	case factor <= 0.7:
		return BandFree
	case factor <= 1.0:
		return BandModerate
	default:
		return BandCongested
	}
}
