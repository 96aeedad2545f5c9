// Package resources implements the Resource Selector of spec.md §4.5:
// scoring candidate vehicles and agents for a force against an incident's
// location, and the status transitions a selection or a dispatch finish
// triggers.
package resources

import (
	"context"
	"sort"

	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/models"
)

const (
	defaultVehicleLimit = 6
	defaultAgentLimit   = 4
	distancePenaltyKM   = 20.0
)

var typeWeights = map[string]float64{
	"ambulance":   0.8,
	"fire_engine": 0.9,
	"patrol":      1.0,
}

func typeWeight(resourceType string) float64 {
	if w, ok := typeWeights[resourceType]; ok {
		return w
	}
	return 1.0
}

// RouteLookup resolves the travel distance/duration between a candidate's
// current location and the incident location, matching
// routing.Engine.BestRoute's signature without importing routing directly
// (kept narrow so this package can be unit tested with a stub).
type RouteLookup func(ctx context.Context, from, to geo.Point) (distanceM, durationS float64)

// Candidate is a scored vehicle or agent.
type Candidate struct {
	ID           string
	Kind         string // "vehicle" | "agent"
	ResourceType string
	From         models.LatLon
	DistanceKM   float64
	DurationS    float64
	Score        float64
	IsPrimary    bool
}

// Select scores the union of vehicles and agents owned by force (plus, when
// force is police, vehicles already en_route/busy to reflect fleet
// pressure), ranks them, and returns the top N vehicles and top N agents.
func Select(ctx context.Context, incidentLocation models.LatLon, assignedForce, force models.ForceName, vehicles []models.Vehicle, agents []models.Agent, priorityMultiplier float64, lookup RouteLookup) (vehicleCandidates, agentCandidates []Candidate) {
	isPrimary := assignedForce == "" || assignedForce == force
	dest := geo.Point{Lat: incidentLocation.Lat, Lon: incidentLocation.Lon}

	var vCands []Candidate
	for _, v := range vehicles {
		if v.Force != force {
			continue
		}
		if v.Status != models.VehicleAvailable {
			// Only police queries additionally consider en_route/busy
			// vehicles, to reflect fleet pressure (spec.md §4.5).
			notFleetPressureEligible := force != models.ForcePolice ||
				(v.Status != models.VehicleEnRoute && v.Status != models.VehicleBusy)
			if notFleetPressureEligible {
				continue
			}
		}
		if v.CurrentLocation == nil {
			continue
		}
		c := scoreCandidate(v.ID, "vehicle", v.Type, *v.CurrentLocation, dest, isPrimary, priorityMultiplier, lookup, ctx)
		vCands = append(vCands, c)
	}

	var aCands []Candidate
	for _, a := range agents {
		if a.Force != force || a.Status != models.AgentAvailable || a.CurrentLocation == nil {
			continue
		}
		c := scoreCandidate(a.ID, "agent", a.Role, *a.CurrentLocation, dest, isPrimary, priorityMultiplier, lookup, ctx)
		aCands = append(aCands, c)
	}

	rankCandidates(vCands)
	rankCandidates(aCands)

	return truncate(vCands, defaultVehicleLimit), truncate(aCands, defaultAgentLimit)
}

func scoreCandidate(id, kind, resourceType string, from models.LatLon, dest geo.Point, isPrimary bool, priorityMultiplier float64, lookup RouteLookup, ctx context.Context) Candidate {
	start := geo.Point{Lat: from.Lat, Lon: from.Lon}
	distM, durS := lookup(ctx, start, dest)
	distKM := distM / 1000.0

	penalty := 1.0
	if distKM > distancePenaltyKM {
		penalty = 1.5
	}

	var score float64
	if isPrimary {
		score = distKM
	} else {
		score = durS * typeWeight(resourceType) * penalty
		if priorityMultiplier < 0.1 {
			priorityMultiplier = 0.1
		}
		score /= priorityMultiplier
	}

	return Candidate{
		ID:           id,
		Kind:         kind,
		ResourceType: resourceType,
		From:         from,
		DistanceKM:   distKM,
		DurationS:    durS,
		Score:        score,
		IsPrimary:    isPrimary,
	}
}

// rankCandidates sorts primary-force candidates first (all candidates here
// already share the same isPrimary value per incident+force call, so this
// is effectively a stable ascending score sort), then by score ascending.
func rankCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].IsPrimary != cands[j].IsPrimary {
			return cands[i].IsPrimary
		}
		return cands[i].Score < cands[j].Score
	})
}

func truncate(cands []Candidate, n int) []Candidate {
	if len(cands) <= n {
		return cands
	}
	return cands[:n]
}

// ApplySelection returns the status a selected vehicle/agent transitions
// to: en_route (spec.md §4.5). target is not used here; the caller records
// it as the resource's target_location.
func ApplySelection(target *models.LatLon) (models.VehicleStatus, models.AgentStatus) {
	return models.VehicleEnRoute, models.AgentEnRoute
}

// ReleaseOnFinish returns the status a vehicle/agent goes back to when a
// Dispatch finishes: available (spec.md §4.5). Clearing target_location
// is left to the caller.
func ReleaseOnFinish() (models.VehicleStatus, models.AgentStatus) {
	return models.VehicleAvailable, models.AgentAvailable
}
