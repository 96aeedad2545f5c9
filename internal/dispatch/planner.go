// Package dispatch implements the Dispatch Planner of spec.md §4.6:
// deriving required forces from a classified incident and building one
// Dispatch per force together with its route candidates. It persists
// nothing itself; the caller (internal/httpapi.Service) writes the
// outcomes as one atomic set through internal/store.Replan.
package dispatch

import (
	"context"
	"strings"

	"github.com/caba911/dispatch/internal/models"
	"github.com/caba911/dispatch/internal/resources"
	"github.com/caba911/dispatch/internal/triage"
)

// forcePrecedence orders which dispatch's force/vehicle becomes the
// incident's primary-force summary (spec.md §4.6).
var forcePrecedence = []models.ForceName{models.ForceFire, models.ForceMedical, models.ForcePolice, models.ForceTraffic}

// fireKeywords etc. mirror the description-side keyword rules that OR with
// the triage-typed primary force to derive the full set of required
// forces (spec.md §4.6), grounded on the same dictionaries the Triage
// Engine itself uses (internal/triage/dictionaries.go), since the source's
// views.py derives force names from the same vocabulary as its ai.py
// classifier.
var (
	fireKeywords     = []string{"incendio", "fuego", "humo", "explosion", "explosión", "quemad"}
	collisionWords   = []string{"accidente", "choque", "colision", "colisión"}
	medicalKeywords  = []string{"herido", "inconsciente", "paro cardiaco", "hemorragia", "convulsion", "convulsión"}
	securityKeywords = []string{"robo", "asalto", "arma", "tiroteo", "agresion", "agresión"}
)

// RequiredForces derives the OR of the triage-typed primary force and
// keyword rules on the description. Collision language requires all three
// of police, traffic, and medical simultaneously (spec.md §4.6).
func RequiredForces(description string, triageType models.ForceName) []models.ForceName {
	set := map[models.ForceName]bool{}
	if triageType != "" {
		set[triageType] = true
	}

	text := strings.ToLower(description)
	if containsAny(text, fireKeywords) {
		set[models.ForceFire] = true
	}
	if containsAny(text, collisionWords) {
		set[models.ForcePolice] = true
		set[models.ForceTraffic] = true
		set[models.ForceMedical] = true
	}
	if containsAny(text, medicalKeywords) {
		set[models.ForceMedical] = true
	}
	if containsAny(text, securityKeywords) {
		set[models.ForcePolice] = true
	}

	if len(set) == 0 {
		set[models.ForcePolice] = true
	}

	out := make([]models.ForceName, 0, len(set))
	for _, f := range forcePrecedence {
		if set[f] {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// DispatchOutcome is the result of planning one force's dispatch: the
// dispatch row, the resource candidates selected, and the routes to
// persist (the top candidate plus up to maxRoutes alternatives).
type DispatchOutcome struct {
	Force           models.ForceName
	Dispatch        models.Dispatch
	VehicleID       string
	AgentID         string
	RouteCandidates []RouteCandidate
}

// RouteCandidate is one persisted-route-to-be, already resolved against
// the routing provider.
type RouteCandidate struct {
	ResourceID           string
	ResourceType         string
	DistanceKM           float64
	EstimatedTimeMinutes float64
	PriorityScore        float64
	Geometry             models.LineString
}

// BestRouteFunc resolves a best route between two points; callers bind
// this to a routing.Engine (plus traffic.Adjust on top) so this package
// never imports the routing/traffic packages directly, keeping the
// dependency direction described in DESIGN.md intact (dispatch depends on
// resources/triage/models; routing stays dependency-free of models).
type BestRouteFunc func(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (distanceKM, etaMinutes float64, geometry models.LineString)

const defaultMaxRoutes = 3

// PlanForce runs the Resource Selector for one required force and builds
// the DispatchOutcome for it: top vehicle + top agent assigned, plus up to
// maxRoutes additional route alternatives for the operator UI (spec.md
// §4.6). It never fails -- a force with no available resources still
// yields a Dispatch row with no resource assigned.
func PlanForce(ctx context.Context, incidentID string, incidentLocation models.LatLon, assignedForce, force models.ForceName, vehicles []models.Vehicle, agents []models.Agent, priorityMultiplier float64, maxRoutes int, lookup resources.RouteLookup, bestRoute BestRouteFunc) DispatchOutcome {
	if maxRoutes <= 0 {
		maxRoutes = defaultMaxRoutes
	}

	vCands, aCands := resources.Select(ctx, incidentLocation, assignedForce, force, vehicles, agents, priorityMultiplier, lookup)

	outcome := DispatchOutcome{
		Force: force,
		Dispatch: models.Dispatch{
			IncidentID: incidentID,
			Force:      force,
			Status:     models.DispatchDispatched,
		},
	}

	if len(vCands) > 0 {
		outcome.VehicleID = vCands[0].ID
		outcome.Dispatch.VehicleID = vCands[0].ID
	}
	if len(aCands) > 0 {
		outcome.AgentID = aCands[0].ID
		outcome.Dispatch.AgentID = aCands[0].ID
	}

	allCands := append(append([]resources.Candidate{}, vCands...), aCands...)
	limit := maxRoutes + 1 // top candidate + alternatives
	if limit > len(allCands) {
		limit = len(allCands)
	}
	for i := 0; i < limit; i++ {
		c := allCands[i]
		rc := RouteCandidate{
			ResourceID:           resourceLabel(c),
			ResourceType:         c.ResourceType,
			DistanceKM:           c.DistanceKM,
			EstimatedTimeMinutes: c.DurationS / 60.0,
			PriorityScore:        c.Score,
		}
		if bestRoute != nil {
			distKM, etaMin, geometry := bestRoute(ctx, c.From.Lat, c.From.Lon, incidentLocation.Lat, incidentLocation.Lon)
			rc.DistanceKM = distKM
			rc.EstimatedTimeMinutes = etaMin
			rc.Geometry = geometry
		}
		outcome.RouteCandidates = append(outcome.RouteCandidates, rc)
	}

	return outcome
}

func resourceLabel(c resources.Candidate) string {
	if c.Kind == "vehicle" {
		return "vehicle_" + c.ID
	}
	return "agent_" + c.ID
}

// PrimaryForceSummary picks the first available dispatch in precedence
// order fire > medical > police > traffic and returns its force and
// vehicle, for copying onto incident.assigned_force/assigned_vehicle
// (spec.md §4.6). Returns ok=false when no dispatch has a force at all.
func PrimaryForceSummary(outcomes []DispatchOutcome) (force models.ForceName, vehicleID string, ok bool) {
	byForce := map[models.ForceName]DispatchOutcome{}
	for _, o := range outcomes {
		byForce[o.Force] = o
	}
	for _, f := range forcePrecedence {
		if o, exists := byForce[f]; exists {
			return o.Force, o.VehicleID, true
		}
	}
	return "", "", false
}

// TriageToResourceRequest returns a triage Result's recommended resources
// unchanged (no translation to the resources package's type-weight
// vocabulary is applied), for callers that want to log what the triage
// layer suggested alongside what the selector actually assigned.
func TriageToResourceRequest(result triage.Result) []triage.Resource {
	return result.RecommendedResources
}
