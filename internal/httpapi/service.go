// Package httpapi implements the five external endpoints of spec.md §6 as
// a thin net/http shell over the core: it owns no business logic beyond
// request decoding/encoding and orchestrating calls into
// internal/{store,triage,dispatch,resources,routing,traffic,greenwave,
// tracking}. Matching the Non-goal that HTTP handlers are out of core
// scope, there is no framework here -- just net/http and a small mux.
package httpapi

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/caba911/dispatch/internal/dispatch"
	"github.com/caba911/dispatch/internal/errs"
	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/greenwave"
	"github.com/caba911/dispatch/internal/models"
	"github.com/caba911/dispatch/internal/resources"
	"github.com/caba911/dispatch/internal/routing"
	"github.com/caba911/dispatch/internal/store"
	"github.com/caba911/dispatch/internal/telemetry"
	"github.com/caba911/dispatch/internal/traffic"
	"github.com/caba911/dispatch/internal/triage"
	"github.com/caba911/dispatch/internal/tracking"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Service binds every core component the five endpoints need. It is the
// only type in the module that imports both the storage-shaped packages
// and the routing/resources/greenwave packages, mirroring the Dispatch
// Planner's role at the package level (see DESIGN.md, internal/httpapi).
type Service struct {
	Store          *store.Store
	Triage         *triage.Engine
	Routing        *routing.Engine
	GreenWave      *greenwave.Coordinator
	VehicleLimit   int
	AgentLimit     int
	MaxRoutes      int
	Now            func() time.Time
}

func newID() string { return ulid.Make().String() }

// waveID derives a stable wave_id from (incidentID, resourceID), the same
// fnv-seeded determinism pattern the tracking engine uses for its PRNG
// (internal/tracking.SeedPRNG). Re-activating a green wave for the same
// incident/resource pair always lands on the same registry key, so
// Registry.Put's overwrite-on-same-id idempotence actually takes effect
// instead of the caller minting a fresh, independent entry every call.
func waveID(incidentID, resourceID string) string {
	h := fnv.New64a()
	h.Write([]byte(incidentID))
	h.Write([]byte("|"))
	h.Write([]byte(resourceID))
	return "wave_" + strconv.FormatUint(h.Sum64(), 36)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// routeLookup adapts the Routing Engine to resources.RouteLookup, used
// during candidate scoring (distance/duration only, no closure/traffic
// adjustment -- that only applies to the routes actually persisted).
func (s *Service) routeLookup(ctx context.Context, from, to geo.Point) (float64, float64) {
	r := s.Routing.BestRoute(ctx, from, to)
	return r.DistanceM, r.DurationS
}

// bestRouteFunc adapts the Routing Engine plus the Closure/Traffic
// Adjuster to dispatch.BestRouteFunc, run once per persisted route
// candidate. degraded is set whenever a candidate had to fall through to
// the deterministic grid route, so the caller can record that as a
// degradation note once planning finishes.
func (s *Service) bestRouteFunc(closures []models.StreetClosure, counts []models.TrafficCount, now time.Time, degraded *atomic.Bool) dispatch.BestRouteFunc {
	return func(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (float64, float64, models.LineString) {
		start := geo.Point{Lat: fromLat, Lon: fromLon}
		end := geo.Point{Lat: toLat, Lon: toLon}

		route := s.Routing.BestRoute(ctx, start, end)
		adj := traffic.Adjust(ctx, start, end, route, closures, counts, s.Routing, now)

		telemetry.Get().RecordRoutingOutcome(route.Provider, outcomeLabel(route))
		if adj.IntersectsClosures {
			log.Warn().Strs("closures", adj.ClosuresWarning).Msg("route intersects active closures")
		}
		if route.IsFallback {
			degraded.Store(true)
		}

		geomLen := len(adj.Route.Geometry)
		geomtry := make(models.LineString, geomLen)
		for i, p := range adj.Route.Geometry {
			geomtry[i] = models.LonLat{Lon: p.Lon, Lat: p.Lat}
		}
		return adj.Route.DistanceM / 1000.0, adj.Route.DurationS / 60.0, geomtry
	}
}

func outcomeLabel(r routing.Route) string {
	if r.IsFallback {
		return "fallback"
	}
	return "success"
}

// PlanResult is the "ranked dispatch summary" of spec.md §6.
type PlanResult struct {
	IncidentID string                    `json:"incident_id"`
	Status     models.IncidentStatus     `json:"status"`
	Forces     []dispatch.DispatchOutcome `json:"forces"`
	Routes     []models.CalculatedRoute  `json:"routes"`
}

// Plan runs stages (b)+(c)+(d) of the pipeline for an already-classified,
// non-resolved incident (spec.md §4.6): derive required forces, run the
// Resource Selector per force concurrently (errgroup, spec.md §5 "parallel
// task execution with cooperative I/O"), and persist the result as one
// atomic re-plan transaction.
func (s *Service) Plan(ctx context.Context, incidentID string) (PlanResult, error) {
	inc, err := s.Store.GetIncident(ctx, incidentID)
	if err != nil {
		return PlanResult{}, errs.Validation("incident not found: " + incidentID)
	}
	if inc.Status == models.IncidentResolved {
		routes, err := s.Store.ListActiveRoutes(ctx, incidentID)
		if err != nil {
			return PlanResult{}, err
		}
		return PlanResult{IncidentID: incidentID, Status: inc.Status, Routes: routes}, nil
	}
	if inc.Location == nil {
		return PlanResult{}, errs.Validation("incident has no resolved location")
	}

	now := s.now()
	triaged := s.Triage.Classify(ctx, inc.Description)
	telemetry.Get().RecordTriageSource(string(triaged.Source))

	forces := dispatch.RequiredForces(inc.Description, triaged.Type)

	closures, err := s.Store.ListActiveClosures(ctx, now)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load active closures, proceeding without adjustment")
	}
	counts, err := s.Store.RecentTrafficCounts(ctx, now.Add(-2*time.Hour))
	if err != nil {
		log.Warn().Err(err).Msg("failed to load recent traffic counts, proceeding without adjustment")
	}
	var routingDegraded atomic.Bool
	bestRoute := s.bestRouteFunc(closures, counts, now, &routingDegraded)

	outcomes := make([]dispatch.DispatchOutcome, len(forces))
	g, gctx := errgroup.WithContext(ctx)
	for i, force := range forces {
		i, force := i, force
		g.Go(func() error {
			vehicles, err := s.Store.ListVehiclesByForce(gctx, force)
			if err != nil {
				return err
			}
			agents, err := s.Store.ListAgentsByForce(gctx, force)
			if err != nil {
				return err
			}
			outcomes[i] = dispatch.PlanForce(gctx, incidentID, *inc.Location, inc.AssignedForce, force, vehicles, agents, 1.0, s.maxRoutes(), s.routeLookup, bestRoute)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PlanResult{}, err
	}

	input := buildReplanInput(incidentID, inc, outcomes, now)
	routes, err := s.Store.Replan(ctx, input)
	if err != nil {
		return PlanResult{}, err
	}

	telemetry.Get().SetActiveDispatches(string(inc.Code), float64(len(outcomes)))
	for name, state := range s.Routing.ProviderStatus() {
		telemetry.Get().SetBreakerOpen(name, state == "open")
	}

	if routingDegraded.Load() {
		if err := s.Store.AppendIncidentNote(ctx, incidentID, now.Format(time.RFC3339)+" routing degraded to deterministic fallback"); err != nil {
			log.Warn().Err(err).Msg("failed to record routing degradation note")
		}
	}

	return PlanResult{IncidentID: incidentID, Status: input.NewStatus, Forces: outcomes, Routes: routes}, nil
}

func (s *Service) maxRoutes() int {
	if s.MaxRoutes <= 0 {
		return 3
	}
	return s.MaxRoutes
}

// buildReplanInput translates the planner's in-memory outcomes into the
// atomic transaction store.Replan expects: dispatch/route IDs assigned,
// resource selections derived only for the top-ranked vehicle/agent per
// force (spec.md §4.5 "status transitions on selection"), and the incident
// summary fields updated per spec.md §4.6.
func buildReplanInput(incidentID string, inc models.Incident, outcomes []dispatch.DispatchOutcome, now time.Time) store.ReplanInput {
	input := store.ReplanInput{
		IncidentID:      incidentID,
		AssignedForce:   inc.AssignedForce,
		AssignedVehicle: inc.AssignedVehicle,
	}

	anyResourceAssigned := false
	for i := range outcomes {
		o := &outcomes[i]
		o.Dispatch.ID = newID()
		o.Dispatch.IncidentID = incidentID
		o.Dispatch.CreatedAt = now
		input.Dispatches = append(input.Dispatches, o.Dispatch)

		if o.VehicleID != "" || o.AgentID != "" {
			anyResourceAssigned = true
		}
		vehicleStatus, agentStatus := resources.ApplySelection(inc.Location)
		if o.VehicleID != "" {
			input.VehicleSelections = append(input.VehicleSelections, store.ResourceSelection{
				ID: o.VehicleID, Status: string(vehicleStatus), Target: inc.Location,
			})
		}
		if o.AgentID != "" {
			input.AgentSelections = append(input.AgentSelections, store.ResourceSelection{
				ID: o.AgentID, Status: string(agentStatus), Target: inc.Location,
			})
		}

		for _, rc := range o.RouteCandidates {
			input.Routes = append(input.Routes, models.CalculatedRoute{
				ID:                   newID(),
				IncidentID:           incidentID,
				ResourceID:           rc.ResourceID,
				ResourceType:         rc.ResourceType,
				DistanceKM:           rc.DistanceKM,
				EstimatedTimeMinutes: rc.EstimatedTimeMinutes,
				PriorityScore:        rc.PriorityScore,
				Geometry:             rc.Geometry,
				Status:               models.RouteActive,
				CalculatedAt:         now,
			})
		}
	}

	input.NewStatus = inc.Status
	if inc.Status == models.IncidentPending && anyResourceAssigned {
		input.NewStatus = models.IncidentAssigned
	}

	if inc.AssignedForce == "" {
		if force, vehicle, ok := dispatch.PrimaryForceSummary(outcomes); ok {
			input.AssignedForce = force
			input.AssignedVehicle = vehicle
		}
	}

	return input
}

// Routes returns the stored active routes for an incident, already
// ordered (priority_score asc, distance_km asc) by the query itself
// (spec.md §3).
func (s *Service) Routes(ctx context.Context, incidentID string) ([]models.CalculatedRoute, error) {
	return s.Store.ListActiveRoutes(ctx, incidentID)
}

// ActivateGreenWave activates one GreenWave per dispatched resource with a
// known current location, only valid for code=red incidents (spec.md
// §4.7).
func (s *Service) ActivateGreenWave(ctx context.Context, incidentID string) ([]models.GreenWave, error) {
	inc, err := s.Store.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, errs.Validation("incident not found: " + incidentID)
	}
	if inc.Code != models.CodeRed {
		return nil, errs.Validation("green-wave activation requires code=red")
	}
	if inc.Location == nil {
		return nil, errs.Validation("incident has no resolved location")
	}

	dispatches, err := s.Store.ListDispatchesByIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var waves []models.GreenWave
	for _, d := range dispatches {
		resourceID, location, ok := s.resolveDispatchedLocation(ctx, d)
		if !ok {
			continue
		}
		wave := s.GreenWave.Activate(waveID(incidentID, resourceID), incidentID, resourceID, location, *inc.Location, 0, now)
		waves = append(waves, wave)
	}
	return waves, nil
}

// resolveDispatchedLocation finds the current location of whichever
// resource (vehicle preferred, then agent) a Dispatch carries.
func (s *Service) resolveDispatchedLocation(ctx context.Context, d models.Dispatch) (resourceID string, location models.LatLon, ok bool) {
	if d.VehicleID != "" {
		vehicles, err := s.Store.ListVehiclesByForce(ctx, d.Force)
		if err == nil {
			for _, v := range vehicles {
				if v.ID == d.VehicleID && v.CurrentLocation != nil {
					return "vehicle_" + v.ID, *v.CurrentLocation, true
				}
			}
		}
	}
	if d.AgentID != "" {
		agents, err := s.Store.ListAgentsByForce(ctx, d.Force)
		if err == nil {
			for _, a := range agents {
				if a.ID == d.AgentID && a.CurrentLocation != nil {
					return "agent_" + a.ID, *a.CurrentLocation, true
				}
			}
		}
	}
	return "", models.LatLon{}, false
}

// Resolve runs the resolution transaction of spec.md §5.
func (s *Service) Resolve(ctx context.Context, incidentID, notes string) (models.Incident, error) {
	now := s.now()
	if err := s.Store.Resolve(ctx, incidentID, notes, now); err != nil {
		return models.Incident{}, err
	}
	return s.Store.GetIncident(ctx, incidentID)
}

// LiveSnapshots implements both GET /tracking/live and the wsfeed Poller's
// SnapshotSource: one Snapshot per dispatch not yet finished (dispatched,
// en_route or on_scene) that has an assigned resource. A dispatch whose route has not been found yet (a race
// between Replan committing the dispatch row and its route rows, which
// happen in the same transaction so this should not occur in practice) is
// skipped rather than failing the whole poll.
func (s *Service) LiveSnapshots(ctx context.Context, now time.Time) []tracking.Snapshot {
	dispatches, err := s.Store.ListActiveDispatches(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list active dispatches for tracking snapshot")
		return nil
	}

	incidentCache := map[string]models.Incident{}
	var snapshots []tracking.Snapshot
	for _, d := range dispatches {
		inc, ok := incidentCache[d.IncidentID]
		if !ok {
			loaded, err := s.Store.GetIncident(ctx, d.IncidentID)
			if err != nil {
				continue
			}
			inc = loaded
			incidentCache[d.IncidentID] = inc
		}

		resourceID := dispatchResourceID(d)
		if resourceID == "" {
			continue
		}
		route, found, err := s.Store.GetActiveRouteForResource(ctx, d.IncidentID, resourceID)
		if err != nil || !found {
			continue
		}

		if inc.Status == models.IncidentResolved {
			snapshots = append(snapshots, tracking.FrozenSnapshot(resourceID, d.IncidentID, route))
			continue
		}
		snapshots = append(snapshots, tracking.Track(resourceID, d.IncidentID, route, inc.Code, inc.OndaVerde, now))
	}
	return snapshots
}

func dispatchResourceID(d models.Dispatch) string {
	if d.VehicleID != "" {
		return "vehicle_" + d.VehicleID
	}
	if d.AgentID != "" {
		return "agent_" + d.AgentID
	}
	return ""
}
