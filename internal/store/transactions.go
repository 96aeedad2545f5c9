package store

import (
	"context"
	"fmt"
	"time"

	"github.com/caba911/dispatch/internal/models"
)

// ReplanInput bundles everything the Dispatch Planner produces for a full
// re-plan so it can be applied atomically (spec.md §5: "delete active
// routes + insert new routes + update dispatches + update
// assigned_force/vehicle + incident.status must execute in a single
// database transaction").
type ReplanInput struct {
	IncidentID      string
	NewStatus       models.IncidentStatus
	AssignedForce   models.ForceName
	AssignedVehicle string
	Dispatches      []models.Dispatch
	Routes          []models.CalculatedRoute
	// Selections carries the resource status transitions the planner
	// decided on (available -> en_route) so they land in the same
	// transaction as the rest of the re-plan.
	VehicleSelections []ResourceSelection
	AgentSelections   []ResourceSelection
}

// ResourceSelection is one vehicle/agent status transition to apply.
type ResourceSelection struct {
	ID     string
	Status string // models.VehicleStatus or models.AgentStatus string value
	Target *models.LatLon
}

// Replan applies a full re-plan atomically. Re-planning an already-resolved
// incident is rejected outright and returns its frozen, unmodified active
// routes instead of recomputing (spec.md §4.8 failure-semantics table,
// "Re-planning while resolved: Rejected").
func (s *Store) Replan(ctx context.Context, in ReplanInput) ([]models.CalculatedRoute, error) {
	tx, err := s.beginImmediate(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin replan transaction: %w", err)
	}
	defer tx.Rollback()

	inc, err := s.getIncidentTx(ctx, tx, in.IncidentID)
	if err != nil {
		return nil, fmt.Errorf("load incident: %w", err)
	}
	if inc.Status == models.IncidentResolved {
		routes, err := s.listActiveRoutesTx(ctx, tx, in.IncidentID)
		if err != nil {
			return nil, err
		}
		return routes, tx.Commit()
	}

	if err := deleteActiveRoutes(ctx, tx, in.IncidentID); err != nil {
		return nil, fmt.Errorf("delete active routes: %w", err)
	}
	for _, r := range in.Routes {
		if err := insertRoute(ctx, tx, r); err != nil {
			return nil, fmt.Errorf("insert route %s: %w", r.ID, err)
		}
	}

	for _, d := range in.Dispatches {
		if _, err := upsertDispatch(ctx, tx, d); err != nil {
			return nil, fmt.Errorf("upsert dispatch for force %s: %w", d.Force, err)
		}
	}

	for _, sel := range in.VehicleSelections {
		if err := s.SetVehicleStatus(ctx, tx, sel.ID, models.VehicleStatus(sel.Status), sel.Target); err != nil {
			return nil, fmt.Errorf("update vehicle %s status: %w", sel.ID, err)
		}
	}
	for _, sel := range in.AgentSelections {
		if err := s.SetAgentStatus(ctx, tx, sel.ID, models.AgentStatus(sel.Status), sel.Target); err != nil {
			return nil, fmt.Errorf("update agent %s status: %w", sel.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE incidents SET status = ?, assigned_force = ?, assigned_vehicle = ? WHERE id = ?`,
		string(in.NewStatus), nullString(string(in.AssignedForce)), nullString(in.AssignedVehicle), in.IncidentID); err != nil {
		return nil, fmt.Errorf("update incident summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replan transaction: %w", err)
	}
	return in.Routes, nil
}

// Resolve applies the resolution transaction of spec.md §5: incident
// status/resolved_at/resolution_notes, release of all vehicles/agents tied
// to the incident's dispatches, dispatches marked finished, and routes
// marked completed.
func (s *Store) Resolve(ctx context.Context, incidentID, resolutionNotes string, now time.Time) error {
	tx, err := s.beginImmediate(ctx)
	if err != nil {
		return fmt.Errorf("begin resolve transaction: %w", err)
	}
	defer tx.Rollback()

	dispatches, err := s.listDispatchesTx(ctx, tx, incidentID)
	if err != nil {
		return fmt.Errorf("load dispatches: %w", err)
	}

	for _, d := range dispatches {
		if d.VehicleID != "" {
			if err := s.SetVehicleStatus(ctx, tx, d.VehicleID, models.VehicleAvailable, nil); err != nil {
				return fmt.Errorf("release vehicle %s: %w", d.VehicleID, err)
			}
		}
		if d.AgentID != "" {
			if err := s.SetAgentStatus(ctx, tx, d.AgentID, models.AgentAvailable, nil); err != nil {
				return fmt.Errorf("release agent %s: %w", d.AgentID, err)
			}
		}
	}

	if err := finishDispatches(ctx, tx, incidentID); err != nil {
		return fmt.Errorf("finish dispatches: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE calculated_routes SET status = ?, completed_at = ? WHERE incident_id = ? AND status = ?`,
		string(models.RouteCompleted), now, incidentID, string(models.RouteActive)); err != nil {
		return fmt.Errorf("complete routes: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE incidents SET status = ?, resolved_at = ?, resolution_notes = ? WHERE id = ?`,
		string(models.IncidentResolved), now, resolutionNotes, incidentID); err != nil {
		return fmt.Errorf("mark incident resolved: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resolve transaction: %w", err)
	}
	return nil
}
