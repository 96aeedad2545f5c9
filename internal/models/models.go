// Package models holds the plain entity types shared by every pipeline
// stage. None of these types import the routing or store packages, so the
// Routing Provider depends only on geo primitives (see internal/geo) and
// the Dispatch Planner stays the only component that speaks both the
// storage and routing languages (spec.md design notes, "cyclic
// dependencies between routing and models").
package models

import "time"

// ForceName enumerates the four responding forces.
type ForceName string

const (
	ForcePolice  ForceName = "police"
	ForceMedical ForceName = "medical"
	ForceFire    ForceName = "fire"
	ForceTraffic ForceName = "traffic"
)

// Code is the triage severity band.
type Code string

const (
	CodeRed    Code = "red"
	CodeYellow Code = "yellow"
	CodeGreen  Code = "green"
)

// Priority returns the fixed priority value an incident must carry for
// this code (spec.md §3 invariants).
func (c Code) Priority() int {
	switch c {
	case CodeRed:
		return 10
	case CodeYellow:
		return 5
	default:
		return 1
	}
}

// LatLon is a point in WGS84 decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LineString is an ordered list of lon/lat pairs, matching GeoJSON point
// order (lon first) because every external routing provider in §4.3 speaks
// GeoJSON natively.
type LineString []LonLat

type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

func (ll LonLat) ToLatLon() LatLon { return LatLon{Lat: ll.Lat, Lon: ll.Lon} }

func FromLatLon(p LatLon) LonLat { return LonLat{Lon: p.Lon, Lat: p.Lat} }

// Facility is a base station owning zero or more vehicles.
type FacilityKind string

const (
	FacilityPoliceStation FacilityKind = "police_station"
	FacilityFireStation   FacilityKind = "fire_station"
	FacilityTrafficBase   FacilityKind = "traffic_base"
)

type Facility struct {
	ID       string       `json:"id"`
	Kind     FacilityKind `json:"kind"`
	Force    ForceName    `json:"force"`
	Location *LatLon      `json:"location,omitempty"`
}

// Hospital tracks bed capacity; available is always derived, never stored.
type Hospital struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Location     *LatLon `json:"location,omitempty"`
	TotalBeds    int     `json:"total_beds"`
	OccupiedBeds int     `json:"occupied_beds"`
}

// Available returns total-occupied clamped to zero.
func (h Hospital) Available() int {
	a := h.TotalBeds - h.OccupiedBeds
	if a < 0 {
		return 0
	}
	return a
}

// VehicleStatus tracks a vehicle's dispatch lifecycle.
type VehicleStatus string

const (
	VehicleAvailable VehicleStatus = "available"
	VehicleEnRoute   VehicleStatus = "en_route"
	VehicleBusy      VehicleStatus = "busy"
)

type Vehicle struct {
	ID             string        `json:"id"`
	Force          ForceName     `json:"force"`
	Type           string        `json:"type"` // ambulance, fire_engine, patrol, ...
	Status         VehicleStatus `json:"status"`
	CurrentLocation *LatLon      `json:"current_location,omitempty"`
	TargetLocation  *LatLon      `json:"target_location,omitempty"`
	HomeFacility    *string      `json:"home_facility,omitempty"`
}

// AgentStatus tracks an agent's dispatch lifecycle.
type AgentStatus string

const (
	AgentAvailable AgentStatus = "available"
	AgentEnRoute   AgentStatus = "en_route"
	AgentOnScene   AgentStatus = "on_scene"
	AgentBusy      AgentStatus = "busy"
	AgentOffDuty   AgentStatus = "off_duty"
)

type Agent struct {
	ID              string      `json:"id"`
	Force           ForceName   `json:"force"`
	Name            string      `json:"name"`
	Role            string      `json:"role"`
	Status          AgentStatus `json:"status"`
	CurrentLocation *LatLon     `json:"current_location,omitempty"`
	TargetLocation  *LatLon     `json:"target_location,omitempty"`
	AssignedVehicle *string     `json:"assigned_vehicle,omitempty"`
	HomeFacility    *string     `json:"home_facility,omitempty"`
}

// IncidentStatus is the incident lifecycle state.
type IncidentStatus string

const (
	IncidentPending  IncidentStatus = "pending"
	IncidentAssigned IncidentStatus = "assigned"
	IncidentResolved IncidentStatus = "resolved"
)

type Incident struct {
	ID               string         `json:"id"`
	Description      string         `json:"description"`
	Address          string         `json:"address,omitempty"`
	Location         *LatLon        `json:"location,omitempty"`
	Code             Code           `json:"code"`
	Priority         int            `json:"priority"`
	Status           IncidentStatus `json:"status"`
	OndaVerde        bool           `json:"onda_verde"`
	AssignedForce    ForceName      `json:"assigned_force,omitempty"`
	AssignedVehicle  string         `json:"assigned_vehicle,omitempty"`
	ReportedAt       time.Time      `json:"reported_at"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty"`
	ResolutionNotes  string         `json:"resolution_notes,omitempty"`
	AIResponse       string         `json:"ai_response,omitempty"`
}

// AppendDegradationNote records which pipeline stage fell back, following
// the free-form resolution_notes mechanism of spec.md §7.
func (i *Incident) AppendDegradationNote(note string) {
	if i.ResolutionNotes != "" {
		i.ResolutionNotes += "\n"
	}
	i.ResolutionNotes += note
}

// DispatchStatus is the per-force dispatch lifecycle state.
type DispatchStatus string

const (
	DispatchDispatched DispatchStatus = "dispatched"
	DispatchEnRoute    DispatchStatus = "en_route"
	DispatchOnScene    DispatchStatus = "on_scene"
	DispatchFinished   DispatchStatus = "finished"
)

type Dispatch struct {
	ID         string         `json:"id"`
	IncidentID string         `json:"incident_id"`
	Force      ForceName      `json:"force"`
	VehicleID  string         `json:"vehicle_id,omitempty"`
	AgentID    string         `json:"agent_id,omitempty"`
	Status     DispatchStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

// RouteStatus is the lifecycle of a persisted route row.
type RouteStatus string

const (
	RouteActive    RouteStatus = "active"
	RouteCompleted RouteStatus = "completed"
	RouteCancelled RouteStatus = "cancelled"
)

type CalculatedRoute struct {
	ID                   string      `json:"id"`
	IncidentID           string      `json:"incident_id"`
	ResourceID           string      `json:"resource_id"` // e.g. "vehicle_{id}"
	ResourceType         string      `json:"resource_type"`
	DistanceKM           float64     `json:"distance_km"`
	EstimatedTimeMinutes float64     `json:"estimated_time_minutes"`
	PriorityScore        float64     `json:"priority_score"`
	Geometry             LineString  `json:"geometry"`
	Status               RouteStatus `json:"status"`
	CalculatedAt         time.Time   `json:"calculated_at"`
	CompletedAt          *time.Time  `json:"completed_at,omitempty"`
}

// StreetClosure models a closed point or stretch of road.
type StreetClosure struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ClosureType   string     `json:"closure_type"`
	PointLocation *LatLon    `json:"point_location,omitempty"`
	Geometry      LineString `json:"geometry,omitempty"`
	StartAt       time.Time  `json:"start_at"`
	EndAt         *time.Time `json:"end_at,omitempty"`
	IsActive      bool       `json:"is_active"`
}

// ActiveAt reports whether the closure is in effect at instant now.
func (c StreetClosure) ActiveAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.StartAt) {
		return false
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return false
	}
	return true
}

// TrafficCountType enumerates the kinds of congestion samples.
type TrafficCountType string

const (
	CountVehicle   TrafficCountType = "vehicle"
	CountSpeed     TrafficCountType = "speed"
	CountOccupancy TrafficCountType = "occupancy"
)

type TrafficCount struct {
	ID            string           `json:"id"`
	Location      LatLon           `json:"location"`
	CountType     TrafficCountType `json:"count_type"`
	CountValue    float64          `json:"count_value"`
	Unit          string           `json:"unit"`
	Timestamp     time.Time        `json:"timestamp"`
	PeriodMinutes int              `json:"period_minutes"`
}

// ParkingSpot supplements the distilled spec's entity list (see
// SPEC_FULL.md "Supplemented features"); occupancy_rate is a computed
// accessor, not a stage input.
type ParkingSpot struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Location         LatLon  `json:"location"`
	TotalSpaces      int     `json:"total_spaces"`
	AvailableSpaces  int     `json:"available_spaces"`
	SpotType         string  `json:"spot_type"`
	IsPaid           bool    `json:"is_paid"`
	MaxDurationHours *float64 `json:"max_duration_hours,omitempty"`
	IsActive         bool    `json:"is_active"`
}

func (p ParkingSpot) OccupancyRate() float64 {
	if p.TotalSpaces <= 0 {
		return 0
	}
	return float64(p.TotalSpaces-p.AvailableSpaces) / float64(p.TotalSpaces)
}

// GreenWaveWindow is a single intersection's timed green-light window.
type GreenWaveWindow struct {
	Intersection string    `json:"intersection"`
	Arrival      time.Time `json:"arrival"`
	GreenStart   time.Time `json:"green_start"`
	GreenEnd     time.Time `json:"green_end"`
	Priority     string    `json:"priority"` // major | secondary
}

// GreenWave is process-local (never persisted, per spec.md §3/§6).
type GreenWave struct {
	WaveID     string            `json:"wave_id"`
	IncidentID string            `json:"incident"`
	Resource   string            `json:"resource"`
	CreatedAt  time.Time         `json:"created_at"`
	PathStart  LatLon            `json:"path_start"`
	PathEnd    LatLon            `json:"path_end"`
	Windows    []GreenWaveWindow `json:"windows"`
}
