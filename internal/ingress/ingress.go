// Package ingress implements the abstract "Incident ingress API" of
// spec.md §6: operators submit {description, address?, lat?, lon?}; when
// no coordinates are given, the configured Geocoder resolves the address,
// and triage classification runs immediately so a newly created Incident
// always carries a valid code/priority (spec.md §3 invariants). This is
// deliberately not one of the five net/http endpoints of §6 -- it is the
// abstract core entry point external collaborators (the CLI "ingest"
// subcommand, or a future HTTP front door) call into.
package ingress

import (
	"context"
	"strings"
	"time"

	"github.com/caba911/dispatch/internal/errs"
	"github.com/caba911/dispatch/internal/geo"
	"github.com/caba911/dispatch/internal/models"
	"github.com/caba911/dispatch/internal/store"
	"github.com/caba911/dispatch/internal/triage"
	"github.com/oklog/ulid/v2"
)

// Geocoder resolves a free-form address to a point; satisfied by
// internal/ioadapters.Geocoder without importing it directly.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Point, error)
}

// IDGen produces a new time-sortable Incident ID.
type IDGen func() string

// Request is the operator-submitted payload of spec.md §6.
type Request struct {
	Description string
	Address     string
	Lat         *float64
	Lon         *float64
}

// Submit validates, resolves location, classifies, and persists a new
// pending Incident. Input problems fail with Validation (empty description)
// or GeocodingFailed (no coordinates and the address can't be resolved);
// an error from persisting the incident is returned as the store gave it.
func Submit(ctx context.Context, st *store.Store, geocoder Geocoder, engine *triage.Engine, idGen IDGen, req Request, now time.Time) (models.Incident, error) {
	if strings.TrimSpace(req.Description) == "" {
		return models.Incident{}, errs.Validation("incident description is required")
	}

	location, address, err := resolveLocation(ctx, geocoder, req)
	if err != nil {
		return models.Incident{}, err
	}

	result := engine.Classify(ctx, req.Description)

	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	inc := models.Incident{
		ID:          idGen(),
		Description: req.Description,
		Address:     address,
		Location:    location,
		Code:        result.Code,
		Priority:    result.Code.Priority(),
		Status:      models.IncidentPending,
		OndaVerde:   result.Code == models.CodeRed,
		ReportedAt:  now,
		AIResponse:  result.AINarrative,
	}
	if err := st.InsertIncident(ctx, inc); err != nil {
		return models.Incident{}, err
	}
	return inc, nil
}

func resolveLocation(ctx context.Context, geocoder Geocoder, req Request) (*models.LatLon, string, error) {
	if req.Lat != nil && req.Lon != nil {
		return &models.LatLon{Lat: *req.Lat, Lon: *req.Lon}, req.Address, nil
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, "", errs.GeocodingFailed("neither coordinates nor an address were supplied", nil)
	}
	if geocoder == nil {
		return nil, "", errs.GeocodingFailed("no geocoder configured", nil)
	}
	p, err := geocoder.Geocode(ctx, req.Address)
	if err != nil {
		return nil, "", err
	}
	return &models.LatLon{Lat: p.Lat, Lon: p.Lon}, req.Address, nil
}
