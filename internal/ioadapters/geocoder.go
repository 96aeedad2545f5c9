package ioadapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/caba911/dispatch/internal/errs"
	"github.com/caba911/dispatch/internal/geo"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// offlineCentroid is the deterministic point INGRESS_OFFLINE resolves every
// address to, so integration tests never need network access (SPEC_FULL.md
// §4.9).
var offlineCentroid = geo.Point{Lat: -34.6037, Lon: -58.3816}

// Geocoder resolves a free-form address to coordinates, reimplementing the
// Nominatim call the original Django ingress view made inline
// (emergency_system/core/views.py) against a pluggable, testable interface.
type Geocoder struct {
	client  *http.Client
	baseURL string
	offline bool
}

// NewGeocoder builds a Geocoder. When offline is true, Geocode always
// returns offlineCentroid without making a request.
func NewGeocoder(client *http.Client, baseURL string, offline bool) *Geocoder {
	if client == nil {
		client = NewHTTPClient(defaultHTTPTimeout)
	}
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	return &Geocoder{client: client, baseURL: baseURL, offline: offline}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves address to a point, returning errs.GeocodingFailed on
// any network error, non-2xx response, or empty result set (spec.md §6).
func (g *Geocoder) Geocode(ctx context.Context, address string) (geo.Point, error) {
	if g.offline {
		return offlineCentroid, nil
	}
	if address == "" {
		return geo.Point{}, errs.GeocodingFailed("address is empty", nil)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)
	q.Set("limit", "1")
	reqURL := g.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return geo.Point{}, errs.GeocodingFailed("build geocoding request", err)
	}
	req.Header.Set("User-Agent", "dispatch-backbone/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return geo.Point{}, errs.GeocodingFailed("geocoding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return geo.Point{}, errs.GeocodingFailed(fmt.Sprintf("geocoding service returned status %d", resp.StatusCode), nil)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geo.Point{}, errs.GeocodingFailed("decode geocoding response", err)
	}
	if len(results) == 0 {
		return geo.Point{}, errs.GeocodingFailed("address could not be resolved to a location", nil)
	}

	var lat, lon float64
	if _, err := fmt.Sscanf(results[0].Lat, "%f", &lat); err != nil {
		return geo.Point{}, errs.GeocodingFailed("parse geocoding latitude", err)
	}
	if _, err := fmt.Sscanf(results[0].Lon, "%f", &lon); err != nil {
		return geo.Point{}, errs.GeocodingFailed("parse geocoding longitude", err)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}
