package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/caba911/dispatch/internal/geo"
)

const defaultProviderTimeout = 10 * time.Second

// MapboxProvider calls Mapbox's Directions API.
type MapboxProvider struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewMapboxProvider(token string, httpClient *http.Client, timeout time.Duration) *MapboxProvider {
	return &MapboxProvider{
		token:   token,
		baseURL: "https://api.mapbox.com/directions/v5/mapbox/driving",
		client:  clientWithTimeout(httpClient, timeout),
	}
}

func (p *MapboxProvider) Name() string { return "mapbox" }

func (p *MapboxProvider) BestRoute(ctx context.Context, start, end geo.Point) (Route, error) {
	if p.token == "" {
		return Route{}, fmt.Errorf("mapbox: 401 unauthorized: no api key configured")
	}
	coords := fmt.Sprintf("%s;%s", lonLatParam(start), lonLatParam(end))
	u := fmt.Sprintf("%s/%s?geometries=geojson&overview=full&access_token=%s",
		p.baseURL, coords, url.QueryEscape(p.token))

	var body mapboxResponse
	if err := getJSON(ctx, p.client, u, &body); err != nil {
		return Route{}, fmt.Errorf("mapbox: %w", err)
	}
	if len(body.Routes) == 0 {
		return Route{}, fmt.Errorf("mapbox: invalid response: no routes")
	}
	r := body.Routes[0]
	return Route{
		Provider:  "mapbox",
		Geometry:  toLonLat(r.Geometry.Coordinates),
		DistanceM: r.Distance,
		DurationS: r.Duration,
		Steps:     summarizeLegs(r.Legs),
	}, nil
}

type mapboxResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Summary string `json:"summary"`
		} `json:"legs"`
	} `json:"routes"`
}

// OpenRouteServiceProvider calls OpenRouteService's directions endpoint.
type OpenRouteServiceProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenRouteServiceProvider(apiKey string, httpClient *http.Client, timeout time.Duration) *OpenRouteServiceProvider {
	return &OpenRouteServiceProvider{
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org/v2/directions/driving-car",
		client:  clientWithTimeout(httpClient, timeout),
	}
}

func (p *OpenRouteServiceProvider) Name() string { return "openrouteservice" }

func (p *OpenRouteServiceProvider) BestRoute(ctx context.Context, start, end geo.Point) (Route, error) {
	if p.apiKey == "" {
		return Route{}, fmt.Errorf("openrouteservice: 401 unauthorized: no api key configured")
	}
	u := fmt.Sprintf("%s?api_key=%s&start=%s&end=%s&geometry_format=geojson",
		p.baseURL, url.QueryEscape(p.apiKey), lonLatParam(start), lonLatParam(end))

	var body struct {
		Features []struct {
			Geometry struct {
				Coordinates [][2]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties struct {
				Summary struct {
					Distance float64 `json:"distance"`
					Duration float64 `json:"duration"`
				} `json:"summary"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := getJSON(ctx, p.client, u, &body); err != nil {
		return Route{}, fmt.Errorf("openrouteservice: %w", err)
	}
	if len(body.Features) == 0 {
		return Route{}, fmt.Errorf("openrouteservice: invalid response: no features")
	}
	f := body.Features[0]
	return Route{
		Provider:  "openrouteservice",
		Geometry:  toLonLat(f.Geometry.Coordinates),
		DistanceM: f.Properties.Summary.Distance,
		DurationS: f.Properties.Summary.Duration,
	}, nil
}

// OSRMProvider queries a list of OSRM hosts in order, trying the next host
// on failure before the orchestrator moves to the next provider entirely
// (spec.md §4.3 "OSRM (multi-host)").
type OSRMProvider struct {
	hosts  []string
	client *http.Client
}

func NewOSRMProvider(hosts []string, httpClient *http.Client, timeout time.Duration) *OSRMProvider {
	if len(hosts) == 0 {
		hosts = []string{"https://router.project-osrm.org"}
	}
	return &OSRMProvider{hosts: hosts, client: clientWithTimeout(httpClient, timeout)}
}

func (p *OSRMProvider) Name() string { return "osrm" }

func (p *OSRMProvider) BestRoute(ctx context.Context, start, end geo.Point) (Route, error) {
	var lastErr error
	for _, host := range p.hosts {
		u := fmt.Sprintf("%s/route/v1/driving/%s;%s?overview=full&geometries=geojson",
			host, lonLatParam(start), lonLatParam(end))

		var body struct {
			Routes []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Geometry struct {
					Coordinates [][2]float64 `json:"coordinates"`
				} `json:"geometry"`
			} `json:"routes"`
		}
		if err := getJSON(ctx, p.client, u, &body); err != nil {
			lastErr = err
			continue
		}
		if len(body.Routes) == 0 {
			lastErr = fmt.Errorf("invalid response: no routes from host %s", host)
			continue
		}
		r := body.Routes[0]
		return Route{
			Provider:  "osrm",
			Geometry:  toLonLat(r.Geometry.Coordinates),
			DistanceM: r.Distance,
			DurationS: r.Duration,
		}, nil
	}
	return Route{}, fmt.Errorf("osrm: all hosts failed: %w", lastErr)
}

// GraphHopperProvider calls GraphHopper's routing API.
type GraphHopperProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGraphHopperProvider(apiKey string, httpClient *http.Client, timeout time.Duration) *GraphHopperProvider {
	return &GraphHopperProvider{
		apiKey:  apiKey,
		baseURL: "https://graphhopper.com/api/1/route",
		client:  clientWithTimeout(httpClient, timeout),
	}
}

func (p *GraphHopperProvider) Name() string { return "graphhopper" }

func (p *GraphHopperProvider) BestRoute(ctx context.Context, start, end geo.Point) (Route, error) {
	if p.apiKey == "" {
		return Route{}, fmt.Errorf("graphhopper: 401 unauthorized: no api key configured")
	}
	u := fmt.Sprintf("%s?point=%s&point=%s&vehicle=car&points_encoded=false&key=%s",
		p.baseURL, latLonParam(start), latLonParam(end), url.QueryEscape(p.apiKey))

	var body struct {
		Paths []struct {
			Distance float64 `json:"distance"`
			Time     float64 `json:"time"` // milliseconds
			Points   struct {
				Coordinates [][2]float64 `json:"coordinates"`
			} `json:"points"`
		} `json:"paths"`
	}
	if err := getJSON(ctx, p.client, u, &body); err != nil {
		return Route{}, fmt.Errorf("graphhopper: %w", err)
	}
	if len(body.Paths) == 0 {
		return Route{}, fmt.Errorf("graphhopper: invalid response: no paths")
	}
	path := body.Paths[0]
	return Route{
		Provider:  "graphhopper",
		Geometry:  toLonLat(path.Points.Coordinates),
		DistanceM: path.Distance,
		DurationS: path.Time / 1000.0,
	}, nil
}

func clientWithTimeout(base *http.Client, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	if base == nil {
		return &http.Client{Timeout: timeout}
	}
	c := *base
	c.Timeout = timeout
	return &c
}

func getJSON(ctx context.Context, client *http.Client, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("429 too many requests")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func lonLatParam(p geo.Point) string {
	return strconv.FormatFloat(p.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
}

func latLonParam(p geo.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lon, 'f', 6, 64)
}

func toLonLat(coords [][2]float64) []geo.LonLat {
	out := make([]geo.LonLat, len(coords))
	for i, c := range coords {
		out[i] = geo.LonLat{Lon: c[0], Lat: c[1]}
	}
	return out
}

func summarizeLegs(legs []struct {
	Summary string `json:"summary"`
}) []string {
	steps := make([]string, 0, len(legs))
	for _, l := range legs {
		if l.Summary != "" {
			steps = append(steps, l.Summary)
		}
	}
	return steps
}
