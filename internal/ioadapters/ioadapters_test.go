package ioadapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/caba911/dispatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeOfflineReturnsDeterministicCentroid(t *testing.T) {
	g := NewGeocoder(nil, "", true)
	p, err := g.Geocode(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, offlineCentroid, p)
}

func TestGeocodeEmptyAddressFails(t *testing.T) {
	g := NewGeocoder(nil, "", false)
	_, err := g.Geocode(context.Background(), "")
	assert.Error(t, err)
}

func TestGeocodeParsesNominatimResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]nominatimResult{{Lat: "-34.6", Lon: "-58.4"}})
	}))
	defer srv.Close()

	g := NewGeocoder(srv.Client(), srv.URL, false)
	p, err := g.Geocode(context.Background(), "Av. Corrientes 1000, CABA")
	require.NoError(t, err)
	assert.InDelta(t, -34.6, p.Lat, 0.0001)
	assert.InDelta(t, -58.4, p.Lon, 0.0001)
}

func TestGeocodeEmptyResultSetFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]nominatimResult{})
	}))
	defer srv.Close()

	g := NewGeocoder(srv.Client(), srv.URL, false)
	_, err := g.Geocode(context.Background(), "nowhere")
	assert.Error(t, err)
}

func TestGeocodeNonOKStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGeocoder(srv.Client(), srv.URL, false)
	_, err := g.Geocode(context.Background(), "anywhere")
	assert.Error(t, err)
}

type fakeFeedStore struct {
	mu       sync.Mutex
	closures []models.StreetClosure
	counts   []models.TrafficCount
}

func (f *fakeFeedStore) InsertStreetClosure(ctx context.Context, c models.StreetClosure) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closures = append(f.closures, c)
	return nil
}

func (f *fakeFeedStore) InsertTrafficCount(ctx context.Context, c models.TrafficCount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, c)
	return nil
}

func TestFeedPollerPersistsClosuresAndTraffic(t *testing.T) {
	closuresSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.StreetClosure{
			{ID: "c1", Name: "test closure", IsActive: true, StartAt: time.Now()},
		})
	}))
	defer closuresSrv.Close()

	trafficSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.TrafficCount{
			{ID: "t1", CountType: models.CountVehicle, CountValue: 500, Timestamp: time.Now()},
		})
	}))
	defer trafficSrv.Close()

	store := &fakeFeedStore{}
	poller := NewFeedPoller(closuresSrv.Client(), closuresSrv.URL, trafficSrv.URL, store, time.Hour, false)
	poller.pollOnce(context.Background())

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.closures, 1)
	require.Len(t, store.counts, 1)
	assert.Equal(t, "c1", store.closures[0].ID)
	assert.Equal(t, "t1", store.counts[0].ID)
}

func TestFeedPollerOfflineIsNoOp(t *testing.T) {
	store := &fakeFeedStore{}
	poller := NewFeedPoller(nil, "http://unused.local/closures", "http://unused.local/traffic", store, time.Hour, true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	poller.Run(ctx)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.closures)
	assert.Empty(t, store.counts)
}

func TestNewHTTPClientAppliesDefaultTimeout(t *testing.T) {
	c := NewHTTPClient(0)
	assert.Equal(t, defaultHTTPTimeout, c.Timeout)
}
