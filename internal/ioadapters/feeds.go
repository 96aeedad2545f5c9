package ioadapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/caba911/dispatch/internal/models"
	"github.com/rs/zerolog/log"
)

// FeedStore is the subset of internal/store.Store the feed pollers write
// into, kept narrow so this package never imports internal/store directly.
type FeedStore interface {
	InsertStreetClosure(ctx context.Context, c models.StreetClosure) error
	InsertTrafficCount(ctx context.Context, c models.TrafficCount) error
}

// FeedPoller periodically fetches street-closure and traffic-count fixture
// feeds over HTTP and persists them, so the Closure/Traffic Adjuster always
// reads from indexed store rows rather than calling out per-route
// (SPEC_FULL.md §4.9).
type FeedPoller struct {
	client          *http.Client
	closuresURL     string
	trafficURL      string
	store           FeedStore
	offline         bool
	pollInterval    time.Duration
}

// NewFeedPoller builds a poller. When offline is true, Run is a no-op.
func NewFeedPoller(client *http.Client, closuresURL, trafficURL string, store FeedStore, pollInterval time.Duration, offline bool) *FeedPoller {
	if client == nil {
		client = NewHTTPClient(defaultHTTPTimeout)
	}
	if pollInterval <= 0 {
		pollInterval = 60 * time.Second
	}
	return &FeedPoller{
		client:       client,
		closuresURL:  closuresURL,
		trafficURL:   trafficURL,
		store:        store,
		pollInterval: pollInterval,
		offline:      offline,
	}
}

// Run polls both feeds on pollInterval until ctx is canceled. It fetches
// once immediately before entering the ticker loop.
func (p *FeedPoller) Run(ctx context.Context) {
	if p.offline {
		log.Info().Msg("ingress offline: feed poller disabled")
		return
	}

	p.pollOnce(ctx)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *FeedPoller) pollOnce(ctx context.Context) {
	if p.closuresURL != "" {
		if err := p.pollClosures(ctx); err != nil {
			log.Error().Err(err).Msg("closures feed poll failed")
		}
	}
	if p.trafficURL != "" {
		if err := p.pollTraffic(ctx); err != nil {
			log.Error().Err(err).Msg("traffic feed poll failed")
		}
	}
}

func (p *FeedPoller) pollClosures(ctx context.Context) error {
	var closures []models.StreetClosure
	if err := p.fetchJSON(ctx, p.closuresURL, &closures); err != nil {
		return err
	}
	for _, c := range closures {
		if err := p.store.InsertStreetClosure(ctx, c); err != nil {
			return fmt.Errorf("persist closure %s: %w", c.ID, err)
		}
	}
	return nil
}

func (p *FeedPoller) pollTraffic(ctx context.Context) error {
	var counts []models.TrafficCount
	if err := p.fetchJSON(ctx, p.trafficURL, &counts); err != nil {
		return err
	}
	for _, c := range counts {
		if err := p.store.InsertTrafficCount(ctx, c); err != nil {
			return fmt.Errorf("persist traffic count %s: %w", c.ID, err)
		}
	}
	return nil
}

func (p *FeedPoller) fetchJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("feed %s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
