package wsfeed

import (
	"context"
	"time"

	"github.com/caba911/dispatch/internal/tracking"
)

// SnapshotSource returns the current tracking snapshot for every resource
// with an active dispatch, evaluated at instant now.
type SnapshotSource func(now time.Time) []tracking.Snapshot

// Poller polls a SnapshotSource on an interval and publishes the result to
// a Hub under the "tracking_update" message type.
type Poller struct {
	hub      *Hub
	source   SnapshotSource
	interval time.Duration
}

// NewPoller builds a Poller. interval defaults to 2s when <= 0, matching
// the tracking engine's per-tick cadence (spec.md §4.8).
func NewPoller(hub *Hub, source SnapshotSource, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{hub: hub, source: source, interval: interval}
}

// Run publishes snapshots on p.interval until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshots := p.source(time.Now())
			p.hub.Publish("tracking_update", snapshots)
		}
	}
}
