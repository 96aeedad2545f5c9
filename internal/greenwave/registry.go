package greenwave

import (
	"sync"
	"time"

	"github.com/caba911/dispatch/internal/models"
)

const waveTTL = 30 * time.Minute

// Registry is the shared, in-memory active-wave map named in spec.md §5
// ("Active green-wave registry: shared map with TTL eviction on read").
// Activating the same wave_id twice is idempotent: the later call simply
// overwrites the stored wave and refreshes its expiry.
type Registry struct {
	mu     sync.Mutex
	waves  map[string]entry
}

type entry struct {
	wave      models.GreenWave
	expiresAt time.Time
}

func NewRegistry() *Registry {
	return &Registry{waves: make(map[string]entry)}
}

// Put stores or replaces a wave, refreshing its TTL. Re-activating an
// existing wave_id is idempotent: callers always get the latest windows.
func (r *Registry) Put(wave models.GreenWave, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waves[wave.WaveID] = entry{wave: wave, expiresAt: now.Add(waveTTL)}
}

// Active returns all non-expired waves, purging expired entries as a side
// effect (spec.md §4.7 "queries purge expired waves on access").
func (r *Registry) Active(now time.Time) []models.GreenWave {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.GreenWave, 0, len(r.waves))
	for id, e := range r.waves {
		if now.After(e.expiresAt) {
			delete(r.waves, id)
			continue
		}
		out = append(out, e.wave)
	}
	return out
}

// Get returns a single wave by ID if it exists and has not expired,
// purging it first if it has.
func (r *Registry) Get(waveID string, now time.Time) (models.GreenWave, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.waves[waveID]
	if !ok {
		return models.GreenWave{}, false
	}
	if now.After(e.expiresAt) {
		delete(r.waves, waveID)
		return models.GreenWave{}, false
	}
	return e.wave, true
}
