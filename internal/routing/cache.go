package routing

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/caba911/dispatch/internal/geo"
)

// cacheKey rounds a point pair to 5 decimal places (~1.1m precision),
// matching spec.md §4.3's "(round(lat,5), round(lon,5)) pairs".
func cacheKey(start, end geo.Point) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f", start.Lat, start.Lon, end.Lat, end.Lon)
}

// routeCache is a bounded LRU, default 128 entries, protected by a mutex
// and deep-copying on both read and write so a caller mutating a returned
// Route can never corrupt the cached entry (spec.md §5 "Shared mutable
// resources").
type routeCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	route Route
}

func newRouteCache(capacity int) *routeCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &routeCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (c *routeCache) get(start, end geo.Point) (Route, bool) {
	key := cacheKey(start, end)
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return Route{}, false
	}
	c.ll.MoveToFront(el)
	return deepCopyRoute(el.Value.(*cacheEntry).route), true
}

func (c *routeCache) put(start, end geo.Point, route Route) {
	key := cacheKey(start, end)
	stored := deepCopyRoute(route)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).route = stored
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&cacheEntry{key: key, route: stored})
	c.items[key] = el

	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func deepCopyRoute(r Route) Route {
	geomCopy := make([]geo.LonLat, len(r.Geometry))
	copy(geomCopy, r.Geometry)
	stepsCopy := make([]string, len(r.Steps))
	copy(stepsCopy, r.Steps)
	r.Geometry = geomCopy
	r.Steps = stepsCopy
	return r
}
