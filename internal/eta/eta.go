package eta

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/delivery-dispatch/internal/geo"
	"github.com/example/delivery-dispatch/internal/models"
)

const defaultSpeedMps = 8.0 // ~28.8 km/h city riding

// Estimator returns travel time in seconds between two points.
type Estimator interface {
	EstimateSeconds(ctx context.Context, from, to models.Point) (float64, error)
}

// Straight divides great-circle distance by a constant speed.
type Straight struct {
	SpeedMps float64
}

func (s Straight) EstimateSeconds(_ context.Context, from, to models.Point) (float64, error) {
	speed := s.SpeedMps
	if speed <= 0 {
		speed = defaultSpeedMps
	}
	return geo.Distance(from, to) / speed, nil
}

// Cache is a tiny in-memory cache for ETA lookups keyed by coords.
type Cache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	v  float64
	ts time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: make(map[string]cacheEntry), ttl: ttl}
}

func keyFor(a, b models.Point) string {
	return fmtPoint(a) + "->" + fmtPoint(b)
}

// 4 decimals is roughly 11 m, close enough to share a routed ETA.
func fmtPoint(p models.Point) string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lng)
}

func (c *Cache) Get(a, b models.Point) (float64, bool) {
	k := keyFor(a, b)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return 0, false
	}
	return e.v, true
}

func (c *Cache) Set(a, b models.Point, v float64) {
	k := keyFor(a, b)
	c.mu.Lock()
	c.store[k] = cacheEntry{v: v, ts: time.Now()}
	c.mu.Unlock()
}

// Routed asks a routing engine first, caches the answer and falls back to a
// straight-line estimate when the engine fails.
type Routed struct {
	Client   Estimator
	Cache    *Cache
	Fallback Straight
}

func (r *Routed) EstimateSeconds(ctx context.Context, from, to models.Point) (float64, error) {
	if r.Cache != nil {
		if v, ok := r.Cache.Get(from, to); ok {
			return v, nil
		}
	}
	if r.Client != nil {
		if v, err := r.Client.EstimateSeconds(ctx, from, to); err == nil {
			if r.Cache != nil {
				r.Cache.Set(from, to, v)
			}
			return v, nil
		}
	}
	return r.Fallback.EstimateSeconds(ctx, from, to)
}
