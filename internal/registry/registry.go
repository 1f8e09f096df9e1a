package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/clock"
	"github.com/example/delivery-dispatch/internal/geo"
	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/observability"
)

const DefaultStaleAfter = 90 * time.Second

// Directory is the authoritative source of rider ids and ratings.
// Lookup returns models.ErrRiderNotFound for unknown ids.
type Directory interface {
	Lookup(ctx context.Context, riderID string) (models.Rider, error)
}

// Mirror receives a copy of every record change. Failures are logged and
// never fail the update.
type Mirror interface {
	Upsert(ctx context.Context, loc models.RiderLocation) error
}

type Option func(*Registry)

func WithStaleAfter(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

func WithClock(c clock.Clock) Option { return func(r *Registry) { r.clock = c } }

func WithMirror(m Mirror) Option { return func(r *Registry) { r.mirror = m } }

func WithLogger(l *logrus.Logger) Option { return func(r *Registry) { r.log = l } }

// Registry holds one live location record per rider. The map lock only
// guards membership; each record has its own mutex so updates for different
// riders never contend.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry

	dir        Directory
	mirror     Mirror
	clock      clock.Clock
	staleAfter time.Duration
	log        *logrus.Logger
}

type entry struct {
	mu  sync.Mutex
	rec models.RiderLocation
}

func New(dir Directory, opts ...Option) *Registry {
	r := &Registry{
		entries:    make(map[string]*entry),
		dir:        dir,
		clock:      clock.NewSystem(),
		staleAfter: DefaultStaleAfter,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) StaleAfter() time.Duration { return r.staleAfter }

// UpdateLocation replaces the rider's record and recomputes availability.
func (r *Registry) UpdateLocation(ctx context.Context, riderID string, lat, lng float64, online bool) (models.RiderLocation, error) {
	if err := geo.ValidateCoordinate(lat, lng); err != nil {
		observability.LocationUpdates.WithLabelValues("invalid").Inc()
		return models.RiderLocation{}, err
	}
	if _, err := r.dir.Lookup(ctx, riderID); err != nil {
		observability.LocationUpdates.WithLabelValues("unknown_rider").Inc()
		return models.RiderLocation{}, fmt.Errorf("update location %s: %w", riderID, err)
	}

	e := r.getOrCreate(riderID)
	e.mu.Lock()
	now := r.clock.Now()
	prev := r.view(e.rec, now)

	rec := e.rec
	rec.RiderID = riderID
	rec.Lat, rec.Lng = lat, lng
	rec.IsOnline = online
	rec.LastUpdatedAt = now
	rec.IsAvailable = online && !rec.Claimed
	switch {
	case !rec.IsAvailable:
		rec.AvailableSince = time.Time{}
	case !prev.IsAvailable:
		rec.AvailableSince = now
	}
	e.rec = rec
	e.mu.Unlock()

	observability.LocationUpdates.WithLabelValues("ok").Inc()
	r.mirrorRecord(ctx, rec)
	return rec, nil
}

// GetStatus returns the record as readers see it, with staleness applied.
func (r *Registry) GetStatus(riderID string) (models.RiderLocation, bool) {
	e := r.get(riderID)
	if e == nil {
		return models.RiderLocation{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return r.view(e.rec, r.clock.Now()), true
}

// QueryAvailable returns available, non-stale riders within radiusM of p.
// Order is unspecified.
func (r *Registry) QueryAvailable(radiusM float64, p models.Point) []models.RiderLocation {
	var out []models.RiderLocation
	for _, e := range r.all() {
		e.mu.Lock()
		v := r.view(e.rec, r.clock.Now())
		e.mu.Unlock()
		if !v.IsAvailable {
			continue
		}
		if geo.Distance(p, v.Point()) <= radiusM {
			out = append(out, v)
		}
	}
	return out
}

// OnlineCount returns how many riders read as online right now.
func (r *Registry) OnlineCount() int {
	n := 0
	for _, e := range r.all() {
		e.mu.Lock()
		if r.view(e.rec, r.clock.Now()).IsOnline {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// List pages over all records ordered by rider id.
func (r *Registry) List(p models.Page) ([]models.RiderLocation, int) {
	entries := r.all()
	recs := make([]models.RiderLocation, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		recs = append(recs, r.view(e.rec, r.clock.Now()))
		e.mu.Unlock()
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].RiderID < recs[j].RiderID })
	start, end := p.Window(len(recs))
	return recs[start:end], len(recs)
}

// WithRider runs fn while holding the rider's lock. Callers that also need an
// order lock must take it inside fn, never the other way round.
func (r *Registry) WithRider(riderID string, fn func(h *Handle) error) error {
	e := r.get(riderID)
	if e == nil {
		return fmt.Errorf("rider %s has no location record: %w", riderID, models.ErrRiderNotFound)
	}
	e.mu.Lock()
	h := &Handle{r: r, e: e, now: r.clock.Now()}
	err := fn(h)
	rec := e.rec
	e.mu.Unlock()
	if h.dirty {
		r.mirrorRecord(context.Background(), rec)
	}
	return err
}

// TryClaim atomically tests and sets the rider's claim bit for orderID, then
// calls confirm while still holding the rider lock. A confirm error rolls the
// claim back and is returned unchanged. An unavailable rider yields
// models.ErrClaimConflict.
func (r *Registry) TryClaim(riderID, orderID string, confirm func(models.RiderLocation) error) error {
	return r.WithRider(riderID, func(h *Handle) error {
		return h.claim(orderID, confirm)
	})
}

// Release clears the claim if orderID holds it.
func (r *Registry) Release(riderID, orderID string) bool {
	var released bool
	_ = r.WithRider(riderID, func(h *Handle) error {
		released = h.Release(orderID)
		return nil
	})
	return released
}

func (r *Registry) stale(rec models.RiderLocation, now time.Time) bool {
	return now.Sub(rec.LastUpdatedAt) > r.staleAfter
}

func (r *Registry) view(rec models.RiderLocation, now time.Time) models.RiderLocation {
	if r.stale(rec, now) {
		rec.IsOnline = false
		rec.IsAvailable = false
	}
	return rec
}

func (r *Registry) get(riderID string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[riderID]
}

func (r *Registry) getOrCreate(riderID string) *entry {
	if e := r.get(riderID); e != nil {
		return e
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[riderID]; ok {
		return e
	}
	e := &entry{rec: models.RiderLocation{RiderID: riderID}}
	r.entries[riderID] = e
	return e
}

func (r *Registry) all() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

func (r *Registry) mirrorRecord(ctx context.Context, rec models.RiderLocation) {
	if r.mirror == nil {
		return
	}
	if err := r.mirror.Upsert(ctx, rec); err != nil {
		observability.LocationMirrorErrors.Inc()
		r.log.WithError(err).WithField("rider_id", rec.RiderID).Warn("location mirror write failed")
	}
}
