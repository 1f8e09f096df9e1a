package zone

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/clock"
	"github.com/example/delivery-dispatch/internal/geo"
	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/observability"
)

// Store persists zones. Zones are never deleted.
type Store interface {
	AllZones(ctx context.Context) ([]models.Zone, error)
	GetZone(ctx context.Context, id string) (models.Zone, error)
	SaveZone(ctx context.Context, z models.Zone) error
}

// Catalog serves point lookups from a cached Index and applies admin zone
// actions to the backing store. The cache is refreshed on every admin write
// and periodically by Run, so edits made by other instances show up within
// one refresh interval.
type Catalog struct {
	store Store
	index *Index
	clock clock.Clock
	log   *logrus.Logger
}

func NewCatalog(store Store, clk clock.Clock, log *logrus.Logger) *Catalog {
	return &Catalog{store: store, index: NewIndex(nil), clock: clk, log: log}
}

func (c *Catalog) Resolve(p models.Point) (models.Zone, bool, error) {
	return c.index.Resolve(p)
}

func (c *Catalog) Refresh(ctx context.Context) error {
	zones, err := c.store.AllZones(ctx)
	if err != nil {
		return fmt.Errorf("load zones: %w", err)
	}
	c.index.Replace(zones)
	observability.ZonesActive.Set(float64(c.index.Len()))
	return nil
}

// Run refreshes the cache every interval until ctx is done.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.WithError(err).Warn("zone refresh failed, serving cached zones")
			}
		}
	}
}

type ListFilter struct {
	Active *bool
	Search string
}

// List returns zones ordered by most recently updated.
func (c *Catalog) List(ctx context.Context, f ListFilter, p models.Page) ([]models.Zone, int, error) {
	zones, err := c.store.AllZones(ctx)
	if err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := zones[:0]
	for _, z := range zones {
		if f.Active != nil && z.Active != *f.Active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(z.Name), search) {
			continue
		}
		out = append(out, z)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].UpdatedAt.Equal(out[b].UpdatedAt) {
			return out[a].UpdatedAt.After(out[b].UpdatedAt)
		}
		return out[a].ID < out[b].ID
	})
	start, end := p.Window(len(out))
	return out[start:end], len(out), nil
}

func (c *Catalog) Get(ctx context.Context, id string) (models.Zone, error) {
	return c.store.GetZone(ctx, id)
}

// Save creates or replaces a zone. The multiplier is stored as given; callers
// fill in models.DefaultSurgeMultiplier when the admin omitted it.
func (c *Catalog) Save(ctx context.Context, z models.Zone) (models.Zone, error) {
	if len(z.Polygon) < 3 {
		return models.Zone{}, fmt.Errorf("%w: polygon needs at least 3 vertices", models.ErrInvalidCoordinate)
	}
	for _, v := range z.Polygon {
		if err := geo.ValidatePoint(v); err != nil {
			return models.Zone{}, err
		}
	}
	if z.SurgeMultiplier < 0 {
		return models.Zone{}, fmt.Errorf("surge multiplier must be >= 0")
	}
	now := c.clock.Now()
	if z.ID == "" {
		z.ID = uuid.NewString()
		z.CreatedAt = now
	} else if existing, err := c.store.GetZone(ctx, z.ID); err == nil {
		z.CreatedAt = existing.CreatedAt
	} else {
		z.CreatedAt = now
	}
	z.UpdatedAt = now
	if err := c.store.SaveZone(ctx, z); err != nil {
		return models.Zone{}, err
	}
	c.afterWrite(ctx, z, "zone saved")
	return z, nil
}

func (c *Catalog) SetSurge(ctx context.Context, id string, multiplier float64) (models.Zone, error) {
	if multiplier < 0 {
		return models.Zone{}, fmt.Errorf("surge multiplier must be >= 0")
	}
	return c.mutate(ctx, id, "surge updated", func(z *models.Zone) { z.SurgeMultiplier = multiplier })
}

func (c *Catalog) SetActive(ctx context.Context, id string, active bool) (models.Zone, error) {
	return c.mutate(ctx, id, "zone toggled", func(z *models.Zone) { z.Active = active })
}

func (c *Catalog) mutate(ctx context.Context, id, msg string, fn func(*models.Zone)) (models.Zone, error) {
	z, err := c.store.GetZone(ctx, id)
	if err != nil {
		return models.Zone{}, err
	}
	fn(&z)
	z.UpdatedAt = c.clock.Now()
	if err := c.store.SaveZone(ctx, z); err != nil {
		return models.Zone{}, err
	}
	c.afterWrite(ctx, z, msg)
	return z, nil
}

func (c *Catalog) afterWrite(ctx context.Context, z models.Zone, msg string) {
	c.log.WithFields(logrus.Fields{"zone_id": z.ID, "active": z.Active, "surge": z.SurgeMultiplier}).Info(msg)
	if err := c.Refresh(ctx); err != nil {
		c.log.WithError(err).Warn("zone refresh after write failed")
	}
}
