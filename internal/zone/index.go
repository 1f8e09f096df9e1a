package zone

import (
	"sort"
	"sync"

	"github.com/example/delivery-dispatch/internal/geo"
	"github.com/example/delivery-dispatch/internal/models"
)

// Resolver maps a point to at most one enclosing zone. ok is false when no
// active zone contains the point, which callers treat as default pricing.
type Resolver interface {
	Resolve(p models.Point) (z models.Zone, ok bool, err error)
}

// Index is a linear scan over active zones. Zones are kept in priority order:
// most recently updated first, zone id ascending on equal timestamps.
type Index struct {
	mu    sync.RWMutex
	zones []models.Zone
}

func NewIndex(zones []models.Zone) *Index {
	idx := &Index{}
	idx.Replace(zones)
	return idx
}

// Replace swaps the zone set wholesale.
func (i *Index) Replace(zones []models.Zone) {
	active := make([]models.Zone, 0, len(zones))
	for _, z := range zones {
		if !z.Active || len(z.Polygon) < 3 {
			continue
		}
		active = append(active, z)
	}
	sort.SliceStable(active, func(a, b int) bool {
		if !active[a].UpdatedAt.Equal(active[b].UpdatedAt) {
			return active[a].UpdatedAt.After(active[b].UpdatedAt)
		}
		return active[a].ID < active[b].ID
	})
	i.mu.Lock()
	i.zones = active
	i.mu.Unlock()
}

func (i *Index) Resolve(p models.Point) (models.Zone, bool, error) {
	if err := geo.ValidatePoint(p); err != nil {
		return models.Zone{}, false, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, z := range i.zones {
		if geo.PointInPolygon(p, z.Polygon) {
			return z, true, nil
		}
	}
	return models.Zone{}, false, nil
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.zones)
}
