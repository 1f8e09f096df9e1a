package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/delivery-dispatch/internal/models"
)

type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]models.Order
	zones  map[string]models.Zone
	riders map[string]models.Rider
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]models.Order),
		zones:  make(map[string]models.Zone),
		riders: make(map[string]models.Rider),
	}
}

func (m *MemoryStore) SaveOrder(_ context.Context, o models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.Offer != nil {
		att := *o.Offer
		o.Offer = &att
	}
	m.orders[o.ID] = o
	return nil
}

func (m *MemoryStore) GetOrder(_ context.Context, id string) (models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("order %s: %w", id, models.ErrOrderNotFound)
	}
	return o, nil
}

// ListOrders returns newest orders first.
func (m *MemoryStore) ListOrders(_ context.Context, f OrderFilter, p models.Page) ([]models.Order, int, error) {
	m.mu.RLock()
	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.RiderID != "" && o.RiderID != f.RiderID {
			continue
		}
		out = append(out, o)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	start, end := p.Window(len(out))
	return out[start:end], len(out), nil
}

func (m *MemoryStore) AllZones(_ context.Context) ([]models.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Zone, 0, len(m.zones))
	for _, z := range m.zones {
		out = append(out, z)
	}
	return out, nil
}

func (m *MemoryStore) GetZone(_ context.Context, id string) (models.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[id]
	if !ok {
		return models.Zone{}, fmt.Errorf("zone %s: %w", id, models.ErrZoneNotFound)
	}
	return z, nil
}

func (m *MemoryStore) SaveZone(_ context.Context, z models.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z.Polygon = append([]models.Point(nil), z.Polygon...)
	m.zones[z.ID] = z
	return nil
}

func (m *MemoryStore) Lookup(_ context.Context, riderID string) (models.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.riders[riderID]
	if !ok {
		return models.Rider{}, fmt.Errorf("rider %s: %w", riderID, models.ErrRiderNotFound)
	}
	return r, nil
}

func (m *MemoryStore) SaveRider(_ context.Context, r models.Rider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders[r.ID] = r
	return nil
}

func (m *MemoryStore) Close() error { return nil }
