package storage

import (
	"context"

	"github.com/example/delivery-dispatch/internal/models"
)

// Store is everything the dispatch process persists: order history, the zone
// catalog and the rider directory.
type Store interface {
	SaveOrder(ctx context.Context, o models.Order) error
	GetOrder(ctx context.Context, id string) (models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter, p models.Page) ([]models.Order, int, error)

	AllZones(ctx context.Context) ([]models.Zone, error)
	GetZone(ctx context.Context, id string) (models.Zone, error)
	SaveZone(ctx context.Context, z models.Zone) error

	Lookup(ctx context.Context, riderID string) (models.Rider, error)
	SaveRider(ctx context.Context, r models.Rider) error

	Close() error
}

type OrderFilter struct {
	Status  models.OrderStatus
	RiderID string
}
