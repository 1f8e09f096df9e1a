package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/delivery-dispatch/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) DB() *sql.DB { return p.db }

func (p *PostgresStore) Close() error { return p.db.Close() }

func (p *PostgresStore) SaveOrder(ctx context.Context, o models.Order) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO orders (id, customer_id, payment_intent_id, pickup_lat, pickup_lng, drop_lat, drop_lng,
                    zone_id, surge_multiplier, delivery_fee, status, rider_id, attempts, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status,
    rider_id = EXCLUDED.rider_id,
    attempts = EXCLUDED.attempts,
    updated_at = EXCLUDED.updated_at`,
		o.ID, nullString(o.CustomerID), nullString(o.PaymentIntentID), o.Pickup.Lat, o.Pickup.Lng, o.Drop.Lat, o.Drop.Lng,
		nullString(o.ZoneID), o.SurgeMultiplier, o.DeliveryFee, string(o.Status), nullString(o.RiderID), o.Attempts, o.CreatedAt, o.UpdatedAt)
	return err
}

const orderColumns = `id, customer_id, payment_intent_id, pickup_lat, pickup_lng, drop_lat, drop_lng,
zone_id, surge_multiplier, delivery_fee, status, rider_id, attempts, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (models.Order, error) {
	var (
		o                             models.Order
		customer, intent, zone, rider sql.NullString
		status                        string
	)
	err := row.Scan(&o.ID, &customer, &intent, &o.Pickup.Lat, &o.Pickup.Lng, &o.Drop.Lat, &o.Drop.Lng,
		&zone, &o.SurgeMultiplier, &o.DeliveryFee, &status, &rider, &o.Attempts, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.Order{}, err
	}
	o.CustomerID = customer.String
	o.PaymentIntentID = intent.String
	o.ZoneID = zone.String
	o.RiderID = rider.String
	o.Status = models.OrderStatus(status)
	return o, nil
}

func (p *PostgresStore) GetOrder(ctx context.Context, id string) (models.Order, error) {
	o, err := scanOrder(p.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, fmt.Errorf("order %s: %w", id, models.ErrOrderNotFound)
	}
	return o, err
}

func (p *PostgresStore) ListOrders(ctx context.Context, f OrderFilter, pg models.Page) ([]models.Order, int, error) {
	const where = `WHERE ($1 = '' OR status = $1) AND ($2 = '' OR rider_id = $2)`
	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM orders `+where, string(f.Status), f.RiderID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders `+where+`
ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`, string(f.Status), f.RiderID, pg.Limit, pg.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (p *PostgresStore) AllZones(ctx context.Context) ([]models.Zone, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT id, name, polygon, is_active, surge_pricing, delivery_fee, created_at, updated_at FROM zones`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func (p *PostgresStore) GetZone(ctx context.Context, id string) (models.Zone, error) {
	z, err := scanZone(p.db.QueryRowContext(ctx, `
SELECT id, name, polygon, is_active, surge_pricing, delivery_fee, created_at, updated_at FROM zones WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Zone{}, fmt.Errorf("zone %s: %w", id, models.ErrZoneNotFound)
	}
	return z, err
}

func scanZone(row rowScanner) (models.Zone, error) {
	var (
		z       models.Zone
		polygon []byte
	)
	if err := row.Scan(&z.ID, &z.Name, &polygon, &z.Active, &z.SurgeMultiplier, &z.DeliveryFee, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return models.Zone{}, err
	}
	if err := json.Unmarshal(polygon, &z.Polygon); err != nil {
		return models.Zone{}, fmt.Errorf("zone %s polygon: %w", z.ID, err)
	}
	return z, nil
}

func (p *PostgresStore) SaveZone(ctx context.Context, z models.Zone) error {
	polygon, err := json.Marshal(z.Polygon)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO zones (id, name, polygon, is_active, surge_pricing, delivery_fee, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    polygon = EXCLUDED.polygon,
    is_active = EXCLUDED.is_active,
    surge_pricing = EXCLUDED.surge_pricing,
    delivery_fee = EXCLUDED.delivery_fee,
    updated_at = EXCLUDED.updated_at`,
		z.ID, z.Name, polygon, z.Active, z.SurgeMultiplier, z.DeliveryFee, z.CreatedAt, z.UpdatedAt)
	return err
}

func (p *PostgresStore) Lookup(ctx context.Context, riderID string) (models.Rider, error) {
	var r models.Rider
	err := p.db.QueryRowContext(ctx, `SELECT id, name, rating FROM riders WHERE id = $1`, riderID).Scan(&r.ID, &r.Name, &r.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rider{}, fmt.Errorf("rider %s: %w", riderID, models.ErrRiderNotFound)
	}
	return r, err
}

func (p *PostgresStore) SaveRider(ctx context.Context, r models.Rider) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO riders (id, name, rating) VALUES ($1,$2,$3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, rating = EXCLUDED.rating`, r.ID, r.Name, r.Rating)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
