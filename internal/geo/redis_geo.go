package geo

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/delivery-dispatch/internal/models"
)

// RedisMirror copies live rider positions into a Redis GEO set so other
// processes (ops tooling, ETA workers) can read them without calling the
// dispatch API. The in-process registry stays authoritative.
type RedisMirror struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisMirror(client *redis.Client, key string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, key: key, ttl: ttl}
}

func (r *RedisMirror) Upsert(ctx context.Context, loc models.RiderLocation) error {
	pipe := r.client.TxPipeline()
	if loc.IsOnline {
		pipe.GeoAdd(ctx, r.key, &redis.GeoLocation{Longitude: loc.Lng, Latitude: loc.Lat, Name: loc.RiderID})
	} else {
		pipe.ZRem(ctx, r.key, loc.RiderID)
	}
	pipe.HSet(ctx, metaKey(loc.RiderID), map[string]interface{}{
		"online":    strconv.FormatBool(loc.IsOnline),
		"available": strconv.FormatBool(loc.IsAvailable),
		"updated":   loc.LastUpdatedAt.Format(time.RFC3339Nano),
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, metaKey(loc.RiderID), r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Nearby returns rider ids within radiusM of p, closest first.
func (r *RedisMirror) Nearby(ctx context.Context, p models.Point, radiusM float64, limit int) ([]string, error) {
	res, err := r.client.GeoSearch(ctx, r.key, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusM,
		RadiusUnit: "m",
		Sort:       "ASC",
		Count:      limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	return res, nil
}

func metaKey(id string) string { return "rider:meta:" + id }
