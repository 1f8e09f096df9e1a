package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/observability"
)

// LocationUpdater applies a rider ping to the registry.
type LocationUpdater interface {
	UpdateLocation(ctx context.Context, p models.LocationPing) (models.RiderLocation, error)
}

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewKafkaReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
}

// Consumer feeds rider pings published on Kafka into the registry. Pings
// that fail validation are counted and skipped; they are never retried.
type Consumer struct {
	reader     Reader
	updater    LocationUpdater
	log        *logrus.Logger
	attempts   int
	retryDelay time.Duration
	maxBackoff time.Duration
}

type Option func(*Consumer)

func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Consumer) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

func WithMaxBackoff(d time.Duration) Option { return func(c *Consumer) { c.maxBackoff = d } }

func NewConsumer(r Reader, u LocationUpdater, log *logrus.Logger, opts ...Option) *Consumer {
	c := &Consumer{
		reader:     r,
		updater:    u,
		log:        log,
		attempts:   3,
		retryDelay: 200 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run reads until ctx is cancelled. Read errors back off exponentially.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("location consumer stopped")
				return
			}
			c.log.WithError(err).WithField("backoff", backoff.String()).Warn("kafka read error")
			if !sleep(ctx, backoff) {
				return
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
			continue
		}
		backoff = time.Second
		c.handle(ctx, m)
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	observability.IngestConsumed.Inc()

	var p models.LocationPing
	if err := json.Unmarshal(m.Value, &p); err != nil || p.RiderID == "" {
		observability.IngestInvalid.Inc()
		c.log.WithField("offset", m.Offset).Warn("invalid location message")
		return
	}
	if err := updateWithRetry(ctx, c.updater, p, c.attempts, c.retryDelay); err != nil {
		log := c.log.WithError(err).WithField("rider_id", p.RiderID)
		if permanent(err) {
			observability.IngestInvalid.Inc()
			log.Debug("location ping rejected")
			return
		}
		observability.IngestFailed.Inc()
		log.Error("location update failed")
	}
}

// updateWithRetry retries transient failures with doubling delay. Invalid
// coordinates and unknown riders fail immediately.
func updateWithRetry(ctx context.Context, u LocationUpdater, p models.LocationPing, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if _, err = u.UpdateLocation(ctx, p); err == nil || permanent(err) {
			return err
		}
		if i == attempts-1 || !sleep(ctx, delay) {
			break
		}
		delay *= 2
	}
	return err
}

func permanent(err error) bool {
	return errors.Is(err, models.ErrInvalidCoordinate) || errors.Is(err, models.ErrRiderNotFound)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
