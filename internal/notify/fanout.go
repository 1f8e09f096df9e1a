package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/observability"
)

type Notifier interface {
	Notify(ctx context.Context, ev models.OrderEvent) error
}

type Sink struct {
	Name     string
	Notifier Notifier
}

// Fanout decouples the dispatch core from slow sinks. Notify never blocks:
// events beyond the queue capacity are dropped and counted. A single worker
// delivers events, so each sink sees them in emission order.
type Fanout struct {
	sinks   []Sink
	queue   chan models.OrderEvent
	timeout time.Duration
	log     *logrus.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewFanout(size int, timeout time.Duration, log *logrus.Logger, sinks ...Sink) *Fanout {
	if size <= 0 {
		size = 1024
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	f := &Fanout{
		sinks:   sinks,
		queue:   make(chan models.OrderEvent, size),
		timeout: timeout,
		log:     log,
		done:    make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *Fanout) Notify(_ context.Context, ev models.OrderEvent) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		observability.EventsDropped.Inc()
		return nil
	}
	select {
	case f.queue <- ev:
	default:
		observability.EventsDropped.Inc()
		f.log.WithField("order_id", ev.OrderID).Warn("event queue full, dropping event")
	}
	return nil
}

func (f *Fanout) run() {
	defer close(f.done)
	for ev := range f.queue {
		for _, s := range f.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
			err := s.Notifier.Notify(ctx, ev)
			cancel()
			if err != nil {
				observability.EventErrors.WithLabelValues(s.Name).Inc()
				f.log.WithError(err).WithFields(logrus.Fields{"sink": s.Name, "order_id": ev.OrderID, "status": ev.Status}).Warn("event delivery failed")
			}
		}
	}
}

// Close stops accepting events and waits for queued ones to drain or ctx to
// end.
func (f *Fanout) Close(ctx context.Context) error {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
