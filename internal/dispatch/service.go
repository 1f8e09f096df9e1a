package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/assignment"
	"github.com/example/delivery-dispatch/internal/clock"
	"github.com/example/delivery-dispatch/internal/geo"
	"github.com/example/delivery-dispatch/internal/matcher"
	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/observability"
	"github.com/example/delivery-dispatch/internal/registry"
	"github.com/example/delivery-dispatch/internal/zone"
)

// Service is the single entry point for rider, order and admin callers.
// Every state change goes through it so the lifecycle rules hold at the
// boundary.
type Service struct {
	zones      zone.Resolver
	riders     *registry.Registry
	coord      *assignment.Coordinator
	clock      clock.Clock
	log        *logrus.Logger
	defaultFee float64
	autoAssign bool
	policy     PolicySource
}

// PolicySource reports the ranking policy in effect.
type PolicySource interface {
	Policy() matcher.Policy
}

type Option func(*Service)

// WithDefaultDeliveryFee sets the fee for orders outside every zone.
func WithDefaultDeliveryFee(fee float64) Option { return func(s *Service) { s.defaultFee = fee } }

// WithAutoAssign turns automatic dispatch on or off. When off, submitted
// orders wait in CREATED and the requeue loop leaves them alone.
func WithAutoAssign(enabled bool) Option { return func(s *Service) { s.autoAssign = enabled } }

func WithPolicySource(p PolicySource) Option { return func(s *Service) { s.policy = p } }

func NewService(zones zone.Resolver, riders *registry.Registry, coord *assignment.Coordinator, clk clock.Clock, log *logrus.Logger, opts ...Option) *Service {
	s := &Service{zones: zones, riders: riders, coord: coord, clock: clk, log: log, autoAssign: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitOrder creates the order and starts dispatch. No available rider is
// not an error: the order stays CREATED and the requeue loop retries it.
func (s *Service) SubmitOrder(ctx context.Context, in models.NewOrder) (string, error) {
	if err := geo.ValidatePoint(in.Pickup); err != nil {
		return "", fmt.Errorf("pickup: %w", err)
	}
	if err := geo.ValidatePoint(in.Drop); err != nil {
		return "", fmt.Errorf("drop: %w", err)
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	o := models.Order{
		ID:              id,
		CustomerID:      in.CustomerID,
		PaymentIntentID: in.PaymentIntentID,
		Pickup:          in.Pickup,
		Drop:            in.Drop,
		SurgeMultiplier: 1,
		DeliveryFee:     s.defaultFee,
	}
	z, ok, err := s.zones.Resolve(in.Pickup)
	if err != nil {
		return "", err
	}
	if ok {
		o.ZoneID = z.ID
		o.SurgeMultiplier = z.SurgeMultiplier
		o.DeliveryFee = z.DeliveryFee
	}
	if _, err := s.coord.Create(ctx, o); err != nil {
		return "", err
	}
	observability.OrdersSubmitted.Inc()

	log := s.log.WithFields(logrus.Fields{"order_id": id, "zone_id": o.ZoneID})
	if !s.autoAssign {
		log.Info("order submitted, auto-assignment disabled")
		return id, nil
	}
	if err := s.coord.Start(ctx, id); err != nil {
		if errors.Is(err, models.ErrNoCandidateAvailable) {
			log.Info("order pending, no rider available")
			return id, nil
		}
		return id, err
	}
	log.Info("order submitted")
	return id, nil
}

func (s *Service) HandleRiderResponse(ctx context.Context, orderID, riderID string, accept bool) (assignment.Outcome, error) {
	out, err := s.coord.Respond(ctx, orderID, riderID, accept)
	if err != nil {
		s.logCallerError(err, "rider response rejected", logrus.Fields{"order_id": orderID, "rider_id": riderID, "accept": accept})
		return "", err
	}
	return out, nil
}

func (s *Service) CancelOrder(ctx context.Context, orderID string) (models.Order, error) {
	o, err := s.coord.Cancel(ctx, orderID)
	if err != nil {
		s.logCallerError(err, "cancel rejected", logrus.Fields{"order_id": orderID})
	}
	return o, err
}

func (s *Service) GetOrderStatus(ctx context.Context, orderID string) (models.Order, error) {
	return s.coord.Get(ctx, orderID)
}

func (s *Service) MarkPickedUp(ctx context.Context, orderID, riderID string) (models.Order, error) {
	o, err := s.coord.PickUp(ctx, orderID, riderID)
	if err != nil {
		s.logCallerError(err, "pickup rejected", logrus.Fields{"order_id": orderID, "rider_id": riderID})
	}
	return o, err
}

func (s *Service) MarkDelivered(ctx context.Context, orderID, riderID string) (models.Order, error) {
	o, err := s.coord.Deliver(ctx, orderID, riderID)
	if err != nil {
		s.logCallerError(err, "delivery rejected", logrus.Fields{"order_id": orderID, "rider_id": riderID})
	}
	return o, err
}

func (s *Service) UpdateLocation(ctx context.Context, p models.LocationPing) (models.RiderLocation, error) {
	return s.riders.UpdateLocation(ctx, p.RiderID, p.Lat, p.Lng, p.Online)
}

func (s *Service) RiderStatus(riderID string) (models.RiderLocation, error) {
	st, ok := s.riders.GetStatus(riderID)
	if !ok {
		return models.RiderLocation{}, fmt.Errorf("rider %s: %w", riderID, models.ErrRiderNotFound)
	}
	return st, nil
}

func (s *Service) ListRiders(p models.Page) ([]models.RiderLocation, int) {
	return s.riders.List(p)
}

func (s *Service) ResolveZone(p models.Point) (models.Zone, bool, error) {
	return s.zones.Resolve(p)
}

// AssignmentConfig reports the dispatch settings in effect.
func (s *Service) AssignmentConfig() models.AssignmentConfig {
	cfg := models.AssignmentConfig{
		Enabled:             s.autoAssign,
		OfferTimeoutSeconds: s.coord.OfferTimeout().Seconds(),
		MaxAttempts:         s.coord.MaxAttempts(),
	}
	if s.policy != nil {
		p := s.policy.Policy()
		cfg.MaxDistanceM = p.MaxDistanceM
		cfg.PrioritizeProximity = p.PrioritizeProximity
		cfg.PrioritizeRating = p.PrioritizeRating
	}
	return cfg
}

// RequeuePending restarts dispatch for every order waiting in CREATED and
// returns how many got an offer out.
func (s *Service) RequeuePending(ctx context.Context) int {
	if !s.autoAssign {
		return 0
	}
	started := 0
	for _, id := range s.coord.Pending() {
		err := s.coord.Start(ctx, id)
		switch {
		case err == nil:
			started++
		case errors.Is(err, models.ErrNoCandidateAvailable), errors.Is(err, models.ErrInvalidTransition):
		default:
			s.log.WithError(err).WithField("order_id", id).Warn("requeue failed")
		}
	}
	return started
}

// RunRequeue retries pending orders and sweeps finished ones until ctx ends.
func (s *Service) RunRequeue(ctx context.Context, interval, retention time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.RequeuePending(ctx); n > 0 {
				s.log.WithField("restarted", n).Info("requeued pending orders")
			}
			if retention > 0 {
				s.coord.Sweep(retention)
			}
		}
	}
}

// RequeueNotifier turns the coordinator's exhaustion hook into an order
// event so an external scheduler can react to it.
func RequeueNotifier(n assignment.Notifier, clk clock.Clock, log *logrus.Logger) assignment.RequeueFunc {
	return func(ctx context.Context, orderID string) {
		ev := models.OrderEvent{OrderID: orderID, Status: models.StatusCreated, At: clk.Now()}
		if err := n.Notify(ctx, ev); err != nil {
			log.WithError(err).WithField("order_id", orderID).Warn("requeue event")
		}
	}
}

// logCallerError logs state machine violations as caller bugs. Unknown ids
// are ordinary client errors and stay at debug.
func (s *Service) logCallerError(err error, msg string, fields logrus.Fields) {
	entry := s.log.WithError(err).WithFields(fields)
	if errors.Is(err, models.ErrInvalidTransition) {
		entry.Warn(msg)
		return
	}
	entry.Debug(msg)
}
