package assignment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/clock"
	"github.com/example/delivery-dispatch/internal/eta"
	"github.com/example/delivery-dispatch/internal/matcher"
	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/observability"
	"github.com/example/delivery-dispatch/internal/registry"
)

const DefaultOfferTimeout = 15 * time.Second

type Ranker interface {
	Rank(ctx context.Context, o models.Order) *matcher.Candidates
}

// Riders is the claim surface of the location registry.
type Riders interface {
	TryClaim(riderID, orderID string, confirm func(models.RiderLocation) error) error
	WithRider(riderID string, fn func(h *registry.Handle) error) error
}

type OrderStore interface {
	SaveOrder(ctx context.Context, o models.Order) error
	GetOrder(ctx context.Context, id string) (models.Order, error)
}

// Notifier is told about ASSIGNED, PICKED_UP, DELIVERED and CANCELLED.
// Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, ev models.OrderEvent) error
}

type OfferSender interface {
	SendOffer(ctx context.Context, riderID string, offer models.Offer) error
}

// RequeueFunc is called when a dispatch round ends without an acceptance and
// the order is back in CREATED. It must not restart dispatch synchronously.
type RequeueFunc func(ctx context.Context, orderID string)

type Outcome string

const (
	Accepted Outcome = "accepted"
	Rejected Outcome = "rejected"
	// Ignored marks a response that arrived after its offer was resolved.
	Ignored Outcome = "ignored"
)

var errRoundClosed = errors.New("dispatch round closed")

type Option func(*Coordinator)

func WithOfferTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.offerTimeout = d
		}
	}
}

// WithMaxAttempts caps rejected or timed out offers per order. 0 means no cap.
func WithMaxAttempts(n int) Option { return func(c *Coordinator) { c.maxAttempts = n } }

func WithClock(clk clock.Clock) Option { return func(c *Coordinator) { c.clock = clk } }

func WithStore(s OrderStore) Option { return func(c *Coordinator) { c.store = s } }

func WithNotifier(n Notifier) Option { return func(c *Coordinator) { c.notifier = n } }

func WithOfferSender(s OfferSender) Option { return func(c *Coordinator) { c.offers = s } }

func WithRequeue(fn RequeueFunc) Option { return func(c *Coordinator) { c.requeue = fn } }

func WithETA(e eta.Estimator) Option { return func(c *Coordinator) { c.eta = e } }

func WithLogger(l *logrus.Logger) Option { return func(c *Coordinator) { c.log = l } }

// Coordinator owns the order lifecycle and is the only writer of order status
// and of rider claims.
type Coordinator struct {
	mu     sync.RWMutex
	orders map[string]*orderState

	riders       Riders
	ranker       Ranker
	clock        clock.Clock
	offerTimeout time.Duration
	maxAttempts  int
	store        OrderStore
	notifier     Notifier
	offers       OfferSender
	requeue      RequeueFunc
	eta          eta.Estimator
	log          *logrus.Logger

	offerSeq atomic.Uint64
}

type orderState struct {
	mu    sync.Mutex
	order models.Order
	// round changes whenever a dispatch round starts or the order leaves
	// ASSIGNING, so in-flight work from an older round can tell it is stale.
	round   uint64
	cands   *matcher.Candidates
	tried   map[string]struct{}
	offered map[string]struct{}
	offer   *pendingOffer

	// version counts changes not yet known to be in the store. saved is
	// guarded by saveMu, which is never taken while mu is held.
	version uint64
	saveMu  sync.Mutex
	saved   uint64
}

type pendingOffer struct {
	attempt models.AssignmentAttempt
	seq     uint64
	timer   clock.Timer
}

func NewCoordinator(riders Riders, ranker Ranker, opts ...Option) *Coordinator {
	c := &Coordinator{
		orders:       make(map[string]*orderState),
		riders:       riders,
		ranker:       ranker,
		clock:        clock.NewSystem(),
		offerTimeout: DefaultOfferTimeout,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) OfferTimeout() time.Duration { return c.offerTimeout }

// MaxAttempts returns the per-order attempt cap, 0 when uncapped.
func (c *Coordinator) MaxAttempts() int { return c.maxAttempts }

// Create registers a new order in CREATED.
func (c *Coordinator) Create(ctx context.Context, o models.Order) (models.Order, error) {
	if o.ID == "" {
		return models.Order{}, errors.New("order id is required")
	}
	now := c.clock.Now()
	o.Status = models.StatusCreated
	o.RiderID = ""
	o.Attempts = 0
	o.Offer = nil
	o.CreatedAt = now
	o.UpdatedAt = now

	st := &orderState{order: o, offered: make(map[string]struct{})}
	c.mu.Lock()
	if _, exists := c.orders[o.ID]; exists {
		c.mu.Unlock()
		return models.Order{}, fmt.Errorf("%w: order %s already exists", models.ErrInvalidTransition, o.ID)
	}
	c.orders[o.ID] = st
	c.mu.Unlock()

	st.mu.Lock()
	c.markDirtyLocked(st)
	out := c.snapshotLocked(st)
	st.mu.Unlock()
	c.flush(ctx, st)
	observability.OrderTransitions.WithLabelValues(string(models.StatusCreated)).Inc()
	return out, nil
}

// Start moves a CREATED order to ASSIGNING and offers it to the best
// candidate. It returns models.ErrNoCandidateAvailable when the round ends
// immediately; the order is then back in CREATED.
func (c *Coordinator) Start(ctx context.Context, orderID string) error {
	st, err := c.lookup(orderID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	if st.order.Status != models.StatusCreated {
		st.mu.Unlock()
		return fmt.Errorf("%w: order %s is %s", models.ErrInvalidTransition, orderID, st.order.Status)
	}
	if err := c.setStatusLocked(ctx, st, models.StatusAssigning); err != nil {
		st.mu.Unlock()
		return err
	}
	st.round++
	st.cands = nil
	st.tried = make(map[string]struct{})
	round := st.round
	st.mu.Unlock()

	err = c.advance(ctx, st, round)
	c.flush(ctx, st)
	return err
}

// Respond applies a rider's answer to an outstanding offer. Answers to an
// offer that already resolved, including ones arriving after the deadline,
// are discarded with outcome Ignored. Answers from a rider who was never
// offered the order fail with models.ErrInvalidTransition.
func (c *Coordinator) Respond(ctx context.Context, orderID, riderID string, accept bool) (Outcome, error) {
	st, err := c.lookup(orderID)
	if err != nil {
		return "", err
	}
	var (
		outcome Outcome
		next    bool
		round   uint64
		event   *models.OrderEvent
	)
	err = c.riders.WithRider(riderID, func(h *registry.Handle) error {
		st.mu.Lock()
		defer st.mu.Unlock()

		po := st.offer
		if po == nil || po.attempt.RiderID != riderID {
			if _, ok := st.offered[riderID]; ok {
				outcome = Ignored
				return nil
			}
			return fmt.Errorf("%w: rider %s holds no offer for order %s", models.ErrInvalidTransition, riderID, orderID)
		}
		po.timer.Stop()
		st.offer = nil
		now := c.clock.Now()

		switch {
		case !now.Before(po.attempt.ExpiresAt):
			// deadline passed but the timer has not run yet
			c.failOfferLocked(ctx, st, h, po, models.OutcomeTimedOut)
			outcome = Ignored
		case accept:
			st.order.RiderID = riderID
			if err := c.setStatusLocked(ctx, st, models.StatusAssigned); err != nil {
				return err
			}
			st.cands = nil
			st.tried = nil
			observability.OffersTotal.WithLabelValues(string(models.OutcomeAccepted)).Inc()
			observability.AssignLatency.Observe(now.Sub(st.order.CreatedAt).Seconds())
			ev := c.eventLocked(st)
			event = &ev
			outcome = Accepted
			return nil
		default:
			c.failOfferLocked(ctx, st, h, po, models.OutcomeRejected)
			outcome = Rejected
		}
		next, round = true, st.round
		return nil
	})
	c.flush(ctx, st)
	if err != nil {
		return "", err
	}
	if event != nil {
		c.log.WithFields(logrus.Fields{"order_id": orderID, "rider_id": riderID}).Info("order assigned")
		c.emit(ctx, *event)
	}
	if next {
		c.continueRound(ctx, st, round)
	}
	return outcome, nil
}

// Cancel moves any non-terminal order to CANCELLED. A rider held by the
// order, through an open offer or an assignment, is available again by the
// time Cancel returns.
func (c *Coordinator) Cancel(ctx context.Context, orderID string) (models.Order, error) {
	st, err := c.lookup(orderID)
	if err != nil {
		return models.Order{}, err
	}
	for {
		st.mu.Lock()
		holder := holderLocked(st)
		st.mu.Unlock()

		var (
			done bool
			out  models.Order
			ev   models.OrderEvent
		)
		apply := func(h *registry.Handle) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			if holderLocked(st) != holder {
				return nil
			}
			if !st.order.Status.CanTransition(models.StatusCancelled) {
				return fmt.Errorf("%w: order %s is %s", models.ErrInvalidTransition, orderID, st.order.Status)
			}
			if st.offer != nil {
				st.offer.timer.Stop()
				st.offer = nil
				observability.OffersTotal.WithLabelValues("cancelled").Inc()
			}
			if h != nil {
				h.Release(orderID)
			}
			st.round++
			st.cands = nil
			st.tried = nil
			if err := c.setStatusLocked(ctx, st, models.StatusCancelled); err != nil {
				return err
			}
			done = true
			out = c.snapshotLocked(st)
			ev = c.eventLocked(st)
			if ev.RiderID == "" {
				// withdrawn offer
				ev.RiderID = holder
			}
			return nil
		}
		if holder == "" {
			err = apply(nil)
		} else {
			err = c.riders.WithRider(holder, apply)
		}
		if err != nil {
			return models.Order{}, err
		}
		if done {
			c.flush(ctx, st)
			c.log.WithFields(logrus.Fields{"order_id": orderID, "rider_id": holder}).Info("order cancelled")
			c.emit(ctx, ev)
			return out, nil
		}
		// the holder changed between reading it and taking its lock
	}
}

// PickUp moves an ASSIGNED order to PICKED_UP on behalf of its rider.
func (c *Coordinator) PickUp(ctx context.Context, orderID, riderID string) (models.Order, error) {
	st, err := c.lookup(orderID)
	if err != nil {
		return models.Order{}, err
	}
	st.mu.Lock()
	if err := c.checkRiderLocked(st, riderID, models.StatusAssigned); err != nil {
		st.mu.Unlock()
		return models.Order{}, err
	}
	if err := c.setStatusLocked(ctx, st, models.StatusPickedUp); err != nil {
		st.mu.Unlock()
		return models.Order{}, err
	}
	out := c.snapshotLocked(st)
	ev := c.eventLocked(st)
	st.mu.Unlock()

	c.flush(ctx, st)
	c.emit(ctx, ev)
	return out, nil
}

// Deliver completes a PICKED_UP order and frees its rider.
func (c *Coordinator) Deliver(ctx context.Context, orderID, riderID string) (models.Order, error) {
	st, err := c.lookup(orderID)
	if err != nil {
		return models.Order{}, err
	}
	var (
		out models.Order
		ev  models.OrderEvent
	)
	err = c.riders.WithRider(riderID, func(h *registry.Handle) error {
		st.mu.Lock()
		defer st.mu.Unlock()
		if err := c.checkRiderLocked(st, riderID, models.StatusPickedUp); err != nil {
			return err
		}
		if err := c.setStatusLocked(ctx, st, models.StatusDelivered); err != nil {
			return err
		}
		h.Release(orderID)
		out = c.snapshotLocked(st)
		ev = c.eventLocked(st)
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	c.flush(ctx, st)
	c.emit(ctx, ev)
	return out, nil
}

// Get returns the live order, falling back to the store for orders that
// were swept from memory.
func (c *Coordinator) Get(ctx context.Context, orderID string) (models.Order, error) {
	st, err := c.lookup(orderID)
	if err == nil {
		st.mu.Lock()
		defer st.mu.Unlock()
		return c.snapshotLocked(st), nil
	}
	if c.store == nil {
		return models.Order{}, err
	}
	return c.store.GetOrder(ctx, orderID)
}

// Pending lists orders waiting in CREATED, oldest first. Orders that used up
// their attempt cap are left out; giving up on them is the caller's call.
func (c *Coordinator) Pending() []string {
	type item struct {
		id string
		at time.Time
	}
	var items []item
	for _, st := range c.all() {
		st.mu.Lock()
		if st.order.Status == models.StatusCreated && !c.cappedLocked(st) {
			items = append(items, item{st.order.ID, st.order.CreatedAt})
		}
		st.mu.Unlock()
	}
	sort.Slice(items, func(i, j int) bool { return items[i].at.Before(items[j].at) })
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

// Sweep drops terminal orders last touched before now-retention from memory.
// They remain readable through the store.
func (c *Coordinator) Sweep(retention time.Duration) int {
	cutoff := c.clock.Now().Add(-retention)
	var drop []string
	for _, st := range c.all() {
		st.mu.Lock()
		if st.order.Status.Terminal() && st.order.UpdatedAt.Before(cutoff) {
			drop = append(drop, st.order.ID)
		}
		st.mu.Unlock()
	}
	c.mu.Lock()
	for _, id := range drop {
		delete(c.orders, id)
	}
	c.mu.Unlock()
	return len(drop)
}

// Close stops all offer timers.
func (c *Coordinator) Close() {
	for _, st := range c.all() {
		st.mu.Lock()
		if st.offer != nil {
			st.offer.timer.Stop()
		}
		st.mu.Unlock()
	}
}

func (c *Coordinator) advance(ctx context.Context, st *orderState, round uint64) error {
	for {
		st.mu.Lock()
		if !roundOpenLocked(st, round) {
			st.mu.Unlock()
			return nil
		}
		if st.cands == nil {
			snapshot := st.order
			st.mu.Unlock()
			// ranking reads rider records, so no order lock may be held here
			cands := c.ranker.Rank(ctx, snapshot)
			st.mu.Lock()
			if !roundOpenLocked(st, round) {
				st.mu.Unlock()
				return nil
			}
			if st.cands == nil {
				st.cands = cands
			}
		}
		cand, ok := c.nextCandidateLocked(st)
		if !ok {
			orderID := st.order.ID
			c.exhaustLocked(ctx, st)
			st.mu.Unlock()
			c.afterExhaust(ctx, orderID)
			return fmt.Errorf("order %s: %w", orderID, models.ErrNoCandidateAvailable)
		}
		orderID := st.order.ID
		st.mu.Unlock()

		var offer models.Offer
		err := c.riders.TryClaim(cand.RiderID, orderID, func(models.RiderLocation) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			if !roundOpenLocked(st, round) {
				return errRoundClosed
			}
			offer = c.openOfferLocked(st, cand)
			return nil
		})
		switch {
		case err == nil:
			c.deliverOffer(ctx, cand, offer)
			return nil
		case errors.Is(err, errRoundClosed):
			return nil
		case errors.Is(err, models.ErrClaimConflict):
			observability.ClaimConflicts.Inc()
			c.log.WithFields(logrus.Fields{"order_id": orderID, "rider_id": cand.RiderID}).Debug("candidate unavailable, trying next")
		default:
			c.log.WithError(err).WithFields(logrus.Fields{"order_id": orderID, "rider_id": cand.RiderID}).Warn("claim failed, trying next")
		}
	}
}

// continueRound runs after an offer failed outside of a caller-facing
// Start, so exhaustion is reported through the requeue hook only.
func (c *Coordinator) continueRound(ctx context.Context, st *orderState, round uint64) {
	if err := c.advance(ctx, st, round); err != nil && !errors.Is(err, models.ErrNoCandidateAvailable) {
		c.log.WithError(err).Warn("advance dispatch round")
	}
	c.flush(ctx, st)
}

func (c *Coordinator) nextCandidateLocked(st *orderState) (matcher.Candidate, bool) {
	if c.cappedLocked(st) {
		return matcher.Candidate{}, false
	}
	for {
		cand, ok := st.cands.Next()
		if !ok {
			return matcher.Candidate{}, false
		}
		if _, seen := st.tried[cand.RiderID]; seen {
			continue
		}
		st.tried[cand.RiderID] = struct{}{}
		return cand, true
	}
}

func (c *Coordinator) openOfferLocked(st *orderState, cand matcher.Candidate) models.Offer {
	now := c.clock.Now()
	seq := c.offerSeq.Add(1)
	orderID, riderID := st.order.ID, cand.RiderID
	po := &pendingOffer{
		attempt: models.AssignmentAttempt{
			OrderID:   orderID,
			RiderID:   riderID,
			OfferedAt: now,
			ExpiresAt: now.Add(c.offerTimeout),
			Outcome:   models.OutcomePending,
		},
		seq: seq,
	}
	po.timer = c.clock.AfterFunc(c.offerTimeout, func() { c.expire(orderID, riderID, seq) })
	st.offer = po
	st.offered[riderID] = struct{}{}
	st.order.UpdatedAt = now
	c.markDirtyLocked(st)

	return models.Offer{
		OrderID:         orderID,
		Pickup:          st.order.Pickup,
		Drop:            st.order.Drop,
		DistanceM:       cand.DistanceM,
		SurgeMultiplier: st.order.SurgeMultiplier,
		DeliveryFee:     st.order.DeliveryFee,
		ExpiresAt:       po.attempt.ExpiresAt,
	}
}

func (c *Coordinator) deliverOffer(ctx context.Context, cand matcher.Candidate, offer models.Offer) {
	log := c.log.WithFields(logrus.Fields{"order_id": offer.OrderID, "rider_id": cand.RiderID})
	log.Info("offer sent")
	if c.offers == nil {
		return
	}
	if c.eta != nil {
		if v, err := c.eta.EstimateSeconds(ctx, cand.Location, offer.Pickup); err == nil {
			offer.PickupETASeconds = v
		}
	}
	if err := c.offers.SendOffer(ctx, cand.RiderID, offer); err != nil {
		log.WithError(err).Warn("offer delivery failed, waiting for deadline")
	}
}

func (c *Coordinator) expire(orderID, riderID string, seq uint64) {
	st, err := c.lookup(orderID)
	if err != nil {
		return
	}
	ctx := context.Background()
	var (
		next  bool
		round uint64
	)
	_ = c.riders.WithRider(riderID, func(h *registry.Handle) error {
		st.mu.Lock()
		defer st.mu.Unlock()
		po := st.offer
		if po == nil || po.seq != seq {
			return nil
		}
		st.offer = nil
		c.failOfferLocked(ctx, st, h, po, models.OutcomeTimedOut)
		next, round = true, st.round
		return nil
	})
	if next {
		c.continueRound(ctx, st, round)
	}
}

func (c *Coordinator) failOfferLocked(_ context.Context, st *orderState, h *registry.Handle, po *pendingOffer, outcome models.AttemptOutcome) {
	h.Release(st.order.ID)
	st.order.Attempts++
	st.order.UpdatedAt = c.clock.Now()
	observability.OffersTotal.WithLabelValues(string(outcome)).Inc()
	c.log.WithFields(logrus.Fields{
		"order_id": st.order.ID,
		"rider_id": po.attempt.RiderID,
		"outcome":  outcome,
		"attempts": st.order.Attempts,
	}).Info("offer failed")
	c.markDirtyLocked(st)
}

func (c *Coordinator) exhaustLocked(ctx context.Context, st *orderState) {
	st.cands = nil
	st.tried = nil
	st.round++
	if err := c.setStatusLocked(ctx, st, models.StatusCreated); err != nil {
		c.log.WithError(err).Error("return order to CREATED")
	}
	observability.CandidateExhausted.Inc()
}

func (c *Coordinator) afterExhaust(ctx context.Context, orderID string) {
	c.log.WithField("order_id", orderID).Info("no candidate accepted, order waiting for requeue")
	if c.requeue != nil {
		c.requeue(ctx, orderID)
	}
}

func (c *Coordinator) checkRiderLocked(st *orderState, riderID string, want models.OrderStatus) error {
	if st.order.Status != want {
		return fmt.Errorf("%w: order %s is %s, want %s", models.ErrInvalidTransition, st.order.ID, st.order.Status, want)
	}
	if st.order.RiderID != riderID {
		return fmt.Errorf("%w: order %s is assigned to another rider", models.ErrInvalidTransition, st.order.ID)
	}
	return nil
}

func (c *Coordinator) setStatusLocked(_ context.Context, st *orderState, to models.OrderStatus) error {
	from := st.order.Status
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: order %s %s -> %s", models.ErrInvalidTransition, st.order.ID, from, to)
	}
	st.order.Status = to
	st.order.UpdatedAt = c.clock.Now()
	observability.OrderTransitions.WithLabelValues(string(to)).Inc()
	c.markDirtyLocked(st)
	return nil
}

func (c *Coordinator) markDirtyLocked(st *orderState) { st.version++ }

func (c *Coordinator) cappedLocked(st *orderState) bool {
	return c.maxAttempts > 0 && st.order.Attempts >= c.maxAttempts
}

// flush writes the latest snapshot to the store. It must be called with no
// rider or order lock held. Writes for one order are serialized and always
// carry the newest state, so a slow write never overwrites a later one. The
// in-memory state stays authoritative: a failed write is logged and retried
// by the next flush.
func (c *Coordinator) flush(ctx context.Context, st *orderState) {
	if c.store == nil {
		return
	}
	st.saveMu.Lock()
	defer st.saveMu.Unlock()

	st.mu.Lock()
	if st.version == st.saved {
		st.mu.Unlock()
		return
	}
	snap, version := c.snapshotLocked(st), st.version
	st.mu.Unlock()

	if err := c.store.SaveOrder(ctx, snap); err != nil {
		c.log.WithError(err).WithField("order_id", snap.ID).Error("persist order")
		return
	}
	st.saved = version
}

func (c *Coordinator) snapshotLocked(st *orderState) models.Order {
	o := st.order
	if st.offer != nil {
		att := st.offer.attempt
		o.Offer = &att
	}
	return o
}

func (c *Coordinator) eventLocked(st *orderState) models.OrderEvent {
	return models.OrderEvent{
		OrderID:         st.order.ID,
		Status:          st.order.Status,
		RiderID:         st.order.RiderID,
		PaymentIntentID: st.order.PaymentIntentID,
		At:              st.order.UpdatedAt,
	}
}

func (c *Coordinator) emit(ctx context.Context, ev models.OrderEvent) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, ev); err != nil {
		c.log.WithError(err).WithField("order_id", ev.OrderID).Warn("notify order event")
	}
}

func (c *Coordinator) lookup(orderID string) (*orderState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrOrderNotFound)
	}
	return st, nil
}

func (c *Coordinator) all() []*orderState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*orderState, 0, len(c.orders))
	for _, st := range c.orders {
		out = append(out, st)
	}
	return out
}

func roundOpenLocked(st *orderState, round uint64) bool {
	return st.round == round && st.order.Status == models.StatusAssigning && st.offer == nil
}

// holderLocked returns the rider whose claim the order currently owns.
func holderLocked(st *orderState) string {
	if st.offer != nil {
		return st.offer.attempt.RiderID
	}
	switch st.order.Status {
	case models.StatusAssigned, models.StatusPickedUp:
		return st.order.RiderID
	}
	return ""
}
