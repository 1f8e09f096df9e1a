package payments

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/models"
)

// Settler captures the payment when an order is delivered and releases it
// when the order is cancelled. Orders without a PaymentIntent are skipped.
type Settler struct {
	gw  Gateway
	log *logrus.Logger
}

func NewSettler(gw Gateway, log *logrus.Logger) *Settler {
	return &Settler{gw: gw, log: log}
}

func (s *Settler) Notify(ctx context.Context, ev models.OrderEvent) error {
	if ev.PaymentIntentID == "" {
		return nil
	}
	var (
		op  string
		err error
	)
	switch ev.Status {
	case models.StatusDelivered:
		op, err = "capture", s.gw.Capture(ctx, ev.PaymentIntentID)
	case models.StatusCancelled:
		op, err = "cancel", s.gw.Cancel(ctx, ev.PaymentIntentID)
	default:
		return nil
	}
	log := s.log.WithFields(logrus.Fields{"order_id": ev.OrderID, "payment_intent": ev.PaymentIntentID, "op": op})
	if err != nil {
		if alreadySettled(err) {
			log.WithError(err).Warn("payment already settled")
			return nil
		}
		return fmt.Errorf("%s payment %s: %w", op, ev.PaymentIntentID, err)
	}
	log.Info("payment settled")
	return nil
}
