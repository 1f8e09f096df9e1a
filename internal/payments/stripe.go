package payments

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// Gateway settles the payment hold placed when the customer checked out.
type Gateway interface {
	Capture(ctx context.Context, paymentIntentID string) error
	Cancel(ctx context.Context, paymentIntentID string) error
}

// StripeClient captures or releases manual-capture PaymentIntents.
type StripeClient struct {
	api *client.API
}

func NewStripeClient(apiKey string) *StripeClient {
	return &StripeClient{api: client.New(apiKey, nil)}
}

// Capture finalizes a previously-held PaymentIntent.
func (s *StripeClient) Capture(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.SetIdempotencyKey("capture-" + paymentIntentID)
	_, err := s.api.PaymentIntents.Capture(paymentIntentID, params)
	return err
}

// Cancel releases the hold on a PaymentIntent.
func (s *StripeClient) Cancel(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("cancel-" + paymentIntentID)
	_, err := s.api.PaymentIntents.Cancel(paymentIntentID, params)
	return err
}

// alreadySettled reports whether Stripe refused the call because the intent
// was captured or cancelled earlier.
func alreadySettled(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.Code == stripe.ErrorCodePaymentIntentUnexpectedState
}
