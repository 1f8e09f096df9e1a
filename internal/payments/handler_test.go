package payments

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v74"
	"go.uber.org/mock/gomock"

	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/payments/mocks"
)

func newTestSettler(t *testing.T) (*Settler, *mocks.MockGateway) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return NewSettler(gw, logger), gw
}

func TestSettler_CaptureOnDelivered(t *testing.T) {
	s, gw := newTestSettler(t)
	gw.EXPECT().Capture(gomock.Any(), "pi_1").Return(nil)

	err := s.Notify(context.Background(), models.OrderEvent{OrderID: "o1", Status: models.StatusDelivered, PaymentIntentID: "pi_1"})

	assert.NoError(t, err)
}

func TestSettler_CancelOnCancelled(t *testing.T) {
	s, gw := newTestSettler(t)
	gw.EXPECT().Cancel(gomock.Any(), "pi_1").Return(nil)

	err := s.Notify(context.Background(), models.OrderEvent{OrderID: "o1", Status: models.StatusCancelled, PaymentIntentID: "pi_1"})

	assert.NoError(t, err)
}

func TestSettler_SkipsOtherEvents(t *testing.T) {
	s, _ := newTestSettler(t)

	assert.NoError(t, s.Notify(context.Background(), models.OrderEvent{OrderID: "o1", Status: models.StatusAssigned, PaymentIntentID: "pi_1"}))
	assert.NoError(t, s.Notify(context.Background(), models.OrderEvent{OrderID: "o1", Status: models.StatusDelivered}))
}

func TestSettler_Errors(t *testing.T) {
	s, gw := newTestSettler(t)
	boom := errors.New("network down")
	gw.EXPECT().Capture(gomock.Any(), "pi_1").Return(boom)

	err := s.Notify(context.Background(), models.OrderEvent{OrderID: "o1", Status: models.StatusDelivered, PaymentIntentID: "pi_1"})
	assert.True(t, errors.Is(err, boom))

	gw.EXPECT().Cancel(gomock.Any(), "pi_2").Return(&stripe.Error{Code: stripe.ErrorCodePaymentIntentUnexpectedState})
	err = s.Notify(context.Background(), models.OrderEvent{OrderID: "o2", Status: models.StatusCancelled, PaymentIntentID: "pi_2"})
	assert.NoError(t, err)
}
