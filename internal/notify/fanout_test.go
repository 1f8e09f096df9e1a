package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/notify/mocks"
)

type recorder struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (r *recorder) Notify(_ context.Context, ev models.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func TestFanout_DeliversInOrderToEverySink(t *testing.T) {
	ctrl := gomock.NewController(t)
	failing := mocks.NewMockNotifier(ctrl)
	failing.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("boom")).Times(3)
	rec := &recorder{}

	f := NewFanout(8, time.Second, quietLogger(), Sink{Name: "broken", Notifier: failing}, Sink{Name: "rec", Notifier: rec})
	for _, st := range []models.OrderStatus{models.StatusAssigning, models.StatusAssigned, models.StatusPickedUp} {
		require.NoError(t, f.Notify(context.Background(), models.OrderEvent{OrderID: "o1", Status: st}))
	}
	require.NoError(t, f.Close(context.Background()))

	require.Len(t, rec.events, 3)
	assert.Equal(t, models.StatusAssigning, rec.events[0].Status)
	assert.Equal(t, models.StatusPickedUp, rec.events[2].Status)
}

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	rec     recorder
}

func (b *blockingSink) Notify(ctx context.Context, ev models.OrderEvent) error {
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
	return b.rec.Notify(ctx, ev)
}

func TestFanout_DropsWhenFull(t *testing.T) {
	sink := &blockingSink{started: make(chan struct{}), release: make(chan struct{})}
	f := NewFanout(1, time.Second, quietLogger(), Sink{Name: "slow", Notifier: sink})
	ctx := context.Background()

	require.NoError(t, f.Notify(ctx, models.OrderEvent{OrderID: "a"}))
	<-sink.started
	require.NoError(t, f.Notify(ctx, models.OrderEvent{OrderID: "b"}))
	require.NoError(t, f.Notify(ctx, models.OrderEvent{OrderID: "c"}))
	close(sink.release)
	require.NoError(t, f.Close(ctx))

	ids := make([]string, 0, len(sink.rec.events))
	for _, ev := range sink.rec.events {
		ids = append(ids, ev.OrderID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)

	// after close events are dropped without error
	assert.NoError(t, f.Notify(ctx, models.OrderEvent{OrderID: "d"}))
}
