package notify

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/example/delivery-dispatch/internal/assignment"
	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/notify/mocks"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	return l
}

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(quietLogger())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeRider(w, r, r.URL.Query().Get("rider"))
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, riderID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?rider=" + riderID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.Connected(riderID) }, time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHub_SendOffer(t *testing.T) {
	hub, srv := newHubServer(t)
	conn := dial(t, hub, srv, "r1")

	err := hub.SendOffer(context.Background(), "r1", models.Offer{OrderID: "o1", DistanceM: 120})
	require.NoError(t, err)

	f := readFrame(t, conn)
	assert.Equal(t, FrameOffer, f.Type)
	require.NotNil(t, f.Offer)
	assert.Equal(t, "o1", f.Offer.OrderID)
	assert.Equal(t, 120.0, f.Offer.DistanceM)
}

func TestHub_SendOfferWithoutSession(t *testing.T) {
	hub := NewHub(quietLogger())

	err := hub.SendOffer(context.Background(), "nobody", models.Offer{OrderID: "o1"})

	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestHub_ResponseFrameRouted(t *testing.T) {
	ctrl := gomock.NewController(t)
	responder := mocks.NewMockResponder(ctrl)
	hub, srv := newHubServer(t)
	hub.Bind(responder)
	conn := dial(t, hub, srv, "r1")

	responder.EXPECT().HandleRiderResponse(gomock.Any(), "o1", "r1", true).Return(assignment.Accepted, nil)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response","order_id":"o1","accept":true}`)))
	f := readFrame(t, conn)
	assert.Equal(t, FrameAck, f.Type)
	assert.Equal(t, "accepted", f.Outcome)

	responder.EXPECT().HandleRiderResponse(gomock.Any(), "o2", "r1", false).Return(assignment.Outcome(""), models.ErrInvalidTransition)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response","order_id":"o2","accept":false}`)))
	f = readFrame(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, "o2", f.OrderID)
}

func TestHub_MalformedFrames(t *testing.T) {
	hub, srv := newHubServer(t)
	hub.Bind(mocks.NewMockResponder(gomock.NewController(t)))
	conn := dial(t, hub, srv, "r1")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	assert.Equal(t, FrameError, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response","order_id":"o1"}`)))
	assert.Equal(t, FrameError, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(msg))
}

func TestHub_NotifyStatus(t *testing.T) {
	hub, srv := newHubServer(t)
	conn := dial(t, hub, srv, "r1")

	require.NoError(t, hub.Notify(context.Background(), models.OrderEvent{OrderID: "o1", Status: models.StatusCancelled, RiderID: "r1"}))
	require.NoError(t, hub.Notify(context.Background(), models.OrderEvent{OrderID: "o2", Status: models.StatusCreated}))
	require.NoError(t, hub.Notify(context.Background(), models.OrderEvent{OrderID: "o3", Status: models.StatusAssigned, RiderID: "r9"}))

	f := readFrame(t, conn)
	assert.Equal(t, FrameStatus, f.Type)
	require.NotNil(t, f.Event)
	assert.Equal(t, models.StatusCancelled, f.Event.Status)
}

func TestHub_ReconnectReplacesSession(t *testing.T) {
	hub, srv := newHubServer(t)
	first := dial(t, hub, srv, "r1")
	second := dial(t, hub, srv, "r1")

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	require.NoError(t, hub.SendOffer(context.Background(), "r1", models.Offer{OrderID: "o1"}))
	assert.Equal(t, "o1", readFrame(t, second).OrderID)
}

func TestHub_DisconnectRemovesSession(t *testing.T) {
	hub, srv := newHubServer(t)
	conn := dial(t, hub, srv, "r1")

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return !hub.Connected("r1") }, time.Second, 5*time.Millisecond)
}
