package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/assignment"
	"github.com/example/delivery-dispatch/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var ErrNoSession = errors.New("rider has no open session")

// Responder receives offer answers read off rider sockets.
type Responder interface {
	HandleRiderResponse(ctx context.Context, orderID, riderID string, accept bool) (assignment.Outcome, error)
}

// Frame is the single envelope used in both directions on a rider socket.
type Frame struct {
	Type    string             `json:"type"`
	OrderID string             `json:"order_id,omitempty"`
	Accept  *bool              `json:"accept,omitempty"`
	Offer   *models.Offer      `json:"offer,omitempty"`
	Event   *models.OrderEvent `json:"event,omitempty"`
	Outcome string             `json:"outcome,omitempty"`
	Error   string             `json:"error,omitempty"`
}

const (
	FrameOffer    = "offer"
	FrameStatus   = "status"
	FrameResponse = "response"
	FrameAck      = "ack"
	FrameError    = "error"
)

type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) write(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}

func (s *session) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub keeps one socket per rider. A new connection replaces the old one.
type Hub struct {
	log      *logrus.Logger
	upgrader websocket.Upgrader

	mu        sync.RWMutex
	sessions  map[string]*session
	responder Responder
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// Bind sets where response frames go. It is called once the dispatch
// service exists, since the service depends on the hub for offers.
func (h *Hub) Bind(r Responder) {
	h.mu.Lock()
	h.responder = r
	h.mu.Unlock()
}

// ServeRider upgrades the request and serves the rider's socket until it
// closes.
func (h *Hub) ServeRider(w http.ResponseWriter, r *http.Request, riderID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).WithField("rider_id", riderID).Warn("ws upgrade failed")
		return
	}
	s := &session{conn: conn}
	h.mu.Lock()
	if old, ok := h.sessions[riderID]; ok {
		_ = old.conn.Close()
	}
	h.sessions[riderID] = s
	h.mu.Unlock()
	h.log.WithField("rider_id", riderID).Info("rider connected")

	go h.pingLoop(riderID, s)
	h.readLoop(riderID, s)
}

func (h *Hub) Connected(riderID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[riderID]
	return ok
}

func (h *Hub) pingLoop(riderID string, s *session) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for range t.C {
		if !h.current(riderID, s) {
			return
		}
		if err := s.ping(); err != nil {
			h.drop(riderID, s)
			return
		}
	}
}

func (h *Hub) readLoop(riderID string, s *session) {
	defer h.drop(riderID, s)

	conn := s.conn
	conn.SetReadLimit(16 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if mt != websocket.TextMessage {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(string(msg)), "ping") {
			s.mu.Lock()
			_ = conn.WriteMessage(websocket.TextMessage, []byte("pong"))
			s.mu.Unlock()
			continue
		}
		h.handleFrame(riderID, s, msg)
	}
}

func (h *Hub) handleFrame(riderID string, s *session, msg []byte) {
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		_ = s.write(Frame{Type: FrameError, Error: "malformed frame"})
		return
	}
	if f.Type != FrameResponse || f.OrderID == "" || f.Accept == nil {
		_ = s.write(Frame{Type: FrameError, OrderID: f.OrderID, Error: "expected response frame with order_id and accept"})
		return
	}
	h.mu.RLock()
	responder := h.responder
	h.mu.RUnlock()
	if responder == nil {
		_ = s.write(Frame{Type: FrameError, OrderID: f.OrderID, Error: "dispatch unavailable"})
		return
	}
	out, err := responder.HandleRiderResponse(context.Background(), f.OrderID, riderID, *f.Accept)
	if err != nil {
		_ = s.write(Frame{Type: FrameError, OrderID: f.OrderID, Error: err.Error()})
		return
	}
	_ = s.write(Frame{Type: FrameAck, OrderID: f.OrderID, Outcome: string(out)})
}

// SendOffer pushes an offer to the rider's socket.
func (h *Hub) SendOffer(_ context.Context, riderID string, offer models.Offer) error {
	s := h.lookup(riderID)
	if s == nil {
		return ErrNoSession
	}
	if err := s.write(Frame{Type: FrameOffer, OrderID: offer.OrderID, Offer: &offer}); err != nil {
		h.drop(riderID, s)
		return err
	}
	return nil
}

// Notify tells the rider on an order about its status change. Events with no
// rider or riders without a socket are skipped.
func (h *Hub) Notify(_ context.Context, ev models.OrderEvent) error {
	if ev.RiderID == "" {
		return nil
	}
	s := h.lookup(ev.RiderID)
	if s == nil {
		return nil
	}
	if err := s.write(Frame{Type: FrameStatus, OrderID: ev.OrderID, Event: &ev}); err != nil {
		h.drop(ev.RiderID, s)
		return err
	}
	return nil
}

// Close drops every session.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		_ = s.conn.Close()
		delete(h.sessions, id)
	}
}

func (h *Hub) lookup(riderID string) *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[riderID]
}

func (h *Hub) current(riderID string, s *session) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[riderID] == s
}

func (h *Hub) drop(riderID string, s *session) {
	_ = s.conn.Close()
	h.mu.Lock()
	removed := false
	if h.sessions[riderID] == s {
		delete(h.sessions, riderID)
		removed = true
	}
	h.mu.Unlock()
	if removed {
		h.log.WithField("rider_id", riderID).Info("rider disconnected")
	}
}
