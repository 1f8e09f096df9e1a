package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/example/delivery-dispatch/internal/models"
)

func (s *Server) handleRiderLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	ping := models.LocationPing{RiderID: mux.Vars(r)["id"], Lat: *req.Lat, Lng: *req.Lng, Online: true}
	if req.Online != nil {
		ping.Online = *req.Online
	}
	loc, err := s.deps.Dispatch.UpdateLocation(r.Context(), ping)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleRiderStatus(w http.ResponseWriter, r *http.Request) {
	loc, err := s.deps.Dispatch.RiderStatus(mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	id, err := s.deps.Dispatch.SubmitOrder(r.Context(), models.NewOrder{
		ID:              req.ID,
		CustomerID:      req.CustomerID,
		PaymentIntentID: req.PaymentIntentID,
		Pickup:          req.Pickup.toModel(),
		Drop:            req.Drop.toModel(),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	o, err := s.deps.Dispatch.GetOrderStatus(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.deps.Dispatch.GetOrderStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.deps.Dispatch.CancelOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{OrderID: o.ID, Status: o.Status})
}

func (s *Server) handleRiderResponse(w http.ResponseWriter, r *http.Request) {
	var req riderResponseRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	orderID := mux.Vars(r)["id"]
	out, err := s.deps.Dispatch.HandleRiderResponse(r.Context(), orderID, req.RiderID, *req.Accept)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, riderResponseResult{OrderID: orderID, Outcome: string(out)})
}

func (s *Server) handlePickup(w http.ResponseWriter, r *http.Request) {
	var req riderActionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	o, err := s.deps.Dispatch.MarkPickedUp(r.Context(), mux.Vars(r)["id"], req.RiderID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{OrderID: o.ID, Status: o.Status})
}

func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	var req riderActionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	o, err := s.deps.Dispatch.MarkDelivered(r.Context(), mux.Vars(r)["id"], req.RiderID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{OrderID: o.ID, Status: o.Status})
}

func (s *Server) handleResolveZone(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "lat and lng query parameters are required")
		return
	}
	z, ok, err := s.deps.Dispatch.ResolveZone(models.Point{Lat: lat, Lng: lng})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	resp := zoneResolveResponse{SurgeMultiplier: 1}
	if ok {
		resp = zoneResolveResponse{Found: true, Zone: &z, SurgeMultiplier: z.SurgeMultiplier, DeliveryFee: z.DeliveryFee}
	}
	writeJSON(w, http.StatusOK, resp)
}
