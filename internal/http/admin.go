package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/delivery-dispatch/internal/geo"
	"github.com/example/delivery-dispatch/internal/matcher"
	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/storage"
	"github.com/example/delivery-dispatch/internal/zone"
)

// apiKeyMiddleware accepts a key from X-API-Key or an Authorization bearer
// token. With no keys configured every admin request is refused.
func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if apiKey == "" {
			s.logger.WithField("route", routeTemplate(r)).Warn("API key missing from request")
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "API key required")
			return
		}
		for _, key := range s.deps.AdminKeys {
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}
		s.logger.WithField("route", routeTemplate(r)).Warn("invalid API key provided")
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid API key")
	})
}

func pageFromQuery(r *http.Request) models.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return models.NewPage(page, limit)
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	p := pageFromQuery(r)
	f := zone.ListFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "active must be a boolean")
			return
		}
		f.Active = &active
	}
	zones, total, err := s.deps.Zones.List(r.Context(), f, p)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewPageResult(zones, total, p))
}

func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	z, err := s.deps.Zones.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (s *Server) handleSaveZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	z, err := s.deps.Zones.Save(r.Context(), req.toModel())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (s *Server) handleSetSurge(w http.ResponseWriter, r *http.Request) {
	var req surgeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	z, err := s.deps.Zones.SetSurge(r.Context(), mux.Vars(r)["id"], *req.SurgeMultiplier)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	z, err := s.deps.Zones.SetActive(r.Context(), mux.Vars(r)["id"], *req.Active)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (s *Server) handleAssignmentConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dispatch.AssignmentConfig())
}

func (s *Server) handleListRiders(w http.ResponseWriter, r *http.Request) {
	p := pageFromQuery(r)
	riders, total := s.deps.Dispatch.ListRiders(p)
	writeJSON(w, http.StatusOK, models.NewPageResult(riders, total, p))
}

func (s *Server) handleSaveRider(w http.ResponseWriter, r *http.Request) {
	var req riderRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	rider := models.Rider{ID: req.ID, Name: req.Name, Rating: 5}
	if req.Rating != nil {
		rider.Rating = *req.Rating
	}
	if err := s.deps.Records.SaveRider(r.Context(), rider); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.WithField("rider_id", rider.ID).Info("rider saved")
	writeJSON(w, http.StatusOK, rider)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	p := pageFromQuery(r)
	f := storage.OrderFilter{RiderID: r.URL.Query().Get("rider_id")}
	if v := r.URL.Query().Get("status"); v != "" {
		f.Status = models.OrderStatus(strings.ToUpper(v))
		if !f.Status.Valid() {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "unknown order status")
			return
		}
	}
	orders, total, err := s.deps.Records.ListOrders(r.Context(), f, p)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewPageResult(orders, total, p))
}

func (s *Server) handleNearbyRiders(w http.ResponseWriter, r *http.Request) {
	if s.deps.Nearby == nil {
		writeError(w, http.StatusServiceUnavailable, codeNotReady, "location mirror not configured")
		return
	}
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "lat and lng query parameters are required")
		return
	}
	p := models.Point{Lat: lat, Lng: lng}
	if err := geo.ValidatePoint(p); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	radius := matcher.DefaultMaxDistanceM
	if v := q.Get("radius_m"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "radius_m must be a positive number")
			return
		}
		radius = f
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	limit = models.NewPage(1, limit).Limit
	ids, err := s.deps.Nearby.Nearby(r.Context(), p, radius, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rider_ids": ids, "radius_m": radius})
}
