package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/models"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeValidationFailed   = "validation_failed"
	codeInvalidCoordinate  = "invalid_coordinate"
	codeInvalidQuery       = "invalid_query"
	codeRiderNotFound      = "rider_not_found"
	codeOrderNotFound      = "order_not_found"
	codeZoneNotFound       = "zone_not_found"
	codeInvalidTransition  = "invalid_transition"
	codeUnauthorized       = "unauthorized"
	codeNotReady           = "not_ready"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{Error: msg, Code: code})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps service sentinels onto status codes. Anything it
// does not recognise is logged and reported as 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, codeInvalidCoordinate, err.Error())
	case errors.Is(err, models.ErrRiderNotFound):
		writeError(w, http.StatusNotFound, codeRiderNotFound, err.Error())
	case errors.Is(err, models.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, models.ErrZoneNotFound):
		writeError(w, http.StatusNotFound, codeZoneNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	default:
		s.logger.WithError(err).WithFields(logrus.Fields{
			"route":      routeTemplate(r),
			"request_id": requestIDFromContext(r.Context()),
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
