package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/delivery-dispatch/internal/models"
)

type pointRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

func (p pointRequest) toModel() models.Point {
	return models.Point{Lat: *p.Lat, Lng: *p.Lng}
}

type locationRequest struct {
	Lat    *float64 `json:"lat" validate:"required,latitude"`
	Lng    *float64 `json:"lng" validate:"required,longitude"`
	Online *bool    `json:"online"`
}

type createOrderRequest struct {
	ID              string       `json:"id" validate:"omitempty,max=64"`
	CustomerID      string       `json:"customer_id" validate:"omitempty,max=64"`
	PaymentIntentID string       `json:"payment_intent_id" validate:"omitempty,startswith=pi_"`
	Pickup          pointRequest `json:"pickup"`
	Drop            pointRequest `json:"drop"`
}

type riderResponseRequest struct {
	RiderID string `json:"rider_id" validate:"required"`
	Accept  *bool  `json:"accept" validate:"required"`
}

type riderActionRequest struct {
	RiderID string `json:"rider_id" validate:"required"`
}

type zoneRequest struct {
	ID              string         `json:"id" validate:"omitempty,max=64"`
	Name            string         `json:"name" validate:"required,max=100"`
	Polygon         []pointRequest `json:"polygon" validate:"required,min=3,dive"`
	Active          *bool          `json:"active"`
	SurgeMultiplier *float64       `json:"surge_multiplier" validate:"omitempty,gte=0"`
	DeliveryFee     *float64       `json:"delivery_fee" validate:"omitempty,gte=0"`
}

func (z zoneRequest) toModel() models.Zone {
	out := models.Zone{ID: z.ID, Name: z.Name, Active: true, SurgeMultiplier: models.DefaultSurgeMultiplier}
	for _, p := range z.Polygon {
		out.Polygon = append(out.Polygon, p.toModel())
	}
	if z.Active != nil {
		out.Active = *z.Active
	}
	if z.SurgeMultiplier != nil {
		out.SurgeMultiplier = *z.SurgeMultiplier
	}
	if z.DeliveryFee != nil {
		out.DeliveryFee = *z.DeliveryFee
	}
	return out
}

type surgeRequest struct {
	SurgeMultiplier *float64 `json:"surge_multiplier" validate:"required,gte=0"`
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type riderRequest struct {
	ID     string   `json:"id" validate:"required,max=64"`
	Name   string   `json:"name" validate:"max=100"`
	Rating *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

type orderResponse struct {
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
}

type riderResponseResult struct {
	OrderID string `json:"order_id"`
	Outcome string `json:"outcome"`
}

type zoneResolveResponse struct {
	Found           bool         `json:"found"`
	Zone            *models.Zone `json:"zone,omitempty"`
	SurgeMultiplier float64      `json:"surge_multiplier"`
	DeliveryFee     float64      `json:"delivery_fee"`
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the 400 response itself and reports whether the caller may go on.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.logger.WithError(err).WithField("route", routeTemplate(r)).Debug("failed to decode body")
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
