package models

import "time"

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultSurgeMultiplier applies when a zone is created without one.
const DefaultSurgeMultiplier = 1.0

// Zone is an admin-defined delivery area with its own pricing.
type Zone struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Polygon         []Point   `json:"polygon"`
	Active          bool      `json:"active"`
	SurgeMultiplier float64   `json:"surge_multiplier"`
	DeliveryFee     float64   `json:"delivery_fee"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Rider is the directory view of a rider. The directory is authoritative for
// which rider ids exist and for their rating.
type Rider struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"` // 0..5
}

// RiderLocation is the single live record kept per rider.
type RiderLocation struct {
	RiderID        string    `json:"rider_id"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	IsOnline       bool      `json:"is_online"`
	IsAvailable    bool      `json:"is_available"`
	Claimed        bool      `json:"claimed"`
	ClaimedBy      string    `json:"claimed_by,omitempty"`
	LastUpdatedAt  time.Time `json:"last_updated_at"`
	AvailableSince time.Time `json:"available_since"`
}

func (l RiderLocation) Point() Point { return Point{Lat: l.Lat, Lng: l.Lng} }

// NewOrder is what the order creation collaborator hands to dispatch.
type NewOrder struct {
	ID              string `json:"id,omitempty"`
	CustomerID      string `json:"customer_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	Pickup          Point  `json:"pickup"`
	Drop            Point  `json:"drop"`
}

type Order struct {
	ID              string             `json:"id"`
	CustomerID      string             `json:"customer_id,omitempty"`
	PaymentIntentID string             `json:"payment_intent_id,omitempty"`
	Pickup          Point              `json:"pickup"`
	Drop            Point              `json:"drop"`
	ZoneID          string             `json:"zone_id,omitempty"`
	SurgeMultiplier float64            `json:"surge_multiplier"`
	DeliveryFee     float64            `json:"delivery_fee"`
	Status          OrderStatus        `json:"status"`
	RiderID         string             `json:"rider_id,omitempty"`
	Attempts        int                `json:"attempts"`
	Offer           *AssignmentAttempt `json:"offer,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type AttemptOutcome string

const (
	OutcomePending  AttemptOutcome = "pending"
	OutcomeAccepted AttemptOutcome = "accepted"
	OutcomeRejected AttemptOutcome = "rejected"
	OutcomeTimedOut AttemptOutcome = "timed_out"
)

// AssignmentAttempt lives only while its order is ASSIGNING.
type AssignmentAttempt struct {
	OrderID   string         `json:"order_id"`
	RiderID   string         `json:"rider_id"`
	OfferedAt time.Time      `json:"offered_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Outcome   AttemptOutcome `json:"outcome"`
}

// Offer is the payload pushed to a rider when an order is proposed to them.
type Offer struct {
	OrderID          string    `json:"order_id"`
	Pickup           Point     `json:"pickup"`
	Drop             Point     `json:"drop"`
	DistanceM        float64   `json:"distance_m"`
	PickupETASeconds float64   `json:"pickup_eta_seconds"`
	SurgeMultiplier  float64   `json:"surge_multiplier"`
	DeliveryFee      float64   `json:"delivery_fee"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// OrderEvent is emitted on every externally relevant order transition.
type OrderEvent struct {
	OrderID         string      `json:"order_id"`
	Status          OrderStatus `json:"status"`
	RiderID         string      `json:"rider_id,omitempty"`
	PaymentIntentID string      `json:"payment_intent_id,omitempty"`
	At              time.Time   `json:"at"`
}

// LocationPing is the wire shape of a rider location update.
type LocationPing struct {
	RiderID string  `json:"rider_id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Online  bool    `json:"online"`
}

// AssignmentConfig is the admin view of the auto-assignment policy.
type AssignmentConfig struct {
	Enabled             bool    `json:"enabled"`
	MaxDistanceM        float64 `json:"max_distance_m"`
	PrioritizeProximity bool    `json:"prioritize_proximity"`
	PrioritizeRating    bool    `json:"prioritize_rating"`
	OfferTimeoutSeconds float64 `json:"offer_timeout_seconds"`
	MaxAttempts         int     `json:"max_attempts"`
}
