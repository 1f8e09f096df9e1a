package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/delivery-dispatch/internal/models"
)

func TestMemoryStore_Orders(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, st := range []models.OrderStatus{models.StatusCreated, models.StatusAssigned, models.StatusAssigned} {
		o := models.Order{
			ID:        string(rune('a' + i)),
			Status:    st,
			RiderID:   "r1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.SaveOrder(ctx, o))
	}

	_, err := s.GetOrder(ctx, "zz")
	assert.True(t, errors.Is(err, models.ErrOrderNotFound))

	got, total, err := s.ListOrders(ctx, OrderFilter{Status: models.StatusAssigned}, models.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	got, total, err = s.ListOrders(ctx, OrderFilter{}, models.NewPage(5, 20))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, got)
}

func TestMemoryStore_OfferIsCopied(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	att := &models.AssignmentAttempt{RiderID: "r1", Outcome: models.OutcomePending}
	require.NoError(t, s.SaveOrder(ctx, models.Order{ID: "o1", Offer: att}))

	att.Outcome = models.OutcomeAccepted

	got, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePending, got.Offer.Outcome)
}

func TestMemoryStore_ZonesAndRiders(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetZone(ctx, "z1")
	assert.True(t, errors.Is(err, models.ErrZoneNotFound))
	require.NoError(t, s.SaveZone(ctx, models.Zone{ID: "z1", Name: "core"}))
	zones, err := s.AllZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	zones[0].Name = "mutated"
	z, err := s.GetZone(ctx, "z1")
	require.NoError(t, err)
	assert.Equal(t, "core", z.Name)

	_, err = s.Lookup(ctx, "r1")
	assert.True(t, errors.Is(err, models.ErrRiderNotFound))
	require.NoError(t, s.SaveRider(ctx, models.Rider{ID: "r1", Rating: 4.5}))
	r, err := s.Lookup(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 4.5, r.Rating)
}
