package matcher

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/delivery-dispatch/internal/models"
)

type fakeSource struct{ locs []models.RiderLocation }

func (f *fakeSource) QueryAvailable(radiusM float64, p models.Point) []models.RiderLocation {
	return f.locs
}

type fakeDirectory map[string]float64

func (f fakeDirectory) Lookup(_ context.Context, id string) (models.Rider, error) {
	r, ok := f[id]
	if !ok {
		return models.Rider{}, models.ErrRiderNotFound
	}
	return models.Rider{ID: id, Rating: r}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	return l
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func loc(id string, lat, lng float64, idle time.Duration) models.RiderLocation {
	return models.RiderLocation{RiderID: id, Lat: lat, Lng: lng, IsOnline: true, IsAvailable: true, AvailableSince: epoch.Add(-idle)}
}

func TestRank_ProximityThenRatingThenID(t *testing.T) {
	src := &fakeSource{locs: []models.RiderLocation{
		loc("S", 0, 0.001, 0),
		loc("T", 0, 0, 0),
		loc("R", 0, 0, 0),
	}}
	dir := fakeDirectory{"R": 4.8, "S": 4.2, "T": 4.8}
	s := NewSelector(src, dir, DefaultPolicy(), quietLogger())

	got := s.Rank(context.Background(), models.Order{Pickup: models.Point{}})

	assert.Equal(t, []string{"R", "T", "S"}, got.IDs())
}

func TestRank_RatingFirstWhenProximityDisabled(t *testing.T) {
	src := &fakeSource{locs: []models.RiderLocation{
		loc("near", 0, 0, 0),
		loc("far", 0, 0.01, 0),
	}}
	dir := fakeDirectory{"near": 4.0, "far": 4.9}
	s := NewSelector(src, dir, Policy{MaxDistanceM: 5000, PrioritizeRating: true}, quietLogger())

	assert.Equal(t, []string{"far", "near"}, s.Rank(context.Background(), models.Order{}).IDs())
}

func TestRank_LongestIdleBreaksTies(t *testing.T) {
	src := &fakeSource{locs: []models.RiderLocation{
		loc("a", 0, 0, time.Minute),
		loc("b", 0, 0, 5*time.Minute),
		loc("c", 0, 0, 2*time.Minute),
	}}
	dir := fakeDirectory{"a": 5, "b": 5, "c": 5}
	s := NewSelector(src, dir, DefaultPolicy(), quietLogger())

	assert.Equal(t, []string{"b", "c", "a"}, s.Rank(context.Background(), models.Order{}).IDs())
}

func TestRank_NoFlagsUsesIdleOnly(t *testing.T) {
	src := &fakeSource{locs: []models.RiderLocation{
		loc("close", 0, 0, time.Second),
		loc("idle", 0, 0.02, time.Hour),
	}}
	s := NewSelector(src, fakeDirectory{}, Policy{MaxDistanceM: 5000}, quietLogger())

	assert.Equal(t, []string{"idle", "close"}, s.Rank(context.Background(), models.Order{}).IDs())
}

func TestRank_SkipsRidersMissingFromDirectory(t *testing.T) {
	src := &fakeSource{locs: []models.RiderLocation{loc("gone", 0, 0, 0), loc("here", 0, 0, 0)}}
	s := NewSelector(src, fakeDirectory{"here": 4}, DefaultPolicy(), quietLogger())

	assert.Equal(t, []string{"here"}, s.Rank(context.Background(), models.Order{}).IDs())
}

func TestCandidates_LazyAndResettable(t *testing.T) {
	items := []Candidate{
		{RiderID: "c", DistanceM: 30},
		{RiderID: "a", DistanceM: 10},
		{RiderID: "b", DistanceM: 20},
	}
	c := NewCandidates(DefaultPolicy(), items)

	first, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, "a", first.RiderID)
	assert.Equal(t, 2, c.Remaining())

	c.Reset()
	assert.Equal(t, 3, c.Remaining())
	var order []string
	for {
		cand, ok := c.Next()
		if !ok {
			break
		}
		order = append(order, cand.RiderID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, "c", items[0].RiderID, "snapshot is not reordered in place")
}

func TestCandidates_Empty(t *testing.T) {
	c := NewCandidates(DefaultPolicy(), nil)
	_, ok := c.Next()
	assert.False(t, ok)
	assert.Empty(t, c.IDs())
}
