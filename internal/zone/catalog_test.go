package zone

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/delivery-dispatch/internal/clock"
	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/storage"
)

func square(minLat, minLng, size float64) []models.Point {
	return []models.Point{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng},
	}
}

func newTestCatalog(t *testing.T) (*Catalog, *storage.MemoryStore, *clock.Fake) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	store := storage.NewMemoryStore()
	clk := clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewCatalog(store, clk, logger), store, clk
}

func TestResolve_OutsideAllZones(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	_, err := c.Save(context.Background(), models.Zone{Name: "core", Active: true, Polygon: square(0, 0, 1)})
	require.NoError(t, err)

	_, ok, err := c.Resolve(models.Point{Lat: 5, Lng: 5})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_InvalidPoint(t *testing.T) {
	c, _, _ := newTestCatalog(t)

	_, _, err := c.Resolve(models.Point{Lat: 100, Lng: 0})

	assert.True(t, errors.Is(err, models.ErrInvalidCoordinate))
}

func TestResolve_MostRecentlyUpdatedWins(t *testing.T) {
	c, _, clk := newTestCatalog(t)
	ctx := context.Background()

	older, err := c.Save(ctx, models.Zone{Name: "city", Active: true, Polygon: square(0, 0, 2)})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	newer, err := c.Save(ctx, models.Zone{Name: "downtown", Active: true, Polygon: square(0.5, 0.5, 1)})
	require.NoError(t, err)

	z, ok, err := c.Resolve(models.Point{Lat: 1, Lng: 1})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newer.ID, z.ID)

	// touching the older zone makes it win the overlap
	clk.Advance(time.Minute)
	_, err = c.SetSurge(ctx, older.ID, 1.5)
	require.NoError(t, err)

	z, ok, err = c.Resolve(models.Point{Lat: 1, Lng: 1})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, older.ID, z.ID)
	assert.Equal(t, 1.5, z.SurgeMultiplier)
}

func TestResolve_TieBrokenByID(t *testing.T) {
	c, store, clk := newTestCatalog(t)
	ctx := context.Background()
	at := clk.Now()
	require.NoError(t, store.SaveZone(ctx, models.Zone{ID: "b", Active: true, Polygon: square(0, 0, 2), UpdatedAt: at}))
	require.NoError(t, store.SaveZone(ctx, models.Zone{ID: "a", Active: true, Polygon: square(0, 0, 2), UpdatedAt: at}))
	require.NoError(t, c.Refresh(ctx))

	z, ok, err := c.Resolve(models.Point{Lat: 1, Lng: 1})

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", z.ID)
}

func TestSetActive_HidesZone(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	ctx := context.Background()
	z, err := c.Save(ctx, models.Zone{Name: "core", Active: true, Polygon: square(0, 0, 1)})
	require.NoError(t, err)

	_, err = c.SetActive(ctx, z.ID, false)
	require.NoError(t, err)

	_, ok, err := c.Resolve(models.Point{Lat: 0.5, Lng: 0.5})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSave_Validation(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := c.Save(ctx, models.Zone{Name: "line", Polygon: square(0, 0, 1)[:2]})
	assert.True(t, errors.Is(err, models.ErrInvalidCoordinate))

	_, err = c.Save(ctx, models.Zone{Name: "bad", Polygon: []models.Point{{Lat: 0, Lng: 0}, {Lat: 95, Lng: 0}, {Lat: 0, Lng: 1}}})
	assert.True(t, errors.Is(err, models.ErrInvalidCoordinate))

	_, err = c.Save(ctx, models.Zone{Name: "neg", Polygon: square(0, 0, 1), SurgeMultiplier: -1})
	assert.Error(t, err)

	z, err := c.Save(ctx, models.Zone{Name: "ok", Polygon: square(0, 0, 1), SurgeMultiplier: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, z.ID)
	assert.Equal(t, 1.0, z.SurgeMultiplier)
}

func TestSave_KeepsSurgeAsGiven(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	ctx := context.Background()

	free, err := c.Save(ctx, models.Zone{Name: "promo", Active: true, Polygon: square(0, 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, free.SurgeMultiplier)

	named, err := c.Save(ctx, models.Zone{ID: "downtown", Name: "downtown", Active: true, Polygon: square(10, 10, 1), SurgeMultiplier: 1.3})
	require.NoError(t, err)
	assert.Equal(t, 1.3, named.SurgeMultiplier)

	z, ok, err := c.Resolve(models.Point{Lat: 10.5, Lng: 10.5})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "downtown", z.ID)
	assert.Equal(t, 1.3, z.SurgeMultiplier)
}

func TestMutate_UnknownZone(t *testing.T) {
	c, _, _ := newTestCatalog(t)

	_, err := c.SetSurge(context.Background(), "nope", 2)

	assert.True(t, errors.Is(err, models.ErrZoneNotFound))
}

func TestList_FilterAndPaginate(t *testing.T) {
	c, _, clk := newTestCatalog(t)
	ctx := context.Background()
	for _, name := range []string{"North", "South", "North East"} {
		_, err := c.Save(ctx, models.Zone{Name: name, Active: true, Polygon: square(0, 0, 1)})
		require.NoError(t, err)
		clk.Advance(time.Second)
	}
	_, err := c.Save(ctx, models.Zone{Name: "North Depot", Active: false, Polygon: square(0, 0, 1)})
	require.NoError(t, err)

	active := true
	zones, total, err := c.List(ctx, ListFilter{Active: &active, Search: "north"}, models.NewPage(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, zones, 1)
	assert.Equal(t, "North East", zones[0].Name)

	zones, _, err = c.List(ctx, ListFilter{Active: &active, Search: "north"}, models.NewPage(2, 1))
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "North", zones[0].Name)
}
