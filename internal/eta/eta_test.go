package eta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/delivery-dispatch/internal/models"
)

type countingEstimator struct {
	calls int
	v     float64
	err   error
}

func (c *countingEstimator) EstimateSeconds(context.Context, models.Point, models.Point) (float64, error) {
	c.calls++
	return c.v, c.err
}

func TestStraight(t *testing.T) {
	v, err := Straight{SpeedMps: 10}.EstimateSeconds(context.Background(), models.Point{}, models.Point{Lng: 0.01})
	require.NoError(t, err)
	assert.InDelta(t, 111.2, v, 0.5)

	v, _ = Straight{}.EstimateSeconds(context.Background(), models.Point{}, models.Point{})
	assert.Equal(t, 0.0, v)
}

func TestRouted_CachesClientAnswer(t *testing.T) {
	client := &countingEstimator{v: 42}
	r := &Routed{Client: client, Cache: NewCache(time.Minute)}
	a, b := models.Point{Lat: 1, Lng: 1}, models.Point{Lat: 1.01, Lng: 1}

	for i := 0; i < 3; i++ {
		v, err := r.EstimateSeconds(context.Background(), a, b)
		require.NoError(t, err)
		assert.Equal(t, 42.0, v)
	}
	assert.Equal(t, 1, client.calls)
}

func TestRouted_FallsBackOnClientError(t *testing.T) {
	client := &countingEstimator{err: errors.New("down")}
	r := &Routed{Client: client, Fallback: Straight{SpeedMps: 10}}

	v, err := r.EstimateSeconds(context.Background(), models.Point{}, models.Point{Lng: 0.01})
	require.NoError(t, err)
	assert.InDelta(t, 111.2, v, 0.5)
}

func TestCacheExpires(t *testing.T) {
	c := NewCache(time.Nanosecond)
	c.Set(models.Point{}, models.Point{}, 5)
	time.Sleep(time.Millisecond)
	_, ok := c.Get(models.Point{}, models.Point{})
	assert.False(t, ok)
}

func TestOSRMClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route/v1/bike/2.000000,1.000000;4.000000,3.000000", r.URL.Path)
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"duration":321.5}]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL)
	v, err := c.EstimateSeconds(context.Background(), models.Point{Lat: 1, Lng: 2}, models.Point{Lat: 3, Lng: 4})
	require.NoError(t, err)
	assert.Equal(t, 321.5, v)
}

func TestOSRMClient_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	_, err := NewOSRMClient(srv.URL).EstimateSeconds(context.Background(), models.Point{}, models.Point{})
	assert.Error(t, err)
}
