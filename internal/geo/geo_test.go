package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/delivery-dispatch/internal/models"
)

func TestHaversineZero(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(0, 0, 0, 0))
}

func TestHaversineOneDegreeAtEquator(t *testing.T) {
	d := Distance(models.Point{Lat: 0, Lng: 0}, models.Point{Lat: 0, Lng: 1})
	assert.InDelta(t, 111195, d, 5)
}

func TestValidateCoordinate(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
		ok       bool
	}{
		{"origin", 0, 0, true},
		{"corners", -90, 180, true},
		{"lat too high", 90.01, 0, false},
		{"lng too low", 0, -180.5, false},
		{"nan", math.NaN(), 0, false},
		{"inf", 0, math.Inf(1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinate(tc.lat, tc.lng)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, models.ErrInvalidCoordinate))
		})
	}
}

func unitSquare() []models.Point {
	return []models.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 0}}
}

func TestPointInPolygonUnitSquare(t *testing.T) {
	sq := unitSquare()
	assert.True(t, PointInPolygon(models.Point{Lat: 0.5, Lng: 0.5}, sq))
	assert.False(t, PointInPolygon(models.Point{Lat: 2, Lng: 2}, sq))
	assert.False(t, PointInPolygon(models.Point{Lat: -0.5, Lng: 0.5}, sq))
}

func TestPointInPolygonRayThroughVertex(t *testing.T) {
	// diamond: the ray from the centre passes exactly through the right vertex
	diamond := []models.Point{{Lat: 0, Lng: 1}, {Lat: 1, Lng: 2}, {Lat: 2, Lng: 1}, {Lat: 1, Lng: 0}}
	assert.True(t, PointInPolygon(models.Point{Lat: 1, Lng: 1}, diamond))
	assert.False(t, PointInPolygon(models.Point{Lat: 1, Lng: 2.5}, diamond))
}

func TestPointInPolygonConcave(t *testing.T) {
	// U shape opening north
	u := []models.Point{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 3}, {Lat: 3, Lng: 3}, {Lat: 3, Lng: 2},
		{Lat: 1, Lng: 2}, {Lat: 1, Lng: 1}, {Lat: 3, Lng: 1}, {Lat: 3, Lng: 0},
	}
	assert.True(t, PointInPolygon(models.Point{Lat: 2, Lng: 0.5}, u))
	assert.False(t, PointInPolygon(models.Point{Lat: 2, Lng: 1.5}, u))
	assert.True(t, PointInPolygon(models.Point{Lat: 0.5, Lng: 1.5}, u))
}

func TestPointInPolygonDegenerate(t *testing.T) {
	assert.False(t, PointInPolygon(models.Point{}, unitSquare()[:2]))
}
