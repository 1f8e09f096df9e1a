package geo

import (
	"fmt"
	"math"

	"github.com/example/delivery-dispatch/internal/models"
)

const earthRadiusM = 6371000.0

// Haversine distance in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

func Distance(a, b models.Point) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ValidateCoordinate rejects NaN, infinities and values outside
// lat [-90,90], lng [-180,180].
func ValidateCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return fmt.Errorf("%w: not a number", models.ErrInvalidCoordinate)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", models.ErrInvalidCoordinate, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", models.ErrInvalidCoordinate, lng)
	}
	return nil
}

func ValidatePoint(p models.Point) error { return ValidateCoordinate(p.Lat, p.Lng) }

// PointInPolygon uses ray casting with longitude as x and latitude as y. Each
// edge is treated as half-open in y so a ray through a shared vertex is
// counted once. The polygon is implicitly closed.
func PointInPolygon(p models.Point, poly []models.Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, yj := poly[i].Lat, poly[j].Lat
		xi, xj := poly[i].Lng, poly[j].Lng
		if (yi > p.Lat) != (yj > p.Lat) {
			xCross := (xj-xi)*(p.Lat-yi)/(yj-yi) + xi
			if p.Lng < xCross {
				inside = !inside
			}
		}
	}
	return inside
}
