package heuristics

import (
	"math"

	"compatibility-workers/internal/models"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundingBox returns the lat/lng box enclosing a radius around center. It is
// a coarse prefilter for stores; exact checks use DistanceKm.
func BoundingBox(center models.Coordinates, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	dLng := 180.0
	if cosLat > 1e-6 {
		dLng = math.Min(180, dLat/cosLat)
	}
	return center.Lat - dLat, center.Lat + dLat, center.Lng - dLng, center.Lng + dLng
}
