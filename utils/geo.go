package utils

import (
	"fmt"
	"math"

	"home-service-server/config"
)

// Location represents a geographical coordinate
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HaversineDistance calculates the distance between two points on Earth using the Haversine formula
// Returns distance in kilometers
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371 // Earth's radius in kilometers

	// Convert degrees to radians
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	// Differences in coordinates
	deltaLat := lat2Rad - lat1Rad
	deltaLon := lon2Rad - lon1Rad

	// Haversine formula
	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// DistanceSurcharge maps a travel distance to the added charge, using the
// configured step table. Not applied for self-drop bookings, where the
// customer brings the item to the partner.
func DistanceSurcharge(distanceKm float64) float64 {
	cfg := config.Booking()
	switch {
	case distanceKm <= cfg.NearRadiusKm:
		return 0
	case distanceKm <= cfg.MidRadiusKm:
		return cfg.MidSurcharge
	default:
		return cfg.FarSurcharge
	}
}

// FormatDistance renders a distance for display: meters under 1 km, one
// decimal of kilometers above.
func FormatDistance(distanceKm float64) string {
	if distanceKm < 1 {
		return fmt.Sprintf("%d m", int(math.Round(distanceKm*1000)))
	}
	return fmt.Sprintf("%.1f km", distanceKm)
}

// IsLocationValid checks if the provided coordinates are valid
func IsLocationValid(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
