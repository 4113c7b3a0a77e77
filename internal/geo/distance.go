// Package geo provides great-circle distance and map export helpers.
package geo

import (
	"fmt"
	"math"

	"github.com/sells-group/iwash/internal/model"
)

// EarthRadiusM is the mean Earth radius used by the haversine formula.
const EarthRadiusM = 6371000.0

// DistanceMeters returns the haversine great-circle distance between a and b
// in meters. Non-numeric input yields NaN; callers must guard.
func DistanceMeters(a, b model.Coordinate) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	la1 := toRad(a.Latitude)
	la2 := toRad(b.Latitude)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(la1)*math.Cos(la2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * EarthRadiusM * math.Asin(math.Sqrt(math.Min(1, h)))
}

// RoundedDistance returns DistanceMeters rounded to the nearest meter.
// NaN or negative results collapse to 0.
func RoundedDistance(a, b model.Coordinate) int {
	d := DistanceMeters(a, b)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return int(math.Round(d))
}

// FormatDistance renders meters the way the place list shows them:
// "850 m" below one kilometer, "1.2 km" above.
func FormatDistance(m int) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1f km", float64(m)/1000)
	}
	return fmt.Sprintf("%d m", m)
}
