// Package geo holds great-circle distance helpers.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Point is a WGS-84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat" mapstructure:"lat"`
	Lon float64 `json:"long" mapstructure:"lon"`
}

// DistanceTo returns the haversine distance from p to q in kilometers.
func (p Point) DistanceTo(q Point) float64 {
	return DistanceKm(p.Lat, p.Lon, q.Lat, q.Lon)
}

// DistanceKm returns the haversine distance in kilometers between two coordinates.
// Inputs must be finite degrees.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push a a hair above 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Round rounds a distance to the given number of decimals.
func Round(km float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(km*p) / p
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
