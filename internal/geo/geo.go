// Package geo computes great-circle distances between points given in
// decimal degrees.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the fixed sphere radius used by Distance.
const EarthRadiusKm = 6373.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether p lies in the geographic range.
// Distance itself accepts any values.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Lon)
	}
	return nil
}

// Distance returns the haversine distance between a and b in kilometers.
func Distance(a, b Point) float64 {
	lat1 := degreesToRadians(a.Lat)
	lat2 := degreesToRadians(b.Lat)
	deltaLat := degreesToRadians(b.Lat - a.Lat)
	deltaLon := degreesToRadians(b.Lon - a.Lon)

	h := math.Pow(math.Sin(deltaLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(deltaLon/2), 2)
	// Rounding can push h marginally past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Distances returns Distance(origin, t) for every target, in order.
func Distances(origin Point, targets []Point) []float64 {
	out := make([]float64, len(targets))
	for i, t := range targets {
		out[i] = Distance(origin, t)
	}
	return out
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}
