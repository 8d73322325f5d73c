// Package geo provides great-circle helpers used by clustering and the
// incident pipeline.
package geo

import (
	"math"

	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// EarthRadiusM is the mean earth radius used for all haversine math.
const EarthRadiusM = 6371000.0

// HaversineM returns the great-circle distance in meters between two
// lat/lon points.
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180.0
	rlat2 := lat2 * math.Pi / 180.0
	dlat := rlat2 - rlat1
	dlon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// BBoxAreaKm2 approximates the bbox area in square kilometers using one
// haversine edge per axis.
func BBoxAreaKm2(b types.BoundingBox) float64 {
	widthM := HaversineM(b.MinLat, b.MinLon, b.MinLat, b.MaxLon)
	heightM := HaversineM(b.MinLat, b.MinLon, b.MaxLat, b.MinLon)
	return widthM * heightM / 1e6
}

// SplitBBox halves the bbox along its longer metric axis at the midpoint.
// Both halves share the split boundary.
func SplitBBox(b types.BoundingBox) (types.BoundingBox, types.BoundingBox) {
	widthM := HaversineM(b.MinLat, b.MinLon, b.MinLat, b.MaxLon)
	heightM := HaversineM(b.MinLat, b.MinLon, b.MaxLat, b.MinLon)

	if widthM >= heightM {
		mid := (b.MinLon + b.MaxLon) / 2
		left := types.BoundingBox{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: mid, MaxLat: b.MaxLat}
		right := types.BoundingBox{MinLon: mid, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: b.MaxLat}
		return left, right
	}
	mid := (b.MinLat + b.MaxLat) / 2
	lower := types.BoundingBox{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: mid}
	upper := types.BoundingBox{MinLon: b.MinLon, MinLat: mid, MaxLon: b.MaxLon, MaxLat: b.MaxLat}
	return lower, upper
}
