package severity

import (
	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/trafficlens/internal/decode"
	"github.com/MeKo-Tech/trafficlens/internal/tile"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// minWeight keeps sample weights strictly positive so a zero-severity
// sample cannot zero out the weighted core-point test.
const minWeight = 1e-6

// ExtractSamples walks decoded features, resolves a severity per feature,
// drops those below the jam threshold (jfMin on the 0..10 scale), and
// projects a representative point to WGS84.
func ExtractSamples(features []decode.TileFeature, jfMin float64) []types.SamplePoint {
	samples := make([]types.SamplePoint, 0, len(features))
	for _, f := range features {
		src := Resolve(f.Properties)
		sev, ok := src.Severity()
		if !ok {
			continue
		}
		if sev*10 < jfMin {
			continue
		}

		tx, ty, ok := representativePoint(f.Geometry)
		if !ok {
			continue
		}
		lon, lat := tile.LocalToLonLat(f.Coords, tx, ty, f.Extent)

		weight := sev
		if weight < minWeight {
			weight = minWeight
		}
		samples = append(samples, types.SamplePoint{
			Lat:      lat,
			Lon:      lon,
			Severity: sev,
			Weight:   weight,
		})
	}
	return samples
}

// representativePoint picks the middle vertex of the first line of the
// geometry; for points, the point itself.
func representativePoint(geom orb.Geometry) (tx, ty float64, ok bool) {
	switch g := geom.(type) {
	case orb.Point:
		return g[0], g[1], true
	case orb.LineString:
		return midVertex(g)
	case orb.MultiLineString:
		if len(g) == 0 {
			return 0, 0, false
		}
		return midVertex(g[0])
	default:
		return 0, 0, false
	}
}

func midVertex(line orb.LineString) (float64, float64, bool) {
	if len(line) == 0 {
		return 0, 0, false
	}
	mid := line[len(line)/2]
	return mid[0], mid[1], true
}
