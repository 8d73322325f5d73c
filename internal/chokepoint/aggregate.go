package chokepoint

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/MeKo-Tech/trafficlens/internal/geo"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// aggregate reduces raw clusters to scored leaderboard entries, sorted by
// score descending with synthetic ids assigned after the sort.
func (s *Service) aggregate(ctx context.Context, clusters [][]types.SamplePoint, incidents []types.Incident, p Params) *types.Result {
	proximityM := math.Max(p.IncidentRadiusM, 150)

	entries := make([]types.Cluster, 0, len(clusters))
	for _, cl := range clusters {
		if len(cl) == 0 {
			continue
		}
		var totalW float64
		for _, pt := range cl {
			totalW += pt.Weight
		}
		if totalW <= 0 {
			continue
		}

		var lat, lon, sevMean float64
		severities := make([]float64, 0, len(cl))
		for _, pt := range cl {
			lat += pt.Lat * pt.Weight
			lon += pt.Lon * pt.Weight
			sevMean += pt.Severity * pt.Weight
			severities = append(severities, pt.Severity)
		}
		lat /= totalW
		lon /= totalW
		sevMean /= totalW

		sort.Float64s(severities)
		p90 := severities[int(0.9*float64(len(severities)-1))]

		center := types.LatLon{Lat: lat, Lon: lon}
		incidentCount, closure := incidentProximity(center, incidents, proximityM)

		bonus := 0.0
		if closure || incidentCount > 0 {
			bonus = 0.1
		}
		score := 100.0 * (0.6*sevMean + 0.3*p90 + 0.1*bonus)

		entry := types.Cluster{
			Center:        center,
			Score:         round(score, 1),
			SeverityMean:  round(sevMean, 3),
			SeverityPeak:  round(p90, 3),
			IncidentCount: incidentCount,
			Closure:       closure,
			Support:       round(totalW, 2),
			Count:         len(cl),
		}
		if p.IncludeGeocode {
			entry.RoadName = s.roadName(ctx, center)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].ID = fmt.Sprintf("cp_%d", i)
	}

	return &types.Result{Clusters: entries}
}

// incidentProximity counts incidents within radiusM of the centroid and
// reports whether any of them closed the road.
func incidentProximity(center types.LatLon, incidents []types.Incident, radiusM float64) (int, bool) {
	count := 0
	closure := false
	for _, inc := range incidents {
		if geo.HaversineM(center.Lat, center.Lon, inc.Point.Lat, inc.Point.Lon) <= radiusM {
			count++
			if inc.RoadClosed {
				closure = true
			}
		}
	}
	return count, closure
}

// roadName reverse-geocodes the centroid. Lookups are cached by rounded
// coordinates; failures yield a nil name, never a failed cluster.
func (s *Service) roadName(ctx context.Context, center types.LatLon) *string {
	key := fmt.Sprintf("revgeo:%.5f,%.5f", center.Lat, center.Lon)
	if raw, ok := s.geocode.Get(key); ok {
		if len(raw) == 0 {
			return nil
		}
		name := string(raw)
		return &name
	}

	name, err := s.client.ReverseGeocode(ctx, center)
	if err != nil {
		s.logger.Warn("reverse geocode failed", "lat", center.Lat, "lon", center.Lon, "error", err)
		return nil
	}
	s.geocode.SetWithTTL(key, []byte(name), s.opts.GeocodeCacheTTL)
	if name == "" {
		return nil
	}
	return &name
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
