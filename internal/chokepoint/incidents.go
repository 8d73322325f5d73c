package chokepoint

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/trafficlens/internal/geo"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// FetchIncidents retrieves current incidents for the bbox. Extents larger
// than the split threshold are halved along the longer axis until every
// leaf is under it; leaves are fetched concurrently and merged with
// per-id deduplication.
func (s *Service) FetchIncidents(ctx context.Context, bbox types.BoundingBox) ([]types.Incident, error) {
	leaves := splitToLeaves(bbox, s.opts.IncidentSplitKm2, 0)
	if len(leaves) == 1 {
		return s.client.Incidents(ctx, leaves[0])
	}

	s.logger.Info("splitting incident bbox", "area_km2", geo.BBoxAreaKm2(bbox), "sub_bboxes", len(leaves))

	var (
		mu  sync.Mutex
		all []types.Incident
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, leaf := range leaves {
		leaf := leaf
		g.Go(func() error {
			incidents, err := s.client.Incidents(ctx, leaf)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, incidents...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dedupeIncidents(all), nil
}

// splitToLeaves recursively halves the bbox along its longer metric axis
// until each leaf's area is at or under maxKm2.
func splitToLeaves(b types.BoundingBox, maxKm2 float64, depth int) []types.BoundingBox {
	// Depth guard against degenerate extents.
	if depth >= 8 || geo.BBoxAreaKm2(b) <= maxKm2 {
		return []types.BoundingBox{b}
	}
	a, c := geo.SplitBBox(b)
	leaves := splitToLeaves(a, maxKm2, depth+1)
	return append(leaves, splitToLeaves(c, maxKm2, depth+1)...)
}

// dedupeIncidents drops duplicate ids produced by overlapping sub-bbox
// responses. Incidents without an id always pass through.
func dedupeIncidents(incidents []types.Incident) []types.Incident {
	seen := make(map[string]bool, len(incidents))
	out := incidents[:0]
	for _, inc := range incidents {
		if inc.ID != "" {
			if seen[inc.ID] {
				continue
			}
			seen[inc.ID] = true
		}
		out = append(out, inc)
	}
	return out
}

// boostSamples multiplies a sample's weight by factor once per incident
// within radiusM of it; several nearby incidents compound.
func boostSamples(samples []types.SamplePoint, incidents []types.Incident, radiusM, factor float64) {
	for i := range samples {
		for _, inc := range incidents {
			d := geo.HaversineM(samples[i].Lat, samples[i].Lon, inc.Point.Lat, inc.Point.Lon)
			if d <= radiusM {
				samples[i].Weight *= factor
			}
		}
	}
}
