package severity

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/trafficlens/internal/tomtom"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

const (
	// maxProbePoints caps the lattice size for the grid-probe fallback.
	maxProbePoints     = 80
	defaultProbePoints = 64
	probeConcurrency   = 8
)

// GridProbe is the terminal fallback when no tile style yields samples: it
// lays a lattice over the bbox and queries the point flow-segment endpoint
// for each cell. Per-point failures are dropped silently.
func GridProbe(ctx context.Context, client *tomtom.Client, bbox types.BoundingBox, n int, logger *slog.Logger) ([]types.SamplePoint, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if n <= 0 {
		n = defaultProbePoints
	}
	if n > maxProbePoints {
		n = maxProbePoints
	}
	side := int(math.Ceil(math.Sqrt(float64(n))))

	cellW := bbox.Width() / float64(side)
	cellH := bbox.Height() / float64(side)

	points := make([]types.LatLon, 0, side*side)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			if len(points) >= n {
				break
			}
			points = append(points, types.LatLon{
				Lat: bbox.MinLat + (float64(i)+0.5)*cellH,
				Lon: bbox.MinLon + (float64(j)+0.5)*cellW,
			})
		}
	}

	var (
		mu      sync.Mutex
		samples []types.SamplePoint
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)
	for _, p := range points {
		p := p
		g.Go(func() error {
			seg, err := client.FlowSegmentData(ctx, p)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Debug("grid probe point failed", "lat", p.Lat, "lon", p.Lon, "error", err)
				return nil
			}
			if seg.FreeFlowSpeed <= 0 {
				return nil
			}
			sev := 1.0 - clamp01(seg.CurrentSpeed/seg.FreeFlowSpeed)
			if sev <= 0 {
				return nil
			}
			weight := sev * seg.Confidence
			if weight < minWeight {
				weight = minWeight
			}
			mu.Lock()
			samples = append(samples, types.SamplePoint{
				Lat:      p.Lat,
				Lon:      p.Lon,
				Severity: sev,
				Weight:   weight,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("grid probe complete", "points", len(points), "samples", len(samples))
	return samples, nil
}
