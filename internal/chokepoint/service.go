// Package chokepoint runs the live chokepoint detection pipeline: tile
// coverage, concurrent flow-tile fetch with style fallback, severity
// extraction with its relaxation ladder, incident fusion, density
// clustering, and cluster scoring.
package chokepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/trafficlens/internal/cache"
	"github.com/MeKo-Tech/trafficlens/internal/cluster"
	"github.com/MeKo-Tech/trafficlens/internal/decode"
	"github.com/MeKo-Tech/trafficlens/internal/severity"
	"github.com/MeKo-Tech/trafficlens/internal/tile"
	"github.com/MeKo-Tech/trafficlens/internal/tomtom"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// DefaultBBox is the deploy-time extent used when a request carries no
// bbox, and the clamping extent for requests that do.
var DefaultBBox = types.BoundingBox{MinLon: 77.6234, MinLat: 12.9037, MaxLon: 77.6625, MaxLat: 12.9247}

// Params are the per-request pipeline parameters.
type Params struct {
	// BBox is optional; nil uses the configured default extent. A
	// supplied bbox is clamped to the configured maximum extent.
	BBox            *types.BoundingBox
	Zoom            int
	EpsM            float64
	MinSamples      int
	JFMin           float64
	IncidentRadiusM float64
	IncludeGeocode  bool
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		Zoom:            13,
		EpsM:            150,
		MinSamples:      4,
		JFMin:           4.0,
		IncidentRadiusM: 100,
	}
}

// Options configure the pipeline. Zero values take the documented
// defaults.
type Options struct {
	MaxBBox          types.BoundingBox
	Styles           []string
	MaxLiveTiles     int
	MaxProbeTiles    int
	ProbePoints      int
	TileCacheTTL     time.Duration
	ResultCacheTTL   time.Duration
	GeocodeCacheTTL  time.Duration
	IncidentSplitKm2 float64
	BoostFactor      float64
}

func (o Options) withDefaults() Options {
	if o.MaxBBox == (types.BoundingBox{}) {
		o.MaxBBox = DefaultBBox
	}
	if len(o.Styles) == 0 {
		o.Styles = tomtom.FlowStyles
	}
	if o.MaxLiveTiles <= 0 {
		o.MaxLiveTiles = 16
	}
	if o.MaxProbeTiles <= 0 {
		o.MaxProbeTiles = 32
	}
	if o.ProbePoints <= 0 {
		o.ProbePoints = 64
	}
	if o.TileCacheTTL <= 0 {
		o.TileCacheTTL = time.Minute
	}
	if o.ResultCacheTTL <= 0 {
		o.ResultCacheTTL = time.Minute
	}
	if o.GeocodeCacheTTL <= 0 {
		o.GeocodeCacheTTL = 5 * time.Minute
	}
	if o.IncidentSplitKm2 <= 0 {
		o.IncidentSplitKm2 = 8000
	}
	if o.BoostFactor <= 0 {
		o.BoostFactor = 1.5
	}
	return o
}

// Service is the live chokepoint pipeline. It owns the tile and result
// caches; all other state is request-scoped.
type Service struct {
	client  *tomtom.Client
	tiles   cache.Cache
	results cache.Cache
	geocode cache.Cache
	opts    Options
	logger  *slog.Logger
}

// NewService creates the pipeline. tileCache and resultCache may share a
// backend; the reverse-geocode sub-cache is always in-memory.
func NewService(client *tomtom.Client, tileCache, resultCache cache.Cache, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:  client,
		tiles:   tileCache,
		results: resultCache,
		geocode: cache.NewMemory(),
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// Close releases the service-owned caches.
func (s *Service) Close() error {
	return s.geocode.Close()
}

// Live computes the current chokepoint leaderboard for the request
// parameters. Partial upstream failure degrades the result; only a missing
// credential is fatal.
func (s *Service) Live(ctx context.Context, p Params) (*types.Result, error) {
	p = normalizeParams(p)
	bbox := s.effectiveBBox(p.BBox)

	key := resultKey(bbox, p)
	if raw, ok := s.results.Get(key); ok {
		var cached types.Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			s.logger.Debug("result cache hit", "key", key)
			return &cached, nil
		}
	}

	log := s.logger.With("bbox", bbox.String(), "z", p.Zoom)

	// Stage 1: tile coverage, zoom floored and tile count capped.
	tiles, z := tile.CoverBBoxCapped(bbox, p.Zoom, s.opts.MaxLiveTiles)
	log.Info("tile coverage computed", "tiles", len(tiles), "effective_z", z)

	// Stage 2+3: fetch and decode across the style priority list.
	features, style, err := s.fetchTilesMulti(ctx, tiles)
	if err != nil {
		return nil, err
	}

	// Stage 4: severity samples, with the relaxation ladder.
	samples := s.extractWithFallbacks(ctx, features, bbox, z, p, &style)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Info("samples extracted", "count", len(samples), "style", style)

	// Stage 5+6: incidents and proximity boost.
	incidents, err := s.FetchIncidents(ctx, bbox)
	if err != nil {
		return nil, err
	}
	if len(incidents) > 0 {
		boostSamples(samples, incidents, p.IncidentRadiusM, s.opts.BoostFactor)
	}

	// Stage 7: weighted density clustering.
	clusters := cluster.Samples(samples, p.EpsM, float64(p.MinSamples))
	log.Info("clustering complete", "samples", len(samples), "clusters", len(clusters), "incidents", len(incidents))

	// Stage 8: aggregate and rank.
	result := s.aggregate(ctx, clusters, incidents, p)
	result.StyleUsed = style
	result.SampleCount = len(samples)

	// Stage 9: memoize. Nothing is cached for cancelled requests.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if raw, err := json.Marshal(result); err == nil {
		s.results.SetWithTTL(key, raw, s.opts.ResultCacheTTL)
	}
	return result, nil
}

// extractWithFallbacks runs the extraction ladder: requested threshold,
// relaxed thresholds, escalated zoom, and finally the grid probe.
func (s *Service) extractWithFallbacks(ctx context.Context, features []decode.TileFeature, bbox types.BoundingBox, z int, p Params, style *string) []types.SamplePoint {
	samples := severity.ExtractSamples(features, p.JFMin)

	for _, th := range []float64{2.0, 0.5} {
		if len(samples) > 0 {
			break
		}
		// Only rungs below the requested threshold actually relax it.
		if th >= p.JFMin {
			continue
		}
		s.logger.Info("relaxing jam threshold", "jf_min", th)
		samples = severity.ExtractSamples(features, th)
	}

	if len(samples) == 0 && z < 14 {
		for _, ez := range []int{13, 14} {
			if ez <= z {
				continue
			}
			tiles, effZ := tile.CoverBBoxCapped(bbox, ez, s.opts.MaxProbeTiles)
			s.logger.Info("escalating zoom", "z", effZ, "tiles", len(tiles))
			escFeatures, escStyle, err := s.fetchTilesMulti(ctx, tiles)
			if err != nil {
				break
			}
			samples = severity.ExtractSamples(escFeatures, 0.5)
			if len(samples) > 0 {
				*style = escStyle
				break
			}
		}
	}

	if len(samples) == 0 {
		probed, err := severity.GridProbe(ctx, s.client, bbox, s.opts.ProbePoints, s.logger)
		if err == nil && len(probed) > 0 {
			samples = probed
			*style = "probe"
		}
	}
	return samples
}

func normalizeParams(p Params) Params {
	def := DefaultParams()
	if p.Zoom <= 0 {
		p.Zoom = def.Zoom
	}
	if p.EpsM <= 0 {
		p.EpsM = def.EpsM
	}
	if p.MinSamples <= 0 {
		p.MinSamples = def.MinSamples
	}
	if p.JFMin <= 0 {
		p.JFMin = def.JFMin
	}
	if p.IncidentRadiusM <= 0 {
		p.IncidentRadiusM = def.IncidentRadiusM
	}
	return p
}

func (s *Service) effectiveBBox(b *types.BoundingBox) types.BoundingBox {
	if b == nil {
		return s.opts.MaxBBox
	}
	return b.Clamp(s.opts.MaxBBox)
}

// resultKey canonicalizes all request parameters into the cache key.
func resultKey(b types.BoundingBox, p Params) string {
	return fmt.Sprintf(
		"live_chokepoints:%.5f,%.5f,%.5f,%.5f:z=%d:eps=%g:minS=%d:jfmin=%g:ir=%g:geo=%t",
		b.MinLon, b.MinLat, b.MaxLon, b.MaxLat,
		p.Zoom, p.EpsM, p.MinSamples, p.JFMin, p.IncidentRadiusM, p.IncludeGeocode,
	)
}
