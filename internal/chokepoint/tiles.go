package chokepoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/trafficlens/internal/decode"
	"github.com/MeKo-Tech/trafficlens/internal/tile"
	"github.com/MeKo-Tech/trafficlens/internal/tomtom"
)

// fetchConcurrency bounds outbound tile requests per batch.
const fetchConcurrency = 8

// cachedFeature is the cache representation of one decoded feature.
// Geometry goes through the GeoJSON wrapper so it survives the byte
// cache; the tile coordinate lives in the cache key.
type cachedFeature struct {
	Layer      string             `json:"layer"`
	Properties geojson.Properties `json:"properties"`
	Geometry   *geojson.Geometry  `json:"geometry"`
	Extent     float64            `json:"extent"`
}

func encodeFeatures(features []decode.TileFeature) ([]byte, error) {
	cached := make([]cachedFeature, 0, len(features))
	for _, f := range features {
		cached = append(cached, cachedFeature{
			Layer:      f.Layer,
			Properties: f.Properties,
			Geometry:   geojson.NewGeometry(f.Geometry),
			Extent:     f.Extent,
		})
	}
	return json.Marshal(cached)
}

func decodeFeatures(data []byte, coords tile.Coords) ([]decode.TileFeature, error) {
	var cached []cachedFeature
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	features := make([]decode.TileFeature, 0, len(cached))
	for _, c := range cached {
		if c.Geometry == nil {
			continue
		}
		features = append(features, decode.TileFeature{
			Layer:      c.Layer,
			Properties: c.Properties,
			Geometry:   c.Geometry.Geometry(),
			Extent:     c.Extent,
			Coords:     coords,
		})
	}
	return features, nil
}

// fetchTiles retrieves and decodes the flow tiles for one style. The tile
// cache holds decoded features, so hits skip both the network round-trip
// and the protobuf decode. Per-tile failures are dropped from the batch; a
// missing credential aborts it.
func (s *Service) fetchTiles(ctx context.Context, style string, tiles []tile.Coords) ([]decode.TileFeature, error) {
	var (
		mu       sync.Mutex
		features []decode.TileFeature
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for _, c := range tiles {
		c := c
		g.Go(func() error {
			key := tileKey(style, c)
			if data, ok := s.tiles.Get(key); ok {
				feats, err := decodeFeatures(data, c)
				if err == nil {
					mu.Lock()
					features = append(features, feats...)
					mu.Unlock()
					return nil
				}
				// Corrupt entry; refetch below.
				s.logger.Warn("cached tile unreadable", "tile", c.String(), "style", style, "error", err)
			}

			data, err := s.client.FlowTile(ctx, style, c)
			if err != nil {
				if errors.Is(err, tomtom.ErrMissingAPIKey) {
					return err
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("tile fetch failed", "tile", c.String(), "style", style, "error", err)
				return nil
			}

			feats, err := decode.Tile(data, c)
			if err != nil {
				s.logger.Warn("tile decode failed", "tile", c.String(), "style", style, "error", err)
				return nil
			}

			if raw, err := encodeFeatures(feats); err == nil {
				s.tiles.SetWithTTL(key, raw, s.opts.TileCacheTTL)
			}
			mu.Lock()
			features = append(features, feats...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return features, nil
}

// fetchTilesMulti walks the style priority list and returns the features
// of the first style that yields any, along with the style name.
func (s *Service) fetchTilesMulti(ctx context.Context, tiles []tile.Coords) ([]decode.TileFeature, string, error) {
	for _, style := range s.opts.Styles {
		features, err := s.fetchTiles(ctx, style, tiles)
		if err != nil {
			return nil, "", err
		}
		if len(features) > 0 {
			return features, style, nil
		}
	}
	return nil, "", nil
}

func tileKey(style string, c tile.Coords) string {
	return fmt.Sprintf("tile:%s:%d:%d:%d", style, c.Z, c.X, c.Y)
}
