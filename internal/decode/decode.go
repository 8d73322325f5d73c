// Package decode turns binary vector-tile payloads into a flat feature
// list tagged with the originating tile, so downstream stages can project
// tile-local geometry back to WGS84.
package decode

import (
	"bytes"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"

	"github.com/MeKo-Tech/trafficlens/internal/tile"
)

// TileFeature is one decoded vector-tile feature. Geometry stays in
// tile-local coordinates (0..Extent); the decoder does not interpret it
// beyond structural shape.
type TileFeature struct {
	Layer      string
	Properties map[string]interface{}
	Geometry   orb.Geometry
	Extent     float64
	Coords     tile.Coords
}

var gzipMagic = []byte{0x1f, 0x8b}

// Tile decodes one raw vector tile into features. Gzip-wrapped payloads
// are handled transparently.
func Tile(data []byte, coords tile.Coords) ([]TileFeature, error) {
	var (
		layers mvt.Layers
		err    error
	)
	if bytes.HasPrefix(data, gzipMagic) {
		layers, err = mvt.UnmarshalGzipped(data)
	} else {
		layers, err = mvt.Unmarshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode tile %s: %w", coords.String(), err)
	}

	var features []TileFeature
	for _, layer := range layers {
		extent := float64(layer.Extent)
		if extent <= 0 {
			extent = 4096
		}
		for _, f := range layer.Features {
			if f == nil || f.Geometry == nil {
				continue
			}
			features = append(features, TileFeature{
				Layer:      layer.Name,
				Properties: f.Properties,
				Geometry:   f.Geometry,
				Extent:     extent,
				Coords:     coords,
			})
		}
	}
	return features, nil
}
