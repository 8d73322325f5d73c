package decode

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/trafficlens/internal/tile"
)

// encodeFlowTile builds a vector tile with one LineString feature carrying
// the given properties, in tile-local coordinates.
func encodeFlowTile(t *testing.T, line orb.LineString, props geojson.Properties) []byte {
	t.Helper()

	f := geojson.NewFeature(line)
	f.Properties = props

	layer := &mvt.Layer{
		Name:     "Traffic flow",
		Version:  2,
		Extent:   4096,
		Features: []*geojson.Feature{f},
	}
	data, err := mvt.Marshal(mvt.Layers{layer})
	require.NoError(t, err)
	return data
}

func TestDecodeTile(t *testing.T) {
	line := orb.LineString{{1024, 1024}, {2048, 2048}, {3072, 3072}}
	data := encodeFlowTile(t, line, geojson.Properties{"jam_factor": 8.0})
	coords := tile.NewCoords(13, 5861, 3693)

	features, err := Tile(data, coords)
	require.NoError(t, err)
	require.Len(t, features, 1)

	f := features[0]
	require.Equal(t, "Traffic flow", f.Layer)
	require.Equal(t, 4096.0, f.Extent)
	require.Equal(t, coords, f.Coords)

	jam, ok := f.Properties["jam_factor"]
	require.True(t, ok)
	require.InDelta(t, 8.0, jam, 1e-9)

	ls, ok := f.Geometry.(orb.LineString)
	require.True(t, ok)
	require.Len(t, ls, 3)
	require.Equal(t, orb.Point{2048, 2048}, ls[1])
}

func TestDecodeGzippedTile(t *testing.T) {
	line := orb.LineString{{0, 0}, {100, 100}}
	raw := encodeFlowTile(t, line, geojson.Properties{"jam_factor": 5.0})

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	features, err := Tile(buf.Bytes(), tile.NewCoords(13, 0, 0))
	require.NoError(t, err)
	require.Len(t, features, 1)
}

func TestDecodeMalformedTile(t *testing.T) {
	_, err := Tile([]byte("not a vector tile"), tile.NewCoords(13, 0, 0))
	require.Error(t, err)
}

func TestDecodeEmptyTile(t *testing.T) {
	data, err := mvt.Marshal(mvt.Layers{})
	require.NoError(t, err)

	features, decodeErr := Tile(data, tile.NewCoords(13, 0, 0))
	require.NoError(t, decodeErr)
	require.Empty(t, features)
}
