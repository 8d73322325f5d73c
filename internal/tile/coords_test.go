package tile

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/trafficlens/internal/types"
)

func TestCoordsString(t *testing.T) {
	tests := []struct {
		coords   Coords
		expected string
	}{
		{Coords{Z: 13, X: 5861, Y: 3693}, "z13_x5861_y3693"},
		{Coords{Z: 0, X: 0, Y: 0}, "z0_x0_y0"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.coords.String(); got != tt.expected {
				t.Errorf("String() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestCoverBBoxInclusive(t *testing.T) {
	// The Bangalore deployment extent at z13.
	bbox := types.BoundingBox{MinLon: 77.6234, MinLat: 12.9037, MaxLon: 77.6625, MaxLat: 12.9247}
	tiles := CoverBBox(bbox, 13)

	if len(tiles) == 0 {
		t.Fatal("expected at least one tile")
	}

	// Every corner of the bbox must fall inside some returned tile.
	corners := []types.LatLon{
		{Lat: bbox.MinLat, Lon: bbox.MinLon},
		{Lat: bbox.MinLat, Lon: bbox.MaxLon},
		{Lat: bbox.MaxLat, Lon: bbox.MinLon},
		{Lat: bbox.MaxLat, Lon: bbox.MaxLon},
	}
	for _, corner := range corners {
		found := false
		for _, c := range tiles {
			b := c.Bounds()
			if corner.Lon >= b.MinLon && corner.Lon <= b.MaxLon &&
				corner.Lat >= b.MinLat && corner.Lat <= b.MaxLat {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("corner %+v not covered by any tile", corner)
		}
	}
}

func TestCoverBBoxCappedReducesZoomByOne(t *testing.T) {
	// A bbox wide enough to exceed the cap at z14.
	bbox := types.BoundingBox{MinLon: 77.5, MinLat: 12.8, MaxLon: 77.8, MaxLat: 13.1}
	full := CoverBBox(bbox, 14)
	if len(full) <= 16 {
		t.Skipf("bbox too small to exercise cap: %d tiles", len(full))
	}

	_, z := CoverBBoxCapped(bbox, 14, 16)
	if z != 13 {
		t.Errorf("expected zoom reduced to 13, got %d", z)
	}
}

func TestCoverBBoxCappedEnforcesZoomFloor(t *testing.T) {
	bbox := types.BoundingBox{MinLon: 77.6234, MinLat: 12.9037, MaxLon: 77.6625, MaxLat: 12.9247}
	tiles, z := CoverBBoxCapped(bbox, 5, 16)
	if z != MinZoom {
		t.Errorf("expected zoom floored to %d, got %d", MinZoom, z)
	}
	if len(tiles) == 0 {
		t.Error("expected coverage at floored zoom")
	}
}

func TestLocalToLonLatTileCorner(t *testing.T) {
	// Tile-local (0,0) is the tile's upper-left geographic corner.
	c := NewCoords(13, 5861, 3693)
	lon, lat := LocalToLonLat(c, 0, 0, 4096)

	b := c.Bounds()
	if math.Abs(lon-b.MinLon) > 1e-9 {
		t.Errorf("corner lon = %.12f, want %.12f", lon, b.MinLon)
	}
	if math.Abs(lat-b.MaxLat) > 1e-9 {
		t.Errorf("corner lat = %.12f, want %.12f", lat, b.MaxLat)
	}
}

func TestLocalToLonLatCenterInsideTile(t *testing.T) {
	c := NewCoords(13, 5861, 3693)
	lon, lat := LocalToLonLat(c, 2048, 2048, 4096)

	b := c.Bounds()
	if lon <= b.MinLon || lon >= b.MaxLon {
		t.Errorf("center lon %.6f outside tile [%f, %f]", lon, b.MinLon, b.MaxLon)
	}
	if lat <= b.MinLat || lat >= b.MaxLat {
		t.Errorf("center lat %.6f outside tile [%f, %f]", lat, b.MinLat, b.MaxLat)
	}
}
