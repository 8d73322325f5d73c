// Package tile maps geographic extents to Web Mercator slippy tiles and
// projects tile-local geometry back to WGS84.
package tile

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// MinZoom is the floor applied to every coverage request; flow tiles below
// this zoom carry too little segment detail to sample.
const MinZoom = 12

// Coords represents a tile coordinate in the Web Mercator tile system (z/x/y)
type Coords struct {
	Z uint32 // Zoom level (0-22)
	X uint32 // X coordinate (column)
	Y uint32 // Y coordinate (row)
}

// String returns the tile coordinate as a string in format "z{zoom}_x{x}_y{y}"
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Tile returns the maptile.Tile for this coordinate
func (c Coords) Tile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Z))
}

// Bounds returns the geographic bounding box for this tile in WGS84 (EPSG:4326)
func (c Coords) Bounds() types.BoundingBox {
	bound := c.Tile().Bound()
	return types.BoundingBox{
		MinLon: bound.Min.Lon(),
		MinLat: bound.Min.Lat(),
		MaxLon: bound.Max.Lon(),
		MaxLat: bound.Max.Lat(),
	}
}

// NewCoords creates a new Coords from zoom, x, y values
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// CoverBBox returns the inclusive rectangle of tiles covering the bbox at
// zoom z.
func CoverBBox(bbox types.BoundingBox, z int) []Coords {
	zoom := maptile.Zoom(z)
	minTile := maptile.At(orb.Point{bbox.MinLon, bbox.MinLat}, zoom)
	maxTile := maptile.At(orb.Point{bbox.MaxLon, bbox.MaxLat}, zoom)

	// Y is inverted in the slippy scheme; normalize both axes.
	minX, maxX := minTile.X, maxTile.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := minTile.Y, maxTile.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	tiles := make([]Coords, 0, int(maxX-minX+1)*int(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			tiles = append(tiles, NewCoords(uint32(z), x, y))
		}
	}
	return tiles
}

// CoverBBoxCapped computes coverage at zoom z (floored to MinZoom) and, if
// the tile count exceeds maxTiles, drops the zoom by one and recomputes.
// Returns the tiles and the zoom actually used.
func CoverBBoxCapped(bbox types.BoundingBox, z, maxTiles int) ([]Coords, int) {
	if z < MinZoom {
		z = MinZoom
	}
	tiles := CoverBBox(bbox, z)
	if len(tiles) > maxTiles && z > 0 {
		z--
		tiles = CoverBBox(bbox, z)
	}
	return tiles, z
}

// LocalToLonLat projects a tile-local coordinate (0..extent on both axes)
// of tile c to WGS84 lon/lat.
func LocalToLonLat(c Coords, tx, ty, extent float64) (lon, lat float64) {
	n := math.Pow(2, float64(c.Z))
	u := (float64(c.X) + tx/extent) / n
	v := (float64(c.Y) + ty/extent) / n
	lon = u*360.0 - 180.0
	lat = 180.0 / math.Pi * math.Atan(math.Sinh(math.Pi*(1-2*v)))
	return lon, lat
}
