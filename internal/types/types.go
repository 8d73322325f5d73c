// Package types holds the value types shared across the chokepoint pipeline.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// LatLon is a geographic point in WGS84 degrees. Upstream coordinate arrays
// arrive as [lon, lat]; they are translated into this type at ingress and
// never passed through the pipeline as raw pairs.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox represents a geographic bounding box in WGS84 (EPSG:4326)
type BoundingBox struct {
	MinLon float64 // Western edge (degrees)
	MinLat float64 // Southern edge (degrees)
	MaxLon float64 // Eastern edge (degrees)
	MaxLat float64 // Northern edge (degrees)
}

// ParseBBox parses a "minLon,minLat,maxLon,maxLat" string.
func ParseBBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("invalid bbox %q: want minLon,minLat,maxLon,maxLat", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("invalid bbox component %q: %w", p, err)
		}
		vals[i] = v
	}
	b := BoundingBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if b.MinLon > b.MaxLon || b.MinLat > b.MaxLat {
		return BoundingBox{}, fmt.Errorf("invalid bbox %q: min exceeds max", s)
	}
	return b, nil
}

// String formats the bbox as "minLon,minLat,maxLon,maxLat" for upstream queries.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Center returns the center point of the bounding box
func (b BoundingBox) Center() LatLon {
	return LatLon{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// Width returns the width of the bounding box in degrees
func (b BoundingBox) Width() float64 {
	return b.MaxLon - b.MinLon
}

// Height returns the height of the bounding box in degrees
func (b BoundingBox) Height() float64 {
	return b.MaxLat - b.MinLat
}

// Clamp restricts the bbox to the given maximum extent. A bbox entirely
// outside the extent collapses to the extent's nearest edge.
func (b BoundingBox) Clamp(max BoundingBox) BoundingBox {
	clamp := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return BoundingBox{
		MinLon: clamp(b.MinLon, max.MinLon, max.MaxLon),
		MinLat: clamp(b.MinLat, max.MinLat, max.MaxLat),
		MaxLon: clamp(b.MaxLon, max.MinLon, max.MaxLon),
		MaxLat: clamp(b.MaxLat, max.MinLat, max.MaxLat),
	}
}

// SamplePoint is one severity observation on a road segment.
// Severity is normalized to [0,1]; weight starts equal to severity and is
// multiplied by incident proximity boosts.
type SamplePoint struct {
	Lat      float64
	Lon      float64
	Severity float64
	Weight   float64
}

// Incident is a normalized upstream traffic incident. Only the first point
// of the incident geometry is retained; that is all the pipeline uses.
type Incident struct {
	ID           string
	Type         string
	IconCategory string
	Magnitude    int
	RoadClosed   bool
	Point        LatLon
	StartTime    string
	EndTime      string
}

// Cluster is one ranked chokepoint in the result leaderboard.
type Cluster struct {
	ID            string  `json:"id"`
	Center        LatLon  `json:"center"`
	Score         float64 `json:"score"`
	SeverityMean  float64 `json:"severity_mean"`
	SeverityPeak  float64 `json:"severity_peak"`
	IncidentCount int     `json:"incident_count"`
	Closure       bool    `json:"closure"`
	Support       float64 `json:"support"`
	Count         int     `json:"count"`
	RoadName      *string `json:"road_name"`
}

// Result is the leaderboard returned to callers, ordered by score descending.
type Result struct {
	Clusters    []Cluster `json:"clusters"`
	StyleUsed   string    `json:"style_used,omitempty"`
	SampleCount int       `json:"sample_count,omitempty"`
}
