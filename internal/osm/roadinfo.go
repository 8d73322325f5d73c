// Package osm looks up road metadata around a point via the Overpass API.
// It enriches chokepoint display; the live pipeline does not depend on it.
package osm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/MeKo-Christian/go-overpass"

	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// Service queries the Overpass API for nearby roads.
type Service struct {
	client overpass.Client
	logger *slog.Logger
}

// NewService creates an Overpass-backed road info service.
func NewService(endpoint string, logger *slog.Logger) *Service {
	if endpoint == "" {
		endpoint = "https://overpass-api.de/api/interpreter"
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Rate limited to 1 concurrent request (API etiquette).
	client := overpass.NewWithSettings(endpoint, 1, http.DefaultClient)

	return &Service{client: client, logger: logger}
}

// Road is one highway way near the queried point.
type Road struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	Highway  string `json:"highway"`
	MaxSpeed string `json:"maxspeed,omitempty"`
	Lanes    string `json:"lanes,omitempty"`
	Surface  string `json:"surface,omitempty"`
	Oneway   bool   `json:"oneway"`
}

// RoadInfo is the lookup result.
type RoadInfo struct {
	RoadFound bool   `json:"road_found"`
	Roads     []Road `json:"roads,omitempty"`
	Message   string `json:"message,omitempty"`
}

// RoadInfo returns the drivable roads within radiusM of a point.
// Footways, cycleways, paths, steps and pedestrian ways are excluded.
func (s *Service) RoadInfo(ctx context.Context, point types.LatLon, radiusM int) (*RoadInfo, error) {
	if radiusM <= 0 {
		radiusM = 100
	}
	query := fmt.Sprintf(`
[out:json][timeout:25];
(
  way["highway"]["highway"!="footway"]["highway"!="cycleway"]["highway"!="path"]
     ["highway"!="steps"]["highway"!="pedestrian"]
     (around:%d,%f,%f);
);
out geom tags;
`, radiusM, point.Lat, point.Lon)

	// Note: this client version doesn't support context.
	_ = ctx
	result, err := s.client.Query(query)
	if err != nil {
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}

	roads := make([]Road, 0, len(result.Ways))
	for _, way := range result.Ways {
		if way == nil {
			continue
		}
		roads = append(roads, Road{
			ID:       way.ID,
			Name:     way.Tags["name"],
			Highway:  way.Tags["highway"],
			MaxSpeed: way.Tags["maxspeed"],
			Lanes:    way.Tags["lanes"],
			Surface:  way.Tags["surface"],
			Oneway:   way.Tags["oneway"] == "yes",
		})
	}
	sort.Slice(roads, func(i, j int) bool { return roads[i].ID < roads[j].ID })

	if len(roads) == 0 {
		return &RoadInfo{RoadFound: false, Message: "No road data found for this location"}, nil
	}
	return &RoadInfo{RoadFound: true, Roads: roads}, nil
}
