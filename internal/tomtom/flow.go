package tomtom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/MeKo-Tech/trafficlens/internal/tile"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// FlowStyles is the priority order tried when fetching flow tiles. The
// first style that yields features wins.
var FlowStyles = []string{"relative", "absolute", "relative-delay", "relative-categorized"}

// FlowTile fetches one binary vector flow tile for the given style and
// tile coordinate.
func (c *Client) FlowTile(ctx context.Context, style string, coords tile.Coords) ([]byte, error) {
	key := c.keys.TrafficKey()
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	path := fmt.Sprintf("/traffic/map/4/tile/flow/%s/%d/%d/%d.pbf", style, coords.Z, coords.X, coords.Y)
	params := url.Values{}
	params.Set("key", key)
	return c.get(ctx, path, params)
}

// FlowSegment is the point-query flow response for the segment covering a
// location.
type FlowSegment struct {
	CurrentSpeed  float64 `json:"currentSpeed"`
	FreeFlowSpeed float64 `json:"freeFlowSpeed"`
	Confidence    float64 `json:"confidence"`
	RoadClosure   bool    `json:"roadClosure"`
}

type flowSegmentEnvelope struct {
	FlowSegmentData FlowSegment `json:"flowSegmentData"`
}

// FlowSegmentData queries current vs. free-flow speed at a point. Used by
// the grid-probe fallback and the CLI spot check.
func (c *Client) FlowSegmentData(ctx context.Context, point types.LatLon) (*FlowSegment, error) {
	key := c.keys.TrafficKey()
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	params := url.Values{}
	params.Set("key", key)
	params.Set("point", fmt.Sprintf("%f,%f", point.Lat, point.Lon))
	params.Set("unit", "KMPH")

	body, err := c.get(ctx, "/traffic/services/4/flowSegmentData/absolute/10/json", params)
	if err != nil {
		return nil, err
	}

	var env flowSegmentEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("tomtom: decode flow segment: %w", err)
	}
	return &env.FlowSegmentData, nil
}
