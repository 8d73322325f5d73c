package tomtom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/MeKo-Tech/trafficlens/internal/types"
)

const incidentFields = "{incidents{type,geometry{type,coordinates},properties{id,iconCategory,magnitudeOfDelay,startTime,endTime,events{description,code},roadClosed}}}"

// incidentFeature mirrors the upstream GeoJSON-ish incident shape. Several
// fields vary in type across provider versions, hence the raw messages.
type incidentFeature struct {
	Type       string `json:"type"`
	Properties struct {
		ID               json.RawMessage `json:"id"`
		IconCategory     json.RawMessage `json:"iconCategory"`
		MagnitudeOfDelay json.RawMessage `json:"magnitudeOfDelay"`
		StartTime        string          `json:"startTime"`
		EndTime          string          `json:"endTime"`
		RoadClosed       bool            `json:"roadClosed"`
	} `json:"properties"`
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// Incidents fetches current incidents for the bbox. A non-2xx response,
// transport failure, or undecodable body yields an empty slice and no
// error: the pipeline tolerates partial incident data.
func (c *Client) Incidents(ctx context.Context, bbox types.BoundingBox) ([]types.Incident, error) {
	key := c.keys.TrafficKey()
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	params := url.Values{}
	params.Set("key", key)
	params.Set("bbox", bbox.String())
	params.Set("language", "en-GB")
	params.Set("timeValidityFilter", "present")
	params.Set("fields", incidentFields)

	body, err := c.get(ctx, "/traffic/services/5/incidentDetails", params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("incident fetch failed", "bbox", bbox.String(), "error", err)
		return nil, nil
	}

	incidents, err := parseIncidents(body)
	if err != nil {
		// Providers occasionally serve maintenance pages with a 2xx.
		c.logger.Warn("incident decode failed", "bbox", bbox.String(), "error", err)
		return nil, nil
	}
	return incidents, nil
}

// parseIncidents accepts both response shapes seen in the wild: a top-level
// incidents list, or the list wrapped in a second envelope object.
func parseIncidents(body []byte) ([]types.Incident, error) {
	var outer struct {
		Incidents json.RawMessage `json:"incidents"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("tomtom: decode incidents: %w", err)
	}
	if len(outer.Incidents) == 0 {
		return nil, nil
	}

	var features []incidentFeature
	if err := json.Unmarshal(outer.Incidents, &features); err != nil {
		var inner struct {
			Incidents []incidentFeature `json:"incidents"`
		}
		if err := json.Unmarshal(outer.Incidents, &inner); err != nil {
			return nil, fmt.Errorf("tomtom: decode incidents list: %w", err)
		}
		features = inner.Incidents
	}

	incidents := make([]types.Incident, 0, len(features))
	for _, f := range features {
		point, ok := firstPoint(f.Geometry.Coordinates)
		if !ok {
			continue
		}
		incidents = append(incidents, types.Incident{
			ID:           rawToString(f.Properties.ID),
			Type:         f.Type,
			IconCategory: rawToString(f.Properties.IconCategory),
			Magnitude:    rawToInt(f.Properties.MagnitudeOfDelay),
			RoadClosed:   f.Properties.RoadClosed,
			Point:        point,
			StartTime:    f.Properties.StartTime,
			EndTime:      f.Properties.EndTime,
		})
	}
	return incidents, nil
}

// firstPoint extracts the first [lon, lat] pair from a Point or LineString
// coordinates array.
func firstPoint(raw json.RawMessage) (types.LatLon, bool) {
	var point []float64
	if err := json.Unmarshal(raw, &point); err == nil && len(point) >= 2 {
		return types.LatLon{Lat: point[1], Lon: point[0]}, true
	}
	var line [][]float64
	if err := json.Unmarshal(raw, &line); err == nil && len(line) > 0 && len(line[0]) >= 2 {
		return types.LatLon{Lat: line[0][1], Lon: line[0][0]}, true
	}
	return types.LatLon{}, false
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func rawToInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	return 0
}
