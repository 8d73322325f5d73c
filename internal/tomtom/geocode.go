package tomtom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/MeKo-Tech/trafficlens/internal/types"
)

type reverseGeocodeResponse struct {
	Addresses []struct {
		Address struct {
			StreetName      string `json:"streetName"`
			FreeformAddress string `json:"freeformAddress"`
		} `json:"address"`
	} `json:"addresses"`
}

// ReverseGeocode resolves a point to a street name for display. Returns an
// empty string when the geocoder has no answer for the point.
func (c *Client) ReverseGeocode(ctx context.Context, point types.LatLon) (string, error) {
	key := c.keys.SearchKey()
	if key == "" {
		return "", ErrMissingAPIKey
	}
	path := fmt.Sprintf("/search/2/reverseGeocode/%f,%f.json", point.Lat, point.Lon)
	params := url.Values{}
	params.Set("key", key)
	params.Set("radius", "50")

	body, err := c.get(ctx, path, params)
	if err != nil {
		return "", err
	}

	var resp reverseGeocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("tomtom: decode reverse geocode: %w", err)
	}
	if len(resp.Addresses) == 0 {
		return "", nil
	}
	addr := resp.Addresses[0].Address
	if addr.StreetName != "" {
		return addr.StreetName, nil
	}
	return addr.FreeformAddress, nil
}
