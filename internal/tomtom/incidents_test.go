package tomtom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/trafficlens/internal/types"
)

func TestParseIncidentsList(t *testing.T) {
	body := []byte(`{
		"incidents": [
			{
				"type": "Feature",
				"properties": {"id": "inc-1", "iconCategory": 8, "magnitudeOfDelay": 4, "roadClosed": true},
				"geometry": {"type": "Point", "coordinates": [77.61, 12.93]}
			},
			{
				"type": "Feature",
				"properties": {"id": "inc-2"},
				"geometry": {"type": "LineString", "coordinates": [[77.62, 12.94], [77.63, 12.95]]}
			}
		]
	}`)

	incidents, err := parseIncidents(body)
	require.NoError(t, err)
	require.Len(t, incidents, 2)

	require.Equal(t, "inc-1", incidents[0].ID)
	require.Equal(t, "8", incidents[0].IconCategory)
	require.Equal(t, 4, incidents[0].Magnitude)
	require.True(t, incidents[0].RoadClosed)
	require.Equal(t, types.LatLon{Lat: 12.93, Lon: 77.61}, incidents[0].Point)

	// LineString geometry: only the first point is kept.
	require.Equal(t, types.LatLon{Lat: 12.94, Lon: 77.62}, incidents[1].Point)
	require.False(t, incidents[1].RoadClosed)
}

func TestParseIncidentsEnvelope(t *testing.T) {
	// Some provider versions wrap the list in a second envelope object.
	body := []byte(`{
		"incidents": {
			"incidents": [
				{
					"type": "Feature",
					"properties": {"id": 12345},
					"geometry": {"type": "Point", "coordinates": [77.6, 12.9]}
				}
			]
		}
	}`)

	incidents, err := parseIncidents(body)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	require.Equal(t, "12345", incidents[0].ID, "numeric ids are stringified")
}

func TestParseIncidentsEmpty(t *testing.T) {
	incidents, err := parseIncidents([]byte(`{}`))
	require.NoError(t, err)
	require.Empty(t, incidents)
}

func TestParseIncidentsSkipsBadGeometry(t *testing.T) {
	body := []byte(`{
		"incidents": [
			{"type": "Feature", "properties": {"id": "ok"}, "geometry": {"type": "Point", "coordinates": [77.6, 12.9]}},
			{"type": "Feature", "properties": {"id": "bad"}, "geometry": {"type": "Point", "coordinates": []}}
		]
	}`)

	incidents, err := parseIncidents(body)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	require.Equal(t, "ok", incidents[0].ID)
}

func TestIncidentsToleratesUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Keys: Keys{Traffic: "k"}})
	incidents, err := c.Incidents(context.Background(), types.BoundingBox{MinLon: 77.6, MinLat: 12.9, MaxLon: 77.7, MaxLat: 13.0})
	require.NoError(t, err, "non-2xx must not fail the request")
	require.Empty(t, incidents)
}

func TestIncidentsToleratesMalformedBody(t *testing.T) {
	// A maintenance page served with a 2xx must degrade like a transport
	// failure, not fail the caller.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Keys: Keys{Traffic: "k"}})
	incidents, err := c.Incidents(context.Background(), types.BoundingBox{MinLon: 77.6, MinLat: 12.9, MaxLon: 77.7, MaxLat: 13.0})
	require.NoError(t, err, "undecodable body must not fail the request")
	require.Empty(t, incidents)
}

func TestIncidentsRequestShape(t *testing.T) {
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"bbox":               r.URL.Query().Get("bbox"),
			"language":           r.URL.Query().Get("language"),
			"timeValidityFilter": r.URL.Query().Get("timeValidityFilter"),
		}
		_, _ = w.Write([]byte(`{"incidents": []}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Keys: Keys{Traffic: "k"}})
	_, err := c.Incidents(context.Background(), types.BoundingBox{MinLon: 77.6, MinLat: 12.9, MaxLon: 77.7, MaxLat: 13.0})
	require.NoError(t, err)
	require.Equal(t, "77.6,12.9,77.7,13", gotQuery["bbox"])
	require.Equal(t, "en-GB", gotQuery["language"])
	require.Equal(t, "present", gotQuery["timeValidityFilter"])
}
