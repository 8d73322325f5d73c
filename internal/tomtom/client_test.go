package tomtom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/trafficlens/internal/tile"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plainkey", "plainkey"},
		{"  spaced  ", "spaced"},
		{`"quoted"`, "quoted"},
		{`'single'`, "single"},
		{` "both" `, "both"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanKey(tt.input); got != tt.expected {
				t.Errorf("CleanKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestKeysFallback(t *testing.T) {
	k := Keys{Maps: "maps-key"}
	require.Equal(t, "maps-key", k.TrafficKey())
	require.Equal(t, "maps-key", k.SearchKey())

	k.Traffic = `"traffic-key"`
	require.Equal(t, "traffic-key", k.TrafficKey())
}

func TestFlowTile(t *testing.T) {
	var gotPath, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		_, _ = w.Write([]byte{0x01, 0x02})
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Keys: Keys{Traffic: "test-key"}})
	data, err := c.FlowTile(context.Background(), "relative", tile.NewCoords(13, 5861, 3693))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, data)
	require.Equal(t, "/traffic/map/4/tile/flow/relative/13/5861/3693.pbf", gotPath)
	require.Equal(t, "test-key", gotKey)
}

func TestFlowTileMissingKey(t *testing.T) {
	c := New(Config{BaseURL: "http://unused", Keys: Keys{}})
	_, err := c.FlowTile(context.Background(), "relative", tile.NewCoords(13, 0, 0))
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestFlowTileStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Keys: Keys{Traffic: "k"}})
	_, err := c.FlowTile(context.Background(), "relative", tile.NewCoords(13, 0, 0))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusForbidden, statusErr.Status)
}

func TestFlowSegmentData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/traffic/services/4/flowSegmentData/absolute/10/json", r.URL.Path)
		require.Equal(t, "KMPH", r.URL.Query().Get("unit"))
		_, _ = w.Write([]byte(`{"flowSegmentData":{"currentSpeed":20,"freeFlowSpeed":50,"confidence":0.95}}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Keys: Keys{Traffic: "k"}})
	seg, err := c.FlowSegmentData(context.Background(), types.LatLon{Lat: 12.9, Lon: 77.6})
	require.NoError(t, err)
	require.Equal(t, 20.0, seg.CurrentSpeed)
	require.Equal(t, 50.0, seg.FreeFlowSpeed)
	require.Equal(t, 0.95, seg.Confidence)
}

func TestReverseGeocode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"addresses":[{"address":{"streetName":"MG Road","freeformAddress":"MG Road, Bengaluru"}}]}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Keys: Keys{Search: "k"}})
	name, err := c.ReverseGeocode(context.Background(), types.LatLon{Lat: 12.97, Lon: 77.6})
	require.NoError(t, err)
	require.Equal(t, "MG Road", name)
}

func TestReverseGeocodeNoAddresses(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"addresses":[]}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Keys: Keys{Search: "k"}})
	name, err := c.ReverseGeocode(context.Background(), types.LatLon{Lat: 12.97, Lon: 77.6})
	require.NoError(t, err)
	require.Equal(t, "", name)
}
