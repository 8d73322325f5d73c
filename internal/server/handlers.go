package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MeKo-Tech/trafficlens/internal/chokepoint"
	"github.com/MeKo-Tech/trafficlens/internal/tomtom"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// handleLiveChokepoints serves GET /api/traffic/live-chokepoints.
// All parameters are optional; the bbox is clamped to the deployment's
// maximum extent.
func (s *Server) handleLiveChokepoints(w http.ResponseWriter, r *http.Request) {
	params, err := parseChokepointParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.chokepoints.Live(r.Context(), params)
	if err != nil {
		if errors.Is(err, tomtom.ErrMissingAPIKey) {
			s.logger.Error("chokepoint request failed: credential missing")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "traffic provider credential not configured"})
			return
		}
		if r.Context().Err() != nil {
			return
		}
		s.logger.Error("chokepoint request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func parseChokepointParams(r *http.Request) (chokepoint.Params, error) {
	params := chokepoint.DefaultParams()
	q := r.URL.Query()

	if v := q.Get("bbox"); v != "" {
		bbox, err := types.ParseBBox(v)
		if err != nil {
			return params, err
		}
		params.BBox = &bbox
	}
	var err error
	if params.Zoom, err = intParam(q.Get("z"), params.Zoom); err != nil {
		return params, fmt.Errorf("invalid z: %w", err)
	}
	if params.EpsM, err = floatParam(q.Get("eps_m"), params.EpsM); err != nil {
		return params, fmt.Errorf("invalid eps_m: %w", err)
	}
	if params.MinSamples, err = intParam(q.Get("min_samples"), params.MinSamples); err != nil {
		return params, fmt.Errorf("invalid min_samples: %w", err)
	}
	if params.JFMin, err = floatParam(q.Get("jf_min"), params.JFMin); err != nil {
		return params, fmt.Errorf("invalid jf_min: %w", err)
	}
	if params.IncidentRadiusM, err = floatParam(q.Get("incident_radius_m"), params.IncidentRadiusM); err != nil {
		return params, fmt.Errorf("invalid incident_radius_m: %w", err)
	}
	if v := q.Get("include_geocode"); v != "" {
		params.IncludeGeocode, err = strconv.ParseBool(v)
		if err != nil {
			return params, fmt.Errorf("invalid include_geocode: %w", err)
		}
	}
	return params, nil
}

// handleRoadInfo serves GET /api/osm/road-info?lat=&lon=&radius=.
func (s *Server) handleRoadInfo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lat and lon are required"})
		return
	}
	radius, err := intParam(q.Get("radius"), 100)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid radius"})
		return
	}

	info, err := s.roads.RoadInfo(r.Context(), types.LatLon{Lat: lat, Lon: lon}, radius)
	if err != nil {
		s.logger.Error("road info lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "road info lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func floatParam(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}
