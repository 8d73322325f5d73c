// Package server exposes the HTTP surface: the live chokepoint
// leaderboard, the OSM road-info lookup, and health.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MeKo-Tech/trafficlens/internal/chokepoint"
	"github.com/MeKo-Tech/trafficlens/internal/osm"
)

// Config configures the HTTP server.
type Config struct {
	Addr string
}

// Server routes HTTP requests to the pipeline services.
type Server struct {
	chokepoints *chokepoint.Service
	roads       *osm.Service
	logger      *slog.Logger
	cfg         Config
}

// New creates the server. roads may be nil; the road-info endpoint then
// responds 404.
func New(chokepoints *chokepoint.Service, roads *osm.Service, cfg Config, logger *slog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{chokepoints: chokepoints, roads: roads, logger: logger, cfg: cfg}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(withCORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/traffic/live-chokepoints", s.handleLiveChokepoints)
		if s.roads != nil {
			r.Get("/osm/road-info", s.handleRoadInfo)
		}
	})
	return r
}

// ListenAndServe blocks serving HTTP on the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", "addr", s.cfg.Addr)
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}
