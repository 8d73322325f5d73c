package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/trafficlens/internal/cache"
	"github.com/MeKo-Tech/trafficlens/internal/chokepoint"
	"github.com/MeKo-Tech/trafficlens/internal/tomtom"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

// newTomTomClient builds the upstream client from configuration.
func newTomTomClient() *tomtom.Client {
	return tomtom.New(tomtom.Config{
		BaseURL: viper.GetString("tomtom.base_url"),
		Keys: tomtom.Keys{
			Maps:    viper.GetString("tomtom.maps_key"),
			Traffic: viper.GetString("tomtom.traffic_key"),
			Search:  viper.GetString("tomtom.search_key"),
			Stats:   viper.GetString("tomtom.stats_key"),
		},
		Logger: logger,
	})
}

// newCache builds the configured cache backend (memory by default,
// sqlite when cache.backend=sqlite).
func newCache() (cache.Cache, error) {
	switch backend := viper.GetString("cache.backend"); backend {
	case "", "memory":
		return cache.NewMemory(), nil
	case "sqlite":
		path := viper.GetString("cache.sqlite_path")
		if path == "" {
			path = "trafficlens-cache.db"
		}
		return cache.NewSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}
}

// newChokepointService assembles the live pipeline from configuration.
func newChokepointService() (*chokepoint.Service, cache.Cache, error) {
	c, err := newCache()
	if err != nil {
		return nil, nil, err
	}

	opts := chokepoint.Options{}
	if v := viper.GetString("chokepoints.max_bbox"); v != "" {
		bbox, err := types.ParseBBox(v)
		if err != nil {
			c.Close()
			return nil, nil, fmt.Errorf("invalid chokepoints.max_bbox: %w", err)
		}
		opts.MaxBBox = bbox
	}

	svc := chokepoint.NewService(newTomTomClient(), c, c, opts, logger)
	return svc, c, nil
}
