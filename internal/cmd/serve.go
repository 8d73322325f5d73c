package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/trafficlens/internal/osm"
	"github.com/MeKo-Tech/trafficlens/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live chokepoint API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("cache-backend", "memory", "Cache backend (memory, sqlite)")
	serveCmd.Flags().String("cache-sqlite-path", "", "SQLite cache database path (cache-backend=sqlite)")
	serveCmd.Flags().String("max-bbox", "", "Maximum request extent as minLon,minLat,maxLon,maxLat")
	serveCmd.Flags().String("overpass-endpoint", "", "Overpass API endpoint for road info")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("cache.backend", "cache-backend")
	mustBind("cache.sqlite_path", "cache-sqlite-path")
	mustBind("chokepoints.max_bbox", "max-bbox")
	mustBind("overpass.endpoint", "overpass-endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	svc, c, err := newChokepointService()
	if err != nil {
		return err
	}
	defer c.Close()
	defer svc.Close()

	roads := osm.NewService(viper.GetString("overpass.endpoint"), logger)

	srv := server.New(svc, roads, server.Config{
		Addr: viper.GetString("serve.addr"),
	}, logger)

	return srv.ListenAndServe()
}
