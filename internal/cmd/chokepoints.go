package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/trafficlens/internal/chokepoint"
	"github.com/MeKo-Tech/trafficlens/internal/types"
)

var chokepointsCmd = &cobra.Command{
	Use:   "chokepoints",
	Short: "Compute the live chokepoint leaderboard once and print it as JSON",
	RunE:  runChokepoints,
}

func init() {
	rootCmd.AddCommand(chokepointsCmd)

	chokepointsCmd.Flags().String("bbox", "", "Bounding box as minLon,minLat,maxLon,maxLat (default: configured extent)")
	chokepointsCmd.Flags().Int("z", 13, "Flow tile zoom level")
	chokepointsCmd.Flags().Float64("eps-m", 150, "Cluster neighborhood radius in meters")
	chokepointsCmd.Flags().Int("min-samples", 4, "Weighted density threshold for a cluster core")
	chokepointsCmd.Flags().Float64("jf-min", 4.0, "Minimum jam factor (0-10 scale)")
	chokepointsCmd.Flags().Float64("incident-radius-m", 100, "Incident proximity radius in meters")
	chokepointsCmd.Flags().Bool("geocode", false, "Reverse-geocode cluster centers to street names")
	chokepointsCmd.Flags().Int("top", 0, "Limit output to the top N clusters (0 = all)")
	chokepointsCmd.Flags().String("max-bbox", "", "Maximum request extent as minLon,minLat,maxLon,maxLat")

	if err := viper.BindPFlag("chokepoints.max_bbox", chokepointsCmd.Flags().Lookup("max-bbox")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runChokepoints(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	params := chokepoint.DefaultParams()
	if v, _ := cmd.Flags().GetString("bbox"); v != "" {
		bbox, err := types.ParseBBox(v)
		if err != nil {
			return err
		}
		params.BBox = &bbox
	}
	params.Zoom, _ = cmd.Flags().GetInt("z")
	params.EpsM, _ = cmd.Flags().GetFloat64("eps-m")
	params.MinSamples, _ = cmd.Flags().GetInt("min-samples")
	params.JFMin, _ = cmd.Flags().GetFloat64("jf-min")
	params.IncidentRadiusM, _ = cmd.Flags().GetFloat64("incident-radius-m")
	params.IncludeGeocode, _ = cmd.Flags().GetBool("geocode")

	svc, c, err := newChokepointService()
	if err != nil {
		return err
	}
	defer c.Close()
	defer svc.Close()

	result, err := svc.Live(cmd.Context(), params)
	if err != nil {
		return err
	}

	if top, _ := cmd.Flags().GetInt("top"); top > 0 && len(result.Clusters) > top {
		result.Clusters = result.Clusters[:top]
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
