package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/trafficlens/internal/types"
)

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Query the point flow-segment endpoint for a spot check",
	RunE:  runFlow,
}

func init() {
	rootCmd.AddCommand(flowCmd)

	flowCmd.Flags().String("point", "", "Point as lat,lon (required)")
	_ = flowCmd.MarkFlagRequired("point")
}

func runFlow(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	pointArg, _ := cmd.Flags().GetString("point")
	parts := strings.Split(pointArg, ",")
	if len(parts) != 2 {
		return fmt.Errorf("invalid point %q: want lat,lon", pointArg)
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lonErr != nil {
		return fmt.Errorf("invalid point %q: want lat,lon", pointArg)
	}

	client := newTomTomClient()
	seg, err := client.FlowSegmentData(cmd.Context(), types.LatLon{Lat: lat, Lon: lon})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(seg)
}
