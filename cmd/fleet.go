package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veloway/rentd/core/model"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured vehicles",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, f := range cfg.Fleet {
		rule := cfg.Pricing.Table().Rule(model.VehicleType(f.Type))
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.5f,%.5f\t%d c/min\n",
			f.ID, f.Type, f.Lat, f.Lng, rule.PerMinuteCents)
	}
	return nil
}
