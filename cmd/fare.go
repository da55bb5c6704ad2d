package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/core/pricing"
)

var (
	fareDistance float64
	fareSurge    float64
)

var fareCmd = &cobra.Command{
	Use:   "fare",
	Short: "Quote a fare with the configured tariff",
	RunE:  quoteFare,
}

func init() {
	fareCmd.Flags().Float64Var(&fareDistance, "distance", 0, "ride distance in km")
	fareCmd.Flags().Float64Var(&fareSurge, "surge", model.DefaultSurgeMultiplier, "surge multiplier")
	_ = fareCmd.MarkFlagRequired("distance")
	rootCmd.AddCommand(fareCmd)
}

func quoteFare(cmd *cobra.Command, args []string) error {
	if fareDistance < 0 {
		return fmt.Errorf("distance must not be negative")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fare := pricing.NewFareCalculator(cfg.Pricing).Calculate(fareDistance, fareSurge)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", fare)
	return err
}
