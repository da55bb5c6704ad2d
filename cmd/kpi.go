package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cabmatch/infra/kpi"
	"github.com/kilianp07/cabmatch/pkg/export"
)

var (
	kpiDB     string
	kpiFrom   string
	kpiTo     string
	kpiFormat string
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Report daily allocation KPIs from the sqlite sink",
	RunE:  reportKPI,
}

func init() {
	kpiCmd.Flags().StringVar(&kpiDB, "db", "", "path of the sqlite KPI database")
	kpiCmd.Flags().StringVar(&kpiFrom, "from", "", "first day (YYYY-MM-DD), defaults to 7 days ago")
	kpiCmd.Flags().StringVar(&kpiTo, "to", "", "last day (YYYY-MM-DD), defaults to today")
	kpiCmd.Flags().StringVar(&kpiFormat, "format", "csv", "output format: csv or json")
	_ = kpiCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(kpiCmd)
}

func parseDay(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return time.Parse(time.DateOnly, s)
}

func reportKPI(cmd *cobra.Command, args []string) error {
	now := time.Now().UTC()
	to, err := parseDay(kpiTo, now)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	from, err := parseDay(kpiFrom, to.AddDate(0, 0, -7))
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	store, err := kpi.NewSQLiteStore(kpiDB)
	if err != nil {
		return err
	}
	defer store.Close()
	records, err := store.Query(from, to)
	if err != nil {
		return err
	}
	switch kpiFormat {
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), records)
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), records)
	default:
		return fmt.Errorf("unknown format %q", kpiFormat)
	}
}
