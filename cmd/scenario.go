package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cabmatch/api/rides"
	"github.com/kilianp07/cabmatch/core/metrics"
	"github.com/kilianp07/cabmatch/infra/logger"
	"github.com/kilianp07/cabmatch/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Replay allocation scenarios",
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run <file-or-dir>...",
	Short: "Check scenario files against their expected outcome",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

var allocateCmd = &cobra.Command{
	Use:   "allocate <scenario-file>",
	Short: "Print the estimate the allocator returns for a scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  allocateScenario,
}

func init() {
	scenarioCmd.AddCommand(scenarioRunCmd)
	rootCmd.AddCommand(scenarioCmd, allocateCmd)
}

func loadScenarios(paths []string) ([]*scenarios.Scenario, error) {
	var out []*scenarios.Scenario
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			scs, err := scenarios.LoadDir(p)
			if err != nil {
				return nil, err
			}
			out = append(out, scs...)
			continue
		}
		sc, err := scenarios.Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func runScenarios(cmd *cobra.Command, args []string) error {
	all, err := loadScenarios(args)
	if err != nil {
		return err
	}
	log := logger.New("scenario")
	failed := 0
	for _, sc := range all {
		out, err := scenarios.Run(sc, metrics.NopSink{}, log)
		if err == nil {
			err = scenarios.Check(sc, out)
		}
		status := "ok"
		if err != nil {
			failed++
			status = "FAIL " + err.Error()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", sc.Name, status)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenario(s) failed", failed, len(all))
	}
	return nil
}

func allocateScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenarios.Load(args[0])
	if err != nil {
		return err
	}
	out, err := scenarios.Run(sc, metrics.NopSink{}, logger.New("allocate"))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if !out.Matched {
		if err := enc.Encode(nil); err != nil {
			return err
		}
		return errors.New("no eligible driver")
	}
	return enc.Encode(rides.FromEstimate(out.Estimate))
}
