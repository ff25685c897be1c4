// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/labenv/internal/bootstrap"
	"github.com/pdiddy/labenv/internal/ledger"
	"github.com/pdiddy/labenv/internal/marker"
	"github.com/pdiddy/labenv/internal/python"
	"github.com/pdiddy/labenv/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current environment state and the last recorded run",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := environmentConfig(cmd)

	venvPath := cfg.VenvPath()
	fmt.Fprintf(os.Stdout, "Virtual environment: %s (%s)\n", venvPath, presence(python.VenvExists(venvPath)))

	markerPath := cfg.MarkerPath()
	switch {
	case !marker.Exists(markerPath):
		fmt.Fprintf(os.Stdout, "Completion marker:   %s (absent)\n", markerPath)
	case marker.Verify(markerPath) != nil:
		fmt.Fprintf(os.Stdout, "Completion marker:   %s (present, invalid content)\n", markerPath)
	default:
		fmt.Fprintf(os.Stdout, "Completion marker:   %s (present)\n", markerPath)
	}

	store, err := ledger.Open(cfg.RootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run ledger unavailable: %v\n", err)
		return nil
	}
	defer store.Close()

	last, err := store.LastRun(cmd.Context())
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Fprintln(os.Stdout, "Last run:            none recorded")
		return nil
	}

	fmt.Fprintf(os.Stdout, "Last run:            #%d %s at %s (%s)\n",
		last.ID, last.Outcome, last.FinishedAt.Local().Format(time.RFC3339),
		describeSteps(last))
	if last.FailedStep != "" {
		fmt.Fprintf(os.Stdout, "Failed step:         %s\n", last.FailedStep)
	}
	if len(last.Packages) > 0 {
		fmt.Fprintf(os.Stdout, "Packages recorded:   %d\n", len(last.Packages))
	}
	return nil
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}

func describeSteps(run *ledger.Run) string {
	var applied, skipped int
	for _, s := range run.Steps {
		switch bootstrap.Status(s.Status) {
		case bootstrap.StatusApplied:
			applied++
		case bootstrap.StatusSkipped:
			skipped++
		}
	}
	return fmt.Sprintf("%d applied, %d skipped", applied, skipped)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent bootstrap runs from the ledger",
	RunE:  runHistory,
}

// ledgerConfig resolves ledger settings from config file / environment
// values, with a built-in default.
func ledgerConfig() types.LedgerConfig {
	cfg := types.LedgerConfig{MaxRuns: viper.GetInt("max_runs")}
	if cfg.MaxRuns <= 0 {
		cfg.MaxRuns = 20
	}
	return cfg
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := environmentConfig(cmd)

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = ledgerConfig().MaxRuns
	}

	store, err := ledger.Open(cfg.RootDir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-8s  %-14s  %s\n",
		"Run", "Finished", "Outcome", "Failed step", "Steps")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))
	for _, run := range runs {
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-8s  %-14s  %s\n",
			run.ID,
			run.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			run.Outcome,
			orDash(run.FailedStep),
			describeSteps(&run))
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum number of runs to list (0 = max_runs config value, default 20)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}
