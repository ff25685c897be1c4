// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/labenv/internal/bootstrap"
	"github.com/pdiddy/labenv/internal/ledger"
	"github.com/pdiddy/labenv/internal/manifest"
	"github.com/pdiddy/labenv/internal/pip"
	"github.com/pdiddy/labenv/internal/python"
	"github.com/pdiddy/labenv/pkg/types"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the virtual environment and install the dependency set",
	Long: `Setup runs the provisioning sequence: create the project directory,
create the virtual environment, upgrade pip tooling, install the declared
dependency set, verify the result, and write the completion marker.

Each step's result is checked; the first failure aborts the run and names
the failing step. The marker is written only when every step succeeded.
Steps whose target is already in the desired state are skipped, so setup
is safe to rerun. Use --recreate to rebuild the environment from scratch.`,
	RunE: runSetup,
}

// setupConfig resolves the run settings from flags, falling back to config
// file / environment values.
func setupConfig(cmd *cobra.Command) types.SetupConfig {
	cfg := types.SetupConfig{
		EnvironmentConfig: environmentConfig(cmd),
		ManifestPath:      stringSetting(cmd, "manifest", "manifest_path"),
		Recreate:          viper.GetBool("recreate"),
		Timeout:           viper.GetDuration("timeout"),
	}
	if recreate, _ := cmd.Flags().GetBool("recreate"); recreate {
		cfg.Recreate = true
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	return cfg
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg := setupConfig(cmd)

	m, err := manifest.Load(cfg.ManifestPath, cfg.RootDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	pin, _ := cmd.Flags().GetString("python")
	if pin == "" {
		pin = cfg.PythonBin
	}
	interp, err := python.Detect(ctx, pin)
	if err != nil {
		return err
	}

	pyVersion, err := interp.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Using %s (Python %s)\n", interp.Bin(), pyVersion)

	started := time.Now()
	summary, runErr := bootstrap.Execute(ctx, cfg.EnvironmentConfig, m, interp, python.DefaultExecutor, os.Stdout,
		bootstrap.Options{Recreate: cfg.Recreate})

	recordRun(cfg.EnvironmentConfig, summary, runErr, started)

	if runErr != nil {
		return runErr
	}
	fmt.Fprintf(os.Stdout, "Setup complete. Marker written to %s\n", cfg.MarkerPath())
	return nil
}

// recordRun writes the run to the ledger. Ledger problems are warnings:
// they never turn a successful bootstrap into a failure.
func recordRun(cfg types.EnvironmentConfig, summary bootstrap.Summary, runErr error, started time.Time) {
	store, err := ledger.Open(cfg.RootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run ledger unavailable: %v\n", err)
		return
	}
	defer store.Close()

	run := ledger.Run{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Outcome:    ledger.OutcomeSuccess,
	}
	for _, r := range summary.Results {
		run.Steps = append(run.Steps, ledger.StepRecord{ID: r.ID, Status: string(r.Status)})
	}

	if runErr != nil {
		run.Outcome = ledger.OutcomeFailure
		var stepErr *bootstrap.StepError
		if errors.As(runErr, &stepErr) {
			run.FailedStep = stepErr.StepID
		}
	} else {
		run.Packages = installedPackages(cfg)
	}

	if _, err := store.RecordRun(context.Background(), run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run failed: %v\n", err)
	}
}

// installedPackages snapshots the venv inventory for the ledger.
func installedPackages(cfg types.EnvironmentConfig) []ledger.PackageRecord {
	client := pip.NewClient(python.VenvPython(cfg.VenvPath()), python.DefaultExecutor, os.Stderr)
	installed, err := client.List(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: package inventory failed: %v\n", err)
		return nil
	}
	records := make([]ledger.PackageRecord, 0, len(installed))
	for _, p := range installed {
		records = append(records, ledger.PackageRecord{Name: p.Name, Version: p.Version})
	}
	return records
}

func init() {
	setupCmd.Flags().String("manifest", "", "dependency manifest file (default: labenv-manifest.yaml under the root, else built-in set)")
	setupCmd.Flags().String("python", "", "python interpreter to create the environment with (default: autodetect python3, python)")
	setupCmd.Flags().Bool("recreate", false, "delete and rebuild the virtual environment")
	setupCmd.Flags().Duration("timeout", 0, "abort the run after this duration (0 = no limit)")

	rootCmd.AddCommand(setupCmd)
}
