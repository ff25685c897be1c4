// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/labenv/internal/ledger"
	"github.com/pdiddy/labenv/internal/marker"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Remove the virtual environment and completion marker",
	Long: `Teardown removes the virtual environment directory and the completion
marker. With --all the run ledger is removed too. Prompts for confirmation
unless --force is given. Missing targets are not errors.`,
	RunE: runTeardown,
}

func runTeardown(cmd *cobra.Command, args []string) error {
	cfg := environmentConfig(cmd)
	force, _ := cmd.Flags().GetBool("force")
	all, _ := cmd.Flags().GetBool("all")

	venvPath := cfg.VenvPath()
	if !force {
		fmt.Fprintf(os.Stdout, "Remove %s and %s? [y/N] ", venvPath, cfg.MarkerPath())
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(os.Stdout, "Aborted.")
			return nil
		}
	}

	if err := os.RemoveAll(venvPath); err != nil {
		return fmt.Errorf("removing virtual environment: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Removed %s\n", venvPath)

	if err := marker.Clear(cfg.MarkerPath()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Removed %s\n", cfg.MarkerPath())

	if all {
		stateDir := filepath.Join(cfg.RootDir, ledger.StateDir)
		if err := os.RemoveAll(stateDir); err != nil {
			return fmt.Errorf("removing run ledger: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Removed %s\n", stateDir)
	}
	return nil
}

func init() {
	teardownCmd.Flags().Bool("force", false, "skip the confirmation prompt")
	teardownCmd.Flags().Bool("all", false, "also remove the run ledger")

	rootCmd.AddCommand(teardownCmd)
}
