// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/labenv/internal/manifest"
	"github.com/pdiddy/labenv/internal/marker"
	"github.com/pdiddy/labenv/internal/pip"
	"github.com/pdiddy/labenv/internal/python"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the environment against the declared dependency set",
	Long: `Verify checks the provisioned environment without modifying it: the
virtual environment must exist with a runnable interpreter, every declared
dependency must be installed with its constraint honored, and the
completion marker must carry the exact sentinel content. Exits non-zero
when anything is out of shape.`,
	RunE: runVerify,
}

// verifyReport is the --json output shape.
type verifyReport struct {
	OK       bool     `json:"ok"`
	Problems []string `json:"problems,omitempty"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := environmentConfig(cmd)

	m, err := manifest.Load(stringSetting(cmd, "manifest", "manifest_path"), cfg.RootDir)
	if err != nil {
		return err
	}

	var problems []string

	venvPath := cfg.VenvPath()
	if err := python.CheckVenv(cmd.Context(), venvPath, python.DefaultExecutor); err != nil {
		problems = append(problems, err.Error())
	} else {
		client := pip.NewClient(python.VenvPython(venvPath), python.DefaultExecutor, os.Stderr)
		installed, err := client.List(cmd.Context())
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			problems = append(problems, pip.Unsatisfied(m.Dependencies, installed)...)
		}
	}

	if err := marker.Verify(cfg.MarkerPath()); err != nil {
		problems = append(problems, err.Error())
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(verifyReport{OK: len(problems) == 0, Problems: problems}); err != nil {
			return err
		}
	} else if len(problems) == 0 {
		fmt.Fprintf(os.Stdout, "Environment at %s verified: %d dependencies satisfied, marker intact.\n",
			venvPath, len(m.Dependencies))
	} else {
		for _, p := range problems {
			fmt.Fprintln(os.Stdout, p)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found", len(problems))
	}
	return nil
}

func init() {
	verifyCmd.Flags().String("manifest", "", "dependency manifest file (default: labenv-manifest.yaml under the root, else built-in set)")
	verifyCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(verifyCmd)
}
