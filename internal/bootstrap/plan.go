// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/labenv/internal/marker"
	"github.com/pdiddy/labenv/internal/pip"
	"github.com/pdiddy/labenv/internal/python"
	"github.com/pdiddy/labenv/pkg/types"
)

// Step IDs in run order. These double as the error taxonomy: a failed run
// reports exactly one of them through StepError.
const (
	StepProjectDir   = "project-dir"
	StepVenv         = "venv"
	StepPipTooling   = "pip-tooling"
	StepDependencies = "dependencies"
	StepVerify       = "verify"
	StepMarker       = "marker"
)

// Options adjusts a bootstrap run.
type Options struct {
	// Recreate deletes an existing virtual environment and rebuilds it.
	Recreate bool
}

// Execute provisions the environment described by cfg: it clears any stale
// completion marker, runs the step sequence, and writes the marker as the
// final step. The marker therefore exists if and only if every step of the
// most recent run succeeded.
func Execute(ctx context.Context, cfg types.EnvironmentConfig, m types.Manifest, interp python.Interpreter, exec python.Executor, out io.Writer, opts Options) (Summary, error) {
	if err := marker.Clear(cfg.MarkerPath()); err != nil {
		return Summary{}, err
	}
	return Run(ctx, plan(cfg, m, interp, exec, out, opts), out)
}

// plan builds the ordered step sequence for cfg.
func plan(cfg types.EnvironmentConfig, m types.Manifest, interp python.Interpreter, exec python.Executor, out io.Writer, opts Options) []Step {
	venvPath := cfg.VenvPath()
	client := pip.NewClient(python.VenvPython(venvPath), exec, out)

	// Set when the venv step applies, so later steps treat the environment
	// as fresh even though pip already responds inside it.
	venvCreated := false

	return []Step{
		{
			ID: StepProjectDir,
			Check: func(context.Context) (bool, error) {
				info, err := os.Stat(cfg.ProjectPath())
				return err == nil && info.IsDir(), nil
			},
			Apply: func(context.Context) error {
				if err := os.MkdirAll(cfg.ProjectPath(), 0o755); err != nil {
					return fmt.Errorf("creating project directory: %w", err)
				}
				return nil
			},
		},
		{
			ID: StepVenv,
			Check: func(context.Context) (bool, error) {
				return !opts.Recreate && python.VenvExists(venvPath), nil
			},
			Apply: func(ctx context.Context) error {
				if opts.Recreate {
					if err := os.RemoveAll(venvPath); err != nil {
						return fmt.Errorf("removing existing virtual environment: %w", err)
					}
				}
				venvCreated = true
				return interp.CreateVenv(ctx, venvPath, out)
			},
		},
		{
			// A responsive pip in a pre-existing venv counts as satisfied:
			// tooling is upgraded once per environment, not on every rerun.
			ID: StepPipTooling,
			Check: func(ctx context.Context) (bool, error) {
				return !venvCreated && client.Available(ctx), nil
			},
			Apply: client.UpgradeTooling,
		},
		{
			ID: StepDependencies,
			Check: func(ctx context.Context) (bool, error) {
				installed, err := client.List(ctx)
				if err != nil {
					return false, err
				}
				return len(pip.Unsatisfied(m.Dependencies, installed)) == 0, nil
			},
			Apply: func(ctx context.Context) error {
				return client.Install(ctx, m.Specifiers())
			},
		},
		{
			ID: StepVerify,
			Apply: func(ctx context.Context) error {
				installed, err := client.List(ctx)
				if err != nil {
					return err
				}
				if problems := pip.Unsatisfied(m.Dependencies, installed); len(problems) > 0 {
					return fmt.Errorf("unsatisfied dependencies: %s", strings.Join(problems, "; "))
				}
				return nil
			},
		},
		{
			ID: StepMarker,
			Apply: func(context.Context) error {
				return marker.Write(cfg.MarkerPath())
			},
		},
	}
}
