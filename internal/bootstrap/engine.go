// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bootstrap sequences the idempotent steps that provision the lab
// environment. Steps run strictly in order; the first failure aborts the
// remaining sequence and surfaces as a StepError naming the step, so the
// completion marker is only ever written after every step succeeded.
package bootstrap

import (
	"context"
	"fmt"
	"io"
)

// Status classifies the outcome of one step.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Step is one idempotent unit of the provisioning sequence. A nil Check
// means the step always applies.
type Step struct {
	// ID identifies the step in errors, progress output, and the ledger.
	ID string

	// Check reports whether the step is already satisfied. Satisfied steps
	// are skipped, which makes reruns over a provisioned environment cheap.
	Check func(ctx context.Context) (bool, error)

	// Apply performs the step's work.
	Apply func(ctx context.Context) error
}

// StepError reports which step failed and why.
type StepError struct {
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.StepID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// StepResult records the outcome of one step in run order.
type StepResult struct {
	ID     string
	Status Status
}

// Summary holds counts and per-step outcomes from a run.
type Summary struct {
	Applied int
	Skipped int
	Results []StepResult
}

// Run executes steps in order, writing one progress line per step to w.
// A Check error counts as a failure of its step. On failure the returned
// error is a *StepError and the summary covers the steps that ran.
func Run(ctx context.Context, steps []Step, w io.Writer) (Summary, error) {
	var summary Summary

	for _, step := range steps {
		select {
		case <-ctx.Done():
			return summary, &StepError{StepID: step.ID, Err: ctx.Err()}
		default:
		}

		if step.Check != nil {
			ok, err := step.Check(ctx)
			if err != nil {
				summary.Results = append(summary.Results, StepResult{ID: step.ID, Status: StatusFailed})
				return summary, &StepError{StepID: step.ID, Err: err}
			}
			if ok {
				fmt.Fprintf(w, "skipped %s\n", step.ID)
				summary.Skipped++
				summary.Results = append(summary.Results, StepResult{ID: step.ID, Status: StatusSkipped})
				continue
			}
		}

		if err := step.Apply(ctx); err != nil {
			summary.Results = append(summary.Results, StepResult{ID: step.ID, Status: StatusFailed})
			return summary, &StepError{StepID: step.ID, Err: err}
		}
		fmt.Fprintf(w, "applied %s\n", step.ID)
		summary.Applied++
		summary.Results = append(summary.Results, StepResult{ID: step.ID, Status: StatusApplied})
	}

	fmt.Fprintf(w, "\napplied: %d, skipped: %d\n", summary.Applied, summary.Skipped)
	return summary, nil
}
