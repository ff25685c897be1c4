// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	store, err := Open(root)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, root
}

func sampleRun(outcome, failedStep string) Run {
	started := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	run := Run{
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Outcome:    outcome,
		FailedStep: failedStep,
		Steps: []StepRecord{
			{ID: "project-dir", Status: "skipped"},
			{ID: "venv", Status: "applied"},
			{ID: "pip-tooling", Status: "applied"},
		},
	}
	if outcome == OutcomeSuccess {
		run.Packages = []PackageRecord{
			{Name: "chromadb", Version: "0.4.24"},
			{Name: "numpy", Version: "1.26.4"},
		}
	}
	return run
}

func TestOpenCreatesStateDir(t *testing.T) {
	_, root := testStore(t)
	if _, err := os.Stat(filepath.Join(root, StateDir, "ledger.db")); err != nil {
		t.Errorf("ledger database not created: %v", err)
	}
}

func TestRecordAndLastRun(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	id, err := store.RecordRun(ctx, sampleRun(OutcomeSuccess, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected a non-zero run id")
	}

	last, err := store.LastRun(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last == nil {
		t.Fatal("expected a run, got nil")
	}
	if last.Outcome != OutcomeSuccess {
		t.Errorf("outcome = %q, want %q", last.Outcome, OutcomeSuccess)
	}
	if len(last.Steps) != 3 || last.Steps[1].ID != "venv" || last.Steps[1].Status != "applied" {
		t.Errorf("steps not preserved in order: %+v", last.Steps)
	}
	if len(last.Packages) != 2 || last.Packages[0].Name != "chromadb" {
		t.Errorf("packages not preserved: %+v", last.Packages)
	}
	if !last.FinishedAt.After(last.StartedAt) {
		t.Errorf("timestamps not preserved: started %v finished %v", last.StartedAt, last.FinishedAt)
	}
}

func TestLastRunEmptyLedger(t *testing.T) {
	store, _ := testStore(t)

	last, err := store.LastRun(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last != nil {
		t.Errorf("expected nil for empty ledger, got %+v", last)
	}
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.RecordRun(ctx, sampleRun(OutcomeFailure, "dependencies")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordRun(ctx, sampleRun(OutcomeSuccess, "")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordRun(ctx, sampleRun(OutcomeFailure, "venv")); err != nil {
		t.Fatal(err)
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].FailedStep != "venv" || runs[1].Outcome != OutcomeSuccess {
		t.Errorf("runs not in most-recent-first order: %+v", runs)
	}
}

func TestFailedRunRecordsStep(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.RecordRun(ctx, sampleRun(OutcomeFailure, "dependencies")); err != nil {
		t.Fatal(err)
	}

	last, err := store.LastRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last.FailedStep != "dependencies" {
		t.Errorf("failed step = %q, want %q", last.FailedStep, "dependencies")
	}
	if len(last.Packages) != 0 {
		t.Errorf("failed run should record no packages, got %+v", last.Packages)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	root := t.TempDir()

	store, err := Open(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordRun(context.Background(), sampleRun(OutcomeSuccess, "")); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(root)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	runs, err := reopened.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs after reopen, want 1", len(runs))
	}
}
