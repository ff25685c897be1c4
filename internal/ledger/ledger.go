// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists bootstrap run history in a SQLite database under
// <root>/.labenv/. The status and history commands read it; setup writes
// one record per run. Ledger failures never fail a bootstrap run.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// StateDir is the ledger directory name under the workspace root.
const StateDir = ".labenv"

const dbFile = "ledger.db"

// Run outcomes stored in the ledger.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// StepRecord is one step outcome within a run.
type StepRecord struct {
	ID     string
	Status string
}

// PackageRecord is one installed package captured after a successful run.
type PackageRecord struct {
	Name    string
	Version string
}

// Run is one bootstrap run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	FailedStep string
	Steps      []StepRecord
	Packages   []PackageRecord
}

// Store manages the run ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database under rootDir/.labenv/ and
// creates the schema if it does not exist.
func Open(rootDir string) (*Store, error) {
	dir := filepath.Join(rootDir, StateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			outcome TEXT NOT NULL,
			failed_step TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_steps (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			step_id TEXT NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS run_packages (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			PRIMARY KEY (run_id, name)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun inserts a run with its step outcomes and package inventory,
// returning the assigned run ID.
func (s *Store) RecordRun(ctx context.Context, run Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, outcome, failed_step) VALUES (?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Outcome, run.FailedStep,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for i, step := range run.Steps {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_steps (run_id, position, step_id, status) VALUES (?, ?, ?, ?)`,
			runID, i, step.ID, step.Status,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting step %s: %w", step.ID, err)
		}
	}

	for _, pkg := range run.Packages {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO run_packages (run_id, name, version) VALUES (?, ?, ?)`,
			runID, pkg.Name, pkg.Version,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting package %s: %w", pkg.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// LastRun returns the most recent run, or nil when the ledger is empty.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	runs, err := s.RecentRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// RecentRuns returns up to limit runs, most recent first, with their step
// outcomes and package inventories attached.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, failed_step
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			finished   string
			failedStep sql.NullString
		)
		if err := rows.Scan(&run.ID, &startedAt, &finished, &run.Outcome, &failedStep); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		run.FailedStep = failedStep.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		if err := s.attachChildren(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) attachChildren(ctx context.Context, run *Run) error {
	stepRows, err := s.db.QueryContext(ctx,
		`SELECT step_id, status FROM run_steps WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return fmt.Errorf("querying steps for run %d: %w", run.ID, err)
	}
	defer stepRows.Close()
	for stepRows.Next() {
		var step StepRecord
		if err := stepRows.Scan(&step.ID, &step.Status); err != nil {
			return fmt.Errorf("scanning step: %w", err)
		}
		run.Steps = append(run.Steps, step)
	}
	if err := stepRows.Err(); err != nil {
		return fmt.Errorf("iterating steps: %w", err)
	}

	pkgRows, err := s.db.QueryContext(ctx,
		`SELECT name, version FROM run_packages WHERE run_id = ? ORDER BY name`, run.ID)
	if err != nil {
		return fmt.Errorf("querying packages for run %d: %w", run.ID, err)
	}
	defer pkgRows.Close()
	for pkgRows.Next() {
		var pkg PackageRecord
		if err := pkgRows.Scan(&pkg.Name, &pkg.Version); err != nil {
			return fmt.Errorf("scanning package: %w", err)
		}
		run.Packages = append(run.Packages, pkg)
	}
	return pkgRows.Err()
}
