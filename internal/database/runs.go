package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one process lifetime's summary row. Per-cycle detection data is
// never persisted; only aggregate counters survive the process.
type Run struct {
	ID                  int64
	StartedAt           time.Time
	FinishedAt          sql.NullTime
	Profile             string
	DryRun              bool
	Cycles              int64
	WindowsProcessed    int64
	CandidatesFound     int64
	ClicksAttempted     int64
	ClicksSucceeded     int64
	FreezesDetected     int64
	RecoveriesTriggered int64
	Errors              int64
}

// RunTotals carries the final counters written when a run ends
type RunTotals struct {
	Cycles              int64
	WindowsProcessed    int64
	CandidatesFound     int64
	ClicksAttempted     int64
	ClicksSucceeded     int64
	FreezesDetected     int64
	RecoveriesTriggered int64
	Errors              int64
}

// StartRun inserts a new run row and returns its id
func (db *DB) StartRun(profile string, dryRun bool) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO runs (started_at, profile, dry_run)
		VALUES (?, ?, ?)
	`, time.Now(), profile, dryRun)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return result.LastInsertId()
}

// FinishRun stamps the end time and final counters on a run
func (db *DB) FinishRun(runID int64, totals RunTotals) error {
	_, err := db.conn.Exec(`
		UPDATE runs
		SET finished_at = ?,
		    cycles = ?,
		    windows_processed = ?,
		    candidates_found = ?,
		    clicks_attempted = ?,
		    clicks_succeeded = ?,
		    freezes_detected = ?,
		    recoveries_triggered = ?,
		    errors = ?
		WHERE id = ?
	`, time.Now(), totals.Cycles, totals.WindowsProcessed, totals.CandidatesFound,
		totals.ClicksAttempted, totals.ClicksSucceeded, totals.FreezesDetected,
		totals.RecoveriesTriggered, totals.Errors, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// GetRecentRuns returns the newest runs, most recent first
func (db *DB) GetRecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, profile, dry_run,
		       cycles, windows_processed, candidates_found,
		       clicks_attempted, clicks_succeeded,
		       freezes_detected, recoveries_triggered, errors
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Profile, &r.DryRun,
			&r.Cycles, &r.WindowsProcessed, &r.CandidatesFound,
			&r.ClicksAttempted, &r.ClicksSucceeded,
			&r.FreezesDetected, &r.RecoveriesTriggered, &r.Errors)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
