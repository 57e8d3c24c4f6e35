package database

import (
	"fmt"
	"time"
)

// RecoveryEvent is one escalator run against one window, recorded so
// operators can audit which fallback layer fired and how often
type RecoveryEvent struct {
	ID          int64
	RunID       int64
	WindowID    string
	WindowTitle string
	Method      string
	Succeeded   bool
	OccurredAt  time.Time
}

// RecordRecoveryEvent inserts one recovery event
func (db *DB) RecordRecoveryEvent(runID int64, windowID, windowTitle, method string, succeeded bool) error {
	_, err := db.conn.Exec(`
		INSERT INTO recovery_events (run_id, window_id, window_title, method, succeeded, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, windowID, windowTitle, method, succeeded, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record recovery event: %w", err)
	}
	return nil
}

// GetRecoveryEvents returns the events of one run, oldest first
func (db *DB) GetRecoveryEvents(runID int64) ([]RecoveryEvent, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, window_id, window_title, method, succeeded, occurred_at
		FROM recovery_events
		WHERE run_id = ?
		ORDER BY occurred_at ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recovery events: %w", err)
	}
	defer rows.Close()

	var events []RecoveryEvent
	for rows.Next() {
		var e RecoveryEvent
		err := rows.Scan(&e.ID, &e.RunID, &e.WindowID, &e.WindowTitle, &e.Method, &e.Succeeded, &e.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recovery event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetMethodBreakdown counts recovery events per method across all runs
func (db *DB) GetMethodBreakdown() (map[string]int64, error) {
	rows, err := db.conn.Query(`
		SELECT method, COUNT(*)
		FROM recovery_events
		GROUP BY method
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query method breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := make(map[string]int64)
	for rows.Next() {
		var method string
		var count int64
		if err := rows.Scan(&method, &count); err != nil {
			return nil, fmt.Errorf("failed to scan method breakdown: %w", err)
		}
		breakdown[method] = count
	}
	return breakdown, rows.Err()
}
