package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
	Down        func(*sql.Tx) error
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
		Down:        migration001Down,
	},
	{
		Version:     2,
		Description: "Create runs table",
		Up:          migration002Up,
		Down:        migration002Down,
	},
	{
		Version:     3,
		Description: "Create recovery_events table",
		Up:          migration003Up,
		Down:        migration003Down,
	},
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, migration.Version, migration.Description, time.Now())

			return err
		})

		if err != nil {
			return err
		}
	}

	return nil
}

// getCurrentVersion returns the current schema version
func (db *DB) getCurrentVersion() (int, error) {
	var tableExists bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)
	if err != nil {
		return 0, err
	}
	if !tableExists {
		return 0, nil
	}

	return db.GetVersion()
}

func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func migration001Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS schema_version`)
	return err
}

func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			profile TEXT NOT NULL,
			dry_run INTEGER NOT NULL DEFAULT 0,
			cycles INTEGER NOT NULL DEFAULT 0,
			windows_processed INTEGER NOT NULL DEFAULT 0,
			candidates_found INTEGER NOT NULL DEFAULT 0,
			clicks_attempted INTEGER NOT NULL DEFAULT 0,
			clicks_succeeded INTEGER NOT NULL DEFAULT 0,
			freezes_detected INTEGER NOT NULL DEFAULT 0,
			recoveries_triggered INTEGER NOT NULL DEFAULT 0,
			errors INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

func migration002Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS runs`)
	return err
}

func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS recovery_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			window_id TEXT NOT NULL,
			window_title TEXT,
			method TEXT NOT NULL,
			succeeded INTEGER NOT NULL,
			occurred_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_recovery_events_run
		ON recovery_events(run_id)
	`)
	return err
}

func migration003Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS recovery_events`)
	return err
}
