package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the history schema version written at bootstrap.
const SchemaVersion = "1"

// CreateSchema creates the run history tables and indexes.
// Uses a transaction for atomicity - all schema creation succeeds or fails together.
//
// Schema includes:
//   - runs: one row per harness run
//   - fixture_results: one row per fixture of a run, cascading on run delete
//   - history_metadata: schema version bookkeeping
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"fixture_results", createFixtureResultsTable},
		{"history_metadata", createHistoryMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO history_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap history_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	return nil
}

// GetSchemaVersion retrieves the schema version from history_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='history_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check history_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil // New database
	}

	var version string
	err = db.QueryRow("SELECT value FROM history_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in history_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// Table DDL constants

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,                     -- UUID assigned by the runner
    started_at TEXT NOT NULL,                    -- UTC, fixed width so it sorts
    duration_ms INTEGER NOT NULL DEFAULT 0,
    passed INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0           -- Fixtures excluded by the name filter
)
`

const createFixtureResultsTable = `
CREATE TABLE IF NOT EXISTS fixture_results (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,                   -- Fixture order within the run
    fixture TEXT NOT NULL,
    path TEXT NOT NULL,
    stage TEXT NOT NULL,                         -- Terminal stage: passed or failed
    passed INTEGER NOT NULL DEFAULT 0,           -- Boolean
    error TEXT,                                  -- Fixture-fatal error message, NULL when none
    duration_ms INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)
`

const createHistoryMetadataTable = `
CREATE TABLE IF NOT EXISTS history_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_fixture_results_fixture ON fixture_results(fixture)`,
}
