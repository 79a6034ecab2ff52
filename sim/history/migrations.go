package history

import (
	"context"
	"database/sql"
	"fmt"
)

// schema contains the DDL for the run history tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id               TEXT PRIMARY KEY,
		policy           TEXT NOT NULL,
		workload         TEXT NOT NULL DEFAULT '',
		trace_digest     TEXT NOT NULL,
		total_ticks      INTEGER NOT NULL,
		idle_ticks       INTEGER NOT NULL DEFAULT 0,
		blocked_ticks    INTEGER NOT NULL DEFAULT 0,
		context_switches INTEGER NOT NULL DEFAULT 0,
		stuck            INTEGER NOT NULL DEFAULT 0,
		truncated        INTEGER NOT NULL DEFAULT 0,
		created_at       TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS run_processes (
		run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		pid            INTEGER NOT NULL,
		priority       INTEGER NOT NULL,
		lifespan       INTEGER NOT NULL,
		fork_tick      INTEGER NOT NULL,
		first_run_tick INTEGER NOT NULL,
		exit_tick      INTEGER NOT NULL,
		run_ticks      INTEGER NOT NULL,
		blocked_ticks  INTEGER NOT NULL,
		PRIMARY KEY (run_id, pid)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_policy ON runs(policy)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
