package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// timeLayout is a fixed-width UTC layout so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	logrus.WithField("component", "history").Debug("migrating schema")
	return migrate(ctx, s.db)
}

// SaveRun stores a run and its process rows in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	logrus.WithFields(logrus.Fields{"component": "history", "id": run.ID, "policy": run.Policy}).Debug("saving run")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, policy, workload, trace_digest, total_ticks, idle_ticks, blocked_ticks,
		 context_switches, stuck, truncated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Policy, run.Workload, run.TraceDigest, run.TotalTicks, run.IdleTicks, run.BlockedTicks,
		run.ContextSwitches, run.Stuck, run.Truncated, run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	for _, p := range run.Processes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_processes (run_id, pid, priority, lifespan, fork_tick, first_run_tick, exit_tick,
			 run_ticks, blocked_ticks)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, p.PID, p.Priority, p.Lifespan, p.ForkTick, p.FirstRunTick, p.ExitTick, p.RunTicks, p.BlockedTicks,
		)
		if err != nil {
			return fmt.Errorf("insert process %d of run %s: %w", p.PID, run.ID, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, policy, workload, trace_digest, total_ticks, idle_ticks, blocked_ticks,
	context_switches, stuck, truncated, created_at`

// ListRuns returns the most recent runs first, without process rows.
// A non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its process rows ordered by pid.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pid, priority, lifespan, fork_tick, first_run_tick, exit_tick, run_ticks, blocked_ticks
		 FROM run_processes WHERE run_id = ? ORDER BY pid`, id)
	if err != nil {
		return nil, fmt.Errorf("list processes of run %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var p ProcessRow
		if err := rows.Scan(&p.PID, &p.Priority, &p.Lifespan, &p.ForkTick, &p.FirstRunTick, &p.ExitTick,
			&p.RunTicks, &p.BlockedTicks); err != nil {
			return nil, err
		}
		run.Processes = append(run.Processes, p)
	}
	return run, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var createdAt string
	err := sc.Scan(&run.ID, &run.Policy, &run.Workload, &run.TraceDigest, &run.TotalTicks, &run.IdleTicks,
		&run.BlockedTicks, &run.ContextSwitches, &run.Stuck, &run.Truncated, &createdAt)
	if err != nil {
		return nil, err
	}
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &run, nil
}
