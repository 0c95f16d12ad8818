// Package runlog keeps the run ledger: one row per collection invocation,
// written when a run starts and finalized when it reaches a terminal state.
// The ledger backs 'igcollect runs' and gives an audit trail of what was
// collected when, with which backend, and how it ended.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"igcollect/pkg/models"
)

// Ledger wraps *sql.DB on a modernc sqlite file
type Ledger struct {
	db *sql.DB
}

// Open opens the ledger database, creating the schema when missing
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run ledger %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate run ledger: %w", err)
	}
	return l, nil
}

// Close closes the underlying database
func (l *Ledger) Close() error { return l.db.Close() }

// migrate creates the schema, idempotent
func (l *Ledger) migrate() error {
	_, err := l.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        command TEXT NOT NULL,
        target TEXT,
        backend TEXT,
        status TEXT NOT NULL,
        units_total INTEGER DEFAULT 0,
        units_done INTEGER DEFAULT 0,
        records INTEGER DEFAULT 0,
        unit_errors INTEGER DEFAULT 0,
        started_at TIMESTAMP NOT NULL,
        finished_at TIMESTAMP,
        error_message TEXT
    );`)
	if err != nil {
		return fmt.Errorf("exec migrate: %w", err)
	}
	return nil
}

// Start records a new run in the running state and returns its id
func (l *Ledger) Start(ctx context.Context, command, target, backend string, unitsTotal int) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx, `INSERT INTO runs(id, command, target, backend, status, units_total, started_at)
        VALUES(?,?,?,?,?,?,?)`,
		id, command, target, backend, string(models.RunStatusRunning), unitsTotal, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}
	return id, nil
}

// Outcome is what a finished run reports back to the ledger
type Outcome struct {
	Status     models.RunStatus
	UnitsDone  int
	Records    int
	UnitErrors int
	Err        error
}

// Finish finalizes a run with its terminal outcome
func (l *Ledger) Finish(ctx context.Context, id string, out Outcome) error {
	errMsg := ""
	if out.Err != nil {
		errMsg = out.Err.Error()
	}
	_, err := l.db.ExecContext(ctx, `UPDATE runs
        SET status=?, units_done=?, records=?, unit_errors=?, finished_at=?, error_message=?
        WHERE id=?`,
		string(out.Status), out.UnitsDone, out.Records, out.UnitErrors, time.Now().UTC(), errMsg, id)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first
func (l *Ledger) List(ctx context.Context, limit int) ([]models.CollectionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, `SELECT id, command, target, backend, status,
        units_total, units_done, records, unit_errors, started_at, finished_at, COALESCE(error_message,'')
        FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []models.CollectionRun
	for rows.Next() {
		var r models.CollectionRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Command, &r.Target, &r.Backend, &r.Status,
			&r.UnitsTotal, &r.UnitsDone, &r.Records, &r.UnitErrors,
			&r.StartedAt, &finished, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			r.FinishedAt = finished.Time
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Get returns one run by id
func (l *Ledger) Get(ctx context.Context, id string) (*models.CollectionRun, error) {
	var r models.CollectionRun
	var finished sql.NullTime
	err := l.db.QueryRowContext(ctx, `SELECT id, command, target, backend, status,
        units_total, units_done, records, unit_errors, started_at, finished_at, COALESCE(error_message,'')
        FROM runs WHERE id=?`, id).Scan(&r.ID, &r.Command, &r.Target, &r.Backend, &r.Status,
		&r.UnitsTotal, &r.UnitsDone, &r.Records, &r.UnitErrors,
		&r.StartedAt, &finished, &r.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return &r, nil
}
