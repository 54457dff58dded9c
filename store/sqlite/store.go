// Package sqlite provides a SQLite-backed checkpoint store for
// single-node deployments that need durability across restarts.
// Checkpoints are stored one row per run with the state record as a
// JSON column; Put is an upsert, so the previous row is replaced in a
// single statement.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/invoice"
	"github.com/xraph/invoiceflow/run"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id        TEXT PRIMARY KEY,
	checkpoint_id TEXT NOT NULL,
	record        TEXT NOT NULL,
	pending_stage TEXT NOT NULL DEFAULT '',
	suspended     INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_suspended ON checkpoints(suspended);
CREATE INDEX IF NOT EXISTS idx_checkpoints_status ON checkpoints(status);
`

// Store is a SQLite-backed run.Store implementation.
type Store struct {
	db *sql.DB
}

var _ run.Store = (*Store)(nil)

// Open opens (creating if needed) the SQLite database at path and
// applies the schema. WAL mode and a busy timeout are enabled so a
// writer never hard-fails on a concurrent reader.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("invoiceflow/sqlite: open: %w", err)
	}

	// modernc's driver is not safe for concurrent writes over multiple
	// connections; a single connection serializes them.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, err
	}

	return s, nil
}

// New wraps an existing database handle. The caller keeps ownership of
// the handle's lifecycle until Close is called.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("invoiceflow/sqlite: migrate: %w", err)
	}

	return nil
}

// Put implements run.Store. The upsert replaces the previous row in a
// single statement, so readers never observe a partial write.
func (s *Store) Put(ctx context.Context, cp *run.Checkpoint) error {
	record, err := json.Marshal(cp.Record)
	if err != nil {
		return fmt.Errorf("invoiceflow/sqlite: marshal record: %w", err)
	}

	status := ""
	if cp.Record != nil {
		status = string(cp.Record.Status)
	}

	const q = `
INSERT INTO checkpoints (run_id, checkpoint_id, record, pending_stage, suspended, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
	checkpoint_id = excluded.checkpoint_id,
	record        = excluded.record,
	pending_stage = excluded.pending_stage,
	suspended     = excluded.suspended,
	status        = excluded.status,
	updated_at    = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, q,
		cp.RunID.String(),
		cp.ID.String(),
		string(record),
		cp.PendingStage,
		boolToInt(cp.Suspended),
		status,
		cp.CreatedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("invoiceflow/sqlite: put checkpoint: %w", err)
	}

	return nil
}

// Get implements run.Store.
func (s *Store) Get(ctx context.Context, runID id.RunID) (*run.Checkpoint, error) {
	const q = `
SELECT run_id, checkpoint_id, record, pending_stage, suspended, created_at, updated_at
FROM checkpoints WHERE run_id = ?`

	cp, err := scanCheckpoint(s.db.QueryRowContext(ctx, q, runID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoiceflow.ErrRunNotFound
		}
		return nil, fmt.Errorf("invoiceflow/sqlite: get checkpoint: %w", err)
	}

	return cp, nil
}

// List implements run.Store.
func (s *Store) List(ctx context.Context, opts run.ListOpts) ([]*run.Checkpoint, error) {
	var (
		conds []string
		args  []any
	)
	if opts.Suspended != nil {
		conds = append(conds, "suspended = ?")
		args = append(args, boolToInt(*opts.Suspended))
	}
	if opts.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(opts.Status))
	}

	q := "SELECT run_id, checkpoint_id, record, pending_stage, suspended, created_at, updated_at FROM checkpoints"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY updated_at DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("invoiceflow/sqlite: list checkpoints: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*run.Checkpoint
	for rows.Next() {
		cp, scanErr := scanCheckpoint(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("invoiceflow/sqlite: list scan: %w", scanErr)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoiceflow/sqlite: list rows: %w", err)
	}

	return out, nil
}

// Delete implements run.Store.
func (s *Store) Delete(ctx context.Context, runID id.RunID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE run_id = ?", runID.String())
	if err != nil {
		return fmt.Errorf("invoiceflow/sqlite: delete checkpoint: %w", err)
	}

	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return invoiceflow.ErrRunNotFound
	}

	return nil
}

// Close implements run.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows for scanCheckpoint.
type scanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row scanner) (*run.Checkpoint, error) {
	var (
		runID, cpID, record, pendingStage string
		suspended                         int
		createdAt, updatedAt              string
	)
	if err := row.Scan(&runID, &cpID, &record, &pendingStage, &suspended, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	cp := &run.Checkpoint{
		PendingStage: pendingStage,
		Suspended:    suspended != 0,
	}

	var err error
	if cp.RunID, err = id.ParseRunID(runID); err != nil {
		return nil, err
	}
	if cp.ID, err = id.ParseCheckpointID(cpID); err != nil {
		return nil, err
	}

	rec := new(invoice.Record)
	if err := json.Unmarshal([]byte(record), rec); err != nil {
		return nil, err
	}
	cp.Record = rec

	if cp.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if cp.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, err
	}

	return cp, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
