// Package postgres provides a PostgreSQL-backed checkpoint store for
// multi-node deployments. The state record is stored as JSONB and Put
// is a single upsert statement, so concurrent readers always observe a
// complete row.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/invoice"
	"github.com/xraph/invoiceflow/run"
)

const schema = `
CREATE TABLE IF NOT EXISTS invoiceflow_checkpoints (
	run_id        TEXT PRIMARY KEY,
	checkpoint_id TEXT NOT NULL,
	record        JSONB NOT NULL,
	pending_stage TEXT NOT NULL DEFAULT '',
	suspended     BOOLEAN NOT NULL DEFAULT FALSE,
	status        TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invoiceflow_ckpt_suspended ON invoiceflow_checkpoints (suspended);
CREATE INDEX IF NOT EXISTS idx_invoiceflow_ckpt_status ON invoiceflow_checkpoints (status);
`

// Store is a PostgreSQL-backed run.Store implementation.
type Store struct {
	pool *pgxpool.Pool
}

var _ run.Store = (*Store)(nil)

// Open connects to the database at dsn, verifies the connection, and
// applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("invoiceflow/postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("invoiceflow/postgres: ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// New wraps an existing pool and applies the schema.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("invoiceflow/postgres: migrate: %w", err)
	}

	return nil
}

// Put implements run.Store.
func (s *Store) Put(ctx context.Context, cp *run.Checkpoint) error {
	record, err := json.Marshal(cp.Record)
	if err != nil {
		return fmt.Errorf("invoiceflow/postgres: marshal record: %w", err)
	}

	status := ""
	if cp.Record != nil {
		status = string(cp.Record.Status)
	}

	const q = `
INSERT INTO invoiceflow_checkpoints (run_id, checkpoint_id, record, pending_stage, suspended, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (run_id) DO UPDATE SET
	checkpoint_id = EXCLUDED.checkpoint_id,
	record        = EXCLUDED.record,
	pending_stage = EXCLUDED.pending_stage,
	suspended     = EXCLUDED.suspended,
	status        = EXCLUDED.status,
	updated_at    = EXCLUDED.updated_at`

	_, err = s.pool.Exec(ctx, q,
		cp.RunID.String(),
		cp.ID.String(),
		record,
		cp.PendingStage,
		cp.Suspended,
		status,
		cp.CreatedAt.UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("invoiceflow/postgres: put checkpoint: %w", err)
	}

	return nil
}

// Get implements run.Store.
func (s *Store) Get(ctx context.Context, runID id.RunID) (*run.Checkpoint, error) {
	const q = `
SELECT run_id, checkpoint_id, record, pending_stage, suspended, created_at, updated_at
FROM invoiceflow_checkpoints WHERE run_id = $1`

	cp, err := scanCheckpoint(s.pool.QueryRow(ctx, q, runID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoiceflow.ErrRunNotFound
		}
		return nil, fmt.Errorf("invoiceflow/postgres: get checkpoint: %w", err)
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
		args = append(args, *opts.Suspended)
		conds = append(conds, fmt.Sprintf("suspended = $%d", len(args)))
	}
	if opts.Status != "" {
		args = append(args, string(opts.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	q := "SELECT run_id, checkpoint_id, record, pending_stage, suspended, created_at, updated_at FROM invoiceflow_checkpoints"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY updated_at DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("invoiceflow/postgres: list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*run.Checkpoint
	for rows.Next() {
		cp, scanErr := scanCheckpoint(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("invoiceflow/postgres: list scan: %w", scanErr)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoiceflow/postgres: list rows: %w", err)
	}

	return out, nil
}

// Delete implements run.Store.
func (s *Store) Delete(ctx context.Context, runID id.RunID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM invoiceflow_checkpoints WHERE run_id = $1", runID.String())
	if err != nil {
		return fmt.Errorf("invoiceflow/postgres: delete checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return invoiceflow.ErrRunNotFound
	}

	return nil
}

// Close implements run.Store.
func (s *Store) Close() error {
	s.pool.Close()

	return nil
}

func scanCheckpoint(row pgx.Row) (*run.Checkpoint, error) {
	var (
		runID, cpID  string
		record       []byte
		pendingStage string
		suspended    bool
		createdAt    time.Time
		updatedAt    time.Time
	)
	if err := row.Scan(&runID, &cpID, &record, &pendingStage, &suspended, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	cp := &run.Checkpoint{
		PendingStage: pendingStage,
		Suspended:    suspended,
	}
	cp.CreatedAt = createdAt
	cp.UpdatedAt = updatedAt

	var err error
	if cp.RunID, err = id.ParseRunID(runID); err != nil {
		return nil, err
	}
	if cp.ID, err = id.ParseCheckpointID(cpID); err != nil {
		return nil, err
	}

	rec := new(invoice.Record)
	if err := json.Unmarshal(record, rec); err != nil {
		return nil, err
	}
	cp.Record = rec

	return cp, nil
}
