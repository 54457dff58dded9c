// Package run defines the durable checkpoint for a pipeline run and
// the storage contract it is persisted through.
//
// A run has exactly one checkpoint row, keyed by run ID and overwritten
// atomically on every commit. The checkpoint snapshots the full state
// record plus the name of the next stage to execute, which is all a
// process needs to resume the run after a restart.
package run

import (
	"context"
	"time"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/invoice"
)

// Checkpoint is the single durable row for a run.
type Checkpoint struct {
	invoiceflow.Entity

	ID    id.CheckpointID `json:"id"`
	RunID id.RunID        `json:"run_id"`

	// Record is the full state snapshot at commit time.
	Record *invoice.Record `json:"record"`

	// PendingStage names the next stage to execute. Empty once the run
	// reaches a terminal status.
	PendingStage string `json:"pending_stage,omitempty"`

	// Suspended marks a run parked at the decision stage awaiting a
	// human verdict. Only suspended runs accept Resume or Cancel.
	Suspended bool `json:"suspended"`
}

// NewCheckpoint creates a checkpoint for a record with the given next
// stage.
func NewCheckpoint(record *invoice.Record, pendingStage string) *Checkpoint {
	return &Checkpoint{
		Entity:       invoiceflow.NewEntity(),
		ID:           id.NewCheckpointID(),
		RunID:        record.RunID,
		Record:       record,
		PendingStage: pendingStage,
	}
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	cp := *c
	if c.Record != nil {
		cp.Record = c.Record.Clone()
	}

	return &cp
}

// Touch bumps UpdatedAt ahead of a commit.
func (c *Checkpoint) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

// ListOpts filters and bounds checkpoint listings.
type ListOpts struct {
	// Suspended filters on the suspended flag when non-nil.
	Suspended *bool
	// Status filters on the record's workflow status when non-empty.
	Status invoice.Status
	// Limit bounds the result set; zero means no limit.
	Limit int
}

// Store is the persistence contract for checkpoints.
//
// Put is a full-row upsert: the previous checkpoint for the run, if
// any, is replaced atomically, so a reader never observes a partially
// written row. Implementations must return copies so callers cannot
// mutate persisted state through aliased pointers.
type Store interface {
	// Put atomically writes the checkpoint, replacing any prior row
	// for the same run.
	Put(ctx context.Context, cp *Checkpoint) error

	// Get returns the checkpoint for a run, or
	// invoiceflow.ErrRunNotFound.
	Get(ctx context.Context, runID id.RunID) (*Checkpoint, error)

	// List returns checkpoints matching opts, newest first.
	List(ctx context.Context, opts ListOpts) ([]*Checkpoint, error)

	// Delete removes the checkpoint for a run. Deleting a missing run
	// returns invoiceflow.ErrRunNotFound.
	Delete(ctx context.Context, runID id.RunID) error

	// Close releases the store's resources.
	Close() error
}
