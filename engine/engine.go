// Package engine drives invoice runs through the stage pipeline with a
// durable checkpoint committed after every stage. A run that suspends
// for human review survives process restarts: Resume loads the
// checkpoint, re-executes the decision stage with the verdict injected,
// and continues from where the run parked.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/collab"
	"github.com/xraph/invoiceflow/hook"
	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/invoice"
	"github.com/xraph/invoiceflow/run"
	"github.com/xraph/invoiceflow/stage"
)

// Engine executes invoice runs. A single Engine serves any number of
// concurrent runs; per-run operations are serialized by a keyed lock
// so Start, Resume, and Cancel never interleave on the same run.
type Engine struct {
	cfg      invoiceflow.Config
	store    run.Store
	pipeline *stage.Pipeline
	hooks    *hook.Registry
	logger   *slog.Logger
	locks    keyedMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithHooks sets the extension registry notified of run lifecycle
// events.
func WithHooks(reg *hook.Registry) Option {
	return func(e *Engine) { e.hooks = reg }
}

// WithPipeline replaces the default pipeline. Useful for injecting
// custom middleware or tool selection in tests.
func WithPipeline(p *stage.Pipeline) Option {
	return func(e *Engine) { e.pipeline = p }
}

// New creates an Engine over the given store and collaborators.
func New(cfg invoiceflow.Config, store run.Store, set collab.Set, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, invoiceflow.ErrNoStore
	}

	e := &Engine{
		cfg:    cfg,
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.hooks == nil {
		e.hooks = hook.NewRegistry(e.logger)
	}
	if e.pipeline == nil {
		p, err := stage.New(cfg, set, stage.WithLogger(e.logger))
		if err != nil {
			return nil, err
		}
		e.pipeline = p
	}

	return e, nil
}

// Start begins a new run for the given document reference and executes
// it until it reaches a terminal status or suspends for human review.
// Validation failures at intake abort the run before anything is
// persisted.
func (e *Engine) Start(ctx context.Context, documentRef string) (*run.Checkpoint, error) {
	rec := invoice.NewRecord(id.NewRunID(), documentRef)

	unlock := e.locks.lock(rec.RunID.String())
	defer unlock()

	e.hooks.EmitRunStarted(ctx, rec)

	// Intake runs before the first checkpoint commit: a validation
	// failure aborts the run with nothing persisted.
	started := time.Now()
	if err := e.pipeline.Execute(ctx, stage.Intake, rec, nil); err != nil {
		return nil, err
	}
	e.hooks.EmitStageCompleted(ctx, rec, string(stage.Intake), time.Since(started))

	cp := run.NewCheckpoint(rec, string(stage.Understand))
	if err := e.store.Put(ctx, cp); err != nil {
		return nil, fmt.Errorf("engine: persist checkpoint: %w", err)
	}

	return e.advance(ctx, cp, nil)
}

// Resume delivers a human decision to a suspended run and executes it
// to its next rest point. Runs that are not suspended (still running,
// already resumed, or terminal) fail with ErrInvalidResume.
func (e *Engine) Resume(ctx context.Context, runID id.RunID, dec invoice.Decision) (*run.Checkpoint, error) {
	if dec.Action != invoice.ActionApprove && dec.Action != invoice.ActionReject {
		return nil, fmt.Errorf("%w: unknown action %q", invoiceflow.ErrValidation, dec.Action)
	}

	unlock := e.locks.lock(runID.String())
	defer unlock()

	cp, err := e.store.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !cp.Suspended {
		return nil, invoiceflow.ErrInvalidResume
	}

	e.hooks.EmitRunResumed(ctx, cp.Record, &dec)
	cp.Suspended = false

	return e.advance(ctx, cp, &dec)
}

// Cancel terminates a suspended run. Only suspended runs can be
// cancelled; anything else fails with ErrNotSuspended.
func (e *Engine) Cancel(ctx context.Context, runID id.RunID) (*run.Checkpoint, error) {
	unlock := e.locks.lock(runID.String())
	defer unlock()

	cp, err := e.store.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !cp.Suspended {
		return nil, invoiceflow.ErrNotSuspended
	}

	cp.Suspended = false
	cp.PendingStage = ""
	cp.Record.Status = invoice.StatusCancelled
	cp.Record.Audit("CANCELLED: run cancelled while awaiting review")
	cp.Touch()
	if err := e.store.Put(ctx, cp); err != nil {
		return nil, fmt.Errorf("engine: persist checkpoint: %w", err)
	}

	e.hooks.EmitRunCancelled(ctx, cp.Record)

	return cp, nil
}

// Get returns the checkpoint for a run.
func (e *Engine) Get(ctx context.Context, runID id.RunID) (*run.Checkpoint, error) {
	return e.store.Get(ctx, runID)
}

// List returns checkpoints matching opts.
func (e *Engine) List(ctx context.Context, opts run.ListOpts) ([]*run.Checkpoint, error) {
	return e.store.List(ctx, opts)
}

// Close notifies shutdown hooks and closes the store.
func (e *Engine) Close(ctx context.Context) error {
	e.hooks.EmitShutdown(ctx)

	return e.store.Close()
}

// advance executes stages from the checkpoint's pending stage until the
// run suspends, terminates, or fails. The checkpoint is committed after
// every stage; a persistence failure halts advancement immediately.
// The decision is consumed by the first stage executed.
func (e *Engine) advance(ctx context.Context, cp *run.Checkpoint, dec *invoice.Decision) (*run.Checkpoint, error) {
	current := stage.Name(cp.PendingStage)

	for {
		started := time.Now()
		err := e.pipeline.Execute(ctx, current, cp.Record, dec)
		dec = nil

		if stage.IsSuspension(err) {
			cp.PendingStage = string(current)
			cp.Suspended = true
			cp.Touch()
			if perr := e.store.Put(ctx, cp); perr != nil {
				return nil, fmt.Errorf("engine: persist checkpoint: %w", perr)
			}
			e.hooks.EmitRunSuspended(ctx, cp.Record)

			return cp, nil
		}
		if err != nil {
			return e.fail(ctx, cp, current, err)
		}

		e.hooks.EmitStageCompleted(ctx, cp.Record, string(current), time.Since(started))

		next, ok := e.pipeline.Next(current, cp.Record)
		if !ok {
			cp.PendingStage = ""
			cp.Touch()
			if perr := e.store.Put(ctx, cp); perr != nil {
				return nil, fmt.Errorf("engine: persist checkpoint: %w", perr)
			}
			e.hooks.EmitRunCompleted(ctx, cp.Record, time.Since(cp.CreatedAt))

			return cp, nil
		}

		current = next
		cp.PendingStage = string(current)
		cp.Touch()
		if perr := e.store.Put(ctx, cp); perr != nil {
			return nil, fmt.Errorf("engine: persist checkpoint: %w", perr)
		}
	}
}

// fail marks the run FAILED, persists the terminal checkpoint on a best
// effort basis, and surfaces the stage error.
func (e *Engine) fail(ctx context.Context, cp *run.Checkpoint, current stage.Name, stageErr error) (*run.Checkpoint, error) {
	cp.Record.Status = invoice.StatusFailed
	cp.Record.Audit("FAILED: stage %s: %v", current, stageErr)
	cp.PendingStage = ""
	cp.Suspended = false
	cp.Touch()
	if perr := e.store.Put(ctx, cp); perr != nil {
		e.logger.Error("failed to persist terminal checkpoint",
			slog.String("run_id", cp.RunID.String()),
			slog.String("error", perr.Error()),
		)
	}

	e.hooks.EmitRunFailed(ctx, cp.Record, stageErr)

	return cp, fmt.Errorf("engine: stage %s: %w", current, stageErr)
}
