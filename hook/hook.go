// Package hook defines the extension system for invoiceflow.
// Extensions are notified of run lifecycle events (started, suspended,
// resumed, completed, failed, cancelled) and can react to them —
// logging, metrics, audit shipping, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package hook

import (
	"context"
	"time"

	"github.com/xraph/invoiceflow/invoice"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Run lifecycle hooks
// ──────────────────────────────────────────────────

// RunStarted is called when a run begins executing.
type RunStarted interface {
	OnRunStarted(ctx context.Context, rec *invoice.Record) error
}

// StageCompleted is called after each stage commits its checkpoint.
type StageCompleted interface {
	OnStageCompleted(ctx context.Context, rec *invoice.Record, stage string, elapsed time.Duration) error
}

// RunSuspended is called when a run parks for human review.
type RunSuspended interface {
	OnRunSuspended(ctx context.Context, rec *invoice.Record) error
}

// RunResumed is called when a suspended run accepts a decision.
type RunResumed interface {
	OnRunResumed(ctx context.Context, rec *invoice.Record, dec *invoice.Decision) error
}

// RunCompleted is called when a run reaches SUCCESS or REJECTED.
type RunCompleted interface {
	OnRunCompleted(ctx context.Context, rec *invoice.Record, elapsed time.Duration) error
}

// RunFailed is called when a run terminates with FAILED.
type RunFailed interface {
	OnRunFailed(ctx context.Context, rec *invoice.Record, err error) error
}

// RunCancelled is called when a suspended run is cancelled.
type RunCancelled interface {
	OnRunCancelled(ctx context.Context, rec *invoice.Record) error
}

// Shutdown is called when the engine shuts down, before stores close.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
