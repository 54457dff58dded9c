package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/invoiceflow/hook"
	"github.com/xraph/invoiceflow/invoice"
)

// Compile-time interface checks.
var (
	_ hook.Extension      = (*Extension)(nil)
	_ hook.RunStarted     = (*Extension)(nil)
	_ hook.StageCompleted = (*Extension)(nil)
	_ hook.RunSuspended   = (*Extension)(nil)
	_ hook.RunResumed     = (*Extension)(nil)
	_ hook.RunCompleted   = (*Extension)(nil)
	_ hook.RunFailed      = (*Extension)(nil)
	_ hook.RunCancelled   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not import
// any particular audit system — callers inject the concrete backend at
// wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges run lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements hook.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Run lifecycle hooks ─────────────────────────────

// OnRunStarted implements hook.RunStarted.
func (e *Extension) OnRunStarted(ctx context.Context, rec *invoice.Record) error {
	return e.record(ctx, ActionRunStarted, SeverityInfo, OutcomeSuccess, rec, nil,
		"document_ref", rec.DocumentRef,
	)
}

// OnStageCompleted implements hook.StageCompleted.
func (e *Extension) OnStageCompleted(ctx context.Context, rec *invoice.Record, stage string, elapsed time.Duration) error {
	return e.record(ctx, ActionStageCompleted, SeverityInfo, OutcomeSuccess, rec, nil,
		"stage", stage,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnRunSuspended implements hook.RunSuspended.
func (e *Extension) OnRunSuspended(ctx context.Context, rec *invoice.Record) error {
	return e.record(ctx, ActionRunSuspended, SeverityInfo, OutcomeSuccess, rec, nil,
		"match_score", rec.MatchScore,
		"review_link", rec.ReviewLink,
	)
}

// OnRunResumed implements hook.RunResumed.
func (e *Extension) OnRunResumed(ctx context.Context, rec *invoice.Record, dec *invoice.Decision) error {
	meta := []any{"action", string(dec.Action)}
	if dec.Note != "" {
		meta = append(meta, "note", dec.Note)
	}
	return e.record(ctx, ActionRunResumed, SeverityInfo, OutcomeSuccess, rec, nil, meta...)
}

// OnRunCompleted implements hook.RunCompleted.
func (e *Extension) OnRunCompleted(ctx context.Context, rec *invoice.Record, elapsed time.Duration) error {
	return e.record(ctx, ActionRunCompleted, SeverityInfo, OutcomeSuccess, rec, nil,
		"status", string(rec.Status),
		"approval_outcome", string(rec.ApprovalOutcome),
		"external_txn_id", rec.ExternalTxnID,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnRunFailed implements hook.RunFailed.
func (e *Extension) OnRunFailed(ctx context.Context, rec *invoice.Record, runErr error) error {
	return e.record(ctx, ActionRunFailed, SeverityCritical, OutcomeFailure, rec, runErr,
		"document_ref", rec.DocumentRef,
	)
}

// OnRunCancelled implements hook.RunCancelled.
func (e *Extension) OnRunCancelled(ctx context.Context, rec *invoice.Record) error {
	return e.record(ctx, ActionRunCancelled, SeverityWarning, OutcomeSuccess, rec, nil,
		"invoice_ref", rec.InvoiceRef,
	)
}

// ── Internals ────────────────────────────────────────

// record builds and emits one audit event. kv pairs become Metadata.
func (e *Extension) record(ctx context.Context, action, severity, outcome string, rec *invoice.Record, cause error, kv ...any) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   ResourceRun,
		Category:   CategoryRun,
		ResourceID: rec.RunID.String(),
		Outcome:    outcome,
		Severity:   severity,
	}
	if cause != nil {
		evt.Reason = cause.Error()
	}
	if len(kv) > 0 {
		evt.Metadata = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				key = fmt.Sprint(kv[i])
			}
			evt.Metadata[key] = kv[i+1]
		}
	}

	if err := e.recorder.Record(ctx, evt); err != nil {
		e.logger.Warn("audit record failed",
			slog.String("action", action),
			slog.String("run_id", evt.ResourceID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
