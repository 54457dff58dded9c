// Package stage defines the invoice pipeline: the named stages, the
// routing between them, and the Pipeline that executes one stage at a
// time against a state record.
//
// The graph is fixed. Runs flow INTAKE → UNDERSTAND → PREPARE →
// RETRIEVE → MATCH, then route on the match score: at or above the
// auto-approve threshold they continue to RECONCILE, below it they
// detour through CHECKPOINT → DECIDE for human review. A rejection at
// DECIDE routes straight to COMPLETE; an approval rejoins at RECONCILE.
// The tail is RECONCILE → APPROVE → POST → NOTIFY → COMPLETE.
package stage

import "errors"

// Name identifies a pipeline stage.
type Name string

// The pipeline stages, in forward execution order.
const (
	Intake     Name = "INTAKE"
	Understand Name = "UNDERSTAND"
	Prepare    Name = "PREPARE"
	Retrieve   Name = "RETRIEVE"
	Match      Name = "MATCH"
	Checkpoint Name = "CHECKPOINT"
	Decide     Name = "DECIDE"
	Reconcile  Name = "RECONCILE"
	Approve    Name = "APPROVE"
	Post       Name = "POST"
	Notify     Name = "NOTIFY"
	Complete   Name = "COMPLETE"
)

// First returns the entry stage of the pipeline.
func First() Name { return Intake }

// Valid reports whether n names a known stage.
func (n Name) Valid() bool {
	switch n {
	case Intake, Understand, Prepare, Retrieve, Match, Checkpoint,
		Decide, Reconcile, Approve, Post, Notify, Complete:
		return true
	default:
		return false
	}
}

// ErrAwaitingDecision is returned by Pipeline.Execute when the decision
// stage runs without a decision. It is a control signal, not a failure:
// the caller should persist a suspended checkpoint and stop advancing
// until a decision arrives.
var ErrAwaitingDecision = errors.New("stage: awaiting human decision")

// IsSuspension reports whether err is the suspension control signal.
func IsSuspension(err error) bool {
	return errors.Is(err, ErrAwaitingDecision)
}
