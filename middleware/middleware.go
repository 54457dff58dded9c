// Package middleware provides composable middleware for stage execution.
// Middleware wraps stage calls synchronously and can modify execution
// (recover from panics, enforce deadlines, log, add tracing, etc.).
package middleware

import (
	"context"
	"time"

	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/invoice"
)

// Step describes one stage execution for middleware to observe.
type Step struct {
	// Stage is the name of the stage being executed.
	Stage string
	// RunID identifies the run the stage belongs to.
	RunID id.RunID
	// Record is the state record the stage mutates.
	Record *invoice.Record
	// Timeout bounds the stage's execution when non-zero.
	Timeout time.Duration
	// Resumed marks a stage re-invoked with an injected decision.
	Resumed bool
}

// Handler is the terminal function that executes stage logic.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the step being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, s *Step, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, s *Step, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, s, prev)
			}
		}
		return h(ctx)
	}
}
