// Package invoiceflow provides a durable, checkpoint-based workflow engine
// for invoice processing. A fixed twelve-stage pipeline extracts data from a
// document, enriches and cross-checks it against purchase orders, suspends
// for human review when the two-way match is weak, posts to an external
// ledger, and notifies stakeholders.
//
// Invoiceflow is designed as a library first. Import it, configure a
// checkpoint store and a set of collaborators, and drive runs through the
// engine (cmd/invoiceflowd wraps the same engine in an HTTP API):
//
//	eng, err := engine.New(invoiceflow.DefaultConfig(), store, collaborators,
//	    engine.WithLogger(logger),
//	)
//	cp, err := eng.Start(ctx, "invoice_good.png")
//	if cp.Suspended {
//	    cp, err = eng.Resume(ctx, cp.RunID, invoice.Decision{Action: invoice.ActionApprove})
//	}
//
// # Architecture
//
// The engine never blocks while a run awaits a human decision. Each step
// commits a durable checkpoint (full state record + next pending stage) and
// a suspended run is nothing more than its persisted checkpoint; Resume is a
// distinct entry point that reloads it and continues.
//
// The checkpoint store is a small per-run keyed contract with Memory,
// SQLite, Postgres, and Redis backends.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package invoiceflow
