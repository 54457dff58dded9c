package client

import "github.com/xraph/invoiceflow/invoice"

// Run is the client-side view of a run, as returned by the server.
// A suspended run reports Status "SUSPENDED" with the stage it parked
// at in PendingStage.
type Run struct {
	RunID           string                `json:"run_id"`
	Status          string                `json:"status"`
	PendingStage    string                `json:"pending_stage,omitempty"`
	InvoiceRef      string                `json:"invoice_ref"`
	DocumentRef     string                `json:"document_ref"`
	MatchScore      float64               `json:"match_score"`
	ReviewLink      string                `json:"review_link,omitempty"`
	ReviewSummary   string                `json:"review_summary,omitempty"`
	ApprovalOutcome string                `json:"approval_outcome,omitempty"`
	ExternalTxnID   string                `json:"external_txn_id,omitempty"`
	RiskFlags       []invoice.RiskFlag    `json:"risk_flags,omitempty"`
	LedgerEntries   []invoice.LedgerEntry `json:"ledger_entries,omitempty"`
	AuditLog        []string              `json:"audit_log,omitempty"`
}

// Suspended reports whether the run is parked awaiting a decision.
func (r *Run) Suspended() bool { return r.Status == "SUSPENDED" }

// Terminal reports whether the run has finished.
func (r *Run) Terminal() bool {
	return invoice.Status(r.Status).Terminal()
}

// ListOpts filters a List call. Zero values mean "no filter".
type ListOpts struct {
	// Suspended filters on the suspension flag when non-nil.
	Suspended *bool
	// Status filters on record status, e.g. "SUCCESS".
	Status string
	// Limit caps the number of runs returned.
	Limit int
}
