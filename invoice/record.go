// Package invoice defines the state record threaded through the processing
// pipeline, plus the pure domain computations over it: field extraction,
// risk flagging, two-way match scoring, and ledger entry construction.
package invoice

import (
	"fmt"
	"slices"

	"github.com/xraph/invoiceflow/id"
)

// Status represents the workflow status of an invoice run.
type Status string

const (
	// StatusRunning means the run is progressing through the pipeline.
	StatusRunning Status = "RUNNING"
	// StatusApproved means a human reviewer approved the invoice.
	// It is an intermediate status; the terminal stage maps it to SUCCESS.
	StatusApproved Status = "APPROVED"
	// StatusRejected means a human reviewer rejected the invoice.
	StatusRejected Status = "REJECTED"
	// StatusSuccess means the run completed and the invoice was settled.
	StatusSuccess Status = "SUCCESS"
	// StatusCancelled means the run was cancelled while suspended.
	StatusCancelled Status = "CANCELLED"
	// StatusFailed means a stage failed in a way the degradation policy
	// does not cover (a recovered panic, a persistence fault).
	StatusFailed Status = "FAILED"
)

// Terminal reports whether the status permits no further mutation.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusRejected, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// ApprovalOutcome records how the invoice cleared approval.
type ApprovalOutcome string

const (
	// OutcomeHumanApproved means the run went through human review.
	OutcomeHumanApproved ApprovalOutcome = "HUMAN_APPROVED"
	// OutcomeAutoApproved means the run cleared the match threshold and
	// bypassed review entirely.
	OutcomeAutoApproved ApprovalOutcome = "AUTO_APPROVED"
)

// Fields holds the structured data extracted from the invoice document.
type Fields struct {
	Amount float64 `json:"amount"`
	Vendor string  `json:"vendor"`
	Date   string  `json:"date"`
}

// VendorProfile holds vendor risk attributes from the enrichment collaborator.
type VendorProfile struct {
	TaxID       string `json:"tax_id"`
	CreditScore int    `json:"credit_score"`
	RiskLevel   string `json:"risk_level"`
}

// PurchaseOrder is the result of a purchase-order lookup. A nil
// *PurchaseOrder on the Record means the lookup has not run yet;
// Found reports whether a matching order exists.
type PurchaseOrder struct {
	Found  bool    `json:"found"`
	Number string  `json:"po_number,omitempty"`
	Amount float64 `json:"amount,omitempty"`
}

// EntryType distinguishes the two sides of a ledger entry.
type EntryType string

const (
	// Debit books the invoice amount against the expense account.
	Debit EntryType = "DEBIT"
	// Credit books the invoice amount against accounts payable.
	Credit EntryType = "CREDIT"
)

// LedgerEntry is one side of the balanced accounting pair built during
// reconciliation.
type LedgerEntry struct {
	Type    EntryType `json:"type"`
	Account string    `json:"account"`
	Amount  float64   `json:"amount"`
	Vendor  string    `json:"vendor,omitempty"`
}

// Action is a human reviewer's verdict on a suspended run.
type Action string

const (
	// ActionApprove approves the invoice for reconciliation and posting.
	ActionApprove Action = "APPROVE"
	// ActionReject rejects the invoice; the run terminates without
	// reconciliation or settlement.
	ActionReject Action = "REJECT"
)

// Decision is the payload supplied when resuming a suspended run.
// It is consumed by the decision stage and folded into the Record;
// it is never persisted as its own entity.
type Decision struct {
	Action Action `json:"action"`
	Note   string `json:"note,omitempty"`
}

// Record is the mutable state threaded through every pipeline stage.
// The engine owns it exclusively during execution and hands it to one
// stage at a time; no stage retains a reference after returning.
// Every field is written by exactly one stage in forward stage order.
type Record struct {
	RunID       id.RunID `json:"run_id"`
	InvoiceRef  string   `json:"invoice_ref"`
	DocumentRef string   `json:"document_ref"`

	RawText string `json:"raw_text,omitempty"`
	Fields  Fields `json:"fields"`

	VendorProfile *VendorProfile `json:"vendor_profile,omitempty"`
	RiskFlags     []RiskFlag     `json:"risk_flags,omitempty"`

	PurchaseOrder *PurchaseOrder `json:"purchase_order,omitempty"`
	MatchScore    float64        `json:"match_score"`

	ReviewLink      string          `json:"review_link,omitempty"`
	ReviewSummary   string          `json:"review_summary,omitempty"`
	ApprovalOutcome ApprovalOutcome `json:"approval_outcome,omitempty"`

	LedgerEntries []LedgerEntry `json:"ledger_entries,omitempty"`
	ExternalTxnID string        `json:"external_txn_id,omitempty"`

	Status   Status   `json:"status"`
	AuditLog []string `json:"audit_log,omitempty"`
}

// NewRecord creates a Record for a fresh run. The invoice reference is
// derived from the run ID so reviewers get a short stable handle.
func NewRecord(runID id.RunID, documentRef string) *Record {
	ref := runID.Suffix()
	if len(ref) > 4 {
		ref = ref[:4]
	}
	return &Record{
		RunID:       runID,
		InvoiceRef:  "INV-" + ref,
		DocumentRef: documentRef,
		Status:      StatusRunning,
	}
}

// Audit appends a formatted human-readable entry to the audit log.
func (r *Record) Audit(format string, args ...any) {
	r.AuditLog = append(r.AuditLog, fmt.Sprintf(format, args...))
}

// Clone returns a deep copy of the Record. Stores use it so callers can
// mutate their copy without racing against persisted state.
func (r *Record) Clone() *Record {
	cp := *r
	cp.RiskFlags = slices.Clone(r.RiskFlags)
	cp.LedgerEntries = slices.Clone(r.LedgerEntries)
	cp.AuditLog = slices.Clone(r.AuditLog)
	if r.VendorProfile != nil {
		vp := *r.VendorProfile
		cp.VendorProfile = &vp
	}
	if r.PurchaseOrder != nil {
		po := *r.PurchaseOrder
		cp.PurchaseOrder = &po
	}
	return &cp
}
