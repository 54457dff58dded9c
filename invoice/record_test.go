package invoice

import (
	"strings"
	"testing"

	"github.com/xraph/invoiceflow/id"
)

func TestNewRecord(t *testing.T) {
	runID := id.NewRunID()
	rec := NewRecord(runID, "doc-001.pdf")

	if rec.RunID != runID {
		t.Errorf("expected run ID %v, got %v", runID, rec.RunID)
	}
	if rec.DocumentRef != "doc-001.pdf" {
		t.Errorf("expected document ref doc-001.pdf, got %q", rec.DocumentRef)
	}
	if rec.Status != StatusRunning {
		t.Errorf("expected status RUNNING, got %q", rec.Status)
	}
	if !strings.HasPrefix(rec.InvoiceRef, "INV-") {
		t.Errorf("expected INV- invoice ref, got %q", rec.InvoiceRef)
	}
	if len(rec.InvoiceRef) != len("INV-")+4 {
		t.Errorf("expected 4-character reference suffix, got %q", rec.InvoiceRef)
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusRunning, false},
		{StatusApproved, false},
		{StatusRejected, true},
		{StatusSuccess, true},
		{StatusCancelled, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("Terminal(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestAudit(t *testing.T) {
	rec := NewRecord(id.NewRunID(), "doc.pdf")
	rec.Audit("validated document %s", "doc.pdf")
	rec.Audit("extracted amount %.2f", 5000.0)

	if len(rec.AuditLog) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(rec.AuditLog))
	}
	if rec.AuditLog[0] != "validated document doc.pdf" {
		t.Errorf("unexpected first entry %q", rec.AuditLog[0])
	}
	if rec.AuditLog[1] != "extracted amount 5000.00" {
		t.Errorf("unexpected second entry %q", rec.AuditLog[1])
	}
}

func TestClone(t *testing.T) {
	rec := NewRecord(id.NewRunID(), "doc.pdf")
	rec.VendorProfile = &VendorProfile{TaxID: "US-99-99999", CreditScore: 850, RiskLevel: "LOW"}
	rec.PurchaseOrder = &PurchaseOrder{Found: true, Number: "PO-1001", Amount: 5000}
	rec.RiskFlags = []RiskFlag{FlagLowCreditScore}
	rec.LedgerEntries = BuildLedgerEntries(5000, "ACME CORP")
	rec.Audit("original entry")

	cp := rec.Clone()

	cp.VendorProfile.CreditScore = 100
	cp.PurchaseOrder.Amount = 1
	cp.RiskFlags[0] = FlagHighRiskCategory
	cp.LedgerEntries[0].Amount = 1
	cp.Audit("clone entry")

	if rec.VendorProfile.CreditScore != 850 {
		t.Error("clone mutation leaked into original vendor profile")
	}
	if rec.PurchaseOrder.Amount != 5000 {
		t.Error("clone mutation leaked into original purchase order")
	}
	if rec.RiskFlags[0] != FlagLowCreditScore {
		t.Error("clone mutation leaked into original risk flags")
	}
	if rec.LedgerEntries[0].Amount != 5000 {
		t.Error("clone mutation leaked into original ledger entries")
	}
	if len(rec.AuditLog) != 1 {
		t.Errorf("expected 1 audit entry on original, got %d", len(rec.AuditLog))
	}
}

func TestComputeRiskFlags(t *testing.T) {
	tests := []struct {
		name    string
		profile *VendorProfile
		want    []RiskFlag
	}{
		{"nil profile", nil, nil},
		{"clean vendor", &VendorProfile{CreditScore: 850, RiskLevel: "LOW"}, nil},
		{"low credit", &VendorProfile{CreditScore: 550, RiskLevel: "LOW"}, []RiskFlag{FlagLowCreditScore}},
		{"high risk category", &VendorProfile{CreditScore: 700, RiskLevel: "HIGH"}, []RiskFlag{FlagHighRiskCategory}},
		{"both flags", &VendorProfile{CreditScore: 400, RiskLevel: "HIGH"}, []RiskFlag{FlagLowCreditScore, FlagHighRiskCategory}},
		{"boundary credit score", &VendorProfile{CreditScore: 600, RiskLevel: "LOW"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRiskFlags(tt.profile)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("flag %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestBuildLedgerEntries(t *testing.T) {
	entries := BuildLedgerEntries(5000, "ACME CORP")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	debit, credit := entries[0], entries[1]
	if debit.Type != Debit || debit.Account != AccountExpense || debit.Amount != 5000 {
		t.Errorf("unexpected debit entry %+v", debit)
	}
	if credit.Type != Credit || credit.Account != AccountPayable || credit.Amount != 5000 {
		t.Errorf("unexpected credit entry %+v", credit)
	}
	if credit.Vendor != "ACME CORP" {
		t.Errorf("expected vendor on credit side, got %q", credit.Vendor)
	}

	fallback := BuildLedgerEntries(100, "")
	if fallback[1].Vendor != "UNKNOWN_VENDOR" {
		t.Errorf("expected vendor fallback, got %q", fallback[1].Vendor)
	}
}
