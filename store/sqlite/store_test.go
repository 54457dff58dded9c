package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/invoice"
	"github.com/xraph/invoiceflow/run"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checkpoints.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newCheckpoint(status invoice.Status, suspended bool) *run.Checkpoint {
	rec := invoice.NewRecord(id.NewRunID(), "invoice_good.png")
	rec.Status = status
	rec.Audit("seeded for test")
	cp := run.NewCheckpoint(rec, "DECIDE")
	cp.Suspended = suspended
	return cp
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	cp := newCheckpoint(invoice.StatusRunning, true)
	cp.Record.MatchScore = 0.60
	cp.Record.PurchaseOrder = &invoice.PurchaseOrder{Found: true, Number: "PO-1001", Amount: 5000}

	if err := s.Put(context.Background(), cp); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(context.Background(), cp.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.RunID != cp.RunID || got.ID != cp.ID {
		t.Errorf("identity mismatch: %+v", got)
	}
	if !got.Suspended || got.PendingStage != "DECIDE" {
		t.Errorf("unexpected checkpoint %+v", got)
	}
	if got.Record.MatchScore != 0.60 {
		t.Errorf("expected match score 0.60, got %v", got.Record.MatchScore)
	}
	if got.Record.PurchaseOrder == nil || got.Record.PurchaseOrder.Number != "PO-1001" {
		t.Errorf("purchase order lost in round trip: %+v", got.Record.PurchaseOrder)
	}
	if len(got.Record.AuditLog) != 1 {
		t.Errorf("audit log lost in round trip: %v", got.Record.AuditLog)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), id.NewRunID())
	if !errors.Is(err, invoiceflow.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestPutUpserts(t *testing.T) {
	s := openTestStore(t)

	cp := newCheckpoint(invoice.StatusRunning, true)
	if err := s.Put(context.Background(), cp); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	cp.Suspended = false
	cp.PendingStage = "RECONCILE"
	cp.Record.Status = invoice.StatusApproved
	if err := s.Put(context.Background(), cp); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := s.Get(context.Background(), cp.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Suspended || got.PendingStage != "RECONCILE" || got.Record.Status != invoice.StatusApproved {
		t.Errorf("expected upsert, got %+v", got)
	}

	all, err := s.List(context.Background(), run.ListOpts{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected single row after upsert, got %d", len(all))
	}
}

func TestListFilters(t *testing.T) {
	s := openTestStore(t)

	suspended := newCheckpoint(invoice.StatusRunning, true)
	done := newCheckpoint(invoice.StatusSuccess, false)
	for _, cp := range []*run.Checkpoint{suspended, done} {
		if err := s.Put(context.Background(), cp); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	yes := true
	got, err := s.List(context.Background(), run.ListOpts{Suspended: &yes})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].RunID != suspended.RunID {
		t.Errorf("unexpected suspended listing %+v", got)
	}

	got, err = s.List(context.Background(), run.ListOpts{Status: invoice.StatusSuccess})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].RunID != done.RunID {
		t.Errorf("unexpected status listing %+v", got)
	}

	got, err = s.List(context.Background(), run.ListOpts{Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 row with limit, got %d", len(got))
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	cp := newCheckpoint(invoice.StatusRunning, false)
	if err := s.Put(context.Background(), cp); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete(context.Background(), cp.RunID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(context.Background(), cp.RunID); !errors.Is(err, invoiceflow.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound after delete, got %v", err)
	}
	if err := s.Delete(context.Background(), cp.RunID); !errors.Is(err, invoiceflow.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound for second delete, got %v", err)
	}
}
