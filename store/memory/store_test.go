package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/invoice"
	"github.com/xraph/invoiceflow/run"
)

func newCheckpoint(status invoice.Status, suspended bool) *run.Checkpoint {
	rec := invoice.NewRecord(id.NewRunID(), "invoice_good.png")
	rec.Status = status
	cp := run.NewCheckpoint(rec, "DECIDE")
	cp.Suspended = suspended
	return cp
}

func TestPutGet(t *testing.T) {
	s := New()
	defer s.Close()

	cp := newCheckpoint(invoice.StatusRunning, false)
	if err := s.Put(context.Background(), cp); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(context.Background(), cp.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.RunID != cp.RunID || got.PendingStage != "DECIDE" {
		t.Errorf("unexpected checkpoint %+v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	s := New()
	defer s.Close()

	_, err := s.Get(context.Background(), id.NewRunID())
	if !errors.Is(err, invoiceflow.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := New()
	defer s.Close()

	cp := newCheckpoint(invoice.StatusRunning, false)
	if err := s.Put(context.Background(), cp); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	cp.Suspended = true
	cp.PendingStage = "RECONCILE"
	if err := s.Put(context.Background(), cp); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := s.Get(context.Background(), cp.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Suspended || got.PendingStage != "RECONCILE" {
		t.Errorf("expected overwrite, got %+v", got)
	}
}

func TestCopyOnWrite(t *testing.T) {
	s := New()
	defer s.Close()

	cp := newCheckpoint(invoice.StatusRunning, false)
	if err := s.Put(context.Background(), cp); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Mutating the caller's copy after Put must not affect the store.
	cp.Record.Status = invoice.StatusFailed
	cp.Record.Audit("late mutation")

	got, err := s.Get(context.Background(), cp.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Record.Status != invoice.StatusRunning {
		t.Error("caller mutation leaked into stored checkpoint")
	}

	// Mutating a Get result must not affect the store either.
	got.Record.Status = invoice.StatusCancelled
	again, err := s.Get(context.Background(), cp.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again.Record.Status != invoice.StatusRunning {
		t.Error("reader mutation leaked into stored checkpoint")
	}
}

func TestList(t *testing.T) {
	s := New()
	defer s.Close()

	suspended := newCheckpoint(invoice.StatusRunning, true)
	running := newCheckpoint(invoice.StatusRunning, false)
	done := newCheckpoint(invoice.StatusSuccess, false)

	for _, cp := range []*run.Checkpoint{suspended, running, done} {
		if err := s.Put(context.Background(), cp); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	all, err := s.List(context.Background(), run.ListOpts{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(all))
	}

	yes := true
	onlySuspended, err := s.List(context.Background(), run.ListOpts{Suspended: &yes})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(onlySuspended) != 1 || onlySuspended[0].RunID != suspended.RunID {
		t.Errorf("unexpected suspended listing %+v", onlySuspended)
	}

	succeeded, err := s.List(context.Background(), run.ListOpts{Status: invoice.StatusSuccess})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(succeeded) != 1 || succeeded[0].RunID != done.RunID {
		t.Errorf("unexpected status listing %+v", succeeded)
	}

	limited, err := s.List(context.Background(), run.ListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 checkpoints, got %d", len(limited))
	}
}

func TestListOrdering(t *testing.T) {
	s := New()
	defer s.Close()

	older := newCheckpoint(invoice.StatusRunning, false)
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := newCheckpoint(invoice.StatusRunning, false)

	for _, cp := range []*run.Checkpoint{older, newer} {
		if err := s.Put(context.Background(), cp); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, err := s.List(context.Background(), run.ListOpts{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got[0].RunID != newer.RunID {
		t.Error("expected newest checkpoint first")
	}
}

func TestDelete(t *testing.T) {
	s := New()
	defer s.Close()

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

func TestClosedStore(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	cp := newCheckpoint(invoice.StatusRunning, false)
	if err := s.Put(context.Background(), cp); !errors.Is(err, invoiceflow.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
	if _, err := s.Get(context.Background(), cp.RunID); !errors.Is(err, invoiceflow.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
	if _, err := s.List(context.Background(), run.ListOpts{}); !errors.Is(err, invoiceflow.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}
