package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/api"
	"github.com/xraph/invoiceflow/client"
	"github.com/xraph/invoiceflow/collab/local"
	"github.com/xraph/invoiceflow/engine"
	"github.com/xraph/invoiceflow/invoice"
	"github.com/xraph/invoiceflow/store/memory"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(invoiceflow.DefaultConfig(), memory.New(), local.NewSet(),
		engine.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}

	srv := httptest.NewServer(api.NewServer(eng, api.WithLogger(logger)).Routes())
	t.Cleanup(srv.Close)

	return client.New(srv.URL,
		client.WithHTTPClient(srv.Client()),
		client.WithLogger(logger),
	)
}

func TestStartAutoApproved(t *testing.T) {
	c := newTestClient(t)

	r, err := c.Start(context.Background(), "invoice_good.png")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if r.Status != "SUCCESS" || r.ApprovalOutcome != "AUTO_APPROVED" {
		t.Errorf("unexpected run %+v", r)
	}
	if !r.Terminal() {
		t.Error("run should be terminal")
	}
}

func TestStartValidation(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Start(context.Background(), "")
	if !errors.Is(err, invoiceflow.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	var apiErr *client.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
		t.Errorf("expected *client.Error with status 400, got %v", err)
	}
}

func TestSuspendDecideRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	r, err := c.Start(ctx, "invoice_bad.pdf")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.Suspended() || r.PendingStage != "DECIDE" {
		t.Fatalf("expected suspension at DECIDE, got %+v", r)
	}

	got, err := c.Get(ctx, r.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RunID != r.RunID || !got.Suspended() {
		t.Errorf("unexpected fetched run %+v", got)
	}

	r, err = c.Decide(ctx, r.RunID, invoice.Decision{
		Action: invoice.ActionApprove,
		Note:   "reviewed against the purchase order",
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if r.Status != "SUCCESS" || r.ApprovalOutcome != "HUMAN_APPROVED" {
		t.Errorf("unexpected run after decision %+v", r)
	}
	if r.ExternalTxnID == "" {
		t.Error("approved run should have settled")
	}
}

func TestDecideReject(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	r, err := c.Start(ctx, "invoice_bad.pdf")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	r, err = c.Decide(ctx, r.RunID, invoice.Decision{Action: invoice.ActionReject})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if r.Status != "REJECTED" {
		t.Errorf("expected REJECTED, got %q", r.Status)
	}
	if r.ExternalTxnID != "" {
		t.Errorf("rejected run must not settle, got %q", r.ExternalTxnID)
	}
}

func TestDecideConflict(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	r, err := c.Start(ctx, "invoice_good.png")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = c.Decide(ctx, r.RunID, invoice.Decision{Action: invoice.ActionApprove})
	var apiErr *client.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 409 {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Get(context.Background(), "run_01jmqk4p9nf1pbz9e2w6qhr3vx")
	if !errors.Is(err, invoiceflow.ErrRunNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	r, err := c.Start(ctx, "invoice_bad.pdf")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	r, err = c.Cancel(ctx, r.RunID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if r.Status != "CANCELLED" {
		t.Errorf("expected CANCELLED, got %q", r.Status)
	}
}

func TestList(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Start(ctx, "invoice_good.png"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Start(ctx, "invoice_bad.pdf"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	runs, err := c.List(ctx, client.ListOpts{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	suspended := true
	runs, err = c.List(ctx, client.ListOpts{Suspended: &suspended})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || !runs[0].Suspended() {
		t.Errorf("unexpected filtered listing %+v", runs)
	}
}
