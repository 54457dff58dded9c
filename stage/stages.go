package stage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/invoice"
	"github.com/xraph/invoiceflow/tool"
)

// notifyRecipient is where completion notices go. The demo vendor book
// has a single contact; a real deployment resolves this from the
// vendor profile.
const notifyRecipient = "vendor@acme.com"

// errorMissingTxnID is recorded when settlement posting degrades and no
// transaction ID comes back.
const errorMissingTxnID = "ERROR_MISSING_ID"

func (p *Pipeline) intake(_ context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	rec.Audit("INTAKE: validating %s", rec.DocumentRef)
	if strings.TrimSpace(rec.DocumentRef) == "" {
		return fmt.Errorf("%w: missing document reference", invoiceflow.ErrValidation)
	}

	return nil
}

func (p *Pipeline) understand(ctx context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	picked := p.tools.Select(tool.CapabilityOCR, tool.Context{Filename: rec.DocumentRef})
	rec.Audit("UNDERSTAND: selected '%s' for ocr", picked)

	var text string
	err := p.call(ctx, "ocr", func(ctx context.Context) error {
		var cerr error
		text, cerr = p.collab.OCR.Extract(ctx, rec.DocumentRef, picked)
		return cerr
	})
	if err != nil {
		rec.Audit("UNDERSTAND: ocr degraded, continuing without text: %v", err)
		p.logger.Warn("ocr collaborator degraded",
			slog.String("run_id", rec.RunID.String()),
			slog.String("error", err.Error()),
		)
	}

	rec.RawText = text
	rec.Fields = invoice.ParseFields(text)
	rec.Audit("UNDERSTAND: extracted amount %.2f vendor %s", rec.Fields.Amount, rec.Fields.Vendor)

	return nil
}

func (p *Pipeline) prepare(ctx context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	picked := p.tools.Select(tool.CapabilityEnrichment, tool.Context{Vendor: rec.Fields.Vendor})
	rec.Audit("PREPARE: selected '%s' for enrichment", picked)

	var profile *invoice.VendorProfile
	err := p.call(ctx, "enrichment", func(ctx context.Context) error {
		var cerr error
		profile, cerr = p.collab.Enricher.Enrich(ctx, rec.Fields.Vendor, picked)
		return cerr
	})
	if err != nil {
		rec.VendorProfile = nil
		rec.RiskFlags = nil
		rec.Audit("PREPARE: enrichment degraded, no vendor profile: %v", err)
		p.logger.Warn("enrichment collaborator degraded",
			slog.String("run_id", rec.RunID.String()),
			slog.String("error", err.Error()),
		)

		return nil
	}

	rec.VendorProfile = profile
	// Flags are recomputed from scratch so a re-executed stage can
	// never duplicate them.
	rec.RiskFlags = invoice.ComputeRiskFlags(profile)
	rec.Audit("PREPARE: vendor score %d (%s)", profile.CreditScore, profile.RiskLevel)
	if len(rec.RiskFlags) > 0 {
		rec.Audit("PREPARE: flags detected: %v", rec.RiskFlags)
	}

	return nil
}

func (p *Pipeline) retrieve(ctx context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	rec.Audit("RETRIEVE: fetching purchase orders for %s", rec.Fields.Vendor)

	var po *invoice.PurchaseOrder
	err := p.call(ctx, "po_lookup", func(ctx context.Context) error {
		var cerr error
		po, cerr = p.collab.POFinder.Find(ctx, rec.Fields.Vendor)
		return cerr
	})
	if err != nil {
		po = &invoice.PurchaseOrder{Found: false}
		rec.Audit("RETRIEVE: po lookup degraded, treating as not found: %v", err)
		p.logger.Warn("po lookup collaborator degraded",
			slog.String("run_id", rec.RunID.String()),
			slog.String("error", err.Error()),
		)
	}

	rec.PurchaseOrder = po
	if po.Found {
		rec.Audit("RETRIEVE: found %s for %.2f", po.Number, po.Amount)
	} else {
		rec.Audit("RETRIEVE: no purchase order found")
	}

	return nil
}

func (p *Pipeline) match(_ context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	var poAmount float64
	if rec.PurchaseOrder != nil && rec.PurchaseOrder.Found {
		poAmount = rec.PurchaseOrder.Amount
	}

	rec.MatchScore = invoice.MatchScore(rec.Fields.Amount, poAmount)
	rec.Audit("MATCH: score %.2f", rec.MatchScore)

	return nil
}

func (p *Pipeline) checkpoint(_ context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	rec.ReviewLink = p.cfg.ReviewBaseURL + "/" + rec.InvoiceRef
	rec.ReviewSummary = fmt.Sprintf("Review needed: match score %.2f", rec.MatchScore)
	rec.Audit("CHECKPOINT: pausing for human review at %s", rec.ReviewLink)

	return nil
}

func (p *Pipeline) decide(_ context.Context, rec *invoice.Record, dec *invoice.Decision) error {
	if dec == nil {
		rec.Audit("DECIDE: waiting for reviewer")
		return ErrAwaitingDecision
	}

	rec.Audit("DECIDE: reviewer chose %s (%s)", dec.Action, dec.Note)
	if dec.Action == invoice.ActionReject {
		rec.Status = invoice.StatusRejected
	} else {
		rec.Status = invoice.StatusApproved
	}

	return nil
}

func (p *Pipeline) reconcile(_ context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	rec.LedgerEntries = invoice.BuildLedgerEntries(rec.Fields.Amount, rec.Fields.Vendor)
	rec.Audit("RECONCILE: booked %d ledger entries for %.2f", len(rec.LedgerEntries), rec.Fields.Amount)

	return nil
}

func (p *Pipeline) approve(_ context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	if rec.Status == invoice.StatusApproved {
		rec.ApprovalOutcome = invoice.OutcomeHumanApproved
	} else {
		rec.ApprovalOutcome = invoice.OutcomeAutoApproved
	}

	rec.Audit("APPROVE: %s", rec.ApprovalOutcome)

	return nil
}

func (p *Pipeline) post(ctx context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	picked := p.tools.Select(tool.CapabilityERP, tool.Context{})
	rec.Audit("POST: posting %s via '%s'", rec.InvoiceRef, picked)

	var txnID string
	err := p.call(ctx, "settlement", func(ctx context.Context) error {
		var cerr error
		txnID, cerr = p.collab.Settler.Post(ctx, rec.InvoiceRef, picked)
		return cerr
	})
	if err != nil || txnID == "" {
		rec.ExternalTxnID = errorMissingTxnID
		rec.Audit("POST: settlement degraded, no transaction id: %v", err)
		p.logger.Warn("settlement collaborator degraded",
			slog.String("run_id", rec.RunID.String()),
		)

		return nil
	}

	rec.ExternalTxnID = txnID
	rec.Audit("POST: settled as %s", txnID)

	return nil
}

func (p *Pipeline) notify(ctx context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	err := p.call(ctx, "notification", func(ctx context.Context) error {
		return p.collab.Notifier.Notify(ctx, notifyRecipient, "Paid")
	})
	if err != nil {
		rec.Audit("NOTIFY: delivery degraded: %v", err)
		p.logger.Warn("notification collaborator degraded",
			slog.String("run_id", rec.RunID.String()),
		)

		return nil
	}

	rec.Audit("NOTIFY: sent completion notice to %s", notifyRecipient)

	return nil
}

func (p *Pipeline) complete(_ context.Context, rec *invoice.Record, _ *invoice.Decision) error {
	if rec.Status != invoice.StatusRejected {
		rec.Status = invoice.StatusSuccess
	}

	rec.Audit("COMPLETE: workflow finalized (%s)", rec.Status)

	return nil
}
