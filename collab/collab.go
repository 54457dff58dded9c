// Package collab defines the interfaces for the external collaborators
// the pipeline depends on: OCR extraction, vendor enrichment,
// purchase-order lookup, settlement posting, and notification delivery.
//
// Collaborator failures are degraded, not fatal: stages record the
// failure in the audit log and continue with whatever partial data they
// have. The Error type carries the collaborator name so callers can
// attribute the degradation.
package collab

import (
	"context"
	"fmt"

	"github.com/xraph/invoiceflow/invoice"
)

// OCR extracts raw text from an invoice document.
type OCR interface {
	// Extract returns the raw text of the named document using the
	// given backing tool.
	Extract(ctx context.Context, filename, tool string) (string, error)
}

// Enricher resolves a vendor name into a risk profile.
type Enricher interface {
	Enrich(ctx context.Context, vendor, tool string) (*invoice.VendorProfile, error)
}

// POFinder looks up the open purchase order for a vendor.
type POFinder interface {
	// Find returns the purchase-order lookup result. A nil error with
	// Found=false means the lookup ran and no order matched.
	Find(ctx context.Context, vendor string) (*invoice.PurchaseOrder, error)
}

// Settler posts an approved invoice to the external books of record.
type Settler interface {
	// Post returns the external transaction ID assigned to the posting.
	Post(ctx context.Context, invoiceRef, tool string) (string, error)
}

// Notifier delivers a completion notice to the vendor.
type Notifier interface {
	Notify(ctx context.Context, email, message string) error
}

// Set bundles the collaborators a pipeline needs. All fields are
// required; the engine refuses to start with a nil collaborator.
type Set struct {
	OCR      OCR
	Enricher Enricher
	POFinder POFinder
	Settler  Settler
	Notifier Notifier
}

// Validate reports the first missing collaborator, if any.
func (s Set) Validate() error {
	switch {
	case s.OCR == nil:
		return fmt.Errorf("collab: missing OCR collaborator")
	case s.Enricher == nil:
		return fmt.Errorf("collab: missing Enricher collaborator")
	case s.POFinder == nil:
		return fmt.Errorf("collab: missing POFinder collaborator")
	case s.Settler == nil:
		return fmt.Errorf("collab: missing Settler collaborator")
	case s.Notifier == nil:
		return fmt.Errorf("collab: missing Notifier collaborator")
	default:
		return nil
	}
}

// Error wraps a collaborator failure with the collaborator's name.
// Stages treat it as a degradation signal rather than a run failure.
type Error struct {
	Collaborator string
	Err          error
}

func (e *Error) Error() string {
	return fmt.Sprintf("collab: %s: %v", e.Collaborator, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a collaborator failure attributed to name.
func NewError(name string, err error) *Error {
	return &Error{Collaborator: name, Err: err}
}
