// Package local provides in-process collaborator implementations with
// canned, deterministic behavior. They stand in for the real OCR,
// enrichment, purchase-order, settlement, and notification services in
// development and tests: same interfaces, no network.
package local

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xraph/invoiceflow/collab"
	"github.com/xraph/invoiceflow/invoice"
)

// OCR returns canned document text keyed on the filename: names
// containing "good" yield an invoice matching the seeded ACME purchase
// order exactly, names containing "bad" yield a mismatched amount, and
// anything else is unreadable.
type OCR struct{}

var _ collab.OCR = (*OCR)(nil)

// Extract implements collab.OCR.
func (OCR) Extract(_ context.Context, filename, _ string) (string, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "good"):
		return "INVOICE #001\nVENDOR: ACME CORP\nTOTAL: $5000.00", nil
	case strings.Contains(name, "bad"):
		return "INVOICE #002\nVENDOR: ACME CORP\nTOTAL: $5500.00", nil
	default:
		return "UNREADABLE", nil
	}
}

// Enricher returns a fixed low-risk vendor profile for every vendor.
type Enricher struct{}

var _ collab.Enricher = (*Enricher)(nil)

// Enrich implements collab.Enricher.
func (Enricher) Enrich(_ context.Context, _, _ string) (*invoice.VendorProfile, error) {
	return &invoice.VendorProfile{
		TaxID:       "US-99-99999",
		CreditScore: 850,
		RiskLevel:   "LOW",
	}, nil
}

// POBook is an in-memory purchase-order book. Lookup matches on
// case-insensitive vendor substring, mirroring the LIKE semantics of
// the system of record it stands in for.
type POBook struct {
	mu     sync.RWMutex
	orders []order
}

type order struct {
	number string
	vendor string
	amount float64
}

var _ collab.POFinder = (*POBook)(nil)

// NewPOBook returns a POBook seeded with the standard demo orders.
func NewPOBook() *POBook {
	b := &POBook{}
	b.Add("PO-1001", "ACME CORP", 5000.00)
	b.Add("PO-1002", "GLOBEX INC", 1250.50)
	b.Add("PO-9999", "MEGA CORP", 10000.00)

	return b
}

// Add registers a purchase order.
func (b *POBook) Add(number, vendor string, amount float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = append(b.orders, order{number: number, vendor: vendor, amount: amount})
}

// Find implements collab.POFinder.
func (b *POBook) Find(_ context.Context, vendor string) (*invoice.PurchaseOrder, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	needle := strings.ToUpper(vendor)
	for _, o := range b.orders {
		if needle != "" && strings.Contains(strings.ToUpper(o.vendor), needle) {
			return &invoice.PurchaseOrder{Found: true, Number: o.number, Amount: o.amount}, nil
		}
	}

	return &invoice.PurchaseOrder{Found: false}, nil
}

// Settler assigns timestamp-derived transaction IDs.
type Settler struct {
	// now is swappable for tests.
	now func() time.Time
}

var _ collab.Settler = (*Settler)(nil)

// NewSettler returns a Settler using the wall clock.
func NewSettler() *Settler {
	return &Settler{now: time.Now}
}

// Post implements collab.Settler.
func (s *Settler) Post(_ context.Context, _, _ string) (string, error) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}

	return "TXN-" + strconv.FormatInt(now().Unix(), 10), nil
}

// Notifier records every notification it is asked to send.
type Notifier struct {
	mu   sync.Mutex
	sent []Notification
}

// Notification is one recorded delivery.
type Notification struct {
	Email   string
	Message string
}

var _ collab.Notifier = (*Notifier)(nil)

// Notify implements collab.Notifier.
func (n *Notifier) Notify(_ context.Context, email, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{Email: email, Message: message})

	return nil
}

// Sent returns a copy of all recorded notifications.
func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, len(n.sent))
	copy(out, n.sent)

	return out
}

// NewSet bundles the full local collaborator set.
func NewSet() collab.Set {
	return collab.Set{
		OCR:      OCR{},
		Enricher: Enricher{},
		POFinder: NewPOBook(),
		Settler:  NewSettler(),
		Notifier: &Notifier{},
	}
}
