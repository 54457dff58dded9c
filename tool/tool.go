// Package tool selects a concrete backing tool for each pipeline
// capability. Selection is deterministic: a strategy per capability
// inspects the call context and returns a tool name, so the same
// document always routes to the same tool.
package tool

import "strings"

// Capability names a class of external work a stage needs done.
type Capability string

const (
	// CapabilityOCR extracts raw text from a document.
	CapabilityOCR Capability = "ocr"
	// CapabilityEnrichment fetches a vendor risk profile.
	CapabilityEnrichment Capability = "enrichment"
	// CapabilityERP posts settled invoices to the books of record.
	CapabilityERP Capability = "erp"
)

// Tool names the concrete backends a selector can resolve to.
const (
	GoogleVision   = "google_vision"
	AWSTextract    = "aws_textract"
	Tesseract      = "tesseract"
	Clearbit       = "clearbit"
	PeopleDataLabs = "people_data_labs"
	SAPConnector   = "sap_connector"
	DefaultTool    = "default_tool"
)

// Context carries the per-call attributes a strategy may inspect.
type Context struct {
	Filename string
	Vendor   string
}

// Strategy resolves a Context to a tool name for one capability.
type Strategy func(Context) string

// Selector maps capabilities to selection strategies. The zero value
// is unusable; use NewSelector for the standard strategy table.
type Selector struct {
	strategies map[Capability]Strategy
}

// NewSelector builds a Selector with the standard strategy table:
// OCR routes on file extension, enrichment on vendor naming, and ERP
// always uses the SAP connector.
func NewSelector() *Selector {
	return &Selector{
		strategies: map[Capability]Strategy{
			CapabilityOCR:        selectOCR,
			CapabilityEnrichment: selectEnrichment,
			CapabilityERP:        func(Context) string { return SAPConnector },
		},
	}
}

// Register installs or replaces the strategy for a capability.
func (s *Selector) Register(c Capability, strat Strategy) {
	if s.strategies == nil {
		s.strategies = make(map[Capability]Strategy)
	}
	s.strategies[c] = strat
}

// Select resolves a capability and context to a tool name. Unknown
// capabilities resolve to DefaultTool so callers never branch on a
// missing strategy.
func (s *Selector) Select(c Capability, ctx Context) string {
	strat, ok := s.strategies[c]
	if !ok {
		return DefaultTool
	}

	return strat(ctx)
}

func selectOCR(ctx Context) string {
	name := strings.ToLower(ctx.Filename)
	switch {
	case strings.HasSuffix(name, ".png"), strings.HasSuffix(name, ".jpg"):
		return GoogleVision
	case strings.HasSuffix(name, ".pdf"):
		return AWSTextract
	default:
		return Tesseract
	}
}

func selectEnrichment(ctx Context) string {
	if strings.Contains(strings.ToUpper(ctx.Vendor), "CORP") {
		return Clearbit
	}

	return PeopleDataLabs
}
