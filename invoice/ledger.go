package invoice

// Ledger account names used by reconciliation.
const (
	AccountExpense        = "EXPENSE_General"
	AccountPayable        = "AP_Trade"
	unknownVendorFallback = "UNKNOWN_VENDOR"
)

// BuildLedgerEntries produces the balanced debit/credit pair booking an
// approved invoice: a debit against the general expense account and a
// matching credit against trade accounts payable.
func BuildLedgerEntries(amount float64, vendor string) []LedgerEntry {
	if vendor == "" {
		vendor = unknownVendorFallback
	}

	return []LedgerEntry{
		{Type: Debit, Account: AccountExpense, Amount: amount},
		{Type: Credit, Account: AccountPayable, Amount: amount, Vendor: vendor},
	}
}
