package invoice

import "math"

// matchTolerancePct is the discrepancy (percent of the purchase order
// amount) at which the match score reaches zero. Discrepancies scale
// linearly between an exact match (1.0) and this cutoff (0.0).
const matchTolerancePct = 5.0

// MatchScore computes the two-way match confidence between an invoice
// amount and its purchase order amount.
//
// The score is 0 when no purchase order amount is available, 1.0 on an
// exact match, and otherwise decays linearly with the percentage
// discrepancy, hitting zero at 5%. The result is rounded to two decimal
// places so equal discrepancies always produce identical scores.
func MatchScore(invoiceAmount, poAmount float64) float64 {
	if poAmount == 0 {
		return 0
	}

	pct := math.Abs(invoiceAmount-poAmount) / poAmount * 100
	if pct == 0 {
		return 1.0
	}

	score := math.Max(0, 1.0-pct/matchTolerancePct)

	return math.Round(score*100) / 100
}
