package invoice

// RiskFlag marks a vendor risk signal derived during data preparation.
type RiskFlag string

const (
	// FlagLowCreditScore is raised when the vendor's credit score is
	// below the acceptance floor.
	FlagLowCreditScore RiskFlag = "RISK_LOW_CREDIT_SCORE"
	// FlagHighRiskCategory is raised when the vendor is classified in the
	// high risk category.
	FlagHighRiskCategory RiskFlag = "RISK_CATEGORY_HIGH"
)

// lowCreditFloor is the credit score below which a vendor is flagged.
const lowCreditFloor = 600

// ComputeRiskFlags derives the full set of risk flags from a vendor
// profile. It is a pure function of the profile: callers replace any
// previously stored flags with the result rather than merging, so a
// re-executed preparation stage cannot duplicate flags.
func ComputeRiskFlags(p *VendorProfile) []RiskFlag {
	if p == nil {
		return nil
	}

	var flags []RiskFlag
	if p.CreditScore < lowCreditFloor {
		flags = append(flags, FlagLowCreditScore)
	}
	if p.RiskLevel == "HIGH" {
		flags = append(flags, FlagHighRiskCategory)
	}

	return flags
}
