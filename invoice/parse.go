package invoice

import (
	"strconv"
	"strings"
)

// ParseFields extracts structured invoice fields from raw document
// text using line heuristics: the amount is the last parseable number
// on a line mentioning "amount" or "total", and the vendor is the text
// after the colon on a line mentioning "vendor", uppercased.
//
// Unrecognized text yields the zero amount and the "Unknown" vendor;
// downstream matching then scores the run for human review instead of
// failing it.
func ParseFields(text string) Fields {
	fields := Fields{Vendor: "Unknown", Date: "2024-01-01"}

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)

		if strings.Contains(lower, "amount") || strings.Contains(lower, "total") {
			words := strings.Fields(strings.ReplaceAll(line, "$", ""))
			for i := len(words) - 1; i >= 0; i-- {
				raw := strings.ReplaceAll(words[i], ",", "")
				if amt, err := strconv.ParseFloat(raw, 64); err == nil {
					fields.Amount = amt
					break
				}
			}
		}

		if strings.Contains(lower, "vendor") {
			if idx := strings.LastIndex(line, ":"); idx >= 0 {
				fields.Vendor = strings.ToUpper(strings.TrimSpace(line[idx+1:]))
			}
		}
	}

	return fields
}
