package invoice

import "testing"

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name    string
		invoice float64
		po      float64
		want    float64
	}{
		{"exact match", 5000.00, 5000.00, 1.00},
		{"at tolerance boundary", 5250.00, 5000.00, 0.00},
		{"beyond tolerance", 6000.00, 5000.00, 0.00},
		{"two percent off", 5100.00, 5000.00, 0.60},
		{"one percent off", 5050.00, 5000.00, 0.80},
		{"under by two percent", 4900.00, 5000.00, 0.60},
		{"no purchase order amount", 5000.00, 0, 0.00},
		{"fractional amounts", 1250.50, 1250.50, 1.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchScore(tt.invoice, tt.po)
			if got != tt.want {
				t.Errorf("MatchScore(%v, %v) = %v, want %v", tt.invoice, tt.po, got, tt.want)
			}
		})
	}
}

func TestMatchScoreRounding(t *testing.T) {
	// 3% discrepancy: 1 - 3/5 = 0.4 exactly after rounding, even though
	// the float intermediate is 0.3999...
	got := MatchScore(5150.00, 5000.00)
	if got != 0.40 {
		t.Errorf("MatchScore(5150, 5000) = %v, want 0.40", got)
	}
}
