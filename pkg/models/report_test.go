package models

import "testing"

// TestDeriveOutcomeAllFlagCombinations covers every hospital/ER/death combination
func TestDeriveOutcomeAllFlagCombinations(t *testing.T) {
	tests := []struct {
		hospital, er, died string
		expected           Outcome
	}{
		{"N", "N", "N", OutcomeNoSeriousEvent},
		{"N", "N", "Y", OutcomeDeath},
		{"N", "Y", "N", OutcomeERVisit},
		{"N", "Y", "Y", OutcomeERVisit},
		{"Y", "N", "N", OutcomeHospitalization},
		{"Y", "N", "Y", OutcomeHospitalization},
		{"Y", "Y", "N", OutcomeHospitalization},
		{"Y", "Y", "Y", OutcomeHospitalization},
	}

	for _, tt := range tests {
		// The ER flag is checked through both source columns
		got := DeriveOutcome(tt.hospital, tt.er, "", tt.died)
		if got != tt.expected {
			t.Errorf("DeriveOutcome(hospital=%s, er=%s, died=%s) = %q, expected %q",
				tt.hospital, tt.er, tt.died, got, tt.expected)
		}

		got = DeriveOutcome(tt.hospital, "", tt.er, tt.died)
		if got != tt.expected {
			t.Errorf("DeriveOutcome(hospital=%s, er_ed=%s, died=%s) = %q, expected %q",
				tt.hospital, tt.er, tt.died, got, tt.expected)
		}
	}
}

// TestDeriveOutcomeMissingFlags treats blank and lowercase flags as unset
func TestDeriveOutcomeMissingFlags(t *testing.T) {
	if got := DeriveOutcome("", "", "", ""); got != OutcomeNoSeriousEvent {
		t.Errorf("Expected fallback outcome, got %q", got)
	}
	if got := DeriveOutcome("y", "", "", ""); got != OutcomeNoSeriousEvent {
		t.Errorf("Expected lowercase flag to be ignored, got %q", got)
	}
}
