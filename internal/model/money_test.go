package model

import "testing"

func TestParseRupees(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"whole amount", "1299", 1299},
		{"decimal amount", "1299.00", 1299},
		{"rounds up", "1298.50", 1299},
		{"rounds down", "1298.49", 1298},
		{"empty string", "", 0},
		{"not a number", "abc", 0},
		{"negative", "-50.75", -51},
		{"zero", "0", 0},
		{"large value", "9999999.99", 10000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRupees(tt.input); got != tt.want {
				t.Errorf("ParseRupees(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoundRupees(t *testing.T) {
	if got := RoundRupees(1298.5); got != 1299 {
		t.Errorf("RoundRupees(1298.5) = %d, want 1299", got)
	}
	if got := RoundRupees(0); got != 0 {
		t.Errorf("RoundRupees(0) = %d, want 0", got)
	}
	// NaN/Inf must not produce garbage values
	nan := 0.0
	if got := RoundRupees(nan / nan); got != 0 {
		t.Errorf("RoundRupees(NaN) = %d, want 0", got)
	}
}
