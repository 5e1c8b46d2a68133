package model

import (
	"math"
	"strconv"
)

// ParseRupees converts a decimal string amount to whole rupees (int64).
// The backend serializes prices inconsistently ("1299", "1299.00", 1299);
// all monetary fields are rounded to integer rupees at the sync boundary so
// no float ever reaches the store. Handles edge cases: empty strings,
// missing decimals, large values.
// Examples: "1299.00" → 1299, "1298.50" → 1299, "" → 0
func ParseRupees(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f))
}

// RoundRupees rounds a float amount to whole rupees.
// Used when the backend returns numeric JSON instead of strings.
func RoundRupees(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Round(f))
}
