package commerce

import (
	"encoding/json"
	"testing"
)

func TestFlexNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain number", `499`, 499},
		{"float number", `499.5`, 499.5},
		{"numeric string", `"499"`, 499},
		{"float string", `"499.50"`, 499.5},
		{"string with spaces", `" 12 "`, 12},
		{"empty string", `""`, 0},
		{"garbage string", `"abc"`, 0},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n FlexNumber
			if err := json.Unmarshal([]byte(tt.input), &n); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.input, err)
			}
			if float64(n) != tt.want {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, float64(n), tt.want)
			}
		})
	}
}

func TestFlexNumberInt(t *testing.T) {
	tests := []struct {
		in   FlexNumber
		want int
	}{
		{2, 2},
		{2.4, 2},
		{2.6, 3},
		{-1.5, -2},
		{0, 0},
	}

	for _, tt := range tests {
		if got := tt.in.Int(); got != tt.want {
			t.Errorf("FlexNumber(%v).Int() = %d, want %d", float64(tt.in), got, tt.want)
		}
	}
}

func TestFlexStringUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"string", `"abc-123"`, "abc-123"},
		{"integer", `42`, "42"},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s FlexString
			if err := json.Unmarshal([]byte(tt.input), &s); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.input, err)
			}
			if string(s) != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, string(s), tt.want)
			}
		})
	}
}

func TestFlexBoolUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"true", `true`, true},
		{"false", `false`, false},
		{"one", `1`, true},
		{"zero", `0`, false},
		{"string one", `"1"`, true},
		{"string zero", `"0"`, false},
		{"string true", `"true"`, true},
		{"yes", `"yes"`, true},
		{"in_stock", `"in_stock"`, true},
		{"out of stock string", `"out_of_stock"`, false},
		{"null", `null`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b FlexBool
			if err := json.Unmarshal([]byte(tt.input), &b); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.input, err)
			}
			if bool(b) != tt.want {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, bool(b), tt.want)
			}
		})
	}
}

func TestServerCartItemDecode(t *testing.T) {
	// The backend mixes numbers and strings for the same fields depending
	// on which code path produced the row.
	raw := `{
		"cart_id": 881,
		"product_id": "5",
		"product_name": "Collagen Builder",
		"quantity": "2",
		"final_price": "499.00",
		"mrp_price": 999,
		"pack_qty": "1",
		"product_price_id": 17,
		"in_stock": "1"
	}`

	var row ServerCartItem
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if string(row.CartID) != "881" {
		t.Errorf("CartID = %q, want %q", row.CartID, "881")
	}
	if string(row.ProductID) != "5" {
		t.Errorf("ProductID = %q, want %q", row.ProductID, "5")
	}
	if row.Quantity == nil || row.Quantity.Int() != 2 {
		t.Errorf("Quantity = %v, want 2", row.Quantity)
	}
	if row.FinalPrice == nil || row.FinalPrice.Rupees() != 499 {
		t.Errorf("FinalPrice = %v, want 499", row.FinalPrice)
	}
	if row.Qty != nil {
		t.Errorf("Qty = %v, want nil (absent)", row.Qty)
	}
	if row.InStock == nil || !bool(*row.InStock) {
		t.Errorf("InStock = %v, want true", row.InStock)
	}
}
