// Package model defines the canonical cart domain types shared across the
// proxy. The remote backend's loosely-typed wire shapes never leave the
// commerce adapter; everything past that boundary uses these types.
package model

import (
	"fmt"
	"math"
)

// Quantity bounds enforced on every cart mutation.
// A line whose quantity would drop below MinQuantity is removed, never
// retained at zero.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// CartItem is a canonical cart line as rendered and mutated locally.
// Monetary fields are whole rupees (see money.go).
type CartItem struct {
	// ID is stable per line: productID-packQty composite when the product
	// reference is known, otherwise the server-issued cart row id.
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"` // current unit sale price
	Quantity int    `json:"quantity"`
	Image    string `json:"image"`

	// ProductID is absent only before the first successful add.
	ProductID string `json:"product_id,omitempty"`
	// PackQty is the selected pack/tier size (e.g. 1, 2, 3 boxes).
	PackQty int `json:"pack_qty"`
	// ProductPriceID identifies the price tier; the backend cannot price an
	// add or update without it.
	ProductPriceID string `json:"product_price_id,omitempty"`
	UnitName       string `json:"unit_name,omitempty"`

	// CartID is the server row id, used for targeted remove/update.
	CartID string `json:"cart_id,omitempty"`

	MRPPrice           int64  `json:"mrp_price,omitempty"`
	DiscountPercent    int    `json:"discount_percent,omitempty"`
	ShortDescription   string `json:"short_description,omitempty"`
	ProductDescription string `json:"product_description,omitempty"`
	InStock            bool   `json:"in_stock"`

	// ProductDetails is nil until the enhancement pass resolves it.
	ProductDetails *ProductDetail `json:"product_details,omitempty"`
}

// NeedsEnhancement reports whether the line still lacks the full catalog
// record and should be backfilled from the product-details endpoint.
func (c *CartItem) NeedsEnhancement() bool {
	return c.ProductDetails == nil && c.ProductID != ""
}

// LineItemID derives the composite line id for a (product, pack size)
// selection. Matches the row ids the storefront renders (e.g. "5-1").
func LineItemID(productID string, packQty int) string {
	return fmt.Sprintf("%s-%d", productID, packQty)
}

// ClampQuantity bounds q to [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// NormalizeQuantity rounds free-text quantity input to the nearest integer
// and clamps it to the allowed range. Returns ok=false for NaN/Inf input,
// which callers must treat as "reject with no mutation".
func NormalizeQuantity(q float64) (int, bool) {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, false
	}
	return ClampQuantity(int(math.Round(q))), true
}
