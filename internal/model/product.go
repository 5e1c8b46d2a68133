package model

// ProductDetail is the canonical full catalog record for a product,
// resolved by the enhancement pass from the product-details endpoint.
type ProductDetail struct {
	ProductID        string      `json:"product_id"`
	Name             string      `json:"name"`
	Image            string      `json:"image,omitempty"`
	ShortDescription string      `json:"short_description,omitempty"`
	Description      string      `json:"description,omitempty"`
	InStock          bool        `json:"in_stock"`
	Prices           []PriceTier `json:"prices"`
}

// PriceTier is a (pack size, unit) combination with its own pricing,
// identified by the id the backend requires to price a cart line.
type PriceTier struct {
	ID              string `json:"id"`
	Qty             int    `json:"qty"` // pack size this tier applies to
	UnitName        string `json:"unit_name,omitempty"`
	MRP             int64  `json:"mrp"`
	SalePrice       int64  `json:"sale_price"`
	DiscountPercent int    `json:"discount_percent"`
}

// MatchTier finds the price tier for the given pack size.
// Exact match on Qty; when several tiers share the pack size the unit name
// breaks the tie. Returns nil if no tier matches.
func (d *ProductDetail) MatchTier(packQty int, unitName string) *PriceTier {
	var first *PriceTier
	for i := range d.Prices {
		tier := &d.Prices[i]
		if tier.Qty != packQty {
			continue
		}
		if unitName != "" && tier.UnitName == unitName {
			return tier
		}
		if first == nil {
			first = tier
		}
	}
	return first
}
