package commerce

import (
	"github.com/abhilash2200/beyuvana-sub000/internal/model"
)

// placeholderImage stands in for rows the backend returns without artwork.
const placeholderImage = "/images/placeholder-product.png"

// NormalizeCartItems maps raw server cart rows to canonical cart items.
// Rows that fail basic validity (no product reference, no name, or an
// explicit non-positive quantity) are silently dropped - a half-broken row
// must never crash reconciliation or render as a corrupt line.
// Order is preserved.
func NormalizeCartItems(rows []ServerCartItem) []model.CartItem {
	items := make([]model.CartItem, 0, len(rows))
	for i := range rows {
		if item, ok := normalizeCartItem(&rows[i]); ok {
			items = append(items, item)
		}
	}
	return items
}

// normalizeCartItem resolves each field's aliases into the canonical shape.
//
// Precedence per field (first non-empty wins):
//
//	row id:    cart_id, id
//	name:      name, product_name
//	quantity:  qty, quantity           (absent → 1; non-positive → drop)
//	price:     final_price, sale_price, price   (rounded to whole rupees)
//	pack size: pack_qty, price_qty     (absent → 1)
//	unit:      unit_name, price_unit_name
//	image:     image, product_image    (absent → placeholder)
//	in stock:  in_stock                (absent → true)
//
// The line id is the productID-packQty composite when the product reference
// is known, falling back to the server row id.
func normalizeCartItem(row *ServerCartItem) (model.CartItem, bool) {
	cartID := firstString(string(row.CartID), string(row.RowID))
	productID := string(row.ProductID)

	name := firstString(row.Name, row.ProductName)

	qty := 1
	if n := firstNumber(row.Qty, row.Quantity); n != nil {
		qty = n.Int()
	}

	packQty := 1
	if n := firstNumber(row.PackQty, row.PriceQty); n != nil {
		packQty = n.Int()
	}

	id := cartID
	if productID != "" {
		id = model.LineItemID(productID, packQty)
	}

	// Validity gate: broken rows are dropped, not surfaced
	if id == "" || name == "" || qty <= 0 {
		return model.CartItem{}, false
	}

	item := model.CartItem{
		ID:                 id,
		Name:               name,
		Quantity:           model.ClampQuantity(qty),
		ProductID:          productID,
		PackQty:            packQty,
		ProductPriceID:     string(row.ProductPriceID),
		UnitName:           firstString(row.UnitName, row.PriceUnitName),
		CartID:             cartID,
		Image:              firstString(row.Image, row.ProductImage, placeholderImage),
		ShortDescription:   row.ShortDescription,
		ProductDescription: row.ProductDescription,
		InStock:            true,
	}

	if n := firstNumber(row.FinalPrice, row.SalePrice, row.Price); n != nil {
		item.Price = n.Rupees()
	}
	if row.MRPPrice != nil {
		item.MRPPrice = row.MRPPrice.Rupees()
	}
	if row.DiscountPercent != nil {
		item.DiscountPercent = row.DiscountPercent.Int()
	}
	if row.InStock != nil {
		item.InStock = bool(*row.InStock)
	}

	return item, true
}

// transformProductDetail maps the raw product-details payload to the
// canonical record, resolving tier price aliases the same way cart rows do.
func transformProductDetail(raw *serverProductDetail) *model.ProductDetail {
	if raw == nil {
		return nil
	}

	detail := &model.ProductDetail{
		ProductID:        firstString(string(raw.ProductID), string(raw.ID)),
		Name:             firstString(raw.Name, raw.ProductName),
		Image:            raw.Image,
		ShortDescription: raw.ShortDescription,
		Description:      raw.Description,
		InStock:          true,
		Prices:           make([]model.PriceTier, 0, len(raw.Prices)),
	}
	if raw.InStock != nil {
		detail.InStock = bool(*raw.InStock)
	}

	for i := range raw.Prices {
		rawTier := &raw.Prices[i]
		tier := model.PriceTier{
			ID:       firstString(string(rawTier.ID), string(rawTier.ProductPriceID)),
			UnitName: rawTier.UnitName,
		}
		if rawTier.Qty != nil {
			tier.Qty = rawTier.Qty.Int()
		}
		if n := firstNumber(rawTier.MRP, rawTier.MRPPrice); n != nil {
			tier.MRP = n.Rupees()
		}
		if n := firstNumber(rawTier.SalePrice, rawTier.FinalPrice, rawTier.Price); n != nil {
			tier.SalePrice = n.Rupees()
		}
		if rawTier.DiscountPercent != nil {
			tier.DiscountPercent = rawTier.DiscountPercent.Int()
		}
		detail.Prices = append(detail.Prices, tier)
	}

	return detail
}

// firstString returns the first non-empty string.
func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstNumber returns the first present (non-nil) number.
func firstNumber(values ...*FlexNumber) *FlexNumber {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
