package commerce

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// === Wire envelope ===

// apiEnvelope is the uniform response wrapper the backend returns:
// {"success": true, "message": "...", "data": ...}
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// === Flexible scalar decoding ===
//
// The backend serializes the same field as a number on one endpoint and a
// numeric string on another ("qty": 2 vs "qty": "2"), and ids arrive as
// either strings or integers. These types absorb that at the JSON boundary
// so the transform layer works with plain Go values.

// FlexNumber decodes a JSON number or numeric string.
// Unparseable strings decode to 0 rather than failing the whole row;
// validity filtering happens in the transform, not the decoder.
type FlexNumber float64

func (f *FlexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FlexNumber(v)
	return nil
}

// Int returns the value rounded to the nearest integer.
func (f FlexNumber) Int() int {
	return int(math.Round(float64(f)))
}

// Rupees returns the monetary value rounded to whole rupees.
func (f FlexNumber) Rupees() int64 {
	return int64(math.Round(float64(f)))
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	// Numbers become their literal representation ("5", "5.5")
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FlexBool decodes a JSON bool, number, or string flag
// (true, 1, "1", "true", "yes" are all truthy).
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, string(b) == "null":
		*f = false
	case b[0] == 't', b[0] == 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexBool(v)
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.ToLower(strings.TrimSpace(s))
		*f = FlexBool(s == "1" || s == "true" || s == "yes" || s == "in_stock")
	default:
		var v float64
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexBool(v != 0)
	}
	return nil
}

// === Cart rows ===

// ServerCartItem is the raw cart row returned by the cart-list endpoint.
// It is a superset of loosely-typed, partially-optional fields with
// multiple aliases for the same concept. normalizeCartItem resolves the
// aliases with a documented precedence; no other code may read this type.
type ServerCartItem struct {
	CartID    FlexString `json:"cart_id"`
	RowID     FlexString `json:"id"`
	ProductID FlexString `json:"product_id"`

	Name        string `json:"name"`
	ProductName string `json:"product_name"`

	// Quantity aliases. Pointers distinguish "absent" (defaults to 1)
	// from an explicit non-positive value (row is dropped).
	Qty      *FlexNumber `json:"qty"`
	Quantity *FlexNumber `json:"quantity"`

	// Price aliases, highest precedence first: final_price, sale_price, price.
	FinalPrice *FlexNumber `json:"final_price"`
	SalePrice  *FlexNumber `json:"sale_price"`
	Price      *FlexNumber `json:"price"`

	MRPPrice        *FlexNumber `json:"mrp_price"`
	DiscountPercent *FlexNumber `json:"discount_percent"`

	PackQty  *FlexNumber `json:"pack_qty"`
	PriceQty *FlexNumber `json:"price_qty"`

	ProductPriceID FlexString `json:"product_price_id"`

	UnitName      string `json:"unit_name"`
	PriceUnitName string `json:"price_unit_name"`

	Image        string `json:"image"`
	ProductImage string `json:"product_image"`

	ShortDescription   string `json:"short_description"`
	ProductDescription string `json:"product_description"`

	InStock *FlexBool `json:"in_stock"`
}

// === Product details ===

// serverProductDetail is the raw product-details payload.
type serverProductDetail struct {
	ProductID        FlexString        `json:"product_id"`
	ID               FlexString        `json:"id"`
	Name             string            `json:"name"`
	ProductName      string            `json:"product_name"`
	Image            string            `json:"image"`
	ShortDescription string            `json:"short_description"`
	Description      string            `json:"description"`
	InStock          *FlexBool         `json:"in_stock"`
	Prices           []serverPriceTier `json:"prices"`
}

// serverPriceTier is one entry of the prices[] tier list.
type serverPriceTier struct {
	ID              FlexString  `json:"id"`
	ProductPriceID  FlexString  `json:"product_price_id"`
	Qty             *FlexNumber `json:"qty"`
	UnitName        string      `json:"unit_name"`
	MRP             *FlexNumber `json:"mrp"`
	MRPPrice        *FlexNumber `json:"mrp_price"`
	SalePrice       *FlexNumber `json:"sale_price"`
	FinalPrice      *FlexNumber `json:"final_price"`
	Price           *FlexNumber `json:"price"`
	DiscountPercent *FlexNumber `json:"discount_percent"`
}
