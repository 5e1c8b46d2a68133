// Package commerce implements the client for the remote Beyuvana commerce
// backend. All backend-specific wire types, normalization, and HTTP logic
// live here; nothing outside this package may consume the raw wire shapes.
package commerce

import (
	"context"

	"github.com/abhilash2200/beyuvana-sub000/internal/model"
	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

// Backend abstracts the remote commerce API the cart engine converges
// against. The backend owns persistence, pricing, and inventory; this proxy
// only orchestrates it.
//
// All methods require an authenticated identity - callers are responsible
// for never invoking them on behalf of an anonymous visitor.
type Backend interface {
	// AddToCart performs an ADDITIVE quantity add for a (product, price-tier)
	// pair. The backend has no absolute "set quantity" operation; setting a
	// quantity is modeled as RemoveOne(line) followed by AddToCart(target).
	AddToCart(ctx context.Context, id session.Identity, req AddToCartRequest) error

	// GetCart returns the authoritative cart snapshot as raw server rows.
	// Only the sync path may consume these; everyone else sees model.CartItem.
	GetCart(ctx context.Context, id session.Identity) ([]ServerCartItem, error)

	// RemoveOne decrements a line by one unit, or removes the whole line
	// when req.All is set. CartID scopes the call to a specific server row
	// when known.
	RemoveOne(ctx context.Context, id session.Identity, req RemoveOneRequest) error

	// RemoveAll clears the entire cart for the user.
	RemoveAll(ctx context.Context, id session.Identity) error

	// ProductDetails fetches the full catalog record including price tiers.
	ProductDetails(ctx context.Context, id session.Identity, productID string) (*model.ProductDetail, error)
}

// AddToCartRequest carries the fields the backend needs to price an add.
// UserID is filled in by the client from the caller's identity.
type AddToCartRequest struct {
	UserID         string `json:"user_id"`
	ProductID      string `json:"product_id"`
	ProductPriceID string `json:"product_price_id"`
	Qty            int    `json:"qty"`
	PriceQty       int    `json:"price_qty"`
	PriceUnitName  string `json:"price_unit_name,omitempty"`
}

// RemoveOneRequest identifies the line to decrement or remove.
// UserID is filled in by the client from the caller's identity.
type RemoveOneRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	CartID    string `json:"cart_id,omitempty"`
	// All removes the entire line instead of decrementing one unit.
	All bool `json:"remove_all,omitempty"`
}
