package commerce

import (
	"context"

	"github.com/abhilash2200/beyuvana-sub000/internal/model"
	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

// Mock implements Backend for testing.
// Each method can be configured via function fields.
type Mock struct {
	AddToCartFunc      func(ctx context.Context, id session.Identity, req AddToCartRequest) error
	GetCartFunc        func(ctx context.Context, id session.Identity) ([]ServerCartItem, error)
	RemoveOneFunc      func(ctx context.Context, id session.Identity, req RemoveOneRequest) error
	RemoveAllFunc      func(ctx context.Context, id session.Identity) error
	ProductDetailsFunc func(ctx context.Context, id session.Identity, productID string) (*model.ProductDetail, error)
}

// AddToCart calls the configured AddToCartFunc or succeeds.
func (m *Mock) AddToCart(ctx context.Context, id session.Identity, req AddToCartRequest) error {
	if m.AddToCartFunc != nil {
		return m.AddToCartFunc(ctx, id, req)
	}
	return nil
}

// GetCart calls the configured GetCartFunc or returns an empty cart.
func (m *Mock) GetCart(ctx context.Context, id session.Identity) ([]ServerCartItem, error) {
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx, id)
	}
	return nil, nil
}

// RemoveOne calls the configured RemoveOneFunc or succeeds.
func (m *Mock) RemoveOne(ctx context.Context, id session.Identity, req RemoveOneRequest) error {
	if m.RemoveOneFunc != nil {
		return m.RemoveOneFunc(ctx, id, req)
	}
	return nil
}

// RemoveAll calls the configured RemoveAllFunc or succeeds.
func (m *Mock) RemoveAll(ctx context.Context, id session.Identity) error {
	if m.RemoveAllFunc != nil {
		return m.RemoveAllFunc(ctx, id)
	}
	return nil
}

// ProductDetails calls the configured ProductDetailsFunc or returns not found.
func (m *Mock) ProductDetails(ctx context.Context, id session.Identity, productID string) (*model.ProductDetail, error) {
	if m.ProductDetailsFunc != nil {
		return m.ProductDetailsFunc(ctx, id, productID)
	}
	return nil, model.NewNotFoundError("product")
}

// Verify Mock implements Backend interface at compile time.
var _ Backend = (*Mock)(nil)
