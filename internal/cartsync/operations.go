package cartsync

import (
	"context"

	"github.com/abhilash2200/beyuvana-sub000/internal/commerce"
	"github.com/abhilash2200/beyuvana-sub000/internal/model"
)

// The quantity operations share one pattern: locate the line, mutate the
// store immediately so the UI reflects the change with zero latency, then
// arm the per-item debounce timer. The remote outcome arrives later as a
// notice. Guards (missing line, missing identity, missing product
// reference) are silent no-ops - they mean the UI acted on stale state,
// not that the shopper did something wrong.

// AddToCart adds a line (or raises an existing line's quantity) and writes
// through immediately. Unlike the +/- operations this is not debounced:
// an add is a discrete, deliberate action and the shopper expects a
// definitive outcome.
//
// Requires authentication and a resolved price-tier reference; the backend
// cannot price an add without one, so there is no optimistic add either.
func (e *Engine) AddToCart(ctx context.Context, item model.CartItem) error {
	if !e.identity.Authenticated() {
		return model.NewLoginRequiredError()
	}
	if item.ProductID == "" {
		return model.NewValidationError("product_id", "item has no product reference")
	}
	if item.ProductPriceID == "" {
		return model.NewValidationError("product_price_id", "item has no price tier selected")
	}

	if item.PackQty <= 0 {
		item.PackQty = 1
	}
	item.Quantity = model.ClampQuantity(item.Quantity)
	if item.ID == "" {
		item.ID = model.LineItemID(item.ProductID, item.PackQty)
	}

	// Optimistic insert-or-merge before the network call.
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return model.NewInternalError(nil)
	}
	if idx := e.findItem(item.ID); idx >= 0 {
		e.items[idx].Quantity = model.ClampQuantity(e.items[idx].Quantity + item.Quantity)
	} else {
		e.items = append(e.items, item)
	}
	e.mu.Unlock()

	err := e.backend.AddToCart(ctx, e.identity, commerce.AddToCartRequest{
		ProductID:      item.ProductID,
		ProductPriceID: item.ProductPriceID,
		Qty:            item.Quantity,
		PriceQty:       item.PackQty,
		PriceUnitName:  item.UnitName,
	})
	if err != nil {
		e.logger.Warn("add to cart failed", "item", item.ID, "error", err)
		e.recoverySync()
		return err
	}

	e.notices.Push(NoticeSuccess, "Added to cart.")
	e.Sync(ctx)
	return nil
}

// IncreaseItemQuantity raises a line's quantity by one, clamped, and arms
// the button debounce window.
func (e *Engine) IncreaseItemQuantity(id string) {
	e.adjustQuantity(id, func(q int) int { return q + 1 })
}

// DecreaseItemQuantity lowers a line's quantity by one. At quantity 1 the
// line is removed from the store outright; zero-quantity lines never exist.
func (e *Engine) DecreaseItemQuantity(id string) {
	e.adjustQuantity(id, func(q int) int { return q - 1 })
}

// adjustQuantity applies a quantity delta optimistically and schedules the
// debounced write.
func (e *Engine) adjustQuantity(id string, apply func(int) int) {
	if !e.identity.Authenticated() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	idx := e.findItem(id)
	if idx < 0 || e.items[idx].ProductID == "" {
		return
	}

	e.markPending(idx)

	next := apply(e.items[idx].Quantity)
	if next <= 0 {
		e.items = append(e.items[:idx], e.items[idx+1:]...)
		e.setPendingTarget(id, 0)
	} else {
		e.items[idx].Quantity = model.ClampQuantity(next)
		e.setPendingTarget(id, e.items[idx].Quantity)
	}

	e.scheduleWrite(id, e.cfg.ButtonDebounce)
}

// UpdateItemQuantity sets a line to an absolute quantity from typed input.
// The value is rounded to the nearest integer and clamped to the allowed
// range; NaN and infinities leave the store untouched. Uses the longer
// input debounce window.
func (e *Engine) UpdateItemQuantity(id string, qty float64) {
	if !e.identity.Authenticated() {
		return
	}

	n, ok := model.NormalizeQuantity(qty)
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	idx := e.findItem(id)
	if idx < 0 || e.items[idx].ProductID == "" {
		return
	}

	e.markPending(idx)
	e.items[idx].Quantity = n
	e.setPendingTarget(id, n)
	e.scheduleWrite(id, e.cfg.InputDebounce)
}

// RemoveFromCart removes a line and writes through immediately; removal is
// a discrete, user-confirmed action, so there is nothing to coalesce.
// Any pending debounced write for the line is cancelled - the removal
// supersedes it.
func (e *Engine) RemoveFromCart(ctx context.Context, id string) error {
	if !e.identity.Authenticated() {
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	idx := e.findItem(id)
	if idx < 0 || e.items[idx].ProductID == "" {
		e.mu.Unlock()
		return nil
	}
	item := e.items[idx]
	e.cancelWrite(id)
	e.items = append(e.items[:idx], e.items[idx+1:]...)
	e.mu.Unlock()

	err := e.backend.RemoveOne(ctx, e.identity, commerce.RemoveOneRequest{
		ProductID: item.ProductID,
		CartID:    item.CartID,
		All:       true,
	})
	if err != nil {
		e.logger.Warn("remove from cart failed", "item", id, "error", err)
		e.recoverySync()
		return err
	}

	e.notices.Push(NoticeSuccess, "Removed from cart.")
	e.Sync(ctx)
	return nil
}

// ClearCart removes every line for the user. On success the local store is
// emptied immediately without waiting for a sync - the all-clear is
// trusted as authoritative.
func (e *Engine) ClearCart(ctx context.Context) error {
	if !e.identity.Authenticated() {
		return nil
	}

	if err := e.backend.RemoveAll(ctx, e.identity); err != nil {
		e.logger.Warn("clear cart failed", "error", err)
		e.recoverySync()
		return err
	}

	e.mu.Lock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	for id := range e.pending {
		delete(e.pending, id)
	}
	e.items = nil
	e.mu.Unlock()

	e.notices.Push(NoticeSuccess, "Cart cleared.")
	return nil
}
