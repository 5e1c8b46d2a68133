package cartsync

import (
	"context"
	"time"

	"github.com/abhilash2200/beyuvana-sub000/internal/commerce"
)

// markPending records the server-acknowledged baseline for a line the first
// time it is optimistically mutated in the current debounce cycle. Later
// mutations in the same cycle keep the original baseline so the flush sends
// one net write. Caller holds e.mu.
func (e *Engine) markPending(idx int) {
	item := e.items[idx]
	if _, ok := e.pending[item.ID]; ok {
		return
	}
	e.pending[item.ID] = &pendingWrite{
		baseline: item.Quantity,
		target:   item.Quantity,
		item:     item,
	}
}

// setPendingTarget records the quantity the flush must converge the line
// to. Called after each optimistic mutation in the cycle; only the last
// value reaches the backend. Caller holds e.mu.
func (e *Engine) setPendingTarget(id string, target int) {
	if pw, ok := e.pending[id]; ok {
		pw.target = target
	}
}

// scheduleWrite arms (or re-arms) the debounce timer for a line. A timer
// already pending for the same id is cancelled and replaced: only the last
// state within the window reaches the backend. Timers for different lines
// are independent. Caller holds e.mu.
func (e *Engine) scheduleWrite(id string, window time.Duration) {
	if e.closed {
		return
	}
	if t, ok := e.timers[id]; ok {
		t.Stop()
	}
	e.timers[id] = time.AfterFunc(window, func() {
		e.flush(id)
	})
}

// cancelWrite drops any pending timer and baseline for a line, for
// operations that take over the line's fate immediately (remove, clear).
// Caller holds e.mu.
func (e *Engine) cancelWrite(id string) {
	if t, ok := e.timers[id]; ok {
		t.Stop()
		delete(e.timers, id)
	}
	delete(e.pending, id)
}

// flush runs when a line's debounce timer fires. It computes the net
// quantity change since the baseline, converges the backend with the
// fewest calls, and re-syncs. Failures surface as a notice plus the same
// recovery re-sync; the optimistic store is never the final word after a
// known failure.
func (e *Engine) flush(id string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	delete(e.timers, id)
	pw, ok := e.pending[id]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.pending, id)
	target := pw.target
	e.mu.Unlock()

	// Cycle converged to where the server already is.
	if target > 0 && target == pw.baseline {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RequestTimeout)
	defer cancel()

	if err := e.converge(ctx, pw, target); err != nil {
		e.logger.Warn("cart write failed",
			"item", id, "baseline", pw.baseline, "target", target, "error", err)
		e.notices.Push(NoticeError, noticeMessage(err))
		e.recoverySync()
		return
	}
	e.Sync(ctx)
}

// recoverySync re-syncs after a failed write on a fresh context. The
// failure being recovered from may be the write's own context expiring, so
// reusing it would guarantee the recovery fails too.
func (e *Engine) recoverySync() {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RequestTimeout)
	defer cancel()
	e.Sync(ctx)
}

// converge issues the backend calls that move a line from its baseline
// quantity to the target. The add endpoint is additive and there is no
// absolute set-quantity operation, so:
//
//	target 0      → remove the line
//	raised        → one additive add for the delta
//	lowered by 1  → one single-unit decrement
//	lowered more  → remove the line, then re-add at the target quantity
//	                (compensating two-step, awaited in order; a failure
//	                between the steps falls through to the recovery
//	                re-sync like any other)
func (e *Engine) converge(ctx context.Context, pw *pendingWrite, target int) error {
	item := pw.item
	delta := target - pw.baseline

	switch {
	case target <= 0:
		return e.backend.RemoveOne(ctx, e.identity, commerce.RemoveOneRequest{
			ProductID: item.ProductID,
			CartID:    item.CartID,
			All:       true,
		})
	case delta > 0:
		return e.backend.AddToCart(ctx, e.identity, commerce.AddToCartRequest{
			ProductID:      item.ProductID,
			ProductPriceID: item.ProductPriceID,
			Qty:            delta,
			PriceQty:       item.PackQty,
			PriceUnitName:  item.UnitName,
		})
	case delta == -1:
		return e.backend.RemoveOne(ctx, e.identity, commerce.RemoveOneRequest{
			ProductID: item.ProductID,
			CartID:    item.CartID,
		})
	default:
		if err := e.backend.RemoveOne(ctx, e.identity, commerce.RemoveOneRequest{
			ProductID: item.ProductID,
			CartID:    item.CartID,
			All:       true,
		}); err != nil {
			return err
		}
		return e.backend.AddToCart(ctx, e.identity, commerce.AddToCartRequest{
			ProductID:      item.ProductID,
			ProductPriceID: item.ProductPriceID,
			Qty:            target,
			PriceQty:       item.PackQty,
			PriceUnitName:  item.UnitName,
		})
	}
}
