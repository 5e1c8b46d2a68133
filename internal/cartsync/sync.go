package cartsync

import (
	"context"
	"time"

	"github.com/abhilash2200/beyuvana-sub000/internal/commerce"
)

// Sync pulls the authoritative cart and replaces the local store with the
// normalized result. Best-effort: errors are logged and swallowed, the
// store is left unchanged, nothing propagates to the caller.
//
// Single-flight: if a sync is already in progress the call returns
// immediately without a second network request. Callers must not assume a
// sync they triggered actually ran.
func (e *Engine) Sync(ctx context.Context) {
	if !e.identity.Authenticated() {
		return
	}
	if !e.syncing.CompareAndSwap(false, true) {
		return
	}
	defer e.syncing.Store(false)

	e.loading.Store(true)
	defer e.loading.Store(false)

	rows, err := e.backend.GetCart(ctx, e.identity)
	if err != nil {
		e.logger.Warn("cart sync failed", "error", err)
		return
	}

	items := commerce.NormalizeCartItems(rows)
	if len(items) == 0 {
		if e.cfg.EmptySyncPolicy == EmptyReplace {
			e.replaceItems(nil)
		}
		// EmptyPreserve: an empty response may just mean an optimistic
		// add has not round-tripped yet. Keep what we have.
		return
	}

	e.replaceItems(items)
	e.lastNonEmptySync.Store(time.Now().UnixNano())

	// Server rows carry only partial catalog data; backfill the rest
	// without blocking the sync caller.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RequestTimeout)
		defer cancel()
		e.Enhance(ctx)
	}()
}
