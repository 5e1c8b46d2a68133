package cartsync

import (
	"context"
	"sync"

	"github.com/abhilash2200/beyuvana-sub000/internal/model"
)

// Enhance backfills full catalog data onto lines that were hydrated from a
// cart sync but carry only the partial fields the cart-list endpoint
// returns. Detail lookups fan out in parallel, one per line; a failed
// lookup leaves that line unchanged and never affects the others.
//
// Idempotent: when every line already carries its details the pass makes
// zero network calls. An enhancement-in-progress flag prevents overlapping
// passes.
func (e *Engine) Enhance(ctx context.Context) {
	if !e.identity.Authenticated() {
		return
	}
	if !e.enhancing.CompareAndSwap(false, true) {
		return
	}
	defer e.enhancing.Store(false)

	snapshot := e.Items()

	// One result slot per snapshot position; nil means unchanged.
	results := make([]*model.CartItem, len(snapshot))
	var wg sync.WaitGroup

	for i := range snapshot {
		if !snapshot[i].NeedsEnhancement() {
			continue
		}
		wg.Add(1)
		go func(i int, item model.CartItem) {
			defer wg.Done()
			detail, err := e.backend.ProductDetails(ctx, e.identity, item.ProductID)
			if err != nil || detail == nil {
				e.logger.Debug("enhancement lookup failed",
					"item", item.ID, "product", item.ProductID, "error", err)
				return
			}
			enhanced := enhanceItem(item, detail)
			results[i] = &enhanced
		}(i, snapshot[i])
	}
	wg.Wait()

	// Merge by id rather than replacing the snapshot wholesale: the store
	// may have taken optimistic mutations while the lookups were in
	// flight, and those must survive. The live quantity always wins.
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range results {
		if r == nil {
			continue
		}
		if idx := e.findItem(r.ID); idx >= 0 {
			r.Quantity = e.items[idx].Quantity
			e.items[idx] = *r
		}
	}
}

// enhanceItem overlays resolved catalog data onto a cart line. The price
// tier matching the line's pack size (tie-broken by unit name) supplies
// pricing; no matching tier means the line keeps its synced pricing.
func enhanceItem(item model.CartItem, detail *model.ProductDetail) model.CartItem {
	item.ProductDetails = detail
	item.InStock = detail.InStock

	if detail.Image != "" {
		item.Image = detail.Image
	}
	if detail.ShortDescription != "" {
		item.ShortDescription = detail.ShortDescription
	}
	if detail.Description != "" {
		item.ProductDescription = detail.Description
	}

	if tier := detail.MatchTier(item.PackQty, item.UnitName); tier != nil {
		item.Price = tier.SalePrice
		item.MRPPrice = tier.MRP
		item.DiscountPercent = tier.DiscountPercent
		item.ProductPriceID = tier.ID
		if tier.UnitName != "" {
			item.UnitName = tier.UnitName
		}
	}

	return item
}
