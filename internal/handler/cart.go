package handler

import (
	"net/http"

	"github.com/abhilash2200/beyuvana-sub000/internal/cartsync"
	"github.com/abhilash2200/beyuvana-sub000/internal/model"
	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

// CartSnapshot is the storefront's view of a cart: the optimistic store,
// the engine flags driving spinners, and any notices accumulated since the
// last read. Notices are delivered exactly once.
type CartSnapshot struct {
	Items     []model.CartItem  `json:"items"`
	Subtotal  int64             `json:"subtotal"`
	Loading   bool              `json:"loading"`
	Enhancing bool              `json:"enhancing"`
	Notices   []cartsync.Notice `json:"notices,omitempty"`
}

// snapshot builds the response view of an engine, draining its notices.
func snapshot(e *cartsync.Engine) CartSnapshot {
	items := e.Items()
	var subtotal int64
	for i := range items {
		subtotal += items[i].Price * int64(items[i].Quantity)
	}
	return CartSnapshot{
		Items:     items,
		Subtotal:  subtotal,
		Loading:   e.Loading(),
		Enhancing: e.Enhancing(),
		Notices:   e.Notices(),
	}
}

// engine resolves the caller's cart engine from the session identity the
// middleware put in the request context.
func (h *Handler) engine(r *http.Request) *cartsync.Engine {
	return h.carts.Engine(session.FromContext(r.Context()))
}

// handleGetCart returns the current cart snapshot.
// GET /cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, snapshot(h.engine(r)))
}

// addItemRequest carries everything needed to create a priced cart line.
type addItemRequest struct {
	ProductID      string `json:"product_id"`
	ProductPriceID string `json:"product_price_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	PackQty        int    `json:"pack_qty"`
	UnitName       string `json:"unit_name"`
	Price          int64  `json:"price"`
	Image          string `json:"image"`
}

// handleAddItem adds a line to the cart with an immediate backend write.
// POST /cart/items
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	e := h.engine(r)
	err := e.AddToCart(r.Context(), model.CartItem{
		ProductID:      req.ProductID,
		ProductPriceID: req.ProductPriceID,
		Name:           req.Name,
		Quantity:       req.Quantity,
		PackQty:        req.PackQty,
		UnitName:       req.UnitName,
		Price:          req.Price,
		Image:          req.Image,
		InStock:        true,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, snapshot(e))
}

// The quantity endpoints return the optimistic snapshot immediately; the
// backend write happens after the debounce window and its outcome arrives
// as a notice on a later read.

// handleIncrease bumps a line's quantity by one.
// POST /cart/items/{id}/increase
func (h *Handler) handleIncrease(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r)
	e.IncreaseItemQuantity(r.PathValue("id"))
	h.writeJSON(w, http.StatusOK, snapshot(e))
}

// handleDecrease lowers a line's quantity by one, removing it at zero.
// POST /cart/items/{id}/decrease
func (h *Handler) handleDecrease(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r)
	e.DecreaseItemQuantity(r.PathValue("id"))
	h.writeJSON(w, http.StatusOK, snapshot(e))
}

type setQuantityRequest struct {
	Quantity float64 `json:"quantity"`
}

// handleSetQuantity sets a line to an absolute quantity from typed input.
// PUT /cart/items/{id}/quantity
func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	e := h.engine(r)
	e.UpdateItemQuantity(r.PathValue("id"), req.Quantity)
	h.writeJSON(w, http.StatusOK, snapshot(e))
}

// handleRemoveItem removes a line with an immediate backend write.
// DELETE /cart/items/{id}
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r)
	if err := e.RemoveFromCart(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot(e))
}

// handleClearCart removes every line for the caller.
// DELETE /cart
func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r)
	if err := e.ClearCart(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot(e))
}

// handleSync triggers an explicit reconcile against the backend.
// Single-flight: concurrent triggers are dropped, not queued.
// POST /cart/sync
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r)
	e.Sync(r.Context())
	h.writeJSON(w, http.StatusOK, snapshot(e))
}

// handleEnhance triggers an explicit enhancement pass. The engine normally
// runs one itself after each successful sync; this exists for storefronts
// that hydrate the cart from a cache first.
// POST /cart/enhance
func (h *Handler) handleEnhance(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r)
	e.Enhance(r.Context())
	h.writeJSON(w, http.StatusOK, snapshot(e))
}
