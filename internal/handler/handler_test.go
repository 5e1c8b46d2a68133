package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abhilash2200/beyuvana-sub000/internal/cartsync"
	"github.com/abhilash2200/beyuvana-sub000/internal/commerce"
	"github.com/abhilash2200/beyuvana-sub000/internal/model"
	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

func testHandler(mock *commerce.Mock) (*Handler, *http.ServeMux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	carts := cartsync.NewManager(mock, logger, cartsync.Config{
		ButtonDebounce: 10 * time.Millisecond,
		InputDebounce:  20 * time.Millisecond,
		RequestTimeout: time.Second,
	})
	h := New(carts, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

// shopperRequest builds a request carrying an authenticated identity, the
// way the session middleware would have attached it.
func shopperRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := session.WithIdentity(req.Context(), session.Identity{
		UserID:     "u1",
		SessionKey: "sk1",
	})
	return req.WithContext(ctx)
}

func decodeSnapshot(t *testing.T, body io.Reader) CartSnapshot {
	t.Helper()
	var snap CartSnapshot
	if err := json.NewDecoder(body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func decodeError(t *testing.T, body io.Reader) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

const addItemBody = `{
	"product_id": "5",
	"product_price_id": "17",
	"name": "Collagen Builder",
	"quantity": 1,
	"pack_qty": 1,
	"unit_name": "Box",
	"price": 499
}`

func TestHandleHealth(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp healthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "ok" {
		t.Errorf("Status = %s, want ok", resp.Status)
	}
}

func TestHandleGetCartEmpty(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("GET", "/cart", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 0 {
		t.Errorf("Items = %d, want 0", len(snap.Items))
	}
	if snap.Subtotal != 0 {
		t.Errorf("Subtotal = %d, want 0", snap.Subtotal)
	}
}

func TestHandleAddItem(t *testing.T) {
	var got commerce.AddToCartRequest
	mock := &commerce.Mock{
		AddToCartFunc: func(ctx context.Context, id session.Identity, req commerce.AddToCartRequest) error {
			got = req
			return nil
		},
	}
	_, mux := testHandler(mock)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items", strings.NewReader(addItemBody)))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	if got.ProductID != "5" || got.ProductPriceID != "17" || got.Qty != 1 {
		t.Errorf("backend got %+v", got)
	}

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 1 {
		t.Fatalf("Items = %d, want 1", len(snap.Items))
	}
	if snap.Items[0].ID != "5-1" {
		t.Errorf("ID = %s, want 5-1", snap.Items[0].ID)
	}
	if snap.Subtotal != 499 {
		t.Errorf("Subtotal = %d, want 499", snap.Subtotal)
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Message != "Added to cart." {
		t.Errorf("Notices = %+v, want added notice", snap.Notices)
	}
}

func TestHandleAddItemDefaultsQuantity(t *testing.T) {
	var got commerce.AddToCartRequest
	mock := &commerce.Mock{
		AddToCartFunc: func(ctx context.Context, id session.Identity, req commerce.AddToCartRequest) error {
			got = req
			return nil
		},
	}
	_, mux := testHandler(mock)

	body := `{"product_id": "5", "product_price_id": "17", "price": 499}`
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.Qty != 1 {
		t.Errorf("Qty = %d, want 1", got.Qty)
	}
}

func TestHandleAddItemLoginRequired(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})

	// No identity in context: anonymous visitor.
	req := httptest.NewRequest("POST", "/cart/items", strings.NewReader(addItemBody))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	resp := decodeError(t, w.Body)
	if resp.Error.Code != "LOGIN_REQUIRED" {
		t.Errorf("Code = %s, want LOGIN_REQUIRED", resp.Error.Code)
	}
}

func TestHandleAddItemInvalidJSON(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items", strings.NewReader("{not json")))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	resp := decodeError(t, w.Body)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %s, want VALIDATION_ERROR", resp.Error.Code)
	}
}

func TestHandleAddItemMissingTier(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})

	body := `{"product_id": "5", "price": 499}`
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items", strings.NewReader(body)))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	resp := decodeError(t, w.Body)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %s, want VALIDATION_ERROR", resp.Error.Code)
	}
}

func TestHandleAddItemBackendFailure(t *testing.T) {
	mock := &commerce.Mock{
		AddToCartFunc: func(ctx context.Context, id session.Identity, req commerce.AddToCartRequest) error {
			return model.NewUpstreamError("add item to cart", context.DeadlineExceeded)
		},
	}
	_, mux := testHandler(mock)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items", strings.NewReader(addItemBody)))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusBadGateway)
	}

	resp := decodeError(t, w.Body)
	if resp.Error.Code != "UPSTREAM_ERROR" {
		t.Errorf("Code = %s, want UPSTREAM_ERROR", resp.Error.Code)
	}
}

// addThroughMux seeds a line through the HTTP surface so quantity tests
// exercise the same engine a real shopper would.
func addThroughMux(t *testing.T, mux *http.ServeMux) {
	t.Helper()
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items", strings.NewReader(addItemBody)))
	if w.Code != http.StatusOK {
		t.Fatalf("seed add: status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestHandleIncreaseIsOptimistic(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})
	addThroughMux(t, mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items/5-1/increase", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 1 || snap.Items[0].Quantity != 2 {
		t.Errorf("snapshot = %+v, want quantity 2", snap.Items)
	}
	if snap.Subtotal != 998 {
		t.Errorf("Subtotal = %d, want 998", snap.Subtotal)
	}
}

func TestHandleDecreaseRemovesAtZero(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})
	addThroughMux(t, mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items/5-1/decrease", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 0 {
		t.Errorf("Items = %d, want 0", len(snap.Items))
	}
}

func TestHandleSetQuantityClamps(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})
	addThroughMux(t, mux)

	body := `{"quantity": 15}`
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("PUT", "/cart/items/5-1/quantity", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 1 || snap.Items[0].Quantity != model.MaxQuantity {
		t.Errorf("snapshot = %+v, want quantity %d", snap.Items, model.MaxQuantity)
	}
}

func TestHandleUnknownItemIsSilent(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items/nope/increase", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 0 {
		t.Errorf("Items = %d, want 0", len(snap.Items))
	}
}

func TestHandleRemoveItem(t *testing.T) {
	var got commerce.RemoveOneRequest
	mock := &commerce.Mock{
		RemoveOneFunc: func(ctx context.Context, id session.Identity, req commerce.RemoveOneRequest) error {
			got = req
			return nil
		},
	}
	_, mux := testHandler(mock)
	addThroughMux(t, mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("DELETE", "/cart/items/5-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	if !got.All {
		t.Error("RemoveOne All = false, want true")
	}

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 0 {
		t.Errorf("Items = %d, want 0", len(snap.Items))
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Message != "Removed from cart." {
		t.Errorf("Notices = %+v, want removed notice", snap.Notices)
	}
}

func TestHandleClearCart(t *testing.T) {
	calls := 0
	mock := &commerce.Mock{
		RemoveAllFunc: func(ctx context.Context, id session.Identity) error {
			calls++
			return nil
		},
	}
	_, mux := testHandler(mock)
	addThroughMux(t, mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("DELETE", "/cart", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if calls != 1 {
		t.Errorf("RemoveAll calls = %d, want 1", calls)
	}

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 0 {
		t.Errorf("Items = %d, want 0", len(snap.Items))
	}
}

func TestHandleSyncReplacesStore(t *testing.T) {
	rows := []commerce.ServerCartItem{}
	if err := json.Unmarshal([]byte(`[{
		"cart_id": "881",
		"product_id": "5",
		"name": "Collagen Builder",
		"qty": 2,
		"final_price": 499,
		"pack_qty": 1
	}]`), &rows); err != nil {
		t.Fatalf("build rows: %v", err)
	}

	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			return rows, nil
		},
	}
	_, mux := testHandler(mock)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/sync", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 1 {
		t.Fatalf("Items = %d, want 1", len(snap.Items))
	}
	if snap.Items[0].ID != "5-1" || snap.Items[0].Quantity != 2 {
		t.Errorf("item = %+v, want 5-1 x2", snap.Items[0])
	}
	if snap.Subtotal != 998 {
		t.Errorf("Subtotal = %d, want 998", snap.Subtotal)
	}
}

func TestHandleEnhance(t *testing.T) {
	calls := 0
	mock := &commerce.Mock{
		ProductDetailsFunc: func(ctx context.Context, id session.Identity, productID string) (*model.ProductDetail, error) {
			calls++
			return nil, model.NewNotFoundError("product")
		},
	}
	_, mux := testHandler(mock)
	addThroughMux(t, mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/enhance", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if calls != 1 {
		t.Errorf("ProductDetails calls = %d, want 1", calls)
	}
}

func TestNoticesDrainExactlyOnce(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})
	addThroughMux(t, mux)

	// The seed add's notice was drained by the add response itself.
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("GET", "/cart", nil))

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Notices) != 0 {
		t.Errorf("Notices = %+v, want none on second read", snap.Notices)
	}
}

func TestEnginePersistsAcrossRequests(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})
	addThroughMux(t, mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("GET", "/cart", nil))

	snap := decodeSnapshot(t, w.Body)
	if len(snap.Items) != 1 {
		t.Errorf("Items = %d, want 1 from earlier request", len(snap.Items))
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	_, mux := testHandler(&commerce.Mock{})

	big := bytes.Repeat([]byte("a"), MaxRequestBodySize+1)
	body := `{"product_id": "` + string(big) + `"}`

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, shopperRequest("POST", "/cart/items", strings.NewReader(body)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
