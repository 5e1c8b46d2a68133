package cartsync

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/abhilash2200/beyuvana-sub000/internal/commerce"
	"github.com/abhilash2200/beyuvana-sub000/internal/model"
	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

func serverRow(productID, name string, qty int) commerce.ServerCartItem {
	q := commerce.FlexNumber(qty)
	one := commerce.FlexNumber(1)
	return commerce.ServerCartItem{
		ProductID: commerce.FlexString(productID),
		Name:      name,
		Qty:       &q,
		PackQty:   &one,
	}
}

func TestSyncReplacesStore(t *testing.T) {
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			return []commerce.ServerCartItem{
				serverRow("5", "Collagen Builder", 2),
				serverRow("7", "Glow Serum", 1),
			}, nil
		},
	}
	e := newTestEngine(t, mock)
	e.replaceItems([]model.CartItem{seedItem()})

	e.Sync(context.Background())

	items := e.Items()
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "5-1" || items[0].Quantity != 2 {
		t.Errorf("first item = %+v, want 5-1 at qty 2", items[0])
	}
	if items[1].ID != "7-1" {
		t.Errorf("second item ID = %q, want 7-1", items[1].ID)
	}
	if e.LastNonEmptySync().IsZero() {
		t.Error("LastNonEmptySync not recorded")
	}
}

func TestSyncUnauthenticatedNoOp(t *testing.T) {
	var calls atomic.Int32
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			calls.Add(1)
			return nil, nil
		},
	}
	e := New(session.Identity{}, mock, slog.Default(), testConfig())
	defer e.Close()
	e.replaceItems([]model.CartItem{seedItem()})

	e.Sync(context.Background())

	if calls.Load() != 0 {
		t.Errorf("network calls = %d, want 0", calls.Load())
	}
	if len(e.Items()) != 1 {
		t.Error("store changed by unauthenticated sync")
	}
}

func TestSyncSingleFlight(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			calls.Add(1)
			close(entered)
			<-release
			return nil, nil
		},
	}
	e := newTestEngine(t, mock)

	done := make(chan struct{})
	go func() {
		e.Sync(context.Background())
		close(done)
	}()
	<-entered

	if !e.Loading() {
		t.Error("loading flag not set while sync in flight")
	}

	// Second trigger while the first request is pending: dropped, not queued.
	e.Sync(context.Background())

	close(release)
	<-done

	if calls.Load() != 1 {
		t.Errorf("cart-list calls = %d, want 1", calls.Load())
	}
	if e.Loading() {
		t.Error("loading flag stuck after sync")
	}
}

func TestSyncEmptyResponsePreservesStore(t *testing.T) {
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			return []commerce.ServerCartItem{}, nil
		},
	}
	e := newTestEngine(t, mock)
	e.replaceItems([]model.CartItem{seedItem()})

	e.Sync(context.Background())

	items := e.Items()
	if len(items) != 1 || items[0].ID != "5-1" {
		t.Errorf("store = %+v, want untouched single line", items)
	}
}

func TestSyncEmptyResponseReplacePolicy(t *testing.T) {
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			return nil, nil
		},
	}
	cfg := testConfig()
	cfg.EmptySyncPolicy = EmptyReplace
	e := New(testIdentity(), mock, slog.Default(), cfg)
	defer e.Close()
	e.replaceItems([]model.CartItem{seedItem()})

	e.Sync(context.Background())

	if len(e.Items()) != 0 {
		t.Error("replace policy did not clear the store on empty response")
	}
}

func TestSyncErrorSwallowedStoreUnchanged(t *testing.T) {
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			return nil, model.NewUpstreamError("load cart", errors.New("boom"))
		},
	}
	e := newTestEngine(t, mock)
	e.replaceItems([]model.CartItem{seedItem()})

	// Must not panic or propagate anything.
	e.Sync(context.Background())

	if len(e.Items()) != 1 {
		t.Error("store changed after failed sync")
	}
	if e.Loading() {
		t.Error("loading flag stuck after failed sync")
	}
}

func TestSyncDropsBrokenRows(t *testing.T) {
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			zero := commerce.FlexNumber(0)
			broken := commerce.ServerCartItem{Name: "No Reference"}
			zeroQty := serverRow("9", "Explicit Zero", 1)
			zeroQty.Qty = &zero
			return []commerce.ServerCartItem{
				serverRow("5", "Collagen Builder", 2),
				broken,
				zeroQty,
			}, nil
		},
	}
	e := newTestEngine(t, mock)

	e.Sync(context.Background())

	items := e.Items()
	if len(items) != 1 || items[0].ID != "5-1" {
		t.Errorf("store = %+v, want only the valid row", items)
	}
}

func TestSyncKicksEnhancement(t *testing.T) {
	var detailCalls atomic.Int32
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			return []commerce.ServerCartItem{serverRow("5", "Collagen Builder", 1)}, nil
		},
		ProductDetailsFunc: func(ctx context.Context, id session.Identity, productID string) (*model.ProductDetail, error) {
			detailCalls.Add(1)
			return &model.ProductDetail{ProductID: productID, Name: "Collagen Builder", InStock: true}, nil
		},
	}
	e := newTestEngine(t, mock)

	e.Sync(context.Background())

	waitFor(t, func() bool { return detailCalls.Load() > 0 }, "enhancement after sync")

	waitFor(t, func() bool {
		items := e.Items()
		return len(items) == 1 && items[0].ProductDetails != nil
	}, "details merged into store")
}

func TestSyncLoadingFlagDuration(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			close(entered)
			<-release
			return nil, nil
		},
	}
	e := newTestEngine(t, mock)

	if e.Loading() {
		t.Error("loading true before any sync")
	}
	go e.Sync(context.Background())
	<-entered
	if !e.Loading() {
		t.Error("loading false during sync")
	}
	close(release)
	waitFor(t, func() bool { return !e.Loading() }, "loading cleared")
}

func TestSyncDuringDebouncePreservesPendingIncrease(t *testing.T) {
	var addCalls atomic.Int32
	var gotQty atomic.Int32
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			return []commerce.ServerCartItem{serverRow("5", "Collagen Builder", 2)}, nil
		},
		AddToCartFunc: func(ctx context.Context, id session.Identity, req commerce.AddToCartRequest) error {
			gotQty.Store(int32(req.Qty))
			addCalls.Add(1)
			return nil
		},
	}
	e := newTestEngine(t, mock)

	e.Sync(context.Background())
	e.IncreaseItemQuantity("5-1")

	// Server truth lands while the write is still debouncing. The click
	// must survive both in the store and in the eventual flush.
	e.Sync(context.Background())

	items := e.Items()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("items after mid-window sync = %+v, want 5-1 at qty 3", items)
	}

	waitFor(t, func() bool { return addCalls.Load() == 1 }, "debounced add")
	if got := gotQty.Load(); got != 1 {
		t.Errorf("flushed add Qty = %d, want the net +1", got)
	}
}

func TestSyncDuringDebounceKeepsPendingRemoval(t *testing.T) {
	var removeCalls atomic.Int32
	var removedAll atomic.Bool
	mock := &commerce.Mock{
		GetCartFunc: func(ctx context.Context, id session.Identity) ([]commerce.ServerCartItem, error) {
			return []commerce.ServerCartItem{serverRow("5", "Collagen Builder", 1)}, nil
		},
		RemoveOneFunc: func(ctx context.Context, id session.Identity, req commerce.RemoveOneRequest) error {
			removedAll.Store(req.All)
			removeCalls.Add(1)
			return nil
		},
	}
	e := newTestEngine(t, mock)

	e.Sync(context.Background())
	e.DecreaseItemQuantity("5-1")

	// The server still reports the line; the zeroed target wins locally.
	e.Sync(context.Background())

	if items := e.Items(); len(items) != 0 {
		t.Fatalf("items after mid-window sync = %+v, want the removed line gone", items)
	}

	waitFor(t, func() bool { return removeCalls.Load() == 1 }, "debounced remove")
	if !removedAll.Load() {
		t.Error("flush for a zeroed line did not remove the whole line")
	}
}
