// Package cartsync implements the cart synchronization engine: an in-memory
// cart store per shopper, optimistic local mutation with per-item debounced
// remote writes, single-flight reconciliation against the commerce backend,
// and asynchronous product-detail enhancement.
//
// The engine is the single owner of its store. Readers get copies; all
// mutation flows through the operation methods so no caller ever observes a
// torn state.
package cartsync

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abhilash2200/beyuvana-sub000/internal/commerce"
	"github.com/abhilash2200/beyuvana-sub000/internal/model"
	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

// EmptySyncPolicy controls what a sync does when the backend reports an
// empty cart.
type EmptySyncPolicy string

const (
	// EmptyPreserve leaves the local store untouched on an empty response.
	// This avoids clobbering an optimistic add that has not round-tripped
	// yet, at the cost of stale display after a genuine external clear.
	EmptyPreserve EmptySyncPolicy = "preserve"

	// EmptyReplace trusts the empty response and clears the local store.
	EmptyReplace EmptySyncPolicy = "replace"
)

// Config tunes engine behavior. The zero value is usable; Normalize fills
// in defaults.
type Config struct {
	// ButtonDebounce is the quiet window after +/- button presses before
	// the net quantity change is written to the backend.
	ButtonDebounce time.Duration

	// InputDebounce is the quiet window after typed quantity input.
	// Longer than ButtonDebounce because typing churns faster.
	InputDebounce time.Duration

	// RequestTimeout bounds each backend call made from a timer or
	// background goroutine, where no request context exists.
	RequestTimeout time.Duration

	EmptySyncPolicy EmptySyncPolicy
}

// Normalize returns a copy with defaults applied.
func (c Config) Normalize() Config {
	if c.ButtonDebounce <= 0 {
		c.ButtonDebounce = 500 * time.Millisecond
	}
	if c.InputDebounce <= 0 {
		c.InputDebounce = 800 * time.Millisecond
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.EmptySyncPolicy == "" {
		c.EmptySyncPolicy = EmptyPreserve
	}
	return c
}

// pendingWrite tracks one cart line between the first optimistic mutation
// and the debounce flush. The flush compares the server-acknowledged
// baseline against the last scheduled target and sends only the net effect.
// target is owned by the write, not read back from the store: a sync that
// lands inside the debounce window must not erase the shopper's input.
type pendingWrite struct {
	baseline int
	target   int
	// item snapshots the identifying fields at first mutation, so the
	// flush can still target the server row after a zero-floor removal
	// took the line out of the store.
	item model.CartItem
}

// Engine owns one shopper's cart: the local store, the per-item debounce
// timers, the sync single-flight guard, and the notice queue.
type Engine struct {
	identity session.Identity
	backend  commerce.Backend
	logger   *slog.Logger
	cfg      Config
	notices  noticeQueue

	mu      sync.Mutex
	items   []model.CartItem
	pending map[string]*pendingWrite
	timers  map[string]*time.Timer
	closed  bool

	syncing   atomic.Bool
	loading   atomic.Bool
	enhancing atomic.Bool

	lastNonEmptySync atomic.Int64 // unix nanos, 0 = never
}

// New creates an engine for one identity. A zero identity yields an inert
// engine: no network is ever issued, quantity operations no-op, and adds
// surface a login prompt.
func New(id session.Identity, backend commerce.Backend, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		identity: id,
		backend:  backend,
		logger:   logger.With("engine", id.EngineKey()),
		cfg:      cfg.Normalize(),
		pending:  make(map[string]*pendingWrite),
		timers:   make(map[string]*time.Timer),
	}
}

// Identity returns the identity this engine serves.
func (e *Engine) Identity() session.Identity {
	return e.identity
}

// Items returns a copy of the current store.
func (e *Engine) Items() []model.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.CartItem, len(e.items))
	copy(out, e.items)
	return out
}

// Loading reports whether a reconciliation read is in flight.
func (e *Engine) Loading() bool { return e.loading.Load() }

// Enhancing reports whether an enhancement pass is in flight.
func (e *Engine) Enhancing() bool { return e.enhancing.Load() }

// Notices returns and clears all queued notices.
func (e *Engine) Notices() []Notice { return e.notices.Drain() }

// LastNonEmptySync returns when a sync last observed a non-empty cart, or
// the zero time if never. Lets callers judge staleness under EmptyPreserve.
func (e *Engine) LastNonEmptySync() time.Time {
	n := e.lastNonEmptySync.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Close cancels all pending debounce timers and drops pending writes.
// Safe to call more than once. In-flight network calls are not interrupted.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	for id := range e.pending {
		delete(e.pending, id)
	}
}

// findItem returns the index of the line with the given id, or -1.
// Caller holds e.mu.
func (e *Engine) findItem(id string) int {
	for i := range e.items {
		if e.items[i].ID == id {
			return i
		}
	}
	return -1
}

// replaceItems swaps the store for server truth, then re-applies every
// optimistic mutation still waiting on its debounce flush. Without the
// re-apply, a sync landing inside a debounce window would revert the
// shopper's input locally and leave the pending write computing its delta
// against a quantity the server no longer reports.
func (e *Engine) replaceItems(items []model.CartItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = items

	for id, pw := range e.pending {
		idx := e.findItem(id)
		if idx < 0 {
			// Line gone server-side; the pending write recreates it.
			pw.baseline = 0
			if pw.target > 0 {
				item := pw.item
				item.Quantity = pw.target
				e.items = append(e.items, item)
			}
			continue
		}

		pw.baseline = e.items[idx].Quantity
		pw.item = e.items[idx]
		if pw.target > 0 {
			e.items[idx].Quantity = pw.target
		} else {
			e.items = append(e.items[:idx], e.items[idx+1:]...)
		}
	}
}

// noticeMessage extracts the display-ready message from an operation error.
func noticeMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}
