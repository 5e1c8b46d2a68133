package cartsync

import (
	"log/slog"
	"sync"
	"time"

	"github.com/abhilash2200/beyuvana-sub000/internal/commerce"
	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

// Manager hands out one Engine per shopper identity and evicts engines
// nobody has touched for a while. Engines are created on first use and
// shared across requests for the same identity, so debounce timers and
// optimistic state survive between HTTP calls.
type Manager struct {
	backend commerce.Backend
	logger  *slog.Logger
	cfg     Config

	mu      sync.Mutex
	engines map[string]*managedEngine
}

type managedEngine struct {
	engine   *Engine
	lastSeen time.Time
}

// NewManager creates an empty registry.
func NewManager(backend commerce.Backend, logger *slog.Logger, cfg Config) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend: backend,
		logger:  logger,
		cfg:     cfg,
		engines: make(map[string]*managedEngine),
	}
}

// Engine returns the engine for an identity, creating it on first use.
// Authenticated shoppers key by user id, guests by their client-issued
// guest token; the same identity always gets the same engine. Identities
// with neither get a fresh unregistered engine per call.
func (m *Manager) Engine(id session.Identity) *Engine {
	key := id.EngineKey()
	if key == "" {
		// No durable identity to file an engine under. Hand out a
		// throwaway so anonymous no-token callers never share state;
		// every operation on it no-ops or asks for login.
		return New(id, m.backend, m.logger, m.cfg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if me, ok := m.engines[key]; ok {
		me.lastSeen = time.Now()
		return me.engine
	}

	e := New(id, m.backend, m.logger, m.cfg)
	m.engines[key] = &managedEngine{engine: e, lastSeen: time.Now()}
	return e
}

// CloseIdle closes and evicts engines idle longer than maxIdle.
// Returns the number evicted.
func (m *Manager) CloseIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for key, me := range m.engines {
		if me.lastSeen.Before(cutoff) {
			me.engine.Close()
			delete(m.engines, key)
			evicted++
		}
	}
	if evicted > 0 {
		m.logger.Debug("evicted idle cart engines", "count", evicted)
	}
	return evicted
}

// Close closes every engine and empties the registry.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, me := range m.engines {
		me.engine.Close()
		delete(m.engines, key)
	}
}

// Len returns the number of live engines.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}
