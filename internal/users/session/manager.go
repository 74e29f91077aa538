// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/taibuivan/planx/internal/platform/constants"
	"github.com/taibuivan/planx/pkg/uuid"
)

// restoreTimeout bounds the persisted-identity check of a new store.
const restoreTimeout = 5 * time.Second

// Manager owns the live stores of every browser session.
//
// # Lifecycle
//
// A store is created the first time a session id is seen and restores its
// persisted identity in the background. Stores unused for
// [constants.SessionIdleEviction] are dropped from memory; their persisted
// copy stays, so the next request restores them again.
type Manager struct {
	directory Directory
	persister Persister
	options   Options
	clock     clock.Clock
	logger    *slog.Logger

	mutex   sync.Mutex
	stores  map[string]*entry
	onEvict func(sessionID string)
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// NewManager creates an empty [Manager]. A nil clk uses the wall clock.
func NewManager(directory Directory, persister Persister, options Options, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		directory: directory,
		persister: persister,
		options:   options,
		clock:     clk,
		logger:    logger.With(slog.String("component", "session_manager")),
		stores:    make(map[string]*entry),
	}
}

// Get returns the store of sessionID, creating it and starting its restore
// when the id has not been seen. The returned store may still be loading.
func (manager *Manager) Get(context context.Context, sessionID string) *Store {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if current, ok := manager.stores[sessionID]; ok {
		current.lastSeen = manager.clock.Now()
		return current.store
	}

	store := NewStore(sessionID, manager.directory, manager.persister, manager.options)
	manager.stores[sessionID] = &entry{store: store, lastSeen: manager.clock.Now()}

	restoreCtx, cancel := contextWithTimeout(context, restoreTimeout)
	go func() {
		defer cancel()
		store.Restore(restoreCtx)
	}()

	return store
}

// Open creates a store under a fresh session id. It has nothing to restore
// and is ready at once.
func (manager *Manager) Open() *Store {
	store := NewStore(uuid.New(), manager.directory, manager.persister, manager.options)
	store.MarkRestored()

	manager.mutex.Lock()
	manager.stores[store.SessionID()] = &entry{store: store, lastSeen: manager.clock.Now()}
	manager.mutex.Unlock()

	return store
}

// Drop forgets the store of sessionID. The persisted copy is not touched.
func (manager *Manager) Drop(sessionID string) {
	manager.mutex.Lock()
	delete(manager.stores, sessionID)
	manager.mutex.Unlock()
}

// Len returns the number of live stores.
func (manager *Manager) Len() int {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	return len(manager.stores)
}

// OnEvict registers hook to run, outside the manager lock, for every session
// id that [Manager.Sweep] drops. Work bound to the evicted store instance,
// such as pending progress writes, must end there.
func (manager *Manager) OnEvict(hook func(sessionID string)) {
	manager.mutex.Lock()
	manager.onEvict = hook
	manager.mutex.Unlock()
}

// Sweep drops the stores idle for longer than [constants.SessionIdleEviction]
// and returns how many were dropped.
func (manager *Manager) Sweep() int {
	manager.mutex.Lock()
	now := manager.clock.Now()
	var evicted []string
	for sessionID, current := range manager.stores {
		if now.Sub(current.lastSeen) > constants.SessionIdleEviction {
			delete(manager.stores, sessionID)
			evicted = append(evicted, sessionID)
		}
	}
	hook := manager.onEvict
	manager.mutex.Unlock()

	if hook != nil {
		for _, sessionID := range evicted {
			hook(sessionID)
		}
	}
	return len(evicted)
}

// Run sweeps idle stores every [constants.SessionSweepInterval] until ctx ends.
func (manager *Manager) Run(context context.Context) {
	ticker := manager.clock.Ticker(constants.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-context.Done():
			return
		case <-ticker.C:
			if evicted := manager.Sweep(); evicted > 0 {
				manager.logger.Debug("session_sweep", slog.Int("evicted", evicted))
			}
		}
	}
}

// contextWithTimeout detaches the restore from the request that triggered
// it: the restore outlives the request.
func contextWithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
