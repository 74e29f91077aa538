// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/taibuivan/planx/internal/users/account"
)

// MemoryPersister implements [Persister] in process memory. It is used when
// no Redis URL is configured and in tests. Values are kept encoded, the
// same way Redis keeps them.
type MemoryPersister struct {
	mutex  sync.Mutex
	values map[string][]byte
}

// NewMemoryPersister creates an empty in-memory [Persister].
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{values: make(map[string][]byte)}
}

// Load returns the stored identity, nil when absent.
func (repository *MemoryPersister) Load(_ context.Context, sessionID string) (*account.Identity, error) {
	repository.mutex.Lock()
	raw, ok := repository.values[sessionID]
	repository.mutex.Unlock()

	if !ok {
		return nil, nil
	}

	var identity account.Identity
	if err := json.Unmarshal(raw, &identity); err != nil || identity.ID == "" {
		return nil, ErrCorrupt
	}
	return &identity, nil
}

// Save stores the identity.
func (repository *MemoryPersister) Save(_ context.Context, sessionID string, identity *account.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("memory_session_encode_failed: %w", err)
	}

	repository.mutex.Lock()
	repository.values[sessionID] = raw
	repository.mutex.Unlock()
	return nil
}

// Delete removes the stored identity.
func (repository *MemoryPersister) Delete(_ context.Context, sessionID string) error {
	repository.mutex.Lock()
	delete(repository.values, sessionID)
	repository.mutex.Unlock()
	return nil
}

// Raw returns the encoded value of a session, for inspection.
func (repository *MemoryPersister) Raw(sessionID string) ([]byte, bool) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	raw, ok := repository.values[sessionID]
	return raw, ok
}

// Put stores an encoded value as is.
func (repository *MemoryPersister) Put(sessionID string, raw []byte) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.values[sessionID] = raw
}
