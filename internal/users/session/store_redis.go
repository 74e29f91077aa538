// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/planx/internal/platform/constants"
	"github.com/taibuivan/planx/internal/users/account"
)

// RedisPersister implements [Persister] using Redis. Each browser session
// owns one key holding the JSON identity, refreshed to ttl on every save.
type RedisPersister struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPersister creates a new Redis-backed [Persister].
func NewRedisPersister(client *redis.Client, ttl time.Duration) *RedisPersister {
	return &RedisPersister{client: client, ttl: ttl}
}

func redisKey(sessionID string) string {
	return constants.RedisPrefixSession + sessionID
}

/*
Load reads the persisted identity of a browser session.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *account.Identity: nil when the key is absent or expired
  - error: ErrCorrupt or connectivity errors
*/
func (repository *RedisPersister) Load(context context.Context, sessionID string) (*account.Identity, error) {
	raw, err := repository.client.Get(context, redisKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	var identity account.Identity
	if err := json.Unmarshal(raw, &identity); err != nil || identity.ID == "" {
		return nil, ErrCorrupt
	}
	return &identity, nil
}

// Save stores the identity with the configured TTL.
func (repository *RedisPersister) Save(context context.Context, sessionID string, identity *account.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	if err := repository.client.Set(context, redisKey(sessionID), raw, repository.ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}
	return nil
}

// Delete removes the persisted identity.
func (repository *RedisPersister) Delete(context context.Context, sessionID string) error {
	if err := repository.client.Del(context, redisKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}
