// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides the managed client behind session persistence.

Persisted identities are small JSON values with a TTL, keyed by browser
session id. Traffic is one GET on restore and one SET per identity change, so
the pool stays small. The same client answers the readiness probe.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options tunes the session client. Zero values fall back to the defaults below.
type Options struct {
	PoolSize    int
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

const (
	defaultPoolSize    = 8
	defaultDialTimeout = 3 * time.Second
	defaultIOTimeout   = 2 * time.Second
	probeTimeout       = 2 * time.Second
)

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = defaultPoolSize
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = defaultDialTimeout
	}
	if o.IOTimeout <= 0 {
		o.IOTimeout = defaultIOTimeout
	}
	return o
}

/*
Connect parses redisURL, applies opts and probes the server once.

Parameters:
  - context: Bounds the startup probe.
  - redisURL: redis:// or rediss:// URL (database and credentials included).
  - opts: Pool tuning.
  - logger: Receives the redis_connected event.

Returns:
  - *redis.Client: Closed again when the probe fails
  - error: Parse or connectivity failures
*/
func Connect(context stdctx.Context, redisURL string, opts Options, logger *slog.Logger) (*redis.Client, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	opts = opts.withDefaults()
	parsed.PoolSize = opts.PoolSize
	parsed.MinIdleConns = 1
	parsed.DialTimeout = opts.DialTimeout
	parsed.ReadTimeout = opts.IOTimeout
	parsed.WriteTimeout = opts.IOTimeout

	client := redis.NewClient(parsed)
	if err := Probe(client)(context); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_connected",
		slog.String("addr", parsed.Addr),
		slog.Int("db", parsed.DB),
		slog.Int("pool_size", parsed.PoolSize),
	)
	return client, nil
}

// Probe returns a readiness check bound to client. Each call gets its own
// short deadline on top of the caller's context.
func Probe(client *redis.Client) func(stdctx.Context) error {
	return func(context stdctx.Context) error {
		probeCtx, cancel := stdctx.WithTimeout(context, probeTimeout)
		defer cancel()

		if err := client.Ping(probeCtx).Err(); err != nil {
			return fmt.Errorf("redis: ping failed: %w", err)
		}
		return nil
	}
}
