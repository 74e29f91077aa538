// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/planx/internal/platform/ctxutil"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/account"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "test-request-id")
	assert.Equal(t, "test-request-id", ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Identity verifies that the signed-in identity can be stored in context.
*/
func TestContext_Identity(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ctxutil.GetIdentity(ctx))
	assert.Empty(t, ctxutil.GetSessionID(ctx))

	ctx = ctxutil.WithIdentity(ctx, &account.Identity{ID: "user-123", Role: sec.RoleAdmin})
	ctx = ctxutil.WithSessionID(ctx, "sid-1")

	retrieved := ctxutil.GetIdentity(ctx)
	assert.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.ID)
	assert.Equal(t, sec.RoleAdmin, retrieved.Role)
	assert.Equal(t, "sid-1", ctxutil.GetSessionID(ctx))
}
