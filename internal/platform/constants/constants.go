// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the portal.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Sessions: cookie names, persistence keys and restore timing.
  - Content: watch-progress and AI input budgets.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "planx-portal"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Uploads stream large media files, so this is generous.
	DefaultReadTimeout = 10 * time.Minute

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Minute

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for non-upload requests.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	DefaultRateLimitRPS      = 50.0
	DefaultRateLimitBurst    = 100
	RateLimitCleanupInterval = 1 * time.Minute
	RateLimitClientTTL       = 3 * time.Minute
)

// # Sessions

const (
	// SessionCookieName is the browser cookie carrying the signed session id.
	SessionCookieName = "planx_session"

	// SessionIssuer is the 'iss' claim of session cookie tokens.
	SessionIssuer = "planx.portal"

	// RedisPrefixSession namespaces persisted identities: planx:session:<sid>.
	RedisPrefixSession = "planx:session:"

	// SessionIdleEviction is how long an in-memory store may sit unused
	// before the manager drops it. The persisted copy is kept.
	SessionIdleEviction = 30 * time.Minute

	// SessionSweepInterval is how often the manager looks for idle stores.
	SessionSweepInterval = 5 * time.Minute

	// LoginPath is the sign-in entry point used by the route guard.
	LoginPath = "/login"

	// LandingPath is the default landing view.
	LandingPath = "/"

	// RedirectQueryParam carries the originally requested location.
	RedirectQueryParam = "from"
)

// # Content

const (
	// MinPasswordLength is the password policy enforced on signup and change.
	MinPasswordLength = 6

	// AITextBudget is the maximum number of characters of lecture text sent
	// to the AI collaborator.
	AITextBudget = 30000

	// ContinueWatchingLimit caps the "continue watching" row.
	ContinueWatchingLimit = 4

	// ContinueWatchingMinPosition is the resume position (seconds) below
	// which a lecture does not count as started.
	ContinueWatchingMinPosition = 5.0
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldStatus  = "status"
	FieldChecks  = "checks"
	FieldMessage = "message"
)
