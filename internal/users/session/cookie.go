// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taibuivan/planx/internal/platform/constants"
	"github.com/taibuivan/planx/internal/platform/ctxutil"
	"github.com/taibuivan/planx/internal/platform/sec"
)

// Cookies reads and writes the browser-session cookie. The cookie value is
// a signed token carrying the session id only.
type Cookies struct {
	tokens *sec.TokenService
	ttl    time.Duration
	secure bool
}

// NewCookies creates a cookie codec. secure marks cookies HTTPS-only.
func NewCookies(tokens *sec.TokenService, ttl time.Duration, secure bool) *Cookies {
	return &Cookies{tokens: tokens, ttl: ttl, secure: secure}
}

// SessionID returns the session id of a valid cookie, or "".
func (cookies *Cookies) SessionID(request *http.Request) string {
	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	sessionID, err := cookies.tokens.VerifySessionToken(cookie.Value)
	if err != nil {
		return ""
	}
	return sessionID
}

// Set writes the cookie for sessionID.
func (cookies *Cookies) Set(writer http.ResponseWriter, sessionID string) error {
	token, err := cookies.tokens.IssueSessionToken(sessionID, cookies.ttl)
	if err != nil {
		return err
	}
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cookies.ttl.Seconds()),
		HttpOnly: true,
		Secure:   cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the cookie.
func (cookies *Cookies) Clear(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// # Middleware

// Attach resolves the session cookie of every request. The session id is
// put in the context; the identity is added when the store has already
// been restored, and the request logger is tagged with the user id.
// Requests without a valid cookie pass through untouched.
func Attach(manager *Manager, cookies *Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			sessionID := cookies.SessionID(request)
			if sessionID == "" {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithSessionID(request.Context(), sessionID)
			store := manager.Get(ctx, sessionID)

			logger := ctxutil.GetLogger(ctx)
			select {
			case <-store.Ready():
				if identity := store.Identity(); identity != nil {
					ctx = ctxutil.WithIdentity(ctx, identity)
					logger = logger.With(slog.String("user_id", identity.ID))
				}
			default:
			}
			ctx = ctxutil.WithLogger(ctx, logger)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// FromRequest returns the store of the request's browser session, or nil
// when the request carries no session.
func (manager *Manager) FromRequest(request *http.Request) *Store {
	sessionID := ctxutil.GetSessionID(request.Context())
	if sessionID == "" {
		return nil
	}
	return manager.Get(request.Context(), sessionID)
}

// SafeRedirect returns target when it is a local absolute path, else the
// landing path. It keeps the login flow from redirecting off-site.
func SafeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") ||
		strings.HasPrefix(target, "/\\") ||
		strings.HasPrefix(target, constants.LoginPath) {
		return constants.LandingPath
	}
	return target
}
