// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/taibuivan/planx/internal/platform/constants"
	"github.com/taibuivan/planx/internal/platform/ctxutil"
	"github.com/taibuivan/planx/internal/platform/respond"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/account"
)

// # Route Guard

// SessionState is the part of a session store the guard reads.
type SessionState interface {
	// Ready is closed once the persisted identity has been checked.
	Ready() <-chan struct{}
	// Identity returns the signed-in identity, or nil.
	Identity() *account.Identity
}

// SessionLookup resolves the session of a request. It returns nil for
// requests that carry no session.
type SessionLookup func(request *http.Request) SessionState

// waitingBody is the neutral answer while a session is still restoring.
type waitingBody struct {
	Status string `json:"status"`
}

// Guard protects routes behind a signed-in identity.
//
// # Flow
//  1. The session is still restoring after wait: 503 with Retry-After and a
//     neutral "authenticating" body. Never the content, never a redirect.
//  2. No identity: 302 to the login path, carrying the requested URI in
//     the "from" query parameter.
//  3. roles given and the identity's role is not among them: 302 to the
//     landing path.
//  4. Otherwise the handler runs with the identity in the context.
//
// # Parameters
//   - lookup: resolves the request's session.
//   - wait: how long to wait for a restoring session.
//   - roles: allowed roles; none means any signed-in identity.
func Guard(lookup SessionLookup, wait time.Duration, roles ...sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			var identity *account.Identity

			if state := lookup(request); state != nil {
				if !waitReady(request, state, wait) {
					writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(wait)))
					respond.JSON(writer, http.StatusServiceUnavailable, waitingBody{Status: "authenticating"})
					return
				}
				identity = state.Identity()
			}

			if identity == nil {
				http.Redirect(writer, request, LoginRedirect(request.URL.RequestURI()), http.StatusFound)
				return
			}

			if len(roles) > 0 && !identity.Role.In(roles...) {
				http.Redirect(writer, request, constants.LandingPath, http.StatusFound)
				return
			}

			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// LoginRedirect builds the login location remembering from.
func LoginRedirect(from string) string {
	return constants.LoginPath + "?" + url.Values{constants.RedirectQueryParam: {from}}.Encode()
}

func waitReady(request *http.Request, state SessionState, wait time.Duration) bool {
	select {
	case <-state.Ready():
		return true
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-state.Ready():
		return true
	case <-timer.C:
		return false
	case <-request.Context().Done():
		return false
	}
}

func retryAfterSeconds(wait time.Duration) int {
	seconds := int(wait.Round(time.Second) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
