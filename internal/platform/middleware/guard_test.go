// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/planx/internal/platform/ctxutil"
	"github.com/taibuivan/planx/internal/platform/middleware"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/account"
)

// fakeState is a session whose readiness and identity are set by the test.
type fakeState struct {
	ready    chan struct{}
	identity *account.Identity
}

func (s *fakeState) Ready() <-chan struct{}      { return s.ready }
func (s *fakeState) Identity() *account.Identity { return s.identity }

func readyState(identity *account.Identity) *fakeState {
	state := &fakeState{ready: make(chan struct{}), identity: identity}
	close(state.ready)
	return state
}

func lookupOf(state *fakeState) middleware.SessionLookup {
	return func(*http.Request) middleware.SessionState {
		if state == nil {
			return nil
		}
		return state
	}
}

// content is the guarded handler. It echoes the identity's email.
var content = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
	identity := ctxutil.GetIdentity(request.Context())
	_, _ = writer.Write([]byte("content:" + identity.Email))
})

func serve(guard func(http.Handler) http.Handler, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	guard(content).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	return recorder
}

/*
TestGuard_Waiting never shows content or redirects while the session restores.
*/
func TestGuard_Waiting(t *testing.T) {
	state := &fakeState{ready: make(chan struct{})}
	recorder := serve(middleware.Guard(lookupOf(state), 10*time.Millisecond), "/admin")

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "1", recorder.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"status":"authenticating"}`, recorder.Body.String())
	assert.Empty(t, recorder.Header().Get("Location"))
}

/*
TestGuard_WaitsForRestore lets the handler run once the session settles
within the wait budget.
*/
func TestGuard_WaitsForRestore(t *testing.T) {
	state := &fakeState{ready: make(chan struct{})}
	go func() {
		time.Sleep(5 * time.Millisecond)
		state.identity = &account.Identity{ID: "1", Email: "a@x.io", Role: sec.RoleUser}
		close(state.ready)
	}()

	recorder := serve(middleware.Guard(lookupOf(state), time.Second), "/")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "content:a@x.io", recorder.Body.String())
}

/*
TestGuard_Redirects covers the signed-out and wrong-role redirects.
*/
func TestGuard_Redirects(t *testing.T) {
	admins := []sec.UserRole{sec.RoleAdmin, sec.RoleSuperAdmin}
	user := &account.Identity{ID: "1", Email: "u@x.io", Role: sec.RoleUser}
	admin := &account.Identity{ID: "2", Email: "ad@x.io", Role: sec.RoleAdmin}
	superAdmin := &account.Identity{ID: "3", Email: "s@x.io", Role: sec.RoleSuperAdmin}

	tests := []struct {
		name     string
		state    *fakeState
		target   string
		status   int
		location string
	}{
		{"no_session", nil, "/admin?tab=users", http.StatusFound, "/login?from=%2Fadmin%3Ftab%3Dusers"},
		{"signed_out", readyState(nil), "/admin", http.StatusFound, "/login?from=%2Fadmin"},
		{"wrong_role", readyState(user), "/admin", http.StatusFound, "/"},
		{"admin", readyState(admin), "/admin", http.StatusOK, ""},
		{"super_admin", readyState(superAdmin), "/admin", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(middleware.Guard(lookupOf(tt.state), time.Second, admins...), tt.target)
			require.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.location, recorder.Header().Get("Location"))
		})
	}
}

func TestGuard_AnyRole(t *testing.T) {
	user := &account.Identity{ID: "1", Email: "u@x.io", Role: sec.RoleUser}
	recorder := serve(middleware.Guard(lookupOf(readyState(user)), time.Second), "/watch/1")
	assert.Equal(t, http.StatusOK, recorder.Code)
}
