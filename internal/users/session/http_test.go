// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/planx/internal/gateway"
	"github.com/taibuivan/planx/internal/platform/constants"
	"github.com/taibuivan/planx/internal/platform/ctxutil"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/session"
)

type harness struct {
	router    http.Handler
	directory *fakeDirectory
	persister *session.MemoryPersister
	manager   *session.Manager
	cache     *noopRefresher
	playback  *recordingPlayback
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens, err := sec.NewTokenService("0123456789abcdef0123", constants.SessionIssuer)
	require.NoError(t, err)

	h := &harness{
		directory: newDirectory(),
		persister: session.NewMemoryPersister(),
		cache:     &noopRefresher{},
		playback:  &recordingPlayback{},
	}
	h.manager = session.NewManager(h.directory, h.persister, session.Options{DisplayNamePrefix: "Dr. "}, clock.NewMock())
	cookies := session.NewCookies(tokens, time.Hour, false)

	// Minimal guard: waits for the store and requires an identity.
	guard := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := h.manager.FromRequest(r)
			if store == nil {
				w.WriteHeader(http.StatusFound)
				return
			}
			<-store.Ready()
			identity := store.Identity()
			if identity == nil {
				w.WriteHeader(http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctxutil.WithIdentity(r.Context(), identity)))
		})
	}

	handler := session.NewHandler(h.manager, cookies, h.directory, h.cache, h.playback, guard, "Dr. ")
	router := chi.NewRouter()
	router.Use(session.Attach(h.manager, cookies))
	router.Mount("/auth", handler.AuthRoutes())
	router.Mount("/me", handler.ProfileRoutes())
	h.router = router
	return h
}

func (h *harness) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if cookie != nil {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, request)
	return recorder
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.SessionCookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

/*
TestHandler_Login returns the remembered location and sets the cookie.
*/
func TestHandler_Login(t *testing.T) {
	h := newHarness(t)

	recorder := h.do(http.MethodPost, "/auth/login", `{"email":"a@x.io","password":"secret","from":"/admin"}`, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data struct {
			User     map[string]any `json:"user"`
			Redirect string         `json:"redirect"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "/admin", body.Data.Redirect)
	assert.Equal(t, "a@x.io", body.Data.User["email"])
	assert.NotContains(t, body.Data.User, "password")

	cookie := sessionCookie(t, recorder)
	me := h.do(http.MethodGet, "/me", "", cookie)
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestHandler_Login_Invalid(t *testing.T) {
	h := newHarness(t)

	recorder := h.do(http.MethodPost, "/auth/login", `{"email":"a@x.io","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid email or password.")
	assert.Zero(t, h.manager.Len())
}

func TestHandler_Signup_Validation(t *testing.T) {
	h := newHarness(t)

	recorder := h.do(http.MethodPost, "/auth/signup", `{"name":"Bob","email":"b@x.io","password":"12345"}`, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Zero(t, h.directory.createCount())
}

/*
TestHandler_UpdateProfile_Rollback returns the reverted identity with a 502.
*/
func TestHandler_UpdateProfile_Rollback(t *testing.T) {
	h := newHarness(t)
	cookie := sessionCookie(t, h.do(http.MethodPost, "/auth/login", `{"email":"a@x.io","password":"secret"}`, nil))

	h.directory.updateHook = func(gateway.UserUpdate) error { return errBackend }
	recorder := h.do(http.MethodPatch, "/me", `{"name":"Grace"}`, cookie)
	require.Equal(t, http.StatusBadGateway, recorder.Code)

	var body struct {
		Error string         `json:"error"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Failed to update profile.", body.Error)
	assert.Equal(t, "Dr. Ada", body.Data["name"])

	h.directory.updateHook = nil
	recorder = h.do(http.MethodPatch, "/me", `{"name":"Grace"}`, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"name":"Dr. Grace"`)
	assert.Equal(t, 1, h.cache.calls)
}

/*
TestHandler_Logout clears the store, the persisted copy and playback.
*/
func TestHandler_Logout(t *testing.T) {
	h := newHarness(t)
	cookie := sessionCookie(t, h.do(http.MethodPost, "/auth/login", `{"email":"a@x.io","password":"secret"}`, nil))

	recorder := h.do(http.MethodPost, "/auth/logout", "", cookie)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Zero(t, h.manager.Len())
	assert.Len(t, h.playback.ended, 1)

	// The old cookie no longer resolves to an identity.
	me := h.do(http.MethodGet, "/me", "", cookie)
	assert.Equal(t, http.StatusFound, me.Code)
}

func TestHandler_ChangePassword(t *testing.T) {
	h := newHarness(t)
	cookie := sessionCookie(t, h.do(http.MethodPost, "/auth/login", `{"email":"a@x.io","password":"secret"}`, nil))

	mismatch := h.do(http.MethodPost, "/me/password", `{"password":"longer1","confirm_password":"longer2"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, mismatch.Code)

	ok := h.do(http.MethodPost, "/me/password", `{"password":"longer1","confirm_password":"longer1"}`, cookie)
	assert.Equal(t, http.StatusNoContent, ok.Code)

	last := h.directory.updates[len(h.directory.updates)-1]
	require.NotNil(t, last.Password)
	assert.Equal(t, "longer1", *last.Password)
}
