// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/planx/internal/gateway"
	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/constants"
	"github.com/taibuivan/planx/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/planx/internal/platform/request"
	"github.com/taibuivan/planx/internal/platform/respond"
	"github.com/taibuivan/planx/internal/platform/validate"
	"github.com/taibuivan/planx/internal/users/account"
	"github.com/taibuivan/planx/pkg/pointer"
)

// # Collaborators

// Refresher reloads the shared data cache after a write.
type Refresher interface {
	Refresh(context context.Context) error
}

// PlaybackEnder cancels the pending progress writes of a browser session.
type PlaybackEnder interface {
	EndSession(sessionID string)
}

// # Definitions & Constructors

// Handler implements the auth and profile endpoints.
type Handler struct {
	manager   *Manager
	cookies   *Cookies
	directory Directory
	cache     Refresher
	playback  PlaybackEnder
	guard     func(http.Handler) http.Handler
	prefix    string
}

// NewHandler constructs a new [Handler].
//
// # Parameters
//   - guard: middleware protecting the profile routes.
//   - prefix: the display-name title, applied to profile name edits.
func NewHandler(
	manager *Manager,
	cookies *Cookies,
	directory Directory,
	cache Refresher,
	playback PlaybackEnder,
	guard func(http.Handler) http.Handler,
	prefix string,
) *Handler {
	return &Handler{
		manager:   manager,
		cookies:   cookies,
		directory: directory,
		cache:     cache,
		playback:  playback,
		guard:     guard,
		prefix:    prefix,
	}
}

// AuthRoutes returns the public authentication routes.
//
// # Endpoints
//   - POST /login  : Signs in and sets the session cookie.
//   - POST /signup : Creates a standard account and signs it in.
//   - POST /logout : Ends the browser session.
func (handler *Handler) AuthRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/login", handler.login)
	router.Post("/signup", handler.signup)
	router.Post("/logout", handler.logout)
	return router
}

// ProfileRoutes returns the signed-in user's profile routes.
//
// # Endpoints
//   - GET   /          : Current identity.
//   - PATCH /          : Optimistic name/avatar edit.
//   - POST  /password  : Password change.
func (handler *Handler) ProfileRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.guard)
	router.Get("/", handler.me)
	router.Patch("/", handler.updateProfile)
	router.Post("/password", handler.changePassword)
	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type profileRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

type passwordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type signedInResponse struct {
	User     *account.Identity `json:"user"`
	Redirect string            `json:"redirect"`
}

// # Authentication

/*
Login signs a browser session in.

POST /api/v1/auth/login

Description: Every successful login runs in a fresh browser session; any
previous session of the browser is ended.

Response:
  - 200: signedInResponse: identity and the location to go back to
  - 401: No account matches the credentials
  - 502: The content backend failed
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(account.FieldEmail, input.Email).
		Required(account.FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	store := handler.manager.Open()
	identity, err := store.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		handler.manager.Drop(store.SessionID())
		respond.Error(writer, request, gatewayFailure(err, "Failed to log in. Please try again."))
		return
	}
	if identity == nil {
		handler.manager.Drop(store.SessionID())
		respond.Error(writer, request, apperr.Unauthorized("Invalid email or password."))
		return
	}

	if err := handler.switchSession(writer, request, store); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, signedInResponse{User: identity, Redirect: SafeRedirect(input.From)})
}

/*
Signup creates a standard account and signs it in.

POST /api/v1/auth/signup

Response:
  - 201: signedInResponse
  - 400: Validation failure
  - 409: The email is already registered
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(account.FieldName, input.Name).
		Required(account.FieldEmail, input.Email).
		Email(account.FieldEmail, input.Email).
		MinLen(account.FieldPassword, input.Password, constants.MinPasswordLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	store := handler.manager.Open()
	identity, err := store.Signup(request.Context(), strings.TrimSpace(input.Name), input.Email, input.Password, input.Avatar)
	if err != nil {
		handler.manager.Drop(store.SessionID())
		respond.Error(writer, request, err)
		return
	}

	if err := handler.switchSession(writer, request, store); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.refreshCache(request)
	respond.Created(writer, signedInResponse{User: identity, Redirect: constants.LandingPath})
}

/*
Logout ends the browser session: identity, persisted copy, pending
progress writes and cookie.

POST /api/v1/auth/logout
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if sessionID := ctxutil.GetSessionID(request.Context()); sessionID != "" {
		handler.end(request, sessionID)
	}
	handler.cookies.Clear(writer)
	respond.NoContent(writer)
}

// switchSession sets the cookie of the new store and ends the browser's
// previous session, if any.
func (handler *Handler) switchSession(writer http.ResponseWriter, request *http.Request, store *Store) error {
	if err := handler.cookies.Set(writer, store.SessionID()); err != nil {
		handler.manager.Drop(store.SessionID())
		return apperr.Internal(err)
	}

	if previous := ctxutil.GetSessionID(request.Context()); previous != "" && previous != store.SessionID() {
		handler.end(request, previous)
	}
	return nil
}

func (handler *Handler) end(request *http.Request, sessionID string) {
	handler.playback.EndSession(sessionID)
	if err := handler.manager.Get(request.Context(), sessionID).Logout(request.Context()); err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "session_logout_failed", slog.Any("error", err))
	}
	handler.manager.Drop(sessionID)
}

// # Profile

/*
Me returns the signed-in identity.

GET /api/v1/me
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, identity)
}

/*
UpdateProfile edits the display name and avatar.

PATCH /api/v1/me

Response:
  - 200: Identity: the updated profile
  - 502: The write failed and was reverted; data holds the reverted profile
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	store := handler.manager.FromRequest(request)
	if store == nil {
		respond.Error(writer, request, ErrSignedOut)
		return
	}

	var input profileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	patch := account.Patch{Avatar: input.Avatar}
	if input.Name != nil {
		bare := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(*input.Name), handler.prefix))
		if err := validate.New().Required(account.FieldName, bare).Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
		patch.Name = pointer.To(handler.prefix + bare)
	}

	if !store.UpdateContext(request.Context(), patch) {
		failure := apperr.BadGateway("Failed to update profile.", store.LastError())
		respond.ErrorWithData(writer, request, failure, store.Identity())
		return
	}

	handler.refreshCache(request)
	respond.OK(writer, store.Identity())
}

/*
ChangePassword replaces the account secret. The secret goes straight to
the backend and never enters the session store.

POST /api/v1/me/password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input passwordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := validate.New()
	validator.MinLen(account.FieldPassword, input.Password, constants.MinPasswordLength).
		Matches(account.FieldConfirmPassword, input.ConfirmPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.directory.UpdateUser(request.Context(), gateway.UserUpdate{
		ID:       identity.ID,
		Password: pointer.To(input.Password),
	})
	if err != nil {
		respond.Error(writer, request, gatewayFailure(err, "Failed to change password."))
		return
	}
	respond.NoContent(writer)
}

// # Helpers

// refreshCache reloads the shared cache after a user write. A failed refresh
// is logged; the cache keeps its previous snapshot and reports the error.
func (handler *Handler) refreshCache(request *http.Request) {
	if err := handler.cache.Refresh(request.Context()); err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "cache_refresh_failed", slog.Any("error", err))
	}
}

// gatewayFailure swaps the message of a backend failure for a flow-specific one.
func gatewayFailure(err error, message string) error {
	if ae := apperr.As(err); ae != nil && ae.Code == "BAD_GATEWAY" {
		return apperr.BadGateway(message, ae.Cause)
	}
	return err
}
