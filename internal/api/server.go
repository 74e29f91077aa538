// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/portal are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/planx/internal/content/admin"
	"github.com/taibuivan/planx/internal/content/aitools"
	"github.com/taibuivan/planx/internal/content/home"
	"github.com/taibuivan/planx/internal/content/playback"
	"github.com/taibuivan/planx/internal/platform/config"
	"github.com/taibuivan/planx/internal/platform/constants"
	"github.com/taibuivan/planx/internal/platform/middleware"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/session"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler, 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler, 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Session resolves browser sessions for every request.
	Sessions *session.Manager
	Cookies  *session.Cookies

	// Account serves /auth and /me.
	Account *session.Handler

	// Home serves the landing view.
	Home *home.Handler

	// Watch serves the player and progress reports.
	Watch *playback.Handler

	// AITools serves quiz and flashcard generation.
	AITools *aitools.Handler

	// Admin serves the management dashboard and uploads.
	Admin *admin.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)
	r.Use(session.Attach(h.Sessions, h.Cookies))

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(timed chi.Router) {
			timed.Use(chimw.Timeout(constants.GlobalRequestTimeout))
			timed.Mount("/auth", h.Account.AuthRoutes())
			timed.Mount("/me", h.Account.ProfileRoutes())
			timed.Mount("/home", h.Home.Routes())
			timed.Mount("/watch", h.Watch.Routes())
			timed.Mount("/admin", h.Admin.Routes())
		})

		// Generation and uploads outlive the global request deadline; their
		// clients bound them instead.
		api.Mount("/aitools", h.AITools.Routes())
		api.Mount("/uploads", h.Admin.UploadRoutes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Guards

// SessionGuard builds the route guard over the session manager.
//
// # Parameters
//   - wait: how long a request waits for a restoring session.
//   - roles: allowed roles; none admits any signed-in identity.
func SessionGuard(manager *session.Manager, wait time.Duration, roles ...sec.UserRole) func(http.Handler) http.Handler {
	return middleware.Guard(func(request *http.Request) middleware.SessionState {
		store := manager.FromRequest(request)
		if store == nil {
			return nil
		}
		return store
	}, wait, roles...)
}

// ProgressSinks resolves the watch-progress sink of a request's session.
func ProgressSinks(manager *session.Manager) playback.SinkLookup {
	return func(request *http.Request) (string, playback.Sink) {
		store := manager.FromRequest(request)
		if store == nil {
			return "", nil
		}
		return store.SessionID(), store
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
