// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command portal is the entry point for the Plan X learning portal server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to Redis when configured (session persistence).
//  4. Build the content gateway and load the shared data cache.
//  5. Wire sessions, playback, AI tools, uploads and the dashboard.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/planx/internal/api"
	"github.com/taibuivan/planx/internal/content/admin"
	"github.com/taibuivan/planx/internal/content/aitools"
	"github.com/taibuivan/planx/internal/content/datacache"
	"github.com/taibuivan/planx/internal/content/home"
	"github.com/taibuivan/planx/internal/content/playback"
	"github.com/taibuivan/planx/internal/gateway"
	"github.com/taibuivan/planx/internal/platform/config"
	"github.com/taibuivan/planx/internal/platform/constants"
	redisstore "github.com/taibuivan/planx/internal/platform/redis"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/platform/storage"
	"github.com/taibuivan/planx/internal/users/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageBackend),
		slog.Bool("ai_tools", cfg.AIEndpoint != ""),
	)

	// Root context for background workers; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. Session persistence ────────────────────────────────────────────
	var (
		persister     session.Persister = session.NewMemoryPersister()
		checkSessions func() error
	)
	if cfg.RedisURL != "" {
		rdb, err := redisstore.Connect(startupCtx, cfg.RedisURL, redisstore.Options{}, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
		persister = session.NewRedisPersister(rdb, cfg.SessionTTL)
		probe := redisstore.Probe(rdb)
		checkSessions = func() error { return probe(context.Background()) }
	} else {
		log.Warn("sessions_in_memory", slog.String("reason", "REDIS_URL not set"))
	}

	// ── 4. Content backend & data cache ───────────────────────────────────
	backend, err := gateway.New(gateway.Config{
		SubjectsURL:  cfg.BackendSubjectsURL,
		ResourcesURL: cfg.BackendResourcesURL,
		UsersURL:     cfg.BackendUsersURL,
		Timeout:      cfg.BackendTimeout,
	}, log)
	must(log, err, "configure content gateway")

	cache := datacache.New(startupCtx, backend, log)

	// ── 5. Sessions & guards ──────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.SessionSecret, constants.SessionIssuer)
	must(log, err, "initialize session tokens")

	cookies := session.NewCookies(tokens, cfg.SessionTTL, cfg.IsProduction())
	manager := session.NewManager(backend, persister, session.Options{
		DisplayNamePrefix: cfg.DisplayNamePrefix,
		Logger:            log,
	}, nil)
	go manager.Run(rootCtx)

	signedIn := api.SessionGuard(manager, cfg.SessionRestoreWait)
	adminOnly := api.SessionGuard(manager, cfg.SessionRestoreWait, sec.AdminRoles...)
	superAdminOnly := api.SessionGuard(manager, cfg.SessionRestoreWait, sec.RoleSuperAdmin)

	// ── 6. Collaborators ──────────────────────────────────────────────────
	registry := playback.NewRegistry(playback.Config{
		Delay:        cfg.ProgressDebounce,
		WriteTimeout: cfg.ProgressWriteTimeout,
		Logger:       log,
	})
	manager.OnEvict(registry.EndSession)

	var generator aitools.Generator = aitools.Disabled{}
	if cfg.AIEndpoint != "" {
		generator = aitools.NewRemote(cfg.AIEndpoint, cfg.AIAPIKey, cfg.AITimeout, log)
	}

	var uploader storage.Uploader
	switch cfg.StorageBackend {
	case config.StorageArchive:
		uploader, err = storage.NewArchive(storage.ArchiveConfig{
			Endpoint:     cfg.ArchiveEndpoint,
			DownloadBase: cfg.ArchiveDownload,
			AccessKey:    cfg.ArchiveAccess,
			SecretKey:    cfg.ArchiveSecret,
		}, log)
		must(log, err, "configure archive storage")
	case config.StorageGCS:
		gcs, err := storage.NewGCS(startupCtx, cfg.GCSBucket, cfg.GCSPrefix, cfg.GCSCredentials, log)
		must(log, err, "configure gcs storage")
		defer func() { _ = gcs.Close() }()
		uploader = gcs
	}

	// ── 7. Health handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckSessions: checkSessions,
		CheckBackend:  cache.Err,
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Sessions:  manager,
		Cookies:   cookies,
		Account:   session.NewHandler(manager, cookies, backend, cache, registry, signedIn, cfg.DisplayNamePrefix),
		Home:      home.NewHandler(cache, signedIn),
		Watch:     playback.NewHandler(registry, cache, api.ProgressSinks(manager), signedIn),
		AITools:   aitools.NewHandler(generator, cache, signedIn),
		Admin:     admin.NewHandler(admin.NewService(backend, cache, uploader, generator, log), adminOnly, superAdminOnly),
	}

	server := api.NewServer(rootCtx, cfg, log, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}
	rootCancel()

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
