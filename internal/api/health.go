// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/planx/internal/platform/constants"
	"github.com/taibuivan/planx/internal/platform/respond"
)

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckSessions pings the Redis session persister. Nil when sessions
	// are kept in memory.
	CheckSessions func() error

	// CheckBackend reports the last content refresh failure.
	CheckBackend func() error
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

func (handler *healthHandler) check(name string, probe func() error) (checkResult, bool) {
	result := checkResult{Name: name, IsOK: true}
	if err := probe(); err != nil {
		result.IsOK = false
		result.Error = err.Error()
		handler.logger.Error("readiness_check_failed", slog.String("dependency", name), slog.Any("error", err))
	}
	return result, result.IsOK
}

// readiness handles GET /ready (Readiness probe).
func (handler *healthHandler) readiness(writer http.ResponseWriter, _ *http.Request) {
	results := make([]checkResult, 0, 2)
	isSystemReady := true

	if handler.dependencies.CheckSessions != nil {
		result, ok := handler.check("redis", handler.dependencies.CheckSessions)
		results = append(results, result)
		isSystemReady = isSystemReady && ok
	}

	if handler.dependencies.CheckBackend != nil {
		result, ok := handler.check("content_backend", handler.dependencies.CheckBackend)
		results = append(results, result)
		isSystemReady = isSystemReady && ok
	}

	responseStatus := "ready"
	httpStatus := http.StatusOK
	if !isSystemReady {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	}})
}
