// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package home serves the landing view: lectures grouped by subject and the
// signed-in user's "continue watching" row.
package home

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/internal/content/datacache"
	requestutil "github.com/taibuivan/planx/internal/platform/request"
	"github.com/taibuivan/planx/internal/platform/respond"
)

// Content exposes the shared data cache.
type Content interface {
	Snapshot() *datacache.Snapshot
	Loading() bool
}

// Handler serves the landing view.
type Handler struct {
	content Content
	guard   func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler].
func NewHandler(content Content, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{content: content, guard: guard}
}

// Routes returns the landing routes.
//
// # Endpoints
//   - GET / : Sections and continue-watching row.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.guard)
	router.Get("/", handler.home)
	return router
}

type homeResponse struct {
	Sections         []catalog.Section    `json:"sections"`
	ContinueWatching []catalog.InProgress `json:"continue_watching"`
	Loading          bool                 `json:"loading"`
	FetchedAt        time.Time            `json:"fetched_at"`
}

/*
Home returns the landing view of the signed-in user.

GET /api/v1/home

Response:
  - 200: homeResponse
*/
func (handler *Handler) home(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	snapshot := handler.content.Snapshot()
	respond.OK(writer, homeResponse{
		Sections:         catalog.GroupBySubject(snapshot.Subjects, snapshot.Lectures),
		ContinueWatching: catalog.ContinueWatching(identity.Watched, snapshot.Lectures),
		Loading:          handler.content.Loading(),
		FetchedAt:        snapshot.FetchedAt,
	})
}
