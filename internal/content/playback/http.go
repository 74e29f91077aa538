// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package playback

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/internal/content/datacache"
	"github.com/taibuivan/planx/internal/platform/apperr"
	requestutil "github.com/taibuivan/planx/internal/platform/request"
	"github.com/taibuivan/planx/internal/platform/respond"
	"github.com/taibuivan/planx/internal/users/account"
)

// Snapshots exposes the current content snapshot.
type Snapshots interface {
	Snapshot() *datacache.Snapshot
}

// SinkLookup resolves the progress sink of the request's browser session.
type SinkLookup func(request *http.Request) (sessionID string, sink Sink)

// Handler serves the watch view and progress reports.
type Handler struct {
	registry *Registry
	content  Snapshots
	sinks    SinkLookup
	guard    func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler].
func NewHandler(registry *Registry, content Snapshots, sinks SinkLookup, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{registry: registry, content: content, sinks: sinks, guard: guard}
}

// Routes returns the watch routes. All of them require a signed-in user.
//
// # Endpoints
//   - GET    /{id}          : Lecture, video source and resume position.
//   - POST   /{id}/progress : Position report (debounced).
//   - DELETE /{id}/progress : Ends the playback session, dropping any pending write.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.guard)
	router.Get("/{id}", handler.watch)
	router.Post("/{id}/progress", handler.report)
	router.Delete("/{id}/progress", handler.end)
	return router
}

// # Payloads

type watchResponse struct {
	Lecture  catalog.Lecture     `json:"lecture"`
	Video    catalog.VideoSource `json:"video"`
	Position float64             `json:"position"`
}

type progressRequest struct {
	Position *float64 `json:"position"`
}

type progressResponse struct {
	Position float64 `json:"position"`
}

/*
Watch returns a lecture ready to play.

GET /api/v1/watch/{id}

Response:
  - 200: watchResponse
  - 404: Lecture not found
*/
func (handler *Handler) watch(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	lecture, ok := catalog.FindLecture(handler.content.Snapshot().Lectures, requestutil.Param(request, "id"))
	if !ok {
		respond.Error(writer, request, apperr.NotFound("Lecture"))
		return
	}

	respond.OK(writer, watchResponse{
		Lecture:  lecture,
		Video:    lecture.Video(),
		Position: identity.Watched[lecture.ID],
	})
}

/*
Report records the current playback position. The write happens once the
reports have been quiet for the debounce delay.

POST /api/v1/watch/{id}/progress

Response:
  - 202: progressResponse
  - 400: Missing or invalid position
  - 404: Lecture not found
*/
func (handler *Handler) report(writer http.ResponseWriter, request *http.Request) {
	lectureID := requestutil.Param(request, "id")
	if _, ok := catalog.FindLecture(handler.content.Snapshot().Lectures, lectureID); !ok {
		respond.Error(writer, request, apperr.NotFound("Lecture"))
		return
	}

	var input progressRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.Position == nil {
		respond.Error(writer, request, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field: account.FieldPosition, Message: "This field is required",
		}))
		return
	}

	sessionID, sink := handler.sinks(request)
	if sink == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	if err := handler.registry.Observe(sessionID, lectureID, sink, *input.Position); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Accepted(writer, progressResponse{Position: *input.Position})
}

/*
End closes the playback session of a lecture.

DELETE /api/v1/watch/{id}/progress
*/
func (handler *Handler) end(writer http.ResponseWriter, request *http.Request) {
	sessionID, _ := handler.sinks(request)
	if sessionID != "" {
		handler.registry.End(sessionID, requestutil.Param(request, "id"))
	}
	respond.NoContent(writer)
}
