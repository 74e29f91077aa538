// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/planx/internal/platform/request"
	"github.com/taibuivan/planx/internal/platform/respond"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/platform/storage"
)

const (
	// uploadMemory is the part of a multipart upload kept in memory; the
	// rest spools to a temporary file.
	uploadMemory = 32 << 20

	fieldFile = "file"
)

// Handler exposes the dashboard over HTTP.
type Handler struct {
	service    *Service
	guard      func(http.Handler) http.Handler
	superGuard func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler]. guard must only admit
// administrators; superGuard must only admit super administrators and
// protects the user-management routes.
func NewHandler(service *Service, guard, superGuard func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, guard: guard, superGuard: superGuard}
}

// Routes returns the dashboard routes.
//
// # Endpoints
//   - POST   /subjects             : Add a subject.
//   - PATCH  /subjects/{id}        : Rename a subject (cascades to lectures).
//   - DELETE /subjects/{id}        : Delete a subject (?force=true while referenced).
//   - POST   /subjects/move        : Move a subject up or down.
//   - POST   /lectures             : Create a lecture.
//   - PUT    /lectures/{id}        : Update a lecture.
//   - DELETE /lectures/{id}        : Delete a lecture.
//   - GET    /orphans              : Lectures whose subject no longer exists.
//   - GET    /users                : All accounts (super administrators only).
//   - PATCH  /users/{id}/role      : Change the role of another account (super administrators only).
//   - DELETE /users/{id}           : Delete another account (super administrators only).
//   - POST   /thumbnails           : Generate a cover image for a title.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.guard)

	router.Post("/subjects", handler.addSubject)
	router.Post("/subjects/move", handler.moveSubject)
	router.Patch("/subjects/{id}", handler.renameSubject)
	router.Delete("/subjects/{id}", handler.deleteSubject)

	router.Post("/lectures", handler.createLecture)
	router.Put("/lectures/{id}", handler.updateLecture)
	router.Delete("/lectures/{id}", handler.deleteLecture)
	router.Get("/orphans", handler.orphans)

	router.Group(func(users chi.Router) {
		users.Use(handler.superGuard)
		users.Get("/users", handler.listUsers)
		users.Patch("/users/{id}/role", handler.changeRole)
		users.Delete("/users/{id}", handler.deleteUser)
	})

	router.Post("/thumbnails", handler.thumbnail)
	return router
}

// UploadRoutes returns the media upload route. It is mounted apart from
// [Handler.Routes] so it can run without the global request timeout.
//
// # Endpoints
//   - POST / : multipart form with a "file" part. Returns the public URL.
func (handler *Handler) UploadRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.guard)
	router.Post("/", handler.upload)
	return router
}

// # Payloads

type subjectRequest struct {
	Name string `json:"Subject_Name"`
}

type moveRequest struct {
	Index     int    `json:"index"`
	Direction string `json:"direction"`
}

type roleRequest struct {
	Role sec.UserRole `json:"role"`
}

type thumbnailRequest struct {
	Title string `json:"title"`
}

type thumbnailResponse struct {
	Image string `json:"image"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

// # Subjects

func (handler *Handler) addSubject(writer http.ResponseWriter, request *http.Request) {
	var input subjectRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := handler.service.AddSubject(request.Context(), input.Name); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, handler.service.cache.Snapshot().Subjects)
}

func (handler *Handler) renameSubject(writer http.ResponseWriter, request *http.Request) {
	var input subjectRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := handler.service.RenameSubject(request.Context(), requestutil.Param(request, "id"), input.Name); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.service.cache.Snapshot().Subjects)
}

/*
DeleteSubject removes a subject.

DELETE /api/v1/admin/subjects/{id}?force=true

Response:
  - 204: Deleted
  - 404: Subject not found
  - 409: Lectures still reference the subject
*/
func (handler *Handler) deleteSubject(writer http.ResponseWriter, request *http.Request) {
	force, _ := strconv.ParseBool(request.URL.Query().Get("force"))
	if err := handler.service.DeleteSubject(request.Context(), requestutil.Param(request, "id"), force); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
MoveSubject reorders a subject.

POST /api/v1/admin/subjects/move

Request: {"index": 1, "direction": "up"}

Response:
  - 200: []catalog.Subject in the new order
*/
func (handler *Handler) moveSubject(writer http.ResponseWriter, request *http.Request) {
	var input moveRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	direction, err := catalog.ParseDirection(input.Direction)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field: "direction", Message: "Must be one of: up, down",
		}))
		return
	}

	subjects, err := handler.service.MoveSubject(request.Context(), input.Index, direction)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, subjects)
}

// # Lectures

func (handler *Handler) createLecture(writer http.ResponseWriter, request *http.Request) {
	var input catalog.Lecture
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.ID = ""
	if _, err := handler.service.SaveLecture(request.Context(), input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateLecture(writer http.ResponseWriter, request *http.Request) {
	var input catalog.Lecture
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.ID = requestutil.Param(request, "id")
	if _, err := handler.service.SaveLecture(request.Context(), input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteLecture(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteLecture(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) orphans(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, handler.service.Orphans())
}

// # Users

func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.service.Users(requestutil.Identity(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, users)
}

func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	var input roleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	actor := requestutil.Identity(request)
	if err := handler.service.ChangeRole(request.Context(), actor, requestutil.Param(request, "id"), input.Role); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	actor := requestutil.Identity(request)
	if err := handler.service.DeleteUser(request.Context(), actor, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Media

func (handler *Handler) thumbnail(writer http.ResponseWriter, request *http.Request) {
	var input thumbnailRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	image, err := handler.service.GenerateThumbnail(request.Context(), input.Title)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, thumbnailResponse{Image: image})
}

/*
Upload stores a media file in object storage.

POST /api/v1/uploads (multipart/form-data, part "file")

Response:
  - 201: {"url": "<public URL>"}
  - 400: No file part
  - 502: Storage rejected the upload
  - 503: Uploads not configured
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(uploadMemory); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Expected a multipart form upload"))
		return
	}
	defer func() { _ = request.MultipartForm.RemoveAll() }()

	file, header, err := request.FormFile(fieldFile)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field: fieldFile, Message: "This field is required",
		}))
		return
	}
	defer file.Close()

	logger := ctxutil.GetLogger(request.Context())
	progress := func(percent int) {
		if percent%25 == 0 {
			logger.DebugContext(request.Context(), "upload_progress",
				slog.String("file", header.Filename),
				slog.Int("percent", percent),
			)
		}
	}

	url, err := handler.service.Upload(request.Context(), storage.Object{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, progress)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, uploadResponse{URL: url})
}
