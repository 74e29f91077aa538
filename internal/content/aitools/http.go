// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package aitools

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/internal/content/datacache"
	"github.com/taibuivan/planx/internal/platform/apperr"
	requestutil "github.com/taibuivan/planx/internal/platform/request"
	"github.com/taibuivan/planx/internal/platform/respond"
)

// fieldText is the request field carrying the lecture text.
const fieldText = "text"

// Snapshots exposes the current content snapshot.
type Snapshots interface {
	Snapshot() *datacache.Snapshot
}

// Handler serves the study tools view of a lecture.
type Handler struct {
	generator Generator
	content   Snapshots
	guard     func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler].
func NewHandler(generator Generator, content Snapshots, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{generator: generator, content: content, guard: guard}
}

// Routes returns the study tools routes. All of them require a signed-in user.
//
// # Endpoints
//   - GET  /{id}            : Lecture and tool availability.
//   - POST /{id}/quiz       : Multiple-choice quiz from lecture text.
//   - POST /{id}/flashcards : Flashcard deck from lecture text.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.guard)
	router.Get("/{id}", handler.view)
	router.Post("/{id}/quiz", handler.quiz)
	router.Post("/{id}/flashcards", handler.flashcards)
	return router
}

// # Payloads

type viewResponse struct {
	Lecture   catalog.Lecture `json:"lecture"`
	Available bool            `json:"available"`
}

type textInput struct {
	Text string `json:"text"`
}

func (handler *Handler) lecture(request *http.Request) (catalog.Lecture, error) {
	lecture, ok := catalog.FindLecture(handler.content.Snapshot().Lectures, requestutil.Param(request, "id"))
	if !ok {
		return catalog.Lecture{}, apperr.NotFound("Lecture")
	}
	return lecture, nil
}

func decodeText(request *http.Request) (string, error) {
	var input textInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		return "", err
	}
	if strings.TrimSpace(input.Text) == "" {
		return "", apperr.ValidationError("Validation failed", apperr.FieldError{
			Field: fieldText, Message: "This field is required",
		})
	}
	return input.Text, nil
}

/*
View returns the lecture and whether generation is configured.

GET /api/v1/aitools/{id}
*/
func (handler *Handler) view(writer http.ResponseWriter, request *http.Request) {
	lecture, err := handler.lecture(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, viewResponse{Lecture: lecture, Available: handler.generator.Available()})
}

/*
Quiz generates multiple-choice questions.

POST /api/v1/aitools/{id}/quiz

Response:
  - 200: []MCQ
  - 400: Missing text
  - 404: Lecture not found
  - 502: Generation failed
  - 503: Tools not configured
*/
func (handler *Handler) quiz(writer http.ResponseWriter, request *http.Request) {
	if _, err := handler.lecture(request); err != nil {
		respond.Error(writer, request, err)
		return
	}
	text, err := decodeText(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	questions, err := handler.generator.GenerateQuiz(request.Context(), text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, questions)
}

/*
Flashcards generates a study deck.

POST /api/v1/aitools/{id}/flashcards
*/
func (handler *Handler) flashcards(writer http.ResponseWriter, request *http.Request) {
	if _, err := handler.lecture(request); err != nil {
		respond.Error(writer, request, err)
		return
	}
	text, err := decodeText(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	cards, err := handler.generator.GenerateFlashcards(request.Context(), text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, cards)
}
