// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package aitools_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/planx/internal/content/aitools"
	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/internal/content/datacache"
	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/constants"
)

/*
TestTruncate cuts long input at the character budget without breaking runes.
*/
func TestTruncate(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, aitools.Truncate(short))

	long := strings.Repeat("é", constants.AITextBudget+10)
	cut := aitools.Truncate(long)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, constants.AITextBudget, utf8.RuneCountInString(cut))

	exact := strings.Repeat("a", constants.AITextBudget)
	assert.Equal(t, exact, aitools.Truncate(exact))
}

/*
TestValidateQuiz rejects questions a student could not answer.
*/
func TestValidateQuiz(t *testing.T) {
	good := aitools.MCQ{Question: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4"}

	tests := []struct {
		name    string
		quiz    []aitools.MCQ
		wantErr bool
	}{
		{"valid", []aitools.MCQ{good}, false},
		{"empty", nil, true},
		{"no_question", []aitools.MCQ{{Options: []string{"a", "b"}, CorrectAnswer: "a"}}, true},
		{"one_option", []aitools.MCQ{{Question: "q", Options: []string{"a"}, CorrectAnswer: "a"}}, true},
		{"answer_missing", []aitools.MCQ{{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: "c"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := aitools.ValidateQuiz(tt.quiz)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestDisabled answers every operation with SERVICE_UNAVAILABLE.
*/
func TestDisabled(t *testing.T) {
	var generator aitools.Generator = aitools.Disabled{}
	assert.False(t, generator.Available())

	_, err := generator.GenerateQuiz(context.Background(), "text")
	assert.True(t, apperr.HasCode(err, "SERVICE_UNAVAILABLE"))

	_, err = generator.GenerateFlashcards(context.Background(), "text")
	assert.True(t, apperr.HasCode(err, "SERVICE_UNAVAILABLE"))

	_, err = generator.GenerateThumbnail(context.Background(), "title")
	assert.True(t, apperr.HasCode(err, "SERVICE_UNAVAILABLE"))
}

// aiServer answers the generation contract with canned bodies.
func aiServer(t *testing.T, bodies map[string]string, seen map[string]map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))

		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if seen != nil {
			seen[r.URL.Path] = payload
		}

		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

/*
TestRemote_GenerateQuiz sends the truncated text and the question count.
*/
func TestRemote_GenerateQuiz(t *testing.T) {
	seen := map[string]map[string]any{}
	server := aiServer(t, map[string]string{
		"/quiz": `{"data":[{"question":"2+2?","options":["3","4","5","6"],"correctAnswer":"4"}]}`,
	}, seen)

	remote := aitools.NewRemote(server.URL+"/", "secret-key", 0, nil)
	quiz, err := remote.GenerateQuiz(context.Background(), strings.Repeat("x", constants.AITextBudget+5))
	require.NoError(t, err)
	require.Len(t, quiz, 1)
	assert.Equal(t, "4", quiz[0].CorrectAnswer)

	sent := seen["/quiz"]
	assert.Len(t, sent["text"], constants.AITextBudget)
	assert.EqualValues(t, aitools.QuizSize, sent["count"])
}

/*
TestRemote_Failures maps malformed output and remote errors to BAD_GATEWAY.
*/
func TestRemote_Failures(t *testing.T) {
	server := aiServer(t, map[string]string{
		"/quiz":      `{"data":[{"question":"q","options":["a","b"],"correctAnswer":"z"}]}`,
		"/thumbnail": `{"data":{"image":"https://example.com/a.png"}}`,
	}, nil)
	remote := aitools.NewRemote(server.URL, "secret-key", 0, nil)

	_, err := remote.GenerateQuiz(context.Background(), "text")
	assert.True(t, apperr.HasCode(err, "BAD_GATEWAY"))

	_, err = remote.GenerateFlashcards(context.Background(), "text")
	assert.True(t, apperr.HasCode(err, "BAD_GATEWAY"))

	_, err = remote.GenerateThumbnail(context.Background(), "title")
	assert.True(t, apperr.HasCode(err, "BAD_GATEWAY"))
}

/*
TestRemote_GenerateThumbnail returns the data URI.
*/
func TestRemote_GenerateThumbnail(t *testing.T) {
	seen := map[string]map[string]any{}
	server := aiServer(t, map[string]string{
		"/thumbnail":  `{"data":{"image":"data:image/jpeg;base64,AAAA"}}`,
		"/flashcards": `{"data":[{"front":"Term","back":"Meaning"}]}`,
	}, seen)
	remote := aitools.NewRemote(server.URL, "secret-key", 0, nil)

	image, err := remote.GenerateThumbnail(context.Background(), "Algebra")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", image)
	assert.Equal(t, "Algebra", seen["/thumbnail"]["title"])

	cards, err := remote.GenerateFlashcards(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []aitools.Flashcard{{Front: "Term", Back: "Meaning"}}, cards)
	assert.EqualValues(t, aitools.FlashcardTarget, seen["/flashcards"]["count"])
}

// # HTTP

type staticContent struct{ snapshot *datacache.Snapshot }

func (s staticContent) Snapshot() *datacache.Snapshot { return s.snapshot }

func passthrough(next http.Handler) http.Handler { return next }

func newRouter(generator aitools.Generator) http.Handler {
	content := staticContent{snapshot: &datacache.Snapshot{
		Lectures: []catalog.Lecture{{ID: "l1", Title: "Limits", SubjectName: "Math"}},
	}}
	router := chi.NewRouter()
	router.Mount("/aitools", aitools.NewHandler(generator, content, passthrough).Routes())
	return router
}

/*
TestHandler_View reports availability alongside the lecture.
*/
func TestHandler_View(t *testing.T) {
	router := newRouter(aitools.Disabled{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/aitools/l1", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data struct {
			Lecture   catalog.Lecture `json:"lecture"`
			Available bool            `json:"available"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Limits", body.Data.Lecture.Title)
	assert.False(t, body.Data.Available)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/aitools/missing", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

/*
TestHandler_Generate covers validation, the disabled state and a success.
*/
func TestHandler_Generate(t *testing.T) {
	server := aiServer(t, map[string]string{
		"/flashcards": `{"data":[{"front":"Term","back":"Meaning"}]}`,
	}, nil)

	tests := []struct {
		name       string
		generator  aitools.Generator
		path       string
		body       string
		wantStatus int
	}{
		{"missing_text", aitools.Disabled{}, "/aitools/l1/quiz", `{"text":"  "}`, http.StatusBadRequest},
		{"bad_json", aitools.Disabled{}, "/aitools/l1/quiz", `{`, http.StatusBadRequest},
		{"unknown_lecture", aitools.Disabled{}, "/aitools/nope/quiz", `{"text":"x"}`, http.StatusNotFound},
		{"disabled", aitools.Disabled{}, "/aitools/l1/quiz", `{"text":"x"}`, http.StatusServiceUnavailable},
		{"flashcards", aitools.NewRemote(server.URL, "secret-key", 0, nil), "/aitools/l1/flashcards", `{"text":"x"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			newRouter(tt.generator).ServeHTTP(recorder, request)
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}
