// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package home_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/internal/content/datacache"
	"github.com/taibuivan/planx/internal/content/home"
	"github.com/taibuivan/planx/internal/platform/ctxutil"
	"github.com/taibuivan/planx/internal/users/account"
)

type staticContent struct{ snapshot *datacache.Snapshot }

func (s staticContent) Snapshot() *datacache.Snapshot { return s.snapshot }
func (s staticContent) Loading() bool                 { return false }

/*
TestHome groups lectures and lists the lectures in progress.
*/
func TestHome(t *testing.T) {
	content := staticContent{snapshot: &datacache.Snapshot{
		Subjects: []catalog.Subject{{ID: "s1", Name: "Math", Number: 0}},
		Lectures: []catalog.Lecture{
			{ID: "l1", Title: "Limits", SubjectName: "Math"},
			{ID: "l2", Title: "Series", SubjectName: "Math"},
		},
	}}
	identity := &account.Identity{ID: "u1", Watched: account.WatchProgress{"l2": 120, "l1": 2}}
	withIdentity := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ctxutil.WithIdentity(r.Context(), identity)))
		})
	}

	router := chi.NewRouter()
	router.Mount("/home", home.NewHandler(content, withIdentity).Routes())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/home", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data struct {
			Sections []struct {
				Lectures []catalog.Lecture `json:"lectures"`
			} `json:"sections"`
			ContinueWatching []struct {
				ID       string  `json:"id"`
				Position float64 `json:"position"`
			} `json:"continue_watching"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Len(t, body.Data.Sections, 1)
	assert.Len(t, body.Data.Sections[0].Lectures, 2)
	require.Len(t, body.Data.ContinueWatching, 1)
	assert.Equal(t, "l2", body.Data.ContinueWatching[0].ID)
	assert.Equal(t, 120.0, body.Data.ContinueWatching[0].Position)
}
