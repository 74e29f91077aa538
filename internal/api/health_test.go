// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/planx/internal/api"
)

type readyBody struct {
	Data struct {
		Status string `json:"status"`
		Checks []struct {
			Name string `json:"name"`
			OK   bool   `json:"ok"`
		} `json:"checks"`
	} `json:"data"`
}

/*
TestReadiness reports degraded while the content backend is failing.
*/
func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		backendErr error
		wantStatus int
		wantState  string
	}{
		{"ready", nil, http.StatusOK, "ready"},
		{"degraded", errors.New("backend down"), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := api.NewHealthHandlers(api.HealthDependencies{
				CheckSessions: func() error { return nil },
				CheckBackend:  func() error { return tt.backendErr },
			}, slog.Default())

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, recorder.Code)

			var body readyBody
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Data.Status)
			require.Len(t, body.Data.Checks, 2)
			assert.True(t, body.Data.Checks[0].OK)
			assert.Equal(t, tt.backendErr == nil, body.Data.Checks[1].OK)
		})
	}
}

/*
TestLiveness always answers 200.
*/
func TestLiveness(t *testing.T) {
	liveness, _ := api.NewHealthHandlers(api.HealthDependencies{}, slog.Default())
	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}
