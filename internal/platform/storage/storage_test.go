// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/storage"
)

type received struct {
	path    string
	headers http.Header
	body    string
}

func archiveServer(t *testing.T, status int) (*httptest.Server, *received) {
	t.Helper()
	var (
		mutex sync.Mutex
		got   received
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mutex.Lock()
		got = received{path: r.URL.Path, headers: r.Header.Clone(), body: string(body)}
		mutex.Unlock()
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func newArchive(t *testing.T, endpoint string, mock clock.Clock) *storage.Archive {
	t.Helper()
	archive, err := storage.NewArchive(storage.ArchiveConfig{
		Endpoint:     endpoint,
		DownloadBase: "https://archive.example/download/",
		AccessKey:    "key",
		SecretKey:    "secret",
		Clock:        mock,
	}, nil)
	require.NoError(t, err)
	return archive
}

/*
TestArchive_Upload checks the item naming, headers, public URL and progress.
*/
func TestArchive_Upload(t *testing.T) {
	server, got := archiveServer(t, http.StatusOK)
	mock := clock.NewMock()
	mock.Add(1500 * time.Millisecond)
	archive := newArchive(t, server.URL, mock)

	content := strings.Repeat("v", 1000)
	var (
		reportMutex sync.Mutex
		reports     []int
	)
	url, err := archive.Upload(context.Background(), storage.Object{
		Name:        "Week 1  Intro.mp4",
		ContentType: "video/mp4",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	}, func(percent int) {
		reportMutex.Lock()
		reports = append(reports, percent)
		reportMutex.Unlock()
	})
	require.NoError(t, err)

	item := fmt.Sprintf("planx-video-%d", mock.Now().UnixMilli())
	assert.Equal(t, "/"+item+"/Week_1_Intro.mp4", got.path)
	assert.Equal(t, "https://archive.example/download/"+item+"/Week_1_Intro.mp4", url)
	assert.Equal(t, content, got.body)

	assert.Equal(t, "LOW key:secret", got.headers.Get("Authorization"))
	assert.Equal(t, "video/mp4", got.headers.Get("Content-Type"))
	assert.Equal(t, "1", got.headers.Get("x-amz-auto-make-bucket"))
	assert.Equal(t, "opensource", got.headers.Get("x-archive-meta-collection"))
	assert.Equal(t, "movies", got.headers.Get("x-archive-meta-mediatype"))

	reportMutex.Lock()
	defer reportMutex.Unlock()
	require.NotEmpty(t, reports)
	assert.Equal(t, 100, reports[len(reports)-1])
	for i := 1; i < len(reports); i++ {
		assert.Greater(t, reports[i], reports[i-1])
	}
}

/*
TestArchive_DocumentMediaType classifies non-video files as texts.
*/
func TestArchive_DocumentMediaType(t *testing.T) {
	server, got := archiveServer(t, http.StatusOK)
	archive := newArchive(t, server.URL, clock.NewMock())

	_, err := archive.Upload(context.Background(), storage.Object{
		Name:        "notes.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "texts", got.headers.Get("x-archive-meta-mediatype"))
	assert.True(t, strings.HasPrefix(got.path, "/planx-application-"))
}

/*
TestArchive_Failure maps a rejected upload to BAD_GATEWAY.
*/
func TestArchive_Failure(t *testing.T) {
	server, _ := archiveServer(t, http.StatusForbidden)
	archive := newArchive(t, server.URL, clock.NewMock())

	_, err := archive.Upload(context.Background(), storage.Object{
		Name: "a.mp4", ContentType: "video/mp4", Body: strings.NewReader("x"),
	}, nil)
	assert.True(t, apperr.HasCode(err, "BAD_GATEWAY"))
}

/*
TestNewArchive_RequiresCredentials rejects a configuration without keys.
*/
func TestNewArchive_RequiresCredentials(t *testing.T) {
	_, err := storage.NewArchive(storage.ArchiveConfig{AccessKey: "key"}, nil)
	assert.Error(t, err)
}

/*
TestObject_MediaKind reads the leading part of the content type.
*/
func TestObject_MediaKind(t *testing.T) {
	assert.Equal(t, "video", storage.Object{ContentType: "video/webm"}.MediaKind())
	assert.Equal(t, "application", storage.Object{ContentType: "application/pdf"}.MediaKind())
	assert.Equal(t, "file", storage.Object{}.MediaKind())
}
