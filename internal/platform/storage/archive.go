// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/facebookgo/clock"

	"github.com/taibuivan/planx/internal/platform/apperr"
)

const (
	defaultArchiveEndpoint = "https://s3.us.archive.org"
	defaultArchiveDownload = "https://archive.org/download"
	defaultCollection      = "opensource"
	defaultUploadTimeout   = 30 * time.Minute

	errUploadFailed = "Upload failed. Please try again."
)

// ArchiveConfig configures the [Archive] uploader.
type ArchiveConfig struct {
	Endpoint     string
	DownloadBase string
	AccessKey    string
	SecretKey    string
	Collection   string
	Timeout      time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// Clock stamps item names. Defaults to the wall clock.
	Clock clock.Clock
}

// Archive uploads with one authenticated PUT per file. Each upload creates
// its own item, so the public URL is stable and never collides.
type Archive struct {
	config     ArchiveConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewArchive creates an [Archive] uploader, filling defaults.
func NewArchive(config ArchiveConfig, logger *slog.Logger) (*Archive, error) {
	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, errors.New("storage: archive access key and secret are required")
	}
	if config.Endpoint == "" {
		config.Endpoint = defaultArchiveEndpoint
	}
	if config.DownloadBase == "" {
		config.DownloadBase = defaultArchiveDownload
	}
	if config.Collection == "" {
		config.Collection = defaultCollection
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultUploadTimeout
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")
	config.DownloadBase = strings.TrimRight(config.DownloadBase, "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Archive{
		config:     config,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "storage_archive")),
	}, nil
}

// mediaType is the archive's own classification of an item.
func mediaType(object Object) string {
	if object.MediaKind() == "video" {
		return "movies"
	}
	return "texts"
}

/*
Upload streams the object to <endpoint>/<item>/<file>.

Returns:
  - string: <download base>/<item>/<file>
  - error: apperr.BadGateway on transport failure or non-2xx status
*/
func (archive *Archive) Upload(context context.Context, object Object, progress Progress) (string, error) {
	item := itemName(object, archive.config.Clock.Now())
	file := fileName(object)
	target := fmt.Sprintf("%s/%s/%s", archive.config.Endpoint, item, file)

	request, err := http.NewRequestWithContext(context, http.MethodPut, target, newProgressReader(object.Body, object.Size, progress))
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("storage: build upload request: %w", err))
	}
	if object.Size > 0 {
		request.ContentLength = object.Size
	}
	request.Header.Set("Authorization", fmt.Sprintf("LOW %s:%s", archive.config.AccessKey, archive.config.SecretKey))
	request.Header.Set("Content-Type", object.ContentType)
	request.Header.Set("x-amz-auto-make-bucket", "1")
	request.Header.Set("x-archive-meta-collection", archive.config.Collection)
	request.Header.Set("x-archive-meta-mediatype", mediaType(object))

	start := time.Now()
	response, err := archive.httpClient.Do(request)
	if err != nil {
		archive.logger.WarnContext(context, "upload_failed", slog.String("item", item), slog.Any("error", err))
		return "", apperr.BadGateway(errUploadFailed, fmt.Errorf("storage: PUT %s: %w", target, err))
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		archive.logger.WarnContext(context, "upload_failed",
			slog.String("item", item),
			slog.Int("status", response.StatusCode),
		)
		return "", apperr.BadGateway(errUploadFailed, fmt.Errorf("storage: PUT %s: status %d: %s", target, response.StatusCode, body))
	}

	archive.logger.InfoContext(context, "upload_completed",
		slog.String("item", item),
		slog.String("file", file),
		slog.Int64("bytes", object.Size),
		slog.Duration("duration", time.Since(start)),
	)
	return fmt.Sprintf("%s/%s/%s", archive.config.DownloadBase, item, file), nil
}
