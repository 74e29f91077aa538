// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"github.com/facebookgo/clock"
	"google.golang.org/api/option"

	"github.com/taibuivan/planx/internal/platform/apperr"
)

// GCS uploads into a Google Cloud Storage bucket. Objects are written under
// <prefix>/<item>/<file>, using the same item naming as [Archive].
type GCS struct {
	client *gcstorage.Client
	bucket string
	prefix string
	clock  clock.Clock
	logger *slog.Logger
}

// NewGCS creates a [GCS] uploader. Without a credentials file the client
// uses application default credentials.
func NewGCS(context context.Context, bucket, prefix, credentialsFile string, logger *slog.Logger) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage: GCS bucket is required")
	}

	options := []option.ClientOption{option.WithScopes(gcstorage.ScopeReadWrite)}
	if credentialsFile != "" {
		options = append(options, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcstorage.NewClient(context, options...)
	if err != nil {
		return nil, fmt.Errorf("storage: create GCS client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GCS{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		clock:  clock.New(),
		logger: logger.With(slog.String("component", "storage_gcs")),
	}, nil
}

// Close releases the underlying client.
func (uploader *GCS) Close() error {
	return uploader.client.Close()
}

// objectKey is the object path inside the bucket.
func (uploader *GCS) objectKey(object Object) string {
	return path.Join(uploader.prefix, itemName(object, uploader.clock.Now()), fileName(object))
}

// publicURL is the anonymous download URL of key.
func publicURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

// Upload writes the object and returns its public URL.
func (uploader *GCS) Upload(context context.Context, object Object, progress Progress) (string, error) {
	key := uploader.objectKey(object)

	writer := uploader.client.Bucket(uploader.bucket).Object(key).NewWriter(context)
	writer.ContentType = object.ContentType
	if progress != nil && object.Size > 0 {
		last := -1
		writer.ProgressFunc = func(written int64) {
			percent := int(min(written, object.Size) * 100 / object.Size)
			if percent != last {
				last = percent
				progress(percent)
			}
		}
	}

	start := time.Now()
	if _, err := io.Copy(writer, object.Body); err != nil {
		_ = writer.Close()
		return "", apperr.BadGateway(errUploadFailed, fmt.Errorf("storage: write gs://%s/%s: %w", uploader.bucket, key, err))
	}
	if err := writer.Close(); err != nil {
		return "", apperr.BadGateway(errUploadFailed, fmt.Errorf("storage: close gs://%s/%s: %w", uploader.bucket, key, err))
	}

	uploader.logger.InfoContext(context, "upload_completed",
		slog.String("object", key),
		slog.Int64("bytes", object.Size),
		slog.Duration("duration", time.Since(start)),
	)
	return publicURL(uploader.bucket, key), nil
}
