// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage uploads lecture media to public object storage.

Two backends are available:

  - [Archive]: an S3-like archive accepting authenticated PUTs.
  - [GCS]: a Google Cloud Storage bucket.

Both return the public URL the lecture record should point to.
*/
package storage

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/planx/pkg/slug"
)

// Object is one file to upload.
type Object struct {
	// Name is the original file name as chosen by the uploader.
	Name string
	// ContentType is the MIME type, e.g. "video/mp4".
	ContentType string
	// Size is the body length in bytes. Zero disables progress reports.
	Size int64
	Body io.Reader
}

// Progress receives whole upload percentages, each value at most once.
type Progress func(percent int)

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(context context.Context, object Object, progress Progress) (string, error)
}

// MediaKind is the leading part of the content type ("video", "application"),
// reduced to a URL-safe token.
func (object Object) MediaKind() string {
	kind, _, _ := strings.Cut(object.ContentType, "/")
	if kind = slug.From(kind); kind == "" {
		return "file"
	}
	return kind
}

// itemName builds the per-upload container name: planx-<kind>-<unix millis>.
func itemName(object Object, now time.Time) string {
	return fmt.Sprintf("planx-%s-%d", object.MediaKind(), now.UnixMilli())
}

// fileName is the stored file name with whitespace runs replaced.
func fileName(object Object) string {
	return slug.FileName(object.Name)
}

// # Progress Reporting

// progressReader counts bytes read from the body and reports percentages.
type progressReader struct {
	reader   io.Reader
	total    int64
	progress Progress

	mutex sync.Mutex
	read  int64
	last  int
}

func newProgressReader(reader io.Reader, total int64, progress Progress) io.Reader {
	if progress == nil || total <= 0 {
		return reader
	}
	return &progressReader{reader: reader, total: total, progress: progress, last: -1}
}

func (counter *progressReader) Read(buffer []byte) (int, error) {
	n, err := counter.reader.Read(buffer)
	if n > 0 {
		counter.advance(int64(n))
	}
	return n, err
}

func (counter *progressReader) advance(n int64) {
	counter.mutex.Lock()
	counter.read += n
	percent := int(math.Round(float64(min(counter.read, counter.total)) * 100 / float64(counter.total)))
	if percent == counter.last {
		counter.mutex.Unlock()
		return
	}
	counter.last = percent
	counter.mutex.Unlock()

	counter.progress(percent)
}
