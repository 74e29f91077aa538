// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package gateway is the typed client of the content backend.

The backend exposes three endpoint families (subjects, lecture resources,
users). Reads are GET requests answered with a {"data": [...]} envelope.
Writes are multipart form POSTs carrying an "action" field.

# Boundaries

The gateway holds no business logic: it does not sort, validate or cache.
Every failure (transport, non-2xx status, undecodable body) is returned as a
502 [apperr.AppError] with the cause attached for logging.
*/
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/planx/internal/platform/apperr"
)

const (
	defaultTimeout = 15 * time.Second

	// maxErrorBody bounds how much of a failed response is kept for logs.
	maxErrorBody = 512

	actionGet    = "get"
	actionCreate = "create"
	actionUpdate = "update"
	actionDelete = "delete"

	fieldAction = "action"
	fieldID     = "id"
)

// errUnavailable is the client-facing message of every backend failure.
const errUnavailable = "The content service is unavailable. Please try again."

// Config holds the endpoint URLs of the content backend.
type Config struct {
	SubjectsURL  string
	ResourcesURL string
	UsersURL     string

	// Timeout bounds every backend call. Defaults to 15s.
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout. Used by tests.
	HTTPClient *http.Client
}

// Client calls the content backend.
type Client struct {
	subjectsURL  string
	resourcesURL string
	usersURL     string
	httpClient   *http.Client
	logger       *slog.Logger
}

// New validates the configuration and builds a [Client].
func New(config Config, logger *slog.Logger) (*Client, error) {
	endpoints := map[string]string{
		"subjects":  config.SubjectsURL,
		"resources": config.ResourcesURL,
		"users":     config.UsersURL,
	}
	for name, endpoint := range endpoints {
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("gateway: invalid %s endpoint %q", name, endpoint)
		}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		subjectsURL:  config.SubjectsURL,
		resourcesURL: config.ResourcesURL,
		usersURL:     config.UsersURL,
		httpClient:   httpClient,
		logger:       logger.With(slog.String("component", "gateway")),
	}, nil
}

// # Transport

// formField is one multipart field. Order is kept as written.
type formField struct {
	name  string
	value string
}

// list performs a read and decodes the data envelope into out.
func list[T any](ctx context.Context, client *Client, endpoint string, action string) ([]T, error) {
	target := endpoint
	if action != "" {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return nil, apperr.BadGateway(errUnavailable, err)
		}
		query := parsed.Query()
		query.Set(fieldAction, action)
		parsed.RawQuery = query.Encode()
		target = parsed.String()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperr.BadGateway(errUnavailable, err)
	}

	body, err := client.do(request)
	if err != nil {
		return nil, err
	}

	var envelope listEnvelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperr.BadGateway(errUnavailable, fmt.Errorf("gateway: decode %s: %w", endpoint, err))
	}
	if envelope.Data == nil {
		envelope.Data = []T{}
	}
	return envelope.Data, nil
}

// post sends a multipart form write. The response body is not interpreted.
func (client *Client) post(ctx context.Context, endpoint string, fields []formField) error {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	for _, field := range fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return apperr.Internal(fmt.Errorf("gateway: encode field %s: %w", field.name, err))
		}
	}
	if err := writer.Close(); err != nil {
		return apperr.Internal(fmt.Errorf("gateway: encode form: %w", err))
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buffer)
	if err != nil {
		return apperr.BadGateway(errUnavailable, err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	_, err = client.do(request)
	return err
}

// do executes the request and returns the body of a 2xx response.
func (client *Client) do(request *http.Request) ([]byte, error) {
	start := time.Now()
	response, err := client.httpClient.Do(request)
	if err != nil {
		client.logger.WarnContext(request.Context(), "backend_call_failed",
			slog.String("method", request.Method),
			slog.String("url", request.URL.Redacted()),
			slog.Any("error", err),
		)
		return nil, apperr.BadGateway(errUnavailable, fmt.Errorf("gateway: %s %s: %w", request.Method, request.URL.Redacted(), err))
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, apperr.BadGateway(errUnavailable, fmt.Errorf("gateway: read body: %w", err))
	}

	client.logger.DebugContext(request.Context(), "backend_call",
		slog.String("method", request.Method),
		slog.String("url", request.URL.Redacted()),
		slog.Int("status", response.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, apperr.BadGateway(errUnavailable, &StatusError{
			Method: request.Method,
			URL:    request.URL.Redacted(),
			Status: response.StatusCode,
			Body:   strings.TrimSpace(snippet),
		})
	}
	return body, nil
}

// StatusError is the cause of a gateway failure on a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway: %s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// StatusOf returns the backend status code carried by err, or 0.
func StatusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}
