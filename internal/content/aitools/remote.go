// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package aitools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taibuivan/planx/internal/platform/apperr"
)

const (
	defaultRemoteTimeout = 2 * time.Minute
	maxResponseBytes     = 16 << 20

	errGeneration = "Failed to generate study material. Please try again."
)

// Remote calls a generation service speaking the portal's JSON contract:
//
//	POST <endpoint>/quiz        {"text", "count"}  -> {"data": [MCQ]}
//	POST <endpoint>/flashcards  {"text", "count"}  -> {"data": [Flashcard]}
//	POST <endpoint>/thumbnail   {"title"}          -> {"data": {"image": "data:image/..."}}
type Remote struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRemote creates a [Remote] generator. A zero timeout uses two minutes.
func NewRemote(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *Remote {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "aitools")),
	}
}

func (remote *Remote) Available() bool { return true }

type textRequest struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

type thumbnailRequest struct {
	Title string `json:"title"`
}

type thumbnailResult struct {
	Image string `json:"image"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// GenerateQuiz asks for [QuizSize] questions about text.
func (remote *Remote) GenerateQuiz(context context.Context, text string) ([]MCQ, error) {
	var result envelope[[]MCQ]
	if err := remote.post(context, "/quiz", textRequest{Text: Truncate(text), Count: QuizSize}, &result); err != nil {
		return nil, err
	}
	if err := ValidateQuiz(result.Data); err != nil {
		return nil, apperr.BadGateway(errGeneration, err)
	}
	return result.Data, nil
}

// GenerateFlashcards asks for about [FlashcardTarget] cards about text.
func (remote *Remote) GenerateFlashcards(context context.Context, text string) ([]Flashcard, error) {
	var result envelope[[]Flashcard]
	if err := remote.post(context, "/flashcards", textRequest{Text: Truncate(text), Count: FlashcardTarget}, &result); err != nil {
		return nil, err
	}
	if err := ValidateFlashcards(result.Data); err != nil {
		return nil, apperr.BadGateway(errGeneration, err)
	}
	return result.Data, nil
}

// GenerateThumbnail asks for one image illustrating title.
func (remote *Remote) GenerateThumbnail(context context.Context, title string) (string, error) {
	var result envelope[thumbnailResult]
	if err := remote.post(context, "/thumbnail", thumbnailRequest{Title: title}, &result); err != nil {
		return "", err
	}
	if !strings.HasPrefix(result.Data.Image, "data:image/") {
		return "", apperr.BadGateway(errGeneration, fmt.Errorf("aitools: thumbnail is not an image data URI"))
	}
	return result.Data.Image, nil
}

func (remote *Remote) post(context context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.Internal(fmt.Errorf("aitools: encode request: %w", err))
	}

	request, err := http.NewRequestWithContext(context, http.MethodPost, remote.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return apperr.Internal(fmt.Errorf("aitools: build request: %w", err))
	}
	request.Header.Set("Content-Type", "application/json")
	if remote.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+remote.apiKey)
	}

	start := time.Now()
	response, err := remote.httpClient.Do(request)
	if err != nil {
		return apperr.BadGateway(errGeneration, fmt.Errorf("aitools: POST %s: %w", path, err))
	}
	defer response.Body.Close()

	remote.logger.DebugContext(context, "ai_call",
		slog.String("path", path),
		slog.Int("status", response.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return apperr.BadGateway(errGeneration, fmt.Errorf("aitools: POST %s: status %d: %s", path, response.StatusCode, snippet))
	}

	if err := json.NewDecoder(io.LimitReader(response.Body, maxResponseBytes)).Decode(out); err != nil {
		return apperr.BadGateway(errGeneration, fmt.Errorf("aitools: decode %s: %w", path, err))
	}
	return nil
}
