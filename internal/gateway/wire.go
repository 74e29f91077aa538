// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/account"
	"github.com/taibuivan/planx/pkg/convert"
)

// # Loose Scalars

// looseString accepts a JSON string or number and keeps its textual form.
type looseString string

func (s *looseString) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		*s = ""
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		*s = looseString(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return err
	}
	*s = looseString(number.String())
	return nil
}

// looseInt accepts a JSON number or a numeric string. Anything else is zero.
type looseInt int

func (n *looseInt) UnmarshalJSON(raw []byte) error {
	var text looseString
	if err := text.UnmarshalJSON(raw); err != nil {
		*n = 0
		return nil
	}
	*n = looseInt(convert.ToIntD(string(text), 0))
	return nil
}

// # Envelope

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// # Records

type subjectRecord struct {
	ID     looseString `json:"id"`
	Name   string      `json:"Subject_Name"`
	Number looseInt    `json:"number"`
}

func (record subjectRecord) toDomain() catalog.Subject {
	return catalog.Subject{ID: string(record.ID), Name: record.Name, Number: int(record.Number)}
}

type lectureRecord struct {
	ID          looseString `json:"id"`
	Title       string      `json:"title"`
	SubjectName string      `json:"Subject_Name"`
	VideoLink   string      `json:"video_link"`
	PDFLink     string      `json:"pdf_link"`
	ImageURL    string      `json:"image_url"`
}

func (record lectureRecord) toDomain() catalog.Lecture {
	return catalog.Lecture{
		ID:          string(record.ID),
		Title:       record.Title,
		SubjectName: record.SubjectName,
		VideoLink:   record.VideoLink,
		PDFLink:     record.PDFLink,
		ImageURL:    record.ImageURL,
	}
}

type userRecord struct {
	ID       looseString     `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password looseString     `json:"password"`
	Role     string          `json:"role"`
	Avatar   string          `json:"avatar"`
	Watched  json.RawMessage `json:"watched"`
}

func (record userRecord) toDomain() account.User {
	return account.User{
		ID:       string(record.ID),
		Name:     record.Name,
		Email:    record.Email,
		Password: string(record.Password),
		Role:     sec.UserRole(record.Role),
		Avatar:   record.Avatar,
		Watched:  decodeWatched(record.Watched),
	}
}

// decodeWatched parses the watch-progress map. The backend stores it as a
// JSON-encoded string; some deployments return the object itself. Missing,
// empty or malformed values decode to an empty map.
func decodeWatched(raw json.RawMessage) account.WatchProgress {
	progress := account.WatchProgress{}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return progress
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil || strings.TrimSpace(encoded) == "" {
			return progress
		}
		raw = []byte(encoded)
	}

	var positions map[string]any
	if err := json.Unmarshal(raw, &positions); err != nil {
		return progress
	}

	for lectureID, value := range positions {
		switch position := value.(type) {
		case float64:
			if account.ValidatePosition(position) == nil {
				progress[lectureID] = position
			}
		case string:
			if parsed, err := strconv.ParseFloat(position, 64); err == nil && account.ValidatePosition(parsed) == nil {
				progress[lectureID] = parsed
			}
		}
	}
	return progress
}

// encodeWatched renders the map in the string form the backend stores.
func encodeWatched(progress account.WatchProgress) (string, error) {
	if progress == nil {
		progress = account.WatchProgress{}
	}
	encoded, err := json.Marshal(progress)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
