// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog defines the lecture catalogue: subjects, lecture resources,
and the read-side rules views apply to them.

# Relationship

A lecture references its subject by display name, not by id. Grouping is an
exact string match performed at read time, so renaming a subject orphans the
lectures tagged with the old name unless the rename is cascaded (see the admin
package).
*/
package catalog

import (
	"net/url"
	"slices"
	"strings"
)

// # Domain Entities

// Subject is a top-level grouping of lectures shown on the home page.
type Subject struct {
	ID     string `json:"id"`
	Name   string `json:"Subject_Name"`
	Number int    `json:"number"` // Ordering key. Lower sorts first.
}

// Lecture is a lecture resource: one video with its slides and thumbnail.
type Lecture struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	SubjectName string `json:"Subject_Name"`
	VideoLink   string `json:"video_link"`
	PDFLink     string `json:"pdf_link"`
	ImageURL    string `json:"image_url"`
}

// # Field Identifiers

const (
	FieldSubjectName = "Subject_Name"
	FieldNumber      = "number"
	FieldTitle       = "title"
	FieldVideoLink   = "video_link"
	FieldPDFLink     = "pdf_link"
	FieldImageURL    = "image_url"
)

// # Ordering

// SortSubjects sorts subjects ascending by ordering key in place. Subjects
// sharing a key keep their relative order.
func SortSubjects(subjects []Subject) {
	slices.SortStableFunc(subjects, func(a, b Subject) int {
		return a.Number - b.Number
	})
}

// # Video Sources

// VideoKind tells the player how to present a lecture's video.
type VideoKind string

const (
	// VideoStreaming is a streaming-platform page rendered through an embed frame.
	VideoStreaming VideoKind = "streaming"

	// VideoDirect is a media file played by the native player.
	VideoDirect VideoKind = "direct"
)

// VideoSource describes how a lecture video is played.
type VideoSource struct {
	Kind VideoKind `json:"kind"`
	// URL is the embed URL for streaming sources and the media URL otherwise.
	URL string `json:"url"`
}

// Video classifies the lecture's video link.
//
// YouTube links (youtube.com, youtu.be) become embed URLs. The video id is
// the "v" query parameter, or the last path segment for short links.
func (lecture Lecture) Video() VideoSource {
	link := lecture.VideoLink
	if !strings.Contains(link, "youtube.com") && !strings.Contains(link, "youtu.be") {
		return VideoSource{Kind: VideoDirect, URL: link}
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return VideoSource{Kind: VideoDirect, URL: link}
	}

	videoID := parsed.Query().Get("v")
	if videoID == "" {
		segments := strings.Split(strings.TrimRight(parsed.Path, "/"), "/")
		videoID = segments[len(segments)-1]
	}

	return VideoSource{Kind: VideoStreaming, URL: "https://www.youtube.com/embed/" + videoID}
}

// # Lookups

// FindLecture returns the lecture with the given id.
func FindLecture(lectures []Lecture, id string) (Lecture, bool) {
	index := slices.IndexFunc(lectures, func(l Lecture) bool { return l.ID == id })
	if index < 0 {
		return Lecture{}, false
	}
	return lectures[index], true
}

// FindSubject returns the subject with the given id.
func FindSubject(subjects []Subject, id string) (Subject, bool) {
	index := slices.IndexFunc(subjects, func(s Subject) bool { return s.ID == id })
	if index < 0 {
		return Subject{}, false
	}
	return subjects[index], true
}

// HasSubjectNamed reports whether some subject's display name equals name exactly.
func HasSubjectNamed(subjects []Subject, name string) bool {
	return slices.ContainsFunc(subjects, func(s Subject) bool { return s.Name == name })
}

// NameTaken reports whether a subject other than exceptID already uses name,
// ignoring case. Pass an empty exceptID when creating a subject.
func NameTaken(subjects []Subject, name, exceptID string) bool {
	return slices.ContainsFunc(subjects, func(s Subject) bool {
		return s.ID != exceptID && strings.EqualFold(s.Name, name)
	})
}
