// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"cmp"
	"slices"

	"github.com/taibuivan/planx/internal/platform/constants"
	"github.com/taibuivan/planx/pkg/slice"
)

// Section is one subject row of the home page.
type Section struct {
	Subject  Subject   `json:"subject"`
	Lectures []Lecture `json:"lectures"`
}

// GroupBySubject builds one section per subject, in subject order, holding the
// lectures whose subject name matches exactly. Subjects with no lecture are
// kept so the row can render an empty state.
func GroupBySubject(subjects []Subject, lectures []Lecture) []Section {
	sections := make([]Section, 0, len(subjects))
	for _, subject := range subjects {
		sections = append(sections, Section{
			Subject: subject,
			Lectures: slice.Filter(lectures, func(l Lecture) bool {
				return l.SubjectName == subject.Name
			}),
		})
	}
	return sections
}

// Orphans returns the lectures whose subject name matches no subject.
func Orphans(subjects []Subject, lectures []Lecture) []Lecture {
	return slice.Filter(lectures, func(l Lecture) bool {
		return !HasSubjectNamed(subjects, l.SubjectName)
	})
}

// ReferencingLectures returns the lectures tagged with the subject name.
func ReferencingLectures(lectures []Lecture, subjectName string) []Lecture {
	return slice.Filter(lectures, func(l Lecture) bool {
		return l.SubjectName == subjectName
	})
}

// InProgress is a lecture with the viewer's resume position.
type InProgress struct {
	Lecture
	Position float64 `json:"position"`
}

// ContinueWatching lists the started lectures, most progressed first, capped
// at [constants.ContinueWatchingLimit]. Positions at or under
// [constants.ContinueWatchingMinPosition] seconds and ids of deleted lectures
// are skipped. There is no upper bound: positions are seconds, and the
// lecture duration is unknown here, so a finished lecture cannot be told
// apart from a long one.
func ContinueWatching(watched map[string]float64, lectures []Lecture) []InProgress {
	byID := slice.IndexBy(lectures, func(l Lecture) string { return l.ID })

	var started []InProgress
	for lectureID, position := range watched {
		lecture, ok := byID[lectureID]
		if !ok || position <= constants.ContinueWatchingMinPosition {
			continue
		}
		started = append(started, InProgress{Lecture: lecture, Position: position})
	}

	slices.SortFunc(started, func(a, b InProgress) int {
		if c := cmp.Compare(b.Position, a.Position); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if len(started) > constants.ContinueWatchingLimit {
		started = started[:constants.ContinueWatchingLimit]
	}
	return started
}
