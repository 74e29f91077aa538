// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gateway

import (
	"context"

	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/pkg/slice"
)

// ListLectures returns every lecture resource.
func (client *Client) ListLectures(ctx context.Context) ([]catalog.Lecture, error) {
	records, err := list[lectureRecord](ctx, client, client.resourcesURL, "")
	if err != nil {
		return nil, err
	}
	return slice.Map(records, lectureRecord.toDomain), nil
}

// CreateLecture adds a lecture. The id of the argument is ignored.
func (client *Client) CreateLecture(ctx context.Context, lecture catalog.Lecture) error {
	return client.post(ctx, client.resourcesURL, append(
		[]formField{{fieldAction, actionCreate}},
		lectureFields(lecture)...,
	))
}

// UpdateLecture overwrites every field of the lecture with the given id.
func (client *Client) UpdateLecture(ctx context.Context, lecture catalog.Lecture) error {
	return client.post(ctx, client.resourcesURL, append(
		[]formField{{fieldAction, actionUpdate}, {fieldID, lecture.ID}},
		lectureFields(lecture)...,
	))
}

// DeleteLecture removes a lecture.
func (client *Client) DeleteLecture(ctx context.Context, id string) error {
	return client.post(ctx, client.resourcesURL, []formField{
		{fieldAction, actionDelete},
		{fieldID, id},
	})
}

func lectureFields(lecture catalog.Lecture) []formField {
	return []formField{
		{catalog.FieldTitle, lecture.Title},
		{catalog.FieldSubjectName, lecture.SubjectName},
		{catalog.FieldVideoLink, lecture.VideoLink},
		{catalog.FieldPDFLink, lecture.PDFLink},
		{catalog.FieldImageURL, lecture.ImageURL},
	}
}
