// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gateway

import (
	"context"
	"strconv"

	"github.com/taibuivan/planx/internal/content/catalog"
	"github.com/taibuivan/planx/pkg/slice"
)

// ListSubjects returns every subject in backend order.
func (client *Client) ListSubjects(ctx context.Context) ([]catalog.Subject, error) {
	records, err := list[subjectRecord](ctx, client, client.subjectsURL, actionGet)
	if err != nil {
		return nil, err
	}
	return slice.Map(records, subjectRecord.toDomain), nil
}

// CreateSubject adds a subject. The backend assigns the id and ordering key.
func (client *Client) CreateSubject(ctx context.Context, name string) error {
	return client.post(ctx, client.subjectsURL, []formField{
		{fieldAction, actionCreate},
		{catalog.FieldSubjectName, name},
	})
}

// UpdateSubject overwrites the name and ordering key of a subject.
func (client *Client) UpdateSubject(ctx context.Context, subject catalog.Subject) error {
	return client.post(ctx, client.subjectsURL, []formField{
		{fieldAction, actionUpdate},
		{fieldID, subject.ID},
		{catalog.FieldSubjectName, subject.Name},
		{catalog.FieldNumber, strconv.Itoa(subject.Number)},
	})
}

// DeleteSubject removes a subject. Lectures tagged with its name are left as they are.
func (client *Client) DeleteSubject(ctx context.Context, id string) error {
	return client.post(ctx, client.subjectsURL, []formField{
		{fieldAction, actionDelete},
		{fieldID, id},
	})
}
