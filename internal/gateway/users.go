// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gateway

import (
	"context"
	"fmt"

	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/account"
	"github.com/taibuivan/planx/pkg/slice"
)

// NewUser is the payload of an account creation.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     sec.UserRole
	Avatar   string
}

// UserUpdate is a partial account update. Only non-nil fields are sent.
type UserUpdate struct {
	ID       string
	Name     *string
	Email    *string
	Password *string
	Role     *sec.UserRole
	Avatar   *string
	Watched  account.WatchProgress
}

// ListUsers returns every account, credential secrets included. Callers
// must strip secrets before anything leaves the process.
func (client *Client) ListUsers(ctx context.Context) ([]account.User, error) {
	records, err := list[userRecord](ctx, client, client.usersURL, actionGet)
	if err != nil {
		return nil, err
	}
	return slice.Map(records, userRecord.toDomain), nil
}

// CreateUser adds an account with an empty watch-progress map.
func (client *Client) CreateUser(ctx context.Context, user NewUser) error {
	return client.post(ctx, client.usersURL, []formField{
		{fieldAction, actionCreate},
		{account.FieldName, user.Name},
		{account.FieldEmail, user.Email},
		{account.FieldPassword, user.Password},
		{account.FieldRole, string(user.Role)},
		{account.FieldAvatar, user.Avatar},
		{fieldWatched, "{}"},
	})
}

// UpdateUser sends the set fields of update for the account update.ID.
func (client *Client) UpdateUser(ctx context.Context, update UserUpdate) error {
	fields := []formField{{fieldAction, actionUpdate}, {fieldID, update.ID}}

	optional := []struct {
		name  string
		value *string
	}{
		{account.FieldName, update.Name},
		{account.FieldEmail, update.Email},
		{account.FieldPassword, update.Password},
		{account.FieldAvatar, update.Avatar},
	}
	for _, field := range optional {
		if field.value != nil {
			fields = append(fields, formField{field.name, *field.value})
		}
	}

	if update.Role != nil {
		fields = append(fields, formField{account.FieldRole, string(*update.Role)})
	}

	if update.Watched != nil {
		encoded, err := encodeWatched(update.Watched)
		if err != nil {
			return apperr.Internal(fmt.Errorf("gateway: encode watched: %w", err))
		}
		fields = append(fields, formField{fieldWatched, encoded})
	}

	return client.post(ctx, client.usersURL, fields)
}

// DeleteUser removes an account.
func (client *Client) DeleteUser(ctx context.Context, id string) error {
	return client.post(ctx, client.usersURL, []formField{
		{fieldAction, actionDelete},
		{fieldID, id},
	})
}

const fieldWatched = "watched"
