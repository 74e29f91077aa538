// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/taibuivan/planx/internal/gateway"
	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/account"
)

var errBackend = apperr.BadGateway("The content service is unavailable. Please try again.", errors.New("connection refused"))

// fakeDirectory is an in-memory user collection.
type fakeDirectory struct {
	mu         sync.Mutex
	users      []account.User
	listErr    error
	updateHook func(gateway.UserUpdate) error
	creates    []gateway.NewUser
	updates    []gateway.UserUpdate
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{users: []account.User{{
		ID:       "1",
		Name:     "Dr. Ada",
		Email:    "a@x.io",
		Password: "secret",
		Role:     sec.RoleUser,
		Avatar:   "https://img/ada.png",
		Watched:  account.WatchProgress{"l1": 30},
	}}}
}

func (d *fakeDirectory) ListUsers(context.Context) ([]account.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := make([]account.User, len(d.users))
	copy(out, d.users)
	return out, nil
}

func (d *fakeDirectory) CreateUser(_ context.Context, user gateway.NewUser) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.creates = append(d.creates, user)
	d.users = append(d.users, account.User{
		ID:       fmt.Sprint(len(d.users) + 1),
		Name:     user.Name,
		Email:    user.Email,
		Password: user.Password,
		Role:     user.Role,
		Avatar:   user.Avatar,
		Watched:  account.WatchProgress{},
	})
	return nil
}

func (d *fakeDirectory) UpdateUser(_ context.Context, update gateway.UserUpdate) error {
	d.mu.Lock()
	d.updates = append(d.updates, update)
	hook := d.updateHook
	d.mu.Unlock()

	if hook != nil {
		return hook(update)
	}
	return nil
}

func (d *fakeDirectory) createCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.creates)
}

// noopRefresher and noopPlayback satisfy the handler collaborators.
type noopRefresher struct{ calls int }

func (r *noopRefresher) Refresh(context.Context) error {
	r.calls++
	return nil
}

type recordingPlayback struct{ ended []string }

func (p *recordingPlayback) EndSession(sessionID string) { p.ended = append(p.ended, sessionID) }
