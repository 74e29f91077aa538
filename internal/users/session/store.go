// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the signed-in identity of every browser session.

# Architecture

  - Store: the identity of one browser session and its lifecycle
    (restore, login, signup, optimistic profile edits, logout).
  - Persister: the durable copy of the identity, read back on restore.
  - Manager: every live store, keyed by browser-session id.
  - Handler: the auth and profile endpoints.

# Invariants

The credential secret never enters a store or a persister: identities are
built through [account.User.Identity]. Profile edits are serialized per store,
so a failed remote write only ever reverts its own change.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/taibuivan/planx/internal/gateway"
	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/account"
	"github.com/taibuivan/planx/pkg/slice"
)

// # Contracts

// Directory is the user collection of the content backend.
type Directory interface {
	ListUsers(context context.Context) ([]account.User, error)
	CreateUser(context context.Context, user gateway.NewUser) error
	UpdateUser(context context.Context, update gateway.UserUpdate) error
}

// Persister keeps the signed-in identity of a browser session across
// reloads and portal restarts.
type Persister interface {

	/*
		Load returns the persisted identity of a browser session.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - *account.Identity: nil when nothing is persisted
		  - error: ErrCorrupt for an unreadable value, or storage errors
	*/
	Load(context context.Context, sessionID string) (*account.Identity, error)

	// Save replaces the persisted identity.
	Save(context context.Context, sessionID string, identity *account.Identity) error

	// Delete removes the persisted identity. Deleting a missing key is not an error.
	Delete(context context.Context, sessionID string) error
}

// ErrCorrupt is returned by a [Persister] when the stored value cannot be decoded.
var ErrCorrupt = errors.New("session: corrupt persisted identity")

// # States

// Status is the authentication state of a store.
type Status string

const (
	// StatusLoading: the persisted identity has not been checked yet.
	StatusLoading Status = "loading"

	StatusUnauthenticated Status = "unauthenticated"

	// StatusAuthenticating: a login or signup is in flight.
	StatusAuthenticating Status = "authenticating"

	StatusAuthenticated Status = "authenticated"
)

// Options tunes the behaviour of stores.
type Options struct {
	// DisplayNamePrefix is prepended to the name given at signup.
	DisplayNamePrefix string

	Logger *slog.Logger
}

// # Store

// Store holds the identity of one browser session.
//
// # Concurrency
//
// Reads take the state lock only. Every operation that changes the identity
// (login, signup, logout, profile edits) holds the write lock for its whole
// duration, remote calls included.
type Store struct {
	sessionID string
	directory Directory
	persister Persister
	options   Options
	logger    *slog.Logger

	// writeMutex serializes identity changes.
	writeMutex sync.Mutex

	mutex    sync.RWMutex
	status   Status
	identity *account.Identity
	lastErr  error

	ready     chan struct{}
	readyOnce sync.Once
}

// NewStore builds a store in the Loading state. Call [Store.Restore] to
// settle it.
func NewStore(sessionID string, directory Directory, persister Persister, options Options) *Store {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessionID: sessionID,
		directory: directory,
		persister: persister,
		options:   options,
		logger:    logger.With(slog.String("component", "session_store")),
		status:    StatusLoading,
		ready:     make(chan struct{}),
	}
}

// # Accessors

// SessionID returns the browser-session id of the store.
func (store *Store) SessionID() string { return store.sessionID }

// Status returns the current authentication state.
func (store *Store) Status() Status {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.status
}

// Ready is closed once the persisted identity has been checked.
func (store *Store) Ready() <-chan struct{} { return store.ready }

// Identity returns a copy of the signed-in identity, or nil.
func (store *Store) Identity() *account.Identity {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.identity.Clone()
}

// LastError returns the failure of the most recent rolled-back update, or nil.
func (store *Store) LastError() error {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.lastErr
}

// # Lifecycle

/*
Restore loads the persisted identity and settles the store.

Description: A corrupt value is removed and treated as absent. Any other
storage failure leaves the store signed out without touching the stored
value. Restore runs once; later calls return immediately.
*/
func (store *Store) Restore(context context.Context) {
	select {
	case <-store.ready:
		return
	default:
	}

	store.writeMutex.Lock()
	defer store.writeMutex.Unlock()

	identity, err := store.persister.Load(context, store.sessionID)
	switch {
	case errors.Is(err, ErrCorrupt):
		store.logger.WarnContext(context, "session_restore_corrupt", slog.String("session_id", store.sessionID))
		if err := store.persister.Delete(context, store.sessionID); err != nil {
			store.logger.WarnContext(context, "session_delete_failed", slog.Any("error", err))
		}
		identity = nil
	case err != nil:
		store.logger.WarnContext(context, "session_restore_failed", slog.Any("error", err))
		identity = nil
	}

	store.settle(identity)
}

// MarkRestored settles a brand-new store that has nothing to restore.
func (store *Store) MarkRestored() {
	store.writeMutex.Lock()
	defer store.writeMutex.Unlock()
	store.settle(nil)
}

func (store *Store) settle(identity *account.Identity) {
	store.mutex.Lock()
	if store.status == StatusLoading {
		store.identity = identity
		store.status = statusOf(identity)
	}
	store.mutex.Unlock()
	store.readyOnce.Do(func() { close(store.ready) })
}

// waitReady blocks until the store has been restored or ctx ends.
func (store *Store) waitReady(context context.Context) error {
	select {
	case <-store.ready:
		return nil
	case <-context.Done():
		return context.Err()
	}
}

// # Authentication

/*
Login signs in with an exact email and secret match against the user list.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *account.Identity: the signed-in identity, or nil when nothing matched
  - error: remote failures only; a failed match is not an error
*/
func (store *Store) Login(context context.Context, email, password string) (*account.Identity, error) {
	if err := store.waitReady(context); err != nil {
		return nil, err
	}

	store.writeMutex.Lock()
	defer store.writeMutex.Unlock()

	store.beginAuthenticating()
	users, err := store.directory.ListUsers(context)
	if err != nil {
		store.endAuthenticating()
		return nil, err
	}

	for _, user := range users {
		if user.Email == email && user.Password == password {
			identity := user.Identity()
			store.signIn(context, identity)
			return identity.Clone(), nil
		}
	}

	store.endAuthenticating()
	return nil, nil
}

/*
Signup creates a standard account and signs it in.

Description: The email must not match an existing account exactly. The
display name gets the configured title prefix. The backend assigns the id,
so the new account is looked up again by email after creation.

Returns:
  - *account.Identity: the signed-in identity
  - error: apperr.Conflict for a taken email (nothing is created), or remote failures
*/
func (store *Store) Signup(context context.Context, name, email, password, avatar string) (*account.Identity, error) {
	if err := store.waitReady(context); err != nil {
		return nil, err
	}

	store.writeMutex.Lock()
	defer store.writeMutex.Unlock()

	store.beginAuthenticating()
	defer store.endAuthenticating()

	users, err := store.directory.ListUsers(context)
	if err != nil {
		return nil, err
	}
	if findByEmail(users, email) != nil {
		return nil, apperr.Conflict("User with this email already exists.")
	}

	err = store.directory.CreateUser(context, gateway.NewUser{
		Name:     store.options.DisplayNamePrefix + name,
		Email:    email,
		Password: password,
		Role:     sec.RoleUser,
		Avatar:   avatar,
	})
	if err != nil {
		return nil, err
	}

	users, err = store.directory.ListUsers(context)
	if err != nil {
		return nil, err
	}
	created := findByEmail(users, email)
	if created == nil {
		return nil, apperr.BadGateway("Account created but it could not be loaded. Please sign in.",
			fmt.Errorf("session: created user %q missing from listing", email))
	}

	identity := created.Identity()
	store.signIn(context, identity)
	return identity.Clone(), nil
}

// Logout clears the identity and its persisted copy.
func (store *Store) Logout(context context.Context) error {
	store.writeMutex.Lock()
	defer store.writeMutex.Unlock()

	store.mutex.Lock()
	store.identity = nil
	store.lastErr = nil
	store.status = StatusUnauthenticated
	store.mutex.Unlock()
	store.readyOnce.Do(func() { close(store.ready) })

	if err := store.persister.Delete(context, store.sessionID); err != nil {
		return fmt.Errorf("session: delete persisted identity: %w", err)
	}
	return nil
}

func (store *Store) beginAuthenticating() {
	store.mutex.Lock()
	store.status = StatusAuthenticating
	store.mutex.Unlock()
}

// endAuthenticating leaves the Authenticating state for whatever the
// current identity implies.
func (store *Store) endAuthenticating() {
	store.mutex.Lock()
	if store.status == StatusAuthenticating {
		store.status = statusOf(store.identity)
	}
	store.mutex.Unlock()
}

// signIn installs identity in memory and in the persister. Persistence
// failures are logged: the in-memory identity is authoritative for the
// lifetime of the process.
func (store *Store) signIn(context context.Context, identity *account.Identity) {
	store.mutex.Lock()
	store.identity = identity.Clone()
	store.status = StatusAuthenticated
	store.lastErr = nil
	store.mutex.Unlock()

	store.persist(context, identity)
	store.logger.InfoContext(context, "session_signed_in", slog.String("user_id", identity.ID))
}

func (store *Store) persist(context context.Context, identity *account.Identity) {
	if err := store.persister.Save(context, store.sessionID, identity); err != nil {
		store.logger.WarnContext(context, "session_persist_failed", slog.Any("error", err))
	}
}

// # Profile Updates

/*
UpdateContext applies patch optimistically and writes it to the backend.

Description: The merged identity is installed and persisted before the
remote call. If the call fails, the identity held before this call is put
back in memory and in the persister, the failure is kept in [Store.LastError],
and false is returned. The failure is not returned as an error.

Returns:
  - bool: true when the remote write succeeded
*/
func (store *Store) UpdateContext(context context.Context, patch account.Patch) bool {
	ok, _ := store.update(context, func(*account.Identity) (account.Patch, error) { return patch, nil })
	return ok
}

// RecordProgress stores the playback position of a lecture. The position
// is merged into the watch map held at the time of the call.
func (store *Store) RecordProgress(context context.Context, lectureID string, position float64) error {
	ok, err := store.update(context, func(current *account.Identity) (account.Patch, error) {
		watched, err := current.Watched.With(lectureID, position)
		if err != nil {
			return account.Patch{}, err
		}
		return account.Patch{Watched: watched}, nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return store.LastError()
	}
	return nil
}

// ErrSignedOut is returned for identity changes on a store without identity.
var ErrSignedOut = apperr.Unauthorized("Authentication required")

// update serializes the optimistic write cycle. build computes the patch
// from the identity current at the time the write lock is acquired.
func (store *Store) update(context context.Context, build func(current *account.Identity) (account.Patch, error)) (bool, error) {
	store.writeMutex.Lock()
	defer store.writeMutex.Unlock()

	store.mutex.RLock()
	previous := store.identity.Clone()
	store.mutex.RUnlock()

	if previous == nil {
		return false, ErrSignedOut
	}

	patch, err := build(previous)
	if err != nil {
		return false, err
	}
	if patch.IsEmpty() {
		return true, nil
	}

	optimistic := previous.Apply(patch)
	store.mutex.Lock()
	store.identity = optimistic
	store.mutex.Unlock()
	store.persist(context, optimistic)

	err = store.directory.UpdateUser(context, gateway.UserUpdate{
		ID:      previous.ID,
		Name:    patch.Name,
		Email:   patch.Email,
		Avatar:  patch.Avatar,
		Role:    patch.Role,
		Watched: patch.Watched,
	})
	if err == nil {
		store.mutex.Lock()
		store.lastErr = nil
		store.mutex.Unlock()
		return true, nil
	}

	store.logger.WarnContext(context, "session_update_reverted",
		slog.String("user_id", previous.ID),
		slog.Any("error", err),
	)

	store.mutex.Lock()
	store.identity = previous
	store.lastErr = err
	store.mutex.Unlock()
	store.persist(context, previous)

	return false, nil
}

// # Helpers

func statusOf(identity *account.Identity) Status {
	if identity == nil {
		return StatusUnauthenticated
	}
	return StatusAuthenticated
}

func findByEmail(users []account.User, email string) *account.User {
	matches := slice.Filter(users, func(u account.User) bool { return u.Email == email })
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}
