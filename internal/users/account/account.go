// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account defines the user entities shared by the session store, the
admin dashboard and the content backend gateway.

# Architecture

  - User: the backend record, credential secret included. It only exists
    inside the gateway and the login/signup flows.
  - Identity: the client-visible profile. It never carries the secret.
  - Patch: a partial identity used for optimistic profile edits.
*/
package account

import (
	"maps"
	"math"

	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/sec"
)

// # Domain Entities

// WatchProgress maps a lecture id to the last playback position in seconds.
type WatchProgress map[string]float64

// User is a record of the users collection as stored by the content backend.
type User struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"-"` // Credential secret. Never serialized.
	Role     sec.UserRole  `json:"role"`
	Avatar   string        `json:"avatar"`
	Watched  WatchProgress `json:"watched"`
}

// Identity is the signed-in user's profile, excluding the credential secret.
type Identity struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Role    sec.UserRole  `json:"role"`
	Avatar  string        `json:"avatar"`
	Watched WatchProgress `json:"watched"`
}

// Patch carries the fields of an optimistic profile edit. Nil fields are
// left untouched.
type Patch struct {
	Name    *string
	Email   *string
	Avatar  *string
	Role    *sec.UserRole
	Watched WatchProgress
}

// # Field Identifiers

const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldAvatar          = "avatar"
	FieldRole            = "role"
	FieldPosition        = "position"
)

// # Conversions

// Identity strips the credential secret and returns the client-visible profile.
func (user User) Identity() *Identity {
	return &Identity{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Role:    user.Role,
		Avatar:  user.Avatar,
		Watched: user.Watched.Clone(),
	}
}

// Sanitized returns a copy of the record without the credential secret.
func (user User) Sanitized() User {
	user.Password = ""
	user.Watched = user.Watched.Clone()
	return user
}

// Clone returns a deep copy of the identity.
func (identity *Identity) Clone() *Identity {
	if identity == nil {
		return nil
	}
	clone := *identity
	clone.Watched = identity.Watched.Clone()
	return &clone
}

// Apply returns the identity with the patch merged in. The receiver is not modified.
func (identity *Identity) Apply(patch Patch) *Identity {
	merged := identity.Clone()
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Email != nil {
		merged.Email = *patch.Email
	}
	if patch.Avatar != nil {
		merged.Avatar = *patch.Avatar
	}
	if patch.Role != nil {
		merged.Role = *patch.Role
	}
	if patch.Watched != nil {
		merged.Watched = patch.Watched.Clone()
	}
	return merged
}

// IsEmpty reports whether the patch changes nothing.
func (patch Patch) IsEmpty() bool {
	return patch.Name == nil && patch.Email == nil && patch.Avatar == nil && patch.Role == nil && patch.Watched == nil
}

// # Watch Progress

// Clone returns a copy of the map. A nil map clones to an empty one.
func (progress WatchProgress) Clone() WatchProgress {
	clone := make(WatchProgress, len(progress))
	maps.Copy(clone, progress)
	return clone
}

// With returns a copy of the map with the position of lectureID set.
func (progress WatchProgress) With(lectureID string, position float64) (WatchProgress, error) {
	if err := ValidatePosition(position); err != nil {
		return nil, err
	}
	next := progress.Clone()
	next[lectureID] = position
	return next, nil
}

// ValidatePosition rejects positions that are not finite non-negative seconds.
func ValidatePosition(position float64) error {
	if math.IsNaN(position) || math.IsInf(position, 0) || position < 0 {
		return apperr.ValidationError("Invalid playback position", apperr.FieldError{
			Field:   FieldPosition,
			Message: "Must be a non-negative number of seconds",
		})
	}
	return nil
}
