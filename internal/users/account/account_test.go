// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/planx/internal/platform/sec"
	"github.com/taibuivan/planx/internal/users/account"
	"github.com/taibuivan/planx/pkg/pointer"
)

/*
TestUser_Identity verifies that the credential secret never reaches the identity.
*/
func TestUser_Identity(t *testing.T) {
	user := account.User{
		ID:       "7",
		Name:     "Dr. Ada",
		Email:    "ada@planx.app",
		Password: "hunter22",
		Role:     sec.RoleUser,
		Watched:  account.WatchProgress{"l1": 42},
	}

	identity := user.Identity()
	encoded, err := json.Marshal(identity)
	require.NoError(t, err)

	assert.NotContains(t, string(encoded), "hunter22")
	assert.NotContains(t, string(encoded), "password")
	assert.Equal(t, 42.0, identity.Watched["l1"])

	// The identity owns its own map.
	identity.Watched["l1"] = 1
	assert.Equal(t, 42.0, user.Watched["l1"])
}

/*
TestUser_Sanitized verifies that cached user records drop the secret.
*/
func TestUser_Sanitized(t *testing.T) {
	user := account.User{ID: "1", Password: "secret"}
	assert.Empty(t, user.Sanitized().Password)
	assert.Equal(t, "secret", user.Password)
}

/*
TestIdentity_Apply verifies the merge leaves the receiver untouched.
*/
func TestIdentity_Apply(t *testing.T) {
	original := &account.Identity{ID: "1", Name: "Dr. Ada", Avatar: "a.png", Watched: account.WatchProgress{}}

	merged := original.Apply(account.Patch{
		Name:    pointer.To("Dr. Grace"),
		Watched: account.WatchProgress{"l2": 10},
	})

	assert.Equal(t, "Dr. Grace", merged.Name)
	assert.Equal(t, "a.png", merged.Avatar)
	assert.Equal(t, 10.0, merged.Watched["l2"])

	assert.Equal(t, "Dr. Ada", original.Name)
	assert.Empty(t, original.Watched)
}

/*
TestPatch_IsEmpty covers the no-op patch.
*/
func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, account.Patch{}.IsEmpty())
	assert.False(t, account.Patch{Avatar: pointer.To("")}.IsEmpty())
}

/*
TestWatchProgress_With checks position validation.
*/
func TestWatchProgress_With(t *testing.T) {
	tests := []struct {
		name     string
		position float64
		hasError bool
	}{
		{"zero", 0, false},
		{"fractional", 12.5, false},
		{"negative", -1, true},
		{"nan", math.NaN(), true},
		{"infinite", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var progress account.WatchProgress
			next, err := progress.With("l1", tt.position)

			if tt.hasError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.position, next["l1"])
		})
	}
}
