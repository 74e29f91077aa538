// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "slices"

// # User Roles

// UserRole represents the authorization level granted to an account.
// The string values are the ones stored by the content backend.
type UserRole string

const (
	// Full access, including other administrators' accounts.
	RoleSuperAdmin UserRole = "super_admin"

	// Manages lectures, subjects and user accounts.
	RoleAdmin UserRole = "admin"

	// Default role for accounts created through signup.
	RoleUser UserRole = "user"
)

// AdminRoles is the role set allowed into the admin dashboard.
var AdminRoles = []UserRole{RoleAdmin, RoleSuperAdmin}

// # Role Hierarchy

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// In reports whether r is a member of the given role set.
func (r UserRole) In(roles ...UserRole) bool {
	return slices.Contains(roles, r)
}

func (r UserRole) level() int {
	switch r {
	case RoleSuperAdmin:
		return 30
	case RoleAdmin:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
