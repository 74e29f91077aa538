// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer provides generic helpers for optional values.

Partial updates (profile edits, user writes to the backend) model "field not
sent" as a nil pointer, so these helpers show up wherever a patch is built.
*/
package pointer

// To returns a pointer to the provided value.
func To[T any](v T) *T {
	return &v
}
