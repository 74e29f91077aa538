// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "fmt"

// Direction is a single-step move in the subject list.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection validates a direction coming from a request.
func ParseDirection(raw string) (Direction, error) {
	switch Direction(raw) {
	case Up, Down:
		return Direction(raw), nil
	default:
		return "", fmt.Errorf("catalog: unknown direction %q", raw)
	}
}

// MoveSubject swaps the subject at index with its neighbour in direction and
// re-keys every subject to its new position (0..n-1).
//
// The input is not modified. When the move would leave the list (first item
// up, last item down, index out of range) it returns the input unchanged and
// false: nothing needs to be persisted.
func MoveSubject(subjects []Subject, index int, direction Direction) ([]Subject, bool) {
	target := index - 1
	if direction == Down {
		target = index + 1
	}

	if index < 0 || index >= len(subjects) || target < 0 || target >= len(subjects) {
		return subjects, false
	}

	moved := make([]Subject, len(subjects))
	copy(moved, subjects)
	moved[index], moved[target] = moved[target], moved[index]

	for position := range moved {
		moved[position].Number = position
	}
	return moved, true
}
