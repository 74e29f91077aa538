// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides fault-tolerant type conversions.

The content backend is loosely typed: ids and ordering keys arrive as JSON
numbers from one deployment and as strings from another. These helpers
return a default instead of an error so callers can normalize quickly.

Do not use this package where malformed input must be told apart from a zero
value; use [strconv] directly.
*/
package convert

import (
	"strconv"
	"strings"
)

// ToIntD converts a string to an int, returning def if the string is empty
// or cannot be parsed. Integral float strings ("3.0") are accepted.
func ToIntD(str string, def int) int {
	str = strings.TrimSpace(str)
	if str == "" {
		return def
	}

	if v, err := strconv.Atoi(str); err == nil {
		return v
	}

	if f, err := strconv.ParseFloat(str, 64); err == nil && f == float64(int(f)) {
		return int(f)
	}

	return def
}
