// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/planx/pkg/convert"
)

func TestToIntD(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"integer", "3", 3},
		{"padded", " 7 ", 7},
		{"integral_float", "2.0", 2},
		{"fraction", "2.5", -1},
		{"empty", "", -1},
		{"garbage", "abc", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convert.ToIntD(tt.in, -1))
		})
	}
}
