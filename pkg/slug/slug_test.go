// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/planx/pkg/slug"
)

func TestFrom(t *testing.T) {
	assert.Equal(t, "video", slug.From("Video"))
	assert.Equal(t, "cardiologie-avancee", slug.From("  Cardiologie Avancée! "))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces", "Lecture 01 Intro.mp4", "Lecture_01_Intro.mp4"},
		{"accents", "Anatomie générale.pdf", "Anatomie_generale.pdf"},
		{"unsafe", "slides(v2)#final.pdf", "slidesv2final.pdf"},
		{"empty", "   ", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.FileName(tt.in))
		})
	}
}
