// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/planx/internal/content/catalog"
)

/*
TestMoveSubject covers swaps, re-keying and the boundary no-ops.
*/
func TestMoveSubject(t *testing.T) {
	subjects := []catalog.Subject{
		{ID: "a", Name: "Anatomy", Number: 0},
		{ID: "b", Name: "Biology", Number: 1},
		{ID: "c", Name: "Cardiology", Number: 2},
	}

	t.Run("down_swaps_and_rekeys", func(t *testing.T) {
		moved, changed := catalog.MoveSubject(subjects, 0, catalog.Down)
		require.True(t, changed)
		assert.Equal(t, []catalog.Subject{
			{ID: "b", Name: "Biology", Number: 0},
			{ID: "a", Name: "Anatomy", Number: 1},
			{ID: "c", Name: "Cardiology", Number: 2},
		}, moved)

		// Input is untouched.
		assert.Equal(t, "a", subjects[0].ID)
	})

	t.Run("rekeys_sparse_numbers", func(t *testing.T) {
		sparse := []catalog.Subject{{ID: "x", Number: 10}, {ID: "y", Number: 40}, {ID: "z", Number: 41}}
		moved, changed := catalog.MoveSubject(sparse, 2, catalog.Up)
		require.True(t, changed)
		assert.Equal(t, []catalog.Subject{{ID: "x", Number: 0}, {ID: "z", Number: 1}, {ID: "y", Number: 2}}, moved)
	})

	noOps := []struct {
		name      string
		index     int
		direction catalog.Direction
	}{
		{"first_up", 0, catalog.Up},
		{"last_down", 2, catalog.Down},
		{"negative_index", -1, catalog.Down},
		{"past_end", 3, catalog.Up},
	}
	for _, tt := range noOps {
		t.Run(tt.name, func(t *testing.T) {
			moved, changed := catalog.MoveSubject(subjects, tt.index, tt.direction)
			assert.False(t, changed)
			assert.Equal(t, subjects, moved)
		})
	}
}

func TestParseDirection(t *testing.T) {
	direction, err := catalog.ParseDirection("up")
	require.NoError(t, err)
	assert.Equal(t, catalog.Up, direction)

	_, err = catalog.ParseDirection("left")
	assert.Error(t, err)
}

/*
TestSortSubjects checks ascending order by key with stable ties.
*/
func TestSortSubjects(t *testing.T) {
	subjects := []catalog.Subject{{ID: "c", Number: 2}, {ID: "a", Number: 0}, {ID: "b1", Number: 1}, {ID: "b2", Number: 1}}
	catalog.SortSubjects(subjects)

	ids := make([]string, 0, len(subjects))
	for _, s := range subjects {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)
}

/*
TestLecture_Video tests the classification of video links.
*/
func TestLecture_Video(t *testing.T) {
	tests := []struct {
		name string
		link string
		want catalog.VideoSource
	}{
		{
			"watch_url",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10",
			catalog.VideoSource{Kind: catalog.VideoStreaming, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		},
		{
			"short_url",
			"https://youtu.be/dQw4w9WgXcQ",
			catalog.VideoSource{Kind: catalog.VideoStreaming, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		},
		{
			"direct_media",
			"https://archive.org/download/planx-video-1/intro.mp4",
			catalog.VideoSource{Kind: catalog.VideoDirect, URL: "https://archive.org/download/planx-video-1/intro.mp4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.Lecture{VideoLink: tt.link}.Video())
		})
	}
}

/*
TestGroupBySubject checks exact-name grouping and orphan detection.
*/
func TestGroupBySubject(t *testing.T) {
	subjects := []catalog.Subject{{ID: "1", Name: "Anatomy"}, {ID: "2", Name: "Biology"}}
	lectures := []catalog.Lecture{
		{ID: "l1", SubjectName: "Anatomy"},
		{ID: "l2", SubjectName: "anatomy"},
		{ID: "l3", SubjectName: "Anatomy"},
	}

	sections := catalog.GroupBySubject(subjects, lectures)
	require.Len(t, sections, 2)
	assert.Len(t, sections[0].Lectures, 2)
	assert.Empty(t, sections[1].Lectures)

	orphans := catalog.Orphans(subjects, lectures)
	require.Len(t, orphans, 1)
	assert.Equal(t, "l2", orphans[0].ID)
}

func TestNameTaken(t *testing.T) {
	subjects := []catalog.Subject{{ID: "1", Name: "Anatomy"}, {ID: "2", Name: "Biology"}}

	tests := []struct {
		name     string
		input    string
		exceptID string
		want     bool
	}{
		{"exact", "Anatomy", "", true},
		{"other_case", "aNaToMy", "", true},
		{"free", "Chemistry", "", false},
		{"own_name", "ANATOMY", "1", false},
		{"other_subject", "biology", "1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.NameTaken(subjects, tt.input, tt.exceptID))
		})
	}
}

/*
TestContinueWatching checks the threshold, ordering, cap and deleted lectures.
*/
func TestContinueWatching(t *testing.T) {
	lectures := []catalog.Lecture{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}, {ID: "6"}}
	watched := map[string]float64{
		"1":       5,
		"2":       120,
		"3":       30,
		"4":       600,
		"5":       45,
		"6":       6,
		"deleted": 900,
	}

	row := catalog.ContinueWatching(watched, lectures)
	require.Len(t, row, 4)

	ids := []string{row[0].ID, row[1].ID, row[2].ID, row[3].ID}
	assert.Equal(t, []string{"4", "2", "5", "3"}, ids)
	assert.Equal(t, 600.0, row[0].Position)
}

/*
TestContinueWatching_NoUpperBound keeps long positions. Positions are seconds
into the video, so a lecture watched for hours is still in progress.
*/
func TestContinueWatching_NoUpperBound(t *testing.T) {
	lectures := []catalog.Lecture{{ID: "1"}, {ID: "2"}}
	watched := map[string]float64{"1": 95, "2": 7200}

	row := catalog.ContinueWatching(watched, lectures)
	require.Len(t, row, 2)
	assert.Equal(t, "2", row[0].ID)
	assert.Equal(t, "1", row[1].ID)
}
