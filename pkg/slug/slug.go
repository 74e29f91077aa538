// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug turns arbitrary Unicode strings into safe ASCII identifiers.
//
// # Usage
//
// Uploaded lecture media is stored under object paths built from the media
// kind and the original file name. Both go through this package so the
// public download URL never needs escaping.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen     = regexp.MustCompile(`-{2,}`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._\-]+`)
)

// From converts an arbitrary Unicode string into a lowercase, hyphenated slug.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD and removes combining marks (é → e).
// 2. Converts to lowercase.
// 3. Replaces non-alphanumeric characters with hyphens.
// 4. Collapses multiple hyphens and trims leading/trailing hyphens.
func From(s string) string {
	result := stripMarks(s)
	result = strings.ToLower(result)

	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// FileName keeps a file name readable while making it path-safe: accents are
// removed, whitespace runs become a single underscore, and any other
// character outside [A-Za-z0-9._-] is dropped. Case and extension are kept.
func FileName(name string) string {
	result := stripMarks(strings.TrimSpace(name))
	result = whitespaceRun.ReplaceAllString(result, "_")
	result = unsafeFileChars.ReplaceAllString(result, "")
	if strings.Trim(result, "._") == "" {
		return "file"
	}
	return result
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)
	return result
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
