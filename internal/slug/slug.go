// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package slug derives URL path segments for models from input file names.
package slug

import (
	"regexp"
	"strconv"
	"strings"

	gslug "github.com/gosimple/slug"
)

// Fallback is used when a name has no usable characters.
const Fallback = "model"

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\-_]+`)
	dashRuns     = regexp.MustCompile(`-+`)
)

// Slugify turns a file stem into a lowercase path segment made of
// [a-z0-9_-]. Accented letters are transliterated ("Edifício" becomes
// "edificio"); every other run of characters becomes a single dash.
func Slugify(name string) string {
	s := gslug.Make(strings.TrimSpace(name))
	s = strings.ToLower(s)
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return Fallback
	}
	return s
}

// Unique slugifies names in order and disambiguates collisions by
// appending -2, -3, ... The first occurrence keeps the bare slug.
func Unique(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	for i, n := range names {
		base := Slugify(n)
		s := base
		for k := 2; taken[s]; k++ {
			s = base + "-" + strconv.Itoa(k)
		}
		taken[s] = true
		out[i] = s
	}
	return out
}
