// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/pdiddy/ifc-pages/internal/slug"
)

// Input is one .ifc file selected for the build.
type Input struct {
	// Path is the file path.
	Path string
	// Name is the file stem, shown in the listing.
	Name string
	// Slug is the unique directory name under the site root.
	Slug string
}

// Filter selects file names by include and exclude glob patterns.
type Filter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewFilter compiles the patterns. An empty include list accepts every name.
func NewFilter(include, exclude []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range include {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
		f.include = append(f.include, g)
	}
	for _, p := range exclude {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

// Match reports whether name passes the filter.
func (f *Filter) Match(name string) bool {
	for _, g := range f.exclude {
		if g.Match(name) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// IsIFC reports whether name has a .ifc extension in any case.
func IsIFC(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".ifc")
}

// Discover lists the .ifc files directly under dir that pass f, sorted by
// file name, and assigns each a unique slug. A missing dir is reported
// through os.IsNotExist on the returned error.
func Discover(dir string, f *Filter) ([]Input, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var inputs []Input
	for _, e := range entries {
		if e.IsDir() || !IsIFC(e.Name()) {
			continue
		}
		if f != nil && !f.Match(e.Name()) {
			continue
		}
		inputs = append(inputs, Input{
			Path: filepath.Join(dir, e.Name()),
			Name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
		})
	}

	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.Name
	}
	for i, s := range slug.Unique(names) {
		inputs[i].Slug = s
	}
	return inputs, nil
}
