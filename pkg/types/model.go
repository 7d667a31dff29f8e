// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the ifc-pages build:
// configuration, model records, and the metadata sidecar layout.
package types

import "time"

// UpdatedLayout is the timestamp format used in models.json.
const UpdatedLayout = "2006-01-02 15:04 UTC"

// BuildStatus indicates the outcome of building one model.
type BuildStatus string

const (
	StatusBuilt   BuildStatus = "built"
	StatusSkipped BuildStatus = "skipped"
	StatusFailed  BuildStatus = "failed"
)

// ModelEntry is one row of models.json, the listing consumed by the
// root index page.
type ModelEntry struct {
	// Name is the input file stem as uploaded (e.g. "Casa Modelo").
	Name string `json:"name" yaml:"name"`

	// Path is the slug, i.e. the directory under the site root.
	Path string `json:"path" yaml:"path"`

	// Updated is the build time in UpdatedLayout.
	Updated string `json:"updated" yaml:"updated"`
}

// Model holds the catalog record for a built model.
type Model struct {
	// Slug is the URL path segment derived from Name.
	Slug string `json:"slug" yaml:"slug"`

	// Name is the input file stem.
	Name string `json:"name" yaml:"name"`

	// SourcePath is the path of the .ifc input.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// SHA256 is the hex digest of the input at build time.
	SHA256 string `json:"sha256" yaml:"sha256"`

	// Schema is the IFC schema identifier from the file header (e.g. "IFC4").
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`

	// Updated is when the model was last built.
	Updated time.Time `json:"updated" yaml:"updated"`

	// Status is the outcome of the last build.
	Status BuildStatus `json:"status" yaml:"status"`

	// ElementCount is the number of entries in metadata.json.
	ElementCount int `json:"element_count" yaml:"element_count"`
}

// Entry returns the models.json row for m.
func (m Model) Entry() ModelEntry {
	return ModelEntry{
		Name:    m.Name,
		Path:    m.Slug,
		Updated: m.Updated.UTC().Format(UpdatedLayout),
	}
}
