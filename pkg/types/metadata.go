// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PropertySet maps property names to values. Values are strings, numbers,
// booleans, nil, or slices of those. Each set also carries an "id" entry
// holding the STEP instance id of the set.
type PropertySet map[string]any

// Element is the metadata.json record for one IFC product.
// Nil pointers encode as JSON null so that every key is always present.
type Element struct {
	// Type is the IFC entity name, e.g. "IfcWallStandardCase".
	Type string `json:"type" yaml:"type"`

	// Name is the element Name attribute.
	Name *string `json:"name" yaml:"name"`

	// Tag is the element Tag attribute (IfcElement subtypes only).
	Tag *string `json:"tag" yaml:"tag"`

	// Storey is the name of the containing IfcBuildingStorey.
	Storey *string `json:"storey" yaml:"storey"`

	// Psets maps property and quantity set names to their contents.
	Psets map[string]PropertySet `json:"psets" yaml:"psets"`
}

// Metadata is the full metadata.json document keyed by GlobalId.
type Metadata map[string]Element
