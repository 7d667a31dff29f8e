// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata builds the metadata.json sidecar published next to each
// model.glb. For every IfcProduct except openings it records the entity
// type, Name, Tag, containing storey, and property and quantity sets
// (including those inherited from the element's type object), keyed by
// GlobalId so the viewer can look elements up by the node names IfcConvert
// writes with --use-element-guids.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pdiddy/ifc-pages/internal/ifc"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

// maxNesting bounds recursion through complex properties.
const maxNesting = 8

// index holds the inverse relationships the extractor needs.
type index struct {
	m       *ifc.Model
	storey  map[int]*ifc.Entity
	defs    map[int][]*ifc.Entity
	typeObj map[int]*ifc.Entity
}

func buildIndex(m *ifc.Model) *index {
	ix := &index{
		m:       m,
		storey:  make(map[int]*ifc.Entity),
		defs:    make(map[int][]*ifc.Entity),
		typeObj: make(map[int]*ifc.Entity),
	}

	// IfcRelContainedInSpatialStructure(.., RelatedElements, RelatingStructure)
	for _, rel := range m.ByType("IfcRelContainedInSpatialStructure") {
		structure := m.Resolve(rel.Arg(5))
		if structure == nil || !structure.IsA("IfcBuildingStorey") {
			continue
		}
		for _, el := range m.ResolveAll(rel.Arg(4)) {
			if _, seen := ix.storey[el.ID]; !seen {
				ix.storey[el.ID] = structure
			}
		}
	}

	// IfcRelDefinesByProperties(.., RelatedObjects, RelatingPropertyDefinition)
	// In IFC4 the relating side may be a set of definitions.
	for _, rel := range m.ByType("IfcRelDefinesByProperties") {
		defs := m.ResolveAll(rel.Arg(5))
		for _, obj := range m.ResolveAll(rel.Arg(4)) {
			ix.defs[obj.ID] = append(ix.defs[obj.ID], defs...)
		}
	}

	// IfcRelDefinesByType(.., RelatedObjects, RelatingType)
	for _, rel := range m.ByType("IfcRelDefinesByType") {
		typ := m.Resolve(rel.Arg(5))
		if typ == nil {
			continue
		}
		for _, obj := range m.ResolveAll(rel.Arg(4)) {
			ix.typeObj[obj.ID] = typ
		}
	}
	return ix
}

// Extract returns the metadata document for m.
func Extract(m *ifc.Model) types.Metadata {
	ix := buildIndex(m)
	out := make(types.Metadata)
	for _, e := range m.ByType("IfcProduct") {
		if e.IsA("IfcOpeningElement") {
			continue
		}
		guid, _ := e.StringArg(0)
		if guid == "" {
			continue
		}
		out[guid] = types.Element{
			Type:   e.TypeName(),
			Name:   optString(e.Arg(2)),
			Tag:    tagOf(e),
			Storey: ix.storeyName(e),
			Psets:  ix.psets(e),
		}
	}
	return out
}

// ExtractFile parses the IFC file at path and extracts its metadata.
// The parsed model is returned so callers can read header fields.
func ExtractFile(path string) (types.Metadata, *ifc.Model, error) {
	m, err := ifc.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return Extract(m), m, nil
}

// Encode writes md to w as UTF-8 JSON. Non-ASCII text is written as-is.
func Encode(w io.Writer, md types.Metadata) error {
	if md == nil {
		md = types.Metadata{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(md); err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	return nil
}

// Write encodes md at path.
func Write(path string, md types.Metadata) error {
	var buf bytes.Buffer
	if err := Encode(&buf, md); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// CountByType returns how many elements of each IFC type md contains,
// as (type, count) pairs sorted by descending count then name.
func CountByType(md types.Metadata) []TypeCount {
	counts := make(map[string]int)
	for _, el := range md {
		counts[el.Type]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// TypeCount pairs an IFC type with its element count.
type TypeCount struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

func optString(v ifc.Value) *string {
	s, ok := v.AsString()
	if !ok {
		return nil
	}
	return &s
}

// tagOf reads the Tag attribute, which only IfcElement (position 7) and
// IfcProxy (position 8) define.
func tagOf(e *ifc.Entity) *string {
	switch {
	case e.IsA("IfcElement"):
		return optString(e.Arg(7))
	case e.IsA("IfcProxy"):
		return optString(e.Arg(8))
	}
	return nil
}

// storeyName returns the Name of the containing storey, falling back to
// its LongName.
func (ix *index) storeyName(e *ifc.Entity) *string {
	st := ix.storey[e.ID]
	if st == nil {
		return nil
	}
	if s := optString(st.Arg(2)); s != nil && *s != "" {
		return s
	}
	return optString(st.Arg(7))
}
