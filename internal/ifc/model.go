// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ifc reads IFC models stored as ISO 10303-21 (STEP) physical files.
// It exposes entity instances with their raw parameters plus just enough of
// the IFC type hierarchy to select products by supertype. Geometry is not
// interpreted; tessellation is IfcConvert's job.
package ifc

import (
	"fmt"
	"sort"
	"strings"
)

// Entity is one instance from the DATA section.
type Entity struct {
	// ID is the instance name without the leading '#'.
	ID int
	// Type is the upper-case entity name as written in the file.
	Type string
	// Args holds the positional attribute values.
	Args []Value
	// Complex lists the partial types of a complex instance, in file order.
	Complex []string
}

// Arg returns the i-th attribute, or an unset value when out of range.
func (e *Entity) Arg(i int) Value {
	if i < 0 || i >= len(e.Args) {
		return Value{Kind: KindUnset}
	}
	return e.Args[i]
}

// StringArg returns the i-th attribute as a string and whether it was set.
func (e *Entity) StringArg(i int) (string, bool) {
	return e.Arg(i).AsString()
}

// IsA reports whether the entity is of type super or one of its subtypes.
func (e *Entity) IsA(super string) bool {
	if IsA(e.Type, super) {
		return true
	}
	for _, part := range e.Complex {
		if IsA(part, super) {
			return true
		}
	}
	return false
}

// TypeName returns the schema spelling of the entity type.
func (e *Entity) TypeName() string {
	return CanonicalName(e.Type)
}

// Header holds the HEADER section fields.
type Header struct {
	Description         []string
	ImplementationLevel string
	Name                string
	TimeStamp           string
	Author              []string
	Organization        []string
	PreprocessorVersion string
	OriginatingSystem   string
	Authorization       string
	Schemas             []string
}

func (h *Header) set(entity string, args []Value) {
	arg := func(i int) Value {
		if i < len(args) {
			return args[i]
		}
		return Value{Kind: KindUnset}
	}
	str := func(i int) string {
		s, _ := arg(i).AsString()
		return s
	}
	strs := func(i int) []string {
		var out []string
		for _, v := range arg(i).AsList() {
			if s, ok := v.AsString(); ok {
				out = append(out, s)
			}
		}
		return out
	}

	switch entity {
	case "FILE_DESCRIPTION":
		h.Description = strs(0)
		h.ImplementationLevel = str(1)
	case "FILE_NAME":
		h.Name = str(0)
		h.TimeStamp = str(1)
		h.Author = strs(2)
		h.Organization = strs(3)
		h.PreprocessorVersion = str(4)
		h.OriginatingSystem = str(5)
		h.Authorization = str(6)
	case "FILE_SCHEMA":
		h.Schemas = strs(0)
	}
}

// Model is a parsed IFC file.
type Model struct {
	header   Header
	entities map[int]*Entity
	ordered  []*Entity
	byType   map[string][]*Entity

	truncated bool
}

func newModel() *Model {
	return &Model{
		entities: make(map[int]*Entity),
		byType:   make(map[string][]*Entity),
	}
}

func (m *Model) add(e *Entity) error {
	if _, dup := m.entities[e.ID]; dup {
		return fmt.Errorf("duplicate instance #%d", e.ID)
	}
	m.entities[e.ID] = e
	m.ordered = append(m.ordered, e)
	return nil
}

// finish sorts instances by id and builds the exact-type index.
func (m *Model) finish() {
	sort.Slice(m.ordered, func(i, j int) bool { return m.ordered[i].ID < m.ordered[j].ID })
	for _, e := range m.ordered {
		m.byType[e.Type] = append(m.byType[e.Type], e)
	}
}

// Header returns the parsed HEADER section.
func (m *Model) Header() Header { return m.header }

// Schema returns the first FILE_SCHEMA identifier in upper case, e.g. "IFC4".
func (m *Model) Schema() string {
	if len(m.header.Schemas) == 0 {
		return ""
	}
	return strings.ToUpper(m.header.Schemas[0])
}

// Truncated reports whether the input ended inside the DATA section.
func (m *Model) Truncated() bool { return m.truncated }

// Len returns the number of instances.
func (m *Model) Len() int { return len(m.ordered) }

// Entity returns the instance with the given id, or nil.
func (m *Model) Entity(id int) *Entity { return m.entities[id] }

// Resolve returns the instance referenced by v, or nil when v is not a
// reference or points at a missing instance.
func (m *Model) Resolve(v Value) *Entity {
	id, ok := v.AsRef()
	if !ok {
		return nil
	}
	return m.entities[id]
}

// ResolveAll returns the instances referenced by a reference or a list of
// references, skipping dangling ids.
func (m *Model) ResolveAll(v Value) []*Entity {
	var out []*Entity
	for _, id := range v.Refs() {
		if e := m.entities[id]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Entities returns every instance ordered by id.
func (m *Model) Entities() []*Entity { return m.ordered }

// ByType returns the instances of type name and all its known subtypes,
// ordered by id. The name is case-insensitive.
func (m *Model) ByType(name string) []*Entity {
	var out []*Entity
	for typ, list := range m.byType {
		if IsA(typ, name) {
			out = append(out, list...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Counts returns the number of instances per canonical type name.
func (m *Model) Counts() map[string]int {
	out := make(map[string]int, len(m.byType))
	for typ, list := range m.byType {
		out[CanonicalName(typ)] += len(list)
	}
	return out
}
