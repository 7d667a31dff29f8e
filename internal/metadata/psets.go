// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"strings"

	"github.com/pdiddy/ifc-pages/internal/ifc"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

// psets collects the property and quantity sets of e. Sets inherited from
// the type object come first; occurrence sets of the same name are merged
// over them, so occurrence values and the occurrence set id win.
func (ix *index) psets(e *ifc.Entity) map[string]types.PropertySet {
	out := make(map[string]types.PropertySet)
	if typ := ix.typeObj[e.ID]; typ != nil {
		// IfcTypeObject.HasPropertySets
		for _, def := range ix.m.ResolveAll(typ.Arg(5)) {
			ix.mergeDefinition(out, def)
		}
	}
	for _, def := range ix.defs[e.ID] {
		ix.mergeDefinition(out, def)
	}
	return out
}

func (ix *index) mergeDefinition(out map[string]types.PropertySet, def *ifc.Entity) {
	var members []*ifc.Entity
	switch {
	case def.IsA("IfcPropertySet"):
		members = ix.m.ResolveAll(def.Arg(4))
	case def.IsA("IfcElementQuantity"):
		members = ix.m.ResolveAll(def.Arg(5))
	default:
		return
	}
	name, _ := def.StringArg(2)
	set := out[name]
	if set == nil {
		set = make(types.PropertySet)
		out[name] = set
	}
	for _, p := range members {
		if key, val, ok := ix.property(p, 0); ok {
			set[key] = val
		}
	}
	set["id"] = def.ID
}

// property converts one IfcProperty or IfcPhysicalQuantity to a name and
// a JSON-ready value.
func (ix *index) property(p *ifc.Entity, depth int) (string, any, bool) {
	name, ok := p.StringArg(0)
	if !ok || depth > maxNesting {
		return "", nil, false
	}

	switch t := strings.ToUpper(p.Type); {
	case t == "IFCPROPERTYSINGLEVALUE":
		return name, p.Arg(2).Primitive(), true

	case t == "IFCPROPERTYENUMERATEDVALUE", t == "IFCPROPERTYLISTVALUE":
		return name, listOf(p.Arg(2)), true

	case t == "IFCPROPERTYBOUNDEDVALUE":
		bounds := map[string]any{
			"UpperBoundValue": p.Arg(2).Primitive(),
			"LowerBoundValue": p.Arg(3).Primitive(),
		}
		if len(p.Args) > 5 {
			bounds["SetPointValue"] = p.Arg(5).Primitive()
		}
		return name, bounds, true

	case t == "IFCPROPERTYTABLEVALUE":
		return name, map[string]any{
			"DefiningValues": listOf(p.Arg(2)),
			"DefinedValues":  listOf(p.Arg(3)),
		}, true

	case t == "IFCCOMPLEXPROPERTY":
		// IfcComplexProperty(Name, Description, UsageName, HasProperties)
		return name, ix.nested(p, p.Arg(3), depth), true

	case t == "IFCPHYSICALCOMPLEXQUANTITY":
		// IfcPhysicalComplexQuantity(Name, Description, HasQuantities, ...)
		return name, ix.nested(p, p.Arg(2), depth), true

	case strings.HasPrefix(t, "IFCQUANTITY"):
		// IfcQuantityLength/Area/Volume/Count/Weight/Time/Number(Name, Description, Unit, Value, ...)
		return name, p.Arg(3).Primitive(), true
	}
	return "", nil, false
}

func (ix *index) nested(owner *ifc.Entity, members ifc.Value, depth int) map[string]any {
	out := map[string]any{"id": owner.ID}
	for _, child := range ix.m.ResolveAll(members) {
		if key, val, ok := ix.property(child, depth+1); ok {
			out[key] = val
		}
	}
	return out
}

func listOf(v ifc.Value) []any {
	items := v.AsList()
	if items == nil {
		return nil
	}
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item.Primitive()
	}
	return out
}
