// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ifc

import (
	"strconv"
	"strings"
)

// Kind identifies the syntactic kind of a parameter value.
type Kind int

const (
	KindUnset   Kind = iota // $
	KindDerived             // *
	KindString
	KindInteger
	KindReal
	KindEnum
	KindRef
	KindList
	KindTyped // e.g. IFCLABEL('x'); the wrapped value is List[0]
	KindBinary
)

// Value is one parameter of an entity instance.
type Value struct {
	Kind Kind
	Str  string // string contents, enum name, binary digits, or typed-value type name
	Int  int64
	Real float64
	Ref  int
	List []Value
}

// IsNull reports whether v is unset ($) or derived (*).
func (v Value) IsNull() bool {
	return v.Kind == KindUnset || v.Kind == KindDerived
}

// AsString returns the string contents of v, unwrapping a typed value.
func (v Value) AsString() (string, bool) {
	v = v.Inner()
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// AsRef returns the instance id v refers to.
func (v Value) AsRef() (int, bool) {
	if v.Kind != KindRef {
		return 0, false
	}
	return v.Ref, true
}

// AsList returns the items of a list value, or nil.
func (v Value) AsList() []Value {
	if v.Kind != KindList {
		return nil
	}
	return v.List
}

// Refs returns the instance ids referenced by v. A single reference yields
// one id; a list yields the ids of its reference items.
func (v Value) Refs() []int {
	switch v.Kind {
	case KindRef:
		return []int{v.Ref}
	case KindList:
		ids := make([]int, 0, len(v.List))
		for _, item := range v.List {
			if item.Kind == KindRef {
				ids = append(ids, item.Ref)
			}
		}
		return ids
	}
	return nil
}

// Inner unwraps typed values such as IFCLABEL('x') down to the primitive.
func (v Value) Inner() Value {
	for v.Kind == KindTyped && len(v.List) == 1 {
		v = v.List[0]
	}
	return v
}

// Primitive converts v to a plain Go value suitable for JSON encoding:
// string, int64, float64, bool, nil, or []any. LOGICAL unknown (.U.)
// and unset values become nil. References are rendered as "#id".
func (v Value) Primitive() any {
	v = v.Inner()
	switch v.Kind {
	case KindString, KindBinary:
		return v.Str
	case KindInteger:
		return v.Int
	case KindReal:
		return v.Real
	case KindEnum:
		switch strings.ToUpper(v.Str) {
		case "T", "TRUE":
			return true
		case "F", "FALSE":
			return false
		case "U", "UNKNOWN":
			return nil
		}
		return v.Str
	case KindRef:
		return "#" + strconv.Itoa(v.Ref)
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.Primitive()
		}
		return out
	case KindTyped:
		// Typed value with several parameters; keep the components.
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.Primitive()
		}
		return out
	}
	return nil
}
