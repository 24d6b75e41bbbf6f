// Package propgraph models the inspectable state of one editor instance.
//
// A Graph is an ordered mapping from field name to Node. Every Node is one of
// two explicit variants:
//
//   - Wrapped: a value accompanied by a Schema (declared type, capabilities,
//     visibility, bounds, element schema for arrays, ...).
//   - Raw: a bare scalar, ordered object or array with no attached schema.
//
// The variant is decided once, when a dump is ingested (see Decode and
// FromValue), and never re-derived afterwards. Graphs are built per request and
// are never mutated by Resolve or Unwrap.
package propgraph

import (
	"slices"
	"strings"
)

// Kind is the variant tag of a Node.
type Kind uint8

const (
	// Raw nodes carry a bare value with no schema.
	Raw Kind = iota
	// Wrapped nodes carry a Schema plus a value and/or default.
	Wrapped
)

// String returns the variant name
func (k Kind) String() string {
	if k == Wrapped {
		return "wrapped"
	}
	return "raw"
}

// Shape describes the content of a Raw node.
type Shape uint8

const (
	// Scalar is null, boolean, number or string.
	Scalar Shape = iota
	// Object is an ordered key/value mapping.
	Object
	// Array is an ordered sequence.
	Array
)

// Well-known capability names found in schema extends lists.
const (
	CapObject    = "cc.Object"
	CapAsset     = "cc.Asset"
	CapValueType = "cc.ValueType"
)

// TypeUnknown is the declared type of ad-hoc leaves that have no schema.
const TypeUnknown = "Unknown"

// EnumItem is one entry of an enum or bitmask list.
type EnumItem struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Schema is the metadata attached to a Wrapped node.
type Schema struct {
	Type            string
	Extends         []string
	IsArray         bool
	EnumList        []EnumItem
	BitmaskList     []EnumItem
	ElementTypeData *Node // Wrapped schema fragment for elements not yet present
	DisplayName     string
	Tooltip         string
	Readonly        bool
	Visible         *bool
	Min             *float64
	Max             *float64
	Step            *float64
	Precision       *float64
	Unit            string
	Radian          *bool
	Multiline       *bool
	UserData        map[string]any
	Extra           *Fields // keys the model does not interpret, kept for round trips
}

// HasCapability reports whether the schema extends the named capability.
func (s *Schema) HasCapability(name string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Extends, name)
}

// IsVisible reports whether the node should appear in read projections.
// An unset visibility counts as visible.
func (s *Schema) IsVisible() bool {
	return s == nil || s.Visible == nil || *s.Visible
}

// IsString reports whether the declared type is the string type.
func (s *Schema) IsString() bool {
	return s != nil && strings.EqualFold(s.Type, "string")
}

// IsReference reports whether the node points at another instance.
func (s *Schema) IsReference() bool {
	return s.HasCapability(CapObject)
}

// Choices returns the enum list, or the bitmask list when no enum list is set.
func (s *Schema) Choices() []EnumItem {
	if s == nil {
		return nil
	}
	if len(s.EnumList) > 0 {
		return s.EnumList
	}
	return s.BitmaskList
}

// Clone returns a copy of the schema that can be modified independently of
// the original. Nested nodes are shared.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return &Schema{}
	}
	c := *s
	c.Extends = slices.Clone(s.Extends)
	c.EnumList = slices.Clone(s.EnumList)
	c.BitmaskList = slices.Clone(s.BitmaskList)
	return &c
}

// Node is a tagged variant: Raw{scalar|object|array} or Wrapped{schema, value, default}.
type Node struct {
	Kind Kind

	// Raw content
	Shape  Shape
	Scalar any // nil, bool, float64 or string
	Fields *Fields
	Items  []*Node

	// Wrapped content
	Schema  *Schema
	Value   *Node // nil when the dump had no value
	Default *Node // nil when the dump had no default
}

// Null returns a raw null node.
func Null() *Node {
	return &Node{Kind: Raw, Shape: Scalar}
}

// ScalarOf returns a raw scalar node. Integer kinds are widened to float64 so
// that values built in Go compare equal to values decoded from JSON.
func ScalarOf(v any) *Node {
	return &Node{Kind: Raw, Shape: Scalar, Scalar: normalizeScalar(v)}
}

// ObjectOf returns a raw object node over f.
func ObjectOf(f *Fields) *Node {
	if f == nil {
		f = NewFields()
	}
	return &Node{Kind: Raw, Shape: Object, Fields: f}
}

// NewObject returns an empty raw object node.
func NewObject() *Node {
	return ObjectOf(NewFields())
}

// ArrayOf returns a raw array node.
func ArrayOf(items ...*Node) *Node {
	if items == nil {
		items = []*Node{}
	}
	return &Node{Kind: Raw, Shape: Array, Items: items}
}

// Wrap returns a Wrapped node. A nil value means "no value"; use Null() for
// an explicit null.
func Wrap(schema *Schema, value *Node) *Node {
	if schema == nil {
		schema = &Schema{}
	}
	return &Node{Kind: Wrapped, Schema: schema, Value: value}
}

// Put sets key on a raw object node and returns the node for chaining.
// It is a no-op on any other node.
func (n *Node) Put(key string, child *Node) *Node {
	if n != nil && n.Kind == Raw && n.Shape == Object {
		n.Fields.Set(key, child)
	}
	return n
}

// WithDefault sets the default of a Wrapped node and returns it.
func (n *Node) WithDefault(def *Node) *Node {
	if n != nil && n.Kind == Wrapped {
		n.Default = def
	}
	return n
}

// IsWrapped reports whether n carries a schema.
func (n *Node) IsWrapped() bool { return n != nil && n.Kind == Wrapped }

// IsNull reports whether n is a raw null.
func (n *Node) IsNull() bool {
	return n == nil || (n.Kind == Raw && n.Shape == Scalar && n.Scalar == nil)
}

// IsObject reports whether n is a raw object.
func (n *Node) IsObject() bool { return n != nil && n.Kind == Raw && n.Shape == Object }

// IsArray reports whether n is a raw array.
func (n *Node) IsArray() bool { return n != nil && n.Kind == Raw && n.Shape == Array }

// IsScalar reports whether n is a raw scalar (including null).
func (n *Node) IsScalar() bool { return n != nil && n.Kind == Raw && n.Shape == Scalar }

// Content returns what a path segment descends into: the bound value of a
// Wrapped node (falling back to its default), or the node itself when Raw.
// It returns nil for a Wrapped node that has neither.
func (n *Node) Content() *Node {
	if n == nil {
		return nil
	}
	if n.Kind == Raw {
		return n
	}
	if n.Value != nil {
		return n.Value
	}
	return n.Default
}

// Visible reports whether n appears in read projections.
func (n *Node) Visible() bool {
	return n == nil || n.Kind == Raw || n.Schema.IsVisible()
}

// Field returns the named child of a raw object, or of the content of a
// Wrapped node.
func (n *Node) Field(key string) (*Node, bool) {
	c := n.Content()
	if !c.IsObject() {
		return nil, false
	}
	return c.Fields.Get(key)
}

// Text returns the scalar string of a raw node, or of a Wrapped node's content.
func (n *Node) Text() string {
	c := n.Content()
	if c.IsScalar() {
		if s, ok := c.Scalar.(string); ok {
			return s
		}
	}
	return ""
}

func normalizeScalar(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
