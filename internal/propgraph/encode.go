package propgraph

import (
	"bytes"
	"encoding/json"
)

// Dump returns the dump form of n as a raw object: schema keys, then value
// and default. Raw nodes are returned as-is.
func (n *Node) Dump() *Node {
	if n == nil {
		return Null()
	}
	if n.Kind == Raw {
		return n
	}

	s := n.Schema
	if s == nil {
		s = &Schema{}
	}
	f := NewFields()
	if s.Type != "" {
		f.Set("type", ScalarOf(s.Type))
	}
	if len(s.Extends) > 0 {
		items := make([]*Node, 0, len(s.Extends))
		for _, e := range s.Extends {
			items = append(items, ScalarOf(e))
		}
		f.Set("extends", ArrayOf(items...))
	}
	if s.IsArray {
		f.Set("isArray", ScalarOf(true))
	}
	if s.Readonly {
		f.Set("readonly", ScalarOf(true))
	}
	if s.Visible != nil {
		f.Set("visible", ScalarOf(*s.Visible))
	}
	if s.DisplayName != "" {
		f.Set("displayName", ScalarOf(s.DisplayName))
	}
	if s.Tooltip != "" {
		f.Set("tooltip", ScalarOf(s.Tooltip))
	}
	if len(s.EnumList) > 0 {
		f.Set("enumList", enumNode(s.EnumList))
	}
	if len(s.BitmaskList) > 0 {
		f.Set("bitmaskList", enumNode(s.BitmaskList))
	}
	setFloat(f, "min", s.Min)
	setFloat(f, "max", s.Max)
	setFloat(f, "step", s.Step)
	setFloat(f, "precision", s.Precision)
	if s.Unit != "" {
		f.Set("unit", ScalarOf(s.Unit))
	}
	if s.Radian != nil {
		f.Set("radian", ScalarOf(*s.Radian))
	}
	if s.Multiline != nil {
		f.Set("multiline", ScalarOf(*s.Multiline))
	}
	if s.UserData != nil {
		if ud, err := FromValue(s.UserData); err == nil {
			f.Set("userData", ud)
		}
	}
	if s.ElementTypeData != nil {
		f.Set("elementTypeData", s.ElementTypeData)
	}
	for _, k := range s.Extra.Keys() {
		v, _ := s.Extra.Get(k)
		f.Set(k, v)
	}
	if n.Value != nil {
		f.Set("value", n.Value)
	}
	if n.Default != nil {
		f.Set("default", n.Default)
	}
	return ObjectOf(f)
}

func setFloat(f *Fields, key string, v *float64) {
	if v != nil {
		f.Set(key, ScalarOf(*v))
	}
}

func enumNode(items []EnumItem) *Node {
	out := make([]*Node, 0, len(items))
	for _, it := range items {
		v, err := FromValue(it.Value)
		if err != nil {
			v = Null()
		}
		out = append(out, NewObject().Put("name", ScalarOf(it.Name)).Put("value", v))
	}
	return ArrayOf(out...)
}

// Interface converts n to plain Go values: map[string]any, []any, float64,
// string, bool or nil. Wrapped nodes appear in their dump form; call Unwrap
// first for the plain projection.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	if n.Kind == Wrapped {
		return n.Dump().Interface()
	}
	switch n.Shape {
	case Object:
		m := make(map[string]any, n.Fields.Len())
		for _, k := range n.Fields.Keys() {
			child, _ := n.Fields.Get(k)
			m[k] = child.Interface()
		}
		return m
	case Array:
		out := make([]any, 0, len(n.Items))
		for _, item := range n.Items {
			out = append(out, item.Interface())
		}
		return out
	}
	return n.Scalar
}

// MarshalJSON encodes n keeping object key order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a dump into n.
func (n *Node) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

func encodeNode(buf *bytes.Buffer, n *Node) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	if n.Kind == Wrapped {
		return encodeNode(buf, n.Dump())
	}

	switch n.Shape {
	case Object:
		buf.WriteByte('{')
		for i, k := range n.Fields.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			child, _ := n.Fields.Get(k)
			if err := encodeNode(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case Array:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	data, err := json.Marshal(n.Scalar)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// MarshalJSON encodes the graph as an ordered JSON object.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return g.Root().MarshalJSON()
}
