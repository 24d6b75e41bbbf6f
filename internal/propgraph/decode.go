package propgraph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// schemaMarkers are the keys whose presence, together with value or default,
// marks an object as Wrapped.
var schemaMarkers = []string{
	"type", "extends", "visible", "readonly", "isArray",
	"enumList", "bitmaskList", "elementTypeData", "displayName", "tooltip",
}

// IsWrappedShape reports whether an ingested object is a Wrapped dump.
func IsWrappedShape(f *Fields) bool {
	if !f.Has("value") && !f.Has("default") {
		return false
	}
	for _, k := range schemaMarkers {
		if f.Has(k) {
			return true
		}
	}
	return false
}

// Decode parses a JSON dump into a Node, preserving object key order and
// tagging every object Wrapped or Raw.
func Decode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after top-level value", ErrParse)
	}
	return n, nil
}

// DecodeGraph parses a JSON object dump into a Graph.
func DecodeGraph(data []byte) (*Graph, error) {
	n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if n.IsWrapped() {
		// a top-level wrapped dump exposes its value as the graph
		n = n.Content()
	}
	g := GraphOf(n)
	if g == nil {
		return nil, fmt.Errorf("%w: dump is not an object", ErrParse)
	}
	return g, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			f := NewFields()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				f.Set(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return classify(f), nil
		case '[':
			items := []*Node{}
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return ArrayOf(items...), nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return ScalarOf(f), nil
	case string, bool, nil:
		return ScalarOf(t), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// FromValue converts a decoded Go value (maps, slices, scalars, json.RawMessage,
// or an existing *Node) into a tagged Node. Map keys are sorted since Go maps
// carry no order; struct values are marshaled and keep their field order.
func FromValue(v any) (*Node, error) {
	switch t := v.(type) {
	case *Node:
		if t == nil {
			return Null(), nil
		}
		return t, nil
	case nil:
		return Null(), nil
	case json.RawMessage:
		return Decode(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return ScalarOf(f), nil
	case bool, string, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return ScalarOf(t), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		f := NewFields()
		for _, k := range keys {
			child, err := FromValue(t[k])
			if err != nil {
				return nil, err
			}
			f.Set(k, child)
		}
		return classify(f), nil
	case []any:
		items := make([]*Node, 0, len(t))
		for _, e := range t {
			child, err := FromValue(e)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return ArrayOf(items...), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return Decode(data)
}

func classify(f *Fields) *Node {
	if IsWrappedShape(f) {
		return wrapFields(f)
	}
	return ObjectOf(f)
}

// AsWrapped returns n when it is already Wrapped, or reinterprets a raw
// object as a Wrapped dump. Element type data is always treated this way,
// even when it has no value.
func AsWrapped(n *Node) *Node {
	switch {
	case n == nil:
		return nil
	case n.IsWrapped():
		return n
	case n.IsObject():
		return wrapFields(n.Fields)
	}
	return nil
}

func wrapFields(f *Fields) *Node {
	s := &Schema{Extra: NewFields()}
	n := &Node{Kind: Wrapped, Schema: s}

	for _, k := range f.Keys() {
		child, _ := f.Get(k)
		switch k {
		case "value":
			n.Value = child
		case "default":
			n.Default = child
		case "type":
			s.Type = scalarString(child)
		case "extends":
			s.Extends = stringList(child)
		case "isArray":
			s.IsArray = scalarBool(child)
		case "enumList":
			s.EnumList = enumItems(child)
		case "bitmaskList":
			s.BitmaskList = enumItems(child)
		case "elementTypeData":
			s.ElementTypeData = AsWrapped(child)
		case "displayName":
			s.DisplayName = scalarString(child)
		case "tooltip":
			s.Tooltip = scalarString(child)
		case "readonly":
			s.Readonly = scalarBool(child)
		case "visible":
			if b, ok := child.Scalar.(bool); ok && child.IsScalar() {
				s.Visible = &b
			}
		case "min":
			s.Min = scalarFloat(child)
		case "max":
			s.Max = scalarFloat(child)
		case "step":
			s.Step = scalarFloat(child)
		case "precision":
			s.Precision = scalarFloat(child)
		case "unit":
			s.Unit = scalarString(child)
		case "radian":
			s.Radian = scalarBoolPtr(child)
		case "multiline":
			s.Multiline = scalarBoolPtr(child)
		case "userData":
			if m, ok := child.Interface().(map[string]any); ok {
				s.UserData = m
			}
		default:
			s.Extra.Set(k, child)
		}
	}
	return n
}

func scalarString(n *Node) string {
	if n.IsScalar() {
		if s, ok := n.Scalar.(string); ok {
			return s
		}
	}
	return ""
}

func scalarBool(n *Node) bool {
	if n.IsScalar() {
		b, _ := n.Scalar.(bool)
		return b
	}
	return false
}

func scalarBoolPtr(n *Node) *bool {
	if n.IsScalar() {
		if b, ok := n.Scalar.(bool); ok {
			return &b
		}
	}
	return nil
}

func scalarFloat(n *Node) *float64 {
	if n.IsScalar() {
		if f, ok := n.Scalar.(float64); ok {
			return &f
		}
	}
	return nil
}

func stringList(n *Node) []string {
	if !n.IsArray() {
		return nil
	}
	out := make([]string, 0, len(n.Items))
	for _, item := range n.Items {
		if s := scalarString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func enumItems(n *Node) []EnumItem {
	if !n.IsArray() {
		return nil
	}
	out := make([]EnumItem, 0, len(n.Items))
	for _, item := range n.Items {
		name, _ := item.Field("name")
		value, _ := item.Field("value")
		out = append(out, EnumItem{Name: scalarString(name), Value: value.Interface()})
	}
	return out
}
