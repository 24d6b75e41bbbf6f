package propgraph

import (
	"errors"
	"strconv"
	"strings"
)

// Resolve walks a dot-separated path from the root of g and returns the
// addressed node, always as a Wrapped node so callers can read its schema.
//
// Raw nodes found along the way are hydrated from the schema their parent
// provides (elementTypeData for arrays, the default bag for objects) or, when
// no schema is available, returned as Unknown leaves. Addressing index
// len(array) on an array with elementTypeData yields an extension node with
// no bound value. g is never mutated.
func Resolve(g *Graph, path string) (*Node, error) {
	segs := strings.Split(path, ".")
	if path == "" {
		return nil, pathError(path, segs, 0, ErrNotFound, "empty path")
	}

	current := g.Root()
	for i := range segs {
		container := current.Content()

		var (
			next *Node
			err  error
		)
		switch {
		case container.IsArray():
			next, err = resolveIndex(current, container, path, segs, i)
		case container.IsObject():
			next, err = resolveKey(current, container, path, segs, i)
		case container.IsNull():
			return nil, pathError(path, segs, i, ErrNotFound, "parent value is null")
		default:
			return nil, pathError(path, segs, i, ErrInvalidSegment, "parent is a scalar")
		}
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func resolveIndex(parent, container *Node, path string, segs []string, i int) (*Node, error) {
	seg := segs[i]
	if !isIndex(seg) {
		return nil, pathError(path, segs, i, ErrInvalidSegment, "parent is an array")
	}
	idx, err := strconv.Atoi(seg)
	if errors.Is(err, strconv.ErrRange) {
		return nil, pathError(path, segs, i, ErrIndexOutOfBounds, "length "+strconv.Itoa(len(container.Items)))
	}
	if err != nil {
		return nil, pathError(path, segs, i, ErrInvalidSegment, err.Error())
	}

	var etd *Node
	if parent.IsWrapped() {
		etd = parent.Schema.ElementTypeData
	}

	switch n := len(container.Items); {
	case idx < n:
		elem := container.Items[idx]
		if elem.IsWrapped() {
			return elem, nil
		}
		if etd != nil {
			return hydrate(etd, elem), nil
		}
		return unknownLeaf(elem), nil
	case idx == n:
		if etd == nil {
			return nil, pathError(path, segs, i, ErrSchemaMissing, "array has no element type data")
		}
		return extension(etd), nil
	default:
		return nil, pathError(path, segs, i, ErrIndexOutOfBounds, "length "+strconv.Itoa(n))
	}
}

func resolveKey(parent, container *Node, path string, segs []string, i int) (*Node, error) {
	seg := segs[i]
	child, ok := container.Fields.Get(seg)
	if !ok {
		if isIndex(seg) {
			return nil, pathError(path, segs, i, ErrInvalidSegment, "parent is not an array")
		}
		return nil, pathError(path, segs, i, ErrNotFound, "")
	}
	if child.IsWrapped() {
		return child, nil
	}
	if frag := defaultFragment(parent, seg); frag != nil {
		return hydrate(frag, child), nil
	}
	return unknownLeaf(child), nil
}

// defaultFragment returns the Wrapped child named key inside the parent's
// default bag, if any.
func defaultFragment(parent *Node, key string) *Node {
	if !parent.IsWrapped() || parent.Default == nil {
		return nil
	}
	frag, ok := parent.Default.Field(key)
	if !ok || !frag.IsWrapped() {
		return nil
	}
	return frag
}

// hydrate binds a raw value to a copy of a schema fragment.
func hydrate(frag, value *Node) *Node {
	return &Node{
		Kind:    Wrapped,
		Schema:  frag.Schema,
		Value:   value,
		Default: frag.Default,
	}
}

// extension builds the node addressing one past the end of an array.
func extension(etd *Node) *Node {
	return &Node{
		Kind:    Wrapped,
		Schema:  etd.Schema,
		Default: etd.Content(),
	}
}

func unknownLeaf(value *Node) *Node {
	return Wrap(&Schema{Type: TypeUnknown}, value)
}

func isIndex(seg string) bool {
	if seg == "" {
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
