package propgraph

// Unwrap projects n to plain data. Wrapped nodes are replaced by their value
// (or default, or null), invisible Wrapped fields are dropped from their
// parent object, and the walk recurses through objects and arrays. Array
// elements are never dropped. The input is not modified.
func Unwrap(n *Node) *Node {
	if n == nil {
		return Null()
	}
	if n.Kind == Wrapped {
		c := n.Content()
		if c == nil {
			return Null()
		}
		return Unwrap(c)
	}

	switch n.Shape {
	case Object:
		out := NewFields()
		for _, k := range n.Fields.Keys() {
			child, _ := n.Fields.Get(k)
			if !child.Visible() {
				continue
			}
			out.Set(k, Unwrap(child))
		}
		return ObjectOf(out)
	case Array:
		items := make([]*Node, 0, len(n.Items))
		for _, item := range n.Items {
			items = append(items, Unwrap(item))
		}
		return ArrayOf(items...)
	}
	return n
}

// UnwrapGraph projects every visible field of g.
func UnwrapGraph(g *Graph) *Node {
	return Unwrap(g.Root())
}
