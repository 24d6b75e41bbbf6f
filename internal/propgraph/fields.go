package propgraph

// Fields is an insertion-ordered mapping from key to Node.
type Fields struct {
	keys []string
	m    map[string]*Node
}

// NewFields creates an empty ordered mapping
func NewFields() *Fields {
	return &Fields{m: make(map[string]*Node)}
}

// Set stores n under key. New keys are appended; existing keys keep their position.
func (f *Fields) Set(key string, n *Node) {
	if _, ok := f.m[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.m[key] = n
}

// Get returns the node stored under key
func (f *Fields) Get(key string) (*Node, bool) {
	if f == nil {
		return nil, false
	}
	n, ok := f.m[key]
	return n, ok
}

// Has reports whether key is present
func (f *Fields) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Delete removes key, preserving the order of the remaining keys
func (f *Fields) Delete(key string) {
	if _, ok := f.m[key]; !ok {
		return
	}
	delete(f.m, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The slice is a copy.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Clone returns a shallow copy: the mapping is new, the nodes are shared.
func (f *Fields) Clone() *Fields {
	c := NewFields()
	if f == nil {
		return c
	}
	for _, k := range f.keys {
		c.Set(k, f.m[k])
	}
	return c
}

// Graph is the root of one instance's inspectable state: an ordered mapping
// from field name to Node.
type Graph struct {
	*Fields
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{Fields: NewFields()}
}

// GraphOf turns a raw object node into a graph. Any other node yields nil.
func GraphOf(n *Node) *Graph {
	if !n.IsObject() {
		return nil
	}
	return &Graph{Fields: n.Fields}
}

// Root returns the graph viewed as a raw object node.
func (g *Graph) Root() *Node {
	if g == nil {
		return NewObject()
	}
	return ObjectOf(g.Fields)
}
