package sim

import (
	"fmt"
	"strconv"

	"github.com/creatorbridge/creatorbridge/internal/dumppath"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// assign writes v at path inside a dump, descending through wrappers and
// keeping key order. Wrapped targets get their value replaced. An array may
// grow by one element; the new element takes the array's element type data
// when there is one. With create, missing object keys are added.
func assign(root *propgraph.Node, path string, v *propgraph.Node, create bool) error {
	segs := dumppath.Split(path)
	if len(segs) == 0 {
		return fmt.Errorf("%w: empty path", propgraph.ErrInvalidSegment)
	}

	cur := root
	for i, seg := range segs {
		last := i == len(segs)-1
		c := cur.Content()

		var child *propgraph.Node
		switch {
		case c.IsObject():
			var ok bool
			child, ok = c.Fields.Get(seg)
			if !ok {
				if !create {
					return fmt.Errorf("%w: %s", propgraph.ErrNotFound, path)
				}
				if last {
					c.Fields.Set(seg, v)
					return nil
				}
				child = propgraph.NewObject()
				c.Fields.Set(seg, child)
			} else if last {
				if child.IsWrapped() {
					child.Value = v
				} else {
					c.Fields.Set(seg, v)
				}
				return nil
			}

		case c.IsArray():
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx > len(c.Items) || (idx == len(c.Items) && !last) {
				return fmt.Errorf("%w: %s", propgraph.ErrIndexOutOfBounds, path)
			}
			if idx == len(c.Items) {
				c.Items = append(c.Items, element(cur, v))
				return nil
			}
			child = c.Items[idx]
			if last {
				if child.IsWrapped() {
					child.Value = v
				} else {
					c.Items[idx] = v
				}
				return nil
			}

		default:
			return fmt.Errorf("%w: %q in %s", propgraph.ErrInvalidSegment, seg, path)
		}
		cur = child
	}
	return nil
}

func element(holder, v *propgraph.Node) *propgraph.Node {
	if !holder.IsWrapped() || holder.Schema.ElementTypeData == nil {
		return v
	}
	etd := holder.Schema.ElementTypeData
	return &propgraph.Node{Kind: propgraph.Wrapped, Schema: etd.Schema.Clone(), Value: v}
}
