package inspector

import (
	"fmt"

	"github.com/creatorbridge/creatorbridge/internal/instance"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

const componentsTooltip = "cc.Component is a basic type for component. Inspect specific component instance for it's definition. " +
	"You can change actual instances properties via __comps__.i prefix of node"

// dumpFields copies the non-null top-level fields of a dump.
func dumpFields(dump *propgraph.Node) *propgraph.Graph {
	g := propgraph.NewGraph()
	content := dump.Content()
	if !content.IsObject() {
		return g
	}
	for _, k := range content.Fields.Keys() {
		child, _ := content.Fields.Get(k)
		if child == nil || child.IsNull() {
			continue
		}
		g.Set(k, child)
	}
	return g
}

// adaptNode rewrites a node dump for reading: components become references
// to be inspected on their own, children are hidden behind an empty
// read-only list and the serialization type is hidden.
func adaptNode(g *propgraph.Graph) error {
	comps, ok := g.Get("__comps__")
	if !ok {
		return fmt.Errorf("node dump has no __comps__: %w", propgraph.ErrParse)
	}
	var refs []*propgraph.Node
	if list := comps.Content(); list != nil {
		for _, c := range list.Items {
			id, _ := c.Field("uuid")
			refs = append(refs, propgraph.NewObject().Put("id", propgraph.ScalarOf(id.Text())))
		}
	}
	g.Set("__comps__", propgraph.Wrap(&propgraph.Schema{
		Type:    instance.TypeComponent,
		Extends: []string{propgraph.CapObject},
		IsArray: true,
		Tooltip: componentsTooltip,
	}, propgraph.ArrayOf(refs...)))

	if !g.Has("children") {
		return fmt.Errorf("node dump has no children: %w", propgraph.ErrParse)
	}
	g.Set("children", propgraph.Wrap(&propgraph.Schema{
		Type:     instance.TypeNode,
		IsArray:  true,
		Readonly: true,
	}, propgraph.ArrayOf()))

	if !g.Has("__type__") {
		return fmt.Errorf("node dump has no __type__: %w", propgraph.ErrParse)
	}
	hidden := false
	g.Set("__type__", propgraph.Wrap(&propgraph.Schema{Visible: &hidden}, propgraph.ScalarOf(instance.TypeNode)))
	return nil
}

// adaptComponent makes the enabled flag visible; the editor's inspector hides
// it but it is a regular property.
func adaptComponent(g *propgraph.Graph) {
	enabled, ok := g.Get("enabled")
	if !ok || !enabled.IsWrapped() || enabled.Schema.Visible == nil {
		return
	}
	schema := enabled.Schema.Clone()
	visible := true
	schema.Visible = &visible
	g.Set("enabled", &propgraph.Node{
		Kind:    propgraph.Wrapped,
		Schema:  schema,
		Value:   enabled.Value,
		Default: enabled.Default,
	})
}
