package importers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/creatorbridge/creatorbridge/internal/dumppath"
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

const (
	defaultEffect      = "builtin-standard"
	effectEnumName     = "MaterialEffectAssetName"
	materialPassType   = "cc.MaterialPass"
	materialPassesType = "cc.MaterialPasses"
)

// material property types that map onto engine value types
var materialValueTypes = []string{"Vec2", "Vec3", "Vec4", "Color", "Rect", "Size", "Quat", "Mat3", "Mat4"}

// MaterialImporter exposes a material's effect, technique and pass
// parameters. Reads and writes go through the scene's material dump.
type MaterialImporter struct {
	host host.MaterialHost
}

// NewMaterialImporter creates the material capability
func NewMaterialImporter(h host.MaterialHost) *MaterialImporter {
	return &MaterialImporter{host: h}
}

func (m *MaterialImporter) Name() string      { return "material" }
func (m *MaterialImporter) ClassName() string { return defaultClassName(m.Name()) }

// GetProperties builds the material graph from the current technique.
func (m *MaterialImporter) GetProperties(ctx context.Context, asset *host.AssetInfo) (*propgraph.Graph, error) {
	dump, err := m.host.QueryMaterial(ctx, asset.UUID)
	if err != nil {
		return nil, fmt.Errorf("material %s: %w", asset.UUID, err)
	}
	effects, err := m.visibleEffects(ctx)
	if err != nil {
		return nil, err
	}

	g := propgraph.NewGraph()

	items := make([]propgraph.EnumItem, 0, len(effects))
	for _, e := range effects {
		items = append(items, propgraph.EnumItem{Name: strings.ReplaceAll(e.Name, "../", ""), Value: e.Name})
	}
	g.Set("effect", wrapped(&propgraph.Schema{
		Type:     "Enum",
		EnumList: items,
		UserData: map[string]any{"enumName": effectEnumName},
		Visible:  boolPtr(true),
	}, firstNonNil(dump["effect"], defaultEffect)))

	techniques, ok := dump["data"].([]any)
	if !ok {
		return g, nil
	}

	techItems := make([]propgraph.EnumItem, 0, len(techniques))
	for i, t := range techniques {
		name, _ := dumppath.Get(t, "name")
		label, _ := name.(string)
		if label == "" {
			label = strconv.Itoa(i)
		}
		techItems = append(techItems, propgraph.EnumItem{Name: label, Value: float64(i)})
	}
	g.Set("technique", wrapped(&propgraph.Schema{
		Type:     "Enum",
		EnumList: techItems,
		Visible:  boolPtr(true),
	}, dump["technique"]))

	technique := currentTechnique(dump)
	passes, ok := technique["passes"].([]any)
	if !ok {
		return g, nil
	}

	passNodes := make([]*propgraph.Node, 0, len(passes))
	for i, p := range passes {
		pass, _ := p.(map[string]any)
		passNodes = append(passNodes, passNode(i, pass))
	}
	g.Set("passes", propgraph.Wrap(&propgraph.Schema{
		Type:    materialPassesType,
		Visible: boolPtr(true),
	}, propgraph.ArrayOf(passNodes...)))
	return g, nil
}

func (m *MaterialImporter) visibleEffects(ctx context.Context) ([]host.Effect, error) {
	all, err := m.host.QueryAllEffects(ctx)
	if err != nil {
		return nil, fmt.Errorf("effects: %w", err)
	}
	out := make([]host.Effect, 0, len(all))
	for _, e := range all {
		if !e.HideInEditor {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b host.Effect) int { return naturalCompare(a.Name, b.Name) })
	return out, nil
}

func currentTechnique(dump map[string]any) map[string]any {
	techniques, _ := dump["data"].([]any)
	idx := 0
	if f, ok := dump["technique"].(float64); ok {
		idx = int(f)
	}
	if idx < 0 || idx >= len(techniques) {
		return nil
	}
	t, _ := techniques[idx].(map[string]any)
	return t
}

// passNode renders one pass: its defines, then its properties, then the
// read-only phase.
func passNode(idx int, pass map[string]any) *propgraph.Node {
	defines, _ := pass["defines"].([]any)
	props, _ := pass["props"].([]any)

	defineValues := make(map[string]any, len(defines))
	for _, d := range defines {
		if def, ok := d.(map[string]any); ok {
			name, _ := def["name"].(string)
			defineValues[name] = def["value"]
		}
	}

	out := propgraph.NewObject()
	for _, d := range defines {
		def, ok := d.(map[string]any)
		if !ok {
			continue
		}
		name, _ := def["name"].(string)
		out.Put(name, defineNode(def, defineValues))
	}
	for _, p := range props {
		prop, ok := p.(map[string]any)
		if !ok {
			continue
		}
		name, _ := prop["name"].(string)
		out.Put(name, propNode(prop, defineValues))
	}
	hasProps := out.Fields.Len() > 0

	out.Put("phase", wrapped(&propgraph.Schema{
		Type:     "String",
		Readonly: true,
		Visible:  boolPtr(true),
	}, firstNonNil(pass["phase"], "")))

	typ := materialPassType
	if hasProps {
		typ += strconv.Itoa(idx)
	}
	return propgraph.Wrap(&propgraph.Schema{Type: typ, Extends: []string{materialPassType}}, out)
}

func defineNode(def map[string]any, defineValues map[string]any) *propgraph.Node {
	typ, _ := def["type"].(string)
	schema := &propgraph.Schema{Visible: boolPtr(definesSatisfied(def["defines"], defineValues))}
	schema.Tooltip, _ = def["tooltip"].(string)

	switch typ {
	case "Number":
		schema.Type = "Enum"
		schema.EnumList = []propgraph.EnumItem{}
		if r, ok := def["range"].([]any); ok && len(r) >= 2 {
			lo, _ := r[0].(float64)
			hi, _ := r[1].(float64)
			for i := int(lo); i <= int(hi); i++ {
				schema.EnumList = append(schema.EnumList, propgraph.EnumItem{Name: "Variant" + strconv.Itoa(i), Value: float64(i)})
			}
		}
	case "String":
		schema.Type = "Enum"
		schema.EnumList = []propgraph.EnumItem{}
		if opts, ok := def["options"].([]any); ok {
			for _, o := range opts {
				if s, ok := o.(string); ok {
					schema.EnumList = append(schema.EnumList, propgraph.EnumItem{Name: s, Value: s})
				}
			}
		}
	case "Enum":
		schema.Type = "Enum"
		schema.EnumList = enumItemsOf(def["enumList"])
	default:
		schema.Type = "Boolean"
	}
	return wrapped(schema, def["value"])
}

// propNode keeps the editor's property descriptor, filling in the display
// name, visibility and value-type capability.
func propNode(prop map[string]any, defineValues map[string]any) *propgraph.Node {
	desc := make(map[string]any, len(prop)+2)
	for k, v := range prop {
		desc[k] = v
	}
	delete(desc, "name")
	delete(desc, "defines")

	if s, _ := desc["displayName"].(string); s == "" {
		desc["displayName"] = prop["name"]
	}
	desc["visible"] = definesSatisfied(prop["defines"], defineValues)

	var ext []any
	if e, ok := prop["extends"].([]any); ok {
		ext = append(ext, e...)
	}
	if typ, _ := prop["type"].(string); slices.Contains(materialValueTypes, typ) && !slices.Contains(ext, any(propgraph.CapValueType)) {
		ext = append(ext, propgraph.CapValueType)
	}
	if ext == nil {
		ext = []any{}
	}
	desc["extends"] = ext
	if _, ok := desc["value"]; !ok {
		desc["value"] = nil
	}

	n, err := propgraph.FromValue(desc)
	if err != nil {
		return propgraph.Null()
	}
	return propgraph.AsWrapped(n)
}

// definesSatisfied reports whether every define condition holds. A "!" prefix
// negates the condition.
func definesSatisfied(conds any, values map[string]any) bool {
	list, _ := conds.([]any)
	for _, c := range list {
		name, _ := c.(string)
		if neg, ok := strings.CutPrefix(name, "!"); ok {
			if truthy(values[neg]) {
				return false
			}
			continue
		}
		if !truthy(values[name]) {
			return false
		}
	}
	return true
}

// SetProperty edits the material dump and applies it. Paths are the effect,
// the technique index, "passes.N.prop[.sub]" or a bare property name searched
// across every pass of the current technique.
func (m *MaterialImporter) SetProperty(ctx context.Context, asset *host.AssetInfo, path string, value any) (bool, error) {
	dump, err := m.host.QueryMaterial(ctx, asset.UUID)
	if errors.Is(err, propgraph.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("material %s: %w", asset.UUID, err)
	}

	var handled bool
	switch path {
	case "effect", "effectAsset":
		name, err := m.lookupEffect(ctx, value)
		if err != nil {
			return false, err
		}
		dump["effect"] = name
		handled = true
	case "technique":
		dump["technique"] = value
		handled = true
	default:
		handled = setPassValue(currentTechnique(dump), path, value)
	}
	if !handled {
		return false, nil
	}

	if err := m.host.ApplyMaterial(ctx, asset.UUID, dump); err != nil {
		return false, fmt.Errorf("apply material %s: %w", asset.UUID, err)
	}
	if err := m.host.Broadcast(ctx, host.MsgMaterialChanged); err != nil {
		return false, fmt.Errorf("broadcast: %w", err)
	}
	return true, nil
}

// lookupEffect accepts an effect name, a uuid or an object carrying either.
func (m *MaterialImporter) lookupEffect(ctx context.Context, value any) (string, error) {
	key := value
	if obj, ok := value.(map[string]any); ok {
		key = firstNonNil(obj["name"], obj["uuid"])
	}
	want, _ := key.(string)

	all, err := m.host.QueryAllEffects(ctx)
	if err != nil {
		return "", fmt.Errorf("effects: %w", err)
	}
	for _, e := range all {
		if e.Name == want || (e.UUID != "" && e.UUID == want) {
			return e.Name, nil
		}
	}
	return "", fmt.Errorf("effect %q: %w", want, propgraph.ErrNotFound)
}

func setPassValue(technique map[string]any, path string, value any) bool {
	passes, _ := technique["passes"].([]any)
	if len(passes) == 0 {
		return false
	}

	parts := dumppath.Split(path)
	targets := make([]int, 0, len(passes))
	if len(parts) >= 2 && parts[0] == "passes" {
		if idx, err := strconv.Atoi(parts[1]); err == nil {
			targets = append(targets, idx)
			parts = parts[2:]
		}
	}
	if len(targets) == 0 {
		for i := range passes {
			targets = append(targets, i)
		}
	}
	if len(parts) == 0 {
		return false
	}
	name, sub := parts[0], strings.Join(parts[1:], ".")

	handled := false
	for _, idx := range targets {
		if idx < 0 || idx >= len(passes) {
			continue
		}
		pass, ok := passes[idx].(map[string]any)
		if !ok {
			continue
		}

		if prop := findNamed(pass["props"], name); prop != nil {
			switch {
			case sub == "":
				prop["value"] = propValue(prop, value)
				handled = true
			case isContainer(prop["value"]):
				if setPath(prop, sub, value, dumppath.WrapperAware()) {
					handled = true
				}
			}
		}

		if def := findNamed(pass["defines"], name); def != nil && sub == "" {
			def["value"] = value
			handled = true
		}

		states, _ := pass["states"].(map[string]any)
		stateValues, _ := states["value"].(map[string]any)
		if state, ok := stateValues[name].(map[string]any); ok {
			switch {
			case sub == "":
				state["value"] = value
				handled = true
			case isContainer(state["value"]):
				if setPath(state, sub, value, dumppath.WrapperAware()) {
					handled = true
				}
			}
		}
	}
	return handled
}

// propValue wraps a bare uuid into a reference for texture and sampler props.
func propValue(prop map[string]any, value any) any {
	s, isString := value.(string)
	typ, _ := prop["type"].(string)
	typ = strings.ToLower(typ)
	if isString && (strings.Contains(typ, "texture") || strings.Contains(typ, "sampler")) {
		return map[string]any{"uuid": s}
	}
	return value
}

// enumItemsOf reads an editor enum list of {name, value} objects.
func enumItemsOf(v any) []propgraph.EnumItem {
	list, _ := v.([]any)
	out := make([]propgraph.EnumItem, 0, len(list))
	for _, it := range list {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		out = append(out, propgraph.EnumItem{Name: name, Value: m["value"]})
	}
	return out
}

func findNamed(list any, name string) map[string]any {
	items, _ := list.([]any)
	for _, it := range items {
		if m, ok := it.(map[string]any); ok && m["name"] == name {
			return m
		}
	}
	return nil
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// naturalCompare orders strings with embedded numbers numerically, so that
// "effect-2" sorts before "effect-10".
func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		da, db := leadingDigits(a), leadingDigits(b)
		if da != "" && db != "" {
			na, _ := strconv.Atoi(da)
			nb, _ := strconv.Atoi(db)
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			a, b = a[len(da):], b[len(db):]
			continue
		}
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		a, b = a[1:], b[1:]
	}
	return len(a) - len(b)
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
