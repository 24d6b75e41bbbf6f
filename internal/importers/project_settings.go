package importers

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/creatorbridge/creatorbridge/internal/dumppath"
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

const maxCollisionGroup = 31

// ProjectSettingsImporter exposes the project configuration (layers, sorting
// layers, physics and general settings) as a virtual asset.
type ProjectSettingsImporter struct {
	host host.ProjectHost
}

// NewProjectSettingsImporter creates the project settings capability
func NewProjectSettingsImporter(h host.ProjectHost) *ProjectSettingsImporter {
	return &ProjectSettingsImporter{host: h}
}

func (p *ProjectSettingsImporter) Name() string      { return "project-settings" }
func (p *ProjectSettingsImporter) ClassName() string { return "ProjectSettings" }

func (p *ProjectSettingsImporter) GetProperties(ctx context.Context, _ *host.AssetInfo) (*propgraph.Graph, error) {
	cfg, err := p.host.QueryProjectConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("project config: %w", err)
	}

	g := propgraph.NewGraph()

	sorting, _ := dumppath.Get(cfg, "sorting-layer.layers")
	g.Set("sortingLayers", propgraph.Wrap(&propgraph.Schema{
		Type:            "SortingLayerItem",
		Extends:         []string{},
		IsArray:         true,
		Tooltip:         "Sorting layers for sprites",
		ElementTypeData: sortingLayerItem(0, "", 0),
	}, mapItems(sorting, func(l map[string]any) *propgraph.Node {
		return sortingLayerItem(l["id"], l["name"], l["value"])
	})))

	g.Set("customLayers", propgraph.Wrap(&propgraph.Schema{
		Type:            "LayerItem",
		Extends:         []string{},
		IsArray:         true,
		Tooltip:         "User defined rendering layers",
		ElementTypeData: layerItem("", 0),
	}, mapItems(cfg["layer"], func(l map[string]any) *propgraph.Node {
		return layerItem(l["name"], l["value"])
	})))

	physics, _ := cfg["physics"].(map[string]any)
	g.Set("physics", propgraph.Wrap(&propgraph.Schema{Type: "PhysicsSettings"}, physicsObject(physics)))

	general, _ := cfg["general"].(map[string]any)
	g.Set("general", propgraph.Wrap(&propgraph.Schema{Type: "GeneralSettings"}, generalObject(general)))
	return g, nil
}

func mapItems(list any, item func(map[string]any) *propgraph.Node) *propgraph.Node {
	raw, _ := list.([]any)
	items := make([]*propgraph.Node, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			items = append(items, item(m))
		}
	}
	return propgraph.ArrayOf(items...)
}

func sortingLayerItem(id, name, value any) *propgraph.Node {
	return propgraph.Wrap(&propgraph.Schema{Type: "SortingLayerItem", Extends: []string{}}, propgraph.NewObject().
		Put("id", wrapped(&propgraph.Schema{Type: "Integer", Readonly: true}, id)).
		Put("name", wrapped(&propgraph.Schema{Type: "String"}, name)).
		Put("value", wrapped(&propgraph.Schema{Type: "Integer"}, value)))
}

func layerItem(name, value any) *propgraph.Node {
	return propgraph.Wrap(&propgraph.Schema{Type: "LayerItem", Extends: []string{}}, propgraph.NewObject().
		Put("name", wrapped(&propgraph.Schema{Type: "String"}, name)).
		Put("value", wrapped(&propgraph.Schema{Type: "Integer", Readonly: true}, value)))
}

func collisionGroupItem(index, name any) *propgraph.Node {
	return propgraph.Wrap(&propgraph.Schema{Type: "CollisionGroupItem"}, propgraph.NewObject().
		Put("index", wrapped(&propgraph.Schema{Type: "Integer", Readonly: true}, index)).
		Put("name", wrapped(&propgraph.Schema{Type: "String"}, name)))
}

func physicsObject(physics map[string]any) *propgraph.Node {
	out := propgraph.NewObject()
	if physics == nil {
		return out
	}

	simple := []struct {
		key, typ string
		min      *float64
	}{
		{"allowSleep", "Boolean", nil},
		{"autoSimulation", "Boolean", nil},
		{"sleepThreshold", "Float", nil},
		{"fixedTimeStep", "Float", floatPtr(0)},
		{"maxSubSteps", "Integer", floatPtr(1)},
	}
	for _, s := range simple {
		if v, ok := physics[s.key]; ok {
			out.Put(s.key, wrapped(&propgraph.Schema{Type: s.typ, Min: s.min}, v))
		}
	}
	if v, ok := physics["gravity"]; ok && v != nil {
		out.Put("gravity", wrapped(&propgraph.Schema{Type: "cc.Vec3", Extends: []string{propgraph.CapValueType}}, v))
	}

	var material any
	if uuid, _ := physics["defaultMaterial"].(string); uuid != "" {
		material = map[string]any{"uuid": uuid}
	}
	out.Put("defaultMaterial", wrapped(&propgraph.Schema{
		Type:    "cc.PhysicsMaterial",
		Extends: []string{propgraph.CapObject},
	}, material))

	groups, _ := physics["collisionGroups"].([]any)
	out.Put("collisionGroups", propgraph.Wrap(&propgraph.Schema{
		Type:            "CollisionGroupItem",
		IsArray:         true,
		ElementTypeData: collisionGroupItem(0, ""),
	}, mapItems(groups, func(gr map[string]any) *propgraph.Node {
		return collisionGroupItem(gr["index"], gr["name"])
	})))

	// bitmask entries: the default group first, then every other group
	bitmask := []propgraph.EnumItem{{Name: "DEFAULT", Value: float64(1)}}
	maxIndex := 0
	for _, r := range groups {
		gr, _ := r.(map[string]any)
		idx, _ := gr["index"].(float64)
		name, _ := gr["name"].(string)
		if idx == 0 {
			bitmask[0].Name = name
			continue
		}
		bitmask = append(bitmask, propgraph.EnumItem{Name: name, Value: math.Ldexp(1, int(idx))})
		maxIndex = max(maxIndex, int(idx))
	}

	matrix, _ := physics["collisionMatrix"].(map[string]any)
	for k := range matrix {
		if i, err := strconv.Atoi(k); err == nil {
			maxIndex = max(maxIndex, i)
		}
	}
	rows := make([]*propgraph.Node, 0, maxIndex+1)
	for i := 0; i <= maxIndex; i++ {
		rows = append(rows, wrapped(&propgraph.Schema{
			Type:        "BitMask",
			BitmaskList: bitmask,
		}, firstNonNil(matrix[strconv.Itoa(i)], float64(0))))
	}
	out.Put("collisionMatrix", propgraph.Wrap(&propgraph.Schema{
		Type:            "BitMask",
		IsArray:         true,
		ElementTypeData: wrapped(&propgraph.Schema{Type: "BitMask", BitmaskList: bitmask}, float64(0)),
	}, propgraph.ArrayOf(rows...)))
	return out
}

func generalObject(general map[string]any) *propgraph.Node {
	out := propgraph.NewObject()
	if general == nil {
		return out
	}
	res, _ := general["designResolution"].(map[string]any)

	size := propgraph.NewObject().
		Put("width", propgraph.ScalarOf(firstNonNil(res["width"], float64(1280)))).
		Put("height", propgraph.ScalarOf(firstNonNil(res["height"], float64(720))))
	out.Put("designResolution", propgraph.Wrap(&propgraph.Schema{
		Type:    "cc.Size",
		Extends: []string{propgraph.CapValueType},
	}, size))
	out.Put("fitWidth", wrapped(&propgraph.Schema{Type: "Boolean"}, firstNonNil(res["fitWidth"], false)))
	out.Put("fitHeight", wrapped(&propgraph.Schema{Type: "Boolean"}, firstNonNil(res["fitHeight"], false)))
	out.Put("downloadMaxConcurrency", wrapped(&propgraph.Schema{
		Type: "Integer",
		Min:  floatPtr(1),
	}, firstNonNil(general["downloadMaxConcurrency"], float64(15))))
	out.Put("highQuality", wrapped(&propgraph.Schema{Type: "Boolean"}, firstNonNil(general["highQuality"], false)))
	return out
}

// SetProperty routes list edits (layers, sorting layers, collision groups)
// and general settings to whole-section writes; any other path is written
// to the project configuration as is.
func (p *ProjectSettingsImporter) SetProperty(ctx context.Context, _ *host.AssetInfo, path string, value any) (bool, error) {
	segs := dumppath.Split(path)
	if len(segs) == 0 {
		return false, nil
	}

	switch {
	case segs[0] == "customLayers":
		return p.setLayer(ctx, segs, value)
	case segs[0] == "sortingLayers":
		return p.setSortingLayer(ctx, segs, value)
	case len(segs) >= 2 && segs[0] == "physics" && segs[1] == "collisionGroups":
		return p.setCollisionGroup(ctx, segs, value)
	case segs[0] == "general":
		return p.setGeneral(ctx, segs, value)
	}

	if path == "physics.defaultMaterial" {
		if ref, ok := value.(map[string]any); ok {
			if uuid, _ := ref["uuid"].(string); uuid != "" {
				value = uuid
			}
		}
	}
	if err := p.host.SetProjectConfig(ctx, path, value); err != nil {
		return false, fmt.Errorf("set config %s: %w", path, err)
	}
	return true, nil
}

func segIndex(segs []string, i int) (int, bool) {
	if len(segs) <= i {
		return 0, false
	}
	n, err := strconv.Atoi(segs[i])
	return n, err == nil && n >= 0
}

// nameOf accepts a bare name or an object with a name field.
func nameOf(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		s, _ := v["name"].(string)
		return s
	}
	return ""
}

func (p *ProjectSettingsImporter) setLayer(ctx context.Context, segs []string, value any) (bool, error) {
	idx, ok := segIndex(segs, 1)
	if !ok {
		return false, nil
	}
	layer := map[string]any{"name": nameOf(value), "value": 1 << (idx + 1)}
	if err := p.host.SetProjectConfig(ctx, "layer."+strconv.Itoa(idx), layer); err != nil {
		return false, fmt.Errorf("set layer %d: %w", idx, err)
	}
	return true, nil
}

func (p *ProjectSettingsImporter) setSortingLayer(ctx context.Context, segs []string, value any) (bool, error) {
	idx, ok := segIndex(segs, 1)
	if !ok {
		return false, nil
	}

	patch := map[string]any{}
	switch len(segs) {
	case 2:
		if s, isString := value.(string); isString {
			patch["name"] = s
		} else if m, isMap := value.(map[string]any); isMap {
			patch = m
		}
	case 3:
		patch[segs[2]] = value
	default:
		return false, nil
	}

	cfg, err := p.host.QueryProjectConfig(ctx)
	if err != nil {
		return false, fmt.Errorf("project config: %w", err)
	}
	info, _ := cfg["sorting-layer"].(map[string]any)
	if info == nil {
		info = map[string]any{"layers": []any{}, "increaseId": float64(0)}
	}
	layers, _ := info["layers"].([]any)

	switch {
	case idx < len(layers):
		existing, _ := layers[idx].(map[string]any)
		merged := make(map[string]any, len(existing)+len(patch))
		dumppath.Merge(merged, existing)
		dumppath.Merge(merged, patch)
		layers[idx] = merged
	case idx == len(layers):
		prev, _ := info["increaseId"].(float64)
		id := prev + 1
		info["increaseId"] = id

		v, hasValue := patch["value"]
		if !hasValue {
			highest := float64(-1)
			for _, l := range layers {
				if lv, ok := dumppath.Get(l, "value"); ok {
					if f, ok := lv.(float64); ok && f > highest {
						highest = f
					}
				}
			}
			v = highest + 1
		}
		name, _ := patch["name"].(string)
		if name == "" {
			name = fmt.Sprintf("Layer %d", int(id))
		}
		layers = append(layers, map[string]any{"id": id, "name": name, "value": v})
	default:
		return false, nil
	}

	info["layers"] = layers
	if err := p.host.SetProjectConfig(ctx, "sorting-layer", info); err != nil {
		return false, fmt.Errorf("set sorting layers: %w", err)
	}
	return true, nil
}

// setCollisionGroup renames the group at a list position, or appends a group
// using the lowest free group index when the position equals the list length.
func (p *ProjectSettingsImporter) setCollisionGroup(ctx context.Context, segs []string, value any) (bool, error) {
	idx, ok := segIndex(segs, 2)
	if !ok {
		return false, nil
	}

	cfg, err := p.host.QueryProjectConfig(ctx)
	if err != nil {
		return false, fmt.Errorf("project config: %w", err)
	}
	physics, _ := cfg["physics"].(map[string]any)
	if physics == nil {
		physics = map[string]any{}
	}
	groups, _ := physics["collisionGroups"].([]any)
	name := nameOf(value)

	switch {
	case idx < len(groups):
		if g, ok := groups[idx].(map[string]any); ok && name != "" {
			g["name"] = name
		}
	case idx == len(groups):
		used := []int{0}
		for _, r := range groups {
			if f, ok := dumppath.Get(r, "index"); ok {
				if n, ok := f.(float64); ok {
					used = append(used, int(n))
				}
			}
		}
		next := 1
		for slices.Contains(used, next) {
			next++
		}
		if next > maxCollisionGroup {
			return false, nil
		}
		if name == "" {
			name = fmt.Sprintf("Group %d", next)
		}
		groups = append(groups, map[string]any{"index": float64(next), "name": name})
	default:
		return false, nil
	}

	physics["collisionGroups"] = groups
	if err := p.host.SetProjectConfig(ctx, "physics", physics); err != nil {
		return false, fmt.Errorf("set physics: %w", err)
	}
	return true, nil
}

// setGeneral edits the general section. Design resolution width, height and
// the fit flags live under general.designResolution.
func (p *ProjectSettingsImporter) setGeneral(ctx context.Context, segs []string, value any) (bool, error) {
	if len(segs) < 2 {
		return false, nil
	}
	cfg, err := p.host.QueryProjectConfig(ctx)
	if err != nil {
		return false, fmt.Errorf("project config: %w", err)
	}
	general, _ := cfg["general"].(map[string]any)
	if general == nil {
		general = map[string]any{}
	}
	res, _ := general["designResolution"].(map[string]any)
	if res == nil {
		res = map[string]any{}
	}

	switch key := segs[1]; key {
	case "designResolution":
		if len(segs) == 3 {
			res[segs[2]] = value
		} else if size, ok := value.(map[string]any); ok {
			for _, k := range []string{"width", "height"} {
				if v, ok := size[k]; ok {
					res[k] = v
				}
			}
		}
		general["designResolution"] = res
	case "fitWidth", "fitHeight":
		res[key] = value
		general["designResolution"] = res
	default:
		general[key] = value
	}

	if err := p.host.SetProjectConfig(ctx, "general", general); err != nil {
		return false, fmt.Errorf("set general: %w", err)
	}
	return true, nil
}
