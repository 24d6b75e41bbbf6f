package importers

import (
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

func spriteFrameGraph(ud map[string]any) *propgraph.Graph {
	g := propgraph.NewGraph()
	num := func(key, display string, readonly bool) {
		g.Set(key, wrapped(&propgraph.Schema{Type: "Number", DisplayName: display, Readonly: readonly}, ud[key]))
	}

	g.Set("packable", wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: "Packable"}, ud["packable"]))
	g.Set("rotated", wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: "Rotated", Readonly: true}, ud["rotated"]))
	num("offsetX", "Offset X", true)
	num("offsetY", "Offset Y", true)

	g.Set("trimType", wrapped(&propgraph.Schema{
		Type:        "Enum",
		EnumList:    choices("auto", "custom", "none"),
		DisplayName: "Trim Type",
	}, ud["trimType"]))
	num("trimThreshold", "Trim Threshold", false)
	num("trimX", "Trim X", false)
	num("trimY", "Trim Y", false)
	num("width", "Width", false)
	num("height", "Height", false)

	num("borderTop", "Border Top", false)
	num("borderBottom", "Border Bottom", false)
	num("borderLeft", "Border Left", false)
	num("borderRight", "Border Right", false)

	num("pixelsToUnit", "Pixels To Unit", false)
	num("pivotX", "Pivot X", false)
	num("pivotY", "Pivot Y", false)
	return g
}

// NewSpriteFrameImporter serves "sprite-frame" assets.
func NewSpriteFrameImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "sprite-frame",
		assets: assets,
		build:  func(_ host.AssetMeta, ud map[string]any) *propgraph.Graph { return spriteFrameGraph(ud) },
	}
}

// NewPrefabImporter serves "prefab" assets.
func NewPrefabImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "prefab",
		assets: assets,
		build: func(_ host.AssetMeta, ud map[string]any) *propgraph.Graph {
			g := propgraph.NewGraph()
			g.Set("persistent", wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: "Persistent"}, truthy(ud["persistent"])))
			return g
		},
	}
}

var bundleCompressionTypes = []propgraph.EnumItem{
	{Name: "None", Value: "none"},
	{Name: "Merge Depend", Value: "merge_dep"},
	{Name: "Zip", Value: "zip"},
	{Name: "Zip High Compression", Value: "zip_high"},
	{Name: "Zip Store", Value: "zip_store"},
}

// NewDirectoryImporter serves folders, which may be configured as bundles.
// Directories often have no user data; edits create it.
func NewDirectoryImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "directory",
		assets: assets,
		create: true,
		build: func(_ host.AssetMeta, ud map[string]any) *propgraph.Graph {
			g := propgraph.NewGraph()
			g.Set("isBundle", wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: "Is Bundle"}, truthy(ud["isBundle"])))
			if !truthy(ud["isBundle"]) {
				return g
			}

			g.Set("bundleName", wrapped(&propgraph.Schema{Type: "String", DisplayName: "Bundle Name"}, ud["bundleName"]))
			g.Set("priority", wrapped(&propgraph.Schema{Type: "Integer", DisplayName: "Priority"}, ud["priority"]))
			if v, ok := ud["compressionType"]; ok {
				g.Set("compressionType", wrapped(&propgraph.Schema{
					Type:        "Enum",
					EnumList:    bundleCompressionTypes,
					DisplayName: "Compression Type",
				}, v))
			}
			if v, ok := ud["target"]; ok {
				g.Set("target", wrapped(&propgraph.Schema{Type: "String", DisplayName: "Target Platform"}, v))
			}
			return g
		},
	}
}

// NewAutoAtlasImporter serves "auto-atlas" assets. Sampler settings live in
// the textureSetting object of the user data.
func NewAutoAtlasImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "auto-atlas",
		assets: assets,
		build: func(_ host.AssetMeta, ud map[string]any) *propgraph.Graph {
			g := propgraph.NewGraph()
			integer := func(key, display string) {
				g.Set(key, wrapped(&propgraph.Schema{Type: "Integer", DisplayName: display}, ud[key]))
			}
			flag := func(key, display string) {
				g.Set(key, wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: display}, truthy(ud[key])))
			}

			integer("maxWidth", "Max Width")
			integer("maxHeight", "Max Height")
			integer("padding", "Padding")
			flag("allowRotation", "Allow Rotation")
			flag("forceSquared", "Force Squared")
			flag("powerOfTwo", "Power of Two")

			g.Set("algorithm", wrapped(&propgraph.Schema{
				Type: "Enum", EnumList: choices("MaxRects", "Basic"), DisplayName: "Algorithm",
			}, ud["algorithm"]))
			g.Set("format", wrapped(&propgraph.Schema{
				Type: "Enum", EnumList: choices("png", "jpg", "webp"), DisplayName: "Format",
			}, ud["format"]))
			g.Set("quality", wrapped(&propgraph.Schema{
				Type: "Number", DisplayName: "Quality", Visible: boolPtr(ud["format"] == "jpg"),
			}, ud["quality"]))

			flag("contourBleed", "Contour Bleed")
			flag("paddingBleed", "Padding Bleed")
			flag("filterUnused", "Filter Unused Resources")

			if ts, ok := ud["textureSetting"].(map[string]any); ok {
				tex := textureGraph(ts)
				for _, k := range tex.Keys() {
					n, _ := tex.Get(k)
					g.Set(k, n)
				}
			}
			return g
		},
		apply: func(ud map[string]any, path string, value any) bool {
			ts, ok := ud["textureSetting"].(map[string]any)
			if !ok {
				return false
			}
			if applyTextureProperties(ts, path, value) {
				return true
			}
			switch path {
			case "minfilter", "magfilter", "mipfilter", "wrapModeS", "wrapModeT", "anisotropy":
				ts[path] = value
				return true
			}
			return false
		},
	}
}
