package importers

import (
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

const advancedMode = "Advanced"

type filterMode struct {
	name                string
	min, mag, mipfilter string
}

var filterModes = []filterMode{
	{"Nearest (None)", "nearest", "nearest", "none"},
	{"Bilinear", "linear", "linear", "none"},
	{"Bilinear with Mipmaps", "linear", "linear", "nearest"},
	{"Trilinear with Mipmaps", "linear", "linear", "linear"},
}

type wrapMode struct {
	name string
	s, t string
}

var wrapModes = []wrapMode{
	{"Repeat", "repeat", "repeat"},
	{"Clamp", "clamp-to-edge", "clamp-to-edge"},
	{"Mirror", "mirrored-repeat", "mirrored-repeat"},
}

// applyTextureProperties reconciles the synthetic filterMode, wrapMode and
// generateMipmaps fields back into the underlying sampler fields. It reports
// whether path was one of them.
func applyTextureProperties(ud map[string]any, path string, value any) bool {
	switch path {
	case "filterMode":
		name, _ := value.(string)
		for _, m := range filterModes {
			if m.name == name {
				ud["minfilter"] = m.min
				ud["magfilter"] = m.mag
				ud["mipfilter"] = m.mipfilter
				return true
			}
		}
	case "wrapMode":
		name, _ := value.(string)
		for _, m := range wrapModes {
			if m.name == name {
				ud["wrapModeS"] = m.s
				ud["wrapModeT"] = m.t
				return true
			}
		}
	case "generateMipmaps":
		enable, ok := value.(bool)
		if !ok {
			return false
		}
		current, _ := ud["mipfilter"].(string)
		switch {
		case !enable:
			ud["mipfilter"] = "none"
		case current == "" || current == "none":
			ud["mipfilter"] = "linear"
		}
		return true
	}
	return false
}

// injectTextureProperties adds the sampler fields to g, collapsing known
// combinations into filterMode and wrapMode.
func injectTextureProperties(ud map[string]any, g *propgraph.Graph) {
	current := advancedMode
	for _, m := range filterModes {
		if ud["minfilter"] == m.min && ud["magfilter"] == m.mag && ud["mipfilter"] == m.mipfilter {
			current = m.name
			break
		}
	}
	names := make([]string, 0, len(filterModes)+1)
	for _, m := range filterModes {
		names = append(names, m.name)
	}
	g.Set("filterMode", wrapped(&propgraph.Schema{
		Type:        "Enum",
		EnumList:    choices(append(names, advancedMode)...),
		DisplayName: "Filter Mode",
	}, current))

	if current == advancedMode {
		g.Set("minfilter", wrapped(&propgraph.Schema{Type: "Enum", EnumList: choices("nearest", "linear"), DisplayName: "Min Filter"}, ud["minfilter"]))
		g.Set("magfilter", wrapped(&propgraph.Schema{Type: "Enum", EnumList: choices("nearest", "linear"), DisplayName: "Mag Filter"}, ud["magfilter"]))
		g.Set("mipfilter", wrapped(&propgraph.Schema{Type: "Enum", EnumList: choices("none", "nearest", "linear"), DisplayName: "Mip Filter"}, ud["mipfilter"]))
	}

	currentWrap := advancedMode
	for _, m := range wrapModes {
		if ud["wrapModeS"] == m.s && ud["wrapModeT"] == m.t {
			currentWrap = m.name
			break
		}
	}
	wrapNames := make([]string, 0, len(wrapModes)+1)
	for _, m := range wrapModes {
		wrapNames = append(wrapNames, m.name)
	}
	g.Set("wrapMode", wrapped(&propgraph.Schema{
		Type:        "Enum",
		EnumList:    choices(append(wrapNames, advancedMode)...),
		DisplayName: "Wrap Mode",
	}, currentWrap))

	if currentWrap == advancedMode {
		modes := choices("repeat", "clamp-to-edge", "mirrored-repeat")
		g.Set("wrapModeS", wrapped(&propgraph.Schema{Type: "Enum", EnumList: modes, DisplayName: "Wrap Mode S"}, ud["wrapModeS"]))
		g.Set("wrapModeT", wrapped(&propgraph.Schema{Type: "Enum", EnumList: modes, DisplayName: "Wrap Mode T"}, ud["wrapModeT"]))
	}

	g.Set("anisotropy", wrapped(&propgraph.Schema{Type: "Number", DisplayName: "Anisotropy"}, ud["anisotropy"]))
}

func generateMipmapsProperty(ud map[string]any) *propgraph.Node {
	mip, _ := ud["mipfilter"].(string)
	return wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: "Generate Mipmaps"}, mip != "none")
}

// textureGraph is the texture category's projection of user data.
func textureGraph(ud map[string]any) *propgraph.Graph {
	g := propgraph.NewGraph()
	injectTextureProperties(ud, g)
	g.Set("generateMipmaps", generateMipmapsProperty(ud))
	return g
}

// erpTextureCubeGraph projects an equirectangular cube map's user data.
func erpTextureCubeGraph(ud map[string]any) *propgraph.Graph {
	g := propgraph.NewGraph()
	g.Set("anisotropy", wrapped(&propgraph.Schema{Type: "Number", DisplayName: "Anisotropy"}, ud["anisotropy"]))
	g.Set("faceSize", wrapped(&propgraph.Schema{Type: "Number", DisplayName: "Face Size"}, ud["faceSize"]))
	injectTextureProperties(ud, g)
	g.Set("generateMipmaps", generateMipmapsProperty(ud))
	g.Set("mipBakeMode", wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: "Mip Bake Mode"}, ud["mipBakeMode"]))
	return g
}

// NewTextureImporter serves "texture" assets.
func NewTextureImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "texture",
		assets: assets,
		build:  func(_ host.AssetMeta, ud map[string]any) *propgraph.Graph { return textureGraph(ud) },
		apply:  applyTextureProperties,
	}
}

// NewTextureCubeImporter serves "texture-cube" assets, which share the
// texture sampler settings.
func NewTextureCubeImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "texture-cube",
		assets: assets,
		build: func(_ host.AssetMeta, ud map[string]any) *propgraph.Graph {
			g := textureGraph(ud)
			g.Set("mipBakeMode", wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: "Mip Bake Mode"}, ud["mipBakeMode"]))
			return g
		},
		apply: applyTextureProperties,
	}
}

// NewErpTextureCubeImporter serves "erp-texture-cube" assets.
func NewErpTextureCubeImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "erp-texture-cube",
		assets: assets,
		build:  func(_ host.AssetMeta, ud map[string]any) *propgraph.Graph { return erpTextureCubeGraph(ud) },
		apply:  applyTextureProperties,
	}
}

// NewRenderTextureImporter serves "render-texture" assets.
func NewRenderTextureImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "render-texture",
		assets: assets,
		build: func(meta host.AssetMeta, ud map[string]any) *propgraph.Graph {
			g := propgraph.NewGraph()
			g.Set("width", wrapped(&propgraph.Schema{Type: "Integer", DisplayName: "Width"}, ud["width"]))
			g.Set("height", wrapped(&propgraph.Schema{Type: "Integer", DisplayName: "Height"}, ud["height"]))

			tex := textureGraph(ud)
			for _, k := range tex.Keys() {
				n, _ := tex.Get(k)
				g.Set(k, n)
			}

			if sub, ok := meta.SubMeta("sprite-frame"); ok {
				g.Set("spriteFrame", wrapped(&propgraph.Schema{
					Type:        "cc.SpriteFrame",
					Extends:     []string{propgraph.CapAsset, propgraph.CapObject},
					DisplayName: "Sprite Frame",
					Readonly:    true,
				}, map[string]any{"uuid": sub.UUID()}))
			}
			return g
		},
		apply: applyTextureProperties,
	}
}
