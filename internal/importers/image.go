package importers

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

var imageTopLevel = []string{"type", "flipVertical", "fixAlphaTransparencyArtifacts", "flipGreenChannel", "isRGBE"}

// image sub-asset prefix to sub-meta importer
var imageSubAssets = map[string]string{
	"texture":     "texture",
	"spriteFrame": "sprite-frame",
	"textureCube": "erp-texture-cube",
}

var imageTypes = []propgraph.EnumItem{
	{Name: "raw", Value: "raw"},
	{Name: "texture", Value: "texture"},
	{Name: "normal-map", Value: "normal map"},
	{Name: "sprite-frame", Value: "sprite-frame"},
	{Name: "texture-cube", Value: "texture cube"},
}

// ImageImporter serves source images. Settings of the textures, sprite frames
// and cube maps generated from the image live in its sub-metas and are
// exposed as nested objects.
type ImageImporter struct {
	assets host.AssetDB
}

// NewImageImporter creates an image capability
func NewImageImporter(assets host.AssetDB) *ImageImporter {
	return &ImageImporter{assets: assets}
}

func (i *ImageImporter) Name() string      { return "image" }
func (i *ImageImporter) ClassName() string { return defaultClassName(i.Name()) }

// GetProperties builds the image graph, including the sub-asset sections
// relevant to the configured image type.
func (i *ImageImporter) GetProperties(ctx context.Context, asset *host.AssetInfo) (*propgraph.Graph, error) {
	meta, err := i.assets.QueryAssetMeta(ctx, asset.UUID)
	if err != nil {
		return nil, fmt.Errorf("asset meta %s: %w", asset.UUID, err)
	}
	ud := meta.UserData()
	if ud == nil {
		ud = map[string]any{}
	}

	imageType, _ := ud["type"].(string)
	if imageType == "" {
		imageType = "texture"
	}

	g := propgraph.NewGraph()
	g.Set("type", wrapped(&propgraph.Schema{
		Type: "Enum", EnumList: imageTypes, DisplayName: "Type", Visible: boolPtr(true),
	}, imageType))
	g.Set("flipVertical", wrapped(&propgraph.Schema{
		Type: "Boolean", DisplayName: "Flip Vertical", Visible: boolPtr(true),
	}, truthy(ud["flipVertical"])))
	g.Set("fixAlphaTransparencyArtifacts", wrapped(&propgraph.Schema{
		Type: "Boolean", DisplayName: "Fix Alpha Transparency Artifacts", Visible: boolPtr(imageType != "normal map"),
	}, truthy(ud["fixAlphaTransparencyArtifacts"])))
	g.Set("flipGreenChannel", wrapped(&propgraph.Schema{
		Type: "Boolean", DisplayName: "Flip Green Channel", Visible: boolPtr(true),
	}, truthy(ud["flipGreenChannel"])))
	g.Set("isRGBE", wrapped(&propgraph.Schema{
		Type: "Boolean", DisplayName: "Is RGBE", Visible: boolPtr(imageType == "texture cube"),
	}, truthy(ud["isRGBE"])))

	subData := func(importer string) map[string]any {
		if sub, ok := meta.SubMeta(importer); ok {
			if sud := sub.UserData(); sud != nil {
				return sud
			}
		}
		return map[string]any{}
	}
	section := func(display string, sub *propgraph.Graph) *propgraph.Node {
		return propgraph.Wrap(&propgraph.Schema{Type: "cc.Object", DisplayName: display}, sub.Root())
	}

	switch imageType {
	case "texture", "normal map", "sprite-frame":
		g.Set("texture", section("Texture Properties", textureGraph(subData("texture"))))
		if imageType == "sprite-frame" {
			g.Set("spriteFrame", section("Sprite Frame Properties", spriteFrameGraph(subData("sprite-frame"))))
		}
	case "texture cube":
		g.Set("textureCube", section("Texture Cube Properties", erpTextureCubeGraph(subData("erp-texture-cube"))))
	}
	return g, nil
}

// SetProperty writes top-level image flags or delegates prefixed paths to the
// matching sub-meta.
func (i *ImageImporter) SetProperty(ctx context.Context, asset *host.AssetInfo, path string, value any) (bool, error) {
	return editUserData(ctx, i.assets, asset, true, func(meta host.AssetMeta, ud map[string]any) bool {
		if slices.Contains(imageTopLevel, path) {
			ud[path] = value
			return true
		}

		prefix, subPath, ok := strings.Cut(path, ".")
		if !ok {
			return false
		}
		importer, ok := imageSubAssets[prefix]
		if !ok {
			return false
		}
		sub, ok := meta.SubMeta(importer)
		if !ok {
			return false
		}
		sud := sub.EnsureUserData()
		if importer != "sprite-frame" && applyTextureProperties(sud, subPath, value) {
			return true
		}
		return setPath(sud, subPath, value)
	})
}
