package importers

import (
	"slices"
	"strconv"
	"strings"

	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

var includeModes = []propgraph.EnumItem{
	{Name: "Optional", Value: float64(0)},
	{Name: "Exclude", Value: float64(1)},
	{Name: "Require", Value: float64(2)},
	{Name: "Recalculate", Value: float64(3)},
}

var bakeRates = []propgraph.EnumItem{
	{Name: "Auto", Value: float64(0)},
	{Name: "BakeRate24", Value: float64(24)},
	{Name: "BakeRate25", Value: float64(25)},
	{Name: "BakeRate30", Value: float64(30)},
	{Name: "BakeRate60", Value: float64(60)},
}

// fbx user data kept under userData.fbx
var fbxSettings = []string{"animationBakeRate", "preferLocalTimeSpan", "smartMaterialEnabled"}

func modelGraph(ud map[string]any) *propgraph.Graph {
	g := propgraph.NewGraph()

	mode := func(key, tooltip string) {
		g.Set(key, wrapped(&propgraph.Schema{
			Type:     "Enum",
			EnumList: includeModes,
			UserData: map[string]any{"enumName": "cc.ModelDataIncludeMode"},
			Tooltip:  tooltip,
		}, ud[key]))
	}
	mode("normals", "")
	mode("tangents", "")
	mode("morphNormals", "Required if you need to use normal map on morph targets")

	flag := func(key, display string) {
		g.Set(key, wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: display}, truthy(ud[key])))
	}
	flag("skipValidation", "Skip Validation")
	flag("disableMeshSplit", "Disable Mesh Split")
	flag("allowMeshDataAccess", "Allow Data Access")
	flag("addVertexColor", "Add Vertex Color")
	flag("promoteSingleRootNode", "Promote Single Root Node")

	g.Set("meshOptimize", meshSection(ud["meshOptimize"], "cc.MeshOptimizeOptions", "Mesh Optimize", func(d map[string]any, o *propgraph.Node) {
		o.Put("enable", wrapped(&propgraph.Schema{
			Type:    "Boolean",
			Tooltip: "It is recommended to enable these options for models with high vertex count.",
		}, truthy(d["enable"])))
		o.Put("vertexCache", wrapped(&propgraph.Schema{Type: "Boolean"}, truthy(d["vertexCache"])))
		o.Put("vertexFetch", wrapped(&propgraph.Schema{Type: "Boolean"}, truthy(d["vertexFetch"])))
		o.Put("overdraw", wrapped(&propgraph.Schema{Type: "Boolean"}, truthy(d["overdraw"])))
	}))

	g.Set("meshSimplify", meshSection(ud["meshSimplify"], "cc.MeshSimplifyOptions", "Mesh Simplify", func(d map[string]any, o *propgraph.Node) {
		ratio := func() *propgraph.Schema {
			return &propgraph.Schema{Type: "Float", Min: floatPtr(0), Max: floatPtr(1), Step: floatPtr(0.01)}
		}
		o.Put("enable", wrapped(&propgraph.Schema{Type: "Boolean"}, truthy(d["enable"])))
		target := ratio()
		target.Tooltip = "The target ratio of the simplified mesh data. It is recommended to set this value to 0.5."
		o.Put("targetRatio", wrapped(target, firstNonNil(d["targetRatio"], float64(1))))
		o.Put("autoErrorRate", wrapped(&propgraph.Schema{Type: "Boolean"}, truthy(d["autoErrorRate"])))
		errRate := ratio()
		errRate.Tooltip = "The max error rate of the simplified mesh data. This value also alters the result size."
		errRate.Visible = boolPtr(!truthy(d["autoErrorRate"]))
		o.Put("errorRate", wrapped(errRate, firstNonNil(d["errorRate"], float64(1))))
		o.Put("lockBoundary", wrapped(&propgraph.Schema{Type: "Boolean"}, truthy(d["lockBoundary"])))
	}))

	g.Set("meshCluster", meshSection(ud["meshCluster"], "cc.MeshClusterOptions", "Mesh Cluster", func(d map[string]any, o *propgraph.Node) {
		o.Put("enable", wrapped(&propgraph.Schema{Type: "Boolean"}, truthy(d["enable"])))
		o.Put("generateBounding", wrapped(&propgraph.Schema{
			Type:    "Boolean",
			Tooltip: "Whether to generate bounding sphere and normal cone for the clustered mesh data.",
		}, truthy(d["generateBounding"])))
	}))

	g.Set("meshCompress", meshSection(ud["meshCompress"], "cc.MeshCompressOptions", "Mesh Compress", func(d map[string]any, o *propgraph.Node) {
		for _, k := range []string{"enable", "encode", "compress", "quantize"} {
			o.Put(k, wrapped(&propgraph.Schema{Type: "Boolean"}, truthy(d[k])))
		}
	}))

	g.Set("lods", meshSection(ud["lods"], "cc.LodGroups", "LODs", func(d map[string]any, o *propgraph.Node) {
		o.Put("enable", wrapped(&propgraph.Schema{Type: "Boolean", DisplayName: "Enable"}, truthy(d["enable"])))
		options, _ := d["options"].([]any)
		for i, opt := range options {
			lod, _ := opt.(map[string]any)
			o.Put(lodKey(i), propgraph.Wrap(&propgraph.Schema{Type: "cc.LodOptions"}, propgraph.NewObject().
				Put("screenRatio", wrapped(&propgraph.Schema{Type: "Number", DisplayName: "Screen Ratio"}, lod["screenRatio"])).
				Put("faceCount", wrapped(&propgraph.Schema{Type: "Number", DisplayName: "Face Count", Readonly: true}, lod["faceCount"]))))
		}
	}))
	return g
}

func meshSection(data any, typ, display string, fill func(d map[string]any, o *propgraph.Node)) *propgraph.Node {
	d, _ := data.(map[string]any)
	if d == nil {
		d = map[string]any{}
	}
	o := propgraph.NewObject()
	fill(d, o)
	return propgraph.Wrap(&propgraph.Schema{Type: typ, DisplayName: display}, o)
}

func lodKey(i int) string {
	return "lod" + strconv.Itoa(i)
}

// lodPath maps the exposed "lods.lodN.field" onto "lods.options.N.field".
func lodPath(path string) string {
	rest, ok := strings.CutPrefix(path, "lods.lod")
	if !ok {
		return path
	}
	idx, field, _ := strings.Cut(rest, ".")
	if idx == "" || strings.Trim(idx, "0123456789") != "" {
		return path
	}
	if field == "" {
		return "lods.options." + idx
	}
	return "lods.options." + idx + "." + field
}

func modelApply(ud map[string]any, path string, value any) bool {
	if mapped := lodPath(path); mapped != path {
		return setPath(ud, mapped, value)
	}
	return false
}

// NewGltfImporter serves glTF models.
func NewGltfImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "gltf",
		assets: assets,
		build:  func(_ host.AssetMeta, ud map[string]any) *propgraph.Graph { return modelGraph(ud) },
		apply:  modelApply,
	}
}

// NewFbxImporter serves FBX models, which add animation and material
// conversion settings kept in userData.fbx.
func NewFbxImporter(assets host.AssetDB) Capability {
	return &userDataImporter{
		name:   "fbx",
		assets: assets,
		build: func(_ host.AssetMeta, ud map[string]any) *propgraph.Graph {
			g := modelGraph(ud)
			fbx, _ := ud["fbx"].(map[string]any)

			g.Set("animationBakeRate", wrapped(&propgraph.Schema{
				Type:     "Enum",
				EnumList: bakeRates,
				Tooltip:  "Specify the animation bake sample rate in frames per second (fps).",
			}, fbx["animationBakeRate"]))
			g.Set("preferLocalTimeSpan", wrapped(&propgraph.Schema{
				Type: "Boolean",
				Tooltip: "When exporting FBX animations, whether prefer to use the time range recorded in FBX file.<br>" +
					"If one is not preferred, or one is invalid for use, the time range is robustly calculated.",
			}, truthy(fbx["preferLocalTimeSpan"])))
			g.Set("smartMaterialEnabled", wrapped(&propgraph.Schema{
				Type:    "Boolean",
				Tooltip: "Convert DCC materials to engine builtin materials which match the internal lighting model.",
			}, truthy(fbx["smartMaterialEnabled"])))
			g.Set("legacyFbxImporter", wrapped(&propgraph.Schema{Type: "Boolean"}, truthy(ud["legacyFbxImporter"])))
			return g
		},
		apply: func(ud map[string]any, path string, value any) bool {
			if !slices.Contains(fbxSettings, path) {
				return modelApply(ud, path, value)
			}
			fbx, _ := ud["fbx"].(map[string]any)
			if fbx == nil {
				fbx = map[string]any{}
				ud["fbx"] = fbx
			}
			fbx[path] = value
			return true
		},
	}
}
