package apply

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/importers"
	"github.com/creatorbridge/creatorbridge/internal/instance"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

type fakeScene struct {
	nodes     map[string]string
	sets      []host.SetPropertyRequest
	snapshots int
	failPath  string
}

func (s *fakeScene) QueryNode(_ context.Context, uuid string) (*propgraph.Node, error) {
	doc, ok := s.nodes[uuid]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", uuid, propgraph.ErrNotFound)
	}
	return propgraph.Decode([]byte(doc))
}

func (s *fakeScene) QueryComponent(context.Context, string) (*propgraph.Node, error) {
	return nil, propgraph.ErrNotFound
}

func (s *fakeScene) QueryNodeTree(context.Context) (*host.NodeTree, error) {
	return nil, propgraph.ErrNotFound
}

func (s *fakeScene) SetProperty(_ context.Context, req host.SetPropertyRequest) error {
	if req.Path == s.failPath {
		return errors.New("rejected by scene")
	}
	s.sets = append(s.sets, req)
	return nil
}

func (s *fakeScene) Snapshot(context.Context) error {
	s.snapshots++
	return nil
}

type fakeAssets map[string]*host.AssetInfo

func (f fakeAssets) QueryAssetInfo(_ context.Context, uuid string) (*host.AssetInfo, error) {
	if info, ok := f[uuid]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("asset %s: %w", uuid, propgraph.ErrNotFound)
}

func (f fakeAssets) QueryAssetMeta(context.Context, string) (host.AssetMeta, error) {
	return nil, propgraph.ErrNotFound
}

func (f fakeAssets) SaveAssetMeta(context.Context, string, host.AssetMeta) error { return nil }

type fakeCapability struct {
	name    string
	accept  map[string]bool
	written map[string]any
}

func (c *fakeCapability) Name() string      { return c.name }
func (c *fakeCapability) ClassName() string { return "Fake" }

func (c *fakeCapability) GetProperties(context.Context, *host.AssetInfo) (*propgraph.Graph, error) {
	return propgraph.NewGraph(), nil
}

func (c *fakeCapability) SetProperty(_ context.Context, _ *host.AssetInfo, path string, value any) (bool, error) {
	if !c.accept[path] {
		return false, nil
	}
	c.written[path] = value
	return true, nil
}

func graph(t *testing.T, doc string) *propgraph.Graph {
	t.Helper()
	g, err := propgraph.DecodeGraph([]byte(doc))
	require.NoError(t, err)
	return g
}

const nodeDoc = `{
	"a": {"type": "cc.Object", "value": {
		"valid":  {"type": "Number", "value": 0},
		"valid2": {"type": "Number", "value": 0}
	}},
	"active": {"type": "Boolean", "value": true},
	"hidden": {"type": "Number", "value": 1, "visible": false},
	"label":  {"type": "String", "value": ""},
	"target": {"type": "cc.Node", "extends": ["cc.Object"], "value": {"uuid": ""}},
	"sprite": {"type": "cc.SpriteFrame", "extends": ["cc.Asset", "cc.Object"], "value": {"uuid": ""}},
	"materials": {"type": "cc.Material", "isArray": true, "value": [],
		"elementTypeData": {"type": "cc.Material", "extends": ["cc.Asset", "cc.Object"], "value": null}}
}`

func nodeInstance(t *testing.T) *instance.Instance {
	return &instance.Instance{ID: "n1", UUID: "n1", Type: instance.TypeNode, Kind: instance.KindNode, Props: graph(t, nodeDoc)}
}

func newApplier(scene *fakeScene, assets fakeAssets, caps ...importers.Capability) *Applier {
	return New(Config{Scene: scene, Assets: assets, Importers: importers.NewRegistry(caps...)})
}

func TestNormalize(t *testing.T) {
	number := &propgraph.Schema{Type: "Number"}
	str := &propgraph.Schema{Type: "String"}

	tests := []struct {
		name   string
		raw    any
		schema *propgraph.Schema
		want   any
	}{
		{"true literal", "true", number, true},
		{"false literal", " false ", number, false},
		{"integer", "42", number, 42.0},
		{"float", "-0.5", number, -0.5},
		{"string target keeps text", "42", str, "42"},
		{"string target case-insensitive", "true", &propgraph.Schema{Type: "string"}, "true"},
		{"object literal", `{"x": 1}`, number, map[string]any{"x": 1.0}},
		{"array literal", `[1, 2]`, number, []any{1.0, 2.0}},
		{"malformed json passes", `{"x": }`, number, `{"x": }`},
		{"infinity is not a number", "Inf", number, "Inf"},
		{"hex literal", "0x10", number, 16.0},
		{"octal literal", "0o17", number, 15.0},
		{"binary literal", " 0B101 ", number, 5.0},
		{"signed hex passes", "-0x10", number, "-0x10"},
		{"underscored hex passes", "0x1_0", number, "0x1_0"},
		{"bare prefix passes", "0x", number, "0x"},
		{"plain text passes", "hello", number, "hello"},
		{"empty passes", "", number, ""},
		{"non-string untouched", 3.0, number, 3.0},
		{"nil schema coerces", "7", nil, 7.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.schema))
		})
	}
}

func TestApplyAll_PartialFailure(t *testing.T) {
	scene := &fakeScene{}
	a := newApplier(scene, nil)

	err := a.ApplyAll(context.Background(), nodeInstance(t),
		[]string{"a.valid", "a.missing", "a.valid2"}, []any{1.0, 2.0, 3.0})

	var setErr *SetError
	require.ErrorAs(t, err, &setErr)
	assert.Equal(t, []string{"a.missing"}, setErr.Paths())
	assert.ErrorIs(t, err, propgraph.ErrNotFound)
	assert.Contains(t, err.Error(), "a.missing")
	assert.Contains(t, err.Error(), "n1")

	require.Len(t, scene.sets, 2)
	assert.Equal(t, "a.valid", scene.sets[0].Path)
	assert.Equal(t, "a.valid2", scene.sets[1].Path)
	assert.Equal(t, 2, scene.snapshots)
}

func TestApplyAll_CountMismatch(t *testing.T) {
	scene := &fakeScene{}
	err := newApplier(scene, nil).ApplyAll(context.Background(), nodeInstance(t), []string{"active"}, nil)
	assert.ErrorIs(t, err, propgraph.ErrCountMismatch)
	assert.Empty(t, scene.sets)
}

func TestApplyAll_CommitFailureReported(t *testing.T) {
	scene := &fakeScene{failPath: "active"}
	err := newApplier(scene, nil).ApplyAll(context.Background(), nodeInstance(t),
		[]string{"active", "label"}, []any{false, "x"})

	var setErr *SetError
	require.ErrorAs(t, err, &setErr)
	assert.Equal(t, []string{"active"}, setErr.Paths())
	require.Len(t, scene.sets, 1)
	assert.Equal(t, "label", scene.sets[0].Path)
}

func TestSet_NormalizesAndDumps(t *testing.T) {
	scene := &fakeScene{}
	a := newApplier(scene, nil)
	ctx := context.Background()
	inst := nodeInstance(t)

	require.NoError(t, a.Set(ctx, inst, "active", "false"))
	require.NoError(t, a.Set(ctx, inst, "label", "42"))

	assert.Equal(t, host.SetPropertyRequest{
		UUID: "n1", Path: "active", Dump: host.PropertyDump{Value: false, Type: "Boolean"},
	}, scene.sets[0])
	assert.Equal(t, "42", scene.sets[1].Dump.Value)
}

func TestSet_InvisibleIsSettable(t *testing.T) {
	scene := &fakeScene{}
	inst := nodeInstance(t)

	plain := propgraph.UnwrapGraph(inst.Props).Interface().(map[string]any)
	assert.NotContains(t, plain, "hidden")

	require.NoError(t, newApplier(scene, nil).Set(context.Background(), inst, "hidden", 5.0))
	assert.Equal(t, "hidden", scene.sets[0].Path)
}

func TestSet_ResolutionErrors(t *testing.T) {
	a := newApplier(&fakeScene{}, nil)
	ctx := context.Background()
	inst := nodeInstance(t)

	err := a.Set(ctx, inst, "materials.1", "m")
	assert.ErrorIs(t, err, propgraph.ErrIndexOutOfBounds)

	var pe *PropertyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "materials.1", pe.Path)
	assert.Equal(t, "n1", pe.Instance)

	assert.ErrorIs(t, a.Set(ctx, inst, "a.0", 1.0), propgraph.ErrInvalidSegment)
}

func TestSet_SceneGlobalsPrefix(t *testing.T) {
	scene := &fakeScene{}
	inst := &instance.Instance{
		ID: instance.SceneGlobalsID, UUID: "scene-1", Type: instance.TypeSceneGlobals, Kind: instance.KindSceneGlobals,
		Props: graph(t, `{"ambient": {"type": "cc.AmbientInfo", "value": {"skyIllum": {"type": "Number", "value": 1}}}}`),
	}

	require.NoError(t, newApplier(scene, nil).Set(context.Background(), inst, "ambient.skyIllum", 2.0))
	assert.Equal(t, "scene-1", scene.sets[0].UUID)
	assert.Equal(t, "_globals.ambient.skyIllum", scene.sets[0].Path)
}

func TestSet_ComponentPathRewrite(t *testing.T) {
	scene := &fakeScene{nodes: map[string]string{
		"node-1": `{"__comps__": [
			{"type": "cc.UITransform", "value": {"uuid": {"type": "String", "value": "c-0"}}},
			{"type": "cc.Sprite", "value": {"uuid": {"type": "String", "value": "c-1"}}}
		]}`,
	}}
	inst := &instance.Instance{
		ID: "c-1", UUID: "c-1", Type: "cc.Sprite", Kind: instance.KindComponent,
		Props: graph(t, `{
			"node": {"type": "cc.Node", "extends": ["cc.Object"], "value": {"uuid": "node-1"}},
			"color": {"type": "cc.Color", "value": {"r": 255, "g": 255, "b": 255, "a": 255}}
		}`),
	}
	a := newApplier(scene, nil)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, inst, "color.r", 10.0))
	assert.Equal(t, "node-1", scene.sets[0].UUID)
	assert.Equal(t, "__comps__.1.color.r", scene.sets[0].Path)
	assert.Equal(t, propgraph.TypeUnknown, scene.sets[0].Dump.Type)

	inst.UUID = "c-9"
	assert.ErrorIs(t, a.Set(ctx, inst, "color.r", 10.0), propgraph.ErrNotFound)
}

func TestSet_References(t *testing.T) {
	assets := fakeAssets{
		"img": {UUID: "img", Type: "cc.ImageAsset", SubAssets: map[string]*host.AssetInfo{
			"6c48a": {UUID: "img@6c48a", Type: "cc.Texture2D"},
			"f9941": {UUID: "img@f9941", Type: "cc.SpriteFrame"},
		}},
		"mat":   {UUID: "mat", Type: "cc.Material"},
		"sound": {UUID: "sound", Type: "cc.AudioClip"},
	}
	ctx := context.Background()

	tests := []struct {
		name  string
		path  string
		value any
		want  any
		err   error
	}{
		{"bare id", "target", "node-2", map[string]any{"uuid": "node-2"}, nil},
		{"id object", "target", map[string]any{"id": "node-3"}, map[string]any{"uuid": "node-3"}, nil},
		{"uuid object", "target", map[string]any{"uuid": "node-4"}, map[string]any{"uuid": "node-4"}, nil},
		{"clear", "target", nil, nil, nil},
		{"sub-asset redirect", "sprite", "img", map[string]any{"uuid": "img@f9941"}, nil},
		{"type mismatch", "sprite", "sound", nil, propgraph.ErrReferenceTypeMismatch},
		{"unknown asset", "sprite", "nope", nil, propgraph.ErrNotFound},
		{"bad shape", "target", 12.0, nil, propgraph.ErrReferenceTypeMismatch},
		{"array element-wise", "materials", []any{"mat", map[string]any{"id": "mat"}},
			[]any{map[string]any{"uuid": "mat"}, map[string]any{"uuid": "mat"}}, nil},
		{"array extension", "materials.0", "mat", map[string]any{"uuid": "mat"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := &fakeScene{}
			err := newApplier(scene, assets).Set(ctx, nodeInstance(t), tt.path, tt.value)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Empty(t, scene.sets)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, scene.sets[0].Dump.Value)
		})
	}
}

func TestSet_AssetBacked(t *testing.T) {
	capability := &fakeCapability{name: "texture", accept: map[string]bool{"anisotropy": true}, written: map[string]any{}}
	scene := &fakeScene{}
	a := newApplier(scene, nil, capability)
	ctx := context.Background()

	inst := &instance.Instance{
		ID: "t1", UUID: "t1", Type: "cc.Texture2D", Kind: instance.KindAsset,
		Asset: &host.AssetInfo{UUID: "t1", Importer: "texture"},
		Props: graph(t, `{"anisotropy": {"type": "Number", "value": 0}, "other": {"type": "Number", "value": 0}}`),
	}

	require.NoError(t, a.Set(ctx, inst, "anisotropy", "8"))
	assert.Equal(t, 8.0, capability.written["anisotropy"])
	assert.Empty(t, scene.sets, "asset commits do not touch the scene")
	assert.Zero(t, scene.snapshots)

	assert.ErrorIs(t, a.Set(ctx, inst, "other", 1.0), propgraph.ErrImporterNotHandled)

	inst.Asset.Importer = "unknown"
	assert.ErrorIs(t, a.Set(ctx, inst, "anisotropy", 1.0), propgraph.ErrImporterNotHandled)
}

func TestObserversSeeCommits(t *testing.T) {
	var seen []Mutation
	scene := &fakeScene{}
	a := New(Config{
		Scene:     scene,
		Importers: importers.NewRegistry(),
		Observers: []Observer{ObserverFunc(func(_ context.Context, m Mutation) { seen = append(seen, m) })},
	})

	err := a.ApplyAll(context.Background(), nodeInstance(t), []string{"active", "nope"}, []any{false, 1.0})
	require.Error(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, "n1", seen[0].Instance)
	assert.Equal(t, "active", seen[0].Commit)
	assert.Equal(t, false, seen[0].Value)
	assert.False(t, seen[0].At.IsZero())
}
