package inspector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbridge/creatorbridge/internal/apply"
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/importers"
	"github.com/creatorbridge/creatorbridge/internal/instance"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
	"github.com/creatorbridge/creatorbridge/internal/typedef"
)

const nodeDump = `{
	"name": {"value": "Player", "type": "String", "visible": true},
	"active": {"value": true, "type": "Boolean", "visible": true},
	"position": {"value": {"x": 1, "y": 2, "z": 0}, "type": "cc.Vec3", "extends": ["cc.ValueType"]},
	"__comps__": [
		{"value": {"uuid": {"value": "comp-1", "type": "String"}, "enabled": {"value": true, "type": "Boolean"}}, "type": "cc.Sprite"}
	],
	"children": [{"value": {"uuid": {"value": "child-1", "type": "String"}}, "type": "cc.Node"}],
	"__type__": "cc.Node",
	"parent": null
}`

const componentDump = `{
	"value": {
		"enabled": {"value": true, "type": "Boolean", "visible": false},
		"node": {"value": {"uuid": "node-1"}, "type": "cc.Node", "extends": ["cc.Object"]},
		"color": {"value": {"r": 255, "g": 255, "b": 255, "a": 255}, "type": "cc.Color", "extends": ["cc.ValueType"]}
	},
	"type": "cc.Sprite"
}`

const sceneDump = `{
	"name": {"value": "Main", "type": "String"},
	"_globals": {
		"ambient": {"value": {"skyIllum": {"value": 20000, "type": "Number"}}, "type": "cc.AmbientInfo"},
		"shadows": {"value": {"enabled": {"value": false, "type": "Boolean"}}, "type": "cc.ShadowsInfo"}
	},
	"__comps__": [],
	"children": [],
	"__type__": "cc.Scene"
}`

type fakeScene struct {
	nodes      map[string]string
	components map[string]string
	tree       *host.NodeTree
	sets       []host.SetPropertyRequest
	failOn     error
}

func (s *fakeScene) QueryNode(_ context.Context, uuid string) (*propgraph.Node, error) {
	if s.failOn != nil {
		return nil, s.failOn
	}
	doc, ok := s.nodes[uuid]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", uuid, propgraph.ErrNotFound)
	}
	return propgraph.Decode([]byte(doc))
}

func (s *fakeScene) QueryComponent(_ context.Context, uuid string) (*propgraph.Node, error) {
	doc, ok := s.components[uuid]
	if !ok {
		return nil, &host.RequestError{Channel: host.ChannelScene, Message: host.MsgQueryComponent, Reason: "no component"}
	}
	return propgraph.Decode([]byte(doc))
}

func (s *fakeScene) QueryNodeTree(context.Context) (*host.NodeTree, error) {
	if s.tree == nil {
		return &host.NodeTree{}, nil
	}
	return s.tree, nil
}

func (s *fakeScene) SetProperty(_ context.Context, req host.SetPropertyRequest) error {
	s.sets = append(s.sets, req)
	return nil
}

func (s *fakeScene) Snapshot(context.Context) error { return nil }

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
	props   string
	written map[string]any
}

func (c *fakeCapability) Name() string      { return c.name }
func (c *fakeCapability) ClassName() string { return "Fake" }

func (c *fakeCapability) GetProperties(context.Context, *host.AssetInfo) (*propgraph.Graph, error) {
	return propgraph.DecodeGraph([]byte(c.props))
}

func (c *fakeCapability) SetProperty(_ context.Context, _ *host.AssetInfo, path string, value any) (bool, error) {
	if c.written == nil {
		c.written = map[string]any{}
	}
	c.written[path] = value
	return true, nil
}

type fixture struct {
	scene    *fakeScene
	texture  *fakeCapability
	settings *fakeCapability
	commits  []apply.Mutation
	insp     *Inspector
}

func newFixture() *fixture {
	f := &fixture{
		scene: &fakeScene{
			nodes:      map[string]string{"node-1": nodeDump, "scene-1": sceneDump},
			components: map[string]string{"comp-1": componentDump},
			tree:       &host.NodeTree{UUID: "scene-1", Name: "Main"},
		},
		texture: &fakeCapability{
			name:  "texture",
			props: `{"wrapModeS": {"value": "repeat", "type": "String", "visible": true}}`,
		},
		settings: &fakeCapability{
			name:  instance.ProjectSettingsImporter,
			props: `{"general": {"value": {"fitWidth": {"value": true, "type": "Boolean"}}, "type": "Object"}}`,
		},
	}
	assets := fakeAssets{
		"tex-1":   {UUID: "tex-1", Type: "cc.Texture2D", Importer: "texture"},
		"audio-1": {UUID: "audio-1", Type: "cc.AudioClip", Importer: "audio-clip"},
	}
	f.insp = New(Config{
		Scene:     f.scene,
		Assets:    assets,
		Importers: importers.NewRegistry(f.texture, f.settings),
		Observers: []apply.Observer{apply.ObserverFunc(func(_ context.Context, m apply.Mutation) {
			f.commits = append(f.commits, m)
		})},
	})
	return f
}

func TestInspect_Order(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		id    string
		kind  instance.Kind
		typ   string
		uuid  string
		class string
	}{
		{"node-1", instance.KindNode, "cc.Node", "node-1", "cc.Node"},
		{"comp-1", instance.KindComponent, "cc.Sprite", "comp-1", "cc.Sprite"},
		{"tex-1", instance.KindAsset, "cc.Texture2D", "tex-1", "cc.Texture2DImporter"},
		{instance.SceneGlobalsID, instance.KindSceneGlobals, instance.TypeSceneGlobals, "scene-1", "cc.SceneGlobals"},
		{instance.ProjectSettingsID, instance.KindAsset, instance.TypeProjectSettings, instance.ProjectSettingsID, "ProjectSettingsImporter"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			inst, err := f.insp.Inspect(ctx, tt.id, true)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, inst.Kind)
			assert.Equal(t, tt.typ, inst.Type)
			assert.Equal(t, tt.uuid, inst.UUID)
			assert.Equal(t, tt.class, inst.ClassName())
			assert.NotNil(t, inst.Props)
		})
	}
}

func TestInspect_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.insp.Inspect(context.Background(), "nope", true)
	assert.ErrorIs(t, err, propgraph.ErrNotFound)
}

func TestInspect_TransportErrorSurfaces(t *testing.T) {
	f := newFixture()
	f.scene.failOn = errors.New("connection reset")

	_, err := f.insp.Inspect(context.Background(), "node-1", true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, propgraph.ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestInspect_NoOpenScene(t *testing.T) {
	f := newFixture()
	f.scene.tree = nil

	_, err := f.insp.Inspect(context.Background(), instance.SceneGlobalsID, true)
	assert.ErrorIs(t, err, propgraph.ErrNotFound)
}

func TestGet_NodeAdaptation(t *testing.T) {
	f := newFixture()

	got, err := f.insp.Get(context.Background(), "node-1")
	require.NoError(t, err)

	plain := got.Interface().(map[string]any)
	assert.Equal(t, "Player", plain["name"])
	assert.Equal(t, []any{map[string]any{"id": "comp-1"}}, plain["__comps__"])
	assert.Equal(t, []any{}, plain["children"])
	assert.NotContains(t, plain, "__type__")
	assert.NotContains(t, plain, "parent")

	keys := got.Fields.Keys()
	assert.Equal(t, []string{"name", "active", "position", "__comps__", "children"}, keys)
}

func TestGet_ComponentEnabledVisible(t *testing.T) {
	f := newFixture()

	got, err := f.insp.Get(context.Background(), "comp-1")
	require.NoError(t, err)

	plain := got.Interface().(map[string]any)
	assert.Equal(t, true, plain["enabled"])
	assert.Equal(t, map[string]any{"uuid": "node-1"}, plain["node"])
}

func TestGet_SceneGlobals(t *testing.T) {
	f := newFixture()

	got, err := f.insp.Get(context.Background(), instance.SceneGlobalsID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"ambient": map[string]any{"skyIllum": float64(20000)},
		"shadows": map[string]any{"enabled": false},
	}, got.Interface())
}

func TestGet_AssetWithoutImporter(t *testing.T) {
	f := newFixture()

	_, err := f.insp.Get(context.Background(), "audio-1")
	assert.ErrorIs(t, err, propgraph.ErrImporterNotHandled)
}

func TestSet_CountMismatchBeforeLookup(t *testing.T) {
	f := newFixture()

	err := f.insp.Set(context.Background(), "nope", []string{"a", "b"}, []any{1})
	assert.ErrorIs(t, err, propgraph.ErrCountMismatch)
}

func TestSet_NodeIsNotAdapted(t *testing.T) {
	f := newFixture()

	err := f.insp.Set(context.Background(), "node-1",
		[]string{"name", "__comps__.0.enabled"},
		[]any{"Hero", "false"})
	require.NoError(t, err)

	require.Len(t, f.scene.sets, 2)
	assert.Equal(t, "name", f.scene.sets[0].Path)
	assert.Equal(t, "Hero", f.scene.sets[0].Dump.Value)
	assert.Equal(t, "__comps__.0.enabled", f.scene.sets[1].Path)
	assert.Equal(t, false, f.scene.sets[1].Dump.Value)
	assert.Len(t, f.commits, 2)
}

func TestSet_Component(t *testing.T) {
	f := newFixture()

	err := f.insp.Set(context.Background(), "comp-1", []string{"color.r"}, []any{"128"})
	require.NoError(t, err)

	require.Len(t, f.scene.sets, 1)
	assert.Equal(t, "node-1", f.scene.sets[0].UUID)
	assert.Equal(t, "__comps__.0.color.r", f.scene.sets[0].Path)
	assert.Equal(t, float64(128), f.scene.sets[0].Dump.Value)
}

func TestSet_SceneGlobals(t *testing.T) {
	f := newFixture()

	err := f.insp.Set(context.Background(), instance.SceneGlobalsID, []string{"shadows.enabled"}, []any{"true"})
	require.NoError(t, err)

	require.Len(t, f.scene.sets, 1)
	assert.Equal(t, "scene-1", f.scene.sets[0].UUID)
	assert.Equal(t, "_globals.shadows.enabled", f.scene.sets[0].Path)
	assert.Equal(t, true, f.scene.sets[0].Dump.Value)
}

func TestSet_AssetAndSettings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.insp.Set(ctx, "tex-1", []string{"wrapModeS"}, []any{"clamp-to-edge"}))
	assert.Equal(t, "clamp-to-edge", f.texture.written["wrapModeS"])

	require.NoError(t, f.insp.Set(ctx, instance.ProjectSettingsID, []string{"general.fitWidth"}, []any{"false"}))
	assert.Equal(t, false, f.settings.written["general.fitWidth"])
}

func TestSet_PartialFailure(t *testing.T) {
	f := newFixture()

	err := f.insp.Set(context.Background(), "node-1",
		[]string{"missing.path", "name"},
		[]any{1, "Hero"})

	var se *apply.SetError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"missing.path"}, se.Paths())
	require.Len(t, f.scene.sets, 1)
	assert.Equal(t, "name", f.scene.sets[0].Path)
}

func TestDefinition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	def, err := f.insp.Definition(ctx, "node-1")
	require.NoError(t, err)
	assert.Contains(t, def, "class Node")
	assert.Contains(t, def, "__comps__")

	def, err = f.insp.Definition(ctx, "tex-1")
	require.NoError(t, err)
	assert.Contains(t, def, "class Texture2DImporter")
	assert.Contains(t, def, "wrapModeS")

	_, err = f.insp.Definition(ctx, "nope")
	assert.ErrorIs(t, err, propgraph.ErrNotFound)
}

func TestSettingsDefinition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	def, err := f.insp.SettingsDefinition(ctx, instance.CommonTypesID)
	require.NoError(t, err)
	assert.Equal(t, typedef.CommonTypes, def)

	def, err = f.insp.SettingsDefinition(ctx, instance.SceneGlobalsID)
	require.NoError(t, err)
	assert.Contains(t, def, "class SceneGlobals")

	def, err = f.insp.SettingsDefinition(ctx, instance.ProjectSettingsID)
	require.NoError(t, err)
	assert.Contains(t, def, "class ProjectSettingsImporter")
	assert.Contains(t, def, "general")

	_, err = f.insp.SettingsDefinition(ctx, "Bogus")
	assert.ErrorIs(t, err, propgraph.ErrNotFound)
}
