package sim

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/inspector"
	"github.com/creatorbridge/creatorbridge/internal/instance"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
	"github.com/creatorbridge/creatorbridge/internal/store"
)

func seeded(t *testing.T, s store.Store) *Editor {
	t.Helper()
	f, err := DemoFixture()
	require.NoError(t, err)

	ed := New(Config{Store: s})
	require.NoError(t, ed.Seed(context.Background(), f))
	return ed
}

func redisStore(t *testing.T) store.Store {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return store.NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), store.DefaultConfig())
}

func newInspector(ed *Editor) *inspector.Inspector {
	return inspector.FromMessenger(ed, afero.NewMemMapFs(), inspector.Config{})
}

func TestParseFixture_YAMLKeepsOrder(t *testing.T) {
	f, err := ParseFixture([]byte(`
nodes:
  n1:
    zeta: {value: 1, type: Number}
    alpha: {value: two, type: String}
    mid: [1, 2.5, true, null]
`), "x.yml")
	require.NoError(t, err)

	n, err := propgraph.Decode(f.Nodes["n1"])
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, n.Fields.Keys())
	mid, _ := n.Field("mid")
	assert.Equal(t, []any{1.0, 2.5, true, nil}, mid.Interface())
}

func TestParseFixture_JSON(t *testing.T) {
	f, err := ParseFixture([]byte(`{"tree": {"uuid": "s"}, "effects": []}`), "x.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid": "s"}`, string(f.Tree))
}

func TestLoadFixture(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/scene.yaml", []byte("tree: {uuid: s, name: S}\n"), 0o644))

	f, err := LoadFixture(fs, "/p/scene.yaml")
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid": "s", "name": "S"}`, string(f.Tree))

	_, err = LoadFixture(fs, "/p/missing.yaml")
	assert.Error(t, err)
}

func TestEditor_Messages(t *testing.T) {
	ed := seeded(t, store.NewMemoryStore())
	ctx := context.Background()

	raw, err := ed.Request(ctx, host.ChannelScene, host.MsgQueryNode, "nope")
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	raw, err = ed.Request(ctx, host.ChannelScene, host.MsgQueryComponent, "comp-sprite")
	require.NoError(t, err)
	comp, err := propgraph.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "cc.Sprite", comp.Schema.Type)

	_, err = ed.Request(ctx, host.ChannelScene, "no-such-message")
	var re *host.RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "unknown message", re.Reason)

	_, err = ed.Request(ctx, host.ChannelBroadcast, "anything", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"anything"}, ed.Broadcasts())
}

func TestEditor_SetPropertyKeepsOrderAndWrappers(t *testing.T) {
	ed := seeded(t, store.NewMemoryStore())
	ctx := context.Background()
	client := host.NewClient(ed, nil)

	require.NoError(t, client.SetProperty(ctx, host.SetPropertyRequest{
		UUID: "node-player",
		Path: "__comps__.0.color.r",
		Dump: host.PropertyDump{Value: 10, Type: "Number"},
	}))
	require.NoError(t, client.SetProperty(ctx, host.SetPropertyRequest{
		UUID: "node-player",
		Path: "__comps__.0.customMaterials.0",
		Dump: host.PropertyDump{Value: map[string]any{"uuid": "mat-hero"}, Type: "cc.Material"},
	}))

	node, err := client.QueryNode(ctx, "node-player")
	require.NoError(t, err)
	assert.Equal(t, "name", node.Fields.Keys()[0])

	r, err := propgraph.Resolve(propgraph.GraphOf(node), "__comps__.0.color.r")
	require.NoError(t, err)
	assert.Equal(t, 10.0, propgraph.Unwrap(r).Interface())

	// the appended element takes the element type data
	m, err := propgraph.Resolve(propgraph.GraphOf(node), "__comps__.0.customMaterials.0")
	require.NoError(t, err)
	require.True(t, m.IsWrapped())
	assert.Equal(t, "cc.Material", m.Schema.Type)

	err = client.SetProperty(ctx, host.SetPropertyRequest{UUID: "node-player", Path: "missing", Dump: host.PropertyDump{Value: 1}})
	assert.Error(t, err)
}

func TestEditor_SetConfigCreatesPath(t *testing.T) {
	ed := seeded(t, store.NewMemoryStore())
	ctx := context.Background()
	client := host.NewClient(ed, nil)

	require.NoError(t, client.SetProjectConfig(ctx, "general.highQuality", true))
	cfg, err := client.QueryProjectConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, cfg["general"].(map[string]any)["highQuality"])
}

func TestEditor_SaveMetaRejectsInvalid(t *testing.T) {
	ed := seeded(t, store.NewMemoryStore())

	_, err := ed.Request(context.Background(), host.ChannelAssetDB, host.MsgSaveAssetMeta, "img-hero", "{not json")
	assert.Error(t, err)
}

func TestEndToEnd(t *testing.T) {
	backends := map[string]func(t *testing.T) store.Store{
		"memory": func(*testing.T) store.Store { return store.NewMemoryStore() },
		"redis":  redisStore,
	}
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			ed := seeded(t, mk(t))
			insp := newInspector(ed)
			ctx := context.Background()

			// live node
			require.NoError(t, insp.Set(ctx, "node-player", []string{"name", "position.y"}, []any{"Hero", "64"}))
			got, err := insp.Get(ctx, "node-player")
			require.NoError(t, err)
			plain := got.Interface().(map[string]any)
			assert.Equal(t, "Hero", plain["name"])
			assert.Equal(t, 64.0, plain["position"].(map[string]any)["y"])
			assert.NotContains(t, plain, "rotation")
			assert.Equal(t, 2, ed.Snapshots())

			// component through its owner node
			require.NoError(t, insp.Set(ctx, "comp-sprite", []string{"sizeMode"}, []any{"2"}))
			got, err = insp.Get(ctx, "comp-sprite")
			require.NoError(t, err)
			assert.Equal(t, 2.0, got.Interface().(map[string]any)["sizeMode"])

			// asset reference resolved to the sub-asset of the declared type
			require.NoError(t, insp.Set(ctx, "comp-sprite", []string{"spriteFrame"}, []any{"img-hero"}))
			got, err = insp.Get(ctx, "comp-sprite")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"uuid": "img-hero@f9941"}, got.Interface().(map[string]any)["spriteFrame"])

			// scene globals
			require.NoError(t, insp.Set(ctx, instance.SceneGlobalsID, []string{"fog.enabled"}, []any{"true"}))
			got, err = insp.Get(ctx, instance.SceneGlobalsID)
			require.NoError(t, err)
			assert.Equal(t, true, got.Interface().(map[string]any)["fog"].(map[string]any)["enabled"])

			// asset meta through the texture importer
			require.NoError(t, insp.Set(ctx, "img-hero@6c48a", []string{"wrapMode"}, []any{"Repeat"}))
			raw, err := ed.Request(ctx, host.ChannelAssetDB, host.MsgQueryAssetMeta, "img-hero@6c48a")
			require.NoError(t, err)
			var meta host.AssetMeta
			require.NoError(t, json.Unmarshal(raw, &meta))
			assert.Equal(t, "repeat", meta.UserData()["wrapModeS"])

			// project settings
			require.NoError(t, insp.Set(ctx, instance.ProjectSettingsID, []string{"general.fitHeight"}, []any{"true"}))
			got, err = insp.Get(ctx, instance.ProjectSettingsID)
			require.NoError(t, err)
			general := got.Interface().(map[string]any)["general"].(map[string]any)
			assert.Equal(t, true, general["fitHeight"])

			// definitions
			def, err := insp.Definition(ctx, "comp-sprite")
			require.NoError(t, err)
			assert.Contains(t, def, "class Sprite")
			assert.Contains(t, def, "spriteFrame")

			def, err = insp.Definition(ctx, "mat-hero")
			require.NoError(t, err)
			assert.Contains(t, def, "class MaterialImporter")
		})
	}
}
