package importers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// fakeEditor is an in-memory editor. Documents are round-tripped through
// JSON so importers see the same shapes a real reply decodes to.
type fakeEditor struct {
	metas     map[string]host.AssetMeta
	saved     map[string]host.AssetMeta
	materials map[string]map[string]any
	applied   map[string]map[string]any
	effects   []host.Effect
	broadcast []string
	physics   map[string]string
	config    map[string]any
	configSet []configWrite
}

type configWrite struct {
	path  string
	value any
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{
		metas:     map[string]host.AssetMeta{},
		saved:     map[string]host.AssetMeta{},
		materials: map[string]map[string]any{},
		applied:   map[string]map[string]any{},
		physics:   map[string]string{},
		config:    map[string]any{},
	}
}

func clone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}

func (f *fakeEditor) withMeta(uuid, doc string) *fakeEditor {
	var meta host.AssetMeta
	if err := json.Unmarshal([]byte(doc), &meta); err != nil {
		panic(err)
	}
	f.metas[uuid] = meta
	return f
}

func (f *fakeEditor) QueryAssetInfo(_ context.Context, uuid string) (*host.AssetInfo, error) {
	meta, ok := f.metas[uuid]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", uuid, propgraph.ErrNotFound)
	}
	return &host.AssetInfo{UUID: uuid, Importer: meta.Importer()}, nil
}

func (f *fakeEditor) QueryAssetMeta(_ context.Context, uuid string) (host.AssetMeta, error) {
	meta, ok := f.metas[uuid]
	if !ok {
		return nil, fmt.Errorf("meta %s: %w", uuid, propgraph.ErrNotFound)
	}
	return clone(meta), nil
}

func (f *fakeEditor) SaveAssetMeta(_ context.Context, uuid string, meta host.AssetMeta) error {
	f.saved[uuid] = clone(meta)
	f.metas[uuid] = clone(meta)
	return nil
}

func (f *fakeEditor) QueryMaterial(_ context.Context, uuid string) (map[string]any, error) {
	m, ok := f.materials[uuid]
	if !ok {
		return nil, fmt.Errorf("material %s: %w", uuid, propgraph.ErrNotFound)
	}
	return clone(m), nil
}

func (f *fakeEditor) ApplyMaterial(_ context.Context, uuid string, dump map[string]any) error {
	f.applied[uuid] = clone(dump)
	return nil
}

func (f *fakeEditor) QueryAllEffects(context.Context) ([]host.Effect, error) {
	return f.effects, nil
}

func (f *fakeEditor) Broadcast(_ context.Context, message string, _ ...any) error {
	f.broadcast = append(f.broadcast, message)
	return nil
}

func (f *fakeEditor) QueryPhysicsMaterial(_ context.Context, uuid string) (json.RawMessage, error) {
	doc, ok := f.physics[uuid]
	if !ok {
		return nil, fmt.Errorf("physics material %s: %w", uuid, propgraph.ErrNotFound)
	}
	return json.RawMessage(doc), nil
}

func (f *fakeEditor) ChangePhysicsMaterial(_ context.Context, dump map[string]any) (map[string]any, error) {
	return dump, nil
}

func (f *fakeEditor) ApplyPhysicsMaterial(_ context.Context, uuid string, dump map[string]any) error {
	data, err := json.Marshal(dump)
	if err != nil {
		return err
	}
	f.physics[uuid] = string(data)
	return nil
}

func (f *fakeEditor) QueryProjectConfig(context.Context) (map[string]any, error) {
	return clone(f.config), nil
}

func (f *fakeEditor) SetProjectConfig(_ context.Context, path string, value any) error {
	f.configSet = append(f.configSet, configWrite{path, clone(value)})
	return nil
}

// leaf resolves path in g and returns the plain value of the resolved node.
func leaf(g *propgraph.Graph, path string) any {
	n, err := propgraph.Resolve(g, path)
	if err != nil {
		panic(err)
	}
	return propgraph.Unwrap(n).Interface()
}
