package importers

import (
	"context"
	"errors"
	"fmt"

	"github.com/creatorbridge/creatorbridge/internal/dumppath"
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// ErrUserDataMissing is returned when an asset meta has no importer user data
var ErrUserDataMissing = errors.New("user data not found")

// wrapped builds a Wrapped node from a schema and a decoded JSON value.
func wrapped(schema *propgraph.Schema, value any) *propgraph.Node {
	v, err := propgraph.FromValue(value)
	if err != nil {
		v = propgraph.Null()
	}
	return propgraph.Wrap(schema, v)
}

// choices builds enum items whose names equal their values.
func choices(values ...string) []propgraph.EnumItem {
	out := make([]propgraph.EnumItem, 0, len(values))
	for _, v := range values {
		out = append(out, propgraph.EnumItem{Name: v, Value: v})
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

// truthy mirrors the loose boolean reading of meta flags.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// loadUserData fetches an asset's meta and its user data.
func loadUserData(ctx context.Context, assets host.AssetDB, asset *host.AssetInfo) (host.AssetMeta, map[string]any, error) {
	meta, err := assets.QueryAssetMeta(ctx, asset.UUID)
	if err != nil {
		return nil, nil, fmt.Errorf("asset meta %s: %w", asset.UUID, err)
	}
	ud := meta.UserData()
	if ud == nil {
		return meta, nil, fmt.Errorf("asset %s: %w: %w", asset.UUID, ErrUserDataMissing, propgraph.ErrParse)
	}
	return meta, ud, nil
}

// editUserData loads an asset meta, lets edit change its user data and saves
// the meta when edit reports the path as handled. With create set, missing
// user data is created instead of declining the edit.
func editUserData(ctx context.Context, assets host.AssetDB, asset *host.AssetInfo, create bool,
	edit func(meta host.AssetMeta, ud map[string]any) bool) (bool, error) {
	meta, err := assets.QueryAssetMeta(ctx, asset.UUID)
	if errors.Is(err, propgraph.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ud := meta.UserData()
	if ud == nil {
		if !create {
			return false, nil
		}
		ud = meta.EnsureUserData()
	}

	if !edit(meta, ud) {
		return false, nil
	}
	if err := assets.SaveAssetMeta(ctx, asset.UUID, meta); err != nil {
		return false, fmt.Errorf("save meta %s: %w", asset.UUID, err)
	}
	return true, nil
}

// setPath assigns value at a dotted path; it reports false when an
// intermediate container is missing.
func setPath(root map[string]any, path string, value any, opts ...dumppath.Option) bool {
	return dumppath.Set(root, path, value, opts...) == nil
}

// userDataImporter serves categories whose properties are a flat projection
// of the meta user data and whose edits are plain path assignments.
type userDataImporter struct {
	name      string
	className string
	assets    host.AssetDB
	build     func(meta host.AssetMeta, ud map[string]any) *propgraph.Graph
	apply     func(ud map[string]any, path string, value any) bool
	create    bool // create missing user data and intermediate objects
}

func (i *userDataImporter) Name() string { return i.name }

func (i *userDataImporter) ClassName() string {
	if i.className != "" {
		return i.className
	}
	return defaultClassName(i.name)
}

func (i *userDataImporter) GetProperties(ctx context.Context, asset *host.AssetInfo) (*propgraph.Graph, error) {
	if i.create {
		meta, err := i.assets.QueryAssetMeta(ctx, asset.UUID)
		if err != nil {
			return nil, fmt.Errorf("asset meta %s: %w", asset.UUID, err)
		}
		ud := meta.UserData()
		if ud == nil {
			ud = map[string]any{}
		}
		return i.build(meta, ud), nil
	}

	meta, ud, err := loadUserData(ctx, i.assets, asset)
	if err != nil {
		return nil, err
	}
	return i.build(meta, ud), nil
}

func (i *userDataImporter) SetProperty(ctx context.Context, asset *host.AssetInfo, path string, value any) (bool, error) {
	return editUserData(ctx, i.assets, asset, i.create, func(_ host.AssetMeta, ud map[string]any) bool {
		if i.apply != nil && i.apply(ud, path, value) {
			return true
		}
		if i.create {
			return setPath(ud, path, value, dumppath.CreateMissing())
		}
		return setPath(ud, path, value)
	})
}
