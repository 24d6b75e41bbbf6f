// Package importers adapts each asset category's private metadata shape to
// the common property graph, and writes property edits back.
package importers

import (
	"context"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// Capability is the adapter for one asset category.
type Capability interface {
	// Name is the importer name recorded in asset info (texture, material, ...).
	Name() string

	// ClassName is the class name used for the category's type definition.
	ClassName() string

	// GetProperties builds the property graph of an asset.
	GetProperties(ctx context.Context, asset *host.AssetInfo) (*propgraph.Graph, error)

	// SetProperty writes one value. It returns false when the path is not
	// recognized by the category.
	SetProperty(ctx context.Context, asset *host.AssetInfo, path string, value any) (bool, error)
}

// Registry maps importer names to capabilities. It is immutable once built
// and safe for concurrent use.
type Registry struct {
	byName map[string]Capability
}

// NewRegistry builds a registry. A later capability with the same name
// replaces an earlier one.
func NewRegistry(caps ...Capability) *Registry {
	r := &Registry{byName: make(map[string]Capability, len(caps))}
	for _, c := range caps {
		if c == nil {
			continue
		}
		r.byName[c.Name()] = c
	}
	return r
}

// Get returns the capability registered under name.
func (r *Registry) Get(name string) (Capability, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.byName[name]
	return c, ok
}

// Names returns the registered importer names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Deps are the collaborators the built-in capabilities need.
type Deps struct {
	Assets   host.AssetDB
	Material host.MaterialHost
	Physics  host.PhysicsHost
	Project  host.ProjectHost
	Files    afero.Fs
}

// Default registers every built-in capability.
func Default(d Deps) *Registry {
	return NewRegistry(
		NewProjectSettingsImporter(d.Project),
		NewMaterialImporter(d.Material),
		NewScriptImporter(d.Files),
		NewPrefabImporter(d.Assets),
		NewImageImporter(d.Assets),
		NewTextureImporter(d.Assets),
		NewSpriteFrameImporter(d.Assets),
		NewTextureCubeImporter(d.Assets),
		NewErpTextureCubeImporter(d.Assets),
		NewRenderTextureImporter(d.Assets),
		NewPhysicsMaterialImporter(d.Physics),
		NewFbxImporter(d.Assets),
		NewGltfImporter(d.Assets),
		NewDirectoryImporter(d.Assets),
		NewAutoAtlasImporter(d.Assets),
	)
}

// defaultClassName derives "TextureAssetImporter" from "texture" and
// "SpriteFrameAssetImporter" from "sprite-frame".
func defaultClassName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	b.WriteString("AssetImporter")
	return b.String()
}
