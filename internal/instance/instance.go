// Package instance describes one inspected editor object: a scene node, a
// component, an asset or one of the settings pseudo-instances.
package instance

import (
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// Special instance ids
const (
	SceneGlobalsID    = "CurrentSceneGlobals"
	ProjectSettingsID = "ProjectSettings"
	CommonTypesID     = "CommonTypes"
)

// Declared types of the pseudo-instances
const (
	TypeSceneGlobals    = "cc.SceneGlobals"
	TypeProjectSettings = "ProjectSettings"
	TypeNode            = "cc.Node"
	TypeComponent       = "cc.Component"
)

// ProjectSettingsImporter is the importer serving the ProjectSettings id.
const ProjectSettingsImporter = "project-settings"

// Kind tells how an instance is mutated.
type Kind int

const (
	KindNode Kind = iota
	KindComponent
	KindSceneGlobals
	KindAsset
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindComponent:
		return "component"
	case KindSceneGlobals:
		return "scene-globals"
	case KindAsset:
		return "asset"
	}
	return "unknown"
}

// Instance is the result of inspecting an id.
type Instance struct {
	ID    string // id as requested
	UUID  string // uuid used for mutations (the scene uuid for scene globals)
	Type  string
	Kind  Kind
	Props *propgraph.Graph
	Asset *host.AssetInfo // set for asset-backed instances
}

// AssetBacked reports whether mutations go through an importer.
func (i *Instance) AssetBacked() bool {
	return i.Asset != nil
}

// ClassName is the root class name used for type definitions.
func (i *Instance) ClassName() string {
	if i.AssetBacked() {
		return i.Type + "Importer"
	}
	return i.Type
}

// ProjectSettingsAsset is the asset record standing in for project settings.
func ProjectSettingsAsset() *host.AssetInfo {
	return &host.AssetInfo{
		UUID:     ProjectSettingsID,
		Type:     TypeProjectSettings,
		Importer: ProjectSettingsImporter,
	}
}

// IsSettingsID reports whether id names a settings pseudo-instance.
func IsSettingsID(id string) bool {
	return id == SceneGlobalsID || id == ProjectSettingsID
}
