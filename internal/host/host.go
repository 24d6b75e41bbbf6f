// Package host defines the editor collaborators the property engine talks to:
// a single request bus (Messenger), a typed client over it, and the narrow
// interfaces each consumer accepts.
package host

import (
	"context"
	"encoding/json"

	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// Editor message channels
const (
	ChannelScene     = "scene"
	ChannelAssetDB   = "asset-db"
	ChannelProject   = "project"
	ChannelBroadcast = "broadcast"
)

// Editor messages
const (
	MsgQueryNode             = "query-node"
	MsgQueryComponent        = "query-component"
	MsgQueryNodeTree         = "query-node-tree"
	MsgSetProperty           = "set-property"
	MsgSnapshot              = "snapshot"
	MsgQueryMaterial         = "query-material"
	MsgApplyMaterial         = "apply-material"
	MsgQueryAllEffects       = "query-all-effects"
	MsgQueryPhysicsMaterial  = "query-physics-material"
	MsgChangePhysicsMaterial = "change-physics-material"
	MsgApplyPhysicsMaterial  = "apply-physics-material"
	MsgQueryAssetInfo        = "query-asset-info"
	MsgQueryAssetMeta        = "query-asset-meta"
	MsgSaveAssetMeta         = "save-asset-meta"
	MsgQueryConfig           = "query-config"
	MsgSetConfig             = "set-config"
)

// MsgMaterialChanged is broadcast after a material dump is applied.
const MsgMaterialChanged = "material-inspector:change-dump"

// ProjectConfigScope is the config scope holding project settings.
const ProjectConfigScope = "project"

// Messenger sends one request over the editor message bus and returns the raw
// JSON reply. A null reply is returned as "null", not as an error.
type Messenger interface {
	Request(ctx context.Context, channel, message string, args ...any) (json.RawMessage, error)
}

// MessengerFunc adapts a function to the Messenger interface.
type MessengerFunc func(ctx context.Context, channel, message string, args ...any) (json.RawMessage, error)

// Request calls f
func (f MessengerFunc) Request(ctx context.Context, channel, message string, args ...any) (json.RawMessage, error) {
	return f(ctx, channel, message, args...)
}

// SceneHost is the live scene collaborator.
type SceneHost interface {
	QueryNode(ctx context.Context, uuid string) (*propgraph.Node, error)
	QueryComponent(ctx context.Context, uuid string) (*propgraph.Node, error)
	QueryNodeTree(ctx context.Context) (*NodeTree, error)
	SetProperty(ctx context.Context, req SetPropertyRequest) error
	Snapshot(ctx context.Context) error
}

// AssetDB is the asset database collaborator.
type AssetDB interface {
	QueryAssetInfo(ctx context.Context, uuid string) (*AssetInfo, error)
	QueryAssetMeta(ctx context.Context, uuid string) (AssetMeta, error)
	SaveAssetMeta(ctx context.Context, uuid string, meta AssetMeta) error
}

// MaterialHost edits material assets through the scene process.
type MaterialHost interface {
	QueryMaterial(ctx context.Context, uuid string) (map[string]any, error)
	ApplyMaterial(ctx context.Context, uuid string, dump map[string]any) error
	QueryAllEffects(ctx context.Context) ([]Effect, error)
	Broadcast(ctx context.Context, message string, args ...any) error
}

// PhysicsHost edits physics material assets.
type PhysicsHost interface {
	QueryPhysicsMaterial(ctx context.Context, uuid string) (json.RawMessage, error)
	ChangePhysicsMaterial(ctx context.Context, dump map[string]any) (map[string]any, error)
	ApplyPhysicsMaterial(ctx context.Context, uuid string, dump map[string]any) error
}

// ProjectHost reads and writes project configuration.
type ProjectHost interface {
	QueryProjectConfig(ctx context.Context) (map[string]any, error)
	SetProjectConfig(ctx context.Context, path string, value any) error
}

// Editor is every collaborator the engine uses.
type Editor interface {
	SceneHost
	AssetDB
	MaterialHost
	PhysicsHost
	ProjectHost
}

// NodeTree is the scene hierarchy as returned by query-node-tree.
type NodeTree struct {
	UUID     string      `json:"uuid"`
	Name     string      `json:"name"`
	Type     string      `json:"type,omitempty"`
	Children []*NodeTree `json:"children,omitempty"`
}

// PropertyDump is the value envelope of a set-property request.
type PropertyDump struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

// SetPropertyRequest commits one value on a live node.
type SetPropertyRequest struct {
	UUID string       `json:"uuid"`
	Path string       `json:"path"`
	Dump PropertyDump `json:"dump"`
}

// AssetInfo describes one asset known to the asset database.
type AssetInfo struct {
	UUID      string                `json:"uuid"`
	Name      string                `json:"name,omitempty"`
	Type      string                `json:"type"`
	Importer  string                `json:"importer"`
	File      string                `json:"file,omitempty"`
	URL       string                `json:"url,omitempty"`
	SubAssets map[string]*AssetInfo `json:"subAssets,omitempty"`
}

// Effect is one shader effect known to the editor.
type Effect struct {
	Name         string `json:"name"`
	UUID         string `json:"uuid"`
	HideInEditor bool   `json:"hideInEditor,omitempty"`
}
