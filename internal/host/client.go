package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// RequestError is returned when the editor rejects a request.
type RequestError struct {
	Channel string
	Message string
	Reason  string
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return fmt.Sprintf("editor request %s/%s failed: %s", e.Channel, e.Message, e.Reason)
}

// Client is a typed editor client built on a Messenger.
type Client struct {
	messenger Messenger
	logger    *zap.Logger
}

// NewClient creates a typed client. A nil logger disables logging.
func NewClient(m Messenger, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{messenger: m, logger: logger}
}

var _ Editor = (*Client)(nil)

func (c *Client) request(ctx context.Context, channel, message string, args ...any) (json.RawMessage, error) {
	c.logger.Debug("editor request",
		zap.String("channel", channel),
		zap.String("message", message),
		zap.Int("args", len(args)),
	)
	raw, err := c.messenger.Request(ctx, channel, message, args...)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", channel, message, err)
	}
	return raw, nil
}

// into decodes a reply into out. A null or empty reply yields ErrNotFound.
func (c *Client) into(ctx context.Context, out any, channel, message string, args ...any) error {
	raw, err := c.request(ctx, channel, message, args...)
	if err != nil {
		return err
	}
	if isNull(raw) {
		return fmt.Errorf("%s/%s: %w", channel, message, propgraph.ErrNotFound)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s/%s: decode reply: %w", channel, message, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func (c *Client) dump(ctx context.Context, channel, message string, args ...any) (*propgraph.Node, error) {
	raw, err := c.request(ctx, channel, message, args...)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, fmt.Errorf("%s/%s: %w", channel, message, propgraph.ErrNotFound)
	}
	return propgraph.Decode(raw)
}

// QueryNode returns the dump of a scene node.
func (c *Client) QueryNode(ctx context.Context, uuid string) (*propgraph.Node, error) {
	return c.dump(ctx, ChannelScene, MsgQueryNode, uuid)
}

// QueryComponent returns the dump of a component.
func (c *Client) QueryComponent(ctx context.Context, uuid string) (*propgraph.Node, error) {
	return c.dump(ctx, ChannelScene, MsgQueryComponent, uuid)
}

// QueryNodeTree returns the hierarchy of the open scene.
func (c *Client) QueryNodeTree(ctx context.Context) (*NodeTree, error) {
	var tree NodeTree
	if err := c.into(ctx, &tree, ChannelScene, MsgQueryNodeTree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// SetProperty commits a value on a live node.
func (c *Client) SetProperty(ctx context.Context, req SetPropertyRequest) error {
	_, err := c.request(ctx, ChannelScene, MsgSetProperty, req)
	return err
}

// Snapshot records an undo checkpoint.
func (c *Client) Snapshot(ctx context.Context) error {
	_, err := c.request(ctx, ChannelScene, MsgSnapshot)
	return err
}

// QueryAssetInfo returns the asset record for uuid.
func (c *Client) QueryAssetInfo(ctx context.Context, uuid string) (*AssetInfo, error) {
	var info AssetInfo
	if err := c.into(ctx, &info, ChannelAssetDB, MsgQueryAssetInfo, uuid); err != nil {
		return nil, err
	}
	return &info, nil
}

// QueryAssetMeta returns the meta document of an asset.
func (c *Client) QueryAssetMeta(ctx context.Context, uuid string) (AssetMeta, error) {
	var meta AssetMeta
	if err := c.into(ctx, &meta, ChannelAssetDB, MsgQueryAssetMeta, uuid); err != nil {
		return nil, err
	}
	return meta, nil
}

// SaveAssetMeta writes the meta document back. The editor expects it
// serialized as a JSON string.
func (c *Client) SaveAssetMeta(ctx context.Context, uuid string, meta AssetMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	_, err = c.request(ctx, ChannelAssetDB, MsgSaveAssetMeta, uuid, string(data))
	return err
}

// QueryMaterial returns the editable dump of a material.
func (c *Client) QueryMaterial(ctx context.Context, uuid string) (map[string]any, error) {
	var dump map[string]any
	if err := c.into(ctx, &dump, ChannelScene, MsgQueryMaterial, uuid); err != nil {
		return nil, err
	}
	return dump, nil
}

// ApplyMaterial writes a material dump back.
func (c *Client) ApplyMaterial(ctx context.Context, uuid string, dump map[string]any) error {
	_, err := c.request(ctx, ChannelScene, MsgApplyMaterial, uuid, dump)
	return err
}

// QueryAllEffects returns every effect. The editor replies with either a
// list or a name-keyed map; both are accepted.
func (c *Client) QueryAllEffects(ctx context.Context) ([]Effect, error) {
	raw, err := c.request(ctx, ChannelScene, MsgQueryAllEffects)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var list []Effect
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var byName map[string]Effect
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("%s/%s: decode reply: %w", ChannelScene, MsgQueryAllEffects, err)
	}
	keys := make([]string, 0, len(byName))
	for k := range byName {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := byName[k]
		if e.Name == "" {
			e.Name = k
		}
		list = append(list, e)
	}
	return list, nil
}

// Broadcast sends a fire-and-forget editor broadcast.
func (c *Client) Broadcast(ctx context.Context, message string, args ...any) error {
	_, err := c.request(ctx, ChannelBroadcast, message, args...)
	return err
}

// QueryPhysicsMaterial returns the raw dump of a physics material.
func (c *Client) QueryPhysicsMaterial(ctx context.Context, uuid string) (json.RawMessage, error) {
	raw, err := c.request(ctx, ChannelScene, MsgQueryPhysicsMaterial, uuid)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, fmt.Errorf("%s/%s: %w", ChannelScene, MsgQueryPhysicsMaterial, propgraph.ErrNotFound)
	}
	return raw, nil
}

// ChangePhysicsMaterial lets the editor normalize an edited dump.
func (c *Client) ChangePhysicsMaterial(ctx context.Context, dump map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.into(ctx, &out, ChannelScene, MsgChangePhysicsMaterial, dump)
	if errors.Is(err, propgraph.ErrNotFound) {
		return dump, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyPhysicsMaterial writes a physics material dump back.
func (c *Client) ApplyPhysicsMaterial(ctx context.Context, uuid string, dump map[string]any) error {
	_, err := c.request(ctx, ChannelScene, MsgApplyPhysicsMaterial, uuid, dump)
	return err
}

// QueryProjectConfig returns the project settings document.
func (c *Client) QueryProjectConfig(ctx context.Context) (map[string]any, error) {
	var cfg map[string]any
	err := c.into(ctx, &cfg, ChannelProject, MsgQueryConfig, ProjectConfigScope)
	if errors.Is(err, propgraph.ErrNotFound) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetProjectConfig writes one project setting.
func (c *Client) SetProjectConfig(ctx context.Context, path string, value any) error {
	_, err := c.request(ctx, ChannelProject, MsgSetConfig, ProjectConfigScope, path, value)
	return err
}
