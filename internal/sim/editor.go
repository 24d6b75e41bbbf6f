// Package sim is an in-process stand-in for the editor. It answers the
// editor's bus messages from documents held in a store, so the property
// engine can be served and exercised without a running editor.
package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
	"github.com/creatorbridge/creatorbridge/internal/store"
)

// Store keys
const (
	keyTree     = "tree"
	keyEffects  = "effects"
	nodePrefix  = "node:"
	assetPrefix = "asset:"
	metaPrefix  = "meta:"
	matPrefix   = "material:"
	physPrefix  = "physics:"
	cfgPrefix   = "config:"
)

var null = json.RawMessage("null")

type handler func(ctx context.Context, args []json.RawMessage) (json.RawMessage, error)

// Config holds the collaborators of an Editor.
type Config struct {
	Store  store.Store
	Logger *zap.Logger
}

// Editor answers editor requests from a store. Requests are serialized.
type Editor struct {
	store    store.Store
	logger   *zap.Logger
	handlers map[string]handler

	mu         sync.Mutex
	snapshots  int
	broadcasts []string
}

var _ host.Messenger = (*Editor)(nil)

// New creates a simulated editor. A nil store uses a MemoryStore.
func New(cfg Config) *Editor {
	e := &Editor{store: cfg.Store, logger: cfg.Logger}
	if e.store == nil {
		e.store = store.NewMemoryStore()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}

	e.handlers = map[string]handler{
		route(host.ChannelScene, host.MsgQueryNode):             e.prefixed(nodePrefix),
		route(host.ChannelScene, host.MsgQueryComponent):        e.queryComponent,
		route(host.ChannelScene, host.MsgQueryNodeTree):         e.fixed(keyTree),
		route(host.ChannelScene, host.MsgSetProperty):           e.setProperty,
		route(host.ChannelScene, host.MsgSnapshot):              e.snapshot,
		route(host.ChannelScene, host.MsgQueryMaterial):         e.prefixed(matPrefix),
		route(host.ChannelScene, host.MsgApplyMaterial):         e.replace(matPrefix),
		route(host.ChannelScene, host.MsgQueryAllEffects):       e.fixed(keyEffects),
		route(host.ChannelScene, host.MsgQueryPhysicsMaterial):  e.prefixed(physPrefix),
		route(host.ChannelScene, host.MsgChangePhysicsMaterial): echo,
		route(host.ChannelScene, host.MsgApplyPhysicsMaterial):  e.replace(physPrefix),
		route(host.ChannelAssetDB, host.MsgQueryAssetInfo):      e.prefixed(assetPrefix),
		route(host.ChannelAssetDB, host.MsgQueryAssetMeta):      e.prefixed(metaPrefix),
		route(host.ChannelAssetDB, host.MsgSaveAssetMeta):       e.saveMeta,
		route(host.ChannelProject, host.MsgQueryConfig):         e.prefixed(cfgPrefix),
		route(host.ChannelProject, host.MsgSetConfig):           e.setConfig,
	}
	return e
}

func route(channel, message string) string {
	return channel + "/" + message
}

// Seed writes the fixture's documents into the store.
func (e *Editor) Seed(ctx context.Context, f *Fixture) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	put := func(key string, doc json.RawMessage) error {
		if len(doc) == 0 {
			return nil
		}
		if !json.Valid(doc) {
			return fmt.Errorf("seed %s: invalid JSON", key)
		}
		if err := e.store.Put(ctx, key, doc); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
		return nil
	}
	putAll := func(prefix string, docs map[string]json.RawMessage) error {
		for id, doc := range docs {
			if err := put(prefix+id, doc); err != nil {
				return err
			}
		}
		return nil
	}

	if err := put(keyTree, f.Tree); err != nil {
		return err
	}
	if err := put(keyEffects, f.Effects); err != nil {
		return err
	}
	if err := put(cfgPrefix+host.ProjectConfigScope, f.Project); err != nil {
		return err
	}
	for prefix, docs := range map[string]map[string]json.RawMessage{
		nodePrefix:  f.Nodes,
		assetPrefix: f.Assets,
		metaPrefix:  f.Metas,
		matPrefix:   f.Materials,
		physPrefix:  f.PhysicsMaterials,
	} {
		if err := putAll(prefix, docs); err != nil {
			return err
		}
	}

	e.logger.Info("simulated editor seeded",
		zap.Int("nodes", len(f.Nodes)),
		zap.Int("assets", len(f.Assets)),
	)
	return nil
}

// Request answers one editor message. Arguments go through JSON, as they
// would on the wire. Unknown messages are rejected with a *host.RequestError.
func (e *Editor) Request(ctx context.Context, channel, message string, args ...any) (json.RawMessage, error) {
	raw := make([]json.RawMessage, len(args))
	for i, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, e.reject(channel, message, fmt.Sprintf("argument %d: %v", i, err))
		}
		raw[i] = data
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if channel == host.ChannelBroadcast {
		e.broadcasts = append(e.broadcasts, message)
		return null, nil
	}

	h, ok := e.handlers[route(channel, message)]
	if !ok {
		return nil, e.reject(channel, message, "unknown message")
	}
	reply, err := h(ctx, raw)
	if err != nil {
		return nil, e.reject(channel, message, err.Error())
	}
	return reply, nil
}

func (e *Editor) reject(channel, message, reason string) error {
	e.logger.Debug("simulated request rejected",
		zap.String("channel", channel),
		zap.String("message", message),
		zap.String("reason", reason),
	)
	return &host.RequestError{Channel: channel, Message: message, Reason: reason}
}

// Snapshots returns how many undo checkpoints were recorded.
func (e *Editor) Snapshots() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshots
}

// Broadcasts returns the broadcast messages sent so far.
func (e *Editor) Broadcasts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.broadcasts...)
}

func (e *Editor) load(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := e.store.Get(ctx, key)
	if store.IsMiss(err) {
		return null, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (e *Editor) fixed(key string) handler {
	return func(ctx context.Context, _ []json.RawMessage) (json.RawMessage, error) {
		return e.load(ctx, key)
	}
}

func (e *Editor) prefixed(prefix string) handler {
	return func(ctx context.Context, args []json.RawMessage) (json.RawMessage, error) {
		id, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return e.load(ctx, prefix+id)
	}
}

func (e *Editor) replace(prefix string) handler {
	return func(ctx context.Context, args []json.RawMessage) (json.RawMessage, error) {
		id, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			return nil, fmt.Errorf("missing dump argument")
		}
		if err := e.store.Put(ctx, prefix+id, args[1]); err != nil {
			return nil, err
		}
		return json.RawMessage("true"), nil
	}
}

func echo(_ context.Context, args []json.RawMessage) (json.RawMessage, error) {
	if len(args) == 0 {
		return null, nil
	}
	return args[0], nil
}

func (e *Editor) queryComponent(ctx context.Context, args []json.RawMessage) (json.RawMessage, error) {
	id, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	keys, err := e.store.Keys(ctx, nodePrefix)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		node, err := e.loadDump(ctx, key)
		if err != nil {
			return nil, err
		}
		comps, _ := node.Field("__comps__")
		list := comps.Content()
		if list == nil {
			continue
		}
		for _, c := range list.Items {
			if uuid, ok := c.Field("uuid"); ok && uuid.Text() == id {
				return json.Marshal(c)
			}
		}
	}
	return null, nil
}

func (e *Editor) setProperty(ctx context.Context, args []json.RawMessage) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing request argument")
	}
	var req host.SetPropertyRequest
	if err := json.Unmarshal(args[0], &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	key := nodePrefix + req.UUID
	node, err := e.loadDump(ctx, key)
	if err != nil {
		return nil, err
	}
	value, err := propgraph.FromValue(req.Dump.Value)
	if err != nil {
		return nil, err
	}
	if err := assign(node, req.Path, value, false); err != nil {
		return nil, err
	}
	if err := e.saveDump(ctx, key, node); err != nil {
		return nil, err
	}
	return json.RawMessage("true"), nil
}

func (e *Editor) snapshot(context.Context, []json.RawMessage) (json.RawMessage, error) {
	e.snapshots++
	return null, nil
}

func (e *Editor) saveMeta(ctx context.Context, args []json.RawMessage) (json.RawMessage, error) {
	id, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	text, err := stringArg(args, 1)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("meta of %s is not valid JSON", id)
	}
	if err := e.store.Put(ctx, metaPrefix+id, []byte(text)); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"success":true}`), nil
}

func (e *Editor) setConfig(ctx context.Context, args []json.RawMessage) (json.RawMessage, error) {
	scope, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	path, err := stringArg(args, 1)
	if err != nil {
		return nil, err
	}
	var value any
	if len(args) > 2 {
		if err := json.Unmarshal(args[2], &value); err != nil {
			return nil, err
		}
	}

	key := cfgPrefix + scope
	cfg, err := e.loadDump(ctx, key)
	if errors.Is(err, propgraph.ErrNotFound) {
		cfg = propgraph.NewObject()
	} else if err != nil {
		return nil, err
	}
	v, err := propgraph.FromValue(value)
	if err != nil {
		return nil, err
	}
	if err := assign(cfg, path, v, true); err != nil {
		return nil, err
	}
	if err := e.saveDump(ctx, key, cfg); err != nil {
		return nil, err
	}
	return json.RawMessage("true"), nil
}

func (e *Editor) loadDump(ctx context.Context, key string) (*propgraph.Node, error) {
	data, err := e.store.Get(ctx, key)
	if store.IsMiss(err) {
		return nil, fmt.Errorf("%s: %w", key, propgraph.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return propgraph.Decode(data)
}

func (e *Editor) saveDump(ctx context.Context, key string, n *propgraph.Node) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return e.store.Put(ctx, key, data)
}

func stringArg(args []json.RawMessage, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	var s string
	if err := json.Unmarshal(args[i], &s); err != nil {
		return "", fmt.Errorf("argument %d: expected string", i)
	}
	return s, nil
}
