// Package inspector is the get, set and definition facade over the property
// engine. It locates the instance behind an id, builds its property graph and
// hands it to the unwrapper, the applier or the definition synthesizer.
package inspector

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/apply"
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/importers"
	"github.com/creatorbridge/creatorbridge/internal/instance"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
	"github.com/creatorbridge/creatorbridge/internal/typedef"
)

// Config holds the collaborators of an Inspector.
type Config struct {
	Scene     host.SceneHost
	Assets    host.AssetDB
	Importers *importers.Registry
	Observers []apply.Observer
	Translate func(key string) string
	Logger    *zap.Logger
}

// Inspector serves the external get, set and definition operations.
type Inspector struct {
	scene     host.SceneHost
	assets    host.AssetDB
	importers *importers.Registry
	applier   *apply.Applier
	translate func(string) string
	logger    *zap.Logger
}

// New creates an Inspector.
func New(cfg Config) *Inspector {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{
		scene:     cfg.Scene,
		assets:    cfg.Assets,
		importers: cfg.Importers,
		applier: apply.New(apply.Config{
			Scene:     cfg.Scene,
			Assets:    cfg.Assets,
			Importers: cfg.Importers,
			Observers: cfg.Observers,
			Logger:    logger,
		}),
		translate: cfg.Translate,
		logger:    logger,
	}
}

// Inspect finds the instance behind id. Settings ids are checked first, then
// scene nodes, components and assets, in that order. With adapt set, node
// dumps are rewritten for reading.
func (i *Inspector) Inspect(ctx context.Context, id string, adapt bool) (*instance.Instance, error) {
	switch id {
	case instance.SceneGlobalsID:
		return i.sceneGlobals(ctx)
	case instance.ProjectSettingsID:
		return i.asset(ctx, id, instance.ProjectSettingsAsset())
	}

	dump, err := i.scene.QueryNode(ctx, id)
	if err == nil {
		return i.node(id, dump, adapt)
	}
	if !lookupMiss(err) {
		return nil, fmt.Errorf("query node %s: %w", id, err)
	}

	dump, err = i.scene.QueryComponent(ctx, id)
	if err == nil {
		return i.component(id, dump), nil
	}
	if !lookupMiss(err) {
		return nil, fmt.Errorf("query component %s: %w", id, err)
	}

	info, err := i.assets.QueryAssetInfo(ctx, id)
	if err == nil {
		return i.asset(ctx, id, info)
	}
	if !lookupMiss(err) {
		return nil, fmt.Errorf("query asset %s: %w", id, err)
	}

	return nil, fmt.Errorf("target %s not found or not supported: %w", id, propgraph.ErrNotFound)
}

// lookupMiss reports whether err means "not an instance of this kind". The
// editor rejects ids of another kind either with a null reply or an error.
func lookupMiss(err error) bool {
	var re *host.RequestError
	return errors.Is(err, propgraph.ErrNotFound) || errors.As(err, &re)
}

func (i *Inspector) sceneGlobals(ctx context.Context) (*instance.Instance, error) {
	tree, err := i.scene.QueryNodeTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("scene tree: %w", err)
	}
	if tree.UUID == "" {
		return nil, fmt.Errorf("no open scene: %w", propgraph.ErrNotFound)
	}

	dump, err := i.scene.QueryNode(ctx, tree.UUID)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", tree.UUID, err)
	}
	globals, ok := dump.Field("_globals")
	if !ok || globals.IsNull() {
		return nil, fmt.Errorf("scene %s has no globals: %w", tree.UUID, propgraph.ErrNotFound)
	}

	props := dumpFields(globals)
	adaptComponent(props)
	return &instance.Instance{
		ID:    instance.SceneGlobalsID,
		UUID:  tree.UUID,
		Type:  instance.TypeSceneGlobals,
		Kind:  instance.KindSceneGlobals,
		Props: props,
	}, nil
}

func (i *Inspector) node(id string, dump *propgraph.Node, adapt bool) (*instance.Instance, error) {
	typ := instance.TypeNode
	if t, ok := dump.Field("__type__"); ok && t.Text() != "" {
		typ = t.Text()
	}

	props := dumpFields(dump)
	if adapt {
		if err := adaptNode(props); err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
	}
	return &instance.Instance{ID: id, UUID: id, Type: typ, Kind: instance.KindNode, Props: props}, nil
}

func (i *Inspector) component(id string, dump *propgraph.Node) *instance.Instance {
	typ := instance.TypeComponent
	if dump.IsWrapped() && dump.Schema.Type != "" {
		typ = dump.Schema.Type
	} else if t, ok := dump.Field("type"); ok && t.Text() != "" {
		typ = t.Text()
	}

	props := dumpFields(dump)
	adaptComponent(props)
	return &instance.Instance{ID: id, UUID: id, Type: typ, Kind: instance.KindComponent, Props: props}
}

func (i *Inspector) asset(ctx context.Context, id string, info *host.AssetInfo) (*instance.Instance, error) {
	inst := &instance.Instance{ID: id, UUID: info.UUID, Type: info.Type, Kind: instance.KindAsset, Asset: info}

	c, ok := i.importers.Get(info.Importer)
	if !ok {
		i.logger.Debug("no importer for asset",
			zap.String("asset", id),
			zap.String("importer", info.Importer),
		)
		return inst, nil
	}
	props, err := c.GetProperties(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("asset %s (%s): %w", id, info.Importer, err)
	}
	inst.Props = props
	return inst, nil
}

// Get returns the plain projection of an instance's properties.
func (i *Inspector) Get(ctx context.Context, id string) (*propgraph.Node, error) {
	inst, err := i.Inspect(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if inst.Props == nil {
		return nil, fmt.Errorf("could not retrieve properties for %s (%s): %w", inst.Type, id, propgraph.ErrImporterNotHandled)
	}
	return propgraph.UnwrapGraph(inst.Props), nil
}

// Set writes values to paths of an instance. The counts must match. Each
// pair is applied independently; see apply.Applier.ApplyAll.
func (i *Inspector) Set(ctx context.Context, id string, paths []string, values []any) error {
	if len(paths) != len(values) {
		return fmt.Errorf("%w: property paths count (%d) does not match values count (%d)",
			propgraph.ErrCountMismatch, len(paths), len(values))
	}

	inst, err := i.Inspect(ctx, id, false)
	if err != nil {
		return err
	}
	if inst.Props == nil {
		return fmt.Errorf("could not retrieve properties for %s (%s): %w", inst.Type, id, propgraph.ErrImporterNotHandled)
	}
	return i.applier.ApplyAll(ctx, inst, paths, values)
}

// Definition synthesizes the type definitions describing an instance.
func (i *Inspector) Definition(ctx context.Context, id string) (string, error) {
	inst, err := i.Inspect(ctx, id, true)
	if err != nil {
		return "", fmt.Errorf("class, instance or special keyword not found: %w", err)
	}
	def := typedef.Synthesize(inst.Props, inst.ClassName(), typedef.Options{Translate: i.translate})
	return def.String(), nil
}

// SettingsDefinition returns the definition of a settings pseudo-instance,
// or the shared common types.
func (i *Inspector) SettingsDefinition(ctx context.Context, kind string) (string, error) {
	switch kind {
	case instance.CommonTypesID:
		return typedef.CommonTypes, nil
	case instance.SceneGlobalsID, instance.ProjectSettingsID:
		return i.Definition(ctx, kind)
	}
	return "", fmt.Errorf("unknown settings type %q: %w", kind, propgraph.ErrNotFound)
}

// FromMessenger wires an Inspector and the default importers to an editor
// request bus. Scene, Assets and Importers in cfg are replaced. Script
// importers read from files.
func FromMessenger(m host.Messenger, files afero.Fs, cfg Config) *Inspector {
	client := host.NewClient(m, cfg.Logger)
	cfg.Scene = client
	cfg.Assets = client
	cfg.Importers = importers.Default(importers.Deps{
		Assets:   client,
		Material: client,
		Physics:  client,
		Project:  client,
		Files:    files,
	})
	return New(cfg)
}
