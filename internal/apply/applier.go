package apply

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/importers"
	"github.com/creatorbridge/creatorbridge/internal/instance"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

const (
	globalsPrefix    = "_globals."
	componentsField  = "__comps__"
	componentOwnerAt = "node.uuid"
)

// Importers looks up the capability serving an asset category.
type Importers interface {
	Get(name string) (importers.Capability, bool)
}

// Mutation describes one committed write.
type Mutation struct {
	Instance string // id as requested
	Target   string // uuid the write was sent to
	Path     string // path as requested
	Commit   string // path as sent to the collaborator
	Value    any
	Kind     instance.Kind
	At       time.Time
}

// Observer is notified of every committed mutation.
type Observer interface {
	Committed(ctx context.Context, m Mutation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, m Mutation)

// Committed calls f
func (f ObserverFunc) Committed(ctx context.Context, m Mutation) { f(ctx, m) }

// Config holds the collaborators of an Applier.
type Config struct {
	Scene     host.SceneHost
	Assets    host.AssetDB
	Importers Importers
	Observers []Observer
	Logger    *zap.Logger
	Now       func() time.Time
}

// Applier resolves, normalizes and commits property writes.
type Applier struct {
	scene     host.SceneHost
	assets    host.AssetDB
	importers Importers
	observers []Observer
	logger    *zap.Logger
	now       func() time.Time
}

// New creates an Applier.
func New(cfg Config) *Applier {
	a := &Applier{
		scene:     cfg.Scene,
		assets:    cfg.Assets,
		importers: cfg.Importers,
		observers: cfg.Observers,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// ApplyAll sets each path to the value at the same position. A count
// mismatch fails before anything is written. Otherwise every pair is applied
// in order and independently: a failing path does not stop the others and
// nothing is rolled back. Failures are returned together as a *SetError.
func (a *Applier) ApplyAll(ctx context.Context, inst *instance.Instance, paths []string, values []any) error {
	if len(paths) != len(values) {
		return fmt.Errorf("%w: %d paths, %d values", propgraph.ErrCountMismatch, len(paths), len(values))
	}

	var failures []*PropertyError
	for i, path := range paths {
		if err := a.Set(ctx, inst, path, values[i]); err != nil {
			var pe *PropertyError
			if !errors.As(err, &pe) {
				pe = &PropertyError{Instance: inst.ID, Path: path, Err: err}
			}
			a.logger.Warn("property not set",
				zap.String("instance", inst.ID),
				zap.String("path", path),
				zap.Error(pe.Err),
			)
			failures = append(failures, pe)
		}
	}
	if len(failures) > 0 {
		return &SetError{Instance: inst.ID, Failures: failures}
	}
	return nil
}

// Set resolves path against the instance's graph, normalizes value for the
// addressed property and commits it. Visibility does not matter here.
func (a *Applier) Set(ctx context.Context, inst *instance.Instance, path string, value any) error {
	fail := func(err error) error {
		return &PropertyError{Instance: inst.ID, Path: path, Err: err}
	}

	target, err := propgraph.Resolve(inst.Props, path)
	if err != nil {
		return fail(err)
	}
	value = Normalize(value, target.Schema)

	if inst.AssetBacked() {
		err = a.commitAsset(ctx, inst, path, value)
	} else {
		err = a.commitLive(ctx, inst, path, target.Schema, value)
	}
	if err != nil {
		return fail(err)
	}
	return nil
}

func (a *Applier) commitAsset(ctx context.Context, inst *instance.Instance, path string, value any) error {
	c, ok := a.importers.Get(inst.Asset.Importer)
	if !ok {
		return fmt.Errorf("%w: no importer %q", propgraph.ErrImporterNotHandled, inst.Asset.Importer)
	}
	handled, err := c.SetProperty(ctx, inst.Asset, path, value)
	if err != nil {
		return fmt.Errorf("importer %s: %w", c.Name(), err)
	}
	if !handled {
		return fmt.Errorf("%w: importer %s declined the path", propgraph.ErrImporterNotHandled, c.Name())
	}

	a.notify(ctx, Mutation{
		Instance: inst.ID,
		Target:   inst.Asset.UUID,
		Path:     path,
		Commit:   path,
		Value:    value,
		Kind:     inst.Kind,
	})
	return nil
}

func (a *Applier) commitLive(ctx context.Context, inst *instance.Instance, path string, schema *propgraph.Schema, value any) error {
	value, err := a.convertReferences(ctx, value, schema)
	if err != nil {
		return err
	}

	target, commitPath := inst.UUID, path
	switch inst.Kind {
	case instance.KindSceneGlobals:
		commitPath = globalsPrefix + path
	case instance.KindComponent:
		owner, idx, err := a.componentSlot(ctx, inst)
		if err != nil {
			return err
		}
		target = owner
		commitPath = componentsField + "." + strconv.Itoa(idx) + "." + path
	}

	req := host.SetPropertyRequest{
		UUID: target,
		Path: commitPath,
		Dump: host.PropertyDump{Value: value, Type: schema.Type},
	}
	if err := a.scene.SetProperty(ctx, req); err != nil {
		return fmt.Errorf("set-property: %w", err)
	}
	if err := a.scene.Snapshot(ctx); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	a.logger.Debug("property committed",
		zap.String("target", target),
		zap.String("path", commitPath),
	)
	a.notify(ctx, Mutation{
		Instance: inst.ID,
		Target:   target,
		Path:     path,
		Commit:   commitPath,
		Value:    value,
		Kind:     inst.Kind,
	})
	return nil
}

// componentSlot finds the node owning a component and the component's
// position in that node's component list.
func (a *Applier) componentSlot(ctx context.Context, inst *instance.Instance) (string, int, error) {
	ownerNode, err := propgraph.Resolve(inst.Props, componentOwnerAt)
	if err != nil {
		return "", 0, fmt.Errorf("owner node of component %s: %w", inst.UUID, err)
	}
	owner := ownerNode.Text()
	if owner == "" {
		return "", 0, fmt.Errorf("owner node of component %s: %w", inst.UUID, propgraph.ErrNotFound)
	}

	node, err := a.scene.QueryNode(ctx, owner)
	if err != nil {
		return "", 0, fmt.Errorf("owner node %s: %w", owner, err)
	}
	comps, _ := node.Field(componentsField)
	if list := comps.Content(); list != nil {
		for i, c := range list.Items {
			if id, ok := c.Field("uuid"); ok && id.Text() == inst.UUID {
				return owner, i, nil
			}
		}
	}
	return "", 0, fmt.Errorf("component %s on node %s: %w", inst.UUID, owner, propgraph.ErrNotFound)
}

func (a *Applier) notify(ctx context.Context, m Mutation) {
	m.At = a.now()
	for _, o := range a.observers {
		o.Committed(ctx, m)
	}
}
