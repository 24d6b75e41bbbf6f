package importers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/creatorbridge/creatorbridge/internal/dumppath"
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// PhysicsMaterialImporter serves physics materials. The scene already
// returns their dump in the property shape, so reads pass it through.
type PhysicsMaterialImporter struct {
	host host.PhysicsHost
}

// NewPhysicsMaterialImporter creates the physics material capability
func NewPhysicsMaterialImporter(h host.PhysicsHost) *PhysicsMaterialImporter {
	return &PhysicsMaterialImporter{host: h}
}

func (p *PhysicsMaterialImporter) Name() string      { return "physics-material" }
func (p *PhysicsMaterialImporter) ClassName() string { return defaultClassName(p.Name()) }

func (p *PhysicsMaterialImporter) GetProperties(ctx context.Context, asset *host.AssetInfo) (*propgraph.Graph, error) {
	raw, err := p.host.QueryPhysicsMaterial(ctx, asset.UUID)
	if err != nil {
		return nil, fmt.Errorf("physics material %s: %w", asset.UUID, err)
	}
	return propgraph.DecodeGraph(raw)
}

// SetProperty assigns value inside the dump, writing through property
// wrappers, lets the editor normalize it and applies the result.
func (p *PhysicsMaterialImporter) SetProperty(ctx context.Context, asset *host.AssetInfo, path string, value any) (bool, error) {
	raw, err := p.host.QueryPhysicsMaterial(ctx, asset.UUID)
	if errors.Is(err, propgraph.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("physics material %s: %w", asset.UUID, err)
	}

	var dump map[string]any
	if err := json.Unmarshal(raw, &dump); err != nil {
		return false, fmt.Errorf("physics material %s: %w: %v", asset.UUID, propgraph.ErrParse, err)
	}
	if !setPath(dump, path, value, dumppath.WrapperAware()) {
		return false, nil
	}

	changed, err := p.host.ChangePhysicsMaterial(ctx, dump)
	if err != nil {
		return false, fmt.Errorf("change physics material %s: %w", asset.UUID, err)
	}
	if err := p.host.ApplyPhysicsMaterial(ctx, asset.UUID, changed); err != nil {
		return false, fmt.Errorf("apply physics material %s: %w", asset.UUID, err)
	}
	return true, nil
}
