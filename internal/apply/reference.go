package apply

import (
	"context"
	"fmt"
	"sort"

	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// ResolveReference converts a reference given as "id", {id} or {uuid} into
// the {uuid} shape the scene expects. Asset references are checked against
// the declared type; when the asset's own type differs, a sub-asset of the
// declared type is used instead. A nil value clears the reference.
func (a *Applier) ResolveReference(ctx context.Context, value any, schema *propgraph.Schema) (any, error) {
	var uuid string
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		uuid = v
	case map[string]any:
		if id, ok := v["id"].(string); ok {
			uuid = id
		} else if id, ok := v["uuid"].(string); ok {
			uuid = id
		}
	}
	if uuid == "" {
		return nil, fmt.Errorf("%w: unsupported reference %v", propgraph.ErrReferenceTypeMismatch, value)
	}

	if !schema.HasCapability(propgraph.CapAsset) {
		return map[string]any{"uuid": uuid}, nil
	}

	info, err := a.assets.QueryAssetInfo(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("referenced asset %s: %w", uuid, err)
	}
	if info.Type == schema.Type {
		return map[string]any{"uuid": uuid}, nil
	}

	keys := make([]string, 0, len(info.SubAssets))
	for k := range info.SubAssets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if sub := info.SubAssets[k]; sub != nil && sub.Type == schema.Type {
			return map[string]any{"uuid": sub.UUID}, nil
		}
	}
	return nil, fmt.Errorf("%w: expected %s, asset %s is %s",
		propgraph.ErrReferenceTypeMismatch, schema.Type, uuid, info.Type)
}

// convertReferences applies ResolveReference to a reference value, or to
// each element of an array of references, in order.
func (a *Applier) convertReferences(ctx context.Context, value any, schema *propgraph.Schema) (any, error) {
	if items, ok := value.([]any); ok && schema.IsArray {
		elem := schema
		if etd := schema.ElementTypeData; etd != nil && etd.Schema != nil {
			elem = etd.Schema
		}
		if !elem.IsReference() {
			return value, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			ref, err := a.ResolveReference(ctx, item, elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = ref
		}
		return out, nil
	}

	if !schema.IsReference() {
		return value, nil
	}
	return a.ResolveReference(ctx, value, schema)
}
