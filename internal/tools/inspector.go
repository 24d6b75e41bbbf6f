package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/creatorbridge/creatorbridge/internal/instance"
)

const (
	GetInstanceProperties  = "inspectorGetInstanceProperties"
	SetInstanceProperties  = "inspectorSetInstanceProperties"
	GetSettingsProperties  = "inspectorGetSettingsProperties"
	SetSettingsProperties  = "inspectorSetSettingsProperties"
	GetInstanceDefinition  = "inspectorGetInstanceDefinition"
	GetSettingsDefinition  = "inspectorGetSettingsDefinition"
	settingsTypeField = "settingsType"
)

var referenceSchema = Schema{
	"type": "object",
	"properties": Schema{
		"id":   Schema{"type": "string"},
		"type": Schema{"type": "string"},
	},
	"required": []string{"id"},
}

var anyValueSchema = Schema{
	"type":                 []string{"array", "object", "string", "number", "boolean", "null"},
	"additionalProperties": true,
}

var successSchema = Schema{
	"type": "object",
	"properties": Schema{
		"success": Schema{"type": "boolean"},
		"error":   Schema{"type": "string"},
	},
	"required": []string{"success"},
}

var dumpSchema = Schema{
	"type":       "object",
	"properties": Schema{"dump": Schema{"type": "object"}},
	"required":   []string{"dump"},
}

var definitionSchema = Schema{
	"type":       "object",
	"properties": Schema{"definition": Schema{"type": "string"}},
	"required":   []string{"definition"},
}

func settingsSchema(kinds ...string) Schema {
	return Schema{"type": "string", "enum": kinds}
}

// Reference names an instance by id.
type Reference struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// DumpResult carries an unwrapped property tree.
type DumpResult struct {
	Dump any `json:"dump"`
}

// SuccessResult reports a completed set.
type SuccessResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DefinitionResult carries generated declarations.
type DefinitionResult struct {
	Definition string `json:"definition"`
}

type instanceArgs struct {
	Reference *Reference `json:"reference"`
}

type setInstanceArgs struct {
	Reference     *Reference `json:"reference"`
	PropertyPaths []string   `json:"propertyPaths"`
	Values        []any      `json:"values"`
}

// setSettingsArgs accepts one path and value or parallel lists of both.
type setSettingsArgs struct {
	SettingsType  string   `json:"settingsType"`
	PropertyPath  string   `json:"propertyPath"`
	Value         *any     `json:"value"`
	PropertyPaths []string `json:"propertyPaths"`
	Values        []any    `json:"values"`
}

type settingsArgs struct {
	SettingsType string `json:"settingsType"`
}

func (a *setSettingsArgs) pairs() ([]string, []any) {
	paths, values := a.PropertyPaths, a.Values
	if a.PropertyPath != "" {
		paths = append([]string{a.PropertyPath}, paths...)
		var v any
		if a.Value != nil {
			v = *a.Value
		}
		values = append([]any{v}, values...)
	}
	return paths, values
}

func (s *Service) registerInspectorTools() {
	s.register(Tool{
		Name:        GetSettingsProperties,
		Description: "Gets plain object of properties for the specific settings.",
		Inputs: Schema{
			"type":       "object",
			"properties": Schema{settingsTypeField: settingsSchema(instance.SceneGlobalsID, instance.ProjectSettingsID)},
			"required":   []string{settingsTypeField},
		},
		Outputs: dumpSchema,
		Tags:    []string{"inspect", "scene", "properties", "settings", "config", "dump"},
	}, http.MethodGet, s.getSettingsProperties)

	s.register(Tool{
		Name:        GetInstanceProperties,
		Description: "Gets plain object of properties, with no serialization info for any instance (scene node, component, asset).",
		Inputs: Schema{
			"type":       "object",
			"properties": Schema{"reference": referenceSchema},
			"required":   []string{"reference"},
		},
		Outputs: dumpSchema,
		Tags:    []string{"inspect", "properties", "dump", "instance", "node", "component", "asset", "data"},
	}, http.MethodGet, s.getInstanceProperties)

	s.register(Tool{
		Name: SetSettingsProperties,
		Description: "Sets a property on the specific settings. If a property path or type is not confirmed " +
			"via inspectorGet* tools, you MUST NOT call any setter.",
		Inputs: Schema{
			"type": "object",
			"properties": Schema{
				settingsTypeField: settingsSchema(instance.SceneGlobalsID, instance.ProjectSettingsID),
				"propertyPath": Schema{
					"type":        "string",
					"description": "Plain path to the property (e.g., 'ambient.skyLightingColor.r'). Don't support code execution.",
				},
				"value": anyValueSchema,
			},
			"required": []string{settingsTypeField, "propertyPath", "value"},
		},
		Outputs: successSchema,
		Tags:    []string{"property", "set", "scene", "settings", "project", "modify", "config"},
	}, http.MethodPost, s.setSettingsProperties)

	s.register(Tool{
		Name: SetInstanceProperties,
		Description: "Sets a property on instance of Node, Component or Asset. If a property path or type is not " +
			"confirmed via inspectorGet* tools, you MUST NOT call any setter.",
		Inputs: Schema{
			"type": "object",
			"properties": Schema{
				"reference": referenceSchema,
				"propertyPaths": Schema{
					"type":  "array",
					"items": Schema{"type": "string"},
					"description": "Plain paths to the properties (e.g., ['position.x', 'rotation.y']). Don't support " +
						"code execution. Arrays are reached by indexes. (e.g. 'sharedMaterials.0')",
				},
				"values": Schema{"type": "array", "items": anyValueSchema},
			},
			"required": []string{"reference", "propertyPaths", "values"},
		},
		Outputs: successSchema,
		Tags:    []string{"property", "set", "instance", "node", "component", "asset", "modify", "meta"},
	}, http.MethodPost, s.setInstanceProperties)

	s.register(Tool{
		Name:        GetSettingsDefinition,
		Description: "Generates TypeScript definition for specific settings.",
		Inputs: Schema{
			"type": "object",
			"properties": Schema{settingsTypeField: settingsSchema(
				instance.CommonTypesID, instance.SceneGlobalsID, instance.ProjectSettingsID)},
			"required": []string{settingsTypeField},
		},
		Outputs: definitionSchema,
		Tags:    []string{"code", "typescript", "inspection", "definition", "common", "types", "settings", "scene", "globals", "project"},
	}, http.MethodGet, s.getSettingsDefinition)

	s.register(Tool{
		Name:        GetInstanceDefinition,
		Description: "Generates TypeScript definition based on properties and descriptions of instance (Node, Component, Asset).",
		Inputs: Schema{
			"type":       "object",
			"properties": Schema{"reference": referenceSchema},
			"required":   []string{"reference"},
		},
		Outputs: definitionSchema,
		Tags:    []string{"code", "typescript", "inspection", "definition", "class", "info", "meta", "instance", "node", "component", "asset", "data"},
	}, http.MethodGet, s.getInstanceDefinition)
}

func referenceID(tool string, ref *Reference) (string, error) {
	if ref == nil || ref.ID == "" {
		return "", &ArgumentError{Tool: tool, Err: errors.New("reference.id is required")}
	}
	return ref.ID, nil
}

func settingsID(tool, kind string, allowed ...string) (string, error) {
	for _, k := range allowed {
		if k == kind {
			return kind, nil
		}
	}
	return "", &ArgumentError{Tool: tool, Err: errors.New("unknown settings type '" + kind + "'")}
}

func (s *Service) get(ctx context.Context, id string) (any, error) {
	dump, err := s.inspector.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return DumpResult{Dump: dump}, nil
}

func (s *Service) set(ctx context.Context, tool, id string, paths []string, values []any) (any, error) {
	if paths == nil || values == nil {
		return nil, &ArgumentError{Tool: tool, Err: errors.New("property paths and values are required")}
	}
	if err := s.inspector.Set(ctx, id, paths, values); err != nil {
		return nil, err
	}
	return SuccessResult{Success: true}, nil
}

func (s *Service) getInstanceProperties(ctx context.Context, raw json.RawMessage) (any, error) {
	var args instanceArgs
	if err := decode(GetInstanceProperties, raw, &args); err != nil {
		return nil, err
	}
	id, err := referenceID(GetInstanceProperties, args.Reference)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *Service) getSettingsProperties(ctx context.Context, raw json.RawMessage) (any, error) {
	var args settingsArgs
	if err := decode(GetSettingsProperties, raw, &args); err != nil {
		return nil, err
	}
	id, err := settingsID(GetSettingsProperties, args.SettingsType, instance.SceneGlobalsID, instance.ProjectSettingsID)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *Service) setInstanceProperties(ctx context.Context, raw json.RawMessage) (any, error) {
	var args setInstanceArgs
	if err := decode(SetInstanceProperties, raw, &args); err != nil {
		return nil, err
	}
	id, err := referenceID(SetInstanceProperties, args.Reference)
	if err != nil {
		return nil, err
	}
	return s.set(ctx, SetInstanceProperties, id, args.PropertyPaths, args.Values)
}

func (s *Service) setSettingsProperties(ctx context.Context, raw json.RawMessage) (any, error) {
	var args setSettingsArgs
	if err := decode(SetSettingsProperties, raw, &args); err != nil {
		return nil, err
	}
	id, err := settingsID(SetSettingsProperties, args.SettingsType, instance.SceneGlobalsID, instance.ProjectSettingsID)
	if err != nil {
		return nil, err
	}
	paths, values := args.pairs()
	return s.set(ctx, SetSettingsProperties, id, paths, values)
}

func (s *Service) getInstanceDefinition(ctx context.Context, raw json.RawMessage) (any, error) {
	var args instanceArgs
	if err := decode(GetInstanceDefinition, raw, &args); err != nil {
		return nil, err
	}
	id, err := referenceID(GetInstanceDefinition, args.Reference)
	if err != nil {
		return nil, err
	}
	def, err := s.inspector.Definition(ctx, id)
	if err != nil {
		return nil, err
	}
	return DefinitionResult{Definition: def}, nil
}

func (s *Service) getSettingsDefinition(ctx context.Context, raw json.RawMessage) (any, error) {
	var args settingsArgs
	if err := decode(GetSettingsDefinition, raw, &args); err != nil {
		return nil, err
	}
	id, err := settingsID(GetSettingsDefinition, args.SettingsType,
		instance.CommonTypesID, instance.SceneGlobalsID, instance.ProjectSettingsID)
	if err != nil {
		return nil, err
	}
	def, err := s.inspector.SettingsDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	return DefinitionResult{Definition: def}, nil
}
