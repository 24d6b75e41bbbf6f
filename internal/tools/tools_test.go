package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

type setCall struct {
	id     string
	paths  []string
	values []any
}

type fakeInspector struct {
	gets    []string
	sets    []setCall
	defs    []string
	setErr  error
	getErr  error
	setting []string
}

func (f *fakeInspector) Get(ctx context.Context, id string) (*propgraph.Node, error) {
	f.gets = append(f.gets, id)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return propgraph.NewObject().
		Put("name", propgraph.ScalarOf("Player")).
		Put("active", propgraph.ScalarOf(true)), nil
}

func (f *fakeInspector) Set(ctx context.Context, id string, paths []string, values []any) error {
	f.sets = append(f.sets, setCall{id, paths, values})
	return f.setErr
}

func (f *fakeInspector) Definition(ctx context.Context, id string) (string, error) {
	f.defs = append(f.defs, id)
	return "export class Node {}", nil
}

func (f *fakeInspector) SettingsDefinition(ctx context.Context, kind string) (string, error) {
	f.setting = append(f.setting, kind)
	return "class " + kind + " {}", nil
}

func call(t *testing.T, s *Service, name, args string) (any, error) {
	t.Helper()
	return s.Call(context.Background(), name, json.RawMessage(args))
}

func TestService_Names(t *testing.T) {
	s := New(Config{Inspector: &fakeInspector{}})
	assert.Equal(t, []string{
		GetInstanceDefinition,
		GetInstanceProperties,
		GetSettingsDefinition,
		GetSettingsProperties,
		SetInstanceProperties,
		SetSettingsProperties,
	}, s.Names())
}

func TestService_Manual(t *testing.T) {
	s := New(Config{Inspector: &fakeInspector{}})
	m := s.Manual("http://127.0.0.1:8585")

	assert.Equal(t, UTCPVersion, m.UTCPVersion)
	require.Len(t, m.Tools, 6)
	for _, tool := range m.Tools {
		assert.Equal(t, "http://127.0.0.1:8585/tools/"+tool.Name, tool.CallTemplate.URL)
		assert.Equal(t, "http", tool.CallTemplate.CallTemplateType)
	}

	get, ok := s.Lookup(GetInstanceProperties)
	require.True(t, ok)
	assert.Equal(t, "GET", get.Method())
	assert.Equal(t, "/tools/"+GetInstanceProperties, get.CallTemplate.URL)

	set, _ := s.Lookup(SetInstanceProperties)
	assert.Equal(t, "POST", set.Method())

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tool_call_template"`)
}

func TestService_UnknownTool(t *testing.T) {
	s := New(Config{Inspector: &fakeInspector{}})
	_, err := call(t, s, "nope", "{}")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestService_GetInstanceProperties(t *testing.T) {
	f := &fakeInspector{}
	s := New(Config{Inspector: f})

	result, err := call(t, s, GetInstanceProperties, `{"reference":{"id":"n1"}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, f.gets)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Equal(t, `{"dump":{"name":"Player","active":true}}`, string(data))
}

func TestService_GetSettingsProperties(t *testing.T) {
	f := &fakeInspector{}
	s := New(Config{Inspector: f})

	_, err := call(t, s, GetSettingsProperties, `{"settingsType":"ProjectSettings"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"ProjectSettings"}, f.gets)

	_, err = call(t, s, GetSettingsProperties, `{"settingsType":"CommonTypes"}`)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestService_ArgumentErrors(t *testing.T) {
	s := New(Config{Inspector: &fakeInspector{}})

	tests := []struct {
		name string
		tool string
		args string
	}{
		{"malformed json", GetInstanceProperties, `{"reference":`},
		{"missing reference", GetInstanceProperties, `{}`},
		{"empty id", GetInstanceDefinition, `{"reference":{"id":""}}`},
		{"missing values", SetInstanceProperties, `{"reference":{"id":"n1"},"propertyPaths":["name"]}`},
		{"settings without path", SetSettingsProperties, `{"settingsType":"CurrentSceneGlobals"}`},
		{"unknown settings", GetSettingsDefinition, `{"settingsType":"Other"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, s, tt.tool, tt.args)
			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.tool, argErr.Tool)
		})
	}
}

func TestService_SetInstanceProperties(t *testing.T) {
	f := &fakeInspector{}
	s := New(Config{Inspector: f})

	result, err := call(t, s, SetInstanceProperties,
		`{"reference":{"id":"c1"},"propertyPaths":["color.r","spriteFrame"],"values":[128,null]}`)
	require.NoError(t, err)
	assert.Equal(t, SuccessResult{Success: true}, result)

	require.Len(t, f.sets, 1)
	assert.Equal(t, "c1", f.sets[0].id)
	assert.Equal(t, []string{"color.r", "spriteFrame"}, f.sets[0].paths)
	assert.Equal(t, []any{128.0, nil}, f.sets[0].values)
}

func TestService_SetInstancePropertiesError(t *testing.T) {
	f := &fakeInspector{setErr: propgraph.ErrCountMismatch}
	s := New(Config{Inspector: f})

	_, err := call(t, s, SetInstanceProperties, `{"reference":{"id":"c1"},"propertyPaths":["a"],"values":[]}`)
	assert.ErrorIs(t, err, propgraph.ErrCountMismatch)
}

func TestService_SetSettingsProperties(t *testing.T) {
	tests := []struct {
		name   string
		args   string
		paths  []string
		values []any
	}{
		{
			name:   "singular",
			args:   `{"settingsType":"CurrentSceneGlobals","propertyPath":"fog.enabled","value":true}`,
			paths:  []string{"fog.enabled"},
			values: []any{true},
		},
		{
			name:   "singular null",
			args:   `{"settingsType":"CurrentSceneGlobals","propertyPath":"skybox.envmap","value":null}`,
			paths:  []string{"skybox.envmap"},
			values: []any{nil},
		},
		{
			name:   "plural",
			args:   `{"settingsType":"ProjectSettings","propertyPaths":["general.fitWidth","general.fitHeight"],"values":[false,true]}`,
			paths:  []string{"general.fitWidth", "general.fitHeight"},
			values: []any{false, true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeInspector{}
			_, err := call(t, New(Config{Inspector: f}), SetSettingsProperties, tt.args)
			require.NoError(t, err)
			require.Len(t, f.sets, 1)
			assert.Equal(t, tt.paths, f.sets[0].paths)
			assert.Equal(t, tt.values, f.sets[0].values)
		})
	}
}

func TestService_Definitions(t *testing.T) {
	f := &fakeInspector{}
	s := New(Config{Inspector: f})

	result, err := call(t, s, GetInstanceDefinition, `{"reference":{"id":"n1"}}`)
	require.NoError(t, err)
	assert.Equal(t, DefinitionResult{Definition: "export class Node {}"}, result)

	result, err = call(t, s, GetSettingsDefinition, `{"settingsType":"CommonTypes"}`)
	require.NoError(t, err)
	assert.Equal(t, DefinitionResult{Definition: "class CommonTypes {}"}, result)
	assert.Equal(t, []string{"CommonTypes"}, f.setting)
}

func TestService_EmptyArgs(t *testing.T) {
	s := New(Config{Inspector: &fakeInspector{}})
	_, err := s.Call(context.Background(), GetInstanceProperties, nil)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}
