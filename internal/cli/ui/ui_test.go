package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSimilar(t *testing.T) {
	candidates := []string{"color", "color.r", "position", "position.x", "enabled"}

	assert.Equal(t, "color.r", FindSimilar("colr.r", candidates, nil)[0])
	assert.Equal(t, "position.x", FindSimilar("Position.X", candidates, nil)[0])
	assert.Empty(t, FindSimilar("Position.X", candidates, &FuzzyMatchOptions{CaseSensitive: true, MaxDistance: 1}))
	assert.Len(t, FindSimilar("c", []string{"a", "b", "d", "e"}, &FuzzyMatchOptions{MaxSuggestions: 2}), 2)
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"größe", "grösse", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "%s/%s", tt.a, tt.b)
	}
}

func TestPropertyPaths(t *testing.T) {
	tree := map[string]any{
		"name":  "Player",
		"color": map[string]any{"r": 1.0, "g": 2.0},
		"items": []any{map[string]any{"uuid": "a"}},
	}
	assert.Equal(t, []string{
		"color", "color.g", "color.r",
		"items", "items.0", "items.0.uuid",
		"name",
	}, PropertyPaths(tree))
}

func TestFormatError(t *testing.T) {
	out := SetFailedError("node-1", []string{`"colr.r": not found`}, []string{"color.r"}, true)

	assert.True(t, strings.HasPrefix(out, "✗ PROPERTY NOT SET: 1 of the properties of node-1 could not be set."))
	assert.Contains(t, out, `   - "colr.r": not found`)
	assert.Contains(t, out, "Did you mean: color.r?")
	assert.Contains(t, out, "→ Inspect first: creatorbridge get node-1")
}

func TestFormatHelpers(t *testing.T) {
	assert.Contains(t, InstanceNotFoundError("x", nil, true), "INSTANCE NOT FOUND: Nothing answers to 'x'.")
	assert.Contains(t, EditorUnavailableError("no editor connected", true), "creatorbridge simulate")
	assert.Contains(t, ConfigError("bad port", true), "CONFIGURATION ERROR: bad port")
	assert.True(t, strings.HasPrefix(Warning("careful", true), "! careful"))
	assert.Equal(t, "✓ done", FormatSuccess("done", true))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"ID", "PATH", "VALUE"}, true)
	table.AddRow("1", "name", `"Hero"`)
	table.AddRow("12", "position.y", "64", "extra")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID  PATH        VALUE", lines[0])
	assert.Equal(t, "──  ──────────  ──────", lines[1])
	assert.Equal(t, `1   name        "Hero"`, lines[2])
	assert.Equal(t, "12  position.y  64", lines[3])
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Address", "127.0.0.1:8585")
	kv.AddRow("Editor", "sim")
	kv.Render()

	assert.Equal(t, "Address: 127.0.0.1:8585\nEditor:  sim\n", buf.String())
}

func TestWriteDocument(t *testing.T) {
	doc := []byte(`{"name":"Hero","active":true,"flag":"true","empty":"","position":{"x":1,"y":2},"items":[1,2]}`)

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, doc, FormatYAML))
	assert.Equal(t, `name: Hero
active: true
flag: "true"
empty: ""
position:
  x: 1
  y: 2
items:
  - 1
  - 2
`, buf.String())

	buf.Reset()
	require.NoError(t, WriteDocument(&buf, []byte(`{"b":1,"a":2}`), FormatJSON))
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": 2\n}\n", buf.String())

	assert.Error(t, WriteDocument(&buf, doc, "xml"))
}
