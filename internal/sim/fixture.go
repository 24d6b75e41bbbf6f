package sim

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

// Fixture is the seed content of a simulated editor. Documents are kept as
// raw JSON so their key order survives seeding.
type Fixture struct {
	Tree             json.RawMessage            `json:"tree"`
	Nodes            map[string]json.RawMessage `json:"nodes"`
	Assets           map[string]json.RawMessage `json:"assets"`
	Metas            map[string]json.RawMessage `json:"metas"`
	Materials        map[string]json.RawMessage `json:"materials"`
	PhysicsMaterials map[string]json.RawMessage `json:"physicsMaterials"`
	Effects          json.RawMessage            `json:"effects"`
	Project          json.RawMessage            `json:"project"`
}

// DemoFixture returns the built-in demo project: one scene with a sprite
// node, a texture, a material and project settings.
func DemoFixture() (*Fixture, error) {
	return ParseFixture(demoFixture, "demo.yaml")
}

// LoadFixture reads a fixture file. Files ending in .yaml or .yml are read as
// YAML, anything else as JSON.
func LoadFixture(fs afero.Fs, path string) (*Fixture, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data, path)
}

// ParseFixture decodes fixture data; name selects the format by extension.
func ParseFixture(data []byte, name string) (*Fixture, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse fixture %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := yamlToJSON(&buf, &doc); err != nil {
			return nil, fmt.Errorf("convert fixture %s: %w", name, err)
		}
		data = buf.Bytes()
	}

	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", name, err)
	}
	return &f, nil
}

// yamlToJSON writes n as JSON keeping mapping order.
func yamlToJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return yamlToJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return yamlToJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := yamlToJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := yamlToJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(data)
	}
	return nil
}
