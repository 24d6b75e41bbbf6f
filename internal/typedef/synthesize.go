package typedef

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// Options tunes a synthesis call.
type Options struct {
	// Translate resolves "i18n:" display names and tooltips. The key is
	// passed without its prefix. Nil returns the key unchanged.
	Translate func(key string) string
}

const i18nPrefix = "i18n:"

var (
	nonIdent   = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	lineBreaks = regexp.MustCompile(`(?i)<br\s*/?>|\n`)
)

var primitiveTypes = map[string]bool{
	"Integer": true, "Float": true, "Number": true, "String": true, "Boolean": true,
}

var referenceTypes = map[string]bool{
	"Node": true, "Component": true, "cc.Node": true, "cc.Component": true,
}

// synthesizer holds the per-call visited-name table and output.
type synthesizer struct {
	opts    Options
	defined map[string]bool
	out     *Definition
}

// Synthesize projects g into enum and class definitions rooted at a class
// named rootName. Names are claimed first-writer-wins within this call.
// Unresolvable nested shapes degrade to opaque types; synthesis never fails.
func Synthesize(g *propgraph.Graph, rootName string, opts Options) *Definition {
	s := &synthesizer{
		opts:    opts,
		defined: make(map[string]bool),
		out:     &Definition{},
	}
	var fields *propgraph.Fields
	if g != nil {
		fields = g.Fields
	}
	s.class(rootName, fields, "")
	return s.out
}

func (s *synthesizer) translate(text string) string {
	if !strings.HasPrefix(text, i18nPrefix) {
		return text
	}
	key := strings.TrimPrefix(text, i18nPrefix)
	if s.opts.Translate == nil {
		return key
	}
	return s.opts.Translate(key)
}

// class claims name and, when props are known, emits its block. The block's
// position is reserved at claim time so parents precede nested classes.
func (s *synthesizer) class(name string, props *propgraph.Fields, extends string) {
	if s.defined[name] {
		return
	}
	s.defined[name] = true
	if props == nil {
		return
	}

	td := &TypeDefinition{Name: name, Extends: extends}
	s.out.Classes = append(s.out.Classes, td)

	for _, key := range props.Keys() {
		n, _ := props.Get(key)
		if n == nil || n.IsNull() {
			continue
		}
		if n.IsWrapped() {
			if !n.Visible() {
				continue
			}
			td.Fields = append(td.Fields, s.property(name, key, n))
			continue
		}
		td.Fields = append(td.Fields, s.raw(name, key, n))
	}
}

func (s *synthesizer) property(owner, key string, p *propgraph.Node) Field {
	schema := p.Schema
	field := Field{Name: key, Readonly: schema.Readonly || key == "uuid"}
	isArray := schema.IsArray

	// itemDef is the schema-carrying node describing the field's shape.
	itemDef := p
	var rawItem *propgraph.Node
	if isArray {
		itemDef = nil
		if etd := schema.ElementTypeData; etd != nil {
			itemDef = etd
		} else if c := p.Content(); c.IsArray() && len(c.Items) > 0 {
			if first := c.Items[0]; first.IsWrapped() {
				itemDef = first
			} else {
				rawItem = first
			}
		}
	}

	def := itemDef
	if def == nil {
		def = p
	}
	rawType := def.Schema.Type
	if rawType == "" {
		rawType = "any"
	}
	isValueType := def.Schema.HasCapability(propgraph.CapValueType)
	isReference := def.Schema.HasCapability(propgraph.CapObject) || (!isValueType && referenceTypes[rawType])

	tsType := strings.TrimPrefix(tsScalar(rawType), "cc.")
	if isArray && itemDef == nil && rawItem != nil && rawItem.IsScalar() {
		tsType = jsTypeOf(rawItem.Scalar)
	}

	if choices := def.Schema.Choices(); (rawType == "Enum" || rawType == "BitMask") && len(choices) > 0 {
		name := cleanName(owner) + nonIdent.ReplaceAllString(s.displayName(key, schema.DisplayName), "") + rawType
		if override, ok := def.Schema.UserData["enumName"].(string); ok && override != "" {
			name = override
		}
		s.enum(name, choices)
		tsType = name
	} else if itemDef != nil && !isReference && !isValueType && !primitiveTypes[rawType] {
		if c := itemDef.Content(); c.IsObject() {
			nested := tsType
			if nested == "" || nested == "Object" || nested == "any" {
				suffix := "Type"
				if isArray {
					suffix = "Item"
				}
				nested = cleanName(owner) + capitalize(key) + suffix
			}
			var ext string
			if len(itemDef.Schema.Extends) > 0 {
				ext = strings.TrimPrefix(itemDef.Schema.Extends[0], "cc.")
			}
			if ext == nested {
				ext = ""
			}
			s.class(nested, c.Fields, ext)
			tsType = nested
		}
	}

	if isReference {
		if tsType == "any" {
			tsType = "Object"
		}
		tsType = "InstanceReference<" + tsType + ">"
	}
	if isArray {
		tsType = "Array<" + tsType + ">"
	}
	field.Type = tsType

	field.Decorator = decorators(schema, isArray)
	field.Doc = s.tooltip(schema.Tooltip)
	return field
}

func (s *synthesizer) raw(owner, key string, n *propgraph.Node) Field {
	field := Field{Name: key, Readonly: key == "uuid"}

	switch {
	case n.IsScalar():
		field.Type = jsTypeOf(n.Scalar)
	case n.IsArray():
		field.Type = "Array<any>"
		if len(n.Items) == 0 {
			break
		}
		first := n.Items[0]
		switch {
		case first.IsScalar() && !first.IsNull():
			field.Type = "Array<" + jsTypeOf(first.Scalar) + ">"
		case first.Content().IsObject():
			nested := cleanName(owner) + capitalize(key) + "Item"
			s.class(nested, first.Content().Fields, "")
			field.Type = "Array<" + nested + ">"
		}
	case n.IsObject():
		nested := cleanName(owner) + capitalize(key) + "Type"
		s.class(nested, n.Fields, "")
		field.Type = nested
	default:
		field.Type = "any"
	}
	return field
}

func (s *synthesizer) displayName(key, display string) string {
	if display == "" {
		return capitalize(key)
	}
	display = s.translate(display)
	if strings.TrimSpace(display) == "" {
		return key
	}
	return display
}

func (s *synthesizer) tooltip(text string) []string {
	if text == "" {
		return nil
	}
	text = s.translate(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if !lineBreaks.MatchString(text) {
		return []string{text}
	}
	var lines []string
	for _, line := range lineBreaks.Split(text, -1) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func (s *synthesizer) enum(name string, items []propgraph.EnumItem) {
	if s.defined[name] {
		return
	}
	s.defined[name] = true

	spec := EnumSpec{Name: name}
	for _, item := range items {
		member := nonIdent.ReplaceAllString(item.Name, "_")
		if member != "" && member[0] >= '0' && member[0] <= '9' {
			member = "_" + member
		}
		spec.Members = append(spec.Members, EnumMember{Name: member, Literal: literal(item.Value)})
	}
	s.out.Enums = append(s.out.Enums, spec)
}

// decorators builds the @property attributes. Numeric hints are only
// meaningful for the integer and float kinds.
func decorators(schema *propgraph.Schema, isArray bool) []string {
	var parts []string

	var kind string
	switch schema.Type {
	case "Integer":
		kind = "CCInteger"
	case "Float", "Number":
		kind = "CCFloat"
	}

	if kind != "" {
		if isArray {
			parts = append(parts, "type: ["+kind+"]")
		} else {
			parts = append(parts, "type: "+kind)
		}
		for _, attr := range []struct {
			name string
			v    *float64
		}{
			{"min", schema.Min}, {"max", schema.Max}, {"step", schema.Step}, {"precision", schema.Precision},
		} {
			if attr.v != nil {
				parts = append(parts, attr.name+": "+formatNumber(*attr.v))
			}
		}
		if schema.Unit != "" {
			parts = append(parts, "unit: "+quote(schema.Unit))
		}
		if schema.Radian != nil {
			parts = append(parts, "radian: "+strconv.FormatBool(*schema.Radian))
		}
	}
	if schema.Multiline != nil {
		parts = append(parts, "multiline: "+strconv.FormatBool(*schema.Multiline))
	}
	return parts
}

func tsScalar(t string) string {
	switch t {
	case "Integer", "Float", "Number", "Enum", "BitMask":
		return "number"
	case "String":
		return "string"
	case "Boolean":
		return "boolean"
	}
	return t
}

func jsTypeOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return "any"
}

func literal(v any) string {
	switch t := v.(type) {
	case string:
		return quote(t)
	case float64:
		return formatNumber(t)
	case nil:
		return "undefined"
	}
	return fmt.Sprint(v)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cleanName turns a possibly namespaced type name into an identifier prefix.
func cleanName(name string) string {
	return nonIdent.ReplaceAllString(strings.TrimPrefix(name, "cc."), "_")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
