// Package typedef synthesizes TypeScript-like class and enum definitions from
// a property graph, so that callers without compile-time knowledge of an
// instance can learn its shape before reading or writing it.
package typedef

import (
	"bytes"
	"strings"
)

// EnumMember is one rendered enum entry.
type EnumMember struct {
	Name    string
	Literal string
}

// EnumSpec is a named enum block.
type EnumSpec struct {
	Name    string
	Members []EnumMember
}

// Field is one member of a class block.
type Field struct {
	Name      string
	Type      string
	Doc       []string // tooltip lines
	Decorator []string // "key: value" attribute pairs
	Readonly  bool
}

// TypeDefinition is a named class block.
type TypeDefinition struct {
	Name    string // as claimed, possibly dotted (cc.Node)
	Extends string
	Fields  []Field
}

// ShortName is the class name without any namespace prefix.
func (td *TypeDefinition) ShortName() string {
	if i := strings.LastIndex(td.Name, "."); i >= 0 {
		return td.Name[i+1:]
	}
	return td.Name
}

// Definition is the ordered output of one synthesis call.
type Definition struct {
	Enums   []EnumSpec
	Classes []*TypeDefinition
}

// Blocks renders each enum, then each class, as one text block.
func (d *Definition) Blocks() []string {
	blocks := make([]string, 0, len(d.Enums)+len(d.Classes))
	for _, e := range d.Enums {
		blocks = append(blocks, renderEnum(e))
	}
	for _, c := range d.Classes {
		blocks = append(blocks, renderClass(c))
	}
	return blocks
}

// String joins all blocks with newlines.
func (d *Definition) String() string {
	return strings.Join(d.Blocks(), "\n")
}

func renderEnum(e EnumSpec) string {
	var buf bytes.Buffer
	buf.WriteString("export enum " + e.Name + " {\n")
	for _, m := range e.Members {
		buf.WriteString("\t" + m.Name + " = " + m.Literal + ",\n")
	}
	buf.WriteString("}")
	return buf.String()
}

func renderClass(td *TypeDefinition) string {
	var buf bytes.Buffer
	buf.WriteString("export class " + td.ShortName())
	if td.Extends != "" {
		buf.WriteString(" extends " + td.Extends)
	}
	buf.WriteString(" {\n")

	for _, f := range td.Fields {
		switch len(f.Doc) {
		case 0:
		case 1:
			buf.WriteString("\t/** " + f.Doc[0] + " */\n")
		default:
			buf.WriteString("\t/**\n")
			for _, line := range f.Doc {
				buf.WriteString("\t * " + line + "\n")
			}
			buf.WriteString("\t */\n")
		}
		if len(f.Decorator) > 0 {
			buf.WriteString("\t@property({ " + strings.Join(f.Decorator, ", ") + " })\n")
		}
		buf.WriteString("\t")
		if f.Readonly {
			buf.WriteString("readonly ")
		}
		buf.WriteString(f.Name + ": " + f.Type + ";\n")
	}
	buf.WriteString("}")
	return buf.String()
}
