package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/dgallion1/schemadoc/internal/schema"
)

// fileDecls is everything declared by one schema or component file.
type fileDecls struct {
	name        string
	kind        string // "schema" or "component"
	prefix      string
	datatype    string
	description string
	imports     []string
	attrs       []schema.Attribute // Top-level keys and sections of a schema document
	types       []*decl
}

// decl is a type definition before inheritance is applied.
type decl struct {
	node *schema.Node
	own  []schema.Attribute
}

func parseFile(r io.Reader, name, prefix string) (*fileDecls, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse %s: empty document", name)
	}
	if root.Tag != "schema" && root.Tag != "component" {
		return nil, fmt.Errorf("parse %s: unexpected root element <%s>", name, root.Tag)
	}

	fd := &fileDecls{
		name:     name,
		kind:     root.Tag,
		prefix:   strings.ToLower(root.SelectAttrValue("prefix", prefix)),
		datatype: root.SelectAttrValue("datatype", ""),
	}

	for _, el := range root.ChildElements() {
		switch el.Tag {
		case "description":
			fd.description = text(el)
		case "import":
			if file := el.SelectAttrValue("file", ""); file != "" {
				fd.imports = append(fd.imports, file)
			}
		case "sectiontype", "abstracttype":
			d, err := sectionType(el, fd.prefix, name)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
			fd.types = append(fd.types, d)
		case "keytype":
			d, err := keyType(el, fd.prefix, name)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
			fd.types = append(fd.types, d)
		case "datatype":
			d, err := datatypeAlias(el, fd.prefix, name)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
			fd.types = append(fd.types, d)
		case "key", "multikey", "section", "multisection":
			a, err := attribute(el, fd.prefix)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
			fd.attrs = append(fd.attrs, a)
		}
	}
	return fd, nil
}

func sectionType(el *etree.Element, prefix, file string) (*decl, error) {
	name := el.SelectAttrValue("name", "")
	if name == "" {
		return nil, fmt.Errorf("<%s> without a name", el.Tag)
	}
	n := &schema.Node{
		QualifiedName: qualify(prefix, name),
		DisplayName:   localName(name),
		Kind:          schema.KindSectionType,
		Abstract:      el.Tag == "abstracttype",
		Datatype:      el.SelectAttrValue("datatype", ""),
		Extends:       qualify(prefix, el.SelectAttrValue("extends", "")),
		Implements:    qualify(prefix, el.SelectAttrValue("implements", "")),
		File:          file,
		Description:   text(el.SelectElement("description")),
		Example:       text(el.SelectElement("example")),
	}
	d := &decl{node: n}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "key", "multikey", "section", "multisection":
			a, err := attribute(child, prefix)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", n.QualifiedName, err)
			}
			d.own = append(d.own, a)
		}
	}
	return d, nil
}

func keyType(el *etree.Element, prefix, file string) (*decl, error) {
	name := el.SelectAttrValue("name", "")
	if name == "" {
		return nil, fmt.Errorf("<keytype> without a name")
	}
	return &decl{node: &schema.Node{
		QualifiedName: qualify(prefix, name),
		DisplayName:   localName(name),
		Kind:          schema.KindKeyType,
		Datatype:      el.SelectAttrValue("datatype", "string"),
		Default:       el.SelectAttrValue("default", ""),
		File:          file,
		Description:   text(el.SelectElement("description")),
		Example:       text(el.SelectElement("example")),
	}}, nil
}

func datatypeAlias(el *etree.Element, prefix, file string) (*decl, error) {
	name := el.SelectAttrValue("name", "")
	if name == "" {
		return nil, fmt.Errorf("<datatype> without a name")
	}
	return &decl{node: &schema.Node{
		QualifiedName: qualify(prefix, name),
		DisplayName:   localName(name),
		Kind:          schema.KindDatatypeAlias,
		Datatype:      el.SelectAttrValue("base", "string"),
		File:          file,
		Description:   text(el.SelectElement("description")),
		Example:       text(el.SelectElement("example")),
	}}, nil
}

func attribute(el *etree.Element, prefix string) (schema.Attribute, error) {
	name := el.SelectAttrValue("name", "")
	a := schema.Attribute{
		Required:    isYes(el.SelectAttrValue("required", "no")),
		Description: text(el.SelectElement("description")),
		Example:     text(el.SelectElement("example")),
	}

	switch el.Tag {
	case "key", "multikey":
		if name == "" {
			return a, fmt.Errorf("<%s> without a name", el.Tag)
		}
		a.Name = name
		a.Type = el.SelectAttrValue("datatype", "string")
		if el.Tag == "multikey" {
			a.Type = "multikey: " + a.Type
		}
		a.Default = el.SelectAttrValue("default", "")
		if a.Default == "" {
			var defaults []string
			for _, d := range el.SelectElements("default") {
				defaults = append(defaults, strings.TrimSpace(text(d)))
			}
			a.Default = strings.Join(defaults, ", ")
		}
	default:
		typ := el.SelectAttrValue("type", "")
		if typ == "" {
			return a, fmt.Errorf("<%s> without a type", el.Tag)
		}
		target := qualify(prefix, typ)
		a.Type = el.Tag + ": " + target
		a.Name = el.SelectAttrValue("attribute", "")
		if a.Name == "" {
			if name != "" && name != "*" && name != "+" {
				a.Name = name
			} else {
				a.Name = localName(target)
			}
		}
	}
	return a, nil
}

// text concatenates the character data directly inside el, untouched.
func text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var b strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}

// qualify resolves a type name against a prefix. Names starting with a dot
// or without any dot are relative; other dotted names are absolute.
func qualify(prefix, name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, "."):
		if prefix == "" {
			return name[1:]
		}
		return prefix + name
	case strings.Contains(name, "."), prefix == "":
		return name
	default:
		return prefix + "." + name
	}
}

func localName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func isYes(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "on", "1":
		return true
	}
	return false
}
