// Package render turns a filtered component tree into reference
// documentation. Each dialect walks the tree depth-first in preorder and
// emits, per visible node, a heading, a signature line, the description,
// the attribute table, an example block and then the nested types.
//
// Renderers never modify the tree and write only to the writer they are
// given. Description and example text is dedented here, at render time,
// so the same loaded tree can be rendered into any dialect.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/schemadoc/internal/filter"
	"github.com/dgallion1/schemadoc/internal/schema"
)

// Dialect names an output format.
type Dialect string

const (
	HTML     Dialect = "html"
	Markdown Dialect = "markdown"
)

var dialectAliases = map[string]Dialect{
	"html":     HTML,
	"xml":      HTML,
	"xhtml":    HTML,
	"markdown": Markdown,
	"md":       Markdown,
	"text":     Markdown,
	"rst":      Markdown,
}

var errNilTree = errors.New("render: nil tree")

// ParseDialect resolves a format name or alias.
func ParseDialect(name string) (Dialect, error) {
	d, ok := dialectAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown output format %q", name)
	}
	return d, nil
}

// Formatter renders a tree restricted to a visible set.
type Formatter interface {
	Dialect() Dialect
	Render(w io.Writer, tree *schema.Tree, visible filter.Set) error
}

// New returns the formatter for a dialect.
func New(d Dialect) (Formatter, error) {
	switch d {
	case HTML:
		return &HTMLRenderer{}, nil
	case Markdown:
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", d)
	}
}

// visibility answers the two questions every renderer asks of a node: is it
// rendered itself, and does anything at or below it get rendered.
type visibility struct {
	set     filter.Set
	content map[*schema.Node]bool
}

func newVisibility(tree *schema.Tree, set filter.Set) *visibility {
	v := &visibility{set: set, content: make(map[*schema.Node]bool)}
	var mark func(n *schema.Node) bool
	mark = func(n *schema.Node) bool {
		has := set.Has(n.QualifiedName)
		for _, child := range n.Children {
			if mark(child) {
				has = true
			}
		}
		v.content[n] = has
		return has
	}
	mark(tree.Root)
	return v
}

func (v *visibility) visible(n *schema.Node) bool {
	return v.set.Has(n.QualifiedName)
}

func (v *visibility) hasContent(n *schema.Node) bool {
	return v.content[n]
}

// fact is one "key value" pair of a signature line.
type fact struct {
	key, value string
}

// signature describes what a node is: a kind label, the name it is known
// by, and supporting facts such as its datatype.
func signature(tree *schema.Tree, n *schema.Node) (label, name string, facts []fact) {
	if n.Kind == schema.KindRoot {
		switch {
		case tree.Package != "" && tree.File != "":
			label, name = "definitions from file", tree.File
			facts = append(facts, fact{"package", tree.Package})
		case tree.Package != "":
			label, name = "package", tree.Package
		default:
			label, name = "schema", n.DisplayName
		}
		if tree.Prefix != "" {
			facts = append(facts, fact{"prefix", tree.Prefix})
		}
		if n.Datatype != "" {
			facts = append(facts, fact{"datatype", n.Datatype})
		}
		return label, name, facts
	}

	switch n.Kind {
	case schema.KindSectionType:
		label = "section type"
		if n.Abstract {
			label = "abstract section type"
		}
	case schema.KindKeyType:
		label = "key type"
	case schema.KindDatatypeAlias:
		label = "datatype alias"
	default:
		label = string(n.Kind)
	}

	if n.Datatype != "" {
		key := "datatype"
		if n.Kind == schema.KindDatatypeAlias {
			key = "alias of"
		}
		facts = append(facts, fact{key, n.Datatype})
	}
	if n.Extends != "" {
		facts = append(facts, fact{"extends", n.Extends})
	}
	if n.Implements != "" {
		facts = append(facts, fact{"implements", n.Implements})
	}
	if n.Default != "" {
		facts = append(facts, fact{"default", n.Default})
	}
	return label, n.QualifiedName, facts
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// paragraphs splits dedented text on blank lines.
func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(block(s), "\n\n") {
		if p = strings.Trim(p, "\n"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
