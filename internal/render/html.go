package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/schemadoc/internal/filter"
	"github.com/dgallion1/schemadoc/internal/schema"
)

// HTMLRenderer produces a standalone HTML5 document. The document is built
// as a node tree and serialized once, so every element is closed exactly
// once and text is escaped by the serializer.
type HTMLRenderer struct{}

func (r *HTMLRenderer) Dialect() Dialect { return HTML }

func (r *HTMLRenderer) Render(w io.Writer, tree *schema.Tree, visible filter.Set) error {
	if tree == nil || tree.Root == nil {
		return errNilTree
	}
	doc := r.Document(tree, visible)
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Document builds the document node tree without serializing it.
func (r *HTMLRenderer) Document(tree *schema.Tree, visible filter.Set) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	root.Attr = []html.Attribute{{Key: "lang", Val: "en"}}
	doc.AppendChild(root)

	head := element(atom.Head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	head.AppendChild(withText(element(atom.Title), tree.Root.DisplayName))
	root.AppendChild(head)

	body := element(atom.Body)
	root.AppendChild(body)

	v := newVisibility(tree, visible)
	r.section(body, tree, tree.Root, 0, v)
	return doc
}

func (r *HTMLRenderer) section(parent *html.Node, tree *schema.Tree, n *schema.Node, depth int, v *visibility) {
	isRoot := n == tree.Root
	if !isRoot && !v.hasContent(n) {
		return
	}

	container := parent
	if isRoot || v.visible(n) {
		div := element(atom.Div)
		div.Attr = []html.Attribute{
			{Key: "class", Val: "section"},
			{Key: "id", Val: anchor(n.QualifiedName)},
		}
		parent.AppendChild(div)
		div.AppendChild(withText(element(headingAtom(depth)), n.DisplayName))
		if v.visible(n) {
			r.body(div, tree, n)
		}
		container = div
	}

	for _, child := range n.Children {
		r.section(container, tree, child, depth+1, v)
	}
}

func (r *HTMLRenderer) body(div *html.Node, tree *schema.Tree, n *schema.Node) {
	div.AppendChild(htmlSignature(tree, n))

	for _, p := range paragraphs(n.Description) {
		div.AppendChild(withText(element(atom.P), p))
	}

	if len(n.Attributes) > 0 {
		div.AppendChild(attributeTable(n.Attributes))
	}

	for _, a := range n.Attributes {
		if block(a.Example) == "" {
			continue
		}
		label := withText(element(atom.P), "Example for ")
		label.AppendChild(withText(element(atom.Code), a.Name))
		label.AppendChild(text(":"))
		appendExample(div, label, a.Example)
	}
	appendExample(div, withText(element(atom.P), "Example:"), n.Example)
}

func appendExample(div, label *html.Node, raw string) {
	ex := block(raw)
	if ex == "" {
		return
	}
	label.Attr = []html.Attribute{{Key: "class", Val: "example-label"}}
	div.AppendChild(label)

	pre := withText(element(atom.Pre), ex)
	pre.Attr = []html.Attribute{{Key: "class", Val: "example"}}
	div.AppendChild(pre)
}

func htmlSignature(tree *schema.Tree, n *schema.Node) *html.Node {
	label, name, facts := signature(tree, n)

	p := element(atom.P)
	p.Attr = []html.Attribute{{Key: "class", Val: "signature"}}
	p.AppendChild(withText(element(atom.Em), label))
	p.AppendChild(text(" "))
	p.AppendChild(withText(element(atom.Code), name))
	for i, f := range facts {
		sep := ", "
		if i == 0 {
			sep = " ("
		}
		p.AppendChild(text(sep + f.key + " "))
		p.AppendChild(withText(element(atom.Code), f.value))
	}
	if len(facts) > 0 {
		p.AppendChild(text(")"))
	}
	return p
}

var attributeColumns = []string{"Name", "Type", "Required", "Default", "Description"}

func attributeTable(attrs []schema.Attribute) *html.Node {
	table := element(atom.Table)
	table.Attr = []html.Attribute{{Key: "class", Val: "attributes"}}

	head := element(atom.Thead)
	tr := element(atom.Tr)
	for _, col := range attributeColumns {
		tr.AppendChild(withText(element(atom.Th), col))
	}
	head.AppendChild(tr)
	table.AppendChild(head)

	body := element(atom.Tbody)
	for _, a := range attrs {
		row := element(atom.Tr)
		row.AppendChild(cell(withText(element(atom.Code), a.Name)))
		row.AppendChild(cell(withText(element(atom.Code), a.Type)))
		row.AppendChild(cell(text(yesNo(a.Required))))
		if a.Default != "" {
			row.AppendChild(cell(withText(element(atom.Code), a.Default)))
		} else {
			row.AppendChild(element(atom.Td))
		}
		row.AppendChild(cell(text(strings.Join(paragraphs(a.Description), "\n\n"))))
		body.AppendChild(row)
	}
	table.AppendChild(body)
	return table
}

func headingAtom(depth int) atom.Atom {
	levels := []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}
	return levels[min(depth, len(levels)-1)]
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(text(s))
	return n
}

func cell(content *html.Node) *html.Node {
	td := element(atom.Td)
	td.AppendChild(content)
	return td
}

// anchor turns a qualified name into an id attribute value.
func anchor(qualifiedName string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '/', ' ':
			return '-'
		}
		return r
	}, qualifiedName)
}
