package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/schemadoc/internal/doctree"
)

// HTMLParser reads an HTML document, such as a rendered reference page,
// back into a DocTree. Headings open sections; block elements become text
// of the innermost open section. Directive calls are not expanded.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if t := find(doc, atom.Title); t != nil {
		if s := collapse(textOf(t)); s != "" {
			title = s
		}
	}

	hr := &htmlReader{root: &doctree.DocNode{Title: title}}
	hr.open = []section{{node: hr.root}}

	start := doc
	if body := find(doc, atom.Body); body != nil {
		start = body
	}
	hr.walk(start)
	hr.flush()

	tree := &doctree.DocTree{Title: title, Children: hr.root.Children}
	if len(tree.Children) == 0 && hr.root.Text != "" {
		tree.Children = []*doctree.DocNode{{Text: hr.root.Text}}
	}
	return tree, nil
}

type section struct {
	node  *doctree.DocNode
	level int
}

type htmlReader struct {
	root    *doctree.DocNode
	open    []section
	pending []string
}

func (hr *htmlReader) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Nav, atom.Header, atom.Footer, atom.Template:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			hr.heading(int(n.Data[1]-'0'), collapse(textOf(n)))
			return
		case atom.P, atom.Li, atom.Blockquote, atom.Dt, atom.Dd:
			hr.block(collapse(textOf(n)))
			return
		case atom.Pre:
			// Examples keep their indentation.
			hr.block(strings.Trim(textOf(n), "\n"))
			return
		case atom.Tr:
			hr.block(row(n))
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		hr.walk(c)
	}
}

func (hr *htmlReader) heading(level int, title string) {
	hr.flush()
	for len(hr.open) > 1 && hr.open[len(hr.open)-1].level >= level {
		hr.open = hr.open[:len(hr.open)-1]
	}
	node := &doctree.DocNode{Title: title}
	parent := hr.open[len(hr.open)-1].node
	parent.Children = append(parent.Children, node)
	hr.open = append(hr.open, section{node: node, level: level})
}

func (hr *htmlReader) block(s string) {
	if s != "" {
		hr.pending = append(hr.pending, s)
	}
}

// flush attaches the pending blocks to the innermost open section.
func (hr *htmlReader) flush() {
	if len(hr.pending) == 0 {
		return
	}
	top := hr.open[len(hr.open)-1].node
	text := strings.Join(hr.pending, "\n\n")
	if top.Text != "" {
		text = top.Text + "\n\n" + text
	}
	top.Text = text
	hr.pending = hr.pending[:0]
}

// row joins the cells of a table row with " | ".
func row(tr *html.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, collapse(textOf(c)))
		}
	}
	return strings.Join(cells, " | ")
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

// collapse folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// find returns the first element with the given tag in document order.
func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := find(c, a); m != nil {
			return m
		}
	}
	return nil
}
