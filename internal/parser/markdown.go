package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dgallion1/schemadoc/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. Fenced blocks whose
// info string is "{name} argument" call the directive registered under
// name; the nodes it returns are spliced in at the call site.
type MarkdownParser struct {
	Directives *Registry
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
	}

	// Walk the AST and build a tree based on heading levels.
	// We use a stack to track the current nesting.
	type stackEntry struct {
		node  *doctree.DocNode
		level int
	}

	// Root is level 0; all h1+ nest under it.
	root := &doctree.DocNode{Title: tree.Title}
	stack := []stackEntry{{node: root, level: 0}}

	var currentText bytes.Buffer

	flushText := func() {
		t := strings.TrimSpace(currentText.String())
		if t != "" {
			top := stack[len(stack)-1].node
			if top.Text != "" {
				top.Text += "\n\n" + t
			} else {
				top.Text = t
			}
		}
		currentText.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			flushText()
			level := node.Level

			newNode := &doctree.DocNode{
				Title: extractText(node, src),
				Line:  lineOf(node, src),
			}

			// Pop stack until we find a parent with lower level.
			for len(stack) > 1 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}

			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, newNode)
			stack = append(stack, stackEntry{node: newNode, level: level})

		case *ast.FencedCodeBlock:
			nodes, called, err := p.call(node, src)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", filename, lineOf(node, src), err)
			}
			if called {
				flushText()
				top := stack[len(stack)-1].node
				top.Children = append(top.Children, nodes...)
				continue
			}
			appendText(&currentText, extractText(n, src))

		default:
			// Collect text content from non-heading blocks.
			appendText(&currentText, extractText(n, src))
		}
	}
	flushText()

	tree.Children = root.Children
	// If there were no headings, put all text in a single child.
	if len(tree.Children) == 0 && root.Text != "" {
		tree.Children = []*doctree.DocNode{{Text: root.Text}}
	} else if root.Text != "" {
		tree.Children = append([]*doctree.DocNode{{Text: root.Text}}, tree.Children...)
	}

	return tree, nil
}

// call runs the directive a fenced block names, if it names one. Without a
// registry every fenced block is plain code.
func (p *MarkdownParser) call(node *ast.FencedCodeBlock, src []byte) ([]*doctree.DocNode, bool, error) {
	if node.Info == nil || p.Directives == nil {
		return nil, false, nil
	}
	name, arg, ok := parseCall(string(node.Info.Segment.Value(src)))
	if !ok {
		return nil, false, nil
	}
	d, found := p.Directives.Lookup(name)
	if !found {
		if known := p.Directives.Names(); len(known) > 0 {
			return nil, true, fmt.Errorf("unknown directive %q (known: %s)", name, strings.Join(known, ", "))
		}
		return nil, true, fmt.Errorf("unknown directive %q", name)
	}

	var body []string
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		body = append(body, strings.TrimRight(string(seg.Value(src)), "\r\n"))
	}
	opts, err := parseOptions(body)
	if err != nil {
		return nil, true, fmt.Errorf("directive %s: %w", name, err)
	}
	nodes, err := d.Run(arg, opts)
	if err != nil {
		return nil, true, fmt.Errorf("directive %s: %w", name, err)
	}
	return nodes, true, nil
}

func appendText(buf *bytes.Buffer, t string) {
	if t == "" {
		return
	}
	if buf.Len() > 0 {
		buf.WriteString("\n\n")
	}
	buf.WriteString(t)
}

// extractText gets the text content of a goldmark AST node. Backslash
// escapes are resolved outside code.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeText(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func writeText(buf *bytes.Buffer, n ast.Node, src []byte) {
	switch node := n.(type) {
	case *ast.Text:
		buf.Write(util.UnescapePunctuations(node.Segment.Value(src)))
		if node.HardLineBreak() || node.SoftLineBreak() {
			buf.WriteByte('\n')
		}
		return
	case *ast.String:
		buf.Write(node.Value)
		return
	case *ast.CodeSpan:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(src))
			}
		}
		return
	case *ast.RawHTML:
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			buf.Write(seg.Value(src))
		}
		return
	case *ast.AutoLink:
		buf.Write(node.Label(src))
		return
	case *extast.TableHeader, *extast.TableRow:
		var cells []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, extractText(c, src))
		}
		buf.WriteString(strings.Join(cells, " | "))
		return
	}

	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		if lines == nil {
			return
		}
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		writeText(buf, c, src)
	}
}

// lineOf returns the 1-based source line a block starts on.
func lineOf(n ast.Node, src []byte) int {
	offset := -1
	if fenced, ok := n.(*ast.FencedCodeBlock); ok && fenced.Info != nil {
		offset = fenced.Info.Segment.Start
	} else if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		offset = lines.At(0).Start
	}
	if offset < 0 || offset > len(src) {
		return 0
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}
