package render

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/schemadoc/internal/filter"
	"github.com/dgallion1/schemadoc/internal/schema"
)

// MarkdownRenderer produces CommonMark with GFM pipe tables. The document
// title is a setext heading; nested types use ATX headings by depth.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Dialect() Dialect { return Markdown }

func (r *MarkdownRenderer) Render(w io.Writer, tree *schema.Tree, visible filter.Set) error {
	if tree == nil || tree.Root == nil {
		return errNilTree
	}
	var b strings.Builder
	r.section(&b, tree, tree.Root, 0, newVisibility(tree, visible))
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}

func (r *MarkdownRenderer) section(b *strings.Builder, tree *schema.Tree, n *schema.Node, depth int, v *visibility) {
	isRoot := n == tree.Root
	if !isRoot && !v.hasContent(n) {
		return
	}

	switch {
	case isRoot:
		title := headingText(n.DisplayName)
		b.WriteString(title + "\n")
		b.WriteString(strings.Repeat("=", max(utf8.RuneCountInString(title), 3)) + "\n\n")
	case v.visible(n):
		b.WriteString(strings.Repeat("#", min(depth+1, 6)) + " " + headingText(n.DisplayName) + "\n\n")
	}

	if v.visible(n) {
		r.body(b, tree, n)
	}

	for _, child := range n.Children {
		r.section(b, tree, child, depth+1, v)
	}
}

func (r *MarkdownRenderer) body(b *strings.Builder, tree *schema.Tree, n *schema.Node) {
	label, name, facts := signature(tree, n)
	b.WriteString("*" + label + "* " + codeSpan(name))
	for i, f := range facts {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(f.key + " " + codeSpan(f.value))
	}
	if len(facts) > 0 {
		b.WriteString(")")
	}
	b.WriteString("\n\n")

	for _, p := range paragraphs(n.Description) {
		b.WriteString(escapeBlock(p) + "\n\n")
	}

	if len(n.Attributes) > 0 {
		b.WriteString("| " + strings.Join(attributeColumns, " | ") + " |\n")
		b.WriteString(strings.Repeat("| --- ", len(attributeColumns)) + "|\n")
		for _, a := range n.Attributes {
			def := ""
			if a.Default != "" {
				def = codeCell(a.Default)
			}
			cells := []string{
				codeCell(a.Name),
				codeCell(a.Type),
				yesNo(a.Required),
				def,
				tableCell(strings.Join(paragraphs(a.Description), " ")),
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
		b.WriteString("\n")
	}

	for _, a := range n.Attributes {
		writeExample(b, "**Example for "+codeSpan(a.Name)+":**", a.Example)
	}
	writeExample(b, "**Example:**", n.Example)
}

func writeExample(b *strings.Builder, label, raw string) {
	ex := block(raw)
	if ex == "" {
		return
	}
	fence := fenceFor(ex)
	b.WriteString(label + "\n\n")
	b.WriteString(fence + "\n" + ex + "\n" + fence + "\n\n")
}

// headingText keeps a heading on one line.
func headingText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// codeSpan wraps s in a backtick run longer than any run inside it.
func codeSpan(s string) string {
	ticks := strings.Repeat("`", longestRun(s, '`')+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return ticks + " " + s + " " + ticks
	}
	return ticks + s + ticks
}

// fenceFor returns a backtick fence that no line of s can close.
func fenceFor(s string) string {
	return strings.Repeat("`", max(longestRun(s, '`')+1, 3))
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

// codeCell is a code span inside a table row. GFM splits cells on every
// unescaped pipe, code spans included.
func codeCell(s string) string {
	return strings.ReplaceAll(codeSpan(strings.Join(strings.Fields(s), " ")), "|", `\|`)
}

func tableCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// structural matches description lines that would otherwise be read as a
// heading, a setext underline, a thematic break, a code fence, a table row
// or the start of an HTML block. An HTML block runs to the next blank line
// or closing tag and would swallow the headings after it.
var structural = regexp.MustCompile("^ {0,3}(#|=+\\s*$|-+\\s*$|\\*\\*\\*+\\s*$|```|~~~|<|\\|)")

// escapeBlock keeps description text from changing the document outline.
func escapeBlock(p string) string {
	lines := strings.Split(p, "\n")
	for i, line := range lines {
		if structural.MatchString(line) {
			trimmed := strings.TrimLeft(line, " ")
			lines[i] = line[:len(line)-len(trimmed)] + `\` + trimmed
		}
	}
	return strings.Join(lines, "\n")
}
