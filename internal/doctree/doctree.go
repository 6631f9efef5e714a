package doctree

import "strings"

// DocTree is the root of a parsed host document.
type DocTree struct {
	Title    string     `json:"title"`    // Document title (from metadata or filename)
	Children []*DocNode `json:"children"` // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     `json:"title,omitempty"`    // Section heading (empty for leaf text)
	Text     string     `json:"text,omitempty"`     // Text content of this node (may be empty for container nodes)
	Line     int        `json:"line,omitempty"`     // Source line of the heading (0 if N/A)
	Children []*DocNode `json:"children,omitempty"` // Subsections
}

// AsText flattens the node and its subsections into plain text, headings
// first, in document order.
func (n *DocNode) AsText() string {
	var parts []string
	n.collect(&parts)
	return strings.Join(parts, "\n\n")
}

func (n *DocNode) collect(parts *[]string) {
	if n.Title != "" {
		*parts = append(*parts, n.Title)
	}
	if n.Text != "" {
		*parts = append(*parts, n.Text)
	}
	for _, c := range n.Children {
		c.collect(parts)
	}
}

// AsText flattens the whole document.
func (t *DocTree) AsText() string {
	return Flatten(t.Children)
}

// Flatten joins the text of a node list.
func Flatten(nodes []*DocNode) string {
	var parts []string
	for _, n := range nodes {
		n.collect(&parts)
	}
	return strings.Join(parts, "\n\n")
}

// Find returns the first node, in preorder, whose title is title.
func Find(nodes []*DocNode, title string) *DocNode {
	for _, n := range nodes {
		if n.Title == title {
			return n
		}
		if found := Find(n.Children, title); found != nil {
			return found
		}
	}
	return nil
}
