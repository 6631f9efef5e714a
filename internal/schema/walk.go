package schema

import "strings"

// Walk visits every node depth-first in preorder. parents holds the chain of
// ancestors from the root, nearest last. Returning false skips the subtree.
func (t *Tree) Walk(fn func(n *Node, parents []*Node) bool) {
	if t == nil || t.Root == nil {
		return
	}
	walkNode(t.Root, nil, fn)
}

func walkNode(n *Node, parents []*Node, fn func(*Node, []*Node) bool) {
	if !fn(n, parents) {
		return
	}
	chain := append(parents[:len(parents):len(parents)], n)
	for _, child := range n.Children {
		walkNode(child, chain, fn)
	}
}

// Nodes returns all nodes in preorder, root first.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	t.Walk(func(n *Node, _ []*Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Len returns the number of nodes including the root.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*Node, []*Node) bool {
		count++
		return true
	})
	return count
}

// Find returns the node with the given qualified name, or nil.
func (t *Tree) Find(qualifiedName string) *Node {
	var found *Node
	t.Walk(func(n *Node, _ []*Node) bool {
		if found != nil {
			return false
		}
		if n.QualifiedName == qualifiedName {
			found = n
			return false
		}
		return true
	})
	return found
}

// SectionUsageType returns the section type referenced by a section or
// multisection attribute signature, or "" for keys.
func SectionUsageType(signature string) string {
	for _, prefix := range []string{"section: ", "multisection: "} {
		if t, ok := strings.CutPrefix(signature, prefix); ok {
			return t
		}
	}
	return ""
}
