// Package filter computes which nodes of a component tree are documented,
// given the members and excluded-members selectors.
//
// Resolution is two explicit set computations: the candidate set selected by
// the include tokens (everything when there are none), minus the subtrees
// selected by the exclude tokens. Exclusion therefore always wins, whatever
// order the tokens were written in. The root is always kept as the anchor of
// the rendered document.
package filter

import (
	"strings"

	"github.com/dgallion1/schemadoc/internal/schema"
)

// Set is a set of qualified names.
type Set map[string]struct{}

// Has reports whether qualifiedName is in the set.
func (s Set) Has(qualifiedName string) bool {
	_, ok := s[qualifiedName]
	return ok
}

func (s Set) add(qualifiedName string) {
	s[qualifiedName] = struct{}{}
}

// Resolve returns the qualified names of the nodes to render. Tokens that
// match nothing are ignored.
func Resolve(tree *schema.Tree, include, exclude []string) Set {
	var candidates Set
	if len(normalize(include)) == 0 {
		candidates = All(tree)
	} else {
		candidates = Select(tree, include)
	}
	for qn := range Select(tree, exclude) {
		delete(candidates, qn)
	}
	if tree != nil && tree.Root != nil {
		candidates.add(tree.Root.QualifiedName)
	}
	return candidates
}

// All returns every qualified name in the tree.
func All(tree *schema.Tree) Set {
	s := make(Set)
	tree.Walk(func(n *schema.Node, _ []*schema.Node) bool {
		s.add(n.QualifiedName)
		return true
	})
	return s
}

// Select returns every node matched by a token, together with the whole
// subtree below each match. No tokens select nothing.
func Select(tree *schema.Tree, tokens []string) Set {
	s := make(Set)
	m := newMatcher(tree, tokens)
	if m.empty() {
		return s
	}

	var visit func(n *schema.Node, inherited bool)
	visit = func(n *schema.Node, inherited bool) {
		selected := inherited || m.matchAny(n)
		if selected {
			s.add(n.QualifiedName)
		}
		for _, child := range n.Children {
			visit(child, selected)
		}
	}
	if tree != nil && tree.Root != nil {
		visit(tree.Root, false)
	}
	return s
}

// Unmatched returns the tokens that match no node of the tree.
func Unmatched(tree *schema.Tree, tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		m := newMatcher(tree, []string{tok})
		if m.empty() {
			continue
		}
		found := false
		tree.Walk(func(n *schema.Node, _ []*schema.Node) bool {
			if found {
				return false
			}
			found = m.matchAny(n)
			return !found
		})
		if !found {
			out = append(out, tok)
		}
	}
	return out
}

// ParseSelector splits a raw members option into tokens. Tokens are
// separated by any whitespace, including newlines.
func ParseSelector(raw string) []string {
	return strings.Fields(raw)
}

type matcher struct {
	root   *schema.Node
	prefix string
	tokens []string
}

func newMatcher(tree *schema.Tree, tokens []string) *matcher {
	m := &matcher{tokens: normalize(tokens)}
	if tree != nil {
		m.root = tree.Root
		m.prefix = strings.ToLower(tree.Prefix)
	}
	return m
}

func normalize(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func (m *matcher) empty() bool {
	return len(m.tokens) == 0
}

func (m *matcher) matchAny(n *schema.Node) bool {
	for _, tok := range m.tokens {
		if m.match(tok, n) {
			return true
		}
	}
	return false
}

// match compares on whole dotted segments only: "log" never matches
// "logger", and "zconfig.log" never matches "zconfig.logger". The root is
// never matched; it is kept unconditionally by Resolve.
func (m *matcher) match(tok string, n *schema.Node) bool {
	if n == m.root {
		return false
	}
	qn := strings.ToLower(n.QualifiedName)
	if qn == tok || strings.HasPrefix(qn, tok+".") {
		return true
	}
	if m.prefix != "" {
		rel := m.prefix + "." + tok
		if qn == rel || strings.HasPrefix(qn, rel+".") {
			return true
		}
	}
	return !strings.Contains(tok, ".") && strings.ToLower(n.DisplayName) == tok
}
