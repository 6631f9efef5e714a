package loader

import (
	"fmt"
	"slices"

	"github.com/dgallion1/schemadoc/internal/schema"
)

// assemble applies inheritance over every known declaration, then hangs the
// declarations selected for the tree under root.
func assemble(root *schema.Node, known, selected []*decl) error {
	byName := make(map[string]*decl, len(known))
	for _, d := range known {
		qn := d.node.QualifiedName
		if _, dup := byName[qn]; dup || qn == root.QualifiedName {
			return fmt.Errorf("duplicate definition of %s", qn)
		}
		byName[qn] = d
	}

	if err := inherit(known, byName); err != nil {
		return err
	}
	arrange(root, selected)
	return checkSiblings(root)
}

// inherit prepends base-type attributes to every type that extends another
// known type. Attributes redeclared by the derived type replace the base's.
func inherit(known []*decl, byName map[string]*decl) error {
	done := make(map[*decl]bool, len(known))
	visiting := make(map[*decl]bool)

	var resolve func(d *decl) error
	resolve = func(d *decl) error {
		if done[d] {
			return nil
		}
		if visiting[d] {
			return fmt.Errorf("inheritance cycle at %s", d.node.QualifiedName)
		}
		visiting[d] = true

		attrs := slices.Clone(d.own)
		if base, ok := byName[d.node.Extends]; ok && d.node.Extends != "" {
			if err := resolve(base); err != nil {
				return err
			}
			var merged []schema.Attribute
			for _, a := range base.node.Attributes {
				if !slices.ContainsFunc(d.own, func(o schema.Attribute) bool { return o.Name == a.Name }) {
					merged = append(merged, a)
				}
			}
			attrs = append(merged, d.own...)
			if d.node.Datatype == "" {
				d.node.Datatype = base.node.Datatype
			}
		}
		d.node.Attributes = attrs

		visiting[d] = false
		done[d] = true
		return nil
	}

	for _, d := range known {
		if err := resolve(d); err != nil {
			return err
		}
	}
	return nil
}

// arrange nests each declaration under the first type that refers to it,
// either through a directly declared section usage or, for abstract types,
// through an implementation. Everything else hangs off root in declaration
// order, so every declaration is placed exactly once.
func arrange(root *schema.Node, decls []*decl) {
	inTree := make(map[string]*decl, len(decls))
	for _, d := range decls {
		inTree[d.node.QualifiedName] = d
	}

	edges := make(map[*decl][]*decl)
	nested := make(map[*decl]bool)
	for _, d := range decls {
		for _, a := range d.own {
			if target, ok := inTree[schema.SectionUsageType(a.Type)]; ok && target != d {
				edges[d] = append(edges[d], target)
				nested[target] = true
			}
		}
		if abstract, ok := inTree[d.node.Implements]; ok && abstract != d && abstract.node.Abstract {
			edges[abstract] = append(edges[abstract], d)
			nested[d] = true
		}
	}

	placed := make(map[*decl]bool, len(decls))
	var place func(parent *schema.Node, d *decl)
	place = func(parent *schema.Node, d *decl) {
		placed[d] = true
		parent.Children = append(parent.Children, d.node)
		for _, child := range edges[d] {
			if !placed[child] {
				place(d.node, child)
			}
		}
	}

	for _, d := range decls {
		if !nested[d] && !placed[d] {
			place(root, d)
		}
	}
	// Types only reachable through a reference cycle.
	for _, d := range decls {
		if !placed[d] {
			place(root, d)
		}
	}
}

func checkSiblings(n *schema.Node) error {
	seen := make(map[string]bool, len(n.Children))
	for _, child := range n.Children {
		if seen[child.DisplayName] {
			return fmt.Errorf("duplicate name %q under %s", child.DisplayName, n.QualifiedName)
		}
		seen[child.DisplayName] = true
		if err := checkSiblings(child); err != nil {
			return err
		}
	}
	return nil
}
