// Package directive embeds schema reference documentation in host
// documents. A Bridge loads a package, applies the member selectors,
// renders the result as Markdown and parses it back into host nodes, so the
// generated sections nest like hand-written ones.
package directive

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgallion1/schemadoc/internal/doctree"
	"github.com/dgallion1/schemadoc/internal/filter"
	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/internal/parser"
	"github.com/dgallion1/schemadoc/internal/render"
)

// Name is the directive name used in host documents.
const Name = "schemadoc"

// Options accepted by the directive.
const (
	OptFile            = "file"
	OptMembers         = "members"
	OptExcludedMembers = "excluded-members"
)

// Bridge adapts the schema pipeline to the parser.Directive interface.
type Bridge struct {
	loader *loader.Loader
	log    *slog.Logger
}

func New(l *loader.Loader, log *slog.Logger) *Bridge {
	return &Bridge{loader: l, log: log}
}

// Register installs the bridge in a directive registry under Name.
func (b *Bridge) Register(reg *parser.Registry) {
	reg.Register(Name, b)
}

// Run renders the package pkgID and returns the generated host nodes.
func (b *Bridge) Run(pkgID string, options map[string]string) ([]*doctree.DocNode, error) {
	pkgID = strings.TrimSpace(pkgID)
	if pkgID == "" {
		return nil, fmt.Errorf("missing package argument")
	}
	if err := checkOptions(options); err != nil {
		return nil, err
	}

	tree, err := b.loader.LoadPackage(pkgID, strings.TrimSpace(options[OptFile]))
	if err != nil {
		return nil, err
	}

	include := filter.ParseSelector(options[OptMembers])
	exclude := filter.ParseSelector(options[OptExcludedMembers])
	if unmatched := filter.Unmatched(tree, append(include, exclude...)); len(unmatched) > 0 {
		b.log.Debug("selector tokens matched nothing", "package", pkgID, "tokens", unmatched)
	}
	visible := filter.Resolve(tree, include, exclude)

	var buf bytes.Buffer
	if err := (&render.MarkdownRenderer{}).Render(&buf, tree, visible); err != nil {
		return nil, err
	}
	if err := render.Check(render.Markdown, buf.String()); err != nil {
		return nil, err
	}

	host, err := (&parser.MarkdownParser{}).Parse(&buf, pkgID)
	if err != nil {
		return nil, fmt.Errorf("parse rendered %s: %w", pkgID, err)
	}

	b.log.Debug("directive expanded",
		"package", pkgID,
		"file", options[OptFile],
		"visible", len(visible),
	)
	return host.Children, nil
}

func checkOptions(options map[string]string) error {
	var unknown []string
	for key := range options {
		switch key {
		case OptFile, OptMembers, OptExcludedMembers:
		default:
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown options: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Expand is a convenience for callers holding only a host document: it
// parses src, picking the parser by filename, with a registry containing
// the bridge.
func (b *Bridge) Expand(src []byte, filename string) (*doctree.DocTree, error) {
	reg := parser.NewRegistry()
	b.Register(reg)
	p, err := parser.ForFile(filename, reg)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(src), filename)
}
