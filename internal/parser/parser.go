package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/schemadoc/internal/doctree"
)

// Parser converts a host document into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// hostFormats maps a lowercased file extension to its parser. Directive
// calls are only expanded in Markdown documents.
var hostFormats = map[string]func(*Registry) Parser{
	".md":       newMarkdown,
	".markdown": newMarkdown,
	".html":     newHTML,
	".htm":      newHTML,
}

func newMarkdown(directives *Registry) Parser { return &MarkdownParser{Directives: directives} }

func newHTML(*Registry) Parser { return &HTMLParser{} }

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, directives *Registry) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	newParser, ok := hostFormats[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
	return newParser(directives), nil
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	_, ok := hostFormats[strings.ToLower(filepath.Ext(filename))]
	return ok
}
