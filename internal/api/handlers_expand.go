package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/internal/parser"
)

// handleExpand parses a host document, runs its schemadoc directives and
// returns the resulting section tree. The filename query parameter picks
// the parser and defaults to Markdown.
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	filename := sanitizeFilename(r.URL.Query().Get("filename"))
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported document type: %s", filename), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)
	src, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxRequestBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	tree, err := s.bridge.Expand(src, filename)
	if err != nil {
		var loadErr *loader.SchemaLoadError
		if errors.As(err, &loadErr) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonResponse(w, http.StatusOK, tree)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "request.md"
	}
	return name
}
