package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/schemadoc/internal/filter"
	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/internal/pipeline"
	"github.com/dgallion1/schemadoc/internal/render"
)

var contentTypes = map[render.Dialect]string{
	render.HTML:     "text/html; charset=utf-8",
	render.Markdown: "text/markdown; charset=utf-8",
}

// handlePackage renders a schema package, optionally restricted to one
// file and filtered by member selectors.
func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format := q.Get("format")
	if format == "" {
		format = s.cfg.Format
	}
	dialect, err := render.ParseDialect(format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.generator.Generate(pipeline.Request{
		Source:          loader.Source{Package: chi.URLParam(r, "pkg"), File: q.Get("file")},
		Members:         filter.ParseSelector(q.Get("members")),
		ExcludedMembers: filter.ParseSelector(q.Get("excluded-members")),
		Dialect:         dialect,
	})
	if err != nil {
		var loadErr *loader.SchemaLoadError
		if errors.As(err, &loadErr) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.log.Error("render failed", "package", chi.URLParam(r, "pkg"), "error", err)
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypes[dialect])
	w.Header().Set("X-Schemadoc-Title", res.Title)
	if len(res.Unmatched) > 0 {
		w.Header().Set("X-Schemadoc-Unmatched", strings.Join(res.Unmatched, " "))
	}
	w.Write(res.Output)
}
