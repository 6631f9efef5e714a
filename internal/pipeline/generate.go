package pipeline

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/schemadoc/internal/filter"
	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/internal/render"
	"github.com/dgallion1/schemadoc/internal/schema"
)

// Request describes one rendered document.
type Request struct {
	Source          loader.Source
	Members         []string
	ExcludedMembers []string
	Dialect         render.Dialect
}

// Result is a rendered, integrity-checked document.
type Result struct {
	Output    []byte
	Title     string
	Visible   int      // Number of rendered nodes, root included
	Unmatched []string // Selector tokens that matched nothing
}

// Recorder observes finished renders and build targets. Implementations
// must be safe for concurrent use.
type Recorder interface {
	RenderDone(dialect render.Dialect, elapsed time.Duration, err error)
	TargetDone(outcome string)
}

// Build target outcomes passed to Recorder.TargetDone.
const (
	OutcomeWritten   = "written"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

// Generator runs load, filter and render for a request.
type Generator struct {
	loader *loader.Loader
	log    *slog.Logger
	rec    Recorder
}

// NewGenerator creates a generator. rec may be nil.
func NewGenerator(l *loader.Loader, log *slog.Logger, rec Recorder) *Generator {
	return &Generator{loader: l, log: log, rec: rec}
}

// Generate loads the request's source and renders it.
func (g *Generator) Generate(req Request) (*Result, error) {
	start := time.Now()
	tree, err := g.loader.Load(req.Source)
	if err != nil {
		g.record(req.Dialect, start, err)
		return nil, err
	}
	return g.render(tree, req, start)
}

// Render renders an already loaded tree.
func (g *Generator) Render(tree *schema.Tree, req Request) (*Result, error) {
	return g.render(tree, req, time.Now())
}

func (g *Generator) render(tree *schema.Tree, req Request, start time.Time) (*Result, error) {
	res, err := g.renderTree(tree, req)
	g.record(req.Dialect, start, err)
	if err != nil {
		return nil, err
	}
	g.log.Debug("rendered",
		"source", req.Source.String(),
		"format", req.Dialect,
		"visible", res.Visible,
		"bytes", len(res.Output),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (g *Generator) renderTree(tree *schema.Tree, req Request) (*Result, error) {
	f, err := render.New(req.Dialect)
	if err != nil {
		return nil, err
	}

	unmatched := filter.Unmatched(tree, append(append([]string(nil), req.Members...), req.ExcludedMembers...))
	if len(unmatched) > 0 {
		g.log.Debug("selector tokens matched nothing", "source", req.Source.String(), "tokens", unmatched)
	}
	visible := filter.Resolve(tree, req.Members, req.ExcludedMembers)

	var buf bytes.Buffer
	if err := f.Render(&buf, tree, visible); err != nil {
		return nil, fmt.Errorf("render %s: %w", req.Source, err)
	}
	if err := render.Check(req.Dialect, buf.String()); err != nil {
		return nil, err
	}

	return &Result{
		Output:    buf.Bytes(),
		Title:     tree.Root.DisplayName,
		Visible:   len(visible),
		Unmatched: unmatched,
	}, nil
}

func (g *Generator) record(d render.Dialect, start time.Time, err error) {
	if g.rec != nil {
		g.rec.RenderDone(d, time.Since(start), err)
	}
}
