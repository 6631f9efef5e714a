package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/schemadoc/internal/config"
	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/internal/render"
)

// Worker renders the targets of a build job.
type Worker struct {
	gen     *Generator
	log     *slog.Logger
	baseDir string // Relative outputs and schema paths resolve against it
	format  render.Dialect
	workers int
}

func NewWorker(gen *Generator, log *slog.Logger, baseDir string, format render.Dialect, workers int) *Worker {
	if workers <= 0 {
		workers = 1
	}
	return &Worker{gen: gen, log: log, baseDir: baseDir, format: format, workers: workers}
}

// Process renders every target of the job with bounded concurrency. Each
// target loads its own tree; a failing target does not stop the others.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "targets", len(job.Targets))
	job.SetStatus(StatusRendering, "rendering")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for _, target := range job.Targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				w.failed(job, target, err)
				return nil
			}
			written, err := w.build(target)
			if err != nil {
				log.Error("target failed", "target", target.Name(), "error", err)
				w.failed(job, target, err)
				return nil
			}
			log.Debug("target built", "target", target.Name(), "output", target.Output, "written", written)
			job.TargetDone(written)
			if written {
				w.outcome(OutcomeWritten)
			} else {
				w.outcome(OutcomeUnchanged)
			}
			return nil
		})
	}
	_ = g.Wait()

	job.Finish()
	snap := job.Snapshot()
	log.Info("build finished",
		"status", snap.Status,
		"written", snap.Progress.Written,
		"unchanged", snap.Progress.Unchanged,
		"failed", snap.Progress.Failed,
	)
}

func (w *Worker) failed(job *Job, t config.Target, err error) {
	job.TargetFailed(t.Name(), err)
	w.outcome(OutcomeFailed)
}

func (w *Worker) outcome(o string) {
	if w.gen.rec != nil {
		w.gen.rec.TargetDone(o)
	}
}

func (w *Worker) build(t config.Target) (bool, error) {
	req, err := w.request(t)
	if err != nil {
		return false, err
	}
	res, err := w.gen.Generate(req)
	if err != nil {
		return false, err
	}
	return writeIfChanged(w.resolve(t.Output), res.Output)
}

func (w *Worker) request(t config.Target) (Request, error) {
	dialect := w.format
	if t.Format != "" {
		d, err := render.ParseDialect(t.Format)
		if err != nil {
			return Request{}, err
		}
		dialect = d
	}
	src := loader.Source{Package: t.Package, File: t.File}
	if t.Schema != "" {
		src = loader.Source{Path: w.resolve(t.Schema)}
	}
	return Request{
		Source:          src,
		Members:         t.Members,
		ExcludedMembers: t.ExcludedMembers,
		Dialect:         dialect,
	}, nil
}

func (w *Worker) resolve(p string) string {
	if filepath.IsAbs(p) || w.baseDir == "" {
		return p
	}
	return filepath.Join(w.baseDir, p)
}

// writeIfChanged replaces path with data unless it already holds exactly
// data. The write goes through a temporary file in the same directory so
// readers never see a partial document.
func writeIfChanged(path string, data []byte) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil && ContentHashHex(existing) == ContentHashHex(data) {
		return false, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
