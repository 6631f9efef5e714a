package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/schemadoc/internal/config"
	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/internal/render"
	"github.com/dgallion1/schemadoc/schemas"
)

type recorded struct {
	dialect render.Dialect
	err     error
}

type fakeRecorder struct {
	mu       sync.Mutex
	seen     []recorded
	outcomes []string
}

func (r *fakeRecorder) TargetDone(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) RenderDone(d render.Dialect, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recorded{d, err})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(t *testing.T, rec Recorder) (*Worker, string) {
	t.Helper()
	dir := t.TempDir()
	gen := NewGenerator(loader.New(schemas.FS), testLogger(), rec)
	return NewWorker(gen, testLogger(), dir, render.HTML, 2), dir
}

func TestGenerate_Package(t *testing.T) {
	rec := &fakeRecorder{}
	gen := NewGenerator(loader.New(schemas.FS), testLogger(), rec)

	res, err := gen.Generate(Request{
		Source:  loader.Source{Package: "logger"},
		Members: []string{"syslog", "nosuch"},
		Dialect: render.Markdown,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "logger" {
		t.Errorf("expected title %q, got %q", "logger", res.Title)
	}
	out := string(res.Output)
	if !strings.HasPrefix(out, "logger\n======\n") {
		t.Errorf("expected setext title, got %q", out[:min(len(out), 40)])
	}
	if !strings.Contains(out, "SyslogHandlerFactory") || strings.Contains(out, "SMTPHandlerFactory") {
		t.Errorf("unexpected filtered output:\n%s", out)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0] != "nosuch" {
		t.Errorf("expected unmatched [nosuch], got %v", res.Unmatched)
	}
	if len(rec.seen) != 1 || rec.seen[0].err != nil || rec.seen[0].dialect != render.Markdown {
		t.Errorf("unexpected recorded renders %+v", rec.seen)
	}
}

func TestGenerate_LoadError(t *testing.T) {
	rec := &fakeRecorder{}
	gen := NewGenerator(loader.New(schemas.FS), testLogger(), rec)

	_, err := gen.Generate(Request{Source: loader.Source{Package: "nosuch"}, Dialect: render.HTML})
	var loadErr *loader.SchemaLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected SchemaLoadError, got %v", err)
	}
	if len(rec.seen) != 1 || rec.seen[0].err == nil {
		t.Errorf("expected one failed render recorded, got %+v", rec.seen)
	}
}

func TestGenerate_UnknownDialect(t *testing.T) {
	gen := NewGenerator(loader.New(schemas.FS), testLogger(), nil)
	if _, err := gen.Generate(Request{Source: loader.Source{Package: "logger"}, Dialect: "pdf"}); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestWorker_WritesTargets(t *testing.T) {
	w, dir := newTestWorker(t, nil)
	job := NewJob([]config.Target{
		{Package: "logger", Output: "out/logger.html"},
		{Package: "logger", File: "base-logger.xml", Format: "markdown", Output: "out/base.md"},
	})
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Written != 2 {
		t.Errorf("expected 2 written, got %d", snap.Progress.Written)
	}

	html, err := os.ReadFile(filepath.Join(dir, "out/logger.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(html), "<!DOCTYPE html>") {
		t.Errorf("expected an HTML document, got %q", string(html[:min(len(html), 40)]))
	}
	md, err := os.ReadFile(filepath.Join(dir, "out/base.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(md), "base-logger.xml\n") {
		t.Errorf("expected markdown titled by file, got %q", string(md[:min(len(md), 40)]))
	}
}

func TestWorker_UnchangedOnRebuild(t *testing.T) {
	w, dir := newTestWorker(t, nil)
	targets := []config.Target{{Package: "logger", Output: "logger.html"}}

	w.Process(context.Background(), NewJob(targets))
	path := filepath.Join(dir, "logger.html")
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	job := NewJob(targets)
	w.Process(context.Background(), job)
	snap := job.Snapshot()
	if snap.Progress.Unchanged != 1 || snap.Progress.Written != 0 {
		t.Errorf("expected an unchanged target, got %+v", snap.Progress)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("expected the output file to be left alone")
	}
}

func TestWorker_PartialFailure(t *testing.T) {
	rec := &fakeRecorder{}
	w, dir := newTestWorker(t, rec)
	job := NewJob([]config.Target{
		{Package: "logger", Output: "ok.html"},
		{Package: "nosuch", Output: "missing.html"},
	})
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) != 1 || !strings.HasPrefix(snap.Progress.Errors[0], "nosuch: ") {
		t.Errorf("unexpected errors %v", snap.Progress.Errors)
	}
	if _, err := os.Stat(filepath.Join(dir, "missing.html")); !os.IsNotExist(err) {
		t.Error("expected no output for the failed target")
	}
	slices.Sort(rec.outcomes)
	if !slices.Equal(rec.outcomes, []string{OutcomeFailed, OutcomeWritten}) {
		t.Errorf("unexpected outcomes %v", rec.outcomes)
	}
}

func TestWorker_SchemaTarget(t *testing.T) {
	w, dir := newTestWorker(t, nil)
	data, err := os.ReadFile("../loader/testdata/simple.xml")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "simple.xml"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	job := NewJob([]config.Target{{Schema: "simple.xml", Format: "md", Output: "simple.md"}})
	w.Process(context.Background(), job)
	if snap := job.Snapshot(); snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}
	md, err := os.ReadFile(filepath.Join(dir, "simple.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(md), "var1") {
		t.Errorf("expected key var1 in output:\n%s", md)
	}
}

func TestWorker_CancelledContext(t *testing.T) {
	w, _ := newTestWorker(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewJob([]config.Target{{Package: "logger", Output: "logger.html"}})
	w.Process(ctx, job)
	if snap := job.Snapshot(); snap.Status != StatusFailed {
		t.Errorf("expected failed, got %q", snap.Status)
	}
}

func TestWriteIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.md")

	written, err := writeIfChanged(path, []byte("one\n"))
	if err != nil || !written {
		t.Fatalf("expected first write, got %v %v", written, err)
	}
	written, err = writeIfChanged(path, []byte("one\n"))
	if err != nil || written {
		t.Fatalf("expected no write for identical content, got %v %v", written, err)
	}
	written, err = writeIfChanged(path, []byte("two\n"))
	if err != nil || !written {
		t.Fatalf("expected rewrite, got %v %v", written, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "two\n" {
		t.Errorf("unexpected content %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestOrchestrator_Submit(t *testing.T) {
	w, dir := newTestWorker(t, nil)
	o := NewOrchestrator(w, testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job, err := o.Submit([]config.Target{{Package: "logger", Output: "logger.html"}})
	if err != nil {
		t.Fatal(err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected submitted job to be retrievable")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := job.Snapshot().Status; s == StatusCompleted {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if s := job.Snapshot().Status; s != StatusCompleted {
		t.Fatalf("expected completed, got %q", s)
	}
	if _, err := os.Stat(filepath.Join(dir, "logger.html")); err != nil {
		t.Errorf("expected output written: %v", err)
	}
}

func TestOrchestrator_Run(t *testing.T) {
	w, _ := newTestWorker(t, nil)
	o := NewOrchestrator(w, testLogger())

	job := o.Run(context.Background(), []config.Target{{Package: "logger", Output: "a.md", Format: "markdown"}})
	if job.Snapshot().Status != StatusCompleted {
		t.Errorf("expected completed, got %q", job.Snapshot().Status)
	}
	if o.GetJob(job.ID) == nil {
		t.Error("expected inline job to be stored")
	}
}
