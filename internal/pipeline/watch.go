package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch calls rebuild whenever a schema file under roots, or one of the
// extra files, changes. Bursts of events within debounce trigger a single
// rebuild. Watch blocks until ctx is done.
func Watch(ctx context.Context, log *slog.Logger, roots, files []string, debounce time.Duration, rebuild func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	extra := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		extra[abs] = true
		// Editors replace files on save; watching the directory catches that.
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			log.Warn("cannot watch file", "path", f, "error", err)
		}
	}
	for _, root := range roots {
		if err := addTree(watcher, root); err != nil {
			log.Warn("cannot watch search root", "path", root, "error", err)
		}
	}
	log.Info("watching for changes", "roots", len(roots), "files", len(files))

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						log.Warn("cannot watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if !relevant(event, extra) {
				continue
			}
			log.Debug("change detected", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", "error", err)
		}
	}
}

func relevant(event fsnotify.Event, extra map[string]bool) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if strings.EqualFold(filepath.Ext(event.Name), ".xml") {
		return true
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && extra[abs]
}

// addTree watches dir and every directory below it.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
