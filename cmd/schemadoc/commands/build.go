package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/schemadoc/internal/config"
	"github.com/dgallion1/schemadoc/internal/pipeline"
	"github.com/dgallion1/schemadoc/internal/render"
)

func newBuildCommand(root *rootOptions) *cobra.Command {
	var (
		watch bool
		only  []string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every target listed in the config file",
		Long: `Render the targets listed under "targets" in the config file.

Targets are rendered concurrently, up to build_workers at a time. An output
file is only rewritten when its content changes. With --watch the build
reruns whenever a schema under the search path or the config file changes.`,
		Example: `  # Build all targets once
  schemadoc build -c schemadoc.yaml

  # Rebuild the logger target on every schema change
  schemadoc build -c schemadoc.yaml --target logger --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.setup(cmd)
			if err != nil {
				return err
			}

			snap, err := runBuild(cmd, env, only)
			if err != nil {
				return err
			}
			if !watch {
				return buildError(snap)
			}

			roots, files := watchSet(env.cfg)
			return pipeline.Watch(cmd.Context(), env.log, roots, files, env.cfg.WatchDebounce, func() {
				// Reload so edits to the config file take effect.
				next, err := root.setup(cmd)
				if err != nil {
					env.log.Error("reload configuration", "error", err)
					return
				}
				if _, err := runBuild(cmd, next, only); err != nil {
					env.log.Error("rebuild", "error", err)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when schemas or the config file change")
	cmd.Flags().StringArrayVarP(&only, "target", "t", nil, "build only the named target (repeatable)")

	return cmd
}

func runBuild(cmd *cobra.Command, env *env, only []string) (pipeline.JobSnapshot, error) {
	targets, err := pickTargets(env.cfg.Targets, only)
	if err != nil {
		return pipeline.JobSnapshot{}, err
	}

	dialect, err := render.ParseDialect(env.cfg.Format)
	if err != nil {
		return pipeline.JobSnapshot{}, err
	}
	gen := pipeline.NewGenerator(env.loader, env.log, nil)
	worker := pipeline.NewWorker(gen, env.log, env.cfg.BaseDir(), dialect, env.cfg.BuildWorkers)
	job := pipeline.NewOrchestrator(worker, env.log).Run(cmd.Context(), targets)

	snap := job.Snapshot()
	report(cmd.OutOrStdout(), snap)
	return snap, nil
}

func pickTargets(configured []config.Target, only []string) ([]config.Target, error) {
	if len(configured) == 0 {
		return nil, fmt.Errorf("no build targets configured")
	}
	if len(only) == 0 {
		return configured, nil
	}
	var out []config.Target
	for _, name := range only {
		n := len(out)
		for _, t := range configured {
			if t.Name() == name {
				out = append(out, t)
			}
		}
		if len(out) == n {
			return nil, fmt.Errorf("unknown target %q", name)
		}
	}
	return out, nil
}

func report(w io.Writer, snap pipeline.JobSnapshot) {
	p := snap.Progress
	fmt.Fprintf(w, "build %s: %d written, %d unchanged, %d failed\n", snap.Status, p.Written, p.Unchanged, p.Failed)
	for _, e := range p.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func buildError(snap pipeline.JobSnapshot) error {
	if snap.Progress.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d targets failed", snap.Progress.Failed, snap.Progress.TotalTargets)
}

// watchSet lists the directories and files whose changes trigger a rebuild.
func watchSet(cfg config.Config) (roots, files []string) {
	roots = append(roots, cfg.SearchPath...)
	if cfg.File != "" {
		files = append(files, cfg.File)
	}
	for _, t := range cfg.Targets {
		if t.Schema == "" {
			continue
		}
		p := t.Schema
		if !filepath.IsAbs(p) && cfg.BaseDir() != "" {
			p = filepath.Join(cfg.BaseDir(), p)
		}
		files = append(files, p)
	}
	return roots, files
}
