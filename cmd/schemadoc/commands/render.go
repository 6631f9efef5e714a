package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/schemadoc/internal/filter"
	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/internal/pipeline"
	"github.com/dgallion1/schemadoc/internal/render"
)

type renderOptions struct {
	pkg             string
	file            string
	members         string
	excludedMembers string
	format          string
	out             string
}

func newRenderCommand(root *rootOptions) *cobra.Command {
	var o renderOptions

	cmd := &cobra.Command{
		Use:   "render [schema.xml|-]",
		Short: "Render a schema package or schema file",
		Long: `Render a schema package, or a single schema file, as one HTML or
Markdown document.

Member selectors are whitespace separated. A token selects a type or
section by qualified name, by a qualified name relative to the package
prefix, or by its plain name; the whole subtree of a match is rendered.
Excluded members are removed from the selection.`,
		Example: `  # Whole bundled logger package as HTML
  schemadoc render --package logger

  # Only the syslog and logfile handlers, as Markdown
  schemadoc render -p logger --members "syslog logfile" -f markdown

  # One schema file read from stdin
  cat schema.xml | schemadoc render - -o schema.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.setup(cmd)
			if err != nil {
				return err
			}
			return runRender(cmd, env, o, args)
		},
	}

	cmd.Flags().StringVarP(&o.pkg, "package", "p", "", "schema package to render")
	cmd.Flags().StringVar(&o.file, "package-file", "", "restrict the package to types declared in this file")
	cmd.Flags().StringVar(&o.members, "members", "", "members to render (default all)")
	cmd.Flags().StringVar(&o.excludedMembers, "excluded-members", "", "members to leave out")
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "output format: html or markdown (default from config)")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "write to this file instead of stdout")

	return cmd
}

func runRender(cmd *cobra.Command, env *env, o renderOptions, args []string) error {
	format := o.format
	if format == "" {
		format = env.cfg.Format
	}
	dialect, err := render.ParseDialect(format)
	if err != nil {
		return err
	}

	switch {
	case o.pkg != "" && len(args) > 0:
		return errors.New("give either a schema file or --package, not both")
	case o.pkg == "" && len(args) == 0:
		return errors.New("a schema file, - or --package is required")
	case o.file != "" && o.pkg == "":
		return errors.New("--package-file requires --package")
	}

	req := pipeline.Request{
		Members:         filter.ParseSelector(o.members),
		ExcludedMembers: filter.ParseSelector(o.excludedMembers),
		Dialect:         dialect,
	}
	gen := pipeline.NewGenerator(env.loader, env.log, nil)

	var res *pipeline.Result
	switch {
	case o.pkg != "":
		req.Source = loader.Source{Package: o.pkg, File: o.file}
		res, err = gen.Generate(req)
	case args[0] == "-":
		tree, lerr := loader.LoadReader(cmd.InOrStdin(), "stdin")
		if lerr != nil {
			return lerr
		}
		req.Source = loader.Source{Path: "stdin"}
		res, err = gen.Render(tree, req)
	default:
		req.Source = loader.Source{Path: args[0]}
		res, err = gen.Generate(req)
	}
	if err != nil {
		return err
	}

	for _, tok := range res.Unmatched {
		env.log.Warn("selector token matched nothing", "source", req.Source.String(), "token", tok)
	}

	if o.out == "" {
		_, err = cmd.OutOrStdout().Write(res.Output)
		return err
	}
	if err := os.WriteFile(o.out, res.Output, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", o.out, err)
	}
	env.log.Info("rendered", "source", req.Source.String(), "title", res.Title, "output", o.out, "bytes", len(res.Output))
	return nil
}
