// Package commands implements the schemadoc command line.
package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/schemadoc/internal/config"
	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/internal/logging"
	"github.com/dgallion1/schemadoc/schemas"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	searchPath []string
	logLevel   string
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	return newRootCommand(version, commit, buildDate).ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "schemadoc",
		Short: "Reference documentation for configuration schema packages",
		Long: `schemadoc renders configuration schemas as reference documentation.

A schema package is a directory holding a component.xml entry file and the
schema files it imports. Packages are looked up in the search path, then in
the schemas bundled with schemadoc.

Commands:
  render   render one package or schema file as HTML or Markdown
  build    render every target listed in the config file
  expand   expand schemadoc directives inside a Markdown document
  serve    serve rendered packages over HTTP`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default $SCHEMADOC_CONFIG)")
	rootCmd.PersistentFlags().StringArrayVarP(&opts.searchPath, "search-path", "I", nil, "schema search root, searched before configured roots (repeatable)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newRenderCommand(opts))
	rootCmd.AddCommand(newBuildCommand(opts))
	rootCmd.AddCommand(newExpandCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// env is the runtime shared by the subcommands once flags are parsed.
type env struct {
	cfg    config.Config
	log    *slog.Logger
	loader *loader.Loader
}

// setup loads the configuration, applies flag overrides and builds the
// logger and loader. Logs always go to the command's stderr so rendered
// output on stdout stays clean.
func (o *rootOptions) setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if len(o.searchPath) > 0 {
		cfg.SearchPath = append(append([]string(nil), o.searchPath...), cfg.SearchPath...)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.NewLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, cmd.ErrOrStderr())
	return &env{cfg: cfg, log: log, loader: newLoader(cfg.SearchPath)}, nil
}

func newLoader(searchPath []string) *loader.Loader {
	roots := make([]fs.FS, 0, len(searchPath)+1)
	for _, p := range searchPath {
		roots = append(roots, os.DirFS(p))
	}
	return loader.New(append(roots, schemas.FS)...)
}
