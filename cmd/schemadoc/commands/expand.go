package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/schemadoc/internal/directive"
	"github.com/dgallion1/schemadoc/internal/parser"
)

func newExpandCommand(root *rootOptions) *cobra.Command {
	var text bool

	cmd := &cobra.Command{
		Use:   "expand FILE",
		Short: "Expand schemadoc directives in a host document",
		Long: `Parse a Markdown or HTML host document into its section tree.

In Markdown, a fenced block whose info string is "{schemadoc} PACKAGE" is
replaced by the rendered package. Options follow as ":name: value" lines:

  ` + "```" + `{schemadoc} logger
  :file: base-logger.xml
  :members: base-logger
  :excluded-members: zconfig.logger.handler
  ` + "```" + `

The tree is printed as JSON, or as plain text with --text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.setup(cmd)
			if err != nil {
				return err
			}

			reg := parser.NewRegistry()
			directive.New(env.loader, env.log).Register(reg)
			p, err := parser.ForFile(args[0], reg)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			tree, err := p.Parse(f, filepath.Base(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if text {
				_, err = fmt.Fprintln(out, tree.AsText())
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(tree)
		},
	}

	cmd.Flags().BoolVar(&text, "text", false, "print the flattened text instead of JSON")

	return cmd
}
