package cmd

import (
	"github.com/spf13/cobra"
)

func (a *app) newBuildCommand() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"b"},
		Short:   "Build the zine once",
		Long: `Build parses the manifest, renders every entity and writes the cache
store back to zine-data.json in the source directory.

Examples:
  zine build                       # build ./ into ./build
  zine build -s site -d public     # explicit source and destination
  zine build --minify --offline    # minified, without fetching link previews`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.apply(cmd, &flags, false)
			p, err := a.newPipeline(nil)
			if err != nil {
				return err
			}
			if err := p.build(cmd.Context()); err != nil {
				p.logger.Error("build", "error", err)
				return err
			}
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}
