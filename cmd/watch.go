package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func (a *app) newWatchCommand() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Rebuild whenever the source directory changes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.apply(cmd, &flags, true)
			p, err := a.newPipeline(nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return p.watch(ctx)
		},
	}
	flags.register(cmd, false)
	return cmd
}
