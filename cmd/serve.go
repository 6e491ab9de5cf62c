package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iedon/zine-go/metrics"
	"github.com/iedon/zine-go/server"
)

func (a *app) newServeCommand() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Watch the source directory and serve the output over HTTP",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.apply(cmd, &flags, true)
			if cmd.Flags().Changed("listen") {
				listen, _ := cmd.Flags().GetString("listen")
				a.v.Set("listen", listen)
			}
			m := metrics.New()
			p, err := a.newPipeline(m)
			if err != nil {
				return err
			}
			reload := server.NewLiveReload(p.logger)
			p.onBuilt = reload.Broadcast

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(p.cfg.Dest, p.logger, a.info.Signature, server.Options{
				Status:     p.Status,
				Metrics:    m.Handler(),
				LiveReload: reload,
			})
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return p.watch(ctx) })
			g.Go(func() error { return srv.Start(ctx, p.cfg.Listen) })
			return g.Wait()
		},
	}
	flags.register(cmd, false)
	cmd.Flags().StringP("listen", "l", "", "listen address, host:port or unix:/path")
	return cmd
}
