package serve

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/filetools/internal/api"
	"github.com/tphakala/filetools/internal/config"
	"github.com/tphakala/filetools/internal/logger"
)

// Command creates the serve command
func Command(ctx *config.Context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the JSON API for units, volumes and background file generation.
Prometheus metrics are exposed on /metrics unless server.metrics is false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				ctx.Settings.Server.Listen = listen
			}
			return run(cmd.Context(), ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default server.listen)")
	return cmd
}

func run(cmdCtx context.Context, ctx *config.Context) error {
	if ctx.Settings.Server.Metrics {
		if err := ctx.EnableMetrics(); err != nil {
			return err
		}
	}

	enum, err := ctx.Enumerator()
	if err != nil {
		return err
	}
	poller := ctx.Poller(enum)
	gen := ctx.Generator(ctx.Allocator(0), enum)

	server, err := api.New(api.ConfigFromSettings(ctx.Settings), gen, poller,
		api.WithMetrics(ctx.Metrics),
		api.WithDisplayUnit(ctx.Settings.DisplayUnit()))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(cmdCtx)
	g.Go(func() error {
		if err := poller.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		poller.Stop()
		return nil
	})
	g.Go(func() error {
		return server.Run(gctx)
	})

	err = g.Wait()
	logger.Global().Module("cli").Info("Server stopped")
	return err
}
