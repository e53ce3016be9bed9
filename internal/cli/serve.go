package cli

import (
	"github.com/spf13/cobra"

	"github.com/topogram/topokit/pkg/observability"
	"github.com/topogram/topokit/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve builds, rankings and file parsing over HTTP",
		Long: `Serve exposes the build, rank and parse operations as a JSON API:

  GET  /healthz
  GET  /v1/graph/{package}
  GET  /v1/rank
  POST /v1/parse

The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			counters := observability.NewCounters()
			observability.Register(counters)

			srv := server.New(runner, server.Options{
				Dist:     dist(cfg, "", "", ""),
				MaxDepth: cfg.Depth,
				Timeout:  cfg.Server.Timeout,
				Limits:   cfg.Import.Limits,
				Counters: counters,
			}, loggerFromContext(ctx))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
