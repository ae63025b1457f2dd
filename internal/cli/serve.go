package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/houndview/internal/server"
	"github.com/matzehuels/houndview/pkg/observability/prom"
)

func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve explore queries over HTTP",
		Long: `Serve explore queries over HTTP.

Routes:
  GET /api/explore?<location>        run the search a location selects
  GET /api/explore/table?<location>  one page of a relationship section
  GET /api/items/{id}                decode an item id (?fetch=true loads it)
  GET /api/edge-filters?<location>   the edge filter tree (?q= narrows it)
  GET /api/sections/{kind}           relationship sections of an entity kind
  GET /healthz, /metrics

Clients that send ` + server.SessionHeader + ` share one executor, so a
new search cancels that client's previous one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.cfg()

			t, err := c.newTransport(cfg)
			if err != nil {
				return err
			}
			rc, err := c.newCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer rc.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			prom.New(reg).Register()

			opts := server.Options{
				Addr:      cfg.Server.Addr,
				Transport: t,
				Cache:     rc,
				Keyer:     keyer(cfg),
				TTL:       cfg.Cache.TTL,
				Retry:     cfg.Explore.Retry,
				Gatherer:  reg,
				Logger:    c.Logger,
			}
			if cfg.Neo4j.URI != "" {
				db, err := c.openGraphDB(ctx)
				if err != nil {
					return err
				}
				defer db.Close(context.WithoutCancel(ctx))
				opts.Items = db
			}

			c.Logger.Info("serving explore queries", "api", cfg.API.URL, "cache", cfg.Cache.Backend, "items", opts.Items != nil)
			return server.New(opts).Serve(ctx)
		},
	}
	cmd.Flags().String("server-addr", "", "listen address (default "+c.cfg().Server.Addr+")")
	return cmd
}
