package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/unimap/unimap/config"
	"github.com/unimap/unimap/routes"
	"github.com/unimap/unimap/utils"
	"github.com/unimap/unimap/visits"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			db := config.InitDatabase()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ledger := visits.NewLedger(db)
			ledger.StartPruner(ctx, cfg.SiteVisitRetentionDays, time.Hour)

			r := routes.SetupRouter(routes.Deps{
				Config: cfg,
				DB:     db,
				Cache:  utils.NewCache(utils.InitRedis(cfg)),
				Ledger: ledger,
			})

			utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
			return utils.ServeContext(ctx, ":"+cfg.AppPort, r)
		},
	}
}
