package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/app"
)

// Serve returns the serve command.
func Serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				log.Error("Failed to start", zap.Error(err))
				return err
			}
			defer a.Close()

			log.Info("Stripe server starting",
				zap.String("environment", cfg.Service.Environment),
				zap.String("provider", a.Gateway.GetProviderName()),
				zap.String("database", cfg.Database.Driver),
			)
			return a.Run(ctx)
		},
	}
}
