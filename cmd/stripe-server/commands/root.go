// Package commands defines the CLI command structure and flag bindings.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/config"
	"github.com/founderlab/fl-stripe-server/pkg/logger"
)

var configFile string

// Root returns the root command for the stripe-server CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stripe-server",
		Short:         "Card and subscription API backed by Stripe",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file (default: configs/$APP_ENV/stripe-server.yaml, environment only when absent)")

	cmd.AddCommand(Serve())
	cmd.AddCommand(Migrate())
	cmd.AddCommand(Plans())
	cmd.AddCommand(Events())
	cmd.AddCommand(Version())

	return cmd
}

// loadConfig reads the --config file, or the per-environment file when present.
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(config.LoadOptions{
		File:     configFile,
		Optional: configFile == "",
	})
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
