package commands

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/adapter/event"
	"github.com/founderlab/fl-stripe-server/pkg/messaging"
)

// Events returns the events command.
func Events() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print subscription events published to Redis until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.Redis.Addr == "" {
				return fmt.Errorf("redis.addr is not configured")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := messaging.NewRedisClient(ctx, messaging.RedisOptions{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			messages, err := client.Subscribe(ctx, cfg.Redis.Channel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for msg := range messages {
				var e event.SubscriptionMessage
				if err := msg.Decode(&e); err != nil {
					log.Warn("Skipping undecodable message", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				fmt.Fprintf(out, "%s %s owner=%s plan=%s subscription=%s status=%s\n",
					e.PublishedAt.Format(time.RFC3339), e.Type, e.OwnerID, e.PlanID, e.SubscriptionID, e.Status)
			}
			return nil
		},
	}
}
