package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/founderlab/fl-stripe-server/internal/infrastructure/provider"
	"github.com/founderlab/fl-stripe-server/internal/usecase"
)

// Plans returns the plans command.
func Plans() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List the subscription plans offered by the configured gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			gateway, err := provider.NewFactory(&cfg.Stripe, log, nil).GetProviderFromString(cfg.Stripe.Provider)
			if err != nil {
				return err
			}

			service := usecase.NewCardService(nil, gateway, usecase.CardServiceConfig{}, nil, log)
			plans, err := service.ListPlans(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(plans)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRICE\tINTERVAL")
			for _, p := range plans {
				fmt.Fprintf(w, "%s\t%s\t%s\tevery %d %s\n", p.ID, p.Nickname, p.DisplayAmount, p.IntervalCount, p.Interval)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print plans as JSON")

	return cmd
}
