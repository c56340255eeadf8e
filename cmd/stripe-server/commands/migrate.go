package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/founderlab/fl-stripe-server/internal/config"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/database"
)

// Migrate returns the migrate command.
func Migrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the customer table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			switch cfg.Database.Driver {
			case config.DriverSQLite:
				// Opening applies the schema.
				db, err := database.OpenSQLite(cfg.Database.SQLitePath, log)
				if err != nil {
					return err
				}
				if err := db.Close(); err != nil {
					return err
				}
			case config.DriverPostgres:
				db, err := database.NewConnection(&cfg.Database, log)
				if err != nil {
					return err
				}
				defer database.Close(db, log)
				if err := database.Migrate(db, log); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database %s\n", cfg.Database.Driver, cfg.Database.Target())
			return nil
		},
	}
}
