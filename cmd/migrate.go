package main

import (
	"context"

	root "logocluster"
	"logocluster/internal/config"
	"logocluster/pkg/logger"

	"github.com/spf13/cobra"
)

// migrateCommand constructs the 'migrate' subcommand that applies database
// migrations to the latest version using goose.
func migrateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrates database to the latest version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			strg, closeStrg, err := getPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStrg()

			if err := strg.Migrate(ctx, root.Migrations); err != nil {
				return err
			}
			logger.Info(ctx, "database migrated")

			return nil
		},
	}

	return cmd
}
